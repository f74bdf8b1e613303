// Package http provides HTTP server infrastructure including the module
// registration contract domain modules implement to mount their routes.
package http

import (
	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own route
// setup, keeping the router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes.
	RegisterRoutes(ctx *RouterContext)
}

// NewModule adapts a name and a registration function to the Module
// interface, for small modules without a dedicated wiring type.
func NewModule(name string, register func(ctx *RouterContext)) Module {
	return &funcModule{name: name, register: register}
}

type funcModule struct {
	name     string
	register func(ctx *RouterContext)
}

func (m *funcModule) Name() string                      { return m.name }
func (m *funcModule) RegisterRoutes(ctx *RouterContext) { m.register(ctx) }

// RouterContext provides shared route groups so modules do not take the
// whole engine.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// V1 is the public /api/v1 route group.
	V1 *gin.RouterGroup
	// Protected is the authenticated route group under /api/v1.
	Protected *gin.RouterGroup
}
