// Package consumers wires the consumer/account module: storage, lifecycle
// service (which emits the business events driving sequence enrollment) and
// HTTP routes.
package consumers

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"collectflow_backend/internal/consumers/handler"
	"collectflow_backend/internal/consumers/repository"
	"collectflow_backend/internal/consumers/service"
	"collectflow_backend/internal/events"
	apphttp "collectflow_backend/internal/http"
	"collectflow_backend/platform/logger"
)

// Module bundles the consumer components.
type Module struct {
	Repo    *repository.Repository
	Service *service.Service
	Handler *handler.Handler
}

// New constructs the module.
func New(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	return &Module{
		Repo:    repo,
		Service: svc,
		Handler: handler.New(svc, repo, log),
	}
}

func (m *Module) Name() string { return "consumers" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.Handler.RegisterRoutes(ctx.Protected)
}
