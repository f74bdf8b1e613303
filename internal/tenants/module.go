// Package tenants wires agency records, branding and message templates.
package tenants

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"collectflow_backend/internal/adapters/storage"
	apphttp "collectflow_backend/internal/http"
	"collectflow_backend/internal/tenants/handler"
	"collectflow_backend/internal/tenants/repository"
	"collectflow_backend/internal/tenants/service"
	"collectflow_backend/platform/logger"
)

// Module bundles the tenant components.
type Module struct {
	Repo    *repository.Repository
	Service *service.Service
	Handler *handler.Handler
}

// New constructs the module. storageSvc may be nil in environments without
// object storage; logo upload then fails and branding renders without a logo.
func New(pool *pgxpool.Pool, storageSvc *storage.Service, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, storageSvc, log)
	return &Module{
		Repo:    repo,
		Service: svc,
		Handler: handler.New(svc, repo, log),
	}
}

func (m *Module) Name() string { return "tenants" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.Handler.RegisterRoutes(ctx.Protected)
}
