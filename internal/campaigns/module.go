// Package campaigns wires one-shot targeted sends: targeting evaluation,
// rendering and delivery.
package campaigns

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"collectflow_backend/internal/campaigns/handler"
	"collectflow_backend/internal/campaigns/repository"
	"collectflow_backend/internal/campaigns/service"
	consumerrepo "collectflow_backend/internal/consumers/repository"
	"collectflow_backend/internal/email"
	apphttp "collectflow_backend/internal/http"
	"collectflow_backend/internal/sms"
	"collectflow_backend/platform/logger"
)

// Module bundles the campaign components.
type Module struct {
	Repo    *repository.Repository
	Service *service.Service
	Handler *handler.Handler
}

// New constructs the module. Cross-module collaborators arrive as the
// narrow interfaces the service defines.
func New(pool *pgxpool.Pool, consumers *consumerrepo.Repository,
	tenants service.TenantStore, arrangementStore service.ArrangementStore,
	branding service.BrandingResolver, emailSender email.Sender,
	smsSender sms.Sender, log *logger.Logger) *Module {

	repo := repository.New(pool)
	svc := service.New(repo, consumers, tenants, arrangementStore, branding, emailSender, smsSender, log)
	return &Module{
		Repo:    repo,
		Service: svc,
		Handler: handler.New(svc, repo, log),
	}
}

func (m *Module) Name() string { return "campaigns" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.Handler.RegisterRoutes(ctx.Protected)
}
