// Package sequences wires the automation module: storage, the enrollment
// engine, HTTP routes and the bus subscriptions that feed business events
// into the engine.
package sequences

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"collectflow_backend/internal/email"
	domainevents "collectflow_backend/internal/events"
	apphttp "collectflow_backend/internal/http"
	"collectflow_backend/internal/sequences/handler"
	"collectflow_backend/internal/sequences/repository"
	"collectflow_backend/internal/sequences/service"
	"collectflow_backend/internal/sms"
	"collectflow_backend/platform/events"
	"collectflow_backend/platform/logger"
)

// Module bundles the sequence components.
type Module struct {
	Repo    *repository.Repository
	Service *service.Service
	Handler *handler.Handler
}

// New constructs the module. Collaborators from other modules come in as the
// narrow interfaces the engine declares.
func New(pool *pgxpool.Pool, bus events.Bus, consumers service.ConsumerStore,
	tenants service.TenantStore, arrangements service.ArrangementStore,
	branding service.BrandingResolver, emailSender email.Sender,
	smsSender sms.Sender, log *logger.Logger) *Module {

	repo := repository.New(pool)
	svc := service.New(repo, consumers, tenants, arrangements, branding, emailSender, smsSender, log)
	return &Module{
		Repo:    repo,
		Service: svc,
		Handler: handler.New(repo, bus, log),
	}
}

func (m *Module) Name() string { return "sequences" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.Handler.RegisterRoutes(ctx.Protected)
}

// RegisterHandlers subscribes the enrollment engine to every event that can
// start a sequence, plus the due-message event from the scheduler worker.
func (m *Module) RegisterHandlers(bus events.Bus) {
	enroll := events.HandlerFunc(m.handleEnrollmentEvent)
	for _, name := range []string{
		domainevents.AccountCreatedName,
		domainevents.PaymentReceivedName,
		domainevents.PaymentOverdueName,
		domainevents.PaymentFailedName,
		domainevents.OneTimePaymentName,
		domainevents.ManualTriggerName,
	} {
		bus.Subscribe(name, enroll)
	}
	bus.Subscribe(domainevents.SequenceMessageDueName, events.HandlerFunc(m.handleMessageDue))
}

// handleEnrollmentEvent translates a bus event into the engine's request,
// mapping event names to the trigger tags stored on sequences.
func (m *Module) handleEnrollmentEvent(ctx context.Context, event events.Event) error {
	var req service.EnrollmentRequest

	switch e := event.(type) {
	case domainevents.AccountCreated:
		req = service.EnrollmentRequest{
			TenantID: e.TenantID, ConsumerID: e.ConsumerID,
			AccountID: ptr(e.AccountID), Tag: service.TagAccountCreated,
		}
	case domainevents.PaymentReceived:
		req = service.EnrollmentRequest{
			TenantID: e.TenantID, ConsumerID: e.ConsumerID,
			AccountID: ptr(e.AccountID), Tag: service.TagPaymentReceived,
		}
	case domainevents.PaymentOverdue:
		req = service.EnrollmentRequest{
			TenantID: e.TenantID, ConsumerID: e.ConsumerID,
			AccountID: ptr(e.AccountID), Tag: service.TagPaymentOverdue,
		}
	case domainevents.PaymentFailed:
		req = service.EnrollmentRequest{
			TenantID: e.TenantID, ConsumerID: e.ConsumerID,
			AccountID: ptr(e.AccountID), Tag: service.TagPaymentFailed,
		}
	case domainevents.OneTimePayment:
		req = service.EnrollmentRequest{
			TenantID: e.TenantID, ConsumerID: e.ConsumerID,
			AccountID: ptr(e.AccountID), Tag: service.TagOneTimePayment,
		}
	case domainevents.ManualTrigger:
		req = service.EnrollmentRequest{
			TenantID: e.TenantID, ConsumerID: e.ConsumerID,
			Tag: service.TagManual, SequenceID: ptr(e.SequenceID),
		}
		if e.AccountID != uuid.Nil {
			req.AccountID = ptr(e.AccountID)
		}
	default:
		return nil
	}

	return m.Service.ProcessEvent(ctx, req)
}

func (m *Module) handleMessageDue(ctx context.Context, event events.Event) error {
	due, ok := event.(domainevents.SequenceMessageDue)
	if !ok {
		return nil
	}
	return m.Service.ProcessDueMessage(ctx, due.TenantID, due.EnrollmentID)
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }
