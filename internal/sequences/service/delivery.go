package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"collectflow_backend/internal/arrangements"
	consumerrepo "collectflow_backend/internal/consumers/repository"
	"collectflow_backend/internal/email"
	"collectflow_backend/internal/sequences/repository"
	"collectflow_backend/internal/sms"
	"collectflow_backend/internal/templating"
	tenantrepo "collectflow_backend/internal/tenants/repository"
)

// ProcessDueMessage renders and delivers the enrollment's current step,
// then advances the enrollment or completes it when no step remains.
// There is no retry on send failure: the error is returned for the worker
// to log and the enrollment stays claimed for operator attention.
func (s *Service) ProcessDueMessage(ctx context.Context, tenantID, enrollmentID uuid.UUID) error {
	enrollment, err := s.store.GetEnrollment(ctx, tenantID, enrollmentID)
	if err != nil {
		return err
	}
	if enrollment.Status != repository.EnrollmentActive {
		// Cancelled or completed after the task was enqueued; nothing to do.
		s.log.Debug("due_message_skipped",
			"enrollment_id", enrollmentID.String(),
			"status", enrollment.Status,
		)
		return nil
	}

	seq, err := s.store.GetSequence(ctx, tenantID, enrollment.SequenceID)
	if err != nil {
		return err
	}
	steps, err := s.store.ListSteps(ctx, seq.ID)
	if err != nil {
		return err
	}

	current, next := locateStep(steps, enrollment)
	if current == nil {
		// Step was deleted mid-flight; close the enrollment rather than
		// leave it stuck.
		s.log.Warn("enrollment_step_missing",
			"enrollment_id", enrollment.ID.String(),
			"sequence_id", seq.ID.String(),
		)
		return s.store.CloseEnrollment(ctx, tenantID, enrollment.ID, repository.EnrollmentCompleted)
	}

	if err := s.deliverStep(ctx, seq, enrollment, current); err != nil {
		s.log.Error("step_delivery_failed",
			"enrollment_id", enrollment.ID.String(),
			"sequence_id", seq.ID.String(),
			"step_order", fmt.Sprint(current.StepOrder),
			"error", err.Error(),
		)
		return err
	}

	if next == nil {
		return s.store.CloseEnrollment(ctx, tenantID, enrollment.ID, repository.EnrollmentCompleted)
	}
	nextAt := nextMessageAt(s.now(), 0, next.DelayDays, next.DelayHours)
	return s.store.AdvanceEnrollment(ctx, enrollment.ID, next.ID, next.StepOrder, nextAt)
}

// locateStep finds the enrollment's current step and the one after it.
func locateStep(steps []repository.Step, e *repository.Enrollment) (current, next *repository.Step) {
	for i := range steps {
		if steps[i].ID == e.CurrentStepID || steps[i].StepOrder == e.CurrentStepOrder {
			current = &steps[i]
			if i+1 < len(steps) {
				next = &steps[i+1]
			}
			return current, next
		}
	}
	return nil, nil
}

func (s *Service) deliverStep(ctx context.Context, seq *repository.Sequence,
	enrollment *repository.Enrollment, step *repository.Step) error {

	consumer, err := s.consumers.GetConsumer(ctx, enrollment.TenantID, enrollment.ConsumerID)
	if err != nil {
		return err
	}
	tenant, err := s.tenants.GetTenant(ctx, enrollment.TenantID)
	if err != nil {
		return err
	}
	template, err := s.tenants.GetTemplate(ctx, enrollment.TenantID, step.TemplateID)
	if err != nil {
		return err
	}

	account, err := s.resolveAccount(ctx, enrollment)
	if err != nil {
		return err
	}

	var enriched *arrangements.Enriched
	if step.ArrangementID != nil {
		opt, err := s.arrangements.Get(ctx, enrollment.TenantID, *step.ArrangementID)
		if err != nil {
			return err
		}
		enriched = arrangements.Enrich(opt)
	}

	renderCtx := templating.FromDomain(consumer, account, tenant, enriched)
	body := templating.Replace(template.Body, renderCtx)

	switch template.Channel {
	case tenantrepo.ChannelSMS:
		if consumer.Phone == "" {
			return fmt.Errorf("consumer has no phone number")
		}
		return s.sms.Send(ctx, sms.Message{To: consumer.Phone, Body: body})
	default:
		if consumer.Email == "" {
			return fmt.Errorf("consumer has no email address")
		}
		branding, err := s.branding.EmailBranding(ctx, enrollment.TenantID)
		if err != nil {
			return err
		}
		subject := templating.Replace(template.Subject, renderCtx)
		return s.email.Send(ctx, email.Message{
			To:       consumer.Email,
			ToName:   consumer.FirstName + " " + consumer.LastName,
			Subject:  subject,
			HTMLBody: email.FinalizeHTML(body, branding),
		})
	}
}

// resolveAccount prefers the account the triggering event referenced and
// falls back to the consumer's first account.
func (s *Service) resolveAccount(ctx context.Context, e *repository.Enrollment) (*consumerrepo.Account, error) {
	if e.AccountID != nil {
		return s.consumers.GetAccount(ctx, e.TenantID, *e.AccountID)
	}
	accounts, err := s.consumers.ListAccountsByConsumer(ctx, e.TenantID, e.ConsumerID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}
