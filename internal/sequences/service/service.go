// Package service implements the enrollment engine: it receives business
// events, matches them against active sequences, evaluates targeting,
// deduplicates and schedules the first message. Delivery of due messages
// lives in delivery.go.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"collectflow_backend/internal/arrangements"
	"collectflow_backend/internal/campaigns/targeting"
	consumerrepo "collectflow_backend/internal/consumers/repository"
	"collectflow_backend/internal/email"
	"collectflow_backend/internal/sequences/repository"
	"collectflow_backend/internal/sms"
	tenantrepo "collectflow_backend/internal/tenants/repository"
	"collectflow_backend/platform/logger"
)

// Trigger event tags stored on sequences. These are the values agency
// admins pick when configuring a trigger.
const (
	TagAccountCreated  = "account_created"
	TagPaymentReceived = "payment_received"
	TagPaymentOverdue  = "payment_overdue"
	TagPaymentFailed   = "payment_failed"
	TagOneTimePayment  = "one_time_payment"
	TagManual          = "manual"
)

// SequenceStore is the storage the engine needs.
type SequenceStore interface {
	ListActiveSequencesByTenant(ctx context.Context, tenantID uuid.UUID) ([]repository.Sequence, error)
	GetSequence(ctx context.Context, tenantID, id uuid.UUID) (*repository.Sequence, error)
	ListSteps(ctx context.Context, sequenceID uuid.UUID) ([]repository.Step, error)
	HasActiveEnrollment(ctx context.Context, sequenceID, consumerID uuid.UUID) (bool, error)
	CreateEnrollment(ctx context.Context, e *repository.Enrollment) (bool, error)
	GetEnrollment(ctx context.Context, tenantID, id uuid.UUID) (*repository.Enrollment, error)
	AdvanceEnrollment(ctx context.Context, id, stepID uuid.UUID, stepOrder int, nextMessageAt time.Time) error
	CloseEnrollment(ctx context.Context, tenantID, id uuid.UUID, status string) error
}

// ConsumerStore loads consumer and account snapshots.
type ConsumerStore interface {
	GetConsumer(ctx context.Context, tenantID, id uuid.UUID) (*consumerrepo.Consumer, error)
	ListAccountsByConsumer(ctx context.Context, tenantID, consumerID uuid.UUID) ([]consumerrepo.Account, error)
	GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*consumerrepo.Account, error)
}

// TenantStore loads the tenant record and message templates.
type TenantStore interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*tenantrepo.Tenant, error)
	GetTemplate(ctx context.Context, tenantID, id uuid.UUID) (*tenantrepo.MessageTemplate, error)
}

// ArrangementStore loads the plan a step promotes.
type ArrangementStore interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (*arrangements.Option, error)
}

// BrandingResolver supplies email branding for the finalizer.
type BrandingResolver interface {
	EmailBranding(ctx context.Context, tenantID uuid.UUID) (email.Branding, error)
}

// Service is the enrollment engine.
type Service struct {
	store        SequenceStore
	consumers    ConsumerStore
	tenants      TenantStore
	arrangements ArrangementStore
	branding     BrandingResolver
	email        email.Sender
	sms          sms.Sender
	log          *logger.Logger

	// now is swappable for deterministic scheduling tests.
	now func() time.Time
}

func New(store SequenceStore, consumers ConsumerStore, tenants TenantStore,
	arrangementStore ArrangementStore, branding BrandingResolver,
	emailSender email.Sender, smsSender sms.Sender, log *logger.Logger) *Service {
	return &Service{
		store:        store,
		consumers:    consumers,
		tenants:      tenants,
		arrangements: arrangementStore,
		branding:     branding,
		email:        emailSender,
		sms:          smsSender,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// EnrollmentRequest describes one event occurrence to evaluate.
type EnrollmentRequest struct {
	TenantID   uuid.UUID
	ConsumerID uuid.UUID
	AccountID  *uuid.UUID
	// Tag is the trigger event tag (TagAccountCreated, ...).
	Tag string
	// SequenceID, when set, narrows enrollment to that single sequence and
	// bypasses the event-trigger match (manual trigger).
	SequenceID *uuid.UUID
}

// ProcessEvent evaluates every candidate sequence for the event. Failures
// are per-sequence: one sequence's error is logged and the loop continues.
// The method itself only errors when the candidate list cannot be loaded.
func (s *Service) ProcessEvent(ctx context.Context, req EnrollmentRequest) error {
	sequences, err := s.store.ListActiveSequencesByTenant(ctx, req.TenantID)
	if err != nil {
		s.log.Error("sequence_lookup_failed",
			"tenant_id", req.TenantID.String(),
			"event", req.Tag,
			"error", err.Error(),
		)
		return err
	}

	for i := range sequences {
		seq := &sequences[i]
		if !s.sequenceMatches(seq, req) {
			continue
		}
		if err := s.enroll(ctx, seq, req); err != nil {
			s.log.Error("enrollment_failed",
				"tenant_id", req.TenantID.String(),
				"sequence_id", seq.ID.String(),
				"consumer_id", req.ConsumerID.String(),
				"event", req.Tag,
				"error", err.Error(),
			)
		}
	}
	return nil
}

func (s *Service) sequenceMatches(seq *repository.Sequence, req EnrollmentRequest) bool {
	if req.SequenceID != nil {
		return seq.ID == *req.SequenceID
	}
	return seq.TriggerType == repository.TriggerEvent && seq.TriggerEvent == req.Tag
}

// enroll runs the per-sequence enrollment decision for one consumer.
func (s *Service) enroll(ctx context.Context, seq *repository.Sequence, req EnrollmentRequest) error {
	manual := req.SequenceID != nil

	// Custom targeting is manual-only: events never auto-enroll into it.
	if !manual && seq.Targeting.TargetType == targeting.TargetCustom {
		s.logDecision("sequence_skipped", seq, req, "custom_targeting")
		return nil
	}

	if seq.Targeting.TargetType == targeting.TargetFolder {
		ok, err := s.matchesFolderTargeting(ctx, seq, req)
		if err != nil {
			return err
		}
		if !ok {
			s.logDecision("sequence_skipped", seq, req, "folder_mismatch")
			return nil
		}
	}

	exists, err := s.store.HasActiveEnrollment(ctx, seq.ID, req.ConsumerID)
	if err != nil {
		return err
	}
	if exists {
		s.logDecision("sequence_skipped", seq, req, "already_enrolled")
		return nil
	}

	steps, err := s.store.ListSteps(ctx, seq.ID)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		s.logDecision("sequence_skipped", seq, req, "no_steps")
		return nil
	}
	first := steps[0]

	now := s.now()
	enrollment := &repository.Enrollment{
		TenantID:         req.TenantID,
		SequenceID:       seq.ID,
		ConsumerID:       req.ConsumerID,
		AccountID:        req.AccountID,
		Status:           repository.EnrollmentActive,
		CurrentStepID:    first.ID,
		CurrentStepOrder: first.StepOrder,
		NextMessageAt:    nextMessageAt(now, seq.TriggerDelayDays, first.DelayDays, first.DelayHours),
		EnrolledAt:       now,
	}

	created, err := s.store.CreateEnrollment(ctx, enrollment)
	if err != nil {
		return err
	}
	if !created {
		// Lost the race to a concurrent event; the unique index made the
		// duplicate a no-op.
		s.logDecision("sequence_skipped", seq, req, "duplicate_enrollment")
		return nil
	}

	s.log.Info("consumer_enrolled",
		"tenant_id", req.TenantID.String(),
		"sequence_id", seq.ID.String(),
		"consumer_id", req.ConsumerID.String(),
		"event", req.Tag,
		"next_message_at", enrollment.NextMessageAt.Format(time.RFC3339),
	)
	return nil
}

// matchesFolderTargeting requires one of the consumer's accounts to sit in
// a targeted folder. An empty folder set matches nothing.
func (s *Service) matchesFolderTargeting(ctx context.Context, seq *repository.Sequence, req EnrollmentRequest) (bool, error) {
	if len(seq.Targeting.TargetFolderIDs) == 0 {
		return false, nil
	}
	accounts, err := s.consumers.ListAccountsByConsumer(ctx, req.TenantID, req.ConsumerID)
	if err != nil {
		return false, err
	}

	folders := make(map[uuid.UUID]struct{}, len(seq.Targeting.TargetFolderIDs))
	for _, id := range seq.Targeting.TargetFolderIDs {
		folders[id] = struct{}{}
	}
	for _, a := range accounts {
		if a.FolderID != nil {
			if _, ok := folders[*a.FolderID]; ok {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Service) logDecision(msg string, seq *repository.Sequence, req EnrollmentRequest, reason string) {
	s.log.Debug(msg,
		"tenant_id", req.TenantID.String(),
		"sequence_id", seq.ID.String(),
		"consumer_id", req.ConsumerID.String(),
		"event", req.Tag,
		"reason", reason,
	)
}

// nextMessageAt computes when a step's message goes out: base time plus the
// sequence trigger delay (first step only; callers pass 0 afterwards) plus
// the step delays, truncated to the hour for predictable scheduling.
func nextMessageAt(base time.Time, triggerDelayDays, delayDays, delayHours int) time.Time {
	t := base.UTC().
		AddDate(0, 0, triggerDelayDays+delayDays).
		Add(time.Duration(delayHours) * time.Hour)
	return t.Truncate(time.Hour)
}
