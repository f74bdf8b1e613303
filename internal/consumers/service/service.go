// Package service holds consumer lifecycle operations: account placement,
// payment ingestion (the business events feeding sequence enrollment) and
// consumer portal access codes.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"collectflow_backend/internal/consumers/repository"
	"collectflow_backend/internal/events"
	"collectflow_backend/platform/apperr"
	"collectflow_backend/platform/logger"
	"collectflow_backend/platform/phone"
)

// Service coordinates consumer operations and emits domain events.
type Service struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// CreateConsumer inserts a consumer record. Phone numbers are normalized to
// E.164 when present; an unparseable phone is stored empty rather than
// rejected (imports carry dirty data).
func (s *Service) CreateConsumer(ctx context.Context, c *repository.Consumer) error {
	if c.Phone != "" {
		normalized, err := phone.Normalize(c.Phone)
		if err != nil {
			s.log.Warn("consumer_phone_invalid", "tenant_id", c.TenantID.String(), "error", err.Error())
			c.Phone = ""
		} else {
			c.Phone = normalized
		}
	}
	return s.repo.CreateConsumer(ctx, c)
}

// PlaceAccount inserts a debt account and emits account.created, which may
// enroll the consumer into intake sequences.
func (s *Service) PlaceAccount(ctx context.Context, a *repository.Account) error {
	if _, err := s.repo.GetConsumer(ctx, a.TenantID, a.ConsumerID); err != nil {
		return err
	}
	if err := s.repo.CreateAccount(ctx, a); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.AccountCreated{
		BaseEvent:  events.NewBase(),
		TenantID:   a.TenantID,
		ConsumerID: a.ConsumerID,
		AccountID:  a.ID,
	})
	return nil
}

// RecordPayment applies a settled payment to the account balance and emits
// payment.received (or payment.one_time for ad-hoc payments).
func (s *Service) RecordPayment(ctx context.Context, tenantID, consumerID, accountID uuid.UUID, amountCents int64, oneTime bool) error {
	if amountCents <= 0 {
		return apperr.Validation("payment amount must be positive")
	}
	if err := s.repo.ApplyPayment(ctx, tenantID, accountID, amountCents); err != nil {
		return err
	}

	base := events.NewBase()
	if oneTime {
		s.bus.Publish(ctx, events.OneTimePayment{
			BaseEvent: base, TenantID: tenantID, ConsumerID: consumerID,
			AccountID: accountID, AmountCents: amountCents,
		})
	} else {
		s.bus.Publish(ctx, events.PaymentReceived{
			BaseEvent: base, TenantID: tenantID, ConsumerID: consumerID,
			AccountID: accountID, AmountCents: amountCents,
		})
	}
	return nil
}

// RecordPaymentFailure emits payment.failed for a declined or bounced attempt.
func (s *Service) RecordPaymentFailure(ctx context.Context, tenantID, consumerID, accountID uuid.UUID, reason string) error {
	if _, err := s.repo.GetAccount(ctx, tenantID, accountID); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.PaymentFailed{
		BaseEvent: events.NewBase(), TenantID: tenantID, ConsumerID: consumerID,
		AccountID: accountID, Reason: reason,
	})
	return nil
}

// MarkAccountOverdue flips the account status and emits payment.overdue.
func (s *Service) MarkAccountOverdue(ctx context.Context, tenantID, consumerID, accountID uuid.UUID, dueDate time.Time) error {
	if err := s.repo.UpdateAccountStatus(ctx, tenantID, accountID, "overdue"); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.PaymentOverdue{
		BaseEvent: events.NewBase(), TenantID: tenantID, ConsumerID: consumerID,
		AccountID: accountID, DueDate: dueDate,
	})
	return nil
}

const accessCodeDigits = 8

// IssueAccessCode generates a numeric portal access code for the consumer,
// stores only its bcrypt hash, and returns the plain code for delivery.
func (s *Service) IssueAccessCode(ctx context.Context, tenantID, consumerID uuid.UUID) (string, error) {
	if _, err := s.repo.GetConsumer(ctx, tenantID, consumerID); err != nil {
		return "", err
	}

	code, err := randomDigits(accessCodeDigits)
	if err != nil {
		return "", fmt.Errorf("generate access code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash access code: %w", err)
	}
	if err := s.repo.SetAccessCodeHash(ctx, tenantID, consumerID, string(hash)); err != nil {
		return "", err
	}
	return code, nil
}

// VerifyAccessCode checks a portal sign-in attempt. The first success marks
// the consumer registered and emits consumer.registered.
func (s *Service) VerifyAccessCode(ctx context.Context, tenantID, consumerID uuid.UUID, code string) error {
	hash, err := s.repo.GetAccessCodeHash(ctx, tenantID, consumerID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Unauthorized("invalid access code")
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return apperr.Unauthorized("invalid access code")
	}

	if err := s.repo.MarkRegistered(ctx, tenantID, consumerID); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.ConsumerRegistered{
		BaseEvent: events.NewBase(), TenantID: tenantID, ConsumerID: consumerID,
	})
	return nil
}

func randomDigits(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + v.Int64())
	}
	return string(out), nil
}
