// Package repository persists sequences, their steps and enrollments.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collectflow_backend/internal/campaigns/targeting"
	"collectflow_backend/platform/apperr"
)

// TriggerType distinguishes event-driven sequences from manual-only ones.
type TriggerType string

const (
	TriggerEvent  TriggerType = "event"
	TriggerManual TriggerType = "manual"
)

// Sequence is a tenant-scoped automation: a trigger, a targeting spec and
// an ordered list of steps.
type Sequence struct {
	ID               uuid.UUID      `json:"id"`
	TenantID         uuid.UUID      `json:"tenantId"`
	Name             string         `json:"name"`
	IsActive         bool           `json:"isActive"`
	TriggerType      TriggerType    `json:"triggerType"`
	TriggerEvent     string         `json:"triggerEvent,omitempty"`
	TriggerDelayDays int            `json:"triggerDelayDays"`
	Targeting        targeting.Spec `json:"targeting"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Step is one message in a sequence. Delays are relative to the previous
// step (and additive with the sequence trigger delay for the first step).
type Step struct {
	ID            uuid.UUID  `json:"id"`
	SequenceID    uuid.UUID  `json:"sequenceId"`
	StepOrder     int        `json:"stepOrder"`
	DelayDays     int        `json:"delayDays"`
	DelayHours    int        `json:"delayHours"`
	TemplateID    uuid.UUID  `json:"templateId"`
	ArrangementID *uuid.UUID `json:"arrangementId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Enrollment statuses.
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentCancelled = "cancelled"
)

// Enrollment tracks one consumer's progress through a sequence. At most one
// active enrollment may exist per (sequence, consumer); a partial unique
// index enforces it at the storage layer.
type Enrollment struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenantId"`
	SequenceID       uuid.UUID  `json:"sequenceId"`
	ConsumerID       uuid.UUID  `json:"consumerId"`
	AccountID        *uuid.UUID `json:"accountId,omitempty"`
	Status           string     `json:"status"`
	CurrentStepID    uuid.UUID  `json:"currentStepId"`
	CurrentStepOrder int        `json:"currentStepOrder"`
	NextMessageAt    time.Time  `json:"nextMessageAt"`
	EnrolledAt       time.Time  `json:"enrolledAt"`
	ClosedAt         *time.Time `json:"closedAt,omitempty"`
}

// Repository provides sequence storage on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const sequenceColumns = `id, tenant_id, name, is_active, trigger_type, trigger_event, trigger_delay_days, targeting, created_at, updated_at`

func scanSequence(row pgx.Row) (*Sequence, error) {
	var s Sequence
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.IsActive, &s.TriggerType,
		&s.TriggerEvent, &s.TriggerDelayDays, &s.Targeting, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSequence inserts a sequence.
func (r *Repository) CreateSequence(ctx context.Context, s *Sequence) error {
	s.ID = uuid.New()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sequences (id, tenant_id, name, is_active, trigger_type, trigger_event, trigger_delay_days, targeting, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.TenantID, s.Name, s.IsActive, s.TriggerType, s.TriggerEvent,
		s.TriggerDelayDays, s.Targeting, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert sequence: %w", err)
	}
	return nil
}

// GetSequence loads one sequence scoped to the tenant.
func (r *Repository) GetSequence(ctx context.Context, tenantID, id uuid.UUID) (*Sequence, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sequenceColumns+` FROM sequences WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	s, err := scanSequence(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("sequence not found")
		}
		return nil, fmt.Errorf("get sequence: %w", err)
	}
	return s, nil
}

// ListSequencesByTenant returns every sequence for the tenant.
func (r *Repository) ListSequencesByTenant(ctx context.Context, tenantID uuid.UUID) ([]Sequence, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sequenceColumns+` FROM sequences WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	defer rows.Close()
	return collectSequences(rows)
}

// ListActiveSequencesByTenant returns the tenant's active sequences; the
// enrollment engine filters these by trigger.
func (r *Repository) ListActiveSequencesByTenant(ctx context.Context, tenantID uuid.UUID) ([]Sequence, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sequenceColumns+` FROM sequences WHERE tenant_id = $1 AND is_active = true`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list active sequences: %w", err)
	}
	defer rows.Close()
	return collectSequences(rows)
}

func collectSequences(rows pgx.Rows) ([]Sequence, error) {
	var out []Sequence
	for rows.Next() {
		s, err := scanSequence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sequence: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// UpdateSequence rewrites a sequence definition.
func (r *Repository) UpdateSequence(ctx context.Context, s *Sequence) error {
	s.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE sequences SET name = $3, is_active = $4, trigger_type = $5, trigger_event = $6,
			trigger_delay_days = $7, targeting = $8, updated_at = $9
		WHERE id = $1 AND tenant_id = $2`,
		s.ID, s.TenantID, s.Name, s.IsActive, s.TriggerType, s.TriggerEvent,
		s.TriggerDelayDays, s.Targeting, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sequence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("sequence not found")
	}
	return nil
}

// CreateStep appends a step to a sequence.
func (r *Repository) CreateStep(ctx context.Context, st *Step) error {
	st.ID = uuid.New()
	st.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sequence_steps (id, sequence_id, step_order, delay_days, delay_hours, template_id, arrangement_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		st.ID, st.SequenceID, st.StepOrder, st.DelayDays, st.DelayHours,
		st.TemplateID, st.ArrangementID, st.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

// ListSteps returns the sequence's steps in order.
func (r *Repository) ListSteps(ctx context.Context, sequenceID uuid.UUID) ([]Step, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sequence_id, step_order, delay_days, delay_hours, template_id, arrangement_id, created_at
		FROM sequence_steps WHERE sequence_id = $1 ORDER BY step_order`, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var out []Step
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.ID, &st.SequenceID, &st.StepOrder, &st.DelayDays,
			&st.DelayHours, &st.TemplateID, &st.ArrangementID, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// DeleteStep removes a step.
func (r *Repository) DeleteStep(ctx context.Context, sequenceID, stepID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM sequence_steps WHERE id = $1 AND sequence_id = $2`, stepID, sequenceID)
	if err != nil {
		return fmt.Errorf("delete step: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("step not found")
	}
	return nil
}
