package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"collectflow_backend/platform/apperr"
)

const enrollmentColumns = `id, tenant_id, sequence_id, consumer_id, account_id, status, current_step_id, current_step_order, next_message_at, enrolled_at, closed_at`

func scanEnrollment(row pgx.Row) (*Enrollment, error) {
	var e Enrollment
	err := row.Scan(&e.ID, &e.TenantID, &e.SequenceID, &e.ConsumerID, &e.AccountID,
		&e.Status, &e.CurrentStepID, &e.CurrentStepOrder, &e.NextMessageAt, &e.EnrolledAt, &e.ClosedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// HasActiveEnrollment reports whether the consumer is already actively
// enrolled in the sequence.
func (r *Repository) HasActiveEnrollment(ctx context.Context, sequenceID, consumerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM enrollments
			WHERE sequence_id = $1 AND consumer_id = $2 AND status = $3
		)`, sequenceID, consumerID, EnrollmentActive).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return exists, nil
}

// CreateEnrollment inserts an active enrollment. The partial unique index on
// (sequence_id, consumer_id) WHERE status = 'active' closes the
// check-then-insert race: a concurrent duplicate becomes a no-op and the
// method reports created=false.
func (r *Repository) CreateEnrollment(ctx context.Context, e *Enrollment) (bool, error) {
	e.ID = uuid.New()
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO enrollments (id, tenant_id, sequence_id, consumer_id, account_id, status,
			current_step_id, current_step_order, next_message_at, enrolled_at, dispatch_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending')
		ON CONFLICT (sequence_id, consumer_id) WHERE status = 'active' DO NOTHING`,
		e.ID, e.TenantID, e.SequenceID, e.ConsumerID, e.AccountID, e.Status,
		e.CurrentStepID, e.CurrentStepOrder, e.NextMessageAt, e.EnrolledAt)
	if err != nil {
		return false, fmt.Errorf("insert enrollment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetEnrollment loads one enrollment scoped to the tenant.
func (r *Repository) GetEnrollment(ctx context.Context, tenantID, id uuid.UUID) (*Enrollment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	e, err := scanEnrollment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("enrollment not found")
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return e, nil
}

// ListEnrollmentsBySequence returns the sequence's enrollments, newest first.
func (r *Repository) ListEnrollmentsBySequence(ctx context.Context, tenantID, sequenceID uuid.UUID) ([]Enrollment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+enrollmentColumns+` FROM enrollments
		WHERE tenant_id = $1 AND sequence_id = $2 ORDER BY enrolled_at DESC`, tenantID, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var out []Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ClaimDueEnrollments atomically marks up to limit due enrollments as
// enqueued and returns them. SKIP LOCKED lets multiple dispatcher instances
// share the table without double-claiming.
func (r *Repository) ClaimDueEnrollments(ctx context.Context, horizon time.Time, limit int) ([]Enrollment, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE enrollments SET dispatch_status = 'enqueued'
		WHERE id IN (
			SELECT id FROM enrollments
			WHERE status = $1 AND dispatch_status = 'pending' AND next_message_at <= $2
			ORDER BY next_message_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+enrollmentColumns, EnrollmentActive, horizon, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due enrollments: %w", err)
	}
	defer rows.Close()

	var out []Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claimed enrollment: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// AdvanceEnrollment moves an enrollment to its next step and re-opens it
// for dispatch at nextMessageAt.
func (r *Repository) AdvanceEnrollment(ctx context.Context, id, stepID uuid.UUID, stepOrder int, nextMessageAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE enrollments
		SET current_step_id = $2, current_step_order = $3, next_message_at = $4, dispatch_status = 'pending'
		WHERE id = $1 AND status = $5`,
		id, stepID, stepOrder, nextMessageAt, EnrollmentActive)
	if err != nil {
		return fmt.Errorf("advance enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("active enrollment not found")
	}
	return nil
}

// ReopenEnrollment returns a claimed enrollment to the dispatch queue
// without advancing it (used when a send fails).
func (r *Repository) ReopenEnrollment(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE enrollments SET dispatch_status = 'pending' WHERE id = $1 AND status = $2`,
		id, EnrollmentActive)
	if err != nil {
		return fmt.Errorf("reopen enrollment: %w", err)
	}
	return nil
}

// CloseEnrollment transitions an active enrollment to completed or cancelled.
func (r *Repository) CloseEnrollment(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	if status != EnrollmentCompleted && status != EnrollmentCancelled {
		return apperr.Validation("invalid terminal status")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE enrollments SET status = $3, closed_at = now()
		WHERE id = $1 AND tenant_id = $2 AND status = $4`,
		id, tenantID, status, EnrollmentActive)
	if err != nil {
		return fmt.Errorf("close enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("active enrollment not found")
	}
	return nil
}
