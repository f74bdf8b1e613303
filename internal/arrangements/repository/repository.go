// Package repository persists payment arrangement options.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collectflow_backend/internal/arrangements"
	"collectflow_backend/platform/apperr"
)

// Repository provides arrangement storage on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const optionColumns = `id, tenant_id, name, plan_type,
	monthly_payment_min_cents, monthly_payment_max_cents, fixed_monthly_cents, max_term_months,
	balance_min_cents, balance_max_cents,
	payoff_percentage_bps, settlement_payment_count, settlement_total_cents, payoff_text, expires_at,
	terms_text, one_time_minimum_cents, is_active, created_at, updated_at`

func scanOption(row pgx.Row) (*arrangements.Option, error) {
	var o arrangements.Option
	err := row.Scan(&o.ID, &o.TenantID, &o.Name, &o.PlanType,
		&o.MonthlyPaymentMinCents, &o.MonthlyPaymentMaxCents, &o.FixedMonthlyCents, &o.MaxTermMonths,
		&o.BalanceMinCents, &o.BalanceMaxCents,
		&o.PayoffPercentageBasisPoints, &o.SettlementPaymentCount, &o.SettlementTotalCents, &o.PayoffText, &o.ExpiresAt,
		&o.TermsText, &o.OneTimeMinimumCents, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts an arrangement option.
func (r *Repository) Create(ctx context.Context, o *arrangements.Option) error {
	o.ID = uuid.New()
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO arrangement_options (id, tenant_id, name, plan_type,
			monthly_payment_min_cents, monthly_payment_max_cents, fixed_monthly_cents, max_term_months,
			balance_min_cents, balance_max_cents,
			payoff_percentage_bps, settlement_payment_count, settlement_total_cents, payoff_text, expires_at,
			terms_text, one_time_minimum_cents, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		o.ID, o.TenantID, o.Name, o.PlanType,
		o.MonthlyPaymentMinCents, o.MonthlyPaymentMaxCents, o.FixedMonthlyCents, o.MaxTermMonths,
		o.BalanceMinCents, o.BalanceMaxCents,
		o.PayoffPercentageBasisPoints, o.SettlementPaymentCount, o.SettlementTotalCents, o.PayoffText, o.ExpiresAt,
		o.TermsText, o.OneTimeMinimumCents, o.IsActive, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert arrangement option: %w", err)
	}
	return nil
}

// Get loads one option scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, id uuid.UUID) (*arrangements.Option, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+optionColumns+` FROM arrangement_options WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	o, err := scanOption(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("arrangement not found")
		}
		return nil, fmt.Errorf("get arrangement option: %w", err)
	}
	return o, nil
}

// ListByTenant returns the tenant's options.
func (r *Repository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]arrangements.Option, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+optionColumns+` FROM arrangement_options WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list arrangement options: %w", err)
	}
	defer rows.Close()

	var out []arrangements.Option
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan arrangement option: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// Update rewrites an option.
func (r *Repository) Update(ctx context.Context, o *arrangements.Option) error {
	o.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE arrangement_options SET name = $3, plan_type = $4,
			monthly_payment_min_cents = $5, monthly_payment_max_cents = $6, fixed_monthly_cents = $7, max_term_months = $8,
			balance_min_cents = $9, balance_max_cents = $10,
			payoff_percentage_bps = $11, settlement_payment_count = $12, settlement_total_cents = $13, payoff_text = $14, expires_at = $15,
			terms_text = $16, one_time_minimum_cents = $17, is_active = $18, updated_at = $19
		WHERE id = $1 AND tenant_id = $2`,
		o.ID, o.TenantID, o.Name, o.PlanType,
		o.MonthlyPaymentMinCents, o.MonthlyPaymentMaxCents, o.FixedMonthlyCents, o.MaxTermMonths,
		o.BalanceMinCents, o.BalanceMaxCents,
		o.PayoffPercentageBasisPoints, o.SettlementPaymentCount, o.SettlementTotalCents, o.PayoffText, o.ExpiresAt,
		o.TermsText, o.OneTimeMinimumCents, o.IsActive, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update arrangement option: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("arrangement not found")
	}
	return nil
}

// Delete removes an option.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM arrangement_options WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete arrangement option: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("arrangement not found")
	}
	return nil
}
