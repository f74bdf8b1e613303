// Package repository persists campaigns. The targeting spec is stored as a
// JSON document alongside the row.
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

// Campaign is a one-shot targeted send.
type Campaign struct {
	ID            uuid.UUID             `json:"id"`
	TenantID      uuid.UUID             `json:"tenantId"`
	Name          string                `json:"name"`
	TemplateID    uuid.UUID             `json:"templateId"`
	ArrangementID *uuid.UUID            `json:"arrangementId,omitempty"`
	Targeting     targeting.Spec        `json:"targeting"`
	Status        string                `json:"status"`
	SentCount     int                   `json:"sentCount"`
	CreatedAt     time.Time             `json:"createdAt"`
	SentAt        *time.Time            `json:"sentAt,omitempty"`
}

const (
	StatusDraft = "draft"
	StatusSent  = "sent"
)

// Repository provides campaign storage on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const campaignColumns = `id, tenant_id, name, template_id, arrangement_id, targeting, status, sent_count, created_at, sent_at`

func scanCampaign(row pgx.Row) (*Campaign, error) {
	var c Campaign
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.TemplateID, &c.ArrangementID,
		&c.Targeting, &c.Status, &c.SentCount, &c.CreatedAt, &c.SentAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a draft campaign.
func (r *Repository) Create(ctx context.Context, c *Campaign) error {
	c.ID = uuid.New()
	c.Status = StatusDraft
	c.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO campaigns (id, tenant_id, name, template_id, arrangement_id, targeting, status, sent_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)`,
		c.ID, c.TenantID, c.Name, c.TemplateID, c.ArrangementID, c.Targeting, c.Status, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// Get loads one campaign scoped to the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, id uuid.UUID) (*Campaign, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("campaign not found")
		}
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// ListByTenant returns the tenant's campaigns, newest first.
func (r *Repository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]Campaign, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// MarkSent records a completed send. Only a draft can transition to sent.
func (r *Repository) MarkSent(ctx context.Context, tenantID, id uuid.UUID, sentCount int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET status = $3, sent_count = $4, sent_at = now()
		WHERE id = $1 AND tenant_id = $2 AND status = $5`,
		id, tenantID, StatusSent, sentCount, StatusDraft)
	if err != nil {
		return fmt.Errorf("mark campaign sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("campaign already sent")
	}
	return nil
}
