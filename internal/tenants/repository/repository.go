// Package repository persists tenants (agencies), their email branding and
// their message templates.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collectflow_backend/platform/apperr"
)

// Tenant is a collection agency on the platform.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Branding holds a tenant's email styling. Empty fields use defaults.
type Branding struct {
	TenantID          uuid.UUID `json:"tenantId"`
	BackgroundColor   string    `json:"backgroundColor,omitempty"`
	ContentBackground string    `json:"contentBackground,omitempty"`
	TextColor         string    `json:"textColor,omitempty"`
	PrimaryColor      string    `json:"primaryColor,omitempty"`
	AccentColor       string    `json:"accentColor,omitempty"`
	LogoKey           string    `json:"logoKey,omitempty"`
}

// TemplateChannel is the delivery channel of a message template.
type TemplateChannel string

const (
	ChannelEmail TemplateChannel = "email"
	ChannelSMS   TemplateChannel = "sms"
)

// MessageTemplate is a reusable message body with {{placeholder}} tokens.
type MessageTemplate struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenantId"`
	Name      string          `json:"name"`
	Channel   TemplateChannel `json:"channel"`
	Subject   string          `json:"subject,omitempty"`
	Body      string          `json:"body"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Repository provides tenant storage on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTenant inserts a tenant.
func (r *Repository) CreateTenant(ctx context.Context, t *Tenant) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, email, phone, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Name, t.Email, t.Phone, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

// GetTenant loads one tenant.
func (r *Repository) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, created_at FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("tenant not found")
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

// GetBranding loads the tenant's branding row; a missing row returns an
// empty Branding so callers always get defaults.
func (r *Repository) GetBranding(ctx context.Context, tenantID uuid.UUID) (*Branding, error) {
	b := Branding{TenantID: tenantID}
	err := r.pool.QueryRow(ctx, `
		SELECT background_color, content_background, text_color, primary_color, accent_color, logo_key
		FROM tenant_branding WHERE tenant_id = $1`, tenantID).
		Scan(&b.BackgroundColor, &b.ContentBackground, &b.TextColor, &b.PrimaryColor, &b.AccentColor, &b.LogoKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &b, nil
		}
		return nil, fmt.Errorf("get branding: %w", err)
	}
	return &b, nil
}

// UpsertBranding writes the tenant's branding row.
func (r *Repository) UpsertBranding(ctx context.Context, b *Branding) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tenant_branding (tenant_id, background_color, content_background, text_color, primary_color, accent_color, logo_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id) DO UPDATE SET
			background_color = EXCLUDED.background_color,
			content_background = EXCLUDED.content_background,
			text_color = EXCLUDED.text_color,
			primary_color = EXCLUDED.primary_color,
			accent_color = EXCLUDED.accent_color,
			logo_key = EXCLUDED.logo_key`,
		b.TenantID, b.BackgroundColor, b.ContentBackground, b.TextColor, b.PrimaryColor, b.AccentColor, b.LogoKey)
	if err != nil {
		return fmt.Errorf("upsert branding: %w", err)
	}
	return nil
}

// SetLogoKey stores the object key of the uploaded logo.
func (r *Repository) SetLogoKey(ctx context.Context, tenantID uuid.UUID, key string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tenant_branding (tenant_id, logo_key) VALUES ($1, $2)
		ON CONFLICT (tenant_id) DO UPDATE SET logo_key = EXCLUDED.logo_key`,
		tenantID, key)
	if err != nil {
		return fmt.Errorf("set logo key: %w", err)
	}
	return nil
}

const templateColumns = `id, tenant_id, name, channel, subject, body, created_at, updated_at`

// CreateTemplate inserts a message template.
func (r *Repository) CreateTemplate(ctx context.Context, t *MessageTemplate) error {
	t.ID = uuid.New()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO message_templates (id, tenant_id, name, channel, subject, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.TenantID, t.Name, t.Channel, t.Subject, t.Body, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

// GetTemplate loads one template scoped to the tenant.
func (r *Repository) GetTemplate(ctx context.Context, tenantID, id uuid.UUID) (*MessageTemplate, error) {
	var t MessageTemplate
	err := r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM message_templates WHERE id = $1 AND tenant_id = $2`, id, tenantID).
		Scan(&t.ID, &t.TenantID, &t.Name, &t.Channel, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("template not found")
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return &t, nil
}

// ListTemplates returns the tenant's templates.
func (r *Repository) ListTemplates(ctx context.Context, tenantID uuid.UUID) ([]MessageTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+templateColumns+` FROM message_templates WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []MessageTemplate
	for rows.Next() {
		var t MessageTemplate
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.Channel, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTemplate rewrites an existing template.
func (r *Repository) UpdateTemplate(ctx context.Context, t *MessageTemplate) error {
	t.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE message_templates SET name = $3, channel = $4, subject = $5, body = $6, updated_at = $7
		WHERE id = $1 AND tenant_id = $2`,
		t.ID, t.TenantID, t.Name, t.Channel, t.Subject, t.Body, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("template not found")
	}
	return nil
}

// DeleteTemplate removes a template.
func (r *Repository) DeleteTemplate(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM message_templates WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("template not found")
	}
	return nil
}
