// Package repository persists consumers, their debt accounts and folders.
// These records are the snapshots the targeting evaluator and enrollment
// engine read; all queries are tenant-scoped.
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

// Consumer is a debtor record.
type Consumer struct {
	ID           uuid.UUID         `json:"id"`
	TenantID     uuid.UUID         `json:"tenantId"`
	FolderID     *uuid.UUID        `json:"folderId,omitempty"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	RegisteredAt *time.Time        `json:"registeredAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Account is one placed debt belonging to a consumer.
type Account struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenantId"`
	ConsumerID    uuid.UUID  `json:"consumerId"`
	FolderID      *uuid.UUID `json:"folderId,omitempty"`
	AccountNumber string     `json:"accountNumber"`
	CreditorName  string     `json:"creditorName"`
	BalanceCents  int64      `json:"balanceCents"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Folder groups consumers and accounts for targeting.
type Folder struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenantId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository provides consumer/account storage on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const consumerColumns = `id, tenant_id, folder_id, first_name, last_name, email, phone, metadata, registered_at, created_at`

func scanConsumer(row pgx.Row) (*Consumer, error) {
	var c Consumer
	err := row.Scan(&c.ID, &c.TenantID, &c.FolderID, &c.FirstName, &c.LastName,
		&c.Email, &c.Phone, &c.Metadata, &c.RegisteredAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateConsumer inserts a consumer and returns it with generated fields.
func (r *Repository) CreateConsumer(ctx context.Context, c *Consumer) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO consumers (id, tenant_id, folder_id, first_name, last_name, email, phone, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.TenantID, c.FolderID, c.FirstName, c.LastName, c.Email, c.Phone, c.Metadata, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert consumer: %w", err)
	}
	return nil
}

// GetConsumer loads one consumer scoped to the tenant.
func (r *Repository) GetConsumer(ctx context.Context, tenantID, id uuid.UUID) (*Consumer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+consumerColumns+` FROM consumers WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	c, err := scanConsumer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("consumer not found")
		}
		return nil, fmt.Errorf("get consumer: %w", err)
	}
	return c, nil
}

// ListConsumersByTenant returns every consumer for the tenant.
func (r *Repository) ListConsumersByTenant(ctx context.Context, tenantID uuid.UUID) ([]Consumer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+consumerColumns+` FROM consumers WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list consumers: %w", err)
	}
	defer rows.Close()

	var out []Consumer
	for rows.Next() {
		c, err := scanConsumer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consumer: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

const accountColumns = `id, tenant_id, consumer_id, folder_id, account_number, creditor_name, balance_cents, status, due_date, created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.TenantID, &a.ConsumerID, &a.FolderID, &a.AccountNumber,
		&a.CreditorName, &a.BalanceCents, &a.Status, &a.DueDate, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a debt account.
func (r *Repository) CreateAccount(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	if a.Status == "" {
		a.Status = "open"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, tenant_id, consumer_id, folder_id, account_number, creditor_name, balance_cents, status, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.TenantID, a.ConsumerID, a.FolderID, a.AccountNumber, a.CreditorName,
		a.BalanceCents, a.Status, a.DueDate, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccount loads one account scoped to the tenant.
func (r *Repository) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("account not found")
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ListAccountsByConsumer returns the consumer's accounts.
func (r *Repository) ListAccountsByConsumer(ctx context.Context, tenantID, consumerID uuid.UUID) ([]Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND consumer_id = $2 ORDER BY created_at`, tenantID, consumerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts by consumer: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// ListAccountsByTenant returns every account for the tenant.
func (r *Repository) ListAccountsByTenant(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list accounts by tenant: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]Account, error) {
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ApplyPayment reduces an account balance, never below zero.
func (r *Repository) ApplyPayment(ctx context.Context, tenantID, accountID uuid.UUID, amountCents int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET balance_cents = GREATEST(balance_cents - $3, 0)
		WHERE id = $1 AND tenant_id = $2`, accountID, tenantID, amountCents)
	if err != nil {
		return fmt.Errorf("apply payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}

// UpdateAccountStatus sets the account status.
func (r *Repository) UpdateAccountStatus(ctx context.Context, tenantID, accountID uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET status = $3 WHERE id = $1 AND tenant_id = $2`, accountID, tenantID, status)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}

// ListFolders returns the tenant's folders.
func (r *Repository) ListFolders(ctx context.Context, tenantID uuid.UUID) ([]Folder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, name, created_at FROM folders WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var out []Folder
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.ID, &f.TenantID, &f.Name, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CreateFolder inserts a folder.
func (r *Repository) CreateFolder(ctx context.Context, f *Folder) error {
	f.ID = uuid.New()
	f.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO folders (id, tenant_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		f.ID, f.TenantID, f.Name, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert folder: %w", err)
	}
	return nil
}

// SetAccessCodeHash stores the bcrypt hash of the consumer's portal code.
func (r *Repository) SetAccessCodeHash(ctx context.Context, tenantID, consumerID uuid.UUID, hash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE consumers SET access_code_hash = $3 WHERE id = $1 AND tenant_id = $2`,
		consumerID, tenantID, hash)
	if err != nil {
		return fmt.Errorf("set access code hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("consumer not found")
	}
	return nil
}

// GetAccessCodeHash loads the stored portal code hash.
func (r *Repository) GetAccessCodeHash(ctx context.Context, tenantID, consumerID uuid.UUID) (string, error) {
	var hash *string
	err := r.pool.QueryRow(ctx, `
		SELECT access_code_hash FROM consumers WHERE id = $1 AND tenant_id = $2`,
		consumerID, tenantID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("consumer not found")
		}
		return "", fmt.Errorf("get access code hash: %w", err)
	}
	if hash == nil {
		return "", apperr.NotFound("no access code issued")
	}
	return *hash, nil
}

// MarkRegistered records the consumer's first successful portal sign-in.
func (r *Repository) MarkRegistered(ctx context.Context, tenantID, consumerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE consumers SET registered_at = COALESCE(registered_at, now())
		WHERE id = $1 AND tenant_id = $2`, consumerID, tenantID)
	if err != nil {
		return fmt.Errorf("mark registered: %w", err)
	}
	return nil
}
