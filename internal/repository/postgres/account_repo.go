package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/model"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `id, identity, name, password_hash, contact, created_at, updated_at`

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, identity, name, password_hash, contact)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, a.ID, a.Identity, a.Name, a.PasswordHash, a.Contact).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Find selects an account by identity.
func (r *AccountRepo) Find(ctx context.Context, identity string) (*model.Account, error) {
	const q = `
SELECT ` + accountColumns + `
FROM accounts WHERE identity=$1`
	return scanAccount(r.db.Pool.QueryRow(ctx, q, identity))
}

// Update applies the non-nil patch fields in a single statement. An empty
// contact is stored as NULL.
func (r *AccountRepo) Update(ctx context.Context, identity string, p model.AccountPatch) (*model.Account, error) {
	const q = `
UPDATE accounts SET
  name = COALESCE($2, name),
  contact = CASE WHEN $3::text IS NULL THEN contact ELSE NULLIF($3::text, '') END,
  password_hash = COALESCE($4, password_hash),
  updated_at = now()
WHERE identity = $1
RETURNING ` + accountColumns
	return scanAccount(r.db.Pool.QueryRow(ctx, q, identity, p.Name, p.Contact, p.PasswordHash))
}

// Delete removes an account row.
func (r *AccountRepo) Delete(ctx context.Context, identity string) error {
	const q = `DELETE FROM accounts WHERE identity=$1`
	tag, err := r.db.Pool.Exec(ctx, q, identity)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Ping checks database connectivity.
func (r *AccountRepo) Ping(ctx context.Context) error { return r.db.Pool.Ping(ctx) }

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Identity, &a.Name, &a.PasswordHash, &a.Contact, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}
