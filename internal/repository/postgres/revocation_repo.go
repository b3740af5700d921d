package postgres

import (
	"context"
	"fmt"
	"time"
)

// RevocationRepo implements revocation.Registry on the revoked_tokens table.
type RevocationRepo struct{ db *DB }

// NewRevocationRepo constructs a revocation registry repository.
func NewRevocationRepo(db *DB) *RevocationRepo { return &RevocationRepo{db: db} }

// Revoke inserts the identifier; a repeated insert is a no-op.
func (r *RevocationRepo) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	const q = `
INSERT INTO revoked_tokens (token_id, expires_at)
VALUES ($1, $2)
ON CONFLICT (token_id) DO NOTHING`
	if _, err := r.db.Pool.Exec(ctx, q, tokenID, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the identifier is present.
func (r *RevocationRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id=$1)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, tokenID).Scan(&ok); err != nil {
		return false, fmt.Errorf("lookup revoked token: %w", err)
	}
	return ok, nil
}

// Prune deletes entries whose token expiry has passed.
func (r *RevocationRepo) Prune(ctx context.Context, now time.Time) (int, error) {
	const q = `DELETE FROM revoked_tokens WHERE expires_at <= $1`
	tag, err := r.db.Pool.Exec(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("prune revoked tokens: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
