// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/goph-auth/internal/model"
)

// AccountRepository is the credential store. Identities are compared as given;
// callers normalize them first.
type AccountRepository interface {
	// Find loads an account by identity or returns errs.ErrNotFound.
	Find(ctx context.Context, identity string) (*model.Account, error)
	// Create inserts a new account or returns errs.ErrAlreadyExists.
	Create(ctx context.Context, a *model.Account) error
	// Update applies a partial update atomically and returns the stored result,
	// or errs.ErrNotFound.
	Update(ctx context.Context, identity string, patch model.AccountPatch) (*model.Account, error)
	// Delete removes an account or returns errs.ErrNotFound.
	Delete(ctx context.Context, identity string) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
