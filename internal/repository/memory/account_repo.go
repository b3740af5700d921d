// Package memory provides in-process repository implementations for
// development runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/model"
)

// AccountRepo is a mutex-guarded map of accounts keyed by identity.
type AccountRepo struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
	now      func() time.Time
}

// NewAccountRepo returns an empty repository.
func NewAccountRepo() *AccountRepo {
	return &AccountRepo{accounts: map[string]model.Account{}, now: time.Now}
}

func (r *AccountRepo) Find(_ context.Context, identity string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[identity]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return clone(a), nil
}

func (r *AccountRepo) Create(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.Identity]; ok {
		return errs.ErrAlreadyExists
	}
	now := r.now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	r.accounts[a.Identity] = *clone(*a)
	return nil
}

func (r *AccountRepo) Update(_ context.Context, identity string, p model.AccountPatch) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[identity]
	if !ok {
		return nil, errs.ErrNotFound
	}
	p.Apply(&a)
	a.UpdatedAt = r.now().UTC()
	r.accounts[identity] = a
	return clone(a), nil
}

func (r *AccountRepo) Delete(_ context.Context, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[identity]; !ok {
		return errs.ErrNotFound
	}
	delete(r.accounts, identity)
	return nil
}

func (r *AccountRepo) Ping(context.Context) error { return nil }

func clone(a model.Account) *model.Account {
	if a.Contact != nil {
		c := *a.Contact
		a.Contact = &c
	}
	return &a
}
