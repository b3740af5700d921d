// Package revocation tracks explicitly invalidated refresh token identifiers.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Registry records revoked token identifiers until their natural expiry.
type Registry interface {
	// Revoke inserts id; revoking a known or unknown id again is not an error.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	// IsRevoked reports whether id was revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// Prune removes entries whose expiry is not after now and returns how many.
	Prune(ctx context.Context, now time.Time) (int, error)
}

// Memory is an in-process Registry. Insert and lookup share one lock, so a
// revoked id is never reported valid after Revoke returns.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{entries: map[string]time.Time{}}
}

func (m *Memory) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.entries[tokenID]; !ok || expiresAt.After(prev) {
		m.entries[tokenID] = expiresAt
	}
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[tokenID]
	return ok, nil
}

func (m *Memory) Prune(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of tracked entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
