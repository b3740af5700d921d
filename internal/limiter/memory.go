package limiter

import (
	"context"
	"sync"
	"time"
)

type attempt struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory is an in-process Limiter with the same policy as PG.
type Memory struct {
	mu  sync.Mutex
	cfg Config
	m   map[string]*attempt
	now func() time.Time

	lastSweep time.Time
}

// NewMemory constructs an in-memory limiter.
func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg, m: map[string]*attempt{}, now: time.Now}
}

func key(identity string, ipHash []byte) string { return identity + "\x00" + string(ipHash) }

// stale reports whether an entry no longer affects any decision: its failures
// fell out of the window and its block, if any, is over.
func (l *Memory) stale(a *attempt, now time.Time) bool {
	return now.Sub(a.updatedAt) > l.cfg.Window && !a.blockedUntil.After(now)
}

// sweep drops stale entries at most once per window. Failing identities that
// never log in would otherwise stay in the map forever.
func (l *Memory) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.cfg.Window {
		return
	}
	for k, a := range l.m {
		if l.stale(a, now) {
			delete(l.m, k)
		}
	}
	l.lastSweep = now
}

// Len returns the number of tracked (identity, ip) pairs.
func (l *Memory) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Memory) Allow(_ context.Context, identity string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key(identity, ipHash)
	a, ok := l.m[k]
	if !ok {
		return true, 0, nil
	}
	now := l.now()
	if a.blockedUntil.After(now) {
		return false, a.blockedUntil.Sub(now), nil
	}
	if l.stale(a, now) {
		delete(l.m, k)
	}
	return true, 0, nil
}

func (l *Memory) Success(_ context.Context, identity string, ipHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.m, key(identity, ipHash))
	return nil
}

func (l *Memory) Failure(_ context.Context, identity string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweep(now)
	k := key(identity, ipHash)
	a, ok := l.m[k]
	if !ok {
		a = &attempt{}
		l.m[k] = a
	}
	if ok && now.Sub(a.updatedAt) > l.cfg.Window {
		a.fails = 0
	}
	a.fails++
	a.updatedAt = now
	if a.fails < l.cfg.MaxFails {
		return false, 0, nil
	}
	a.blockedUntil = now.Add(l.cfg.BlockFor)
	return true, l.cfg.BlockFor, nil
}
