package revocation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type countingRegistry struct {
	*Memory
	calls atomic.Int32
	err   error
}

func (c *countingRegistry) Prune(ctx context.Context, now time.Time) (int, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return c.Memory.Prune(ctx, now)
}

func TestPruner_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := &countingRegistry{Memory: NewMemory()}
	_ = reg.Revoke(context.Background(), "old", time.Now().Add(-time.Minute))

	p := NewPruner(reg, 5*time.Millisecond, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for reg.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("pruner did not tick, calls=%d", reg.calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	if reg.Len() != 0 {
		t.Fatalf("expired entry not pruned")
	}
}

func TestPruner_ErrorDoesNotStopLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := &countingRegistry{Memory: NewMemory(), err: errors.New("db down")}
	p := NewPruner(reg, 5*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for reg.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("pruner stopped after error")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestNewPruner_DefaultInterval(t *testing.T) {
	t.Parallel()

	p := NewPruner(NewMemory(), 0, zaptest.NewLogger(t))
	if p.interval != time.Hour {
		t.Fatalf("interval=%v", p.interval)
	}
}
