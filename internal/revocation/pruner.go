package revocation

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var prunedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "revocation_pruned_total",
	Help: "Revocation entries removed after natural token expiry.",
})

// Pruner periodically garbage-collects expired revocation entries.
type Pruner struct {
	reg      Registry
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewPruner constructs a Pruner. A non-positive interval defaults to one hour.
func NewPruner(reg Registry, interval time.Duration, log *zap.Logger) *Pruner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Pruner{reg: reg, interval: interval, log: log, now: time.Now}
}

// Run prunes once immediately and then on every tick until ctx is done.
func (p *Pruner) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	p.pruneOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.pruneOnce(ctx)
		}
	}
}

func (p *Pruner) pruneOnce(ctx context.Context) {
	n, err := p.reg.Prune(ctx, p.now())
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn("revocation prune failed", zap.Error(err))
		}
		return
	}
	if n > 0 {
		prunedTotal.Add(float64(n))
		p.log.Debug("revocation pruned", zap.Int("entries", n))
	}
}
