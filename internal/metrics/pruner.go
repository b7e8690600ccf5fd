package metrics

import (
	"context"
	"log/slog"
	"time"
)

// LogPruner deletes recognition logs older than a cutoff.
type LogPruner interface {
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pruner periodically removes recognition logs older than the retention.
type Pruner struct {
	store     LogPruner
	logger    *slog.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	done      chan struct{}
}

// NewPruner creates a new retention worker
func NewPruner(store LogPruner, logger *slog.Logger, retention, interval time.Duration) *Pruner {
	if interval == 0 {
		interval = 1 * time.Hour
	}

	return &Pruner{
		store:     store,
		logger:    logger.With(slog.String("component", "log_pruner")),
		retention: retention,
		interval:  interval,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start runs a prune immediately and then once per interval until ctx is
// done or Stop is called.
func (p *Pruner) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("log pruner started",
		slog.Duration("retention", p.retention),
		slog.Duration("interval", p.interval),
	)

	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("log pruner stopped")
			return
		case <-p.done:
			p.logger.Info("log pruner stopped")
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Stop gracefully shuts down the pruner
func (p *Pruner) Stop() {
	close(p.done)
}

// Prune deletes logs older than the retention and returns how many went.
func (p *Pruner) Prune(ctx context.Context) int64 {
	cutoff := p.now().Add(-p.retention)

	deleted, err := p.store.DeleteLogsBefore(ctx, cutoff)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to delete old recognition logs", slog.String("error", err.Error()))
		return 0
	}
	if deleted > 0 {
		p.logger.InfoContext(ctx, "deleted old recognition logs", slog.Int64("count", deleted))
	}
	return deleted
}
