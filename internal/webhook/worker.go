package webhook

import (
	"context"
	"log/slog"
	"time"
)

// Run delivers queued events one at a time until ctx is done or Stop is
// called. Failed deliveries are retried with exponential backoff up to
// MaxAttempts and then dropped.
func (n *Notifier) Run(ctx context.Context) {
	n.logger.Info("webhook worker started", slog.String("url", n.cfg.URL))

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("webhook worker stopped", slog.Int("pending", len(n.queue)))
			return
		case <-n.stopCh:
			n.logger.Info("webhook worker stopped", slog.Int("pending", len(n.queue)))
			return
		case j := <-n.queue:
			n.deliver(ctx, j)
		}
	}
}

// Stop ends Run. Events still queued are not delivered.
func (n *Notifier) Stop() {
	close(n.stopCh)
}

func (n *Notifier) deliver(ctx context.Context, j job) {
	for attempt := 0; attempt < n.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := n.cfg.BaseDelay * time.Duration(1<<(attempt-1))
			if !n.wait(ctx, delay) {
				return
			}
		}

		err := n.Send(ctx, j.id, j.eventType, j.payload)
		if err == nil {
			n.logger.Debug("webhook delivered",
				slog.String("delivery_id", j.id.String()),
				slog.String("event", j.eventType),
				slog.Int("attempts", attempt+1),
			)
			return
		}

		n.logger.Warn("webhook delivery failed",
			slog.String("delivery_id", j.id.String()),
			slog.String("event", j.eventType),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}

	n.logger.Error("webhook delivery abandoned",
		slog.String("delivery_id", j.id.String()),
		slog.String("event", j.eventType),
		slog.Int("max_attempts", n.cfg.MaxAttempts),
	)
}

// wait reports false when the worker is shutting down.
func (n *Notifier) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-n.stopCh:
		return false
	case <-t.C:
		return true
	}
}
