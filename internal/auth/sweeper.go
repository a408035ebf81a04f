package auth

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"findspot-server/internal/observability"
)

// ExpiredSweeper is the slice of the store the sweeper needs.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context, batchSize int) (int64, error)
}

// Sweeper periodically bulk-deletes expired refresh tokens. It runs outside
// any request; a failed sweep is logged and retried on the next tick, never
// surfaced to a client.
type Sweeper struct {
	store     ExpiredSweeper
	logger    *observability.Logger
	interval  time.Duration
	batchSize int
}

func NewSweeper(store ExpiredSweeper, logger *observability.Logger, interval time.Duration, batchSize int) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{store: store, logger: logger, interval: interval, batchSize: batchSize}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	deleted, err := s.store.SweepExpired(ctx, s.batchSize)
	if err != nil {
		sentry.CaptureException(err)
		s.logger.Warn("refresh_token_sweep_failed", map[string]any{"error": err.Error()})
		return
	}

	if deleted > 0 {
		s.logger.Info("refresh_token_sweep_completed", map[string]any{"deleted": deleted})
	}
}
