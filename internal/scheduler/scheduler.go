package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Refresher is the single entry point the scheduler triggers.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Scheduler triggers a feed refresh on a fixed interval. A failed cycle is
// logged and the next tick proceeds; there is no retry within a cycle. If a
// tick fires while a manual refresh is in flight, the refresher's own
// single-flight guard drops it.
type Scheduler struct {
	logger    *slog.Logger
	refresher Refresher
	interval  time.Duration
}

// New creates a Scheduler.
func New(logger *slog.Logger, refresher Refresher, interval time.Duration) *Scheduler {
	return &Scheduler{logger: logger, refresher: refresher, interval: interval}
}

// Run blocks, firing refreshes until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler: context cancelled, shutting down")
			return nil
		case <-ticker.C:
			n, err := s.refresher.Refresh(ctx)
			if err != nil {
				s.logger.Error("scheduled refresh failed", "error", err)
				continue
			}
			s.logger.Info("scheduled refresh complete", "upserts", n)
		}
	}
}
