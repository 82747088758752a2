package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Resetter is the idempotent epoch-reset operation exposed by the key pool.
type Resetter interface {
	ResetEpoch() int
}

// Scheduler triggers the quota epoch reset on a fixed interval, standing in
// for the external daily reset of the upstream API.
type Scheduler struct {
	resetter Resetter
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(resetter Resetter, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		resetter: resetter,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("epoch reset scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("epoch reset scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			n := s.resetter.ResetEpoch()
			s.logger.Info("epoch reset tick", "keys_reset", n)
		}
	}
}
