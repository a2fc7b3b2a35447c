package scheduler

import (
	"context"
	"log/slog"
	"time"

	"content_metrics/internal/domain"
)

// Puller is one pull of an external feed into the store.
type Puller interface {
	Pull(ctx context.Context) (*domain.PullStats, error)
}

type Scheduler struct {
	puller     Puller
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(puller Puller, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		puller:     puller,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger.With("component", "scheduler"),
	}
}

// Start pulls once immediately and then on every tick until ctx is done.
// A failed pull is logged and the next tick runs as usual.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "run_timeout", s.runTimeout)

	s.runPull(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runPull(ctx)
		}
	}
}

func (s *Scheduler) runPull(ctx context.Context) {
	pullCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		pullCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	if _, err := s.puller.Pull(pullCtx); err != nil {
		s.logger.Error("pull failed", "error", err)
	}
}
