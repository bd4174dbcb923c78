package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	application "crossvote/engine/application"
)

const defaultSweepInterval = time.Minute

// Runner is a single maintenance pass. Both expirers implement it.
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Scheduler drives the entitlement and pin sweeps on independent tickers.
// The two loops never coordinate; each runs on its own cadence and a slow
// pass in one never delays the other. Start is idempotent: calling it twice
// leaves a single set of loops running.
type Scheduler struct {
	Entitlements Runner
	Pins         Runner
	Interval     time.Duration
	Logger       *slog.Logger

	started atomic.Bool
}

// Start launches both sweep loops and returns immediately. The loops stop
// when ctx is cancelled. A second Start call is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	logger := application.ResolveLogger(s.Logger)
	interval := s.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	logger.Info("lifecycle scheduler started",
		"event", "scheduler_started",
		"module", "engine",
		"layer", "worker",
		"interval", interval.String(),
	)
	go s.loop(ctx, "entitlement_sweep", s.Entitlements, interval)
	go s.loop(ctx, "pin_sweep", s.Pins, interval)
}

func (s *Scheduler) loop(ctx context.Context, name string, runner Runner, interval time.Duration) {
	if runner == nil {
		return
	}
	logger := application.ResolveLogger(s.Logger)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweep loop stopped",
				"event", "scheduler_loop_stopped",
				"module", "engine",
				"layer", "worker",
				"loop", name,
			)
			return
		case <-ticker.C:
			if err := runner.RunOnce(ctx); err != nil {
				logger.Error("sweep pass failed",
					"event", "scheduler_pass_failed",
					"module", "engine",
					"layer", "worker",
					"loop", name,
					"error", err.Error(),
				)
			}
		}
	}
}
