package retention

import (
	"context"
	"time"

	"notes-backend/internal/shared/metrics"
	"notes-backend/internal/shared/telemetry"
)

// DefaultInterval is the pause between sweep cycles.
const DefaultInterval = time.Hour

// Sweeper deletes expired audio and reports how many notes were cleared.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Runner sweeps once at start and then on every tick until ctx ends. A
// failed cycle is logged and skipped.
type Runner struct {
	Sweeper  Sweeper
	Interval time.Duration
}

// Run blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	telemetry.Info("retention.started", map[string]any{"interval": interval.String()})
	for {
		r.RunOnce(ctx)
		select {
		case <-ctx.Done():
			telemetry.Info("retention.stopped", nil)
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single sweep cycle.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	metrics.IncSweepRun()
	n, err := r.Sweeper.Sweep(ctx)
	if err != nil {
		metrics.IncSweepFailed()
		telemetry.Error("retention.sweep_failed", map[string]any{"cleared": n, "error": err.Error()})
		return n, err
	}
	return n, nil
}
