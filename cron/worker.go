package cron

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pruner trims stored dashboard snapshots down to the newest keep entries.
type Pruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}

// Sweeper drops browser sessions idle longer than the given duration.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// Housekeeping is the periodic maintenance run alongside the portal.
type Housekeeping struct {
	Snapshots    Pruner
	KeepSnapshot int
	Sessions     Sweeper // nil when sessions live in Redis, which expires them itself
	SessionIdle  time.Duration
	Interval     time.Duration
	Logger       *zap.Logger
}

// Start runs the housekeeping loop until ctx is done.
func (h Housekeeping) Start(ctx context.Context) {
	if h.Interval <= 0 {
		h.Interval = time.Hour
	}
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}
	go func() {
		ticker := time.NewTicker(h.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				h.Logger.Info("[Housekeeping] shutdown signal received")
				return
			case <-ticker.C:
				h.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce performs a single maintenance pass.
func (h Housekeeping) RunOnce(ctx context.Context) {
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if h.Snapshots != nil {
		keep := h.KeepSnapshot
		if keep < 1 {
			keep = 100
		}
		n, err := h.Snapshots.Prune(ctx, keep)
		if err != nil {
			logger.Warn("[Housekeeping] snapshot prune failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("[Housekeeping] pruned dashboard snapshots", zap.Int64("removed", n))
		}
	}
	if h.Sessions != nil && h.SessionIdle > 0 {
		if n := h.Sessions.Sweep(h.SessionIdle); n > 0 {
			logger.Info("[Housekeeping] swept idle sessions", zap.Int("removed", n))
		}
	}
}
