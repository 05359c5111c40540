package admin

import (
	"context"
	"time"

	"loadly/models"
	"loadly/services/api"
	"loadly/services/session"

	"go.uber.org/zap"
)

// StatsSource produces dashboard stats; *Aggregator implements it.
type StatsSource interface {
	Fetch(ctx context.Context) (models.DashboardStats, error)
}

// Poller re-runs the aggregation on a fixed cadence while the admin stays signed in.
type Poller struct {
	Source   StatsSource
	Auth     *session.AdminManager
	Interval time.Duration
	Logger   *zap.Logger
}

func NewPoller(source StatsSource, auth *session.AdminManager, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{Source: source, Auth: auth, Interval: interval, Logger: logger}
}

// Run delivers stats immediately and then every Interval. It returns when ctx is done
// or the admin token is cleared, no longer valid, or rejected by the backend.
func (p *Poller) Run(ctx context.Context, deliver func(models.DashboardStats)) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if p.Auth != nil {
		unsubscribe := p.Auth.Subscribe(func(ev session.Event) {
			if ev.Cleared {
				p.Logger.Info("admin: poller stopping, admin token cleared", zap.String("reason", ev.Reason))
				cancel()
			}
		})
		defer unsubscribe()
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		if p.Auth != nil && !p.Auth.CheckAuth(ctx) {
			return
		}
		stats, err := p.Source.Fetch(ctx)
		if api.IsUnauthorized(err) {
			p.Logger.Info("admin: poller stopping, admin token rejected", zap.Error(err))
			return
		}
		if ctx.Err() != nil {
			return
		}
		deliver(stats)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
