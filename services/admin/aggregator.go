package admin

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"loadly/models"
	"loadly/services/api"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sources reported on DashboardStats.
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
	SourceNone     = "none"
)

const (
	fallbackPageLimit = 500
	liveTripsLimit    = 100
	recentBookings    = 5
)

// SnapshotStore keeps the last successfully aggregated stats.
// Latest returns nil, nil when nothing was saved yet.
type SnapshotStore interface {
	Save(ctx context.Context, stats models.DashboardStats) error
	Latest(ctx context.Context) (*models.DashboardStats, error)
}

// Aggregator merges the admin endpoints into one DashboardStats.
type Aggregator struct {
	client    *api.Client
	snapshots SnapshotStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewAggregator(client *api.Client, snapshots SnapshotStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{client: client, snapshots: snapshots, logger: logger, now: time.Now}
}

// primaryStats is the consolidated endpoint's payload. Nil fields were not supplied.
type primaryStats struct {
	TotalUsers        *int             `json:"totalUsers"`
	TotalDrivers      *int             `json:"totalDrivers"`
	TotalCustomers    *int             `json:"totalCustomers"`
	TotalBookings     *int             `json:"totalBookings"`
	PendingBookings   *int             `json:"pendingBookings"`
	CompletedBookings *int             `json:"completedBookings"`
	CancelledBookings *int             `json:"cancelledBookings"`
	ActiveTrips       *int             `json:"activeTrips"`
	TotalVehicles     *int             `json:"totalVehicles"`
	TotalRevenue      *float64         `json:"totalRevenue"`
	RecentBookings    []models.Booking `json:"recentBookings"`
	LiveTrips         []models.Booking `json:"liveTrips"`
}

func (a *Aggregator) fetchPrimary(ctx context.Context) (*primaryStats, error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, "/admin/dashboard", &raw); err != nil {
		return nil, err
	}
	var p primaryStats
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		// Some deployments nest the counters under "stats".
		var nested struct {
			Stats *primaryStats `json:"stats"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Stats != nil {
			recent, live := p.RecentBookings, p.LiveTrips
			p = *nested.Stats
			if p.RecentBookings == nil {
				p.RecentBookings = recent
			}
			if p.LiveTrips == nil {
				p.LiveTrips = live
			}
		}
	}
	return &p, nil
}

// Stats always returns a fully populated value; failures become warnings.
func (a *Aggregator) Stats(ctx context.Context) models.DashboardStats {
	stats, _ := a.Fetch(ctx)
	return stats
}

// Fetch is Stats for callers that must react to a rejected credential: when the backend
// answers 401/403 the remaining sources are skipped and the *api.Error is returned next to
// zero-valued stats.
func (a *Aggregator) Fetch(ctx context.Context) (models.DashboardStats, error) {
	stats := models.DashboardStats{Source: SourcePrimary}

	primary, err := a.fetchPrimary(ctx)
	if api.IsUnauthorized(err) {
		a.logger.Warn("admin: dashboard credential rejected", zap.Error(err))
		return rejected(a.now()), err
	}
	if err != nil {
		a.logger.Warn("admin: dashboard endpoint unavailable, using fallback sources", zap.Error(err))
		stats.Source = SourceFallback
		primary = nil
	} else {
		applyPrimary(&stats, primary)
	}

	rules := pendingRules(primary)
	patches := make([]patch, len(rules))
	failures := make([]error, len(rules))

	var g errgroup.Group
	for i, rule := range rules {
		i, rule := i, rule
		g.Go(func() error {
			p, err := rule.fetch(ctx, a)
			if err != nil {
				failures[i] = err
				return nil
			}
			patches[i] = p
			return nil
		})
	}
	_ = g.Wait()

	succeeded := primary != nil
	complete := true
	for i, rule := range rules {
		if failures[i] != nil {
			if api.IsUnauthorized(failures[i]) {
				a.logger.Warn("admin: dashboard credential rejected", zap.String("source", rule.name), zap.Error(failures[i]))
				return rejected(a.now()), failures[i]
			}
			a.logger.Warn("admin: fallback source failed", zap.String("source", rule.name), zap.Error(failures[i]))
			stats.Warnings = append(stats.Warnings, rule.name+": "+api.Message(failures[i], "unavailable"))
			complete = false
			continue
		}
		patches[i](&stats, primary)
		succeeded = true
	}

	stats.GeneratedAt = a.now()
	switch {
	case !succeeded:
		stats = a.staleOrZero(ctx, stats.Warnings)
	case a.snapshots != nil && (primary != nil || complete):
		if err := a.snapshots.Save(ctx, stats); err != nil {
			a.logger.Warn("admin: failed to persist dashboard snapshot", zap.Error(err))
		}
	}

	sanitize(&stats)
	return stats, nil
}

func rejected(now time.Time) models.DashboardStats {
	stats := models.DashboardStats{Source: SourceNone, GeneratedAt: now}
	sanitize(&stats)
	return stats
}

func (a *Aggregator) staleOrZero(ctx context.Context, warnings []string) models.DashboardStats {
	warnings = append(warnings, "Dashboard data is currently unavailable")
	if a.snapshots != nil {
		last, err := a.snapshots.Latest(ctx)
		if err != nil {
			a.logger.Warn("admin: failed to load dashboard snapshot", zap.Error(err))
		}
		if last != nil {
			last.Stale = true
			last.Warnings = warnings
			return *last
		}
	}
	return models.DashboardStats{Source: SourceNone, Warnings: warnings, GeneratedAt: a.now()}
}

func applyPrimary(s *models.DashboardStats, p *primaryStats) {
	s.TotalUsers = intOr(p.TotalUsers)
	s.TotalDrivers = intOr(p.TotalDrivers)
	s.TotalCustomers = intOr(p.TotalCustomers)
	s.TotalBookings = intOr(p.TotalBookings)
	s.PendingBookings = intOr(p.PendingBookings)
	s.CompletedBookings = intOr(p.CompletedBookings)
	s.CancelledBookings = intOr(p.CancelledBookings)
	s.ActiveTrips = intOr(p.ActiveTrips)
	s.TotalVehicles = intOr(p.TotalVehicles)
	if p.TotalRevenue != nil {
		s.TotalRevenue = *p.TotalRevenue
	}
	s.RecentBookings = p.RecentBookings
	s.LiveTrips = p.LiveTrips
}

func intOr(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// sanitize guarantees non-negative finite numbers and non-nil lists.
func sanitize(s *models.DashboardStats) {
	for _, v := range []*int{
		&s.TotalUsers, &s.TotalDrivers, &s.TotalCustomers, &s.TotalBookings,
		&s.PendingBookings, &s.CompletedBookings, &s.CancelledBookings,
		&s.ActiveTrips, &s.TotalVehicles,
	} {
		if *v < 0 {
			*v = 0
		}
	}
	if math.IsNaN(s.TotalRevenue) || math.IsInf(s.TotalRevenue, 0) || s.TotalRevenue < 0 {
		s.TotalRevenue = 0
	}
	if s.LiveTrips == nil {
		s.LiveTrips = []models.Booking{}
	}
	if s.RecentBookings == nil {
		s.RecentBookings = []models.Booking{}
	}
	if s.Source == "" {
		s.Source = SourceNone
	}
}
