package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"loadly/models"
	"loadly/services/api"
)

// liveTripStatuses approximate "trips underway"; the filters may overlap.
var liveTripStatuses = []string{"IN_PROGRESS", "ACTIVE", "ONGOING"}

// patch writes a source's figures into stats, leaving fields the primary endpoint supplied.
type patch func(stats *models.DashboardStats, primary *primaryStats)

// fallbackRule substitutes one source for fields the consolidated endpoint did not supply.
type fallbackRule struct {
	name    string
	missing func(p *primaryStats) bool
	fetch   func(ctx context.Context, a *Aggregator) (patch, error)
}

// fallbackRules is the decision table: {field unavailable -> substitute source}.
var fallbackRules = []fallbackRule{
	{
		name: "users",
		missing: func(p *primaryStats) bool {
			return p.TotalUsers == nil || p.TotalDrivers == nil || p.TotalCustomers == nil
		},
		fetch: fetchUsers,
	},
	{
		name: "bookings",
		missing: func(p *primaryStats) bool {
			return p.TotalBookings == nil || p.TotalRevenue == nil ||
				p.PendingBookings == nil || p.CompletedBookings == nil || p.CancelledBookings == nil
		},
		fetch: fetchBookings,
	},
	{
		name:    "vehicles",
		missing: func(p *primaryStats) bool { return p.TotalVehicles == nil },
		fetch:   fetchVehicles,
	},
	{
		name:    "liveTrips",
		missing: func(p *primaryStats) bool { return p.ActiveTrips == nil && p.LiveTrips == nil },
		fetch:   fetchLiveTrips,
	},
}

// pendingRules selects the rules to run; every rule runs when the primary call failed.
func pendingRules(p *primaryStats) []fallbackRule {
	if p == nil {
		return fallbackRules
	}
	var out []fallbackRule
	for _, r := range fallbackRules {
		if r.missing(p) {
			out = append(out, r)
		}
	}
	return out
}

func setInt(dst *int, supplied *int, v int) {
	if supplied == nil {
		*dst = v
	}
}

func listPath(base string, params url.Values) string {
	return base + "?" + params.Encode()
}

func fetchPage[T any](ctx context.Context, a *Aggregator, path string) (api.Page[T], error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, path, &raw); err != nil {
		return api.Page[T]{}, err
	}
	page, err := api.DecodePage[T](raw)
	if err != nil {
		return page, fmt.Errorf("%w: %v", api.ErrInvalidResponse, err)
	}
	return page, nil
}

func fetchUsers(ctx context.Context, a *Aggregator) (patch, error) {
	page, err := fetchPage[models.User](ctx, a, listPath("/admin/users", url.Values{
		"page":  {"1"},
		"limit": {fmt.Sprint(fallbackPageLimit)},
	}))
	if err != nil {
		return nil, err
	}
	var drivers, customers int
	for _, u := range page.Items {
		switch strings.ToUpper(u.Role) {
		case models.RoleDriver:
			drivers++
		case models.RoleCustomer:
			customers++
		}
	}
	total := page.Total()
	return func(s *models.DashboardStats, p *primaryStats) {
		if p == nil {
			p = &primaryStats{}
		}
		setInt(&s.TotalUsers, p.TotalUsers, total)
		setInt(&s.TotalDrivers, p.TotalDrivers, drivers)
		setInt(&s.TotalCustomers, p.TotalCustomers, customers)
	}, nil
}

func fetchBookings(ctx context.Context, a *Aggregator) (patch, error) {
	page, err := fetchPage[models.Booking](ctx, a, listPath("/bookings/admin/all", url.Values{
		"page":  {"1"},
		"limit": {fmt.Sprint(fallbackPageLimit)},
	}))
	if err != nil {
		return nil, err
	}

	var pending, completed, cancelled int
	var revenue float64
	for _, b := range page.Items {
		switch strings.ToUpper(b.Status) {
		case "PENDING":
			pending++
		case "COMPLETED":
			completed++
		case "CANCELLED":
			cancelled++
		}
		revenue += b.Revenue()
	}

	recent := append([]models.Booking(nil), page.Items...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentBookings {
		recent = recent[:recentBookings]
	}
	total := page.Total()

	return func(s *models.DashboardStats, p *primaryStats) {
		if p == nil {
			p = &primaryStats{}
		}
		setInt(&s.TotalBookings, p.TotalBookings, total)
		setInt(&s.PendingBookings, p.PendingBookings, pending)
		setInt(&s.CompletedBookings, p.CompletedBookings, completed)
		setInt(&s.CancelledBookings, p.CancelledBookings, cancelled)
		if p.TotalRevenue == nil {
			s.TotalRevenue = revenue
		}
		if len(s.RecentBookings) == 0 {
			s.RecentBookings = recent
		}
	}, nil
}

func fetchVehicles(ctx context.Context, a *Aggregator) (patch, error) {
	page, err := fetchPage[models.Vehicle](ctx, a, "/vehicles")
	if err != nil {
		return nil, err
	}
	total := page.Total()
	return func(s *models.DashboardStats, p *primaryStats) {
		if p == nil {
			p = &primaryStats{}
		}
		setInt(&s.TotalVehicles, p.TotalVehicles, total)
	}, nil
}

// fetchLiveTrips queries each live status in parallel and merges the results by id.
func fetchLiveTrips(ctx context.Context, a *Aggregator) (patch, error) {
	results := make([][]models.Booking, len(liveTripStatuses))
	errs := make([]error, len(liveTripStatuses))

	var wg sync.WaitGroup
	for i, status := range liveTripStatuses {
		wg.Add(1)
		go func(i int, status string) {
			defer wg.Done()
			page, err := fetchPage[models.Booking](ctx, a, listPath("/bookings/admin/all", url.Values{
				"page":   {"1"},
				"limit":  {fmt.Sprint(liveTripsLimit)},
				"status": {status},
			}))
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = page.Items
		}(i, status)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(liveTripStatuses) {
		return nil, errors.Join(errs...)
	}

	live := MergeByID(results...)
	return func(s *models.DashboardStats, p *primaryStats) {
		if p == nil || p.ActiveTrips == nil {
			s.ActiveTrips = len(live)
		}
		if len(s.LiveTrips) == 0 {
			s.LiveTrips = live
		}
	}, nil
}

// MergeByID concatenates booking lists keeping the first occurrence of each id.
func MergeByID(lists ...[]models.Booking) []models.Booking {
	seen := make(map[string]struct{})
	out := []models.Booking{}
	for _, list := range lists {
		for _, b := range list {
			if b.ID == "" {
				continue
			}
			if _, dup := seen[b.ID]; dup {
				continue
			}
			seen[b.ID] = struct{}{}
			out = append(out, b)
		}
	}
	return out
}
