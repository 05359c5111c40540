package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"loadly/models"
	"loadly/services/api"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidTransition is returned when a known trip cannot move to the requested status.
var ErrInvalidTransition = errors.New("trip cannot move to the requested status")

// State is the coordinator's view of one driver's data.
type State struct {
	Profile           *models.DriverProfile     `json:"profile"`
	Trips             []models.Trip             `json:"trips"`
	Earnings          *models.Earnings          `json:"earnings"`
	AvailableBookings []models.AvailableBooking `json:"availableBookings"`
	Loading           bool                      `json:"loading"`
	Error             string                    `json:"error,omitempty"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

// Coordinator aggregates a driver's profile, trips, earnings and offers, and issues
// mutations against the backend. After every mutation it refetches instead of patching.
type Coordinator struct {
	client *api.Client
	logger *zap.Logger

	mu    sync.RWMutex
	state State
}

func NewCoordinator(client *api.Client, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{client: client, logger: logger}
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	if c.state.Profile != nil {
		p := *c.state.Profile
		p.Vehicles = append([]models.Vehicle(nil), c.state.Profile.Vehicles...)
		s.Profile = &p
	}
	if c.state.Earnings != nil {
		e := *c.state.Earnings
		s.Earnings = &e
	}
	s.Trips = append([]models.Trip(nil), c.state.Trips...)
	s.AvailableBookings = append([]models.AvailableBooking(nil), c.state.AvailableBookings...)
	return s
}

func (c *Coordinator) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	c.mu.Unlock()
}

// RefreshData fetches the profile, then trips, earnings and available bookings in parallel.
// A missing profile means the driver has not onboarded yet and is not an error.
func (c *Coordinator) RefreshData(ctx context.Context) {
	c.update(func(s *State) {
		s.Loading = true
		s.Error = ""
	})

	var errs []string
	if err := c.fetchProfile(ctx); err != nil {
		if api.IsNotFound(err) {
			c.logger.Info("driver: profile not created yet")
			c.update(func(s *State) { s.Profile = nil })
		} else {
			errs = append(errs, api.Message(err, "Failed to load profile"))
		}
	}

	var mu sync.Mutex
	record := func(err error, fallback string) {
		mu.Lock()
		errs = append(errs, api.Message(err, fallback))
		mu.Unlock()
	}

	// Each fetch records its own failure so the others still land.
	var g errgroup.Group
	g.Go(func() error {
		if err := c.fetchTrips(ctx); err != nil {
			record(err, "Failed to load trips")
		}
		return nil
	})
	g.Go(func() error {
		if err := c.fetchEarnings(ctx); err != nil {
			record(err, "Failed to load earnings")
		}
		return nil
	})
	g.Go(func() error {
		if err := c.fetchAvailableBookings(ctx); err != nil {
			record(err, "Failed to load available bookings")
		}
		return nil
	})
	_ = g.Wait()

	c.update(func(s *State) {
		s.Loading = false
		s.Error = strings.Join(errs, "; ")
		s.UpdatedAt = time.Now()
	})
}

func (c *Coordinator) fetchProfile(ctx context.Context) error {
	var p models.DriverProfile
	if err := c.client.Get(ctx, "/drivers/profile", &p); err != nil {
		return err
	}
	c.update(func(s *State) { s.Profile = &p })
	return nil
}

func (c *Coordinator) fetchTrips(ctx context.Context) error {
	var raw json.RawMessage
	if err := c.client.Get(ctx, "/drivers/trips", &raw); err != nil {
		return err
	}
	page, err := api.DecodePage[models.Trip](raw)
	if err != nil {
		return fmt.Errorf("%w: trips: %v", api.ErrInvalidResponse, err)
	}
	c.update(func(s *State) { s.Trips = page.Items })
	return nil
}

func (c *Coordinator) fetchEarnings(ctx context.Context) error {
	var e models.Earnings
	if err := c.client.Get(ctx, "/drivers/earnings", &e); err != nil {
		return err
	}
	c.update(func(s *State) { s.Earnings = &e })
	return nil
}

func (c *Coordinator) fetchAvailableBookings(ctx context.Context) error {
	var raw json.RawMessage
	if err := c.client.Get(ctx, "/bookings/driver/available", &raw); err != nil {
		return err
	}
	page, err := api.DecodePage[models.AvailableBooking](raw)
	if err != nil {
		return fmt.Errorf("%w: available bookings: %v", api.ErrInvalidResponse, err)
	}
	c.update(func(s *State) { s.AvailableBookings = page.Items })
	return nil
}

// refetchTrips reloads the collections a booking or trip mutation affects.
func (c *Coordinator) refetchTrips(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { return c.fetchTrips(ctx) })
	g.Go(func() error { return c.fetchAvailableBookings(ctx) })
	g.Go(func() error { return c.fetchEarnings(ctx) })
	if err := g.Wait(); err != nil {
		c.logger.Warn("driver: refetch after mutation failed", zap.Error(err))
	}
}

func (c *Coordinator) refetchProfile(ctx context.Context) {
	if err := c.fetchProfile(ctx); err != nil {
		c.logger.Warn("driver: profile refetch failed", zap.Error(err))
	}
}

// checkTransition rejects a move the lifecycle forbids when the trip is already known.
func (c *Coordinator) checkTransition(tripID string, next models.TripStatus) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.state.Trips {
		if t.ID != tripID && t.BookingID != tripID {
			continue
		}
		if !t.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
		}
		return nil
	}
	return nil
}

func (c *Coordinator) mutate(ctx context.Context, method, path string, body any, fallback string) error {
	if err := c.client.Do(ctx, method, path, body, nil); err != nil {
		c.logger.Warn("driver: mutation failed", zap.String("path", path), zap.Error(err))
		return api.Normalize(err, fallback)
	}
	return nil
}

func bookingPath(id, action string) string {
	return "/bookings/" + url.PathEscape(id) + "/" + action
}

// AcceptBooking binds an available booking to this driver.
func (c *Coordinator) AcceptBooking(ctx context.Context, bookingID string) error {
	if err := c.mutate(ctx, http.MethodPut, bookingPath(bookingID, "accept"), nil, "Failed to accept booking"); err != nil {
		return err
	}
	c.refetchTrips(ctx)
	return nil
}

// RejectBooking declines an offer so it leaves this driver's available pool.
func (c *Coordinator) RejectBooking(ctx context.Context, bookingID string) error {
	if err := c.mutate(ctx, http.MethodPut, bookingPath(bookingID, "reject"), nil, "Failed to reject booking"); err != nil {
		return err
	}
	c.refetchTrips(ctx)
	return nil
}

// ArriveAtPickup marks the driver as arrived at the pickup point.
func (c *Coordinator) ArriveAtPickup(ctx context.Context, tripID string) error {
	return c.transition(ctx, tripID, models.TripDriverArrived, "arrive", nil, "Failed to update trip")
}

func (c *Coordinator) StartTrip(ctx context.Context, tripID string) error {
	return c.transition(ctx, tripID, models.TripInProgress, "start", nil, "Failed to start trip")
}

func (c *Coordinator) CompleteTrip(ctx context.Context, tripID string) error {
	return c.transition(ctx, tripID, models.TripCompleted, "complete", nil, "Failed to complete trip")
}

func (c *Coordinator) CancelTrip(ctx context.Context, tripID, reason string) error {
	body := map[string]string{"reason": reason}
	return c.transition(ctx, tripID, models.TripCancelled, "cancel", body, "Failed to cancel trip")
}

func (c *Coordinator) transition(ctx context.Context, tripID string, next models.TripStatus, action string, body any, fallback string) error {
	if err := c.checkTransition(tripID, next); err != nil {
		return err
	}
	if err := c.mutate(ctx, http.MethodPut, bookingPath(tripID, action), body, fallback); err != nil {
		return err
	}
	c.refetchTrips(ctx)
	return nil
}

// UpdateLocation reports the driver's position for an underway trip. Nothing is refetched.
func (c *Coordinator) UpdateLocation(ctx context.Context, tripID string, loc models.LocationUpdate) error {
	return c.mutate(ctx, http.MethodPut, bookingPath(tripID, "update-location"), loc, "Failed to update location")
}

// UpdateOnlineStatus patches the local online flag once the backend acknowledges it.
func (c *Coordinator) UpdateOnlineStatus(ctx context.Context, online bool) error {
	body := map[string]bool{"isOnline": online}
	if err := c.mutate(ctx, http.MethodPut, "/drivers/status", body, "Failed to update status"); err != nil {
		return err
	}
	c.update(func(s *State) {
		if s.Profile != nil {
			s.Profile.IsOnline = online
		}
	})
	return nil
}

func (c *Coordinator) UpdateProfile(ctx context.Context, upd models.DriverProfileUpdate) error {
	if err := c.mutate(ctx, http.MethodPut, "/drivers/profile", upd, "Failed to update profile"); err != nil {
		return err
	}
	c.refetchProfile(ctx)
	return nil
}

// AddVehicle, UpdateVehicle and DeleteVehicle refetch the profile to pick up
// backend-derived verification flags and counts.
func (c *Coordinator) AddVehicle(ctx context.Context, v models.Vehicle) error {
	if err := c.mutate(ctx, http.MethodPost, "/vehicles", v, "Failed to add vehicle"); err != nil {
		return err
	}
	c.refetchProfile(ctx)
	return nil
}

func (c *Coordinator) UpdateVehicle(ctx context.Context, id string, v models.Vehicle) error {
	if err := c.mutate(ctx, http.MethodPut, "/vehicles/"+url.PathEscape(id), v, "Failed to update vehicle"); err != nil {
		return err
	}
	c.refetchProfile(ctx)
	return nil
}

func (c *Coordinator) DeleteVehicle(ctx context.Context, id string) error {
	if err := c.mutate(ctx, http.MethodDelete, "/vehicles/"+url.PathEscape(id), nil, "Failed to delete vehicle"); err != nil {
		return err
	}
	c.refetchProfile(ctx)
	return nil
}

// UploadDocument forwards a multipart form (licence, insurance) and refetches the profile,
// whose verification flags depend on it.
func (c *Coordinator) UploadDocument(ctx context.Context, body io.Reader, contentType string) error {
	err := c.client.Do(ctx, http.MethodPost, "/drivers/documents", body, nil, api.WithMultipart(contentType))
	if err != nil {
		c.logger.Warn("driver: document upload failed", zap.Error(err))
		return api.Normalize(err, "Failed to upload document")
	}
	c.refetchProfile(ctx)
	return nil
}
