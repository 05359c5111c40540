package driver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"loadly/models"
	"loadly/services/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves the driver endpoints from in-memory state.
type fakeBackend struct {
	mu        sync.Mutex
	profile   *models.DriverProfile
	trips     []models.Trip
	available []models.AvailableBooking
	earnings  models.Earnings
	failTrips bool
	calls     []string
}

func ok(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /drivers/profile", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.profile == nil {
			fail(w, http.StatusNotFound, "Driver profile not found")
			return
		}
		ok(w, f.profile)
	})
	mux.HandleFunc("GET /drivers/trips", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failTrips {
			fail(w, http.StatusInternalServerError, "trips exploded")
			return
		}
		ok(w, map[string]any{"trips": f.trips})
	})
	mux.HandleFunc("GET /drivers/earnings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		ok(w, f.earnings)
	})
	mux.HandleFunc("GET /bookings/driver/available", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		ok(w, f.available)
	})
	mux.HandleFunc("PUT /bookings/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, action := r.PathValue("id"), r.PathValue("action")
		f.calls = append(f.calls, action+":"+id)
		switch action {
		case "accept":
			for i, b := range f.available {
				if b.ID == id {
					f.available = append(f.available[:i], f.available[i+1:]...)
					f.trips = append(f.trips, models.Trip{ID: "t-" + id, BookingID: id, Status: models.TripDriverAssigned})
					ok(w, nil)
					return
				}
			}
			fail(w, http.StatusConflict, "Booking is no longer available")
		case "start":
			for i := range f.trips {
				if f.trips[i].BookingID == id || f.trips[i].ID == id {
					f.trips[i].Status = models.TripInProgress
				}
			}
			ok(w, nil)
		default:
			ok(w, nil)
		}
	})
	mux.HandleFunc("PUT /drivers/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]bool
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.calls = append(f.calls, "status")
		if f.profile != nil {
			f.profile.IsOnline = body["isOnline"]
		}
		f.mu.Unlock()
		ok(w, nil)
	})
	mux.HandleFunc("POST /vehicles", func(w http.ResponseWriter, r *http.Request) {
		var v models.Vehicle
		_ = json.NewDecoder(r.Body).Decode(&v)
		f.mu.Lock()
		f.profile.Vehicles = append(f.profile.Vehicles, v)
		f.mu.Unlock()
		ok(w, v)
	})
	mux.HandleFunc("POST /drivers/documents", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			fail(w, http.StatusBadRequest, "expected multipart")
			return
		}
		f.mu.Lock()
		f.profile.IsVerified = true
		f.mu.Unlock()
		ok(w, nil)
	})
	return mux
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newCoordinator(t *testing.T, f *fakeBackend) *Coordinator {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewCoordinator(api.NewClient(srv.URL, nil, 5*time.Second, nil, nil), nil)
}

func TestRefreshDataWithoutProfile(t *testing.T) {
	f := &fakeBackend{
		trips:     []models.Trip{{ID: "t1", Status: models.TripCompleted}},
		available: []models.AvailableBooking{{ID: "b1"}},
		earnings:  models.Earnings{Total: 120},
	}
	c := newCoordinator(t, f)

	c.RefreshData(context.Background())
	s := c.Snapshot()

	assert.Nil(t, s.Profile)
	assert.Empty(t, s.Error, "a missing profile is not an error")
	assert.False(t, s.Loading)
	assert.Len(t, s.Trips, 1)
	assert.Len(t, s.AvailableBookings, 1)
	require.NotNil(t, s.Earnings)
	assert.Equal(t, 120.0, s.Earnings.Total)
}

func TestRefreshDataRecordsOtherFailures(t *testing.T) {
	f := &fakeBackend{profile: &models.DriverProfile{ID: "d1"}, failTrips: true}
	c := newCoordinator(t, f)

	c.RefreshData(context.Background())
	s := c.Snapshot()

	require.NotNil(t, s.Profile)
	assert.Contains(t, s.Error, "trips exploded")
	assert.NotNil(t, s.Earnings, "sibling fetches still land")
}

func TestAcceptBookingMovesOfferToTrips(t *testing.T) {
	f := &fakeBackend{
		profile:   &models.DriverProfile{ID: "d1"},
		available: []models.AvailableBooking{{ID: "b1"}, {ID: "b2"}},
	}
	c := newCoordinator(t, f)
	ctx := context.Background()
	c.RefreshData(ctx)

	require.NoError(t, c.AcceptBooking(ctx, "b1"))
	s := c.Snapshot()

	require.Len(t, s.AvailableBookings, 1)
	assert.Equal(t, "b2", s.AvailableBookings[0].ID)
	require.Len(t, s.Trips, 1)
	assert.Equal(t, "b1", s.Trips[0].BookingID)
	assert.Equal(t, models.TripDriverAssigned, s.Trips[0].Status)
}

func TestAcceptBookingSurfacesServerMessage(t *testing.T) {
	f := &fakeBackend{profile: &models.DriverProfile{ID: "d1"}}
	c := newCoordinator(t, f)

	err := c.AcceptBooking(context.Background(), "gone")
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Booking is no longer available", apiErr.Message)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestTripTransitionsAreCheckedLocally(t *testing.T) {
	f := &fakeBackend{
		profile: &models.DriverProfile{ID: "d1"},
		trips: []models.Trip{
			{ID: "t1", BookingID: "b1", Status: models.TripCompleted},
			{ID: "t2", BookingID: "b2", Status: models.TripDriverAssigned},
		},
	}
	c := newCoordinator(t, f)
	ctx := context.Background()
	c.RefreshData(ctx)

	err := c.StartTrip(ctx, "b1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, f.callLog(), "rejected locally, nothing sent")

	require.NoError(t, c.StartTrip(ctx, "b2"))
	assert.Equal(t, []string{"start:b2"}, f.callLog())
	for _, tr := range c.Snapshot().Trips {
		if tr.BookingID == "b2" {
			assert.Equal(t, models.TripInProgress, tr.Status)
		}
	}

	// Unknown trips are left to the backend.
	require.NoError(t, c.CompleteTrip(ctx, "unknown"))
}

func TestUpdateOnlineStatusPatchesProfile(t *testing.T) {
	f := &fakeBackend{profile: &models.DriverProfile{ID: "d1"}}
	c := newCoordinator(t, f)
	ctx := context.Background()
	c.RefreshData(ctx)

	require.NoError(t, c.UpdateOnlineStatus(ctx, true))
	assert.True(t, c.Snapshot().Profile.IsOnline)
	assert.Equal(t, []string{"status"}, f.callLog())
}

func TestAddVehicleRefetchesProfile(t *testing.T) {
	f := &fakeBackend{profile: &models.DriverProfile{ID: "d1"}}
	c := newCoordinator(t, f)
	ctx := context.Background()

	require.NoError(t, c.AddVehicle(ctx, models.Vehicle{Type: "TRUCK", PlateNumber: "KAA 123A"}))
	s := c.Snapshot()
	require.NotNil(t, s.Profile)
	require.Len(t, s.Profile.Vehicles, 1)
	assert.Equal(t, "KAA 123A", s.Profile.Vehicles[0].PlateNumber)
}

func TestUploadDocument(t *testing.T) {
	f := &fakeBackend{profile: &models.DriverProfile{ID: "d1"}}
	c := newCoordinator(t, f)

	err := c.UploadDocument(context.Background(), strings.NewReader("--x--\r\n"), "multipart/form-data; boundary=x")
	require.NoError(t, err)
	assert.True(t, c.Snapshot().Profile.IsVerified)
}

func TestSnapshotIsACopy(t *testing.T) {
	f := &fakeBackend{
		profile: &models.DriverProfile{ID: "d1", Vehicles: []models.Vehicle{{PlateNumber: "A"}}},
		trips:   []models.Trip{{ID: "t1"}},
	}
	c := newCoordinator(t, f)
	c.RefreshData(context.Background())

	s := c.Snapshot()
	s.Trips[0].ID = "mutated"
	s.Profile.Vehicles[0].PlateNumber = "B"

	again := c.Snapshot()
	assert.Equal(t, "t1", again.Trips[0].ID)
	assert.Equal(t, "A", again.Profile.Vehicles[0].PlateNumber)
}
