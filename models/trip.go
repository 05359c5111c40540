package models

import "time"

// TripStatus is the fulfillment state of a booking as seen by its driver.
type TripStatus string

const (
	TripDriverAssigned TripStatus = "DRIVER_ASSIGNED"
	TripDriverArrived  TripStatus = "DRIVER_ARRIVED"
	TripInProgress     TripStatus = "IN_PROGRESS"
	TripCompleted      TripStatus = "COMPLETED"
	TripCancelled      TripStatus = "CANCELLED"
)

// tripTransitions mirrors the transitions the backend accepts.
var tripTransitions = map[TripStatus][]TripStatus{
	TripDriverAssigned: {TripDriverArrived, TripInProgress, TripCancelled},
	TripDriverArrived:  {TripInProgress, TripCancelled},
	TripInProgress:     {TripCompleted, TripCancelled},
}

// CanTransitionTo reports whether moving from s to next only advances the lifecycle.
// Statuses the portal does not recognise are left for the backend to judge.
func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	if !s.Known() {
		return true
	}
	for _, allowed := range tripTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Known reports whether s is one of the lifecycle statuses.
func (s TripStatus) Known() bool {
	switch s {
	case TripDriverAssigned, TripDriverArrived, TripInProgress, TripCompleted, TripCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s TripStatus) Terminal() bool {
	return s == TripCompleted || s == TripCancelled
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Trip is a booking's fulfillment record from the driver's side.
type Trip struct {
	ID              string     `json:"id"`
	BookingID       string     `json:"bookingId"`
	Status          TripStatus `json:"status"`
	CustomerName    string     `json:"customerName,omitempty"`
	CustomerPhone   string     `json:"customerPhone,omitempty"`
	Pickup          Location   `json:"pickupLocation"`
	Dropoff         Location   `json:"dropoffLocation"`
	VehicleType     string     `json:"vehicleType,omitempty"`
	DistanceKm      float64    `json:"distance,omitempty"`
	TotalAmount     float64    `json:"totalAmount,omitempty"`
	DriverEarning   float64    `json:"driverEarning,omitempty"`
	ScheduledAt     *time.Time `json:"scheduledAt,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CurrentLocation *Location  `json:"currentLocation,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// LocationUpdate is the payload sent while a trip is underway. Both coordinates must be
// present; zero is a valid value for either.
type LocationUpdate struct {
	Latitude  *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
}
