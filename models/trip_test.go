package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripTransitions(t *testing.T) {
	tests := []struct {
		from, to TripStatus
		want     bool
	}{
		{TripDriverAssigned, TripDriverArrived, true},
		{TripDriverAssigned, TripInProgress, true},
		{TripDriverAssigned, TripCancelled, true},
		{TripDriverAssigned, TripCompleted, false},
		{TripDriverArrived, TripInProgress, true},
		{TripDriverArrived, TripDriverAssigned, false},
		{TripInProgress, TripCompleted, true},
		{TripInProgress, TripCancelled, true},
		{TripInProgress, TripDriverArrived, false},
		{TripCompleted, TripInProgress, false},
		{TripCompleted, TripCancelled, false},
		{TripCancelled, TripInProgress, false},
		{TripStatus("EN_ROUTE"), TripCompleted, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTripStatusTerminal(t *testing.T) {
	assert.True(t, TripCompleted.Terminal())
	assert.True(t, TripCancelled.Terminal())
	assert.False(t, TripInProgress.Terminal())
	assert.False(t, TripStatus("EN_ROUTE").Known())
}

func TestBookingRevenue(t *testing.T) {
	total, amount := 120.0, 80.0
	assert.Equal(t, 120.0, Booking{TotalAmount: &total, Amount: &amount}.Revenue())
	assert.Equal(t, 80.0, Booking{Amount: &amount}.Revenue())
	assert.Zero(t, Booking{}.Revenue())
}
