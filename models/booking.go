package models

import "time"

// AvailableBooking is an offer not yet bound to a driver.
type AvailableBooking struct {
	ID            string    `json:"id"`
	Pickup        Location  `json:"pickupLocation"`
	Dropoff       Location  `json:"dropoffLocation"`
	VehicleType   string    `json:"vehicleType,omitempty"`
	GoodsType     string    `json:"goodsType,omitempty"`
	DistanceKm    float64   `json:"distance,omitempty"`
	EstimatedFare float64   `json:"estimatedFare,omitempty"`
	ScheduledAt   time.Time `json:"scheduledAt,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Booking is the admin view of a customer booking.
type Booking struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	CustomerID   string    `json:"customerId,omitempty"`
	CustomerName string    `json:"customerName,omitempty"`
	DriverID     string    `json:"driverId,omitempty"`
	DriverName   string    `json:"driverName,omitempty"`
	Pickup       Location  `json:"pickupLocation"`
	Dropoff      Location  `json:"dropoffLocation"`
	TotalAmount  *float64  `json:"totalAmount,omitempty"`
	Amount       *float64  `json:"amount,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Revenue returns the booking's billable amount, preferring totalAmount.
func (b Booking) Revenue() float64 {
	if b.TotalAmount != nil {
		return *b.TotalAmount
	}
	if b.Amount != nil {
		return *b.Amount
	}
	return 0
}

// BookingQuery filters the admin booking listing.
type BookingQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Status string `form:"status"`
	Search string `form:"search"`
}
