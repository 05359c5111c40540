package models

import "time"

// DashboardStats is the admin summary. Every numeric field is non-negative and finite.
type DashboardStats struct {
	TotalUsers        int       `json:"totalUsers" bson:"total_users"`
	TotalDrivers      int       `json:"totalDrivers" bson:"total_drivers"`
	TotalCustomers    int       `json:"totalCustomers" bson:"total_customers"`
	TotalBookings     int       `json:"totalBookings" bson:"total_bookings"`
	PendingBookings   int       `json:"pendingBookings" bson:"pending_bookings"`
	CompletedBookings int       `json:"completedBookings" bson:"completed_bookings"`
	CancelledBookings int       `json:"cancelledBookings" bson:"cancelled_bookings"`
	ActiveTrips       int       `json:"activeTrips" bson:"active_trips"`
	TotalVehicles     int       `json:"totalVehicles" bson:"total_vehicles"`
	TotalRevenue      float64   `json:"totalRevenue" bson:"total_revenue"`
	LiveTrips         []Booking `json:"liveTrips" bson:"-"`
	RecentBookings    []Booking `json:"recentBookings" bson:"-"`

	Source      string    `json:"source" bson:"source"` // "primary" or "fallback"
	Stale       bool      `json:"stale" bson:"-"`
	Warnings    []string  `json:"warnings,omitempty" bson:"-"`
	GeneratedAt time.Time `json:"generatedAt" bson:"generated_at"`
}

// Coupon and Notification are listed verbatim for the back-office tables.
type Coupon struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	DiscountType  string     `json:"discountType,omitempty"`
	DiscountValue float64    `json:"discountValue,omitempty"`
	IsActive      bool       `json:"isActive"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Audience  string    `json:"audience,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
