package models

import "time"

// Vehicle registered by a driver.
type Vehicle struct {
	ID           string    `json:"id,omitempty"`
	Type         string    `json:"type" binding:"required"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	PlateNumber  string    `json:"plateNumber" binding:"required"`
	CapacityKg   float64   `json:"capacity,omitempty"`
	IsVerified   bool      `json:"isVerified"`
	IsActive     bool      `json:"isActive"`
	RegisteredAt time.Time `json:"createdAt,omitempty"`
}

// DriverProfile is fetched from the backend and never invented locally.
type DriverProfile struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId,omitempty"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	LicenseNumber string    `json:"licenseNumber,omitempty"`
	IsOnline      bool      `json:"isOnline"`
	IsVerified    bool      `json:"isVerified"`
	Rating        float64   `json:"rating,omitempty"`
	TotalTrips    int       `json:"totalTrips,omitempty"`
	Vehicles      []Vehicle `json:"vehicles"`
}

// DriverProfileUpdate carries the editable profile fields.
type DriverProfileUpdate struct {
	Name          *string `json:"name,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	LicenseNumber *string `json:"licenseNumber,omitempty"`
}

// Earnings is computed by the backend; read-only here.
type Earnings struct {
	Today          float64 `json:"today"`
	ThisWeek       float64 `json:"thisWeek"`
	ThisMonth      float64 `json:"thisMonth"`
	Total          float64 `json:"total"`
	CompletedTrips int     `json:"completedTrips"`
}
