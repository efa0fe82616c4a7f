package model

import "time"

// Notification represents an alert surfaced to the user when a geofence
// region is entered.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// RegionID is the geofence identifier that triggered the alert.
	RegionID string `json:"region_id" db:"region_id"`

	// Title is the short heading shown with the alert.
	Title string `json:"title" db:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
