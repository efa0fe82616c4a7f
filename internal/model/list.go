package model

import "time"

// List is a named collection of tasks owned by a single user. When Location
// is set, the list anchors one geofence region.
type List struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	OwnerID   string     `json:"owner_id" db:"owner_id"`
	Location  *GeoRegion `json:"location" db:"-"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// HasLocation reports whether the list carries a geofence anchor.
func (l List) HasLocation() bool { return l.Location != nil }

// NewList holds the fields a caller supplies when creating a list.
// Lists always start without a location.
type NewList struct {
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// ListPatch is a partial update for a list. Nil fields are left unchanged;
// ClearLocation removes the location and wins over Location.
type ListPatch struct {
	Name          *string    `json:"name,omitempty"`
	Location      *GeoRegion `json:"location,omitempty"`
	ClearLocation bool       `json:"clear_location,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ListPatch) IsEmpty() bool {
	return p.Name == nil && p.Location == nil && !p.ClearLocation
}

// Apply returns a copy of l with the patch applied.
func (p ListPatch) Apply(l List) List {
	if p.Name != nil {
		l.Name = *p.Name
	}
	switch {
	case p.ClearLocation:
		l.Location = nil
	case p.Location != nil:
		loc := *p.Location
		l.Location = &loc
	}
	return l
}
