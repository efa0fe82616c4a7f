// Package location samples the device position, remembers the last known
// location, and centres map views. It never touches list or task data.
package location

import (
	"context"
	"errors"
	"sync"

	"github.com/nhle/geotask/internal/model"
)

// Permission is the foreground location permission state.
type Permission int

const (
	PermissionUndetermined Permission = iota
	PermissionGranted
	PermissionDenied
)

// String returns the string representation of the permission.
func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "undetermined"
	}
}

var (
	// ErrPermissionDenied is returned when sampling is not allowed.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable is returned when no position fix can be obtained.
	ErrUnavailable = errors.New("location unavailable")
)

// Provider reads the device position.
type Provider interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Current(ctx context.Context) (model.GeoPoint, error)
}

// Static is a Provider with a settable position, used by the terminal
// client (position from flags or config) and by tests.
type Static struct {
	mu         sync.Mutex
	point      *model.GeoPoint
	permission Permission
}

var _ Provider = (*Static)(nil)

// NewStatic returns a provider reporting p with permission granted.
func NewStatic(p model.GeoPoint) *Static {
	return &Static{point: &p, permission: PermissionGranted}
}

// Set moves the reported position.
func (s *Static) Set(p model.GeoPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.point = &p
}

// SetPermission changes what RequestPermission reports.
func (s *Static) SetPermission(p Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permission = p
}

// RequestPermission returns the configured permission; undetermined is
// resolved to granted, as a user accepting the prompt would.
func (s *Static) RequestPermission(context.Context) (Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.permission == PermissionUndetermined {
		s.permission = PermissionGranted
	}
	return s.permission, nil
}

// Current returns the configured position.
func (s *Static) Current(ctx context.Context) (model.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return model.GeoPoint{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.permission == PermissionDenied {
		return model.GeoPoint{}, ErrPermissionDenied
	}
	if s.point == nil {
		return model.GeoPoint{}, ErrUnavailable
	}
	return *s.point, nil
}
