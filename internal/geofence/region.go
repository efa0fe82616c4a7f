// Package geofence keeps the platform's monitored regions in step with the
// lists that carry a location, and turns region events into notifications.
package geofence

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nhle/geotask/internal/model"
)

// DefaultRadiusMeters is the radius of every region.
const DefaultRadiusMeters = 200.0

// ErrPermissionDenied is returned by a Platform that may not monitor regions.
var ErrPermissionDenied = errors.New("geofence: location permission denied")

// Region is one monitored circle. Title is display text for notifications;
// Identifier is what the platform keys the region by.
type Region struct {
	Identifier string  `json:"identifier"`
	Title      string  `json:"title"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Radius     float64 `json:"radius"`
}

// Center returns the region centre.
func (r Region) Center() model.GeoPoint {
	return model.GeoPoint{Latitude: r.Latitude, Longitude: r.Longitude}
}

// Contains reports whether p lies inside the region.
func (r Region) Contains(p model.GeoPoint) bool {
	return model.DistanceMeters(r.Center(), p) <= r.Radius
}

func (r Region) sameArea(o Region) bool {
	return r.Latitude == o.Latitude && r.Longitude == o.Longitude && r.Radius == o.Radius
}

// same also compares the display title, which changes on a rename when
// regions are identified by list id.
func (r Region) same(o Region) bool {
	return r.sameArea(o) && r.Title == o.Title
}

// Platform is the operating system's region monitor.
type Platform interface {
	// Active returns the regions currently monitored.
	Active(ctx context.Context) ([]Region, error)
	Register(ctx context.Context, regions []Region) error
	Unregister(ctx context.Context, identifiers []string) error
}

// IdentifierMode selects which list field names a region.
type IdentifierMode string

const (
	IdentifyByName IdentifierMode = "name"
	IdentifyByID   IdentifierMode = "id"
)

// Strategy selects how the engine reconciles the platform.
type Strategy string

const (
	// StrategyFull unregisters everything then registers the desired set.
	StrategyFull Strategy = "full"
	// StrategyDiff removes stale regions and adds new or moved ones.
	StrategyDiff Strategy = "diff"
)

// ParseIdentifierMode validates a configured identifier mode.
func ParseIdentifierMode(s string) (IdentifierMode, error) {
	switch m := IdentifierMode(s); m {
	case IdentifyByName, IdentifyByID:
		return m, nil
	default:
		return "", fmt.Errorf("unknown geofence identifier mode %q", s)
	}
}

// ParseStrategy validates a configured strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyFull, StrategyDiff:
		return st, nil
	default:
		return "", fmt.Errorf("unknown geofence strategy %q", s)
	}
}

// Desired derives the regions for every list with a location, in list
// order. When two lists map to the same identifier the first one wins and
// the identifier is reported in dups.
func Desired(lists []model.List, mode IdentifierMode, radius float64) (regions []Region, dups []string) {
	seen := make(map[string]bool, len(lists))
	for _, l := range lists {
		if l.Location == nil {
			continue
		}
		id := l.Name
		if mode == IdentifyByID {
			id = l.ID
		}
		if seen[id] {
			dups = append(dups, id)
			continue
		}
		seen[id] = true
		regions = append(regions, Region{
			Identifier: id,
			Title:      l.Name,
			Latitude:   l.Location.Latitude,
			Longitude:  l.Location.Longitude,
			Radius:     radius,
		})
	}
	return regions, dups
}

// Identifiers returns the sorted identifiers of regions.
func Identifiers(regions []Region) []string {
	ids := make([]string, 0, len(regions))
	for _, r := range regions {
		ids = append(ids, r.Identifier)
	}
	sort.Strings(ids)
	return ids
}

// sameSet reports whether a and b hold the same identifiers over the same
// areas with the same titles, ignoring order.
func sameSet(a, b []Region) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]Region, len(a))
	for _, r := range a {
		byID[r.Identifier] = r
	}
	for _, r := range b {
		o, ok := byID[r.Identifier]
		if !ok || !o.same(r) {
			return false
		}
	}
	return true
}
