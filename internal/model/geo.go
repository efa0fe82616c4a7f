package model

import (
	"fmt"
	"math"
)

// Map span deltas used when centring a map view.
const (
	DefaultLatitudeDelta  = 0.2
	DefaultLongitudeDelta = 0.2
	SampleLatitudeDelta   = 0.0922
	SampleLongitudeDelta  = 0.0421
)

// earthRadiusMeters is the mean Earth radius used by DistanceMeters.
const earthRadiusMeters = 6371000.0

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Validate checks that the coordinate lies within WGS84 bounds.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Longitude)
	}
	return nil
}

// GeoRegion is a coordinate plus the span a map shows around it. Deltas are
// zero when only a point was picked.
type GeoRegion struct {
	Latitude       float64 `json:"latitude" yaml:"latitude"`
	Longitude      float64 `json:"longitude" yaml:"longitude"`
	LatitudeDelta  float64 `json:"latitude_delta,omitempty" yaml:"latitude_delta,omitempty"`
	LongitudeDelta float64 `json:"longitude_delta,omitempty" yaml:"longitude_delta,omitempty"`
}

// Point returns the region's centre.
func (r GeoRegion) Point() GeoPoint {
	return GeoPoint{Latitude: r.Latitude, Longitude: r.Longitude}
}

// Validate checks the centre coordinate and that deltas are not negative.
func (r GeoRegion) Validate() error {
	if err := r.Point().Validate(); err != nil {
		return err
	}
	if r.LatitudeDelta < 0 || r.LongitudeDelta < 0 {
		return fmt.Errorf("span deltas must not be negative")
	}
	return nil
}

// RegionAround builds a GeoRegion centred on p with the given deltas.
func RegionAround(p GeoPoint, latDelta, lonDelta float64) GeoRegion {
	return GeoRegion{
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		LatitudeDelta:  latDelta,
		LongitudeDelta: lonDelta,
	}
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b GeoPoint) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }

	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
