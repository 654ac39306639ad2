package models

import (
	"errors"
	"time"
)

// Unit conversion constants for values reported by remote services
const (
	MetersPerMile    = 1609.34
	SecondsPerMinute = 60.0
)

// ErrMissingCredential is returned when a remote adapter has no API key configured
var ErrMissingCredential = errors.New("missing API credential")

// GeoPoint represents a geographic point, latitude first
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within latitude/longitude bounds
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// LngLat returns the point in longitude-first order used by remote services
func (p GeoPoint) LngLat() [2]float64 {
	return [2]float64{p.Lng, p.Lat}
}

// GeoPointFromLngLat builds a point from a longitude-first pair
func GeoPointFromLngLat(c [2]float64) GeoPoint {
	return GeoPoint{Lat: c[1], Lng: c[0]}
}

// Waypoint is a candidate destination. Identity is the ID, not the location.
type Waypoint struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Code     string   `json:"code,omitempty"`
	Address  string   `json:"address,omitempty"`
	Location GeoPoint `json:"location"`
}

// OrderedRoute is the sequence in which waypoints are visited
type OrderedRoute []Waypoint

// IDs returns the waypoint identifiers in visiting order
func (r OrderedRoute) IDs() []string {
	ids := make([]string, len(r))
	for i, w := range r {
		ids[i] = w.ID
	}
	return ids
}

// PathGeometry is a traversable path from the start through the route.
// Empty means no path is available and straight lines should be drawn.
type PathGeometry []GeoPoint

// RouteStatistics holds totals in canonical units. Either field may be unknown.
type RouteStatistics struct {
	DistanceMiles   *float64 `json:"distance_miles,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
}

// StatsFromMeters converts remote distance/duration into canonical units
func StatsFromMeters(distanceMeters, durationSecs *float64) RouteStatistics {
	var stats RouteStatistics
	if distanceMeters != nil && *distanceMeters >= 0 {
		miles := *distanceMeters / MetersPerMile
		stats.DistanceMiles = &miles
	}
	if durationSecs != nil && *durationSecs >= 0 {
		minutes := *durationSecs / SecondsPerMinute
		stats.DurationMinutes = &minutes
	}
	return stats
}

// Note codes attached to a RouteArtifact
const (
	NoteOptimizationUnavailable = "optimization_unavailable"
	NoteGeometryUnavailable     = "geometry_unavailable"
	NoteGeometryDiscarded       = "geometry_discarded"
	NoteUnknownCandidate        = "unknown_candidate"
	NoteDuplicateCandidate      = "duplicate_candidate"
	NoteMissingCandidate        = "missing_candidate"
	NoteDistanceImplausible     = "distance_implausible"
)

// Note is a diagnostic attached to a planning result
type Note struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Order and geometry sources recorded on the artifact
const (
	SourceOptimizer = "optimizer"
	SourceLocal     = "local"
	SourcePath      = "path_service"
	SourceNone      = "none"
)

// RouteArtifact is the result of one planning request
type RouteArtifact struct {
	ID             string          `json:"id"`
	Start          GeoPoint        `json:"start"`
	Order          OrderedRoute    `json:"order"`
	Geometry       PathGeometry    `json:"geometry"`
	Stats          RouteStatistics `json:"stats"`
	Notes          []Note          `json:"notes"`
	OrderSource    string          `json:"order_source"`
	GeometrySource string          `json:"geometry_source"`
	CreatedAt      time.Time       `json:"created_at"`
}

// StraightLine returns the start followed by every stop, for fallback rendering
func (a *RouteArtifact) StraightLine() []GeoPoint {
	points := make([]GeoPoint, 0, len(a.Order)+1)
	points = append(points, a.Start)
	for _, w := range a.Order {
		points = append(points, w.Location)
	}
	return points
}

// HasNote reports whether a note with the given code is attached
func (a *RouteArtifact) HasNote(code string) bool {
	for _, n := range a.Notes {
		if n.Code == code {
			return true
		}
	}
	return false
}

// Degraded reports whether any fallback or repair happened during planning
func (a *RouteArtifact) Degraded() bool {
	return len(a.Notes) > 0
}

// OptimizedRoute is a validated response from the remote optimizer
type OptimizedRoute struct {
	Order       OrderedRoute
	UnknownJobs []int
	Geometry    PathGeometry
	// GeometryDiscarded explains why embedded geometry was dropped, if it was
	GeometryDiscarded string
	Stats             RouteStatistics
}

// PathResult is a validated response from the remote path service
type PathResult struct {
	Geometry PathGeometry
	Stats    RouteStatistics
}
