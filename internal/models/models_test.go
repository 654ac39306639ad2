package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoPointLngLat(t *testing.T) {
	p := GeoPoint{Lat: 40.7128, Lng: -74.0060}

	pair := p.LngLat()

	assert.Equal(t, -74.0060, pair[0])
	assert.Equal(t, 40.7128, pair[1])
	assert.Equal(t, p, GeoPointFromLngLat(pair))
}

func TestGeoPointValid(t *testing.T) {
	assert.True(t, GeoPoint{Lat: 90, Lng: -180}.Valid())
	assert.True(t, GeoPoint{}.Valid())
	assert.False(t, GeoPoint{Lat: 90.1, Lng: 0}.Valid())
	assert.False(t, GeoPoint{Lat: 0, Lng: 180.5}.Valid())
}

func TestStatsFromMeters(t *testing.T) {
	meters := 1609.34 * 3
	secs := 600.0

	stats := StatsFromMeters(&meters, &secs)

	assert.InDelta(t, 3.0, *stats.DistanceMiles, 1e-9)
	assert.InDelta(t, 10.0, *stats.DurationMinutes, 1e-9)
}

func TestStatsFromMeters_Absent(t *testing.T) {
	secs := 120.0
	negative := -5.0

	stats := StatsFromMeters(&negative, &secs)

	assert.Nil(t, stats.DistanceMiles)
	assert.InDelta(t, 2.0, *stats.DurationMinutes, 1e-9)

	stats = StatsFromMeters(nil, nil)
	assert.Nil(t, stats.DistanceMiles)
	assert.Nil(t, stats.DurationMinutes)
}

func TestRouteArtifactStraightLine(t *testing.T) {
	a := &RouteArtifact{
		Start: GeoPoint{Lat: 30, Lng: -88},
		Order: OrderedRoute{
			{ID: "a", Location: GeoPoint{Lat: 30.1, Lng: -88}},
			{ID: "b", Location: GeoPoint{Lat: 30.2, Lng: -88}},
		},
	}

	line := a.StraightLine()

	assert.Equal(t, []GeoPoint{{Lat: 30, Lng: -88}, {Lat: 30.1, Lng: -88}, {Lat: 30.2, Lng: -88}}, line)
	assert.Equal(t, []string{"a", "b"}, a.Order.IDs())
}

func TestRouteArtifactNotes(t *testing.T) {
	a := &RouteArtifact{}
	assert.False(t, a.Degraded())
	assert.False(t, a.HasNote(NoteGeometryUnavailable))

	a.Notes = append(a.Notes, Note{Code: NoteGeometryUnavailable, Message: "path service down"})
	assert.True(t, a.Degraded())
	assert.True(t, a.HasNote(NoteGeometryUnavailable))
}
