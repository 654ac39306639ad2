package distance

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"route-planner/internal/models"
)

func toOrb(p models.GeoPoint) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Meters returns the haversine great-circle distance between two points,
// using orb's fixed Earth radius
func Meters(a, b models.GeoPoint) float64 {
	return geo.DistanceHaversine(toOrb(a), toOrb(b))
}

// Miles returns the haversine great-circle distance in miles
func Miles(a, b models.GeoPoint) float64 {
	return Meters(a, b) / models.MetersPerMile
}

// PathMiles sums the great-circle legs between consecutive points
func PathMiles(points []models.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Miles(points[i-1], points[i])
	}
	return total
}
