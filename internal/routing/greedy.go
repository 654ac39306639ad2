package routing

import (
	"route-planner/internal/distance"
	"route-planner/internal/models"
)

// NearestNeighbor builds a visiting order by repeatedly moving to the closest
// unvisited candidate. Ties go to the candidate that appears first in the
// input. Returns the order and the great-circle miles travelled.
func NearestNeighbor(start models.GeoPoint, candidates []models.Waypoint) (models.OrderedRoute, float64) {
	remaining := make([]models.Waypoint, len(candidates))
	copy(remaining, candidates)
	return continueNearest(start, remaining)
}

// continueNearest extends a route from current over the remaining candidates.
// remaining is consumed.
func continueNearest(current models.GeoPoint, remaining []models.Waypoint) (models.OrderedRoute, float64) {
	order := make(models.OrderedRoute, 0, len(remaining))
	var total float64

	for len(remaining) > 0 {
		bestIdx := 0
		bestDist := distance.Miles(current, remaining[0].Location)
		for i := 1; i < len(remaining); i++ {
			d := distance.Miles(current, remaining[i].Location)
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}

		next := remaining[bestIdx]
		order = append(order, next)
		total += bestDist
		current = next.Location
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return order, total
}
