package routing

import (
	"context"

	"route-planner/internal/models"
)

// Optimizer delegates visiting-order selection to a remote service
type Optimizer interface {
	Optimize(ctx context.Context, start models.GeoPoint, candidates []models.Waypoint) (*models.OptimizedRoute, error)
}

// PathFinder delegates path geometry for a fixed point sequence to a remote service
type PathFinder interface {
	Path(ctx context.Context, points []models.GeoPoint) (*models.PathResult, error)
}

// RoutePlanner produces a route artifact for a start point and candidate set
type RoutePlanner interface {
	Plan(ctx context.Context, start models.GeoPoint, candidates []models.Waypoint) (*models.RouteArtifact, error)
}
