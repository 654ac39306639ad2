package database

import (
	"context"

	"route-planner/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	Places() PlaceRepository
}

// PlaceFinder answers spatial lookups for route candidates
type PlaceFinder interface {
	Nearby(ctx context.Context, center models.GeoPoint, radiusMiles float64) ([]models.Waypoint, error)
}

// PlaceRepository handles place persistence
type PlaceRepository interface {
	PlaceFinder
	GetByID(ctx context.Context, id string) (*models.Waypoint, error)
	Upsert(ctx context.Context, w *models.Waypoint) error
	UpsertBatch(ctx context.Context, places []models.Waypoint) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
