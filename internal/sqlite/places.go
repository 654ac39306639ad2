package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	"route-planner/internal/database"
	"route-planner/internal/distance"
	"route-planner/internal/metrics"
	"route-planner/internal/models"
)

// milesPerDegreeLat is the length of one degree of latitude, used only to size
// the bounding-box prefilter
const milesPerDegreeLat = 69.0

type placeRepository struct {
	store *Store
}

// boundingBox returns the lat/lng window that contains every point within
// radiusMiles of center
func boundingBox(center models.GeoPoint, radiusMiles float64) (minLat, maxLat, minLng, maxLng float64) {
	// Pad so the great-circle filter, not the box, decides the edge
	latDelta := radiusMiles/milesPerDegreeLat*1.01 + 1e-6
	minLat = math.Max(center.Lat-latDelta, -90)
	maxLat = math.Min(center.Lat+latDelta, 90)

	cosLat := math.Cos(math.Max(math.Abs(minLat), math.Abs(maxLat)) * math.Pi / 180)
	if cosLat < 1e-6 {
		return minLat, maxLat, -180, 180
	}
	lngDelta := latDelta / cosLat
	if lngDelta >= 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, center.Lng - lngDelta, center.Lng + lngDelta
}

// Nearby returns places within radiusMiles of center ordered by name then id
func (r *placeRepository) Nearby(ctx context.Context, center models.GeoPoint, radiusMiles float64) ([]models.Waypoint, error) {
	if !center.Valid() {
		return nil, &database.ErrLookupFailed{Reason: fmt.Sprintf("invalid center (%.6f,%.6f)", center.Lat, center.Lng)}
	}
	if radiusMiles <= 0 {
		return []models.Waypoint{}, nil
	}

	began := time.Now()
	places, err := r.nearby(ctx, center, radiusMiles)
	metrics.ObserveAdapterCall(metrics.AdapterPlaces, began, err)
	if err != nil {
		log.Printf("[ERROR] Nearby lookup failed: center=(%.6f,%.6f) radius=%.1f err=%v", center.Lat, center.Lng, radiusMiles, err)
		return nil, &database.ErrLookupFailed{Reason: err.Error()}
	}

	log.Printf("[PLACES] Nearby lookup: center=(%.6f,%.6f) radius=%.1f found=%d", center.Lat, center.Lng, radiusMiles, len(places))
	return places, nil
}

func (r *placeRepository) nearby(ctx context.Context, center models.GeoPoint, radiusMiles float64) ([]models.Waypoint, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	minLat, maxLat, minLng, maxLng := boundingBox(center, radiusMiles)

	// Boxes crossing the antimeridian are split into two longitude ranges
	lngClause := "lng BETWEEN ? AND ?"
	args := []interface{}{minLat, maxLat, minLng, maxLng}
	switch {
	case minLng < -180:
		lngClause = "(lng >= ? OR lng <= ?)"
		args = []interface{}{minLat, maxLat, minLng + 360, maxLng}
	case maxLng > 180:
		lngClause = "(lng >= ? OR lng <= ?)"
		args = []interface{}{minLat, maxLat, minLng, maxLng - 360}
	}

	query := `SELECT id, name, code, address, lat, lng FROM places
	          WHERE lat BETWEEN ? AND ? AND ` + lngClause + `
	          ORDER BY name, id`

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query places: %w", err)
	}
	defer rows.Close()

	places := []models.Waypoint{}
	for rows.Next() {
		var w models.Waypoint
		if err := rows.Scan(&w.ID, &w.Name, &w.Code, &w.Address, &w.Location.Lat, &w.Location.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		if distance.Miles(center, w.Location) <= radiusMiles {
			places = append(places, w)
		}
	}

	return places, rows.Err()
}

func (r *placeRepository) GetByID(ctx context.Context, id string) (*models.Waypoint, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var w models.Waypoint
	err := r.store.db.QueryRowContext(ctx,
		`SELECT id, name, code, address, lat, lng FROM places WHERE id = ?`, id,
	).Scan(&w.ID, &w.Name, &w.Code, &w.Address, &w.Location.Lat, &w.Location.Lng)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get place: %w", err)
	}

	return &w, nil
}

const upsertPlaceQuery = `INSERT INTO places (id, name, code, address, lat, lng, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		code = excluded.code,
		address = excluded.address,
		lat = excluded.lat,
		lng = excluded.lng,
		updated_at = CURRENT_TIMESTAMP`

func (r *placeRepository) Upsert(ctx context.Context, w *models.Waypoint) error {
	if w.ID == "" {
		return fmt.Errorf("place id is required")
	}
	if !w.Location.Valid() {
		return fmt.Errorf("place %s has invalid location (%.6f,%.6f)", w.ID, w.Location.Lat, w.Location.Lng)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, err := r.store.db.ExecContext(ctx, upsertPlaceQuery,
		w.ID, w.Name, w.Code, w.Address, w.Location.Lat, w.Location.Lng)
	if err != nil {
		return fmt.Errorf("failed to upsert place: %w", err)
	}

	return nil
}

func (r *placeRepository) UpsertBatch(ctx context.Context, places []models.Waypoint) error {
	if len(places) == 0 {
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPlaceQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, w := range places {
		if w.ID == "" || !w.Location.Valid() {
			return fmt.Errorf("invalid place in batch: id=%q", w.ID)
		}
		if _, err := stmt.ExecContext(ctx, w.ID, w.Name, w.Code, w.Address, w.Location.Lat, w.Location.Lng); err != nil {
			return fmt.Errorf("failed to upsert batch entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("[PLACES] Upserted places: count=%d", len(places))
	return nil
}

func (r *placeRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result, err := r.store.db.ExecContext(ctx, "DELETE FROM places WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete place: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return database.ErrNotFound
	}

	return nil
}

func (r *placeRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var n int
	if err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM places").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count places: %w", err)
	}
	return n, nil
}
