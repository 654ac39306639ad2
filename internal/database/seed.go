package database

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"route-planner/internal/models"
)

// LoadSeedFile reads a JSON array of places. Entries without an ID or with
// out-of-range coordinates are skipped.
func LoadSeedFile(path string) ([]models.Waypoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var entries []models.Waypoint
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	places := make([]models.Waypoint, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		switch {
		case e.ID == "":
			log.Printf("[PLACES] Skipping seed entry without id: index=%d", i)
			continue
		case !e.Location.Valid():
			log.Printf("[PLACES] Skipping seed entry with invalid location: id=%s lat=%f lng=%f", e.ID, e.Location.Lat, e.Location.Lng)
			continue
		case seen[e.ID]:
			log.Printf("[PLACES] Skipping duplicate seed entry: id=%s", e.ID)
			continue
		}
		seen[e.ID] = true
		places = append(places, e)
	}

	log.Printf("[PLACES] Loaded seed file: path=%s entries=%d accepted=%d", path, len(entries), len(places))
	return places, nil
}
