package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"route-planner/internal/cache"
	"route-planner/internal/models"
)

// PointRequest is a latitude-first coordinate in a request body
type PointRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

func (p PointRequest) geoPoint() models.GeoPoint {
	return models.GeoPoint{Lat: *p.Lat, Lng: *p.Lng}
}

// PlanRouteRequest represents the request for route planning
type PlanRouteRequest struct {
	Start       *PointRequest `json:"start" validate:"required"`
	RadiusMiles int           `json:"radius_miles" validate:"required,min=1,max=50"`
}

// NearbyQuery holds the query parameters of a nearby lookup
type NearbyQuery struct {
	Lat    float64 `query:"lat" validate:"latitude"`
	Lng    float64 `query:"lng" validate:"longitude"`
	Radius int     `query:"radius" validate:"required,min=1,max=50"`
}

// NearbyResponse lists places around a point
type NearbyResponse struct {
	Places []models.Waypoint `json:"places"`
	Count  int               `json:"count"`
}

// HandlePlanRoute handles POST /api/v1/routes/plan
func (h *Handler) HandlePlanRoute(w http.ResponseWriter, r *http.Request) {
	var req PlanRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[HTTP] POST /api/v1/routes/plan: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body", nil)
		return
	}
	if !h.validateRequest(w, &req) {
		log.Printf("[HTTP] POST /api/v1/routes/plan: validation failed")
		return
	}

	ctx := r.Context()
	start := req.Start.geoPoint()

	candidates, err := h.Places.Nearby(ctx, start, float64(req.RadiusMiles))
	if err != nil {
		h.handleLookupError(w, err)
		return
	}

	log.Printf("[HTTP] POST /api/v1/routes/plan: start=(%.6f,%.6f) radius=%d candidates=%d", start.Lat, start.Lng, req.RadiusMiles, len(candidates))

	var cacheKey string
	if h.Cache != nil {
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
		}
		cacheKey = cache.Key(start, req.RadiusMiles, ids)

		cached, err := h.Cache.Get(ctx, cacheKey)
		if err != nil {
			log.Printf("[CACHE] Lookup failed, planning without cache: key=%s err=%v", cacheKey, err)
		} else if cached != nil {
			log.Printf("[CACHE] Hit: key=%s id=%s", cacheKey, cached.ID)
			h.writeArtifact(w, r, cached)
			return
		}
	}

	artifact, err := h.Planner.Plan(ctx, start, candidates)
	if err != nil {
		if errors.Is(err, models.ErrMissingCredential) {
			h.handleConfigurationError(w, err)
			return
		}
		h.handleInternalError(w, err)
		return
	}

	if h.Cache != nil {
		if err := h.Cache.Put(ctx, cacheKey, artifact); err != nil {
			log.Printf("[CACHE] Store failed: key=%s err=%v", cacheKey, err)
		}
	}

	h.writeArtifact(w, r, artifact)
}

func (h *Handler) writeArtifact(w http.ResponseWriter, r *http.Request, artifact *models.RouteArtifact) {
	if r.URL.Query().Get("format") != "geojson" {
		h.writeJSON(w, http.StatusOK, artifact)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(artifactFeatureCollection(artifact))
}

// artifactFeatureCollection renders the route as a path LineString, a start
// Point and one Point per stop. With no path geometry the line is drawn
// straight through the stops.
func artifactFeatureCollection(a *models.RouteArtifact) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	points := []models.GeoPoint(a.Geometry)
	straight := len(points) == 0
	if straight {
		points = a.StraightLine()
	}

	if len(points) >= 2 {
		line := make(orb.LineString, len(points))
		for i, p := range points {
			line[i] = orb.Point{p.Lng, p.Lat}
		}

		path := geojson.NewFeature(line)
		path.ID = a.ID
		path.Properties["kind"] = "path"
		path.Properties["straight_line"] = straight
		path.Properties["order_source"] = a.OrderSource
		path.Properties["geometry_source"] = a.GeometrySource
		if a.Stats.DistanceMiles != nil {
			path.Properties["distance_miles"] = *a.Stats.DistanceMiles
		}
		if a.Stats.DurationMinutes != nil {
			path.Properties["duration_minutes"] = *a.Stats.DurationMinutes
		}
		codes := make([]string, len(a.Notes))
		for i, n := range a.Notes {
			codes[i] = n.Code
		}
		path.Properties["notes"] = codes
		fc.Append(path)
	}

	start := geojson.NewFeature(orb.Point{a.Start.Lng, a.Start.Lat})
	start.Properties["kind"] = "start"
	fc.Append(start)

	for i, wp := range a.Order {
		stop := geojson.NewFeature(orb.Point{wp.Location.Lng, wp.Location.Lat})
		stop.ID = wp.ID
		stop.Properties["kind"] = "stop"
		stop.Properties["order"] = i + 1
		stop.Properties["id"] = wp.ID
		stop.Properties["name"] = wp.Name
		if wp.Code != "" {
			stop.Properties["code"] = wp.Code
		}
		fc.Append(stop)
	}

	return fc
}

// HandleNearbyPlaces handles GET /api/v1/places/nearby
func (h *Handler) HandleNearbyPlaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var query NearbyQuery
	var parseErrors []string
	parseFloat := func(name string, dst *float64) {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil {
			parseErrors = append(parseErrors, name+" must be a number")
			return
		}
		*dst = v
	}
	parseFloat("lat", &query.Lat)
	parseFloat("lng", &query.Lng)
	if radius, err := strconv.Atoi(q.Get("radius")); err != nil {
		parseErrors = append(parseErrors, "radius must be an integer")
	} else {
		query.Radius = radius
	}

	if len(parseErrors) > 0 {
		log.Printf("[HTTP] GET /api/v1/places/nearby: invalid query %v", parseErrors)
		h.handleValidationError(w, "Invalid query parameters", parseErrors)
		return
	}
	if !h.validateRequest(w, &query) {
		return
	}

	center := models.GeoPoint{Lat: query.Lat, Lng: query.Lng}
	places, err := h.Places.Nearby(r.Context(), center, float64(query.Radius))
	if err != nil {
		h.handleLookupError(w, err)
		return
	}

	log.Printf("[HTTP] GET /api/v1/places/nearby: center=(%.6f,%.6f) radius=%d found=%d", center.Lat, center.Lng, query.Radius, len(places))
	h.writeJSON(w, http.StatusOK, NearbyResponse{Places: places, Count: len(places)})
}
