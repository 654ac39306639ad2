package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"route-planner/internal/metrics"
	"route-planner/internal/models"
)

const (
	DefaultORSBaseURL = "https://api.openrouteservice.org"
	DefaultORSProfile = "driving-car"

	providerORS = "openrouteservice"
)

// ORSConfig configures the OpenRouteService directions client
type ORSConfig struct {
	BaseURL string
	APIKey  string
	Profile string
	Timeout time.Duration
}

// ORSClient fetches path geometry from the OpenRouteService directions API
type ORSClient struct {
	baseURL    string
	apiKey     string
	profile    string
	timeout    time.Duration
	httpClient *http.Client
}

type orsDirectionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

// NewORSClient creates a directions client, filling unset fields with defaults
func NewORSClient(cfg ORSConfig) *ORSClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultORSBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultORSProfile
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &ORSClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		profile: cfg.Profile,
		timeout: cfg.Timeout,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Path returns the driving path through points in the given order
func (c *ORSClient) Path(ctx context.Context, points []models.GeoPoint) (*models.PathResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openrouteservice directions: %w", models.ErrMissingCredential)
	}
	if len(points) < 2 {
		return nil, &ErrPathUnavailable{Provider: providerORS, Reason: fmt.Sprintf("need at least 2 points, got %d", len(points))}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	began := time.Now()
	result, err := c.path(ctx, points)
	metrics.ObserveAdapterCall(metrics.AdapterPath, began, err)
	if err != nil {
		return nil, err
	}

	log.Printf("[ORS] Directions done: points=%d geometry_points=%d elapsed=%s", len(points), len(result.Geometry), time.Since(began).Round(time.Millisecond))
	return result, nil
}

func (c *ORSClient) path(ctx context.Context, points []models.GeoPoint) (*models.PathResult, error) {
	body := orsDirectionsRequest{Coordinates: make([][2]float64, len(points))}
	for i, p := range points {
		body.Coordinates[i] = p.LngLat()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ErrPathUnavailable{Provider: providerORS, Reason: err.Error()}
	}

	url := fmt.Sprintf("%s/v2/directions/%s/geojson", c.baseURL, c.profile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		log.Printf("[ERROR] Failed to create directions request: points=%d err=%v", len(points), err)
		return nil, &ErrPathUnavailable{Provider: providerORS, Reason: err.Error()}
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json, application/json")

	log.Printf("[ORS] Directions request: points=%d profile=%s", len(points), c.profile)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[ERROR] Directions request failed: points=%d err=%v", len(points), err)
		return nil, &ErrPathUnavailable{Provider: providerORS, Reason: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrPathUnavailable{Provider: providerORS, Reason: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[ERROR] Directions API error: points=%d status=%d body=%s", len(points), resp.StatusCode, string(respBody))
		return nil, &ErrPathUnavailable{
			Provider: providerORS,
			Reason:   fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	fc, err := geojson.UnmarshalFeatureCollection(respBody)
	if err != nil {
		log.Printf("[ERROR] Failed to decode directions response: points=%d err=%v", len(points), err)
		return nil, &ErrPathUnavailable{Provider: providerORS, Reason: err.Error()}
	}

	return parseFeatureCollection(fc)
}

// parseFeatureCollection reads the first LineString feature. Coordinates are
// longitude-first on the wire.
func parseFeatureCollection(fc *geojson.FeatureCollection) (*models.PathResult, error) {
	if len(fc.Features) == 0 {
		return nil, &ErrPathUnavailable{Provider: providerORS, Reason: "no features returned"}
	}

	feature := fc.Features[0]
	line, ok := feature.Geometry.(orb.LineString)
	if !ok {
		return nil, &ErrPathUnavailable{Provider: providerORS, Reason: fmt.Sprintf("unexpected geometry type %T", feature.Geometry)}
	}
	if len(line) < 2 {
		return nil, &ErrPathUnavailable{Provider: providerORS, Reason: fmt.Sprintf("path has %d points", len(line))}
	}

	geometry := make(models.PathGeometry, len(line))
	for i, p := range line {
		geometry[i] = models.GeoPointFromLngLat([2]float64{p.Lon(), p.Lat()})
	}

	var distanceMeters, durationSecs *float64
	if summary, ok := feature.Properties["summary"].(map[string]interface{}); ok {
		distanceMeters = number(summary["distance"])
		durationSecs = number(summary["duration"])
	}

	return &models.PathResult{
		Geometry: geometry,
		Stats:    models.StatsFromMeters(distanceMeters, durationSecs),
	}, nil
}

func number(v interface{}) *float64 {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}
