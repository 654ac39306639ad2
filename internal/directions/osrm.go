package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"route-planner/internal/geometry"
	"route-planner/internal/metrics"
	"route-planner/internal/models"
)

const (
	DefaultOSRMBaseURL = "https://router.project-osrm.org"

	providerOSRM = "osrm"

	// maxOSRMCoordinates is the maximum number of coordinates the public OSRM API accepts
	maxOSRMCoordinates = 80
)

// OSRMConfig configures the OSRM route client
type OSRMConfig struct {
	BaseURL   string
	Timeout   time.Duration
	Precision float64
}

// OSRMClient fetches path geometry from an OSRM /route endpoint. It needs no
// credential.
type OSRMClient struct {
	baseURL    string
	precision  float64
	timeout    time.Duration
	httpClient *http.Client
}

type osrmRoute struct {
	Geometry string   `json:"geometry"`
	Distance *float64 `json:"distance"`
	Duration *float64 `json:"duration"`
}

type osrmRouteResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

// NewOSRMClient creates an OSRM client, filling unset fields with defaults
func NewOSRMClient(cfg OSRMConfig) *OSRMClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOSRMBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Precision <= 0 {
		cfg.Precision = geometry.DefaultPrecision
	}

	return &OSRMClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		precision: cfg.Precision,
		timeout:   cfg.Timeout,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Path returns the driving path through points in the given order
func (c *OSRMClient) Path(ctx context.Context, points []models.GeoPoint) (*models.PathResult, error) {
	if len(points) < 2 {
		return nil, &ErrPathUnavailable{Provider: providerOSRM, Reason: fmt.Sprintf("need at least 2 points, got %d", len(points))}
	}
	if len(points) > maxOSRMCoordinates {
		log.Printf("[OSRM] Too many coordinates for route request: points=%d max=%d", len(points), maxOSRMCoordinates)
		return nil, &ErrPathUnavailable{Provider: providerOSRM, Reason: fmt.Sprintf("%d points exceeds limit of %d", len(points), maxOSRMCoordinates)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	began := time.Now()
	result, err := c.route(ctx, points)
	metrics.ObserveAdapterCall(metrics.AdapterPath, began, err)
	if err != nil {
		return nil, err
	}

	log.Printf("[OSRM] Route done: points=%d geometry_points=%d elapsed=%s", len(points), len(result.Geometry), time.Since(began).Round(time.Millisecond))
	return result, nil
}

// geometriesParam selects the polyline flavour matching the configured precision
func (c *OSRMClient) geometriesParam() string {
	if c.precision == 1e6 {
		return "polyline6"
	}
	return "polyline"
}

func (c *OSRMClient) route(ctx context.Context, points []models.GeoPoint) (*models.PathResult, error) {
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat)
	}

	queryURL := fmt.Sprintf("%s/route/v1/driving/%s?overview=full&geometries=%s", c.baseURL, strings.Join(coords, ";"), c.geometriesParam())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to create OSRM request: points=%d err=%v", len(points), err)
		return nil, &ErrPathUnavailable{Provider: providerOSRM, Reason: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[ERROR] OSRM API request failed: points=%d err=%v", len(points), err)
		return nil, &ErrPathUnavailable{Provider: providerOSRM, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("[ERROR] OSRM API error: points=%d status=%d body=%s", len(points), resp.StatusCode, string(body))
		return nil, &ErrPathUnavailable{
			Provider: providerOSRM,
			Reason:   fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var osrmResp osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&osrmResp); err != nil {
		log.Printf("[ERROR] Failed to decode OSRM response: points=%d err=%v", len(points), err)
		return nil, &ErrPathUnavailable{Provider: providerOSRM, Reason: err.Error()}
	}

	if osrmResp.Code != "Ok" {
		log.Printf("[ERROR] OSRM returned error code: points=%d code=%s message=%s", len(points), osrmResp.Code, osrmResp.Message)
		return nil, &ErrPathUnavailable{Provider: providerOSRM, Reason: fmt.Sprintf("OSRM error: %s", osrmResp.Code)}
	}
	if len(osrmResp.Routes) == 0 {
		return nil, &ErrPathUnavailable{Provider: providerOSRM, Reason: "no routes returned"}
	}

	route := osrmResp.Routes[0]
	path, err := geometry.DecodePoints(route.Geometry, c.precision, geometry.LatLng)
	if err != nil {
		log.Printf("[ERROR] Failed to decode OSRM geometry: points=%d err=%v", len(points), err)
		return nil, &ErrPathUnavailable{Provider: providerOSRM, Reason: err.Error()}
	}

	return &models.PathResult{
		Geometry: path,
		Stats:    models.StatsFromMeters(route.Distance, route.Duration),
	}, nil
}
