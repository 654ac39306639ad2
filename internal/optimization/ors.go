package optimization

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

	"route-planner/internal/geometry"
	"route-planner/internal/metrics"
	"route-planner/internal/models"
)

// Defaults for the public OpenRouteService deployment
const (
	DefaultBaseURL = "https://api.openrouteservice.org"
	DefaultProfile = "driving-car"
	DefaultTimeout = 30 * time.Second
)

// ErrOptimizationUnavailable is returned when the optimization service fails
// or answers with something that cannot be used
type ErrOptimizationUnavailable struct {
	Reason string
}

func (e *ErrOptimizationUnavailable) Error() string {
	return fmt.Sprintf("route optimization unavailable: %s", e.Reason)
}

// Config configures the OpenRouteService optimization client
type Config struct {
	BaseURL   string
	APIKey    string
	Profile   string
	Timeout   time.Duration
	Precision float64
}

// Client calls the OpenRouteService (VROOM) optimization endpoint
type Client struct {
	baseURL    string
	apiKey     string
	profile    string
	precision  float64
	timeout    time.Duration
	httpClient *http.Client
}

type orsJob struct {
	ID       int        `json:"id"`
	Location [2]float64 `json:"location"`
}

type orsVehicle struct {
	ID      int        `json:"id"`
	Profile string     `json:"profile"`
	Start   [2]float64 `json:"start"`
}

type orsOptions struct {
	G bool `json:"g"`
}

type orsRequest struct {
	Jobs     []orsJob     `json:"jobs"`
	Vehicles []orsVehicle `json:"vehicles"`
	Options  orsOptions   `json:"options"`
}

type orsStep struct {
	Type     string   `json:"type"`
	Job      *int     `json:"job,omitempty"`
	ID       *int     `json:"id,omitempty"`
	Arrival  *float64 `json:"arrival,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

type orsRoute struct {
	Vehicle  int       `json:"vehicle"`
	Distance *float64  `json:"distance,omitempty"`
	Duration *float64  `json:"duration,omitempty"`
	Geometry string    `json:"geometry,omitempty"`
	Steps    []orsStep `json:"steps"`
}

type orsUnassigned struct {
	ID int `json:"id"`
}

type orsResponse struct {
	Code       int             `json:"code"`
	Error      json.RawMessage `json:"error,omitempty"`
	Routes     []orsRoute      `json:"routes"`
	Unassigned []orsUnassigned `json:"unassigned"`
}

// NewClient creates an optimization client, filling unset fields with defaults
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Precision <= 0 {
		cfg.Precision = geometry.DefaultPrecision
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		profile:   cfg.Profile,
		precision: cfg.Precision,
		timeout:   cfg.Timeout,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Optimize asks the service for a visiting order of the candidates starting
// at start. Jobs are identified by their 1-based input position.
func (c *Client) Optimize(ctx context.Context, start models.GeoPoint, candidates []models.Waypoint) (*models.OptimizedRoute, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openrouteservice optimization: %w", models.ErrMissingCredential)
	}
	if len(candidates) == 0 {
		return &models.OptimizedRoute{Order: models.OrderedRoute{}}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	began := time.Now()
	route, err := c.optimize(ctx, start, candidates)
	metrics.ObserveAdapterCall(metrics.AdapterOptimization, began, err)
	if err != nil {
		return nil, err
	}

	log.Printf("[ORS] Optimization done: jobs=%d ordered=%d unknown=%d geometry_points=%d elapsed=%s",
		len(candidates), len(route.Order), len(route.UnknownJobs), len(route.Geometry), time.Since(began).Round(time.Millisecond))
	return route, nil
}

func (c *Client) optimize(ctx context.Context, start models.GeoPoint, candidates []models.Waypoint) (*models.OptimizedRoute, error) {
	body := orsRequest{
		Jobs:     make([]orsJob, len(candidates)),
		Vehicles: []orsVehicle{{ID: 1, Profile: c.profile, Start: start.LngLat()}},
		Options:  orsOptions{G: true},
	}
	for i, w := range candidates {
		body.Jobs[i] = orsJob{ID: i + 1, Location: w.Location.LngLat()}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ErrOptimizationUnavailable{Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/optimization", bytes.NewReader(payload))
	if err != nil {
		log.Printf("[ERROR] Failed to create optimization request: jobs=%d err=%v", len(candidates), err)
		return nil, &ErrOptimizationUnavailable{Reason: err.Error()}
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Printf("[ORS] Optimization request: jobs=%d profile=%s", len(candidates), c.profile)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[ERROR] Optimization request failed: jobs=%d err=%v", len(candidates), err)
		return nil, &ErrOptimizationUnavailable{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("[ERROR] Optimization API error: jobs=%d status=%d body=%s", len(candidates), resp.StatusCode, string(respBody))
		return nil, &ErrOptimizationUnavailable{
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var orsResp orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&orsResp); err != nil {
		log.Printf("[ERROR] Failed to decode optimization response: jobs=%d err=%v", len(candidates), err)
		return nil, &ErrOptimizationUnavailable{Reason: err.Error()}
	}

	return c.parseResponse(&orsResp, candidates)
}

// parseResponse validates the response against the submitted candidates
func (c *Client) parseResponse(resp *orsResponse, candidates []models.Waypoint) (*models.OptimizedRoute, error) {
	if len(resp.Error) > 0 && string(resp.Error) != "null" {
		log.Printf("[ERROR] Optimization service returned error: code=%d error=%s", resp.Code, string(resp.Error))
		return nil, &ErrOptimizationUnavailable{Reason: fmt.Sprintf("service error: %s", string(resp.Error))}
	}
	if len(resp.Routes) == 0 {
		log.Printf("[ERROR] Optimization returned no routes: jobs=%d unassigned=%d", len(candidates), len(resp.Unassigned))
		return nil, &ErrOptimizationUnavailable{Reason: "no routes returned"}
	}
	if len(resp.Unassigned) > 0 {
		log.Printf("[ORS] Optimization left jobs unassigned: count=%d", len(resp.Unassigned))
	}

	route := resp.Routes[0]
	result := &models.OptimizedRoute{
		Order: make(models.OrderedRoute, 0, len(candidates)),
		Stats: models.StatsFromMeters(route.Distance, route.Duration),
	}

	for _, step := range route.Steps {
		if step.Type != "job" {
			continue
		}
		jobID := step.Job
		if jobID == nil {
			jobID = step.ID
		}
		if jobID == nil || *jobID < 1 || *jobID > len(candidates) {
			id := 0
			if jobID != nil {
				id = *jobID
			}
			log.Printf("[ORS] Dropping step with unknown job: job=%d", id)
			result.UnknownJobs = append(result.UnknownJobs, id)
			continue
		}
		result.Order = append(result.Order, candidates[*jobID-1])
	}

	if route.Geometry == "" {
		return result, nil
	}

	points, err := geometry.DecodePoints(route.Geometry, c.precision, geometry.LatLng)
	if err == nil {
		err = geometry.Plausible(points)
	}
	if err != nil {
		log.Printf("[ORS] Discarding route geometry: precision=%g err=%v", c.precision, err)
		result.GeometryDiscarded = err.Error()
		return result, nil
	}
	result.Geometry = points
	return result, nil
}
