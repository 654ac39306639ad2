package directions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"route-planner/internal/geometry"
	"route-planner/internal/models"
)

func TestOSRMPath_Success(t *testing.T) {
	encoded := geometry.Encode(geometry.FromGeoPoints(testPoints, geometry.LatLng), geometry.DefaultPrecision)

	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"code":"Ok","routes":[{"geometry":%q,"distance":16093.4,"duration":900}]}`, encoded)
	}))
	defer server.Close()

	client := NewOSRMClient(OSRMConfig{BaseURL: server.URL})
	result, err := client.Path(context.Background(), testPoints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(gotPath, "/route/v1/driving/-88.000000,30.000000;") {
		t.Errorf("coordinates should be lng,lat; got path %s", gotPath)
	}
	if !strings.Contains(gotQuery, "geometries=polyline") || !strings.Contains(gotQuery, "overview=full") {
		t.Errorf("unexpected query %s", gotQuery)
	}

	if len(result.Geometry) != len(testPoints) {
		t.Fatalf("expected %d geometry points, got %d", len(testPoints), len(result.Geometry))
	}
	for i, p := range testPoints {
		if diff := result.Geometry[i].Lat - p.Lat; diff > 1e-5 || diff < -1e-5 {
			t.Errorf("point %d lat = %f, want %f", i, result.Geometry[i].Lat, p.Lat)
		}
	}

	if result.Stats.DistanceMiles == nil || *result.Stats.DistanceMiles < 9.99 || *result.Stats.DistanceMiles > 10.01 {
		t.Errorf("expected ~10 miles, got %v", result.Stats.DistanceMiles)
	}
	if result.Stats.DurationMinutes == nil || *result.Stats.DurationMinutes != 15 {
		t.Errorf("expected 15 minutes, got %v", result.Stats.DurationMinutes)
	}
}

func TestOSRMPath_Polyline6(t *testing.T) {
	encoded := geometry.Encode(geometry.FromGeoPoints(testPoints, geometry.LatLng), 1e6)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("geometries") != "polyline6" {
			t.Errorf("expected polyline6, got %s", r.URL.Query().Get("geometries"))
		}
		fmt.Fprintf(w, `{"code":"Ok","routes":[{"geometry":%q}]}`, encoded)
	}))
	defer server.Close()

	client := NewOSRMClient(OSRMConfig{BaseURL: server.URL, Precision: 1e6})
	result, err := client.Path(context.Background(), testPoints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Geometry[2]; got.Lat < 30.19999 || got.Lat > 30.20001 {
		t.Errorf("expected lat 30.2, got %f", got.Lat)
	}
	if result.Stats.DistanceMiles != nil {
		t.Errorf("distance should be unknown when not reported")
	}
}

func TestOSRMPath_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusInternalServerError, "Internal Server Error"},
		{"error code", http.StatusOK, `{"code":"NoRoute","message":"Impossible route between points"}`},
		{"no routes", http.StatusOK, `{"code":"Ok","routes":[]}`},
		{"bad geometry", http.StatusOK, `{"code":"Ok","routes":[{"geometry":"_p~iF~ps|"}]}`},
		{"malformed", http.StatusOK, `{"code":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewOSRMClient(OSRMConfig{BaseURL: server.URL})
			_, err := client.Path(context.Background(), testPoints)

			var unavailable *ErrPathUnavailable
			if !errors.As(err, &unavailable) {
				t.Fatalf("expected ErrPathUnavailable, got %v", err)
			}
			if unavailable.Provider != providerOSRM {
				t.Errorf("expected provider %s, got %s", providerOSRM, unavailable.Provider)
			}
		})
	}
}

func TestOSRMPath_TooManyCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("OSRM server should not be called")
	}))
	defer server.Close()

	points := make([]models.GeoPoint, maxOSRMCoordinates+1)
	for i := range points {
		points[i] = models.GeoPoint{Lat: 30 + float64(i)*0.001, Lng: -88}
	}

	client := NewOSRMClient(OSRMConfig{BaseURL: server.URL})
	_, err := client.Path(context.Background(), points)

	var unavailable *ErrPathUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrPathUnavailable, got %v", err)
	}
}

func TestOSRMPath_NeedsTwoPoints(t *testing.T) {
	client := NewOSRMClient(OSRMConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Path(context.Background(), testPoints[:1])

	var unavailable *ErrPathUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrPathUnavailable, got %v", err)
	}
}
