package directions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-planner/internal/models"
)

var testPoints = []models.GeoPoint{
	{Lat: 30.0, Lng: -88.0},
	{Lat: 30.1, Lng: -88.0},
	{Lat: 30.2, Lng: -88.0},
}

const directionsBody = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "geometry": {"type": "LineString", "coordinates": [[-88.0, 30.0], [-88.01, 30.05], [-88.0, 30.1], [-88.0, 30.2]]},
    "properties": {"summary": {"distance": 24140.1, "duration": 1500}}
  }]
}`

func TestORSPath_SendsLngLatAndParsesGeoJSON(t *testing.T) {
	var captured orsDirectionsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/driving-car/geojson", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write([]byte(directionsBody))
	}))
	defer server.Close()

	client := NewORSClient(ORSConfig{BaseURL: server.URL, APIKey: "key"})
	result, err := client.Path(context.Background(), testPoints)
	require.NoError(t, err)

	require.Len(t, captured.Coordinates, 3)
	assert.Equal(t, [2]float64{-88.0, 30.0}, captured.Coordinates[0])
	assert.Equal(t, [2]float64{-88.0, 30.2}, captured.Coordinates[2])

	require.Len(t, result.Geometry, 4)
	assert.Equal(t, models.GeoPoint{Lat: 30.0, Lng: -88.0}, result.Geometry[0])
	assert.Equal(t, models.GeoPoint{Lat: 30.05, Lng: -88.01}, result.Geometry[1])

	require.NotNil(t, result.Stats.DistanceMiles)
	assert.InDelta(t, 15.0, *result.Stats.DistanceMiles, 1e-3)
	require.NotNil(t, result.Stats.DurationMinutes)
	assert.InDelta(t, 25.0, *result.Stats.DurationMinutes, 1e-9)
}

func TestORSPath_MissingSummaryLeavesStatsUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[-88,30],[-88,30.1]]},"properties":{}}]}`))
	}))
	defer server.Close()

	client := NewORSClient(ORSConfig{BaseURL: server.URL, APIKey: "key"})
	result, err := client.Path(context.Background(), testPoints[:2])
	require.NoError(t, err)

	assert.Len(t, result.Geometry, 2)
	assert.Nil(t, result.Stats.DistanceMiles)
	assert.Nil(t, result.Stats.DurationMinutes)
}

func TestORSPath_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusBadRequest, `{"error":{"code":2010,"message":"Could not find routable point"}}`},
		{"not geojson", http.StatusOK, `<html>oops</html>`},
		{"no features", http.StatusOK, `{"type":"FeatureCollection","features":[]}`},
		{"wrong geometry", http.StatusOK, `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[-88,30]},"properties":{}}]}`},
		{"single point line", http.StatusOK, `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[-88,30]]},"properties":{}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewORSClient(ORSConfig{BaseURL: server.URL, APIKey: "key"})
			result, err := client.Path(context.Background(), testPoints)

			assert.Nil(t, result)
			var unavailable *ErrPathUnavailable
			require.True(t, errors.As(err, &unavailable), "got %v", err)
			assert.Equal(t, providerORS, unavailable.Provider)
		})
	}
}

func TestORSPath_MissingKeyMakesNoRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewORSClient(ORSConfig{BaseURL: server.URL})
	_, err := client.Path(context.Background(), testPoints)

	require.ErrorIs(t, err, models.ErrMissingCredential)
	assert.False(t, called)
}
