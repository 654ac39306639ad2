package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithKeyFromEnv(t *testing.T) {
	t.Setenv("ROUTEPLANNER_ORS_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "secret", cfg.ORS.APIKey)
	assert.Equal(t, "https://api.openrouteservice.org", cfg.ORS.BaseURL)
	assert.Equal(t, "driving-car", cfg.ORS.Profile)
	assert.Equal(t, 30*time.Second, cfg.Optimization.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Path.Timeout)
	assert.Equal(t, PathProviderORS, cfg.Path.Provider)
	assert.Equal(t, 1e5, cfg.Geometry.Precision)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoad_MissingKeyFails(t *testing.T) {
	t.Setenv("ROUTEPLANNER_ORS_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ors.api_key")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ROUTEPLANNER_ORS_API_KEY", "k")
	t.Setenv("ROUTEPLANNER_PATH_PROVIDER", "osrm")
	t.Setenv("ROUTEPLANNER_PATH_TIMEOUT", "5s")
	t.Setenv("ROUTEPLANNER_GEOMETRY_PRECISION", "1000000")
	t.Setenv("ROUTEPLANNER_CACHE_VALKEY_ADDR", "localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, PathProviderOSRM, cfg.Path.Provider)
	assert.Equal(t, 5*time.Second, cfg.Path.Timeout)
	assert.Equal(t, 1e6, cfg.Geometry.Precision)
	assert.True(t, cfg.CacheEnabled())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
ors:
  api_key: from-file
  profile: cycling-regular
optimization:
  timeout: 12s
places:
  seed_file: /data/places.json
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "from-file", cfg.ORS.APIKey)
	assert.Equal(t, "cycling-regular", cfg.ORS.Profile)
	assert.Equal(t, 12*time.Second, cfg.Optimization.Timeout)
	assert.Equal(t, "/data/places.json", cfg.Places.SeedFile)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		Path:     PathConfig{Provider: "carrier-pigeon"},
		Geometry: GeometryConfig{Precision: 0},
		Cache:    CacheConfig{ValkeyAddr: "localhost:6379"},
	}

	err := cfg.Validate()
	require.Error(t, err)

	for _, want := range []string{
		"server.addr", "ors.api_key", "ors.base_url", "ors.profile",
		"optimization.timeout", "path.timeout", "path.provider",
		"geometry.precision", "cache.ttl",
	} {
		assert.Contains(t, err.Error(), want)
	}
}
