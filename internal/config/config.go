package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Path providers
const (
	PathProviderORS  = "ors"
	PathProviderOSRM = "osrm"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	ORS          ORSConfig          `mapstructure:"ors"`
	Optimization OptimizationConfig `mapstructure:"optimization"`
	Path         PathConfig         `mapstructure:"path"`
	OSRM         OSRMConfig         `mapstructure:"osrm"`
	Geometry     GeometryConfig     `mapstructure:"geometry"`
	Places       PlacesConfig       `mapstructure:"places"`
	Cache        CacheConfig        `mapstructure:"cache"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type ORSConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Profile string `mapstructure:"profile"`
}

type OptimizationConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type PathConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type OSRMConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type GeometryConfig struct {
	Precision float64 `mapstructure:"precision"`
}

type PlacesConfig struct {
	DBPath   string `mapstructure:"db_path"`
	SeedFile string `mapstructure:"seed_file"`
}

// CacheConfig enables the plan cache when ValkeyAddr is set
type CacheConfig struct {
	ValkeyAddr string        `mapstructure:"valkey_addr"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// Load reads configuration from an optional file and ROUTEPLANNER_*
// environment variables. An explicit path must exist; otherwise config.yaml
// is looked up in . and ./configs.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("ors.api_key", "")
	v.SetDefault("ors.base_url", "https://api.openrouteservice.org")
	v.SetDefault("ors.profile", "driving-car")
	v.SetDefault("optimization.timeout", "30s")
	v.SetDefault("path.provider", PathProviderORS)
	v.SetDefault("path.timeout", "30s")
	v.SetDefault("osrm.base_url", "https://router.project-osrm.org")
	v.SetDefault("geometry.precision", 1e5)
	v.SetDefault("places.db_path", "")
	v.SetDefault("places.seed_file", "")
	v.SetDefault("cache.valkey_addr", "")
	v.SetDefault("cache.ttl", "10m")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// ROUTEPLANNER_ORS_API_KEY → ors.api_key
	v.SetEnvPrefix("ROUTEPLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.ORS.APIKey == "" {
		errs = append(errs, "ors.api_key is required (set ROUTEPLANNER_ORS_API_KEY)")
	}
	if c.ORS.BaseURL == "" {
		errs = append(errs, "ors.base_url is required")
	}
	if c.ORS.Profile == "" {
		errs = append(errs, "ors.profile is required")
	}
	if c.Optimization.Timeout <= 0 {
		errs = append(errs, "optimization.timeout must be positive")
	}
	if c.Path.Timeout <= 0 {
		errs = append(errs, "path.timeout must be positive")
	}
	switch c.Path.Provider {
	case PathProviderORS:
	case PathProviderOSRM:
		if c.OSRM.BaseURL == "" {
			errs = append(errs, "osrm.base_url is required when path.provider is osrm")
		}
	default:
		errs = append(errs, fmt.Sprintf("path.provider must be %q or %q, got %q", PathProviderORS, PathProviderOSRM, c.Path.Provider))
	}
	if c.Geometry.Precision <= 0 {
		errs = append(errs, fmt.Sprintf("geometry.precision must be positive, got %g", c.Geometry.Precision))
	}
	if c.Cache.ValkeyAddr != "" && c.Cache.TTL <= 0 {
		errs = append(errs, "cache.ttl must be positive when the cache is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// CacheEnabled reports whether a Valkey address is configured
func (c *Config) CacheEnabled() bool {
	return c.Cache.ValkeyAddr != ""
}
