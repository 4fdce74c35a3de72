package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the happyapp service.
// Environment variables are parsed with the HAPPYAPP_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Namespace prefixes every day key in the blob store.
	Namespace string `envconfig:"NAMESPACE" default:"happyapp"`

	// Blob store: memory | sqlite | postgres
	BlobDriver  string `envconfig:"BLOB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/happyapp.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Row store: sqlite | postgrest
	RowStoreDriver     string `envconfig:"ROWSTORE_DRIVER" default:"sqlite"`
	RowStoreSQLitePath string `envconfig:"ROWSTORE_SQLITE_PATH" default:"data/health.db"`
	SupabaseURL        string `envconfig:"SUPABASE_URL" default:""`
	SupabaseAnonKey    string `envconfig:"SUPABASE_ANON_KEY" default:""`
	RowStoreMaxRetries int    `envconfig:"ROWSTORE_MAX_RETRIES" default:"2"`

	// Fact of the day
	AlmanacURL            string `envconfig:"ALMANAC_URL" default:"https://api.wikimedia.org/feed/v1/wikipedia"`
	AlmanacLang           string `envconfig:"ALMANAC_LANG" default:"it"`
	AlmanacTimeoutSeconds int    `envconfig:"ALMANAC_TIMEOUT_SECONDS" default:"5"`

	// Google Fit
	FitnessURL         string `envconfig:"FITNESS_URL" default:"https://www.googleapis.com/fitness/v1"`
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID" default:""`
	FitnessRedirectURL string `envconfig:"FITNESS_REDIRECT_URL" default:"http://localhost:8080/"`

	// TimeZone drives day boundaries for fitness queries and metric dates.
	TimeZone string `envconfig:"TIMEZONE" default:"Local"`

	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthPingTimeoutSeconds  int `envconfig:"HEALTH_PING_TIMEOUT_SECONDS" default:"2"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates driver selections and driver-specific settings.
func (c *Config) ResolveDefaults() error {
	switch c.BlobDriver {
	case "memory", "sqlite":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("HAPPYAPP_POSTGRES_DSN is required when BLOB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported BLOB_DRIVER: %s", c.BlobDriver)
	}

	switch c.RowStoreDriver {
	case "sqlite":
	case "postgrest":
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("HAPPYAPP_SUPABASE_URL and HAPPYAPP_SUPABASE_ANON_KEY are required when ROWSTORE_DRIVER=postgrest")
		}
	default:
		return fmt.Errorf("unsupported ROWSTORE_DRIVER: %s", c.RowStoreDriver)
	}

	if c.Namespace == "" {
		return fmt.Errorf("HAPPYAPP_NAMESPACE must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.TimeZone, err)
	}
	return nil
}

// New creates a new Config by parsing environment variables
// prefixed with HAPPYAPP_, e.g. HAPPYAPP_HTTP_PORT, HAPPYAPP_BLOB_DRIVER.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("HAPPYAPP", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("namespace", cfg.Namespace).
		Str("blob_driver", cfg.BlobDriver).
		Str("rowstore_driver", cfg.RowStoreDriver).
		Str("postgres_dsn_present", fmt.Sprintf("%t", cfg.PostgresDSN != "")).
		Str("almanac_url", cfg.AlmanacURL).
		Str("timezone", cfg.TimeZone).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8080,
		Namespace:                 "happyapp",
		BlobDriver:                "memory",
		RowStoreDriver:            "sqlite",
		RowStoreSQLitePath:        ":memory:",
		RowStoreMaxRetries:        0,
		AlmanacURL:                "http://localhost:0",
		AlmanacLang:               "it",
		AlmanacTimeoutSeconds:     1,
		FitnessURL:                "http://localhost:0",
		FitnessRedirectURL:        "http://localhost:8080/",
		TimeZone:                  "UTC",
		HealthIntervalSeconds:     1,
		HealthPingTimeoutSeconds:  1,
		BootstrapTimeoutSeconds:   1,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Location resolves TimeZone; "Local" and "" map to the process location.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}
