// Package config loads and validates the commute configuration
// file. Config load failure is the only fatal error in the process;
// everything after startup degrades per route instead.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/subwaysign/commute/model"
)

const (
	DefaultStalenessSeconds = 300
	DefaultFetchTimeoutSec  = 10
)

// Config is the root configuration document.
type Config struct {
	PollIntervalSeconds int    `yaml:"poll_interval_seconds" validate:"gt=0"`
	FeedBaseURL         string `yaml:"feed_base_url" validate:"omitempty,url"`

	StalenessThresholdSeconds int `yaml:"staleness_threshold_seconds" validate:"gte=0"`
	FetchTimeoutSeconds       int `yaml:"fetch_timeout_seconds" validate:"gte=0"`

	// FeedCacheTTLSeconds serves fetched payloads from an in-memory
	// cache for this long. Useful when poll_interval_seconds is
	// shorter than the upstream publish cadence. Zero disables
	// caching.
	FeedCacheTTLSeconds int `yaml:"feed_cache_ttl_seconds" validate:"gte=0"`

	// TransitEstimate selects the in-transit duration strategy:
	// feed (derive from feed-reported times, fall back to each
	// route's transit_min), fixed (transit_min only), or table (CSV
	// stop-pair table at travel_table).
	TransitEstimate string `yaml:"transit_estimate" validate:"omitempty,oneof=feed fixed table"`
	TravelTable     string `yaml:"travel_table"`

	Routes []model.RouteConfig `yaml:"routes" validate:"required,min=1,dive"`

	// MaxArrivalMinutes hides alternatives slower than this from
	// the console board. Display tuning only; ranking ignores it.
	MaxArrivalMinutes int `yaml:"max_arrival_minutes" validate:"gte=0"`

	NATSURL     string `yaml:"nats_url"`
	MetricsAddr string `yaml:"metrics_addr"`

	// FeedAPIKey is sent as the x-api-key header. Usually supplied
	// via the FEED_API_KEY environment variable rather than the
	// file.
	FeedAPIKey string `yaml:"feed_api_key"`

	// Display holds renderer tuning (LED geometry, fonts, ...)
	// passed through opaquely to the display collaborator.
	Display map[string]interface{} `yaml:"display"`
}

// Load reads, validates and defaults the config at path. A .env file
// in the working directory is folded into the environment first;
// FEED_API_KEY and FEED_BASE_URL env vars override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	return Parse(data)
}

// Parse loads a config from raw YAML.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}

	if v := os.Getenv("FEED_API_KEY"); v != "" {
		cfg.FeedAPIKey = v
	}
	if v := os.Getenv("FEED_BASE_URL"); v != "" {
		cfg.FeedBaseURL = v
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}

	if cfg.StalenessThresholdSeconds == 0 {
		cfg.StalenessThresholdSeconds = DefaultStalenessSeconds
	}
	if cfg.FetchTimeoutSeconds == 0 {
		cfg.FetchTimeoutSeconds = DefaultFetchTimeoutSec
	}
	if cfg.TransitEstimate == "" {
		cfg.TransitEstimate = "feed"
	}
	if cfg.TransitEstimate == "table" && cfg.TravelTable == "" {
		return nil, errors.New("transit_estimate table requires travel_table")
	}

	return cfg, nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) StalenessThreshold() time.Duration {
	return time.Duration(c.StalenessThresholdSeconds) * time.Second
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *Config) FeedCacheTTL() time.Duration {
	return time.Duration(c.FeedCacheTTLSeconds) * time.Second
}

// FeedHeaders returns HTTP headers for feed requests.
func (c *Config) FeedHeaders() map[string]string {
	headers := map[string]string{}
	if c.FeedAPIKey != "" {
		headers["x-api-key"] = c.FeedAPIKey
	}
	return headers
}
