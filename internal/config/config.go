// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Playlist providers.
const (
	ProviderYouTube = "youtube"
	ProviderSpotify = "spotify"
)

// ErrUnknownProvider is returned for an unsupported PLAYLIST_PROVIDER.
var ErrUnknownProvider = errors.New("unknown playlist provider")

// Config holds every setting the server reads at startup.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	Addr     string `env:"ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Observation source. DATABASE_URL wins when set.
	ObservationsPath string `env:"OBSERVATIONS_PATH" envDefault:"data.csv"`
	DatabaseURL      string `env:"DATABASE_URL"`

	// Predictor
	ModelCacheSize int    `env:"MODEL_CACHE_SIZE" envDefault:"4"`
	ForestTrees    int    `env:"FOREST_TREES" envDefault:"100"`
	ForestSeed     uint64 `env:"FOREST_SEED" envDefault:"42"`

	// Insights
	InsightClusters int `env:"INSIGHT_CLUSTERS" envDefault:"3"`

	// Collaborators
	CohereAPIKey     string        `env:"COHERE_API_KEY"`
	CohereModel      string        `env:"COHERE_MODEL"`
	YouTubeAPIKey    string        `env:"YOUTUBE_API_KEY"`
	PlaylistProvider string        `env:"PLAYLIST_PROVIDER" envDefault:"youtube"`
	SpotifyID        string        `env:"SPOTIFY_ID"`
	SpotifySecret    string        `env:"SPOTIFY_SECRET"`
	ExternalTimeout  time.Duration `env:"EXTERNAL_TIMEOUT" envDefault:"15s"`

	// Inbound POST requests allowed per client IP per minute.
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.PlaylistProvider {
	case ProviderYouTube, ProviderSpotify:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.PlaylistProvider)
	}
	if c.ForestTrees < 1 {
		return fmt.Errorf("FOREST_TREES must be positive, got %d", c.ForestTrees)
	}
	if c.ModelCacheSize < 0 {
		return fmt.Errorf("MODEL_CACHE_SIZE must not be negative, got %d", c.ModelCacheSize)
	}
	if c.InsightClusters < 1 {
		return fmt.Errorf("INSIGHT_CLUSTERS must be positive, got %d", c.InsightClusters)
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	return nil
}

// IsLocal reports whether the app runs in the local development environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}
