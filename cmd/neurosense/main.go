// Command neurosense runs the NeuroSense mood journal web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/justestif/neurosense/internal/cohere"
	"github.com/justestif/neurosense/internal/config"
	"github.com/justestif/neurosense/internal/db"
	"github.com/justestif/neurosense/internal/forest"
	"github.com/justestif/neurosense/internal/insights"
	"github.com/justestif/neurosense/internal/journal"
	"github.com/justestif/neurosense/internal/mood"
	"github.com/justestif/neurosense/internal/playlist"
	"github.com/justestif/neurosense/internal/web"
	webfs "github.com/justestif/neurosense/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.IsLocal())
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	} else {
		logger.Warn().Str("level", cfg.LogLevel).Msg("unknown LOG_LEVEL, using info")
		logger = logger.Level(zerolog.InfoLevel)
	}

	ctx := context.Background()

	source, closeSource, err := newSource(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	defer closeSource()

	predictor, err := mood.NewService(source,
		mood.WithCacheSize(cfg.ModelCacheSize),
		mood.WithForestOptions(
			forest.WithTrees(cfg.ForestTrees),
			forest.WithSeed(cfg.ForestSeed),
		),
		mood.WithLogger(&logger),
	)
	if err != nil {
		return fmt.Errorf("creating mood service: %w", err)
	}

	// Fit once up front so the first forecast is fast. A failure here is
	// reported again on each request, so it does not stop the server.
	if _, err := predictor.Train(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial model fit failed")
	}

	deps := web.Dependencies{
		Forecaster: predictor,
		Profiles: insights.New(source, insights.ProfileConfig{
			NumClusters:    cfg.InsightClusters,
			MinClusterSize: insights.DefaultProfileConfig().MinClusterSize,
		}, &logger),
		Picker: journal.NewPicker(nil),
	}

	if client, err := cohere.NewClient(cohere.Config{
		APIKey:  cfg.CohereAPIKey,
		Model:   cfg.CohereModel,
		Timeout: cfg.ExternalTimeout,
	}); err != nil {
		logger.Warn().Err(err).Msg("AI responses disabled")
	} else {
		deps.Empathizer = client
	}

	if finder, err := newFinder(ctx, cfg); err != nil {
		logger.Warn().Err(err).Str("provider", cfg.PlaylistProvider).Msg("playlist search disabled")
	} else {
		deps.Playlists = playlist.NewCachedFinder(playlist.WithTimeout(finder, cfg.ExternalTimeout), playlist.CacheTTL)
	}

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:               cfg.Addr,
		TemplatesFS:        templates,
		StaticFS:           static,
		Logger:             &logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Dependencies:       deps,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

func newLogger(console bool) zerolog.Logger {
	if console {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// newSource picks PostgreSQL when DATABASE_URL is set and the CSV file
// otherwise. The returned func releases the source.
func newSource(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (mood.Source, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info().Str("path", cfg.ObservationsPath).Msg("reading observations from CSV")
		return mood.NewCSVSource(cfg.ObservationsPath), func() {}, nil
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	repo := database.Observations()
	if n, err := repo.Count(ctx); err != nil {
		logger.Warn().Err(err).Msg("counting observations")
	} else {
		logger.Info().Int64("observations", n).Msg("reading observations from PostgreSQL")
	}

	return mood.NewDBSource(repo), database.Close, nil
}

// newFinder builds the configured playlist provider.
func newFinder(ctx context.Context, cfg *config.Config) (playlist.Finder, error) {
	switch cfg.PlaylistProvider {
	case config.ProviderSpotify:
		return playlist.NewSpotify(ctx, cfg.SpotifyID, cfg.SpotifySecret)
	default:
		return playlist.NewYouTube(ctx, cfg.YouTubeAPIKey)
	}
}
