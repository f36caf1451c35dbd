package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultRateLimit is the default number of POST requests per IP per minute.
	DefaultRateLimit = 30

	sessionPruneInterval = time.Hour
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr               string
	TemplatesFS        fs.FS
	StaticFS           fs.FS
	Logger             *zerolog.Logger
	RateLimitPerMinute int
	Dependencies       Dependencies
}

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	sessions  *SessionStore
	handlers  *Handlers
	logger    zerolog.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Dependencies.Forecaster == nil {
		return nil, errors.New("web: a Forecaster is required")
	}
	if cfg.Dependencies.Profiles == nil {
		return nil, errors.New("web: a ProfileSource is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RateLimitPerMinute == 0 {
		cfg.RateLimitPerMinute = DefaultRateLimit
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "web").Logger()
	}

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	sessions := NewSessionStore()
	handlers := NewHandlers(sessions, templates, cfg.Dependencies)

	s := &Server{
		router:    chi.NewRouter(),
		templates: templates,
		sessions:  sessions,
		handlers:  handlers,
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS, cfg.RateLimitPerMinute)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS, perMinute int) {
	h := s.handlers

	if staticFS != nil {
		fileServer := http.FileServer(http.FS(staticFS))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	s.router.Get("/healthz", h.Healthz)
	s.router.Handle("/metrics", promhttp.Handler())

	// Pages
	s.router.Get("/", h.withSession(h.Home))
	s.router.Get("/mood", h.withSession(h.Mood))
	s.router.Get("/music", h.withSession(h.Music))
	s.router.Get("/journal", h.withSession(h.Journal))
	s.router.Get("/predict", h.withSession(h.Predict))
	s.router.Get("/insights", h.withSession(h.Insights))

	// Exports
	s.router.Get("/data", h.withSession(h.Data))
	s.router.Get("/data/moods.csv", h.withSession(h.ExportMoods))
	s.router.Get("/data/journal.csv", h.withSession(h.ExportJournal))
	s.router.Get("/data/history.xlsx", h.withSession(h.ExportWorkbook))
	s.router.Get("/data/report.pdf", h.withSession(h.ExportReport))

	// Form submissions and the JSON API are rate limited per client.
	s.router.Group(func(r chi.Router) {
		r.Use(rateLimit(perMinute))

		r.Post("/name", h.withSession(h.SetName))
		r.Post("/mood", h.withSession(h.SubmitMood))
		r.Post("/music", h.withSession(h.FindMusic))
		r.Post("/journal", h.withSession(h.SubmitJournal))
		r.Post("/predict", h.withSession(h.SubmitPredict))
		r.Post("/data/import", h.withSession(h.Import))
		r.Post("/api/predict", h.APIPredict)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// pruneSessions drops expired sessions until ctx is done.
func (s *Server) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Prune(); n > 0 {
				s.logger.Debug().Int("removed", n).Msg("pruned expired sessions")
			}
		}
	}
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.pruneSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info().Msg("server stopped")
	return nil
}
