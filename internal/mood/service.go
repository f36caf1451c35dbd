package mood

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/justestif/neurosense/internal/forest"
	"github.com/justestif/neurosense/internal/observability"
)

// DefaultCacheSize is the number of fitted models kept per service.
const DefaultCacheSize = 4

// Service trains and queries mood models for a single observation source.
// Fitted models are cached by the fingerprint of the data they were fitted
// on, so an unchanged source is never refitted and a changed source always is.
type Service struct {
	source     Source
	forestOpts []forest.Option
	cacheSize  int
	cache      *lru.Cache[string, *Model]
	logger     zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCacheSize sets how many fitted models to keep. Zero disables caching,
// which refits on every Train call.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.cacheSize = n
		}
	}
}

// WithForestOptions overrides the regressor settings used by Train.
func WithForestOptions(opts ...forest.Option) Option {
	return func(s *Service) {
		s.forestOpts = append(s.forestOpts, opts...)
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger.With().Str("component", "mood").Logger()
		}
	}
}

// NewService creates a Service reading from source.
func NewService(source Source, opts ...Option) (*Service, error) {
	s := &Service{
		source:    source,
		cacheSize: DefaultCacheSize,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cacheSize > 0 {
		cache, err := lru.New[string, *Model](s.cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

// Source returns the observation source the service trains on.
func (s *Service) Source() Source {
	return s.source
}

// Train loads the source and returns a model fitted on its current contents.
func (s *Service) Train(ctx context.Context) (*Model, error) {
	observations, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	key := Fingerprint(observations)
	if s.cache != nil {
		if m, ok := s.cache.Get(key); ok {
			observability.ModelCacheHits.Inc()
			return m, nil
		}
	}

	start := time.Now()
	m, err := Fit(observations, s.forestOpts...)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	observability.ModelFits.Inc()
	observability.ModelFitDuration.Observe(elapsed.Seconds())
	s.logger.Info().
		Str("source", describe(s.source)).
		Int("samples", m.Samples()).
		Str("fingerprint", key[:12]).
		Dur("elapsed", elapsed).
		Msg("fitted mood model")

	if s.cache != nil {
		s.cache.Add(key, m)
	}
	return m, nil
}

// PredictNextMood scores one day of lifestyle features against model.
func (s *Service) PredictNextMood(model *Model, sleepHours float64, steps int, meditated, journaled bool) (float64, error) {
	score, err := Predict(model, FeatureVector{
		SleepHours: sleepHours,
		Steps:      steps,
		Meditated:  meditated,
		Journaled:  journaled,
	})
	observability.Predictions.WithLabelValues(predictionStatus(err)).Inc()
	return score, err
}

// Forecast trains (or reuses) a model and scores v against it.
func (s *Service) Forecast(ctx context.Context, v FeatureVector) (float64, error) {
	model, err := s.Train(ctx)
	if err != nil {
		observability.Predictions.WithLabelValues(predictionStatus(err)).Inc()
		return 0, err
	}
	return s.PredictNextMood(model, v.SleepHours, v.Steps, v.Meditated, v.Journaled)
}

func predictionStatus(err error) string {
	var de *DataError
	var me *ModelError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &de):
		return "data_error"
	case errors.As(err, &me):
		return "model_error"
	default:
		return "error"
	}
}
