package insights

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/justestif/neurosense/internal/mood"
)

// Service detects lifestyle profiles from an observation source.
type Service struct {
	source mood.Source
	cfg    ProfileConfig
	logger *zerolog.Logger
}

// New creates a new insights service.
func New(source mood.Source, cfg ProfileConfig, logger *zerolog.Logger) *Service {
	return &Service{source: source, cfg: cfg, logger: logger}
}

// Result contains the outcome of profile detection.
type Result struct {
	Profiles     []Profile
	OutlierCount int // Number of days that didn't fit any profile
	TotalDays    int // Total days analyzed
}

// Summary renders the result as plain text.
func (r *Result) Summary() string {
	return FormatSummary(r.Profiles, r.OutlierCount)
}

// Profiles loads the source and clusters its observations.
func (s *Service) Profiles(ctx context.Context) (*Result, error) {
	observations, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading observations: %w", err)
	}

	profiles, outliers := DetectProfiles(observations, s.cfg, s.logger)
	return &Result{
		Profiles:     profiles,
		OutlierCount: len(outliers),
		TotalDays:    len(observations),
	}, nil
}
