package mood

import (
	"context"
	"fmt"
	"os"

	"github.com/justestif/neurosense/internal/db"
)

// Source loads the full set of training observations.
type Source interface {
	Load(ctx context.Context) ([]Observation, error)
}

// CSVSource reads observations from a CSV file on every Load.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source backed by the CSV file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Path returns the backing file path.
func (s *CSVSource) Path() string {
	return s.path
}

// Load reads and parses the whole file.
func (s *CSVSource) Load(_ context.Context) ([]Observation, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, dataErr("open source", err)
	}
	defer f.Close()

	return ReadObservations(f)
}

// ObservationLister lists stored observations.
type ObservationLister interface {
	List(ctx context.Context) ([]db.Observation, error)
}

// DBSource reads observations from PostgreSQL.
type DBSource struct {
	repo ObservationLister
}

// NewDBSource creates a source backed by an observation repository.
func NewDBSource(repo ObservationLister) *DBSource {
	return &DBSource{repo: repo}
}

// Load lists every stored observation.
func (s *DBSource) Load(ctx context.Context) ([]Observation, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, dataErr("load database", err)
	}
	if len(rows) == 0 {
		return nil, dataErr("load database", ErrNoObservations)
	}

	observations := make([]Observation, len(rows))
	for i, r := range rows {
		o := Observation{
			SleepHours: r.SleepHours,
			Steps:      r.Steps,
			Meditated:  r.Meditated,
			Journaled:  r.Journaled,
			Mood:       r.Mood,
		}
		if err := o.check(); err != nil {
			return nil, dataErr("load database", fmt.Errorf("id %d: %w", r.ID, err))
		}
		observations[i] = o
	}
	return observations, nil
}

// StaticSource serves a fixed slice of observations.
type StaticSource []Observation

// Load returns a copy of the observations.
func (s StaticSource) Load(_ context.Context) ([]Observation, error) {
	if len(s) == 0 {
		return nil, dataErr("load static", ErrNoObservations)
	}
	return append([]Observation(nil), s...), nil
}

var (
	_ Source = (*CSVSource)(nil)
	_ Source = (*DBSource)(nil)
	_ Source = StaticSource(nil)
)

func describe(s Source) string {
	switch src := s.(type) {
	case *CSVSource:
		return "csv:" + src.path
	case *DBSource:
		return "postgres"
	default:
		return fmt.Sprintf("%T", s)
	}
}
