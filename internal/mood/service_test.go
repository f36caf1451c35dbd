package mood

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justestif/neurosense/internal/db"
	"github.com/justestif/neurosense/internal/forest"
)

// mutableSource serves whatever observations it currently holds.
type mutableSource struct {
	observations []Observation
	err          error
	loads        atomic.Int32
}

func (m *mutableSource) Load(_ context.Context) ([]Observation, error) {
	m.loads.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return append([]Observation(nil), m.observations...), nil
}

func TestService_TrainCachesByData(t *testing.T) {
	src := &mutableSource{observations: scenario}
	svc, err := NewService(src, WithForestOptions(forest.WithTrees(10)))
	require.NoError(t, err)

	first, err := svc.Train(context.Background())
	require.NoError(t, err)
	second, err := svc.Train(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)

	src.observations = append(src.observations, Observation{SleepHours: 9, Steps: 8000, Meditated: true, Journaled: true, Mood: 9})
	third, err := svc.Train(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 4, third.Samples())
	assert.Equal(t, int32(3), src.loads.Load())
}

func TestService_UncachedMatchesCached(t *testing.T) {
	v := FeatureVector{SleepHours: 7, Steps: 4000, Meditated: true, Journaled: true}

	cached, err := NewService(StaticSource(scenario))
	require.NoError(t, err)
	uncached, err := NewService(StaticSource(scenario), WithCacheSize(0))
	require.NoError(t, err)

	a, err := cached.Forecast(context.Background(), v)
	require.NoError(t, err)
	b, err := uncached.Forecast(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	m1, err := uncached.Train(context.Background())
	require.NoError(t, err)
	m2, err := uncached.Train(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, m1, m2)
}

func TestService_PredictNextMood(t *testing.T) {
	svc, err := NewService(StaticSource(scenario))
	require.NoError(t, err)

	model, err := svc.Train(context.Background())
	require.NoError(t, err)

	got, err := svc.PredictNextMood(model, 7, 4000, true, true)
	require.NoError(t, err)

	want, err := Predict(model, FeatureVector{SleepHours: 7, Steps: 4000, Meditated: true, Journaled: true})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = svc.PredictNextMood(nil, 7, 4000, true, true)
	var me *ModelError
	assert.ErrorAs(t, err, &me)
}

func TestService_ForecastSurfacesDataError(t *testing.T) {
	src := &mutableSource{err: &DataError{Op: "load", Err: ErrMissingColumn}}
	svc, err := NewService(src)
	require.NoError(t, err)

	_, err = svc.Forecast(context.Background(), FeatureVector{})
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestService_ForecastRejectsNonFiniteData(t *testing.T) {
	rows := append([]Observation(nil), scenario...)
	rows = append(rows, Observation{SleepHours: math.NaN(), Steps: 1000, Mood: 4})

	svc, err := NewService(StaticSource(rows))
	require.NoError(t, err)

	_, err = svc.Forecast(context.Background(), FeatureVector{SleepHours: 7, Steps: 4000})
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, ErrMalformedValue)
}

type fakeLister struct {
	rows []db.Observation
	err  error
}

func (f fakeLister) List(_ context.Context) ([]db.Observation, error) {
	return f.rows, f.err
}

func TestDBSource_Load(t *testing.T) {
	src := NewDBSource(fakeLister{rows: []db.Observation{
		{ID: 1, SleepHours: 8, Steps: 3000, Meditated: true, Journaled: true, Mood: 7},
	}})

	obs, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Observation{scenario[0]}, obs)
}

func TestDBSource_Errors(t *testing.T) {
	errQuery := errors.New("relation \"observations\" does not exist")

	_, err := NewDBSource(fakeLister{err: errQuery}).Load(context.Background())
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, errQuery)

	_, err = NewDBSource(fakeLister{}).Load(context.Background())
	assert.ErrorIs(t, err, ErrNoObservations)

	_, err = NewDBSource(fakeLister{rows: []db.Observation{
		{ID: 1, SleepHours: 8, Steps: 3000, Mood: 7},
		{ID: 2, SleepHours: 6, Steps: 2000, Mood: math.Inf(1)},
	}}).Load(context.Background())
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, ErrMalformedValue)
}
