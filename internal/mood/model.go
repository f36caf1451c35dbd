package mood

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/justestif/neurosense/internal/forest"
)

// Model is a fitted mood regressor bound to the feature schema it was fitted on.
type Model struct {
	features    []string
	regressor   *forest.Regressor
	fingerprint string
	samples     int
}

// Features returns the ordered feature schema of the model.
func (m *Model) Features() []string {
	return slices.Clone(m.features)
}

// Fingerprint identifies the training data the model was fitted on.
func (m *Model) Fingerprint() string {
	return m.fingerprint
}

// Samples returns the number of observations used for fitting.
func (m *Model) Samples() int {
	return m.samples
}

// Fit trains a forest on observations using the default forest settings
// (100 trees, seed 42). Extra options override those settings.
func Fit(observations []Observation, opts ...forest.Option) (*Model, error) {
	if len(observations) == 0 {
		return nil, dataErr("fit", ErrNoObservations)
	}
	for i, o := range observations {
		if err := o.check(); err != nil {
			return nil, dataErr("fit", fmt.Errorf("row %d: %w", i+1, err))
		}
	}

	x, y := frame(observations)

	regressor := forest.New(opts...)
	if err := regressor.Fit(x, y); err != nil {
		return nil, dataErr("fit", err)
	}

	return &Model{
		features:    slices.Clone(FeatureNames),
		regressor:   regressor,
		fingerprint: Fingerprint(observations),
		samples:     len(observations),
	}, nil
}

// Predict scores a single feature vector, rounded to two decimals.
func Predict(m *Model, v FeatureVector) (float64, error) {
	return m.PredictRecord(v.Record())
}

// PredictRecord scores a name-keyed feature record, rounded to two decimals.
// Values are placed by name into the fitted schema order. Values are not
// bounds checked; out-of-range inputs are extrapolated by the forest.
func (m *Model) PredictRecord(rec Record) (float64, error) {
	if m == nil || !m.regressor.Fitted() {
		return 0, modelErr("predict", ErrNotTrained)
	}

	for name := range rec {
		if !slices.Contains(m.features, name) {
			return 0, modelErr("predict", fmt.Errorf("%w: %s", ErrUnknownFeature, name))
		}
	}

	row := make([]float64, len(m.features))
	for i, name := range m.features {
		v, ok := rec[name]
		if !ok {
			return 0, modelErr("predict", fmt.Errorf("%w: %s", ErrMissingFeature, name))
		}
		if !finite(v) {
			return 0, modelErr("predict", fmt.Errorf("%w: %s", ErrInvalidFeature, name))
		}
		row[i] = v
	}

	raw, err := m.regressor.PredictRow(row)
	if err != nil {
		if errors.Is(err, forest.ErrNotFitted) {
			return 0, modelErr("predict", ErrNotTrained)
		}
		return 0, modelErr("predict", err)
	}
	return Round2(raw), nil
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Fingerprint hashes the observation values; equal data yields equal hashes.
func Fingerprint(observations []Observation) string {
	h := sha256.New()
	var buf [8]byte
	write := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	for _, o := range observations {
		write(o.SleepHours)
		write(float64(o.Steps))
		write(boolValue(o.Meditated))
		write(boolValue(o.Journaled))
		write(o.Mood)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// frame builds the feature matrix and target vector in FeatureNames order.
func frame(observations []Observation) (*mat.Dense, *mat.VecDense) {
	n := len(observations)
	x := mat.NewDense(n, len(FeatureNames), nil)
	y := mat.NewVecDense(n, nil)
	for i, o := range observations {
		rec := o.Features().Record()
		for j, name := range FeatureNames {
			x.Set(i, j, rec[name])
		}
		y.SetVec(i, o.Mood)
	}
	return x, y
}
