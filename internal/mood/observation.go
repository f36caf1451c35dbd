// Package mood implements the next-day mood predictor: it frames historical
// lifestyle observations, fits a seeded random forest and scores single
// feature vectors against it.
package mood

import (
	"fmt"
	"math"
)

// Column names of the training schema. Fit and predict share this order.
const (
	ColSleepHours = "sleep_hours"
	ColSteps      = "steps"
	ColMeditated  = "meditated"
	ColJournaled  = "journaled"
	ColMood       = "mood"
)

// FeatureNames is the ordered feature schema used for fitting and prediction.
var FeatureNames = []string{ColSleepHours, ColSteps, ColMeditated, ColJournaled}

// Observation is one labeled day of history.
type Observation struct {
	SleepHours float64
	Steps      int
	Meditated  bool
	Journaled  bool
	Mood       float64
}

// Features returns the observation without its label.
func (o Observation) Features() FeatureVector {
	return FeatureVector{
		SleepHours: o.SleepHours,
		Steps:      o.Steps,
		Meditated:  o.Meditated,
		Journaled:  o.Journaled,
	}
}

// check reports the first non-finite value of o.
func (o Observation) check() error {
	switch {
	case !finite(o.SleepHours):
		return fmt.Errorf("%w: %s=%v", ErrMalformedValue, ColSleepHours, o.SleepHours)
	case !finite(o.Mood):
		return fmt.Errorf("%w: %s=%v", ErrMalformedValue, ColMood, o.Mood)
	}
	return nil
}

// FeatureVector is one unlabeled day submitted for prediction.
type FeatureVector struct {
	SleepHours float64
	Steps      int
	Meditated  bool
	Journaled  bool
}

// Record returns the vector keyed by feature name.
func (v FeatureVector) Record() Record {
	return Record{
		ColSleepHours: v.SleepHours,
		ColSteps:      float64(v.Steps),
		ColMeditated:  boolValue(v.Meditated),
		ColJournaled:  boolValue(v.Journaled),
	}
}

// Record maps feature names to values. Prediction reads it by name, so the
// order in which callers build it is irrelevant.
type Record map[string]float64

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
