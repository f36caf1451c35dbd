package db

import "time"

// Observation is one row of the observations table.
type Observation struct {
	ID         int64
	RecordedOn *time.Time // nullable
	SleepHours float64
	Steps      int
	Meditated  bool
	Journaled  bool
	Mood       float64
}
