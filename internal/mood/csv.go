package mood

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

var requiredColumns = []string{ColSleepHours, ColSteps, ColMeditated, ColJournaled, ColMood}

// ReadObservations parses CSV observations. Columns are located by header
// name in any order; unrelated columns are ignored.
func ReadObservations(r io.Reader) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, dataErr("read header", ErrNoObservations)
	}
	if err != nil {
		return nil, dataErr("read header", fmt.Errorf("%w: %v", ErrMalformedValue, err))
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := index[key]; dup && slices.Contains(requiredColumns, key) {
			return nil, dataErr("read header", fmt.Errorf("%w: duplicate column %s", ErrMalformedValue, key))
		}
		index[key] = i
	}

	cols := make(map[string]int, len(requiredColumns))
	for _, name := range requiredColumns {
		i, ok := index[name]
		if !ok {
			return nil, dataErr("read header", fmt.Errorf("%w: %s", ErrMissingColumn, name))
		}
		cols[name] = i
	}

	var observations []Observation
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dataErr("read row", fmt.Errorf("%w: line %d: %v", ErrMalformedValue, line, err))
		}

		obs, err := parseRow(row, cols)
		if err != nil {
			return nil, dataErr("read row", fmt.Errorf("line %d: %w", line, err))
		}
		observations = append(observations, obs)
	}

	if len(observations) == 0 {
		return nil, dataErr("read rows", ErrNoObservations)
	}
	return observations, nil
}

func parseRow(row []string, cols map[string]int) (Observation, error) {
	cell := func(name string) string {
		return strings.TrimSpace(row[cols[name]])
	}

	sleep, err := parseNumber(ColSleepHours, cell(ColSleepHours))
	if err != nil {
		return Observation{}, err
	}
	steps, err := parseCount(ColSteps, cell(ColSteps))
	if err != nil {
		return Observation{}, err
	}
	meditated, err := parseFlag(ColMeditated, cell(ColMeditated))
	if err != nil {
		return Observation{}, err
	}
	journaled, err := parseFlag(ColJournaled, cell(ColJournaled))
	if err != nil {
		return Observation{}, err
	}
	mood, err := parseNumber(ColMood, cell(ColMood))
	if err != nil {
		return Observation{}, err
	}

	return Observation{
		SleepHours: sleep,
		Steps:      steps,
		Meditated:  meditated,
		Journaled:  journaled,
		Mood:       mood,
	}, nil
}

func parseNumber(column, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedValue, column, s)
	}
	return v, nil
}

func parseCount(column, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedValue, column, s)
	}
	return v, nil
}

func parseFlag(column, s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "1.0", "true", "yes", "y":
		return true, nil
	case "0", "0.0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s=%q", ErrMalformedValue, column, s)
}
