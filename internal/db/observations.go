package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ObservationRepository reads historical observations. It never writes.
type ObservationRepository struct {
	pool *pgxpool.Pool
}

// List returns every observation ordered by ID.
func (r *ObservationRepository) List(ctx context.Context) ([]Observation, error) {
	query := `
		SELECT id, recorded_on, sleep_hours, steps, meditated, journaled, mood
		FROM observations
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var observations []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(
			&o.ID,
			&o.RecordedOn,
			&o.SleepHours,
			&o.Steps,
			&o.Meditated,
			&o.Journaled,
			&o.Mood,
		); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		observations = append(observations, o)
	}
	return observations, rows.Err()
}

// Count returns the number of stored observations.
func (r *ObservationRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM observations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting observations: %w", err)
	}
	return n, nil
}
