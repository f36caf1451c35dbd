// Command mood-predict trains a mood model on an observation CSV and
// prints the predicted mood for one day of lifestyle inputs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/justestif/neurosense/internal/forest"
	"github.com/justestif/neurosense/internal/insights"
	"github.com/justestif/neurosense/internal/mood"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run() error {
	data := flag.String("data", "data.csv", "Observation CSV with sleep_hours, steps, meditated, journaled and mood columns")
	sleep := flag.Float64("sleep", 7, "Hours of sleep")
	steps := flag.Int("steps", 5000, "Steps walked")
	meditated := flag.Bool("meditated", false, "Meditated today")
	journaled := flag.Bool("journaled", false, "Journaled today")
	trees := flag.Int("trees", 100, "Number of trees in the forest")
	seed := flag.Uint64("seed", 42, "Random seed")
	profiles := flag.Bool("profiles", false, "Also print lifestyle profiles found in the data")
	flag.Parse()

	source := mood.NewCSVSource(*data)
	svc, err := mood.NewService(source,
		mood.WithCacheSize(0),
		mood.WithForestOptions(forest.WithTrees(*trees), forest.WithSeed(*seed)),
	)
	if err != nil {
		return err
	}

	ctx := context.Background()
	model, err := svc.Train(ctx)
	if err != nil {
		return err
	}

	score, err := svc.PredictNextMood(model, *sleep, *steps, *meditated, *journaled)
	if err != nil {
		return err
	}

	fmt.Printf("Predicted mood: %.2f (trained on %d days)\n", score, model.Samples())

	if *profiles {
		result, err := insights.New(source, insights.DefaultProfileConfig(), nil).Profiles(ctx)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(result.Summary())
	}
	return nil
}

// exitCode separates bad input data from other failures.
func exitCode(err error) int {
	var de *mood.DataError
	if errors.As(err, &de) {
		return 2
	}
	return 1
}
