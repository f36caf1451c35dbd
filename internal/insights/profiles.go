// Package insights groups historical observations into lifestyle profiles
// using k-means clustering.
package insights

import (
	"cmp"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/rs/zerolog"

	"github.com/justestif/neurosense/internal/mood"
)

// ProfileConfig holds clustering parameters.
type ProfileConfig struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Minimum observations per profile (smaller clusters become outliers)
}

// DefaultProfileConfig returns the recommended default configuration.
func DefaultProfileConfig() ProfileConfig {
	return ProfileConfig{
		NumClusters:    3,
		MinClusterSize: 2,
	}
}

// Profile is a cluster of days that share similar habits.
type Profile struct {
	Name           string             // Generated from the averages, e.g. "Well-Rested & Active"
	Observations   []mood.Observation // Days in this profile
	Centroid       map[string]float64 // Normalized cluster center keyed by feature name
	AverageMood    float64
	AverageSleep   float64
	AverageSteps   float64
	MeditationRate float64 // Share of days with meditation, 0-1
	JournalingRate float64 // Share of days with journaling, 0-1
}

// dayObservation wraps an Observation to implement clusters.Observation.
type dayObservation struct {
	obs    mood.Observation
	coords clusters.Coordinates
}

func (o dayObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o dayObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// DetectProfiles groups observations by habit similarity.
// Returns the profiles sorted by average mood (best first) and the
// observations that did not fit any profile.
func DetectProfiles(observations []mood.Observation, cfg ProfileConfig, logger *zerolog.Logger) ([]Profile, []mood.Observation) {
	if len(observations) == 0 {
		return nil, nil
	}

	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultProfileConfig().NumClusters
	}

	// Too little data to cluster: everything is an outlier
	if len(observations) < cfg.NumClusters {
		return nil, slices.Clone(observations)
	}

	maxSteps := 0
	for _, o := range observations {
		maxSteps = max(maxSteps, o.Steps)
	}

	var obs clusters.Observations
	for _, o := range observations {
		obs = append(obs, dayObservation{
			obs:    o,
			coords: normalize(o, maxSteps),
		})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, cfg.NumClusters)
	if err != nil {
		if logger != nil {
			logger.Warn().Err(err).Msg("k-means clustering failed")
		}
		return nil, slices.Clone(observations)
	}

	var profiles []Profile
	var outliers []mood.Observation

	for _, cluster := range result {
		var days []mood.Observation
		for _, o := range cluster.Observations {
			if d, ok := o.(dayObservation); ok {
				days = append(days, d.obs)
			}
		}

		if len(days) == 0 {
			continue
		}
		if len(days) < cfg.MinClusterSize {
			outliers = append(outliers, days...)
			continue
		}

		centroid := make(map[string]float64, len(mood.FeatureNames))
		for i, name := range mood.FeatureNames {
			centroid[name] = cluster.Center[i]
		}

		p := summarize(days)
		p.Centroid = centroid
		p.Name = generateProfileName(p)
		profiles = append(profiles, p)
	}

	slices.SortStableFunc(profiles, func(a, b Profile) int {
		return cmp.Compare(b.AverageMood, a.AverageMood) // Descending
	})

	return profiles, outliers
}

// normalize maps an observation onto the unit hypercube so that steps do not
// dominate the distance metric.
func normalize(o mood.Observation, maxSteps int) clusters.Coordinates {
	steps := 0.0
	if maxSteps > 0 {
		steps = float64(o.Steps) / float64(maxSteps)
	}
	return clusters.Coordinates{
		o.SleepHours / 24,
		steps,
		flag(o.Meditated),
		flag(o.Journaled),
	}
}

// summarize computes the profile averages for a set of days.
func summarize(days []mood.Observation) Profile {
	var p Profile
	n := float64(len(days))
	for _, d := range days {
		p.AverageMood += d.Mood
		p.AverageSleep += d.SleepHours
		p.AverageSteps += float64(d.Steps)
		p.MeditationRate += flag(d.Meditated)
		p.JournalingRate += flag(d.Journaled)
	}
	p.AverageMood /= n
	p.AverageSleep /= n
	p.AverageSteps /= n
	p.MeditationRate /= n
	p.JournalingRate /= n
	p.Observations = days
	return p
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
