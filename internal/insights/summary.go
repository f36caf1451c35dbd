package insights

import (
	"fmt"
	"strings"
)

// FormatSummary returns a human-readable summary of detected profiles.
// Outliers are summarized by count only.
func FormatSummary(profiles []Profile, outliers int) string {
	var sb strings.Builder

	total := outliers
	for _, p := range profiles {
		total += len(p.Observations)
	}

	if len(profiles) == 0 {
		sb.WriteString(fmt.Sprintf("No profiles found from %d days", total))
		if outliers > 0 {
			sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", outliers))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	word := "profile"
	if len(profiles) > 1 {
		word = "profiles"
	}

	sb.WriteString(fmt.Sprintf("Found %d %s from %d days", len(profiles), word, total))
	if outliers > 0 {
		sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", outliers))
	}
	sb.WriteString("\n")

	for i, p := range profiles {
		sb.WriteString("\n")
		sb.WriteString(formatProfile(i+1, p))
	}

	return sb.String()
}

// formatProfile formats a single profile with its averages.
func formatProfile(num int, p Profile) string {
	dayWord := "day"
	if len(p.Observations) > 1 {
		dayWord = "days"
	}

	return fmt.Sprintf("Profile %d: %s (%d %s)\n  mood %.1f, sleep %.1fh, %.0f steps, meditated %.0f%%, journaled %.0f%%\n",
		num, p.Name, len(p.Observations), dayWord,
		p.AverageMood, p.AverageSleep, p.AverageSteps,
		p.MeditationRate*100, p.JournalingRate*100)
}
