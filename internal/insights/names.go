package insights

// Thresholds used when naming profiles.
const (
	restedSleepHours = 7.0
	shortSleepHours  = 6.0
	activeSteps      = 7000.0
	sedentarySteps   = 3000.0
	habitRate        = 0.5
)

// generateProfileName creates a descriptive name from profile averages.
// Uses a sleep/activity grid with habit modifiers.
//
// Grid:
//   - sleep >= 7h  and steps >= 7000 = "Well-Rested & Active"
//   - sleep >= 7h  and steps <  7000 = "Well-Rested"
//   - sleep <  6h  and steps >= 7000 = "Running on Empty"
//   - sleep <  6h  and steps <  7000 = "Short on Sleep"
//   - otherwise steps >= 7000 = "Active", steps < 3000 = "Sedentary", else "Steady"
//
// Modifiers: "+ Mindful" when most days include meditation, "+ Reflective"
// when most days include journaling.
func generateProfileName(p Profile) string {
	active := p.AverageSteps >= activeSteps

	var base string
	switch {
	case p.AverageSleep >= restedSleepHours && active:
		base = "Well-Rested & Active"
	case p.AverageSleep >= restedSleepHours:
		base = "Well-Rested"
	case p.AverageSleep < shortSleepHours && active:
		base = "Running on Empty"
	case p.AverageSleep < shortSleepHours:
		base = "Short on Sleep"
	case active:
		base = "Active"
	case p.AverageSteps < sedentarySteps:
		base = "Sedentary"
	default:
		base = "Steady"
	}

	if p.MeditationRate > habitRate {
		base += " + Mindful"
	}
	if p.JournalingRate > habitRate {
		base += " + Reflective"
	}
	return base
}

// Describe returns a short description of how a profile's days tend to feel.
func Describe(p Profile) string {
	switch {
	case p.AverageMood >= 7:
		return "Days like these tend to feel great"
	case p.AverageMood >= 5:
		return "Days like these tend to feel balanced"
	case p.AverageMood >= 3:
		return "Days like these tend to feel low"
	default:
		return "Days like these tend to feel hard - be gentle with yourself"
	}
}
