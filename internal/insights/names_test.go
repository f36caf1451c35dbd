package insights

import "testing"

func TestGenerateProfileName(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    string
	}{
		{
			name:    "rested and active",
			profile: Profile{AverageSleep: 8, AverageSteps: 9000},
			want:    "Well-Rested & Active",
		},
		{
			name:    "rested only",
			profile: Profile{AverageSleep: 7.5, AverageSteps: 4000},
			want:    "Well-Rested",
		},
		{
			name:    "short sleep but active",
			profile: Profile{AverageSleep: 5, AverageSteps: 8000},
			want:    "Running on Empty",
		},
		{
			name:    "short sleep",
			profile: Profile{AverageSleep: 4, AverageSteps: 2000},
			want:    "Short on Sleep",
		},
		{
			name:    "middle sleep active",
			profile: Profile{AverageSleep: 6.5, AverageSteps: 7000},
			want:    "Active",
		},
		{
			name:    "middle sleep sedentary",
			profile: Profile{AverageSleep: 6.5, AverageSteps: 1000},
			want:    "Sedentary",
		},
		{
			name:    "middle of everything",
			profile: Profile{AverageSleep: 6, AverageSteps: 5000},
			want:    "Steady",
		},
		{
			name:    "mindful and reflective modifiers",
			profile: Profile{AverageSleep: 8, AverageSteps: 1000, MeditationRate: 0.75, JournalingRate: 1},
			want:    "Well-Rested + Mindful + Reflective",
		},
		{
			name:    "boundary habit rate exactly 0.5 no modifier",
			profile: Profile{AverageSleep: 8, AverageSteps: 1000, MeditationRate: 0.5},
			want:    "Well-Rested",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generateProfileName(tt.profile)
			if got != tt.want {
				t.Errorf("generateProfileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(Profile{AverageMood: 8}); got != "Days like these tend to feel great" {
		t.Errorf("Describe(8) = %q", got)
	}
	if got := Describe(Profile{AverageMood: 1}); got == "" {
		t.Error("Describe(1) should not be empty")
	}
}
