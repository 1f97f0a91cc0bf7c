package decision

import (
	"testing"

	"Dormant/internal/schedule"
)

func TestDecide(t *testing.T) {
	weekday := schedule.Schedule{
		schedule.Monday: {Start: schedule.Hour(7), Stop: schedule.Hour(20)},
	}
	overnight := schedule.Schedule{
		schedule.Friday: {Start: schedule.Hour(20), Stop: schedule.Hour(7)},
	}
	startOnly := schedule.Schedule{
		schedule.Monday: {Start: schedule.Hour(7)},
	}

	tests := []struct {
		name     string
		schedule schedule.Schedule
		day      schedule.Day
		hour     int
		running  bool
		want     Action
	}{
		{"start hour, stopped", weekday, schedule.Monday, 7, false, ActionStart},
		{"start hour, already running", weekday, schedule.Monday, 7, true, ActionNone},
		{"stop hour, running", weekday, schedule.Monday, 20, true, ActionStop},
		{"stop hour, already stopped", weekday, schedule.Monday, 20, false, ActionNone},
		{"midday, stopped", weekday, schedule.Monday, 12, false, ActionNone},
		{"midday, running", weekday, schedule.Monday, 12, true, ActionNone},
		{"other day", weekday, schedule.Tuesday, 7, false, ActionNone},
		{"overnight start", overnight, schedule.Friday, 20, false, ActionStart},
		{"overnight stop", overnight, schedule.Friday, 7, true, ActionStop},
		{"overnight between hours", overnight, schedule.Friday, 23, false, ActionNone},
		{"missing stop field", startOnly, schedule.Monday, 20, true, ActionNone},
		{"empty schedule", schedule.Schedule{}, schedule.Monday, 7, false, ActionNone},
		{"nil schedule", nil, schedule.Monday, 7, false, ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.schedule, tt.day, tt.hour, tt.running)
			if got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
			if again := Decide(tt.schedule, tt.day, tt.hour, tt.running); again != got {
				t.Errorf("second Decide() = %v, first = %v", again, got)
			}
		})
	}
}

func TestDecideStateGating(t *testing.T) {
	// Start and stop in the same hour: the running flag picks exactly one.
	s := schedule.Schedule{
		schedule.Sunday: {Start: schedule.Hour(3), Stop: schedule.Hour(3)},
	}

	for _, day := range schedule.Week {
		for hour := 0; hour < 24; hour++ {
			if got := Decide(s, day, hour, true); got == ActionStart {
				t.Fatalf("Decide(%s, %d, running) returned start", day, hour)
			}
			if got := Decide(s, day, hour, false); got == ActionStop {
				t.Fatalf("Decide(%s, %d, stopped) returned stop", day, hour)
			}
		}
	}

	if got := Decide(s, schedule.Sunday, 3, false); got != ActionStart {
		t.Errorf("stopped instance: got %v, want start", got)
	}
	if got := Decide(s, schedule.Sunday, 3, true); got != ActionStop {
		t.Errorf("running instance: got %v, want stop", got)
	}
}

func TestDecideNoMatchOutsideSchedule(t *testing.T) {
	s := schedule.Default()
	for _, day := range schedule.Week {
		for hour := 0; hour < 24; hour++ {
			_, hasStart := s.StartHour(day)
			_, hasStop := s.StopHour(day)
			if hasStart && hour == 7 || hasStop && hour == 20 {
				continue
			}
			for _, running := range []bool{true, false} {
				if got := Decide(s, day, hour, running); got != ActionNone {
					t.Errorf("Decide(%s, %d, %v) = %v, want none", day, hour, running, got)
				}
			}
		}
	}
}
