package decision

import (
	"Dormant/internal/schedule"
)

// Action is what should happen to an instance during the current hour.
type Action string

const (
	ActionNone  Action = "none"
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

func (a Action) String() string {
	return string(a)
}

// Decision pairs an action with the instance it applies to.
type Decision struct {
	InstanceID string
	Action     Action
}

// Decide compares the current day and hour against the schedule.
//
// Matching is exact on the hour: a start fires only during the configured start
// hour and only if the instance is not running, a stop only during the stop hour
// and only if it is. Days or fields missing from the schedule never match.
// Decide keeps no state, so repeated calls with the same arguments agree.
func Decide(s schedule.Schedule, day schedule.Day, hour int, running bool) Action {
	if start, ok := s.StartHour(day); ok && start == hour && !running {
		return ActionStart
	}
	if stop, ok := s.StopHour(day); ok && stop == hour && running {
		return ActionStop
	}
	return ActionNone
}
