package clock

import (
	"fmt"
	"time"

	"Dormant/internal/schedule"
)

// Mode selects the clock used for a pass.
type Mode string

const (
	ModeGMT   Mode = "gmt"
	ModeLocal Mode = "local"
)

// Clock produces the day and hour a pass is evaluated against.
type Clock struct {
	mode Mode
	now  func() time.Time
}

// New returns a clock for mode backed by time.Now.
func New(mode Mode) (*Clock, error) {
	return NewWithSource(mode, time.Now)
}

// NewWithSource returns a clock reading the current instant from now.
func NewWithSource(mode Mode, now func() time.Time) (*Clock, error) {
	switch mode {
	case ModeGMT, ModeLocal:
	default:
		return nil, fmt.Errorf("unknown time mode %q (want %q or %q)", mode, ModeGMT, ModeLocal)
	}
	return &Clock{mode: mode, now: now}, nil
}

func (c *Clock) Mode() Mode {
	return c.mode
}

// Now returns the current instant in the clock's zone.
func (c *Clock) Now() time.Time {
	t := c.now()
	if c.mode == ModeLocal {
		return t.Local()
	}
	return t.UTC()
}

// DayHour returns the day of week and hour of day of t.
func DayHour(t time.Time) (schedule.Day, int) {
	return schedule.DayOf(t.Weekday()), t.Hour()
}
