package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Day is a lowercase three-letter day-of-week abbreviation.
type Day string

const (
	Monday    Day = "mon"
	Tuesday   Day = "tue"
	Wednesday Day = "wed"
	Thursday  Day = "thu"
	Friday    Day = "fri"
	Saturday  Day = "sat"
	Sunday    Day = "sun"
)

// Week lists the days in encoding order.
var Week = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

const (
	fieldStart = "start"
	fieldStop  = "stop"
)

// ErrDecode matches every *DecodeError through errors.Is.
var ErrDecode = errors.New("invalid schedule")

// DecodeError reports a schedule tag value that cannot be turned into a Schedule.
type DecodeError struct {
	Codec string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid %s schedule %q: %v", e.Codec, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// ParseDay accepts exactly one of the seven lowercase abbreviations.
func ParseDay(s string) (Day, error) {
	for _, d := range Week {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day %q", s)
}

// DayOf maps a time.Weekday onto its abbreviation.
func DayOf(w time.Weekday) Day {
	switch w {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Window holds the start and stop hour for one day. Either may be nil.
type Window struct {
	Start *int `json:"start,omitempty"`
	Stop  *int `json:"stop,omitempty"`
}

// Empty reports whether the window schedules nothing.
func (w Window) Empty() bool {
	return w.Start == nil && w.Stop == nil
}

// Schedule maps days to windows. A missing day schedules nothing.
//
// Decoded schedules never contain empty windows, so two schedules describing
// the same week compare equal.
type Schedule map[Day]Window

// Hour returns a pointer to h, for building windows.
func Hour(h int) *int {
	return &h
}

// StartHour returns the start hour for day, if one is scheduled.
func (s Schedule) StartHour(day Day) (int, bool) {
	w, ok := s[day]
	if !ok || w.Start == nil {
		return 0, false
	}
	return *w.Start, true
}

// StopHour returns the stop hour for day, if one is scheduled.
func (s Schedule) StopHour(day Day) (int, bool) {
	w, ok := s[day]
	if !ok || w.Stop == nil {
		return 0, false
	}
	return *w.Stop, true
}

// Default is Monday to Friday, start at 7 and stop at 20.
func Default() Schedule {
	s := make(Schedule, 5)
	for _, d := range Week[:5] {
		s[d] = Window{Start: Hour(7), Stop: Hour(20)}
	}
	return s
}

// Validate turns a parsed day -> field -> decimal hour mapping into a Schedule.
// Both codecs reduce their wire form to this shape first.
func Validate(raw map[string]map[string]string) (Schedule, error) {
	s := make(Schedule, len(raw))
	for key, fields := range raw {
		day, err := ParseDay(key)
		if err != nil {
			return nil, err
		}

		var w Window
		for field, value := range fields {
			hour, err := parseHour(value)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", key, field, err)
			}
			switch field {
			case fieldStart:
				w.Start = &hour
			case fieldStop:
				w.Stop = &hour
			default:
				return nil, fmt.Errorf("%s: unknown field %q", key, field)
			}
		}

		if !w.Empty() {
			s[day] = w
		}
	}
	return s, nil
}

func parseHour(value string) (int, error) {
	hour, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("hour %q is not an integer", value)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("hour %d out of range [0,23]", hour)
	}
	return hour, nil
}
