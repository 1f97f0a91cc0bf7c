package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Codec converts between a Schedule and the string stored in a resource tag.
type Codec interface {
	Name() string
	Decode(value string) (Schedule, error)
	Encode(s Schedule) (string, error)
}

// NestedCodec stores the schedule as a JSON object of day -> {start, stop}:
//
//	{"mon":{"start":7,"stop":20},"tue":{"start":7,"stop":20}}
type NestedCodec struct{}

func (NestedCodec) Name() string { return "nested" }

func (c NestedCodec) Decode(value string) (Schedule, error) {
	if strings.TrimSpace(value) == "" {
		return Schedule{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()

	var parsed map[string]map[string]any
	if err := dec.Decode(&parsed); err != nil {
		return nil, c.fail(value, err)
	}
	if dec.More() {
		return nil, c.fail(value, errors.New("trailing data after schedule object"))
	}

	raw := make(map[string]map[string]string, len(parsed))
	for day, fields := range parsed {
		raw[day] = make(map[string]string, len(fields))
		for field, v := range fields {
			n, ok := v.(json.Number)
			if !ok {
				return nil, c.fail(value, fmt.Errorf("%s.%s: hour must be a number, got %T", day, field, v))
			}
			raw[day][field] = n.String()
		}
	}

	s, err := Validate(raw)
	if err != nil {
		return nil, c.fail(value, err)
	}
	return s, nil
}

// Encode writes days in week order so the same schedule always yields the same tag.
func (NestedCodec) Encode(s Schedule) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, day := range Week {
		w, ok := s[day]
		if !ok || w.Empty() {
			continue
		}
		window, err := json.Marshal(w)
		if err != nil {
			return "", fmt.Errorf("failed to encode %s window: %w", day, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, "%q:", day)
		buf.Write(window)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func (c NestedCodec) fail(value string, err error) error {
	return &DecodeError{Codec: c.Name(), Value: value, Err: err}
}

// FlatCodec stores the schedule as space separated day_field=hour tokens:
//
//	mon_start=7 mon_stop=20 tue_start=7 tue_stop=20
//
// Tag values on database instances cannot hold the JSON form.
type FlatCodec struct{}

const (
	flatFieldSep = "_"
	flatValueSep = "="
	flatTokenSep = " "
)

func (FlatCodec) Name() string { return "flat" }

func (c FlatCodec) Decode(value string) (Schedule, error) {
	raw := make(map[string]map[string]string)
	for _, token := range strings.Fields(value) {
		key, hour, ok := strings.Cut(token, flatValueSep)
		if !ok {
			return nil, c.fail(value, fmt.Errorf("token %q is not key=value", token))
		}
		day, field, ok := strings.Cut(key, flatFieldSep)
		if !ok {
			return nil, c.fail(value, fmt.Errorf("key %q is not day%sfield", key, flatFieldSep))
		}
		if raw[day] == nil {
			raw[day] = make(map[string]string, 2)
		}
		raw[day][field] = hour
	}

	s, err := Validate(raw)
	if err != nil {
		return nil, c.fail(value, err)
	}
	return s, nil
}

func (FlatCodec) Encode(s Schedule) (string, error) {
	tokens := make([]string, 0, 2*len(s))
	for _, day := range Week {
		w, ok := s[day]
		if !ok {
			continue
		}
		if w.Start != nil {
			tokens = append(tokens, flatToken(day, fieldStart, *w.Start))
		}
		if w.Stop != nil {
			tokens = append(tokens, flatToken(day, fieldStop, *w.Stop))
		}
	}
	return strings.Join(tokens, flatTokenSep), nil
}

func (c FlatCodec) fail(value string, err error) error {
	return &DecodeError{Codec: c.Name(), Value: value, Err: err}
}

func flatToken(day Day, field string, hour int) string {
	return string(day) + flatFieldSep + field + flatValueSep + strconv.Itoa(hour)
}
