package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekday is a lowercase English day name as used for schedule keys.
type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

var weekdays = [...]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf returns the weekday of t without consulting any locale.
func WeekdayOf(t time.Time) Weekday {
	return weekdays[t.Weekday()]
}

func parseWeekday(s string) (Weekday, bool) {
	for _, d := range weekdays {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Title returns "Monday" for Monday.
func (d Weekday) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// WeeklySchedule maps a weekday to its ordered bookable slots ("HH:MM").
// Days without an entry are days off.
type WeeklySchedule map[Weekday][]string

// Slots returns the slots for day and whether the doctor works that day.
func (s WeeklySchedule) Slots(day Weekday) ([]string, bool) {
	slots, ok := s[day]
	return slots, ok
}

// ClockLayout is the 24-hour time-of-day format used for slots.
const ClockLayout = "15:04"

// ParseClock validates a strict zero-padded "HH:MM" value.
func ParseClock(s string) (time.Time, error) {
	if len(s) != len(ClockLayout) {
		return time.Time{}, fmt.Errorf("%q is not in HH:MM format", s)
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not in HH:MM format", s)
	}
	return t, nil
}

type daySchedule struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Slots []string `json:"slots"`
}

// ParseSchedule decodes the availability column:
//
//	{"monday": {"start": "09:00", "end": "17:00", "slots": ["09:00", "09:30"]}, ...}
//
// start and end are optional and only validated; slots alone decide what is
// bookable. Empty input and JSON null give an empty schedule. Unknown day
// names, unknown fields or times that are not HH:MM are rejected with
// ErrInvalidSchedule.
func ParseSchedule(raw []byte) (WeeklySchedule, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return WeeklySchedule{}, nil
	}

	// Some drivers hand back json columns as a JSON string of JSON.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		return ParseSchedule([]byte(inner))
	}

	var days map[string]json.RawMessage
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	out := make(WeeklySchedule, len(days))
	for name, body := range days {
		day, ok := parseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, name)
		}

		var ds daySchedule
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ds); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, name, err)
		}
		for _, bound := range []string{ds.Start, ds.End} {
			if bound == "" {
				continue
			}
			if _, err := ParseClock(bound); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, name, err)
			}
		}
		for _, slot := range ds.Slots {
			if _, err := ParseClock(slot); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, name, err)
			}
		}
		if ds.Slots == nil {
			ds.Slots = []string{}
		}
		out[day] = ds.Slots
	}
	return out, nil
}
