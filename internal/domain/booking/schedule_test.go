package booking

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseSchedule_Valid(t *testing.T) {
	raw := []byte(`{"monday": {"slots": ["09:00", "09:30"]}, "friday": {"slots": []}}`)
	s, err := ParseSchedule(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s[Monday]; !reflect.DeepEqual(got, []string{"09:00", "09:30"}) {
		t.Errorf("monday slots = %v", got)
	}
	if slots, ok := s.Slots(Friday); !ok || len(slots) != 0 {
		t.Errorf("expected friday present and empty, got %v %v", slots, ok)
	}
	if _, ok := s.Slots(Tuesday); ok {
		t.Error("expected tuesday to be a day off")
	}
}

func TestParseSchedule_StartEndSlots(t *testing.T) {
	raw := []byte(`{
		"monday": {"start": "09:00", "end": "10:00", "slots": ["09:00", "09:30"]},
		"wednesday": {"start": "14:00", "end": "15:00", "slots": ["14:00"]}
	}`)
	s, err := ParseSchedule(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s[Monday]; !reflect.DeepEqual(got, []string{"09:00", "09:30"}) {
		t.Errorf("monday slots = %v", got)
	}
	if got := s[Wednesday]; !reflect.DeepEqual(got, []string{"14:00"}) {
		t.Errorf("wednesday slots = %v", got)
	}
}

func TestParseSchedule_EmptyAndNull(t *testing.T) {
	for _, raw := range []string{"", "null", "  ", "{}"} {
		s, err := ParseSchedule([]byte(raw))
		if err != nil {
			t.Errorf("ParseSchedule(%q) error: %v", raw, err)
			continue
		}
		if len(s) != 0 {
			t.Errorf("ParseSchedule(%q) = %v, want empty", raw, s)
		}
	}
}

func TestParseSchedule_StringEncoded(t *testing.T) {
	raw := []byte(`"{\"tuesday\": {\"slots\": [\"14:00\"]}}"`)
	s, err := ParseSchedule(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s[Tuesday]; !reflect.DeepEqual(got, []string{"14:00"}) {
		t.Errorf("tuesday slots = %v", got)
	}
}

func TestParseSchedule_MissingSlotsIsEmptyDay(t *testing.T) {
	s, err := ParseSchedule([]byte(`{"sunday": {}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slots, ok := s.Slots(Sunday)
	if !ok || slots == nil || len(slots) != 0 {
		t.Errorf("expected present empty sunday, got %v %v", slots, ok)
	}
}

func TestParseSchedule_Rejects(t *testing.T) {
	tests := map[string]string{
		"not json":        `{monday`,
		"array":           `["09:00"]`,
		"capitalized day": `{"Monday": {"slots": ["09:00"]}}`,
		"unknown day":     `{"funday": {"slots": ["09:00"]}}`,
		"unknown field":   `{"monday": {"slots": ["09:00"], "break": "12:00"}}`,
		"slot not clock":  `{"monday": {"slots": ["9am"]}}`,
		"unpadded slot":   `{"monday": {"slots": ["9:00"]}}`,
		"slots not array": `{"monday": {"slots": "09:00"}}`,
		"start not clock": `{"monday": {"start": "9am", "end": "10:00", "slots": ["09:00"]}}`,
		"end not clock":   `{"monday": {"start": "09:00", "end": "25:00", "slots": ["09:00"]}}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSchedule([]byte(raw))
			if !errors.Is(err, ErrInvalidSchedule) {
				t.Errorf("expected ErrInvalidSchedule, got %v", err)
			}
		})
	}
}

func TestWeekdayOf(t *testing.T) {
	tests := []struct {
		date string
		want Weekday
	}{
		{"2024-06-09", Sunday},
		{"2024-06-10", Monday},
		{"2024-06-15", Saturday},
		{"2024-02-29", Thursday},
	}
	for _, tt := range tests {
		d, _ := time.Parse("2006-01-02", tt.date)
		if got := WeekdayOf(d); got != tt.want {
			t.Errorf("WeekdayOf(%s) = %s, want %s", tt.date, got, tt.want)
		}
	}
	if Monday.Title() != "Monday" {
		t.Errorf("Title() = %q", Monday.Title())
	}
}

func TestParseClock(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59"}
	for _, s := range valid {
		if _, err := ParseClock(s); err != nil {
			t.Errorf("ParseClock(%q) unexpected error: %v", s, err)
		}
	}
	invalid := []string{"", "9:30", "24:00", "12:60", "12-30", "12:30:00", "noon"}
	for _, s := range invalid {
		if _, err := ParseClock(s); err == nil {
			t.Errorf("ParseClock(%q) expected error", s)
		}
	}
}
