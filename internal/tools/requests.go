package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ehr/appointments/internal/domain/booking"
	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"

	msgBadDate     = "Invalid date format. Please use YYYY-MM-DD format."
	msgBadDateTime = "Invalid date/time format. Please use YYYY-MM-DD for date and HH:MM for time."
)

// ArgumentError is a malformed tool argument. Its message is shown to the
// caller as is.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string { return e.Msg }

func (e *ArgumentError) Unwrap() error { return booking.ErrInvalidArgument }

func argErrorf(format string, a ...any) error {
	return &ArgumentError{Msg: fmt.Sprintf(format, a...)}
}

// decodeArgs copies the loosely typed argument map into dst, refusing
// unknown fields and values of the wrong JSON type.
func decodeArgs(args map[string]any, dst any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return argErrorf("Invalid arguments: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return argErrorf("Invalid arguments: %s", strings.TrimPrefix(err.Error(), "json: "))
	}
	return nil
}

func parseID(field, v string) (uuid.UUID, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return uuid.Nil, argErrorf("%s is required", field)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, argErrorf("%s must be a valid UUID", field)
	}
	return id, nil
}

func parseOptionalID(field string, v *string) (*uuid.UUID, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	id, err := parseID(field, *v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseDate(v string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, &ArgumentError{Msg: msgBadDate}
	}
	return d, nil
}

// parseDateTime combines a YYYY-MM-DD date and an HH:MM time into a UTC
// wall-clock timestamp.
func parseDateTime(date, clock string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, &ArgumentError{Msg: msgBadDateTime}
	}
	c, err := booking.ParseClock(strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, &ArgumentError{Msg: msgBadDateTime}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, time.UTC), nil
}

func optionalText(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

// -- Per-tool requests --

type SearchDoctorsRequest struct {
	Specialization string `json:"specialization"`
}

type CheckAvailabilityRequest struct {
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
}

func (r CheckAvailabilityRequest) parse() (uuid.UUID, time.Time, error) {
	id, err := parseID("doctor_id", r.DoctorID)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}
	d, err := parseDate(r.Date)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}
	return id, d, nil
}

type BookAppointmentRequest struct {
	PatientID string  `json:"patient_id"`
	DoctorID  string  `json:"doctor_id"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Type      string  `json:"type"`
	Reason    *string `json:"reason"`
	Symptoms  *string `json:"symptoms"`
}

func (r BookAppointmentRequest) parse() (booking.BookingRequest, error) {
	var out booking.BookingRequest
	var err error
	if out.PatientID, err = parseID("patient_id", r.PatientID); err != nil {
		return out, err
	}
	if out.DoctorID, err = parseID("doctor_id", r.DoctorID); err != nil {
		return out, err
	}
	if out.At, err = parseDateTime(r.Date, r.Time); err != nil {
		return out, err
	}
	if out.Type, err = booking.ParseAppointmentType(strings.TrimSpace(r.Type)); err != nil {
		return out, argErrorf("type must be one of %s", typeList())
	}
	out.Reason = optionalText(r.Reason)
	out.Symptoms = optionalText(r.Symptoms)
	return out, nil
}

type GetAppointmentsRequest struct {
	PatientID *string `json:"patient_id"`
	DoctorID  *string `json:"doctor_id"`
	DateFrom  *string `json:"date_from"`
}

func (r GetAppointmentsRequest) parse() (booking.AppointmentFilter, error) {
	var f booking.AppointmentFilter
	var err error
	if f.PatientID, err = parseOptionalID("patient_id", r.PatientID); err != nil {
		return f, err
	}
	if f.DoctorID, err = parseOptionalID("doctor_id", r.DoctorID); err != nil {
		return f, err
	}
	if r.DateFrom != nil && strings.TrimSpace(*r.DateFrom) != "" {
		d, err := parseDate(*r.DateFrom)
		if err != nil {
			return f, err
		}
		f.From = &d
	}
	return f, nil
}

type CancelAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type RescheduleAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

func (r RescheduleAppointmentRequest) parse() (booking.RescheduleRequest, error) {
	var out booking.RescheduleRequest
	var err error
	if out.AppointmentID, err = parseID("appointment_id", r.AppointmentID); err != nil {
		return out, err
	}
	if out.At, err = parseDateTime(r.Date, r.Time); err != nil {
		return out, err
	}
	return out, nil
}

func typeList() string {
	names := make([]string, len(booking.AppointmentTypes))
	for i, t := range booking.AppointmentTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
