package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the booking service. Callers match with errors.Is.
var (
	ErrDoctorNotFound        = errors.New("doctor not found or not available")
	ErrPatientNotFound       = errors.New("patient not found")
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrSlotUnavailable       = errors.New("time slot is not available")
	ErrAlreadyCancelled      = errors.New("appointment is already cancelled")
	ErrCannotCancelCompleted = errors.New("cannot cancel a completed appointment")
	ErrCannotReschedule      = errors.New("only scheduled or confirmed appointments can be rescheduled")
	ErrPastAppointment       = errors.New("appointment time must be in the future")
	ErrInvalidSchedule       = errors.New("doctor schedule is malformed")
)

// SlotUnavailableError reports a requested slot that is not free. Available
// is nil when the slot was lost to a concurrent booking.
type SlotUnavailableError struct {
	Slot      string
	Available []string
}

func (e *SlotUnavailableError) Error() string {
	if e.Available == nil {
		return fmt.Sprintf("Time slot %s is not available. It was just booked by another request.", e.Slot)
	}
	if len(e.Available) == 0 {
		return fmt.Sprintf("Time slot %s is not available. No other slots are free on this date.", e.Slot)
	}
	return fmt.Sprintf("Time slot %s is not available. Available slots: %s", e.Slot, strings.Join(e.Available, ", "))
}

func (e *SlotUnavailableError) Is(target error) bool { return target == ErrSlotUnavailable }

// Kind groups errors by how they are reported to the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidInput
	KindBusinessRule
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindBusinessRule:
		return "business_rule"
	default:
		return "internal"
	}
}

// KindOf classifies err. Anything unrecognised is KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrDoctorNotFound), errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrAppointmentNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidInput
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrCannotCancelCompleted), errors.Is(err, ErrCannotReschedule),
		errors.Is(err, ErrPastAppointment), errors.Is(err, ErrInvalidSchedule):
		return KindBusinessRule
	default:
		return KindInternal
	}
}
