package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	doctors      DoctorRepository
	patients     PatientRepository
	appointments AppointmentRepository
	tx           Transactor
	now          func() time.Time
}

func NewService(doc DoctorRepository, pat PatientRepository, appt AppointmentRepository, tx Transactor) *Service {
	return &Service{
		doctors:      doc,
		patients:     pat,
		appointments: appt,
		tx:           tx,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// -- Doctors --

func (s *Service) SearchDoctors(ctx context.Context, specialization string) ([]*Doctor, error) {
	return s.doctors.SearchAvailable(ctx, strings.TrimSpace(specialization))
}

// -- Availability --

// CheckAvailability lists the free and booked slots of a doctor on date.
// Only the calendar day of date is used.
func (s *Service) CheckAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Availability, error) {
	avail, _, err := s.availability(ctx, doctorID, date)
	return avail, err
}

func (s *Service) availability(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Availability, *Doctor, error) {
	doctor, err := s.doctors.GetAvailable(ctx, doctorID)
	if err != nil {
		return nil, nil, err
	}

	schedule, err := doctor.Schedule()
	if err != nil {
		return nil, nil, fmt.Errorf("doctor %s: %w", doctorID, err)
	}

	day := StartOfDay(date)
	booked, err := s.appointments.OccupiedTimes(ctx, doctorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, nil, err
	}

	available, bookedSlots, total, works := ComputeAvailability(schedule, day, booked)
	avail := &Availability{
		DoctorName:     doctor.DisplayName(),
		Date:           day,
		AvailableSlots: available,
		BookedSlots:    bookedSlots,
		TotalSlots:     total,
	}
	if !works {
		avail.Message = fmt.Sprintf("%s is not available on %s", doctor.DisplayName(), WeekdayOf(day).Title())
	}
	return avail, doctor, nil
}

// -- Booking --

// BookAppointment books req.At if it is currently a free slot. The check and
// the insert share one transaction holding a lock on (doctor, time); the
// database's unique index on live appointments backs it up.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*BookingConfirmation, error) {
	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidArgument)
	}
	if req.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id is required", ErrInvalidArgument)
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: invalid appointment type %q", ErrInvalidArgument, req.Type)
	}
	if req.At.IsZero() {
		return nil, fmt.Errorf("%w: appointment time is required", ErrInvalidArgument)
	}

	var conf *BookingConfirmation
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.LockSlot(ctx, req.DoctorID, req.At); err != nil {
			return err
		}
		if _, err := s.patients.GetByID(ctx, req.PatientID); err != nil {
			return err
		}

		avail, doctor, err := s.availability(ctx, req.DoctorID, req.At)
		if err != nil {
			return err
		}
		slot := req.At.Format(ClockLayout)
		if !containsSlot(avail.AvailableSlots, slot) {
			return &SlotUnavailableError{Slot: slot, Available: avail.AvailableSlots}
		}

		a := &Appointment{
			PatientID:       req.PatientID,
			DoctorID:        req.DoctorID,
			AppointmentDate: req.At,
			Duration:        DefaultDuration,
			Status:          StatusScheduled,
			Type:            req.Type,
			Reason:          req.Reason,
			Symptoms:        req.Symptoms,
		}
		if err := s.appointments.Create(ctx, a); err != nil {
			if errors.Is(err, ErrSlotUnavailable) {
				return &SlotUnavailableError{Slot: slot}
			}
			return err
		}

		conf = &BookingConfirmation{
			AppointmentID:  a.ID,
			DoctorName:     doctor.DisplayName(),
			Specialization: doctor.Specialization,
			At:             a.AppointmentDate,
			Type:           a.Type,
			Status:         a.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conf, nil
}

// -- Listing --

func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter) ([]*AppointmentDetail, error) {
	return s.appointments.Search(ctx, f)
}

// -- Cancellation --

// CancelAppointment moves an appointment to cancelled. Cancelled and
// completed appointments are refused.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Cancellation, error) {
	var out *Cancellation
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch appt.Status {
		case StatusCancelled:
			return ErrAlreadyCancelled
		case StatusCompleted:
			return ErrCannotCancelCompleted
		}

		if err := s.appointments.UpdateStatus(ctx, id, StatusCancelled); err != nil {
			return err
		}
		out = &Cancellation{
			AppointmentID: appt.ID,
			DoctorName:    appt.DoctorName(),
			OriginalDate:  appt.AppointmentDate,
			Status:        StatusCancelled,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// -- Rescheduling --

// RescheduleAppointment moves a scheduled or confirmed appointment to another
// free slot of the same doctor.
func (s *Service) RescheduleAppointment(ctx context.Context, req RescheduleRequest) (*Rescheduling, error) {
	if req.At.IsZero() {
		return nil, fmt.Errorf("%w: appointment time is required", ErrInvalidArgument)
	}
	if !req.At.After(s.now()) {
		return nil, ErrPastAppointment
	}

	var out *Rescheduling
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.GetForUpdate(ctx, req.AppointmentID)
		if err != nil {
			return err
		}
		if appt.Status != StatusScheduled && appt.Status != StatusConfirmed {
			return fmt.Errorf("%w (status is %s)", ErrCannotReschedule, appt.Status)
		}

		if err := s.appointments.LockSlot(ctx, appt.DoctorID, req.At); err != nil {
			return err
		}
		avail, _, err := s.availability(ctx, appt.DoctorID, req.At)
		if err != nil {
			return err
		}
		slot := req.At.Format(ClockLayout)
		if !containsSlot(avail.AvailableSlots, slot) {
			return &SlotUnavailableError{Slot: slot, Available: avail.AvailableSlots}
		}

		if err := s.appointments.UpdateDate(ctx, appt.ID, req.At); err != nil {
			if errors.Is(err, ErrSlotUnavailable) {
				return &SlotUnavailableError{Slot: slot}
			}
			return err
		}
		out = &Rescheduling{
			AppointmentID: appt.ID,
			DoctorName:    appt.DoctorName(),
			PreviousDate:  appt.AppointmentDate,
			NewDate:       req.At,
			Status:        appt.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
