package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	// SearchAvailable lists available doctors, optionally filtered by a
	// case-insensitive specialization substring, best rated first.
	SearchAvailable(ctx context.Context, specialization string) ([]*Doctor, error)
	// GetAvailable returns ErrDoctorNotFound for unknown or unavailable doctors.
	GetAvailable(ctx context.Context, id uuid.UUID) (*Doctor, error)
}

type PatientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
}

type AppointmentRepository interface {
	// LockSlot serializes writers of the same doctor and timestamp until the
	// surrounding transaction ends.
	LockSlot(ctx context.Context, doctorID uuid.UUID, at time.Time) error
	// OccupiedTimes returns the timestamps of appointments that hold a slot
	// for the doctor in [from, to).
	OccupiedTimes(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error)
	// Create inserts a and fills its ID. A second live appointment for the
	// same doctor and timestamp fails with ErrSlotUnavailable.
	Create(ctx context.Context, a *Appointment) error
	// GetForUpdate loads an appointment with its doctor and patient and
	// locks the row for the surrounding transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// UpdateDate moves an appointment; conflicts fail with ErrSlotUnavailable.
	UpdateDate(ctx context.Context, id uuid.UUID, at time.Time) error
	Search(ctx context.Context, f AppointmentFilter) ([]*AppointmentDetail, error)
}

// Transactor runs fn in one database transaction, binding it to ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
