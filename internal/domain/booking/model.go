package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDuration is the length in minutes of every booked appointment.
const DefaultDuration = 30

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

var validStatuses = map[Status]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusCancelled: true,
	StatusCompleted: true, StatusNoShow: true,
}

func (s Status) Valid() bool { return validStatuses[s] }

// Occupies reports whether an appointment in this state holds its slot.
func (s Status) Occupies() bool {
	return s != StatusCancelled && s != StatusNoShow
}

func (s Status) Label() string { return titleLabel(string(s)) }

// AppointmentType classifies the visit.
type AppointmentType string

const (
	TypeConsultation   AppointmentType = "consultation"
	TypeFollowUp       AppointmentType = "follow_up"
	TypeEmergency      AppointmentType = "emergency"
	TypeRoutineCheckup AppointmentType = "routine_checkup"
)

// AppointmentTypes lists the accepted types in catalog order.
var AppointmentTypes = []AppointmentType{TypeConsultation, TypeFollowUp, TypeEmergency, TypeRoutineCheckup}

func (t AppointmentType) Valid() bool {
	for _, v := range AppointmentTypes {
		if t == v {
			return true
		}
	}
	return false
}

func (t AppointmentType) Label() string { return titleLabel(string(t)) }

// ParseAppointmentType accepts exactly one of AppointmentTypes.
func ParseAppointmentType(s string) (AppointmentType, error) {
	t := AppointmentType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: type must be one of consultation, follow_up, emergency, routine_checkup", ErrInvalidArgument)
	}
	return t, nil
}

// titleLabel turns "routine_checkup" into "Routine Checkup".
func titleLabel(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Doctor maps to the doctor table.
type Doctor struct {
	ID             uuid.UUID `db:"id" json:"id"`
	FirstName      string    `db:"firstName" json:"first_name"`
	LastName       string    `db:"lastName" json:"last_name"`
	Specialization string    `db:"specialization" json:"specialization"`
	Qualification  string    `db:"qualification" json:"qualification"`
	Experience     int       `db:"experience" json:"experience"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	Department     string    `db:"department" json:"department"`
	Bio            *string   `db:"bio" json:"bio,omitempty"`
	Rating         float64   `db:"rating" json:"rating"`
	IsAvailable    bool      `db:"isAvailable" json:"is_available"`
	// RawSchedule is the availability column as stored; see WeeklySchedule.
	RawSchedule []byte `db:"availability" json:"-"`
}

// DisplayName is the name used in every tool response.
func (d *Doctor) DisplayName() string {
	return fmt.Sprintf("Dr. %s %s", d.FirstName, d.LastName)
}

// Schedule parses RawSchedule.
func (d *Doctor) Schedule() (WeeklySchedule, error) {
	return ParseSchedule(d.RawSchedule)
}

// Patient maps to the patient table. It is only ever read.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"firstName" json:"first_name"`
	LastName  string    `db:"lastName" json:"last_name"`
}

func (p *Patient) FullName() string { return p.FirstName + " " + p.LastName }

// Appointment maps to the appointment table.
type Appointment struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	PatientID       uuid.UUID       `db:"patientId" json:"patient_id"`
	DoctorID        uuid.UUID       `db:"doctorId" json:"doctor_id"`
	AppointmentDate time.Time       `db:"appointmentDate" json:"appointment_date"`
	Duration        int             `db:"duration" json:"duration"`
	Status          Status          `db:"status" json:"status"`
	Type            AppointmentType `db:"type" json:"type"`
	Reason          *string         `db:"reason" json:"reason,omitempty"`
	Symptoms        *string         `db:"symptoms" json:"symptoms,omitempty"`
	Notes           *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time       `db:"createdAt" json:"created_at"`
	UpdatedAt       time.Time       `db:"updatedAt" json:"updated_at"`
}

// AppointmentDetail is an appointment joined with its doctor and patient.
type AppointmentDetail struct {
	Appointment
	DoctorFirstName  string `json:"doctor_first_name"`
	DoctorLastName   string `json:"doctor_last_name"`
	Specialization   string `json:"specialization"`
	PatientFirstName string `json:"patient_first_name"`
	PatientLastName  string `json:"patient_last_name"`
}

func (a *AppointmentDetail) DoctorName() string {
	return fmt.Sprintf("Dr. %s %s", a.DoctorFirstName, a.DoctorLastName)
}

func (a *AppointmentDetail) PatientName() string {
	return a.PatientFirstName + " " + a.PatientLastName
}

// Availability is the result of an availability lookup.
type Availability struct {
	DoctorName     string    `json:"doctor"`
	Date           time.Time `json:"date"`
	AvailableSlots []string  `json:"available_slots"`
	BookedSlots    []string  `json:"booked_slots"`
	TotalSlots     int       `json:"total_slots"`
	// Message is set when the doctor does not work on Date's weekday.
	Message string `json:"message,omitempty"`
}

// BookingRequest asks for a new appointment at At (UTC wall clock).
type BookingRequest struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	At        time.Time
	Type      AppointmentType
	Reason    *string
	Symptoms  *string
}

// BookingConfirmation describes a freshly booked appointment.
type BookingConfirmation struct {
	AppointmentID  uuid.UUID       `json:"appointment_id"`
	DoctorName     string          `json:"doctor"`
	Specialization string          `json:"specialization"`
	At             time.Time       `json:"at"`
	Type           AppointmentType `json:"type"`
	Status         Status          `json:"status"`
}

// AppointmentFilter narrows ListAppointments. Nil fields are ignored.
type AppointmentFilter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	From      *time.Time
}

// Cancellation describes a cancelled appointment.
type Cancellation struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorName    string    `json:"doctor"`
	OriginalDate  time.Time `json:"original_date"`
	Status        Status    `json:"status"`
}

// RescheduleRequest moves an appointment to At with the same doctor.
type RescheduleRequest struct {
	AppointmentID uuid.UUID
	At            time.Time
}

// Rescheduling describes a moved appointment.
type Rescheduling struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorName    string    `json:"doctor"`
	PreviousDate  time.Time `json:"previous_date"`
	NewDate       time.Time `json:"new_date"`
	Status        Status    `json:"status"`
}
