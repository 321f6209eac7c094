package tools

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ehr/appointments/internal/domain/booking"
)

const bioPreviewLen = 100

// Renderer turns structured results into the text returned to the caller.
type Renderer interface {
	Doctors(doctors []*booking.Doctor) string
	Availability(a *booking.Availability) string
	Booked(c *booking.BookingConfirmation) string
	Appointments(list []*booking.AppointmentDetail) string
	Cancelled(c *booking.Cancellation) string
	Rescheduled(r *booking.Rescheduling) string
	Failure(tool string, err error) string
}

// TextRenderer writes short emoji-marked prose meant for a language model.
type TextRenderer struct{}

var statusEmoji = map[booking.Status]string{
	booking.StatusScheduled: "📋",
	booking.StatusConfirmed: "✅",
	booking.StatusCancelled: "❌",
	booking.StatusCompleted: "✓",
	booking.StatusNoShow:    "👻",
}

func (TextRenderer) Doctors(doctors []*booking.Doctor) string {
	if len(doctors) == 0 {
		return "No doctors found matching the criteria."
	}
	var b strings.Builder
	b.WriteString("Available Doctors:\n\n")
	for _, d := range doctors {
		fmt.Fprintf(&b, "👨‍⚕️ %s\n", d.DisplayName())
		fmt.Fprintf(&b, "   ID: %s\n", d.ID)
		fmt.Fprintf(&b, "   Specialization: %s\n", d.Specialization)
		fmt.Fprintf(&b, "   Experience: %d years\n", d.Experience)
		fmt.Fprintf(&b, "   Rating: %.1f/5.0\n", d.Rating)
		fmt.Fprintf(&b, "   Department: %s\n", d.Department)
		if d.Bio != nil && strings.TrimSpace(*d.Bio) != "" {
			fmt.Fprintf(&b, "   Bio: %s\n", preview(*d.Bio, bioPreviewLen))
		}
		fmt.Fprintf(&b, "   Email: %s\n", d.Email)
		fmt.Fprintf(&b, "   Phone: %s\n\n", d.Phone)
	}
	return b.String()
}

func (TextRenderer) Availability(a *booking.Availability) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Availability for %s on %s\n\n", a.DoctorName, a.Date.Format(dateLayout))
	if a.Message != "" {
		b.WriteString(a.Message + "\n")
		return b.String()
	}
	if len(a.AvailableSlots) > 0 {
		b.WriteString("✅ Available time slots:\n")
		for _, s := range a.AvailableSlots {
			fmt.Fprintf(&b, "   • %s\n", s)
		}
		fmt.Fprintf(&b, "\nTotal available slots: %d\n", len(a.AvailableSlots))
	} else {
		b.WriteString("❌ No available slots for this date\n")
	}
	if len(a.BookedSlots) > 0 {
		b.WriteString("\n🚫 Booked slots:\n")
		for _, s := range a.BookedSlots {
			fmt.Fprintf(&b, "   • %s\n", s)
		}
	}
	return b.String()
}

func (TextRenderer) Booked(c *booking.BookingConfirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Appointment successfully booked with %s\n\n", c.DoctorName)
	b.WriteString("📋 Appointment Details:\n")
	fmt.Fprintf(&b, "   ID: %s\n", c.AppointmentID)
	fmt.Fprintf(&b, "   Doctor: %s (%s)\n", c.DoctorName, c.Specialization)
	fmt.Fprintf(&b, "   Date: %s\n", c.At.Format(dateLayout))
	fmt.Fprintf(&b, "   Time: %s\n", c.At.Format(booking.ClockLayout))
	fmt.Fprintf(&b, "   Type: %s\n", c.Type.Label())
	fmt.Fprintf(&b, "   Status: %s\n", c.Status.Label())
	return b.String()
}

func (TextRenderer) Appointments(list []*booking.AppointmentDetail) string {
	if len(list) == 0 {
		return "No appointments found matching the criteria."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Found %d appointment(s):\n\n", len(list))
	for _, a := range list {
		emoji, ok := statusEmoji[a.Status]
		if !ok {
			emoji = statusEmoji[booking.StatusScheduled]
		}
		fmt.Fprintf(&b, "%s %s at %s\n", emoji, a.AppointmentDate.Format(dateLayout), a.AppointmentDate.Format(booking.ClockLayout))
		fmt.Fprintf(&b, "   ID: %s\n", a.ID)
		fmt.Fprintf(&b, "   Doctor: %s (%s)\n", a.DoctorName(), a.Specialization)
		fmt.Fprintf(&b, "   Patient: %s\n", a.PatientName())
		fmt.Fprintf(&b, "   Type: %s\n", a.Type.Label())
		fmt.Fprintf(&b, "   Status: %s\n", a.Status.Label())
		fmt.Fprintf(&b, "   Duration: %d minutes\n", a.Duration)
		writeOptional(&b, "Reason", a.Reason)
		writeOptional(&b, "Symptoms", a.Symptoms)
		writeOptional(&b, "Notes", a.Notes)
		b.WriteString("\n")
	}
	return b.String()
}

func (TextRenderer) Cancelled(c *booking.Cancellation) string {
	var b strings.Builder
	b.WriteString("✅ Appointment cancelled successfully\n\n")
	b.WriteString("📋 Cancelled Appointment:\n")
	fmt.Fprintf(&b, "   ID: %s\n", c.AppointmentID)
	fmt.Fprintf(&b, "   Doctor: %s\n", c.DoctorName)
	fmt.Fprintf(&b, "   Original Date/Time: %s\n", c.OriginalDate.Format(dateLayout+" "+booking.ClockLayout))
	fmt.Fprintf(&b, "   Status: %s\n", c.Status.Label())
	return b.String()
}

func (TextRenderer) Rescheduled(r *booking.Rescheduling) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Appointment rescheduled with %s\n\n", r.DoctorName)
	b.WriteString("📋 Rescheduled Appointment:\n")
	fmt.Fprintf(&b, "   ID: %s\n", r.AppointmentID)
	fmt.Fprintf(&b, "   Previous Date/Time: %s\n", r.PreviousDate.Format(dateLayout+" "+booking.ClockLayout))
	fmt.Fprintf(&b, "   New Date/Time: %s\n", r.NewDate.Format(dateLayout+" "+booking.ClockLayout))
	fmt.Fprintf(&b, "   Status: %s\n", r.Status.Label())
	return b.String()
}

// Failure renders a domain error. Rule violations on write operations get a
// ❌ marker; argument errors never do.
func (TextRenderer) Failure(tool string, err error) string {
	msg := sentence(err.Error())
	if booking.KindOf(err) == booking.KindInvalidInput {
		return msg
	}
	switch tool {
	case ToolBookAppointment, ToolCancelAppointment, ToolRescheduleAppointment:
		return "❌ " + msg
	}
	return msg
}

func writeOptional(b *strings.Builder, label string, v *string) {
	if v == nil || *v == "" {
		return
	}
	fmt.Fprintf(b, "   %s: %s\n", label, *v)
}

// preview cuts s to at most n runes, marking the cut with an ellipsis.
func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:n]), unicode.IsSpace) + "..."
}

func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
