package tools

import (
	"github.com/ehr/appointments/internal/domain/booking"
	"github.com/mark3labs/mcp-go/mcp"
)

// Catalog declares every tool with its input schema.
func Catalog() []mcp.Tool {
	types := make([]string, len(booking.AppointmentTypes))
	for i, t := range booking.AppointmentTypes {
		types[i] = string(t)
	}

	return []mcp.Tool{
		mcp.NewTool(ToolSearchDoctors,
			mcp.WithDescription("Search for available doctors, optionally filter by specialization"),
			mcp.WithString("specialization",
				mcp.Description("Filter by doctor specialization (e.g., 'cardiology', 'orthopedic', 'general')"),
			),
		),
		mcp.NewTool(ToolCheckAvailability,
			mcp.WithDescription("Check doctor availability for a specific date"),
			mcp.WithString("doctor_id", mcp.Required(), mcp.Description("Doctor's UUID")),
			mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD format")),
		),
		mcp.NewTool(ToolBookAppointment,
			mcp.WithDescription("Book a new appointment with a doctor"),
			mcp.WithString("patient_id", mcp.Required(), mcp.Description("Patient's UUID")),
			mcp.WithString("doctor_id", mcp.Required(), mcp.Description("Doctor's UUID")),
			mcp.WithString("date", mcp.Required(), mcp.Description("Appointment date in YYYY-MM-DD format")),
			mcp.WithString("time", mcp.Required(), mcp.Description("Appointment time in HH:MM format (24-hour)")),
			mcp.WithString("type", mcp.Required(), mcp.Description("Type of appointment"), mcp.Enum(types...)),
			mcp.WithString("reason", mcp.Description("Reason for the appointment")),
			mcp.WithString("symptoms", mcp.Description("Patient symptoms (optional)")),
		),
		mcp.NewTool(ToolGetAppointments,
			mcp.WithDescription("Get appointments with optional filters"),
			mcp.WithString("patient_id", mcp.Description("Filter by patient UUID")),
			mcp.WithString("doctor_id", mcp.Description("Filter by doctor UUID")),
			mcp.WithString("date_from", mcp.Description("Show appointments from this date (YYYY-MM-DD)")),
		),
		mcp.NewTool(ToolCancelAppointment,
			mcp.WithDescription("Cancel an existing appointment"),
			mcp.WithString("appointment_id", mcp.Required(), mcp.Description("Appointment UUID to cancel")),
		),
		mcp.NewTool(ToolRescheduleAppointment,
			mcp.WithDescription("Move a scheduled or confirmed appointment to another free slot with the same doctor"),
			mcp.WithString("appointment_id", mcp.Required(), mcp.Description("Appointment UUID to reschedule")),
			mcp.WithString("date", mcp.Required(), mcp.Description("New date in YYYY-MM-DD format")),
			mcp.WithString("time", mcp.Required(), mcp.Description("New time in HH:MM format (24-hour)")),
		),
	}
}
