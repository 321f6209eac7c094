package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/ehr/appointments/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ToolSearchDoctors         = "search_doctors"
	ToolCheckAvailability     = "check_availability"
	ToolBookAppointment       = "book_appointment"
	ToolGetAppointments       = "get_appointments"
	ToolCancelAppointment     = "cancel_appointment"
	ToolRescheduleAppointment = "reschedule_appointment"
)

// Service is the booking behaviour the tools expose.
type Service interface {
	SearchDoctors(ctx context.Context, specialization string) ([]*booking.Doctor, error)
	CheckAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) (*booking.Availability, error)
	BookAppointment(ctx context.Context, req booking.BookingRequest) (*booking.BookingConfirmation, error)
	ListAppointments(ctx context.Context, f booking.AppointmentFilter) ([]*booking.AppointmentDetail, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) (*booking.Cancellation, error)
	RescheduleAppointment(ctx context.Context, req booking.RescheduleRequest) (*booking.Rescheduling, error)
}

// Result is the outcome of one tool call.
type Result struct {
	Text    string
	IsError bool
}

// Recorder receives the outcome and latency of every tool call.
type Recorder interface {
	ObserveToolCall(tool, outcome string, d time.Duration)
}

type toolFunc func(ctx context.Context, args map[string]any) (string, error)

// Handler dispatches tool calls to the booking service and renders the
// outcome as text.
type Handler struct {
	svc    Service
	render Renderer
	logger zerolog.Logger
	rec    Recorder
	tools  map[string]toolFunc
}

func NewHandler(svc Service, logger zerolog.Logger) *Handler {
	return NewHandlerWithRenderer(svc, TextRenderer{}, logger)
}

func NewHandlerWithRenderer(svc Service, r Renderer, logger zerolog.Logger) *Handler {
	h := &Handler{svc: svc, render: r, logger: logger}
	h.tools = map[string]toolFunc{
		ToolSearchDoctors:         h.searchDoctors,
		ToolCheckAvailability:     h.checkAvailability,
		ToolBookAppointment:       h.bookAppointment,
		ToolGetAppointments:       h.getAppointments,
		ToolCancelAppointment:     h.cancelAppointment,
		ToolRescheduleAppointment: h.rescheduleAppointment,
	}
	return h
}

// WithRecorder reports every subsequent call to r.
func (h *Handler) WithRecorder(r Recorder) *Handler {
	h.rec = r
	return h
}

// Call runs the named tool. It never panics and never returns a Go error:
// every failure becomes a Result with IsError set.
func (h *Handler) Call(ctx context.Context, name string, args map[string]any) (res Result) {
	fn, ok := h.tools[name]
	if !ok {
		h.observe(name, "unknown_tool", 0)
		return Result{Text: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().
				Str("tool", name).
				Interface("panic", r).
				Msg("panic in tool call")
			h.observe(name, "panic", time.Since(start))
			res = Result{Text: internalText(name), IsError: true}
		}
	}()

	text, err := fn(ctx, args)
	if err == nil {
		h.observe(name, "ok", time.Since(start))
		h.logger.Debug().
			Str("tool", name).
			Dur("latency", time.Since(start)).
			Msg("tool call")
		return Result{Text: text}
	}

	kind := booking.KindOf(err)
	h.observe(name, kind.String(), time.Since(start))
	if kind == booking.KindInternal {
		h.logger.Error().
			Err(err).
			Str("tool", name).
			Dur("latency", time.Since(start)).
			Msg("tool call failed")
		return Result{Text: internalText(name), IsError: true}
	}

	h.logger.Info().
		Str("tool", name).
		Str("kind", kind.String()).
		Str("reason", err.Error()).
		Msg("tool call rejected")
	return Result{Text: h.render.Failure(name, err), IsError: true}
}

func (h *Handler) observe(tool, outcome string, d time.Duration) {
	if h.rec != nil {
		h.rec.ObserveToolCall(tool, outcome, d)
	}
}

func internalText(tool string) string {
	return fmt.Sprintf("Error executing %s: an internal error occurred, please try again later", tool)
}

func (h *Handler) searchDoctors(ctx context.Context, args map[string]any) (string, error) {
	var req SearchDoctorsRequest
	if err := decodeArgs(args, &req); err != nil {
		return "", err
	}
	doctors, err := h.svc.SearchDoctors(ctx, req.Specialization)
	if err != nil {
		return "", err
	}
	return h.render.Doctors(doctors), nil
}

func (h *Handler) checkAvailability(ctx context.Context, args map[string]any) (string, error) {
	var req CheckAvailabilityRequest
	if err := decodeArgs(args, &req); err != nil {
		return "", err
	}
	doctorID, date, err := req.parse()
	if err != nil {
		return "", err
	}
	avail, err := h.svc.CheckAvailability(ctx, doctorID, date)
	if err != nil {
		return "", err
	}
	return h.render.Availability(avail), nil
}

func (h *Handler) bookAppointment(ctx context.Context, args map[string]any) (string, error) {
	var req BookAppointmentRequest
	if err := decodeArgs(args, &req); err != nil {
		return "", err
	}
	br, err := req.parse()
	if err != nil {
		return "", err
	}
	conf, err := h.svc.BookAppointment(ctx, br)
	if err != nil {
		return "", err
	}
	return h.render.Booked(conf), nil
}

func (h *Handler) getAppointments(ctx context.Context, args map[string]any) (string, error) {
	var req GetAppointmentsRequest
	if err := decodeArgs(args, &req); err != nil {
		return "", err
	}
	filter, err := req.parse()
	if err != nil {
		return "", err
	}
	list, err := h.svc.ListAppointments(ctx, filter)
	if err != nil {
		return "", err
	}
	return h.render.Appointments(list), nil
}

func (h *Handler) cancelAppointment(ctx context.Context, args map[string]any) (string, error) {
	var req CancelAppointmentRequest
	if err := decodeArgs(args, &req); err != nil {
		return "", err
	}
	id, err := parseID("appointment_id", req.AppointmentID)
	if err != nil {
		return "", err
	}
	c, err := h.svc.CancelAppointment(ctx, id)
	if err != nil {
		return "", err
	}
	return h.render.Cancelled(c), nil
}

func (h *Handler) rescheduleAppointment(ctx context.Context, args map[string]any) (string, error) {
	var req RescheduleAppointmentRequest
	if err := decodeArgs(args, &req); err != nil {
		return "", err
	}
	rr, err := req.parse()
	if err != nil {
		return "", err
	}
	r, err := h.svc.RescheduleAppointment(ctx, rr)
	if err != nil {
		return "", err
	}
	return h.render.Rescheduled(r), nil
}
