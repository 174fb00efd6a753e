package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/clinic-portal/internal/application"
	"github.com/example/clinic-portal/internal/persistence"
)

type appointmentService interface {
	BookAppointment(ctx context.Context, principal application.Principal, params application.BookAppointmentParams) (persistence.Appointment, error)
	ProposeBooking(ctx context.Context, principal application.Principal, params application.BookAppointmentParams) (application.BookingProposal, error)
	CommitBooking(ctx context.Context, principal application.Principal, token string) (persistence.Appointment, error)
	RescheduleAppointment(ctx context.Context, principal application.Principal, params application.RescheduleAppointmentParams) (persistence.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, principal application.Principal, appointmentID int64, status persistence.AppointmentStatus) (persistence.Appointment, error)
	DeleteAppointment(ctx context.Context, principal application.Principal, appointmentID int64) error
	GetAppointment(ctx context.Context, principal application.Principal, appointmentID int64) (persistence.Appointment, error)
	ListAppointments(ctx context.Context, principal application.Principal, params application.ListAppointmentsParams) ([]persistence.Appointment, error)
}

type AppointmentHandler struct {
	service   appointmentService
	responder responder
	logger    *slog.Logger
}

func NewAppointmentHandler(service appointmentService, logger *slog.Logger) *AppointmentHandler {
	base := defaultLogger(logger)
	return &AppointmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AppointmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AppointmentHandler", operation, attrs...)
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "doctor_id", req.DoctorID)

	appointment, err := h.service.BookAppointment(r.Context(), principal, req.toParams())
	if err != nil {
		logger.ErrorContext(r.Context(), "booking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("appointment_id", appointment.ID).InfoContext(r.Context(), "appointment booked")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, appointmentResponse{Appointment: toAppointmentDTO(appointment)})
}

func (h *AppointmentHandler) Propose(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Propose", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode proposal", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Propose", "principal_id", principal.UserID, "doctor_id", req.DoctorID)

	proposal, err := h.service.ProposeBooking(r.Context(), principal, req.toParams())
	if err != nil {
		logger.ErrorContext(r.Context(), "proposal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking proposed")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, proposalResponse{
		Token:     proposal.Token,
		ExpiresAt: proposal.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

func (h *AppointmentHandler) Commit(w http.ResponseWriter, r *http.Request, token string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Commit", "principal_id", principal.UserID)

	appointment, err := h.service.CommitBooking(r.Context(), principal, strings.TrimSpace(token))
	if err != nil {
		logger.ErrorContext(r.Context(), "commit failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("appointment_id", appointment.ID).InfoContext(r.Context(), "booking committed")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, appointmentResponse{Appointment: toAppointmentDTO(appointment)})
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	params, err := listParamsFromQuery(r)
	if err != nil {
		logger.ErrorContext(r.Context(), "bad list filter", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	appointments, err := h.service.ListAppointments(r.Context(), principal, params)
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(appointments)).InfoContext(r.Context(), "appointments listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAppointmentsResponse{Appointments: toAppointmentDTOs(appointments)})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := AppointmentIDFromContext(r.Context())
	if !ok {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing appointment id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "appointment_id", appointmentID)

	appointment, err := h.service.GetAppointment(r.Context(), principal, appointmentID)
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentResponse{Appointment: toAppointmentDTO(appointment)})
}

// Reschedule moves an appointment to a new slot with the same doctor.
func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := AppointmentIDFromContext(r.Context())
	if !ok {
		h.log(r.Context(), "Reschedule", "error_kind", "bad_request").ErrorContext(r.Context(), "missing appointment id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Reschedule", "principal_id", principal.UserID, "appointment_id", appointmentID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reschedule", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Reschedule", "principal_id", principal.UserID, "appointment_id", appointmentID)

	appointment, err := h.service.RescheduleAppointment(r.Context(), principal, application.RescheduleAppointmentParams{
		AppointmentID: appointmentID,
		Date:          strings.TrimSpace(req.Date),
		Time:          strings.TrimSpace(req.Time),
		Reason:        strings.TrimSpace(req.Reason),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reschedule failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment rescheduled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentResponse{Appointment: toAppointmentDTO(appointment)})
}

// UpdateStatus applies a lifecycle transition (completed or cancelled).
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := AppointmentIDFromContext(r.Context())
	if !ok {
		h.log(r.Context(), "UpdateStatus", "error_kind", "bad_request").ErrorContext(r.Context(), "missing appointment id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateStatus", "principal_id", principal.UserID, "appointment_id", appointmentID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode status change", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	status := persistence.AppointmentStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	logger := h.log(r.Context(), "UpdateStatus", "principal_id", principal.UserID, "appointment_id", appointmentID, "status", status)

	appointment, err := h.service.UpdateAppointmentStatus(r.Context(), principal, appointmentID, status)
	if err != nil {
		logger.ErrorContext(r.Context(), "status change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentResponse{Appointment: toAppointmentDTO(appointment)})
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	appointmentID, ok := AppointmentIDFromContext(r.Context())
	if !ok {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing appointment id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "appointment_id", appointmentID)

	if err := h.service.DeleteAppointment(r.Context(), principal, appointmentID); err != nil {
		logger.ErrorContext(r.Context(), "appointment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "appointment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func listParamsFromQuery(r *http.Request) (application.ListAppointmentsParams, error) {
	var params application.ListAppointmentsParams
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("doctor_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return params, errInvalidDoctorID
		}
		params.DoctorID = &id
	}
	if raw := strings.TrimSpace(query.Get("patient_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return params, errInvalidPatientID
		}
		params.PatientID = &id
	}
	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		params.Date = &raw
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status := persistence.AppointmentStatus(strings.ToLower(raw))
		params.Status = &status
	}
	return params, nil
}

type bookingRequest struct {
	PatientID int64  `json:"patient_id"`
	DoctorID  int64  `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Reason    string `json:"reason"`
}

func (r bookingRequest) toParams() application.BookAppointmentParams {
	return application.BookAppointmentParams{
		PatientID: r.PatientID,
		DoctorID:  r.DoctorID,
		Date:      strings.TrimSpace(r.Date),
		Time:      strings.TrimSpace(r.Time),
		Reason:    strings.TrimSpace(r.Reason),
	}
}

type rescheduleRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type proposalResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type appointmentDTO struct {
	ID        int64  `json:"id"`
	PatientID int64  `json:"patient_id"`
	DoctorID  int64  `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Reason    string `json:"reason"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type appointmentResponse struct {
	Appointment appointmentDTO `json:"appointment"`
}

type listAppointmentsResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
}

func toAppointmentDTO(appointment persistence.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:        appointment.ID,
		PatientID: appointment.PatientID,
		DoctorID:  appointment.DoctorID,
		Date:      appointment.Date,
		Time:      appointment.Time,
		Reason:    appointment.Reason,
		Status:    string(appointment.Status),
		CreatedAt: appointment.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toAppointmentDTOs(appointments []persistence.Appointment) []appointmentDTO {
	if len(appointments) == 0 {
		return nil
	}
	out := make([]appointmentDTO, 0, len(appointments))
	for _, appointment := range appointments {
		out = append(out, toAppointmentDTO(appointment))
	}
	return out
}
