package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/clinic-portal/internal/application"
	"github.com/example/clinic-portal/internal/persistence"
)

type patientService interface {
	RegisterPatient(ctx context.Context, params application.RegisterPatientParams) (persistence.Patient, error)
	GetPatient(ctx context.Context, principal application.Principal, patientID int64) (persistence.Patient, error)
	ListPatients(ctx context.Context, principal application.Principal) ([]persistence.Patient, error)
	LookupByPhone(ctx context.Context, principal application.Principal, phone string) (application.PatientLookup, error)
	UpdatePatient(ctx context.Context, principal application.Principal, params application.UpdatePatientParams) (persistence.Patient, error)
	DeletePatient(ctx context.Context, principal application.Principal, patientID int64) error
}

type PatientHandler struct {
	service   patientService
	responder responder
	logger    *slog.Logger
}

func NewPatientHandler(service patientService, logger *slog.Logger) *PatientHandler {
	base := defaultLogger(logger)
	return &PatientHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PatientHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PatientHandler", operation, attrs...)
}

// Register handles public self-registration. It is the only patient endpoint
// reachable without a session.
func (h *PatientHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req registerPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode registration", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Register")

	patient, err := h.service.RegisterPatient(r.Context(), application.RegisterPatientParams{
		Name:   req.Name,
		Phone:  req.Phone,
		Email:  req.Email,
		Gender: strings.ToLower(strings.TrimSpace(req.Gender)),
		DOB:    strings.TrimSpace(req.DOB),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("patient_id", patient.ID).InfoContext(r.Context(), "patient registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, patientResponse{Patient: toPatientDTO(patient)})
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	patients, err := h.service.ListPatients(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "patient list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(patients)).InfoContext(r.Context(), "patients listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPatientsResponse{Patients: toPatientDTOs(patients)})
}

// Lookup finds a patient by exact phone number, for front desk bookings. The
// response includes the patient's appointment history with doctor names.
func (h *PatientHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	logger := h.log(r.Context(), "Lookup", "principal_id", principal.UserID)

	result, err := h.service.LookupByPhone(r.Context(), principal, phone)
	if err != nil {
		logger.ErrorContext(r.Context(), "patient lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, lookupResponse{
		Patient: toPatientDTO(result.Patient),
		History: toAppointmentViewDTOs(result.History),
	})
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	patientID, ok := PatientIDFromContext(r.Context())
	if !ok {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing patient id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPatientID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "patient_id", patientID)

	patient, err := h.service.GetPatient(r.Context(), principal, patientID)
	if err != nil {
		logger.ErrorContext(r.Context(), "patient fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, patientResponse{Patient: toPatientDTO(patient)})
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	patientID, ok := PatientIDFromContext(r.Context())
	if !ok {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing patient id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPatientID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req updatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "patient_id", patientID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode patient update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "patient_id", patientID)

	patient, err := h.service.UpdatePatient(r.Context(), principal, application.UpdatePatientParams{
		PatientID: patientID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Gender:    req.Gender,
		DOB:       req.DOB,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "patient update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "patient updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, patientResponse{Patient: toPatientDTO(patient)})
}

func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	patientID, ok := PatientIDFromContext(r.Context())
	if !ok {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing patient id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPatientID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "patient_id", patientID)

	if err := h.service.DeletePatient(r.Context(), principal, patientID); err != nil {
		logger.ErrorContext(r.Context(), "patient delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "patient deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type registerPatientRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Gender string `json:"gender"`
	DOB    string `json:"dob"`
}

type updatePatientRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Email  *string `json:"email"`
	Gender *string `json:"gender"`
	DOB    *string `json:"dob"`
}

type patientDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Gender    string `json:"gender"`
	DOB       string `json:"dob"`
	CreatedAt string `json:"created_at"`
}

type patientResponse struct {
	Patient patientDTO `json:"patient"`
}

type listPatientsResponse struct {
	Patients []patientDTO `json:"patients"`
}

type lookupResponse struct {
	Patient patientDTO           `json:"patient"`
	History []appointmentViewDTO `json:"history"`
}

func toPatientDTO(patient persistence.Patient) patientDTO {
	return patientDTO{
		ID:        patient.ID,
		Name:      patient.Name,
		Phone:     patient.Phone,
		Email:     patient.Email,
		Gender:    patient.Gender,
		DOB:       patient.DOB,
		CreatedAt: patient.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toPatientDTOs(patients []persistence.Patient) []patientDTO {
	if len(patients) == 0 {
		return nil
	}
	out := make([]patientDTO, 0, len(patients))
	for _, patient := range patients {
		out = append(out, toPatientDTO(patient))
	}
	return out
}
