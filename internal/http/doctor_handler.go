package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-portal/internal/application"
	"github.com/example/clinic-portal/internal/persistence"
)

type doctorService interface {
	ListDoctors(ctx context.Context) ([]persistence.Doctor, error)
	GetDoctor(ctx context.Context, doctorID int64) (persistence.Doctor, error)
}

type slotService interface {
	AvailableSlots(ctx context.Context, doctorID int64, date string) ([]string, error)
}

type DoctorHandler struct {
	service   doctorService
	slots     slotService
	responder responder
	logger    *slog.Logger
}

func NewDoctorHandler(service doctorService, slots slotService, logger *slog.Logger) *DoctorHandler {
	base := defaultLogger(logger)
	return &DoctorHandler{service: service, slots: slots, responder: newResponder(base), logger: base}
}

func (h *DoctorHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DoctorHandler", operation, attrs...)
}

func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	doctors, err := h.service.ListDoctors(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "doctor list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(doctors)).InfoContext(r.Context(), "doctors listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listDoctorsResponse{Doctors: toDoctorDTOs(doctors)})
}

func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	doctorID, ok := DoctorIDFromContext(r.Context())
	if !ok {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing doctor id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDoctorID)
		return
	}

	logger := h.log(r.Context(), "Get", "doctor_id", doctorID)
	doctor, err := h.service.GetDoctor(r.Context(), doctorID)
	if err != nil {
		logger.ErrorContext(r.Context(), "doctor fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, doctorResponse{Doctor: toDoctorDTO(doctor)})
}

func (h *DoctorHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.slots == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	doctorID, ok := DoctorIDFromContext(r.Context())
	if !ok {
		h.log(r.Context(), "Slots", "error_kind", "bad_request").ErrorContext(r.Context(), "missing doctor id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDoctorID)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	logger := h.log(r.Context(), "Slots", "doctor_id", doctorID, "date", date)

	slots, err := h.slots.AvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "slot lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(slots)).InfoContext(r.Context(), "slots listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotsResponse{Date: date, Slots: slots})
}

type doctorDTO struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Specialty     string `json:"specialty"`
	Shift         string `json:"shift"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Experience    int    `json:"experience"`
	Qualification string `json:"qualification"`
}

type doctorResponse struct {
	Doctor doctorDTO `json:"doctor"`
}

type listDoctorsResponse struct {
	Doctors []doctorDTO `json:"doctors"`
}

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

func toDoctorDTO(doctor persistence.Doctor) doctorDTO {
	return doctorDTO{
		ID:            doctor.ID,
		Name:          doctor.Name,
		Specialty:     doctor.Specialty,
		Shift:         string(doctor.Shift),
		Start:         doctor.Timings.Start,
		End:           doctor.Timings.End,
		Experience:    doctor.Experience,
		Qualification: doctor.Qualification,
	}
}

func toDoctorDTOs(doctors []persistence.Doctor) []doctorDTO {
	if len(doctors) == 0 {
		return nil
	}
	out := make([]doctorDTO, 0, len(doctors))
	for _, doctor := range doctors {
		out = append(out, toDoctorDTO(doctor))
	}
	return out
}
