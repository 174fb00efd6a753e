package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/clinic-portal/internal/application"
)

type dashboardService interface {
	AdminDashboard(ctx context.Context, principal application.Principal) (application.AdminDashboard, error)
	DoctorDashboard(ctx context.Context, principal application.Principal, doctorID int64) (application.DoctorDashboard, error)
	PatientDashboard(ctx context.Context, principal application.Principal, patientID int64) (application.PatientDashboard, error)
}

type DashboardHandler struct {
	service   dashboardService
	responder responder
	logger    *slog.Logger
}

func NewDashboardHandler(service dashboardService, logger *slog.Logger) *DashboardHandler {
	base := defaultLogger(logger)
	return &DashboardHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DashboardHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DashboardHandler", operation, attrs...)
}

func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Admin", "principal_id", principal.UserID)

	dashboard, err := h.service.AdminDashboard(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "admin dashboard failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAdminDashboardDTO(dashboard))
}

func (h *DashboardHandler) Doctor(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	doctorID, err := optionalID(r, "doctor_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDoctorID)
		return
	}

	logger := h.log(r.Context(), "Doctor", "principal_id", principal.UserID, "doctor_id", doctorID)

	dashboard, err := h.service.DoctorDashboard(r.Context(), principal, doctorID)
	if err != nil {
		logger.ErrorContext(r.Context(), "doctor dashboard failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, doctorDashboardDTO{
		Today:          toAppointmentViewDTOs(dashboard.Today),
		Upcoming:       toAppointmentViewDTOs(dashboard.Upcoming),
		TodayCount:     dashboard.TodayCount,
		WeekCount:      dashboard.WeekCount,
		CompletedToday: dashboard.CompletedToday,
	})
}

func (h *DashboardHandler) Patient(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	patientID, err := optionalID(r, "patient_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPatientID)
		return
	}

	logger := h.log(r.Context(), "Patient", "principal_id", principal.UserID, "patient_id", patientID)

	dashboard, err := h.service.PatientDashboard(r.Context(), principal, patientID)
	if err != nil {
		logger.ErrorContext(r.Context(), "patient dashboard failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, patientDashboardDTO{
		Upcoming:       toAppointmentViewDTOs(dashboard.Upcoming),
		Past:           toAppointmentViewDTOs(dashboard.Past),
		CompletedCount: dashboard.CompletedCount,
	})
}

func optionalID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

type appointmentViewDTO struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Reason       string `json:"reason"`
	Status       string `json:"status"`
	DoctorID     int64  `json:"doctor_id"`
	DoctorName   string `json:"doctor_name"`
	Specialty    string `json:"specialty"`
	PatientID    int64  `json:"patient_id"`
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone,omitempty"`
}

type doctorLoadDTO struct {
	DoctorID   int64  `json:"doctor_id"`
	DoctorName string `json:"doctor_name"`
	Specialty  string `json:"specialty"`
	Count      int    `json:"count"`
}

type monthCountDTO struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type adminDashboardDTO struct {
	TotalAppointments int                  `json:"total_appointments"`
	TotalPatients     int                  `json:"total_patients"`
	TotalDoctors      int                  `json:"total_doctors"`
	TodayAppointments int                  `json:"today_appointments"`
	Today             []appointmentViewDTO `json:"today"`
	UpcomingWeek      []appointmentViewDTO `json:"upcoming_week"`
	StatusCounts      map[string]int       `json:"status_counts"`
	PerDoctor         []doctorLoadDTO      `json:"per_doctor"`
	PerSpecialty      map[string]int       `json:"per_specialty"`
	MonthlyTrend      []monthCountDTO      `json:"monthly_trend"`
	TopDoctors        []doctorLoadDTO      `json:"top_doctors"`
}

type doctorDashboardDTO struct {
	Today          []appointmentViewDTO `json:"today"`
	Upcoming       []appointmentViewDTO `json:"upcoming"`
	TodayCount     int                  `json:"today_count"`
	WeekCount      int                  `json:"week_count"`
	CompletedToday int                  `json:"completed_today"`
}

type patientDashboardDTO struct {
	Upcoming       []appointmentViewDTO `json:"upcoming"`
	Past           []appointmentViewDTO `json:"past"`
	CompletedCount int                  `json:"completed_count"`
}

func toAdminDashboardDTO(dashboard application.AdminDashboard) adminDashboardDTO {
	statusCounts := make(map[string]int, len(dashboard.StatusCounts))
	for status, count := range dashboard.StatusCounts {
		statusCounts[string(status)] = count
	}

	trend := make([]monthCountDTO, 0, len(dashboard.MonthlyTrend))
	for _, month := range dashboard.MonthlyTrend {
		trend = append(trend, monthCountDTO{Month: month.Month, Count: month.Count})
	}

	return adminDashboardDTO{
		TotalAppointments: dashboard.TotalAppointments,
		TotalPatients:     dashboard.TotalPatients,
		TotalDoctors:      dashboard.TotalDoctors,
		TodayAppointments: dashboard.TodayAppointments,
		Today:             toAppointmentViewDTOs(dashboard.Today),
		UpcomingWeek:      toAppointmentViewDTOs(dashboard.UpcomingWeek),
		StatusCounts:      statusCounts,
		PerDoctor:         toDoctorLoadDTOs(dashboard.PerDoctor),
		PerSpecialty:      dashboard.PerSpecialty,
		MonthlyTrend:      trend,
		TopDoctors:        toDoctorLoadDTOs(dashboard.TopDoctors),
	}
}

func toDoctorLoadDTOs(loads []application.DoctorLoad) []doctorLoadDTO {
	if len(loads) == 0 {
		return nil
	}
	out := make([]doctorLoadDTO, 0, len(loads))
	for _, load := range loads {
		out = append(out, doctorLoadDTO{
			DoctorID:   load.DoctorID,
			DoctorName: load.DoctorName,
			Specialty:  load.Specialty,
			Count:      load.Count,
		})
	}
	return out
}

func toAppointmentViewDTOs(views []application.AppointmentView) []appointmentViewDTO {
	if len(views) == 0 {
		return nil
	}
	out := make([]appointmentViewDTO, 0, len(views))
	for _, view := range views {
		out = append(out, appointmentViewDTO{
			ID:           view.ID,
			Date:         view.Date,
			Time:         view.Time,
			Reason:       view.Reason,
			Status:       string(view.Status),
			DoctorID:     view.DoctorID,
			DoctorName:   view.DoctorName,
			Specialty:    view.Specialty,
			PatientID:    view.PatientID,
			PatientName:  view.PatientName,
			PatientPhone: view.PatientPhone,
		})
	}
	return out
}
