package application

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/example/clinic-portal/internal/persistence"
)

// Placeholder names keep dashboards rendering when a referenced record has
// been deleted from the registry.
const (
	unknownPatientName = "Unknown patient"
	unknownDoctorName  = "Unknown doctor"
)

// monthlyTrendMonths is how far back the admin booking trend reaches,
// including the current month.
const monthlyTrendMonths = 6

// topDoctorLimit caps the busiest-doctors list on the admin dashboard.
const topDoctorLimit = 5

// AppointmentView is an appointment joined with the names a dashboard needs.
type AppointmentView struct {
	ID           int64
	Date         string
	Time         string
	Reason       string
	Status       persistence.AppointmentStatus
	DoctorID     int64
	DoctorName   string
	Specialty    string
	PatientID    int64
	PatientName  string
	PatientPhone string
}

// DoctorLoad is one doctor's appointment volume.
type DoctorLoad struct {
	DoctorID   int64
	DoctorName string
	Specialty  string
	Count      int
}

// MonthCount is the booking volume of one calendar month.
type MonthCount struct {
	Month string // YYYY-MM
	Count int
}

// AdminDashboard aggregates clinic-wide activity.
type AdminDashboard struct {
	TotalAppointments int
	TotalPatients     int
	TotalDoctors      int
	TodayAppointments int
	Today             []AppointmentView
	UpcomingWeek      []AppointmentView
	StatusCounts      map[persistence.AppointmentStatus]int
	PerDoctor         []DoctorLoad
	PerSpecialty      map[string]int
	MonthlyTrend      []MonthCount
	TopDoctors        []DoctorLoad
}

// DoctorDashboard summarises one doctor's day and week.
type DoctorDashboard struct {
	Today          []AppointmentView
	Upcoming       []AppointmentView
	TodayCount     int
	WeekCount      int
	CompletedToday int
}

// PatientDashboard splits a patient's appointments into upcoming and past.
type PatientDashboard struct {
	Upcoming       []AppointmentView
	Past           []AppointmentView
	CompletedCount int
}

// DashboardService computes the role-specific dashboard aggregates.
type DashboardService struct {
	appointments persistence.AppointmentRepository
	patients     persistence.PatientRepository
	doctors      persistence.DoctorRepository
	now          func() time.Time
	logger       *slog.Logger
}

func NewDashboardService(
	appointments persistence.AppointmentRepository,
	patients persistence.PatientRepository,
	doctors persistence.DoctorRepository,
	now func() time.Time,
	logger *slog.Logger,
) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		appointments: appointments,
		patients:     patients,
		doctors:      doctors,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// AdminDashboard builds the clinic-wide view. Admin only.
func (s *DashboardService) AdminDashboard(ctx context.Context, principal Principal) (AdminDashboard, error) {
	logger := serviceLogger(ctx, s.logger, "dashboard_service", "admin")

	if principal.Role != RoleAdmin {
		return AdminDashboard{}, ErrUnauthorized
	}

	appointments, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{})
	if err != nil {
		logger.Error("failed to list appointments", "error", err)
		return AdminDashboard{}, err
	}
	patients, err := s.patients.ListPatients(ctx)
	if err != nil {
		logger.Error("failed to list patients", "error", err)
		return AdminDashboard{}, err
	}
	doctors, err := s.doctors.ListDoctors(ctx)
	if err != nil {
		logger.Error("failed to list doctors", "error", err)
		return AdminDashboard{}, err
	}

	today := s.now().Format(dateLayout)
	weekAhead := s.now().AddDate(0, 0, 7).Format(dateLayout)
	dashboard := AdminDashboard{
		TotalAppointments: len(appointments),
		TotalPatients:     len(patients),
		TotalDoctors:      len(doctors),
		StatusCounts:      make(map[persistence.AppointmentStatus]int),
		PerSpecialty:      make(map[string]int),
	}

	doctorsByID := make(map[int64]persistence.Doctor, len(doctors))
	for _, doctor := range doctors {
		doctorsByID[doctor.ID] = doctor
	}

	perDoctor := make(map[int64]int)
	for _, appointment := range appointments {
		dashboard.StatusCounts[appointment.Status]++
		if appointment.Date == today {
			dashboard.TodayAppointments++
		}
		if appointment.Status == persistence.StatusScheduled {
			if appointment.Date == today {
				dashboard.Today = append(dashboard.Today, s.view(ctx, appointment))
			} else if appointment.Date > today && appointment.Date <= weekAhead {
				dashboard.UpcomingWeek = append(dashboard.UpcomingWeek, s.view(ctx, appointment))
			}
		}
		perDoctor[appointment.DoctorID]++
		if doctor, ok := doctorsByID[appointment.DoctorID]; ok {
			dashboard.PerSpecialty[doctor.Specialty]++
		}
	}

	for _, doctor := range doctors {
		dashboard.PerDoctor = append(dashboard.PerDoctor, DoctorLoad{
			DoctorID:   doctor.ID,
			DoctorName: doctor.Name,
			Specialty:  doctor.Specialty,
			Count:      perDoctor[doctor.ID],
		})
	}

	dashboard.TopDoctors = topDoctors(dashboard.PerDoctor)
	dashboard.MonthlyTrend = monthlyTrend(appointments, s.now())
	return dashboard, nil
}

// DoctorDashboard builds one doctor's view. Doctors always see their own;
// admins may inspect any doctor.
func (s *DashboardService) DoctorDashboard(ctx context.Context, principal Principal, doctorID int64) (DoctorDashboard, error) {
	logger := serviceLogger(ctx, s.logger, "dashboard_service", "doctor", "doctor_id", doctorID)

	switch principal.Role {
	case RoleDoctor:
		doctorID = principal.UserID
	case RoleAdmin:
	default:
		return DoctorDashboard{}, ErrUnauthorized
	}

	appointments, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{DoctorID: &doctorID})
	if err != nil {
		logger.Error("failed to list appointments", "error", err)
		return DoctorDashboard{}, err
	}

	now := s.now()
	today := now.Format(dateLayout)
	weekStart, weekEnd := weekBounds(now)

	var dashboard DoctorDashboard
	for _, appointment := range appointments {
		if appointment.Date == today {
			dashboard.TodayCount++
			if appointment.Status == persistence.StatusCompleted {
				dashboard.CompletedToday++
			}
			dashboard.Today = append(dashboard.Today, s.view(ctx, appointment))
		} else if appointment.Date > today && appointment.Status == persistence.StatusScheduled {
			dashboard.Upcoming = append(dashboard.Upcoming, s.view(ctx, appointment))
		}
		if appointment.Date >= weekStart && appointment.Date <= weekEnd {
			dashboard.WeekCount++
		}
	}
	return dashboard, nil
}

// PatientDashboard builds one patient's view. Patients always see their own;
// admins may inspect any patient.
func (s *DashboardService) PatientDashboard(ctx context.Context, principal Principal, patientID int64) (PatientDashboard, error) {
	logger := serviceLogger(ctx, s.logger, "dashboard_service", "patient", "patient_id", patientID)

	switch principal.Role {
	case RolePatient:
		patientID = principal.UserID
	case RoleAdmin:
	default:
		return PatientDashboard{}, ErrUnauthorized
	}

	appointments, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{PatientID: &patientID})
	if err != nil {
		logger.Error("failed to list appointments", "error", err)
		return PatientDashboard{}, err
	}

	today := s.now().Format(dateLayout)
	var dashboard PatientDashboard
	for _, appointment := range appointments {
		view := s.view(ctx, appointment)
		if appointment.Status == persistence.StatusScheduled && appointment.Date >= today {
			dashboard.Upcoming = append(dashboard.Upcoming, view)
		} else {
			dashboard.Past = append(dashboard.Past, view)
		}
		if appointment.Status == persistence.StatusCompleted {
			dashboard.CompletedCount++
		}
	}
	return dashboard, nil
}

// view joins an appointment with the doctor and patient names, degrading to
// placeholders when a referenced record no longer exists.
func (s *DashboardService) view(ctx context.Context, appointment persistence.Appointment) AppointmentView {
	view := AppointmentView{
		ID:          appointment.ID,
		Date:        appointment.Date,
		Time:        appointment.Time,
		Reason:      appointment.Reason,
		Status:      appointment.Status,
		DoctorID:    appointment.DoctorID,
		DoctorName:  unknownDoctorName,
		PatientID:   appointment.PatientID,
		PatientName: unknownPatientName,
	}

	if doctor, err := s.doctors.GetDoctor(ctx, appointment.DoctorID); err == nil {
		view.DoctorName = doctor.Name
		view.Specialty = doctor.Specialty
	} else if !errors.Is(err, persistence.ErrNotFound) {
		serviceLogger(ctx, s.logger, "dashboard_service", "view").Error("failed to load doctor", "error", err)
	}

	if patient, err := s.patients.GetPatient(ctx, appointment.PatientID); err == nil {
		view.PatientName = patient.Name
		view.PatientPhone = patient.Phone
	} else if !errors.Is(err, persistence.ErrNotFound) {
		serviceLogger(ctx, s.logger, "dashboard_service", "view").Error("failed to load patient", "error", err)
	}

	return view
}

func topDoctors(loads []DoctorLoad) []DoctorLoad {
	ranked := make([]DoctorLoad, len(loads))
	copy(ranked, loads)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].DoctorID < ranked[j].DoctorID
	})
	if len(ranked) > topDoctorLimit {
		ranked = ranked[:topDoctorLimit]
	}
	return ranked
}

// monthlyTrend counts appointments per calendar month over the trailing
// window, oldest first. Months without bookings still appear with zero.
func monthlyTrend(appointments []persistence.Appointment, now time.Time) []MonthCount {
	counts := make(map[string]int)
	for _, appointment := range appointments {
		if len(appointment.Date) >= 7 {
			counts[appointment.Date[:7]]++
		}
	}

	// Anchoring on the first of the month keeps AddDate from skipping short
	// months when the reference day is the 29th or later.
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	trend := make([]MonthCount, 0, monthlyTrendMonths)
	for i := monthlyTrendMonths - 1; i >= 0; i-- {
		month := anchor.AddDate(0, -i, 0).Format("2006-01")
		trend = append(trend, MonthCount{Month: month, Count: counts[month]})
	}
	return trend
}

// weekBounds returns the Monday and Sunday of the week containing the
// reference instant, as date strings.
func weekBounds(now time.Time) (string, string) {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := now.AddDate(0, 0, 1-weekday)
	sunday := monday.AddDate(0, 0, 6)
	return monday.Format(dateLayout), sunday.Format(dateLayout)
}
