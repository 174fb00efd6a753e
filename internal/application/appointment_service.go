package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/clinic-portal/internal/persistence"
	"github.com/example/clinic-portal/internal/scheduler"
)

const dateLayout = "2006-01-02"

// idRetryLimit bounds how many times a generated appointment id is bumped
// when it collides with an existing record.
const idRetryLimit = 16

// AppointmentService implements booking, rescheduling and lifecycle
// transitions for appointments, including the two-phase propose/commit flow.
type AppointmentService struct {
	appointments   persistence.AppointmentRepository
	doctors        persistence.DoctorRepository
	patients       persistence.PatientRepository
	proposals      *proposalCache
	slotInterval   int
	idGenerator    func() int64
	tokenGenerator func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAppointmentService wires an AppointmentService. Nil generator and clock
// arguments fall back to production defaults.
func NewAppointmentService(
	appointments persistence.AppointmentRepository,
	doctors persistence.DoctorRepository,
	patients persistence.PatientRepository,
	slotInterval int,
	proposalTTL time.Duration,
	idGenerator func() int64,
	tokenGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *AppointmentService {
	if slotInterval <= 0 {
		slotInterval = 30
	}
	if idGenerator == nil {
		idGenerator = func() int64 { return time.Now().UnixMilli() }
	}
	if tokenGenerator == nil {
		tokenGenerator = defaultTokenGenerator
	}
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{
		appointments:   appointments,
		doctors:        doctors,
		patients:       patients,
		proposals:      newProposalCache(proposalTTL, 0, now),
		slotInterval:   slotInterval,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

// AvailableSlots returns the open slot times for a doctor on a date, in shift
// order. A doctor with an evening shift wraps past midnight, so the returned
// times are not globally sorted.
func (s *AppointmentService) AvailableSlots(ctx context.Context, doctorID int64, date string) ([]string, error) {
	logger := serviceLogger(ctx, s.logger, "appointment_service", "available_slots", "doctor_id", doctorID, "date", date)

	if _, err := time.Parse(dateLayout, date); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be in YYYY-MM-DD format")
		return nil, vErr
	}

	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error("failed to load doctor", "error", err)
		return nil, err
	}

	start, end, err := doctorWindow(doctor)
	if err != nil {
		logger.Error("doctor has malformed shift timings", "error", err)
		return nil, err
	}

	existing, err := s.doctorDayBookings(ctx, doctorID, date)
	if err != nil {
		logger.Error("failed to load appointments", "error", err)
		return nil, err
	}

	candidates := scheduler.GenerateSlots(start, end, s.slotInterval)
	open := scheduler.AvailableSlots(candidates, doctorID, date, existing, 0)

	formatted := make([]string, 0, len(open))
	for _, slot := range open {
		formatted = append(formatted, slot.String())
	}
	return formatted, nil
}

// BookAppointment validates and creates a new scheduled appointment.
func (s *AppointmentService) BookAppointment(ctx context.Context, principal Principal, params BookAppointmentParams) (persistence.Appointment, error) {
	logger := serviceLogger(ctx, s.logger, "appointment_service", "book", "doctor_id", params.DoctorID, "date", params.Date, "time", params.Time)

	normalized, err := s.normalizeBooking(principal, params)
	if err != nil {
		return persistence.Appointment{}, err
	}

	doctor, err := s.validateBooking(ctx, logger, normalized)
	if err != nil {
		return persistence.Appointment{}, err
	}

	appointment, err := s.commitBooking(ctx, logger, doctor, normalized)
	if err != nil {
		return persistence.Appointment{}, err
	}

	logger.Info("appointment booked", "appointment_id", appointment.ID, "patient_id", appointment.PatientID)
	return appointment, nil
}

// ProposeBooking validates a booking and parks it behind a short-lived token.
// The slot is not reserved; availability is re-checked at commit time.
func (s *AppointmentService) ProposeBooking(ctx context.Context, principal Principal, params BookAppointmentParams) (BookingProposal, error) {
	logger := serviceLogger(ctx, s.logger, "appointment_service", "propose", "doctor_id", params.DoctorID, "date", params.Date, "time", params.Time)

	normalized, err := s.normalizeBooking(principal, params)
	if err != nil {
		return BookingProposal{}, err
	}
	if _, err := s.validateBooking(ctx, logger, normalized); err != nil {
		return BookingProposal{}, err
	}

	token := s.tokenGenerator()
	expiresAt := s.proposals.Store(token, normalized, principal)
	logger.Info("booking proposed", "expires_at", expiresAt)
	return BookingProposal{Token: token, ExpiresAt: expiresAt}, nil
}

// CommitBooking finalises a previously proposed booking. Availability is
// verified again so a slot taken between propose and commit is rejected.
func (s *AppointmentService) CommitBooking(ctx context.Context, principal Principal, token string) (persistence.Appointment, error) {
	logger := serviceLogger(ctx, s.logger, "appointment_service", "commit")

	params, owner, ok := s.proposals.Take(token)
	if !ok {
		logger.Warn("booking commit rejected", "error_kind", ErrorKind(ErrProposalExpired))
		return persistence.Appointment{}, ErrProposalExpired
	}
	if owner.Role != principal.Role || owner.UserID != principal.UserID {
		return persistence.Appointment{}, ErrUnauthorized
	}

	doctor, err := s.validateBooking(ctx, logger, params)
	if err != nil {
		return persistence.Appointment{}, err
	}

	appointment, err := s.commitBooking(ctx, logger, doctor, params)
	if err != nil {
		return persistence.Appointment{}, err
	}

	logger.Info("appointment booked", "appointment_id", appointment.ID, "patient_id", appointment.PatientID)
	return appointment, nil
}

// RescheduleAppointment moves a scheduled appointment to a new slot with the
// same doctor. The appointment's own slot never blocks the move.
func (s *AppointmentService) RescheduleAppointment(ctx context.Context, principal Principal, params RescheduleAppointmentParams) (persistence.Appointment, error) {
	logger := serviceLogger(ctx, s.logger, "appointment_service", "reschedule", "appointment_id", params.AppointmentID)

	appointment, err := s.getOwned(ctx, principal, params.AppointmentID, false)
	if err != nil {
		return persistence.Appointment{}, err
	}

	if appointment.Status != persistence.StatusScheduled {
		vErr := &ValidationError{}
		vErr.add("status", "only scheduled appointments can be rescheduled")
		logger.Warn("reschedule rejected", "error_kind", ErrorKind(vErr))
		return persistence.Appointment{}, vErr
	}

	doctor, err := s.doctors.GetDoctor(ctx, appointment.DoctorID)
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Appointment{}, ErrNotFound
	}
	if err != nil {
		return persistence.Appointment{}, err
	}

	vErr, err := s.slotErrors(doctor, params.Date, params.Time)
	if err != nil {
		return persistence.Appointment{}, err
	}
	if vErr.HasErrors() {
		logger.Warn("reschedule rejected", "error_kind", ErrorKind(vErr))
		return persistence.Appointment{}, vErr
	}

	slot, _ := scheduler.ParseTimeOfDay(params.Time)
	existing, err := s.doctorDayBookings(ctx, appointment.DoctorID, params.Date)
	if err != nil {
		return persistence.Appointment{}, err
	}
	if scheduler.SlotTaken(existing, appointment.DoctorID, params.Date, slot, appointment.ID) {
		logger.Warn("reschedule rejected", "error_kind", ErrorKind(ErrSlotTaken))
		return persistence.Appointment{}, ErrSlotTaken
	}

	appointment.Date = params.Date
	appointment.Time = slot.String()
	if params.Reason != "" {
		appointment.Reason = params.Reason
	}
	err = s.appointments.UpdateAppointment(ctx, appointment)
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Appointment{}, ErrNotFound
	}
	if errors.Is(err, persistence.ErrSlotTaken) {
		logger.Warn("reschedule rejected", "error_kind", ErrorKind(ErrSlotTaken))
		return persistence.Appointment{}, ErrSlotTaken
	}
	if err != nil {
		logger.Error("failed to update appointment", "error", err)
		return persistence.Appointment{}, err
	}

	logger.Info("appointment rescheduled", "date", appointment.Date, "time", appointment.Time)
	return appointment, nil
}

// UpdateAppointmentStatus applies a lifecycle transition. Scheduled
// appointments may be completed or cancelled; completed and cancelled are
// terminal.
func (s *AppointmentService) UpdateAppointmentStatus(ctx context.Context, principal Principal, appointmentID int64, status persistence.AppointmentStatus) (persistence.Appointment, error) {
	logger := serviceLogger(ctx, s.logger, "appointment_service", "update_status", "appointment_id", appointmentID, "status", status)

	if !status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", fmt.Sprintf("unknown status %q", status))
		return persistence.Appointment{}, vErr
	}

	allowDoctor := status == persistence.StatusCompleted || status == persistence.StatusCancelled
	appointment, err := s.getOwned(ctx, principal, appointmentID, allowDoctor)
	if err != nil {
		return persistence.Appointment{}, err
	}

	// Completing an appointment is a clinical action, not a patient one.
	if principal.Role == RolePatient && status == persistence.StatusCompleted {
		return persistence.Appointment{}, ErrUnauthorized
	}

	if appointment.Status != persistence.StatusScheduled || status == persistence.StatusScheduled {
		vErr := &ValidationError{}
		vErr.add("status", fmt.Sprintf("cannot change a %s appointment to %s", appointment.Status, status))
		logger.Warn("status change rejected", "error_kind", ErrorKind(vErr))
		return persistence.Appointment{}, vErr
	}

	appointment.Status = status
	err = s.appointments.UpdateAppointment(ctx, appointment)
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Appointment{}, ErrNotFound
	}
	if errors.Is(err, persistence.ErrSlotTaken) {
		return persistence.Appointment{}, ErrSlotTaken
	}
	if err != nil {
		logger.Error("failed to update appointment", "error", err)
		return persistence.Appointment{}, err
	}

	logger.Info("appointment status changed", "status", appointment.Status)
	return appointment, nil
}

// CancelAppointment transitions a scheduled appointment to cancelled, freeing
// its slot for other bookings.
func (s *AppointmentService) CancelAppointment(ctx context.Context, principal Principal, appointmentID int64) (persistence.Appointment, error) {
	return s.UpdateAppointmentStatus(ctx, principal, appointmentID, persistence.StatusCancelled)
}

// DeleteAppointment removes an appointment record outright. Admin only;
// everyone else cancels instead.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, principal Principal, appointmentID int64) error {
	logger := serviceLogger(ctx, s.logger, "appointment_service", "delete", "appointment_id", appointmentID)

	if principal.Role != RoleAdmin {
		return ErrUnauthorized
	}

	err := s.appointments.DeleteAppointment(ctx, appointmentID)
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		logger.Error("failed to delete appointment", "error", err)
		return err
	}

	logger.Info("appointment deleted")
	return nil
}

// GetAppointment returns a single appointment the principal may see.
func (s *AppointmentService) GetAppointment(ctx context.Context, principal Principal, appointmentID int64) (persistence.Appointment, error) {
	return s.getOwned(ctx, principal, appointmentID, true)
}

// ListAppointments returns appointments scoped to the principal. Patients and
// doctors only ever see their own records regardless of the requested filter.
func (s *AppointmentService) ListAppointments(ctx context.Context, principal Principal, params ListAppointmentsParams) ([]persistence.Appointment, error) {
	logger := serviceLogger(ctx, s.logger, "appointment_service", "list")

	filter := persistence.AppointmentFilter{
		DoctorID:  params.DoctorID,
		PatientID: params.PatientID,
		Date:      params.Date,
		Status:    params.Status,
	}
	switch principal.Role {
	case RoleAdmin:
	case RoleDoctor:
		id := principal.UserID
		filter.DoctorID = &id
	case RolePatient:
		id := principal.UserID
		filter.PatientID = &id
	default:
		return nil, ErrUnauthorized
	}

	appointments, err := s.appointments.ListAppointments(ctx, filter)
	if err != nil {
		logger.Error("failed to list appointments", "error", err)
		return nil, err
	}
	return appointments, nil
}

// normalizeBooking fills the patient id for self-service bookings and rejects
// roles that may not book at all.
func (s *AppointmentService) normalizeBooking(principal Principal, params BookAppointmentParams) (BookAppointmentParams, error) {
	switch principal.Role {
	case RolePatient:
		params.PatientID = principal.UserID
	case RoleAdmin:
	default:
		return BookAppointmentParams{}, ErrUnauthorized
	}
	return params, nil
}

// validateBooking runs the structural and temporal checks plus the
// availability check, returning the resolved doctor on success.
func (s *AppointmentService) validateBooking(ctx context.Context, logger *slog.Logger, params BookAppointmentParams) (persistence.Doctor, error) {
	doctor, err := s.doctors.GetDoctor(ctx, params.DoctorID)
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Doctor{}, ErrNotFound
	}
	if err != nil {
		logger.Error("failed to load doctor", "error", err)
		return persistence.Doctor{}, err
	}

	if _, err := s.patients.GetPatient(ctx, params.PatientID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Doctor{}, ErrNotFound
		}
		logger.Error("failed to load patient", "error", err)
		return persistence.Doctor{}, err
	}

	vErr, err := s.slotErrors(doctor, params.Date, params.Time)
	if err != nil {
		return persistence.Doctor{}, err
	}
	if params.Reason == "" {
		vErr.add("reason", "reason for the visit is required")
	}
	if vErr.HasErrors() {
		logger.Warn("booking rejected", "error_kind", ErrorKind(vErr))
		return persistence.Doctor{}, vErr
	}

	slot, _ := scheduler.ParseTimeOfDay(params.Time)
	existing, err := s.doctorDayBookings(ctx, params.DoctorID, params.Date)
	if err != nil {
		logger.Error("failed to load appointments", "error", err)
		return persistence.Doctor{}, err
	}
	if scheduler.SlotTaken(existing, params.DoctorID, params.Date, slot, 0) {
		logger.Warn("booking rejected", "error_kind", ErrorKind(ErrSlotTaken))
		return persistence.Doctor{}, ErrSlotTaken
	}
	return doctor, nil
}

// slotErrors collects every date and time issue for a target slot: format,
// calendar-day temporal ordering, shift window membership and grid alignment.
// The second return is reserved for infrastructure failures.
func (s *AppointmentService) slotErrors(doctor persistence.Doctor, date, timeOfDay string) (*ValidationError, error) {
	vErr := &ValidationError{}

	if _, err := time.Parse(dateLayout, date); err != nil {
		vErr.add("date", "date must be in YYYY-MM-DD format")
	} else if date < s.now().Format(dateLayout) {
		vErr.add("date", "date must be today or later")
	}

	slot, err := scheduler.ParseTimeOfDay(timeOfDay)
	if err != nil {
		vErr.add("time", "time must be in HH:MM format")
	} else {
		start, end, werr := doctorWindow(doctor)
		if werr != nil {
			return nil, werr
		}
		if !scheduler.ContainsSlot(start, end, s.slotInterval, slot) {
			vErr.add("time", fmt.Sprintf("time %s is outside the doctor's %s to %s shift", slot, start, end))
		}
	}
	return vErr, nil
}

// commitBooking creates the appointment record, bumping the generated id on
// the rare collision.
func (s *AppointmentService) commitBooking(ctx context.Context, logger *slog.Logger, doctor persistence.Doctor, params BookAppointmentParams) (persistence.Appointment, error) {
	slot, err := scheduler.ParseTimeOfDay(params.Time)
	if err != nil {
		return persistence.Appointment{}, err
	}

	appointment := persistence.Appointment{
		ID:        s.idGenerator(),
		PatientID: params.PatientID,
		DoctorID:  doctor.ID,
		Date:      params.Date,
		Time:      slot.String(),
		Reason:    params.Reason,
		Status:    persistence.StatusScheduled,
		CreatedAt: s.now(),
	}

	for attempt := 0; attempt < idRetryLimit; attempt++ {
		err := s.appointments.CreateAppointment(ctx, appointment)
		if errors.Is(err, persistence.ErrDuplicate) {
			appointment.ID++
			continue
		}
		// The store re-checks the slot under its own lock, closing the race
		// between this service's availability check and the insert.
		if errors.Is(err, persistence.ErrSlotTaken) {
			logger.Warn("booking rejected", "error_kind", ErrorKind(ErrSlotTaken))
			return persistence.Appointment{}, ErrSlotTaken
		}
		if err != nil {
			logger.Error("failed to create appointment", "error", err)
			return persistence.Appointment{}, err
		}
		return appointment, nil
	}
	return persistence.Appointment{}, fmt.Errorf("application: could not allocate appointment id after %d attempts", idRetryLimit)
}

// getOwned loads an appointment and enforces visibility: admins see
// everything, patients their own, doctors theirs when allowDoctor is set.
func (s *AppointmentService) getOwned(ctx context.Context, principal Principal, appointmentID int64, allowDoctor bool) (persistence.Appointment, error) {
	appointment, err := s.appointments.GetAppointment(ctx, appointmentID)
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Appointment{}, ErrNotFound
	}
	if err != nil {
		return persistence.Appointment{}, err
	}

	switch principal.Role {
	case RoleAdmin:
		return appointment, nil
	case RolePatient:
		if appointment.PatientID == principal.UserID {
			return appointment, nil
		}
	case RoleDoctor:
		if allowDoctor && appointment.DoctorID == principal.UserID {
			return appointment, nil
		}
	}
	return persistence.Appointment{}, ErrUnauthorized
}

func (s *AppointmentService) doctorDayBookings(ctx context.Context, doctorID int64, date string) ([]scheduler.Booking, error) {
	filter := persistence.AppointmentFilter{DoctorID: &doctorID, Date: &date}
	appointments, err := s.appointments.ListAppointments(ctx, filter)
	if err != nil {
		return nil, err
	}

	bookings := make([]scheduler.Booking, 0, len(appointments))
	for _, appointment := range appointments {
		slot, err := scheduler.ParseTimeOfDay(appointment.Time)
		if err != nil {
			continue
		}
		bookings = append(bookings, scheduler.Booking{
			ID:       appointment.ID,
			DoctorID: appointment.DoctorID,
			Date:     appointment.Date,
			Time:     slot,
			Status:   scheduler.BookingStatus(appointment.Status),
		})
	}
	return bookings, nil
}

func doctorWindow(doctor persistence.Doctor) (scheduler.TimeOfDay, scheduler.TimeOfDay, error) {
	start, err := scheduler.ParseTimeOfDay(doctor.Timings.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("application: doctor %d start time: %w", doctor.ID, err)
	}
	end, err := scheduler.ParseTimeOfDay(doctor.Timings.End)
	if err != nil {
		return 0, 0, fmt.Errorf("application: doctor %d end time: %w", doctor.ID, err)
	}
	return start, end, nil
}
