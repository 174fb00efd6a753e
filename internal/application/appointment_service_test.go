package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/clinic-portal/internal/application"
	"github.com/example/clinic-portal/internal/persistence"
	"github.com/example/clinic-portal/internal/testfixtures"
)

type appointmentHarness struct {
	store   *testfixtures.MemoryStore
	clock   *testfixtures.Clock
	ids     *testfixtures.IDGenerator
	tokens  *testfixtures.TokenGenerator
	service *application.AppointmentService
}

func newAppointmentHarness(t *testing.T) *appointmentHarness {
	t.Helper()

	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator(5000)
	tokens := testfixtures.NewTokenGenerator("proposal")

	service := application.NewAppointmentService(
		store, store, store,
		30, 2*time.Minute,
		ids.NextFunc(), tokens.NextFunc(), clock.NowFunc(), nil,
	)
	return &appointmentHarness{store: store, clock: clock, ids: ids, tokens: tokens, service: service}
}

func (h *appointmentHarness) seed(t *testing.T, doctors []persistence.Doctor, patients []persistence.Patient, appointments []persistence.Appointment) {
	t.Helper()
	ctx := context.Background()

	if err := h.store.ReplaceDoctors(ctx, doctors); err != nil {
		t.Fatalf("seed doctors: %v", err)
	}
	for _, patient := range patients {
		if err := h.store.CreatePatient(ctx, patient); err != nil {
			t.Fatalf("seed patient %d: %v", patient.ID, err)
		}
	}
	for _, appointment := range appointments {
		if err := h.store.CreateAppointment(ctx, appointment); err != nil {
			t.Fatalf("seed appointment %d: %v", appointment.ID, err)
		}
	}
}

var (
	adminPrincipal = application.Principal{Role: application.RoleAdmin, Name: "Administrator"}

	// The fixture clock starts on 2026-03-02, so tomorrow is the 3rd.
	bookingDate = "2026-03-03"
)

func TestBookAppointment(t *testing.T) {
	t.Run("creates a scheduled record", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, nil)

		created, err := h.service.BookAppointment(context.Background(), adminPrincipal, application.BookAppointmentParams{
			PatientID: patient.ID,
			DoctorID:  1,
			Date:      bookingDate,
			Time:      "09:30",
			Reason:    "Chest pain",
		})
		if err != nil {
			t.Fatalf("BookAppointment returned error: %v", err)
		}

		if created.ID != 5001 {
			t.Fatalf("expected generated id 5001, got %d", created.ID)
		}
		if created.Status != persistence.StatusScheduled {
			t.Fatalf("expected scheduled status, got %q", created.Status)
		}
		if created.Time != "09:30" || created.Date != bookingDate {
			t.Fatalf("unexpected slot %s %s", created.Date, created.Time)
		}
		if !created.CreatedAt.Equal(h.clock.Now()) {
			t.Fatalf("expected creation timestamp %v, got %v", h.clock.Now(), created.CreatedAt)
		}

		stored, err := h.store.GetAppointment(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("stored appointment missing: %v", err)
		}
		if stored != created {
			t.Fatalf("stored record %+v differs from returned %+v", stored, created)
		}
	})

	t.Run("patient always books for themselves", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		other := testfixtures.NewPatientFixture()
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient, other}, nil)

		principal := application.Principal{Role: application.RolePatient, UserID: patient.ID}
		created, err := h.service.BookAppointment(context.Background(), principal, application.BookAppointmentParams{
			PatientID: other.ID,
			DoctorID:  1,
			Date:      bookingDate,
			Time:      "10:00",
			Reason:    "Check-up",
		})
		if err != nil {
			t.Fatalf("BookAppointment returned error: %v", err)
		}
		if created.PatientID != patient.ID {
			t.Fatalf("expected booking for patient %d, got %d", patient.ID, created.PatientID)
		}
	})

	t.Run("doctors may not book", func(t *testing.T) {
		h := newAppointmentHarness(t)
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, nil, nil)

		principal := application.Principal{Role: application.RoleDoctor, UserID: 1}
		_, err := h.service.BookAppointment(context.Background(), principal, application.BookAppointmentParams{
			PatientID: 1, DoctorID: 1, Date: bookingDate, Time: "10:00", Reason: "x",
		})
		if !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("collects every validation error", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, nil)

		_, err := h.service.BookAppointment(context.Background(), adminPrincipal, application.BookAppointmentParams{
			PatientID: patient.ID,
			DoctorID:  1,
			Date:      "2026-03-01", // yesterday
			Time:      "09:17",      // off the 30-minute grid
			Reason:    "",
		})

		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"date", "time", "reason"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected a %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects a slot outside the shift window", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, nil)

		_, err := h.service.BookAppointment(context.Background(), adminPrincipal, application.BookAppointmentParams{
			PatientID: patient.ID, DoctorID: 1, Date: bookingDate, Time: "17:00", Reason: "x",
		})

		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["time"]; !ok {
			t.Fatalf("expected a time error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects an occupied slot", func(t *testing.T) {
		for _, status := range []persistence.AppointmentStatus{persistence.StatusScheduled, persistence.StatusCompleted} {
			h := newAppointmentHarness(t)
			patient := testfixtures.NewPatientFixture()
			existing := testfixtures.ScheduledAppointment(900, 42, 1, bookingDate, "11:00")
			existing.Status = status
			h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, []persistence.Appointment{existing})

			_, err := h.service.BookAppointment(context.Background(), adminPrincipal, application.BookAppointmentParams{
				PatientID: patient.ID, DoctorID: 1, Date: bookingDate, Time: "11:00", Reason: "x",
			})
			if !errors.Is(err, application.ErrSlotTaken) {
				t.Fatalf("status %s: expected ErrSlotTaken, got %v", status, err)
			}
		}
	})

	t.Run("cancelled appointments free their slot", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		cancelled := testfixtures.ScheduledAppointment(900, 42, 1, bookingDate, "11:00")
		cancelled.Status = persistence.StatusCancelled
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, []persistence.Appointment{cancelled})

		if _, err := h.service.BookAppointment(context.Background(), adminPrincipal, application.BookAppointmentParams{
			PatientID: patient.ID, DoctorID: 1, Date: bookingDate, Time: "11:00", Reason: "x",
		}); err != nil {
			t.Fatalf("expected booking to succeed, got %v", err)
		}
	})

	t.Run("unknown doctor reports not found", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		h.seed(t, nil, []persistence.Patient{patient}, nil)

		_, err := h.service.BookAppointment(context.Background(), adminPrincipal, application.BookAppointmentParams{
			PatientID: patient.ID, DoctorID: 77, Date: bookingDate, Time: "09:00", Reason: "x",
		})
		if !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAvailableSlots(t *testing.T) {
	t.Run("excludes booked slots and keeps shift order", func(t *testing.T) {
		h := newAppointmentHarness(t)
		booked := testfixtures.ScheduledAppointment(900, 42, 1, bookingDate, "09:30")
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, nil, []persistence.Appointment{booked})

		slots, err := h.service.AvailableSlots(context.Background(), 1, bookingDate)
		if err != nil {
			t.Fatalf("AvailableSlots returned error: %v", err)
		}
		if len(slots) != 13 {
			t.Fatalf("expected 13 open slots, got %d: %v", len(slots), slots)
		}
		for _, slot := range slots {
			if slot == "09:30" {
				t.Fatalf("booked slot still offered: %v", slots)
			}
		}
		if slots[0] != "09:00" || slots[len(slots)-1] != "15:30" {
			t.Fatalf("unexpected slot bounds: %v", slots)
		}
	})

	t.Run("evening shift wraps midnight in shift order", func(t *testing.T) {
		h := newAppointmentHarness(t)
		h.seed(t, []persistence.Doctor{testfixtures.EveningDoctor(2)}, nil, nil)

		slots, err := h.service.AvailableSlots(context.Background(), 2, bookingDate)
		if err != nil {
			t.Fatalf("AvailableSlots returned error: %v", err)
		}
		if len(slots) != 16 {
			t.Fatalf("expected 16 slots, got %d: %v", len(slots), slots)
		}
		if slots[0] != "16:00" || slots[len(slots)-1] != "23:30" {
			t.Fatalf("unexpected wrap order: %v", slots)
		}
	})

	t.Run("unknown doctor reports not found", func(t *testing.T) {
		h := newAppointmentHarness(t)

		if _, err := h.service.AvailableSlots(context.Background(), 9, bookingDate); !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

// staleAppointments serves availability reads from an empty snapshot while
// writes still reach the backing store, modelling a competing booking that
// lands between the availability check and the insert.
type staleAppointments struct {
	*testfixtures.MemoryStore
}

func (s *staleAppointments) ListAppointments(context.Context, persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	return nil, nil
}

func TestBookAppointmentClosesAvailabilityRace(t *testing.T) {
	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator(5000)
	service := application.NewAppointmentService(
		&staleAppointments{MemoryStore: store}, store, store,
		30, 2*time.Minute,
		ids.NextFunc(), nil, clock.NowFunc(), nil,
	)

	ctx := context.Background()
	patient := testfixtures.NewPatientFixture()
	rival := testfixtures.NewPatientFixture()
	if err := store.ReplaceDoctors(ctx, []persistence.Doctor{testfixtures.DayDoctor(1)}); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	for _, p := range []persistence.Patient{patient, rival} {
		if err := store.CreatePatient(ctx, p); err != nil {
			t.Fatalf("seed patient %d: %v", p.ID, err)
		}
	}
	if err := store.CreateAppointment(ctx, testfixtures.ScheduledAppointment(900, rival.ID, 1, bookingDate, "09:30")); err != nil {
		t.Fatalf("seed rival booking: %v", err)
	}

	_, err := service.BookAppointment(ctx, adminPrincipal, application.BookAppointmentParams{
		PatientID: patient.ID, DoctorID: 1, Date: bookingDate, Time: "09:30", Reason: "Check-up",
	})
	if !errors.Is(err, application.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken from the store-level re-check, got %v", err)
	}

	doctorID := int64(1)
	listed, err := store.ListAppointments(ctx, persistence.AppointmentFilter{DoctorID: &doctorID, Date: &bookingDate})
	if err != nil {
		t.Fatalf("ListAppointments returned error: %v", err)
	}
	occupying := 0
	for _, appointment := range listed {
		if appointment.Time == "09:30" && appointment.Occupies() {
			occupying++
		}
	}
	if occupying != 1 {
		t.Fatalf("expected exactly one occupying booking for the slot, got %d", occupying)
	}
}

func TestRescheduleAppointment(t *testing.T) {
	t.Run("own slot never blocks the move", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		appointment := testfixtures.ScheduledAppointment(900, patient.ID, 1, bookingDate, "11:00")
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, []persistence.Appointment{appointment})

		principal := application.Principal{Role: application.RolePatient, UserID: patient.ID}
		updated, err := h.service.RescheduleAppointment(context.Background(), principal, application.RescheduleAppointmentParams{
			AppointmentID: 900, Date: bookingDate, Time: "11:00",
		})
		if err != nil {
			t.Fatalf("expected reschedule onto own slot to succeed, got %v", err)
		}
		if updated.Time != "11:00" {
			t.Fatalf("unexpected time %q", updated.Time)
		}
		if updated.Reason != "Follow-up" {
			t.Fatalf("an empty reason should keep the recorded one, got %q", updated.Reason)
		}

		updated, err = h.service.RescheduleAppointment(context.Background(), principal, application.RescheduleAppointmentParams{
			AppointmentID: 900, Date: bookingDate, Time: "11:30", Reason: "Second opinion",
		})
		if err != nil {
			t.Fatalf("RescheduleAppointment returned error: %v", err)
		}
		if updated.Reason != "Second opinion" {
			t.Fatalf("reason not replaced: %q", updated.Reason)
		}
	})

	t.Run("another booking blocks the target slot", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		mine := testfixtures.ScheduledAppointment(900, patient.ID, 1, bookingDate, "11:00")
		other := testfixtures.ScheduledAppointment(901, 42, 1, bookingDate, "11:30")
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, []persistence.Appointment{mine, other})

		principal := application.Principal{Role: application.RolePatient, UserID: patient.ID}
		_, err := h.service.RescheduleAppointment(context.Background(), principal, application.RescheduleAppointmentParams{
			AppointmentID: 900, Date: bookingDate, Time: "11:30",
		})
		if !errors.Is(err, application.ErrSlotTaken) {
			t.Fatalf("expected ErrSlotTaken, got %v", err)
		}
	})

	t.Run("terminal appointments cannot move", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		appointment := testfixtures.ScheduledAppointment(900, patient.ID, 1, bookingDate, "11:00")
		appointment.Status = persistence.StatusCancelled
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, []persistence.Appointment{appointment})

		principal := application.Principal{Role: application.RolePatient, UserID: patient.ID}
		_, err := h.service.RescheduleAppointment(context.Background(), principal, application.RescheduleAppointmentParams{
			AppointmentID: 900, Date: bookingDate, Time: "12:00",
		})

		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("strangers cannot move it", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		appointment := testfixtures.ScheduledAppointment(900, patient.ID, 1, bookingDate, "11:00")
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, []persistence.Appointment{appointment})

		principal := application.Principal{Role: application.RolePatient, UserID: patient.ID + 1}
		_, err := h.service.RescheduleAppointment(context.Background(), principal, application.RescheduleAppointmentParams{
			AppointmentID: 900, Date: bookingDate, Time: "12:00",
		})
		if !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestUpdateAppointmentStatus(t *testing.T) {
	seedOne := func(t *testing.T, h *appointmentHarness, status persistence.AppointmentStatus) persistence.Appointment {
		t.Helper()
		appointment := testfixtures.ScheduledAppointment(900, 42, 1, bookingDate, "11:00")
		appointment.Status = status
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, nil, []persistence.Appointment{appointment})
		return appointment
	}

	t.Run("doctor completes their own appointment", func(t *testing.T) {
		h := newAppointmentHarness(t)
		seedOne(t, h, persistence.StatusScheduled)

		principal := application.Principal{Role: application.RoleDoctor, UserID: 1}
		updated, err := h.service.UpdateAppointmentStatus(context.Background(), principal, 900, persistence.StatusCompleted)
		if err != nil {
			t.Fatalf("UpdateAppointmentStatus returned error: %v", err)
		}
		if updated.Status != persistence.StatusCompleted {
			t.Fatalf("expected completed, got %q", updated.Status)
		}
	})

	t.Run("patient cancels their own appointment", func(t *testing.T) {
		h := newAppointmentHarness(t)
		seedOne(t, h, persistence.StatusScheduled)

		principal := application.Principal{Role: application.RolePatient, UserID: 42}
		updated, err := h.service.CancelAppointment(context.Background(), principal, 900)
		if err != nil {
			t.Fatalf("CancelAppointment returned error: %v", err)
		}
		if updated.Status != persistence.StatusCancelled {
			t.Fatalf("expected cancelled, got %q", updated.Status)
		}
	})

	t.Run("patient cannot mark completed", func(t *testing.T) {
		h := newAppointmentHarness(t)
		seedOne(t, h, persistence.StatusScheduled)

		principal := application.Principal{Role: application.RolePatient, UserID: 42}
		_, err := h.service.UpdateAppointmentStatus(context.Background(), principal, 900, persistence.StatusCompleted)
		if !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("terminal states reject further transitions", func(t *testing.T) {
		for _, status := range []persistence.AppointmentStatus{persistence.StatusCompleted, persistence.StatusCancelled} {
			h := newAppointmentHarness(t)
			seedOne(t, h, status)

			_, err := h.service.UpdateAppointmentStatus(context.Background(), adminPrincipal, 900, persistence.StatusCancelled)
			var vErr *application.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("status %s: expected ValidationError, got %v", status, err)
			}
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		h := newAppointmentHarness(t)
		seedOne(t, h, persistence.StatusScheduled)

		_, err := h.service.UpdateAppointmentStatus(context.Background(), adminPrincipal, 900, "archived")
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestDeleteAppointment(t *testing.T) {
	h := newAppointmentHarness(t)
	appointment := testfixtures.ScheduledAppointment(900, 42, 1, bookingDate, "11:00")
	h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, nil, []persistence.Appointment{appointment})

	patient := application.Principal{Role: application.RolePatient, UserID: 42}
	if err := h.service.DeleteAppointment(context.Background(), patient, 900); !errors.Is(err, application.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for patient delete, got %v", err)
	}

	if err := h.service.DeleteAppointment(context.Background(), adminPrincipal, 900); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if err := h.service.DeleteAppointment(context.Background(), adminPrincipal, 900); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListAppointments(t *testing.T) {
	h := newAppointmentHarness(t)
	mine := testfixtures.ScheduledAppointment(900, 42, 1, bookingDate, "09:00")
	theirs := testfixtures.ScheduledAppointment(901, 43, 2, bookingDate, "16:00")
	h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1), testfixtures.EveningDoctor(2)}, nil, []persistence.Appointment{mine, theirs})

	t.Run("patients only see their own", func(t *testing.T) {
		principal := application.Principal{Role: application.RolePatient, UserID: 42}
		otherID := int64(43)
		listed, err := h.service.ListAppointments(context.Background(), principal, application.ListAppointmentsParams{PatientID: &otherID})
		if err != nil {
			t.Fatalf("ListAppointments returned error: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != 900 {
			t.Fatalf("expected only own appointment, got %+v", listed)
		}
	})

	t.Run("doctors only see their own", func(t *testing.T) {
		principal := application.Principal{Role: application.RoleDoctor, UserID: 2}
		listed, err := h.service.ListAppointments(context.Background(), principal, application.ListAppointmentsParams{})
		if err != nil {
			t.Fatalf("ListAppointments returned error: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != 901 {
			t.Fatalf("expected only doctor 2's appointment, got %+v", listed)
		}
	})

	t.Run("admins see everything", func(t *testing.T) {
		listed, err := h.service.ListAppointments(context.Background(), adminPrincipal, application.ListAppointmentsParams{})
		if err != nil {
			t.Fatalf("ListAppointments returned error: %v", err)
		}
		if len(listed) != 2 {
			t.Fatalf("expected both appointments, got %+v", listed)
		}
	})
}

func TestProposeAndCommitBooking(t *testing.T) {
	params := func(patientID int64) application.BookAppointmentParams {
		return application.BookAppointmentParams{
			PatientID: patientID, DoctorID: 1, Date: bookingDate, Time: "10:00", Reason: "Check-up",
		}
	}

	t.Run("commit finalises a proposal exactly once", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, nil)

		proposal, err := h.service.ProposeBooking(context.Background(), adminPrincipal, params(patient.ID))
		if err != nil {
			t.Fatalf("ProposeBooking returned error: %v", err)
		}
		if proposal.Token != "proposal-1" {
			t.Fatalf("unexpected token %q", proposal.Token)
		}
		if !proposal.ExpiresAt.Equal(h.clock.Now().Add(2 * time.Minute)) {
			t.Fatalf("unexpected expiry %v", proposal.ExpiresAt)
		}

		created, err := h.service.CommitBooking(context.Background(), adminPrincipal, proposal.Token)
		if err != nil {
			t.Fatalf("CommitBooking returned error: %v", err)
		}
		if created.Time != "10:00" || created.Status != persistence.StatusScheduled {
			t.Fatalf("unexpected appointment %+v", created)
		}

		if _, err := h.service.CommitBooking(context.Background(), adminPrincipal, proposal.Token); !errors.Is(err, application.ErrProposalExpired) {
			t.Fatalf("expected ErrProposalExpired on reuse, got %v", err)
		}
	})

	t.Run("a slot taken between propose and commit is rejected", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		rival := testfixtures.NewPatientFixture()
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient, rival}, nil)

		proposal, err := h.service.ProposeBooking(context.Background(), adminPrincipal, params(patient.ID))
		if err != nil {
			t.Fatalf("ProposeBooking returned error: %v", err)
		}

		if _, err := h.service.BookAppointment(context.Background(), adminPrincipal, params(rival.ID)); err != nil {
			t.Fatalf("rival booking failed: %v", err)
		}

		if _, err := h.service.CommitBooking(context.Background(), adminPrincipal, proposal.Token); !errors.Is(err, application.ErrSlotTaken) {
			t.Fatalf("expected ErrSlotTaken, got %v", err)
		}
	})

	t.Run("an expired proposal cannot commit", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, nil)

		proposal, err := h.service.ProposeBooking(context.Background(), adminPrincipal, params(patient.ID))
		if err != nil {
			t.Fatalf("ProposeBooking returned error: %v", err)
		}

		h.clock.Advance(3 * time.Minute)
		if _, err := h.service.CommitBooking(context.Background(), adminPrincipal, proposal.Token); !errors.Is(err, application.ErrProposalExpired) {
			t.Fatalf("expected ErrProposalExpired, got %v", err)
		}
	})

	t.Run("only the proposing principal may commit", func(t *testing.T) {
		h := newAppointmentHarness(t)
		patient := testfixtures.NewPatientFixture()
		h.seed(t, []persistence.Doctor{testfixtures.DayDoctor(1)}, []persistence.Patient{patient}, nil)

		principal := application.Principal{Role: application.RolePatient, UserID: patient.ID}
		proposal, err := h.service.ProposeBooking(context.Background(), principal, params(patient.ID))
		if err != nil {
			t.Fatalf("ProposeBooking returned error: %v", err)
		}

		other := application.Principal{Role: application.RolePatient, UserID: patient.ID + 1}
		if _, err := h.service.CommitBooking(context.Background(), other, proposal.Token); !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}
