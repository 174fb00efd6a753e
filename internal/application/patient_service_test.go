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

type patientHarness struct {
	store   *testfixtures.MemoryStore
	service *application.PatientService
}

func newPatientHarness(t *testing.T) *patientHarness {
	t.Helper()

	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator(7000)

	service := application.NewPatientService(
		store, store, store, testfixtures.WeakArgon2idParams,
		ids.NextFunc(), clock.NowFunc(), nil,
	)
	return &patientHarness{store: store, service: service}
}

func validRegistration() application.RegisterPatientParams {
	return application.RegisterPatientParams{
		Name:   "Rahim Uddin",
		Phone:  "01712345678",
		Email:  "rahim@example.com",
		Gender: "male",
		DOB:    "1988-04-12",
	}
}

func TestRegisterPatient(t *testing.T) {
	t.Run("creates a record with a phone-derived password", func(t *testing.T) {
		h := newPatientHarness(t)

		created, err := h.service.RegisterPatient(context.Background(), validRegistration())
		if err != nil {
			t.Fatalf("RegisterPatient returned error: %v", err)
		}
		if created.ID != 7001 {
			t.Fatalf("expected generated id 7001, got %d", created.ID)
		}

		// The initial password is the last four digits of the phone number.
		if err := application.VerifyPassword(created.PasswordHash, "5678"); err != nil {
			t.Fatalf("derived password did not verify: %v", err)
		}
		if err := application.VerifyPassword(created.PasswordHash, "1234"); err == nil {
			t.Fatal("wrong password verified")
		}
	})

	t.Run("collects every validation error", func(t *testing.T) {
		h := newPatientHarness(t)

		_, err := h.service.RegisterPatient(context.Background(), application.RegisterPatientParams{
			Name:   "X",
			Phone:  "12ab",
			Email:  "not-an-email",
			Gender: "unknown",
			DOB:    "tomorrow",
		})

		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "phone", "email", "gender", "dob"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected a %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects a future date of birth", func(t *testing.T) {
		h := newPatientHarness(t)

		params := validRegistration()
		params.DOB = "2030-01-01"
		_, err := h.service.RegisterPatient(context.Background(), params)

		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["dob"]; !ok {
			t.Fatalf("expected a dob error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("duplicate phone numbers are rejected", func(t *testing.T) {
		h := newPatientHarness(t)

		if _, err := h.service.RegisterPatient(context.Background(), validRegistration()); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}

		params := validRegistration()
		params.Name = "Someone Else"
		if _, err := h.service.RegisterPatient(context.Background(), params); !errors.Is(err, application.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUpdatePatient(t *testing.T) {
	register := func(t *testing.T, h *patientHarness) int64 {
		t.Helper()
		created, err := h.service.RegisterPatient(context.Background(), validRegistration())
		if err != nil {
			t.Fatalf("RegisterPatient returned error: %v", err)
		}
		return created.ID
	}

	t.Run("changing the phone re-derives the password", func(t *testing.T) {
		h := newPatientHarness(t)
		id := register(t, h)

		phone := "01799990000"
		principal := application.Principal{Role: application.RolePatient, UserID: id}
		updated, err := h.service.UpdatePatient(context.Background(), principal, application.UpdatePatientParams{
			PatientID: id, Phone: &phone,
		})
		if err != nil {
			t.Fatalf("UpdatePatient returned error: %v", err)
		}
		if updated.Phone != phone {
			t.Fatalf("phone not updated: %q", updated.Phone)
		}
		if err := application.VerifyPassword(updated.PasswordHash, "0000"); err != nil {
			t.Fatalf("new derived password did not verify: %v", err)
		}
		if err := application.VerifyPassword(updated.PasswordHash, "5678"); err == nil {
			t.Fatal("old password still verifies after phone change")
		}
	})

	t.Run("invalid updates are rejected with field errors", func(t *testing.T) {
		h := newPatientHarness(t)
		id := register(t, h)

		bad := "1"
		principal := application.Principal{Role: application.RolePatient, UserID: id}
		_, err := h.service.UpdatePatient(context.Background(), principal, application.UpdatePatientParams{
			PatientID: id, Phone: &bad,
		})

		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("strangers cannot update the record", func(t *testing.T) {
		h := newPatientHarness(t)
		id := register(t, h)

		name := "Mallory"
		principal := application.Principal{Role: application.RolePatient, UserID: id + 1}
		_, err := h.service.UpdatePatient(context.Background(), principal, application.UpdatePatientParams{
			PatientID: id, Name: &name,
		})
		if !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestLookupReturnsHistory(t *testing.T) {
	h := newPatientHarness(t)
	ctx := context.Background()

	created, err := h.service.RegisterPatient(ctx, validRegistration())
	if err != nil {
		t.Fatalf("RegisterPatient returned error: %v", err)
	}
	if err := h.store.ReplaceDoctors(ctx, []persistence.Doctor{testfixtures.DayDoctor(1)}); err != nil {
		t.Fatalf("failed to seed doctor: %v", err)
	}
	for _, appointment := range []persistence.Appointment{
		testfixtures.ScheduledAppointment(1, created.ID, 1, "2026-03-03", "09:00"),
		testfixtures.ScheduledAppointment(2, created.ID, 99, "2026-03-04", "10:00"),
	} {
		if err := h.store.CreateAppointment(ctx, appointment); err != nil {
			t.Fatalf("failed to seed appointment: %v", err)
		}
	}

	admin := application.Principal{Role: application.RoleAdmin}
	result, err := h.service.LookupByPhone(ctx, admin, created.Phone)
	if err != nil {
		t.Fatalf("LookupByPhone returned error: %v", err)
	}

	if len(result.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(result.History))
	}
	if result.History[0].DoctorName != "Day Doctor 1" || result.History[0].Specialty != "Medicine" {
		t.Fatalf("doctor name not resolved: %+v", result.History[0])
	}
	if result.History[1].DoctorName != "Unknown doctor" {
		t.Fatalf("expected a placeholder for the missing doctor, got %q", result.History[1].DoctorName)
	}
	if result.History[0].PatientName != created.Name {
		t.Fatalf("patient name missing from history: %+v", result.History[0])
	}
}

func TestPatientAccessControl(t *testing.T) {
	h := newPatientHarness(t)
	created, err := h.service.RegisterPatient(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("RegisterPatient returned error: %v", err)
	}

	admin := application.Principal{Role: application.RoleAdmin}
	owner := application.Principal{Role: application.RolePatient, UserID: created.ID}
	doctor := application.Principal{Role: application.RoleDoctor, UserID: 1}

	t.Run("lookup by phone is admin only", func(t *testing.T) {
		result, err := h.service.LookupByPhone(context.Background(), admin, created.Phone)
		if err != nil {
			t.Fatalf("admin lookup failed: %v", err)
		}
		if result.Patient.ID != created.ID {
			t.Fatalf("lookup returned patient %d, want %d", result.Patient.ID, created.ID)
		}
		if len(result.History) != 0 {
			t.Fatalf("expected empty history, got %d entries", len(result.History))
		}
		if _, err := h.service.LookupByPhone(context.Background(), doctor, created.Phone); !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if _, err := h.service.LookupByPhone(context.Background(), admin, "0123456789"); !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("listing is admin only", func(t *testing.T) {
		if _, err := h.service.ListPatients(context.Background(), owner); !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		listed, err := h.service.ListPatients(context.Background(), admin)
		if err != nil {
			t.Fatalf("ListPatients returned error: %v", err)
		}
		if len(listed) != 1 {
			t.Fatalf("expected one patient, got %d", len(listed))
		}
	})

	t.Run("patients read their own record only", func(t *testing.T) {
		if _, err := h.service.GetPatient(context.Background(), owner, created.ID); err != nil {
			t.Fatalf("owner read failed: %v", err)
		}
		stranger := application.Principal{Role: application.RolePatient, UserID: created.ID + 1}
		if _, err := h.service.GetPatient(context.Background(), stranger, created.ID); !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("deletion is admin only", func(t *testing.T) {
		if err := h.service.DeletePatient(context.Background(), owner, created.ID); !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if err := h.service.DeletePatient(context.Background(), admin, created.ID); err != nil {
			t.Fatalf("admin delete failed: %v", err)
		}
		if err := h.service.DeletePatient(context.Background(), admin, created.ID); !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
