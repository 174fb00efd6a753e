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

type authHarness struct {
	store   *testfixtures.MemoryStore
	clock   *testfixtures.Clock
	service *application.AuthService
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()

	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	tokens := testfixtures.NewTokenGenerator("session")

	admin := application.AdminCredentials{
		Username:     "admin",
		PasswordHash: testfixtures.MustPasswordHash("admin123"),
	}
	service := application.NewAuthService(
		store, store, store,
		admin, 24*time.Hour,
		tokens.NextFunc(), clock.NowFunc(), nil,
	)
	return &authHarness{store: store, clock: clock, service: service}
}

func TestAuthenticate(t *testing.T) {
	t.Run("admin signs in with username and password", func(t *testing.T) {
		h := newAuthHarness(t)

		result, err := h.service.Authenticate(context.Background(), application.LoginParams{
			Role: application.RoleAdmin, Identifier: "admin", Password: "admin123",
		})
		if err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
		if result.Principal.Role != application.RoleAdmin || result.Principal.Name != "Administrator" {
			t.Fatalf("unexpected principal %+v", result.Principal)
		}
		if result.Token != "session-1" {
			t.Fatalf("unexpected token %q", result.Token)
		}
		if !result.ExpiresAt.Equal(h.clock.Now().Add(24 * time.Hour)) {
			t.Fatalf("unexpected expiry %v", result.ExpiresAt)
		}
	})

	t.Run("patient signs in with phone number", func(t *testing.T) {
		h := newAuthHarness(t)
		patient := testfixtures.NewPatientFixture(testfixtures.WithPatientPhone("01711112222"))
		patient.PasswordHash = testfixtures.MustPasswordHash("2222")
		if err := h.store.CreatePatient(context.Background(), patient); err != nil {
			t.Fatalf("seed patient: %v", err)
		}

		result, err := h.service.Authenticate(context.Background(), application.LoginParams{
			Role: application.RolePatient, Identifier: "01711112222", Password: "2222",
		})
		if err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
		if result.Principal.UserID != patient.ID || result.Principal.Name != patient.Name {
			t.Fatalf("unexpected principal %+v", result.Principal)
		}
	})

	t.Run("doctor signs in with e-mail", func(t *testing.T) {
		h := newAuthHarness(t)
		doctor := testfixtures.DayDoctor(3)
		doctor.PasswordHash = testfixtures.MustPasswordHash("doc3")
		if err := h.store.ReplaceDoctors(context.Background(), []persistence.Doctor{doctor}); err != nil {
			t.Fatalf("seed doctor: %v", err)
		}

		result, err := h.service.Authenticate(context.Background(), application.LoginParams{
			Role: application.RoleDoctor, Identifier: doctor.Email, Password: "doc3",
		})
		if err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
		if result.Principal.Role != application.RoleDoctor || result.Principal.UserID != 3 {
			t.Fatalf("unexpected principal %+v", result.Principal)
		}
	})

	t.Run("wrong credentials are indistinguishable from unknown accounts", func(t *testing.T) {
		h := newAuthHarness(t)

		cases := []application.LoginParams{
			{Role: application.RoleAdmin, Identifier: "admin", Password: "wrong"},
			{Role: application.RoleAdmin, Identifier: "root", Password: "admin123"},
			{Role: application.RolePatient, Identifier: "0000000000", Password: "0000"},
			{Role: application.RoleDoctor, Identifier: "nobody@clinic.example", Password: "doc"},
		}
		for _, params := range cases {
			if _, err := h.service.Authenticate(context.Background(), params); !errors.Is(err, application.ErrInvalidCredentials) {
				t.Fatalf("%+v: expected ErrInvalidCredentials, got %v", params, err)
			}
		}
	})

	t.Run("unknown role is a validation error", func(t *testing.T) {
		h := newAuthHarness(t)

		_, err := h.service.Authenticate(context.Background(), application.LoginParams{Role: "nurse"})
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestValidateSession(t *testing.T) {
	login := func(t *testing.T, h *authHarness) application.LoginResult {
		t.Helper()
		result, err := h.service.Authenticate(context.Background(), application.LoginParams{
			Role: application.RoleAdmin, Identifier: "admin", Password: "admin123",
		})
		if err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
		return result
	}

	t.Run("a live session resolves its principal", func(t *testing.T) {
		h := newAuthHarness(t)
		result := login(t, h)

		principal, err := h.service.ValidateSession(context.Background(), result.Token)
		if err != nil {
			t.Fatalf("ValidateSession returned error: %v", err)
		}
		if principal.Role != application.RoleAdmin {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("expiry is enforced", func(t *testing.T) {
		h := newAuthHarness(t)
		result := login(t, h)

		h.clock.Advance(24*time.Hour + time.Second)
		if _, err := h.service.ValidateSession(context.Background(), result.Token); !errors.Is(err, application.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("revocation is enforced", func(t *testing.T) {
		h := newAuthHarness(t)
		result := login(t, h)

		if err := h.service.RevokeSession(context.Background(), result.Token); err != nil {
			t.Fatalf("RevokeSession returned error: %v", err)
		}
		if _, err := h.service.ValidateSession(context.Background(), result.Token); !errors.Is(err, application.ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("unknown tokens are unauthorized", func(t *testing.T) {
		h := newAuthHarness(t)

		if _, err := h.service.ValidateSession(context.Background(), "bogus"); !errors.Is(err, application.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("revoking an unknown token reports not found", func(t *testing.T) {
		h := newAuthHarness(t)

		if err := h.service.RevokeSession(context.Background(), "bogus"); !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
