package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/clinic-portal/internal/persistence"
)

// adminDisplayName labels the built-in administrator account, which has no
// backing record.
const adminDisplayName = "Administrator"

func defaultTokenGenerator() string {
	return uuid.NewString()
}

// AdminCredentials holds the single built-in admin account.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

// AuthService authenticates principals and manages their sessions.
type AuthService struct {
	sessions       persistence.SessionRepository
	patients       persistence.PatientRepository
	doctors        persistence.DoctorRepository
	admin          AdminCredentials
	sessionTTL     time.Duration
	tokenGenerator func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAuthService wires an AuthService. Nil generator and clock arguments fall
// back to production defaults.
func NewAuthService(
	sessions persistence.SessionRepository,
	patients persistence.PatientRepository,
	doctors persistence.DoctorRepository,
	admin AdminCredentials,
	sessionTTL time.Duration,
	tokenGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if tokenGenerator == nil {
		tokenGenerator = defaultTokenGenerator
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		sessions:       sessions,
		patients:       patients,
		doctors:        doctors,
		admin:          admin,
		sessionTTL:     sessionTTL,
		tokenGenerator: tokenGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

// Authenticate verifies role-specific credentials and issues a session.
// Admins sign in with a username, patients with their phone number and
// doctors with their e-mail address. Unknown accounts and wrong passwords
// are both reported as ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, params LoginParams) (LoginResult, error) {
	logger := serviceLogger(ctx, s.logger, "auth_service", "authenticate", "role", params.Role)

	if !params.Role.Valid() {
		vErr := &ValidationError{}
		vErr.add("role", "role must be admin, doctor or patient")
		return LoginResult{}, vErr
	}

	principal, err := s.verifyCredentials(ctx, params)
	if err != nil {
		logger.Warn("authentication failed", "error_kind", ErrorKind(err))
		return LoginResult{}, err
	}

	now := s.now()
	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		logger.Error("failed to prune expired sessions", "error", err)
	}

	session := persistence.Session{
		ID:        uuid.NewString(),
		Role:      string(principal.Role),
		UserID:    principal.UserID,
		Token:     s.tokenGenerator(),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if _, err := s.sessions.CreateSession(ctx, session); err != nil {
		logger.Error("failed to create session", "error", err)
		return LoginResult{}, err
	}

	logger.Info("authenticated", "user_id", principal.UserID)
	return LoginResult{Token: session.Token, ExpiresAt: session.ExpiresAt, Principal: principal}, nil
}

// ValidateSession resolves a session token into its principal, rejecting
// expired and revoked sessions.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	session, err := s.sessions.GetSession(ctx, token)
	if errors.Is(err, persistence.ErrNotFound) {
		return Principal{}, ErrUnauthorized
	}
	if err != nil {
		return Principal{}, err
	}

	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.After(s.now()) {
		return Principal{}, ErrSessionExpired
	}

	return s.resolvePrincipal(ctx, Role(session.Role), session.UserID)
}

// RevokeSession ends a session. Revoking an unknown token reports ErrNotFound.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	logger := serviceLogger(ctx, s.logger, "auth_service", "revoke_session")

	_, err := s.sessions.RevokeSession(ctx, token, s.now())
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		logger.Error("failed to revoke session", "error", err)
		return err
	}

	logger.Info("session revoked")
	return nil
}

func (s *AuthService) verifyCredentials(ctx context.Context, params LoginParams) (Principal, error) {
	switch params.Role {
	case RoleAdmin:
		if params.Identifier != s.admin.Username {
			return Principal{}, ErrInvalidCredentials
		}
		if err := VerifyPassword(s.admin.PasswordHash, params.Password); err != nil {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{Role: RoleAdmin, Name: adminDisplayName}, nil

	case RolePatient:
		patient, err := s.patients.GetPatientByPhone(ctx, params.Identifier)
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		if err != nil {
			return Principal{}, err
		}
		if err := VerifyPassword(patient.PasswordHash, params.Password); err != nil {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{Role: RolePatient, UserID: patient.ID, Name: patient.Name}, nil

	case RoleDoctor:
		doctor, err := s.doctors.GetDoctorByEmail(ctx, params.Identifier)
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		if err != nil {
			return Principal{}, err
		}
		if err := VerifyPassword(doctor.PasswordHash, params.Password); err != nil {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{Role: RoleDoctor, UserID: doctor.ID, Name: doctor.Name}, nil
	}
	return Principal{}, ErrInvalidCredentials
}

func (s *AuthService) resolvePrincipal(ctx context.Context, role Role, userID int64) (Principal, error) {
	switch role {
	case RoleAdmin:
		return Principal{Role: RoleAdmin, Name: adminDisplayName}, nil

	case RolePatient:
		patient, err := s.patients.GetPatient(ctx, userID)
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		if err != nil {
			return Principal{}, err
		}
		return Principal{Role: RolePatient, UserID: patient.ID, Name: patient.Name}, nil

	case RoleDoctor:
		doctor, err := s.doctors.GetDoctor(ctx, userID)
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		if err != nil {
			return Principal{}, err
		}
		return Principal{Role: RoleDoctor, UserID: doctor.ID, Name: doctor.Name}, nil
	}
	return Principal{}, ErrUnauthorized
}
