package http

import (
	"context"
	"log/slog"

	"github.com/example/clinic-portal/internal/application"
	"github.com/example/clinic-portal/internal/logging"
)

type contextKey string

const (
	principalContextKey     contextKey = "principal"
	doctorIDContextKey      contextKey = "doctor_id"
	patientIDContextKey     contextKey = "patient_id"
	appointmentIDContextKey contextKey = "appointment_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithDoctorID injects the doctor identifier resolved from the request path.
func ContextWithDoctorID(ctx context.Context, doctorID int64) context.Context {
	return context.WithValue(ctx, doctorIDContextKey, doctorID)
}

// DoctorIDFromContext extracts a doctor identifier previously associated with the context.
func DoctorIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(doctorIDContextKey).(int64)
	return id, ok
}

// ContextWithPatientID injects the patient identifier resolved from the request path.
func ContextWithPatientID(ctx context.Context, patientID int64) context.Context {
	return context.WithValue(ctx, patientIDContextKey, patientID)
}

// PatientIDFromContext extracts a patient identifier previously associated with the context.
func PatientIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(patientIDContextKey).(int64)
	return id, ok
}

// ContextWithAppointmentID injects the appointment identifier resolved from the request path.
func ContextWithAppointmentID(ctx context.Context, appointmentID int64) context.Context {
	return context.WithValue(ctx, appointmentIDContextKey, appointmentID)
}

// AppointmentIDFromContext extracts an appointment identifier previously associated with the context.
func AppointmentIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(appointmentIDContextKey).(int64)
	return id, ok
}

// ContextWithLogger attaches a request-scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.Attach(ctx, logger)
}

// LoggerFromContext extracts a request-scoped logger from the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.From(ctx)
}
