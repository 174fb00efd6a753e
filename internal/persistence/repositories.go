package persistence

import (
	"context"
	"time"
)

// AppointmentFilter narrows queries issued to the appointment repository.
// Nil fields match every record.
type AppointmentFilter struct {
	DoctorID  *int64
	PatientID *int64
	Date      *string
	Status    *AppointmentStatus
}

// DoctorRepository exposes the seeded doctor directory.
type DoctorRepository interface {
	GetDoctor(ctx context.Context, id int64) (Doctor, error)
	GetDoctorByEmail(ctx context.Context, email string) (Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)
	ReplaceDoctors(ctx context.Context, doctors []Doctor) error
}

// PatientRepository stores registered patients.
type PatientRepository interface {
	CreatePatient(ctx context.Context, patient Patient) error
	GetPatient(ctx context.Context, id int64) (Patient, error)
	GetPatientByPhone(ctx context.Context, phone string) (Patient, error)
	UpdatePatient(ctx context.Context, patient Patient) error
	DeletePatient(ctx context.Context, id int64) error
	ListPatients(ctx context.Context) ([]Patient, error)
}

// AppointmentRepository stores bookings.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id int64) (Appointment, error)
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	DeleteAppointment(ctx context.Context, id int64) error
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
}

// SessionRepository stores issued login sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Matches reports whether the appointment satisfies every set filter field.
func (f AppointmentFilter) Matches(appointment Appointment) bool {
	if f.DoctorID != nil && appointment.DoctorID != *f.DoctorID {
		return false
	}
	if f.PatientID != nil && appointment.PatientID != *f.PatientID {
		return false
	}
	if f.Date != nil && appointment.Date != *f.Date {
		return false
	}
	if f.Status != nil && appointment.Status != *f.Status {
		return false
	}
	return true
}
