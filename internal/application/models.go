package application

import (
	"time"

	"github.com/example/clinic-portal/internal/persistence"
)

// Role identifies the kind of account a principal is signed in with.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether the role is one of the known account kinds.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Principal describes the authenticated caller of a service operation. The
// admin account is not backed by a stored record, so its UserID is zero.
type Principal struct {
	Role   Role
	UserID int64
	Name   string
}

// LoginParams carries one authentication attempt. The identifier is
// role-specific: admins sign in with a username, patients with their phone
// number and doctors with their e-mail address.
type LoginParams struct {
	Role       Role
	Identifier string
	Password   string
}

// LoginResult is the issued session plus the principal it belongs to.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Principal Principal
}

// RegisterPatientParams carries a patient self-registration request.
type RegisterPatientParams struct {
	Name   string
	Phone  string
	Email  string
	Gender string
	DOB    string
}

// UpdatePatientParams carries a partial patient profile update. Nil fields are
// left unchanged.
type UpdatePatientParams struct {
	PatientID int64
	Name      *string
	Phone     *string
	Email     *string
	Gender    *string
	DOB       *string
}

// BookAppointmentParams carries one booking request.
type BookAppointmentParams struct {
	PatientID int64
	DoctorID  int64
	Date      string
	Time      string
	Reason    string
}

// RescheduleAppointmentParams moves an existing appointment to a new slot.
// An empty Reason keeps the recorded one.
type RescheduleAppointmentParams struct {
	AppointmentID int64
	Date          string
	Time          string
	Reason        string
}

// ListAppointmentsParams narrows an appointment listing. Nil fields apply no
// filter. The acting principal further scopes the result to records it may
// see.
type ListAppointmentsParams struct {
	DoctorID  *int64
	PatientID *int64
	Date      *string
	Status    *persistence.AppointmentStatus
}

// BookingProposal is the first phase of a two-phase booking. The token is
// opaque to the client and must be committed before the proposal expires.
type BookingProposal struct {
	Token     string
	ExpiresAt time.Time
}

// PatientSummary is the reduced patient view embedded in listings where the
// full record is unavailable or withheld.
type PatientSummary struct {
	ID    int64
	Name  string
	Phone string
}

// PatientLookup is a phone-lookup result: the matched patient and their
// appointment history with doctor names resolved.
type PatientLookup struct {
	Patient persistence.Patient
	History []AppointmentView
}
