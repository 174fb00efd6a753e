package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/clinic-portal/internal/application"
	"github.com/example/clinic-portal/internal/persistence"
)

var patientCounter int64

// referenceTime is a Monday so week-window assertions stay readable.
var referenceTime = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// WeakArgon2idParams trades hash strength for test speed.
var WeakArgon2idParams = application.Argon2idParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// MustPasswordHash hashes a password with the weak test parameters.
func MustPasswordHash(password string) string {
	hash, err := application.CreatePasswordHash(password, WeakArgon2idParams)
	if err != nil {
		panic(err)
	}
	return hash
}

// DayDoctor returns a doctor on the 09:00-16:00 shift.
func DayDoctor(id int64) persistence.Doctor {
	return persistence.Doctor{
		ID:        id,
		Name:      fmt.Sprintf("Day Doctor %d", id),
		Specialty: "Medicine",
		Shift:     persistence.ShiftDay,
		Timings:   persistence.Timings{Start: "09:00", End: "16:00"},
		Email:     fmt.Sprintf("day-%d@clinic.example", id),
	}
}

// EveningDoctor returns a doctor on the 16:00-00:00 shift, which wraps
// midnight.
func EveningDoctor(id int64) persistence.Doctor {
	return persistence.Doctor{
		ID:        id,
		Name:      fmt.Sprintf("Evening Doctor %d", id),
		Specialty: "Dermatology",
		Shift:     persistence.ShiftEvening,
		Timings:   persistence.Timings{Start: "16:00", End: "00:00"},
		Email:     fmt.Sprintf("evening-%d@clinic.example", id),
	}
}

// PatientOption configures a generated patient fixture.
type PatientOption func(*persistence.Patient)

// NewPatientFixture returns a deterministic patient record with optional
// overrides.
func NewPatientFixture(opts ...PatientOption) persistence.Patient {
	idx := atomic.AddInt64(&patientCounter, 1)
	patient := persistence.Patient{
		ID:        idx,
		Name:      fmt.Sprintf("Patient %03d", idx),
		Phone:     fmt.Sprintf("01%09d", idx),
		Email:     fmt.Sprintf("patient-%03d@example.com", idx),
		Gender:    "other",
		DOB:       "1990-06-15",
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&patient)
	}
	return patient
}

// WithPatientID overrides the generated patient id.
func WithPatientID(id int64) PatientOption {
	return func(p *persistence.Patient) {
		p.ID = id
	}
}

// WithPatientPhone overrides the generated phone number.
func WithPatientPhone(phone string) PatientOption {
	return func(p *persistence.Patient) {
		p.Phone = phone
	}
}

// WithPatientName overrides the generated name.
func WithPatientName(name string) PatientOption {
	return func(p *persistence.Patient) {
		p.Name = name
	}
}

// ScheduledAppointment returns a scheduled appointment for the given slot.
func ScheduledAppointment(id, patientID, doctorID int64, date, timeOfDay string) persistence.Appointment {
	return persistence.Appointment{
		ID:        id,
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Time:      timeOfDay,
		Reason:    "Follow-up",
		Status:    persistence.StatusScheduled,
		CreatedAt: referenceTime,
	}
}
