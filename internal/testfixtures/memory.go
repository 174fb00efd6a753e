package testfixtures

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/clinic-portal/internal/persistence"
)

// MemoryStore is an in-memory implementation of every repository interface,
// mirroring the ordering and error semantics of the SQLite-backed store.
type MemoryStore struct {
	mu           sync.RWMutex
	doctors      map[int64]persistence.Doctor
	patients     map[int64]persistence.Patient
	appointments map[int64]persistence.Appointment
	sessions     map[string]persistence.Session
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		doctors:      make(map[int64]persistence.Doctor),
		patients:     make(map[int64]persistence.Patient),
		appointments: make(map[int64]persistence.Appointment),
		sessions:     make(map[string]persistence.Session),
	}
}

// GetDoctor implements persistence.DoctorRepository.
func (m *MemoryStore) GetDoctor(_ context.Context, id int64) (persistence.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doctor, ok := m.doctors[id]
	if !ok {
		return persistence.Doctor{}, persistence.ErrNotFound
	}
	return doctor, nil
}

// GetDoctorByEmail implements persistence.DoctorRepository.
func (m *MemoryStore) GetDoctorByEmail(_ context.Context, email string) (persistence.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, doctor := range m.doctors {
		if strings.EqualFold(doctor.Email, email) {
			return doctor, nil
		}
	}
	return persistence.Doctor{}, persistence.ErrNotFound
}

// ListDoctors implements persistence.DoctorRepository.
func (m *MemoryStore) ListDoctors(_ context.Context) ([]persistence.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doctors := make([]persistence.Doctor, 0, len(m.doctors))
	for _, doctor := range m.doctors {
		doctors = append(doctors, doctor)
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].ID < doctors[j].ID })
	return doctors, nil
}

// ReplaceDoctors implements persistence.DoctorRepository.
func (m *MemoryStore) ReplaceDoctors(_ context.Context, doctors []persistence.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.doctors = make(map[int64]persistence.Doctor, len(doctors))
	for _, doctor := range doctors {
		m.doctors[doctor.ID] = doctor
	}
	return nil
}

// CreatePatient implements persistence.PatientRepository.
func (m *MemoryStore) CreatePatient(_ context.Context, patient persistence.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.patients[patient.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range m.patients {
		if existing.Phone == patient.Phone {
			return persistence.ErrDuplicate
		}
	}
	m.patients[patient.ID] = patient
	return nil
}

// GetPatient implements persistence.PatientRepository.
func (m *MemoryStore) GetPatient(_ context.Context, id int64) (persistence.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	patient, ok := m.patients[id]
	if !ok {
		return persistence.Patient{}, persistence.ErrNotFound
	}
	return patient, nil
}

// GetPatientByPhone implements persistence.PatientRepository.
func (m *MemoryStore) GetPatientByPhone(_ context.Context, phone string) (persistence.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, patient := range m.patients {
		if patient.Phone == phone {
			return patient, nil
		}
	}
	return persistence.Patient{}, persistence.ErrNotFound
}

// UpdatePatient implements persistence.PatientRepository.
func (m *MemoryStore) UpdatePatient(_ context.Context, patient persistence.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.patients[patient.ID]; !ok {
		return persistence.ErrNotFound
	}
	for _, existing := range m.patients {
		if existing.ID != patient.ID && existing.Phone == patient.Phone {
			return persistence.ErrDuplicate
		}
	}
	m.patients[patient.ID] = patient
	return nil
}

// DeletePatient implements persistence.PatientRepository.
func (m *MemoryStore) DeletePatient(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.patients[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

// ListPatients implements persistence.PatientRepository.
func (m *MemoryStore) ListPatients(_ context.Context) ([]persistence.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	patients := make([]persistence.Patient, 0, len(m.patients))
	for _, patient := range m.patients {
		patients = append(patients, patient)
	}
	sort.Slice(patients, func(i, j int) bool {
		if !patients[i].CreatedAt.Equal(patients[j].CreatedAt) {
			return patients[i].CreatedAt.Before(patients[j].CreatedAt)
		}
		return patients[i].ID < patients[j].ID
	})
	return patients, nil
}

// CreateAppointment implements persistence.AppointmentRepository. Like the
// production store it rejects an occupying record for an already claimed
// doctor/date/time slot under the same lock as the insert.
func (m *MemoryStore) CreateAppointment(_ context.Context, appointment persistence.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.appointments[appointment.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range m.appointments {
		if appointment.ConflictsWith(existing) {
			return persistence.ErrSlotTaken
		}
	}
	m.appointments[appointment.ID] = appointment
	return nil
}

// GetAppointment implements persistence.AppointmentRepository.
func (m *MemoryStore) GetAppointment(_ context.Context, id int64) (persistence.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	appointment, ok := m.appointments[id]
	if !ok {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	return appointment, nil
}

// UpdateAppointment implements persistence.AppointmentRepository.
func (m *MemoryStore) UpdateAppointment(_ context.Context, appointment persistence.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.appointments[appointment.ID]; !ok {
		return persistence.ErrNotFound
	}
	for _, existing := range m.appointments {
		if appointment.ConflictsWith(existing) {
			return persistence.ErrSlotTaken
		}
	}
	m.appointments[appointment.ID] = appointment
	return nil
}

// DeleteAppointment implements persistence.AppointmentRepository.
func (m *MemoryStore) DeleteAppointment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.appointments[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

// ListAppointments implements persistence.AppointmentRepository.
func (m *MemoryStore) ListAppointments(_ context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var appointments []persistence.Appointment
	for _, appointment := range m.appointments {
		if filter.Matches(appointment) {
			appointments = append(appointments, appointment)
		}
	}
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Date != appointments[j].Date {
			return appointments[i].Date < appointments[j].Date
		}
		if appointments[i].Time != appointments[j].Time {
			return appointments[i].Time < appointments[j].Time
		}
		return appointments[i].ID < appointments[j].ID
	})
	return appointments, nil
}

// CreateSession implements persistence.SessionRepository.
func (m *MemoryStore) CreateSession(_ context.Context, session persistence.Session) (persistence.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.Token]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	m.sessions[session.Token] = session
	return session, nil
}

// GetSession implements persistence.SessionRepository.
func (m *MemoryStore) GetSession(_ context.Context, token string) (persistence.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

// RevokeSession implements persistence.SessionRepository.
func (m *MemoryStore) RevokeSession(_ context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	at := revokedAt
	session.RevokedAt = &at
	m.sessions[token] = session
	return session, nil
}

// DeleteExpiredSessions implements persistence.SessionRepository.
func (m *MemoryStore) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, session := range m.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(m.sessions, token)
		}
	}
	return nil
}
