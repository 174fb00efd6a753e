package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/example/clinic-portal/internal/persistence"
)

func (s *Store) loadPatients(ctx context.Context) ([]persistence.Patient, error) {
	raw, err := s.getRecord(ctx, keyPatients)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patients []persistence.Patient
	if err := json.Unmarshal(raw, &patients); err != nil {
		return nil, fmt.Errorf("localstore: decode patients: %w", err)
	}
	return patients, nil
}

func (s *Store) storePatients(ctx context.Context, patients []persistence.Patient) error {
	raw, err := json.Marshal(patients)
	if err != nil {
		return fmt.Errorf("localstore: encode patients: %w", err)
	}
	return s.putRecord(ctx, keyPatients, raw)
}

// CreatePatient appends a new patient record. Both the id and the phone
// number must be unique.
func (s *Store) CreatePatient(ctx context.Context, patient persistence.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patients, err := s.loadPatients(ctx)
	if err != nil {
		return err
	}
	for _, existing := range patients {
		if existing.ID == patient.ID || existing.Phone == patient.Phone {
			return persistence.ErrDuplicate
		}
	}

	return s.storePatients(ctx, append(patients, patient))
}

// GetPatient retrieves a patient by id.
func (s *Store) GetPatient(ctx context.Context, id int64) (persistence.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patients, err := s.loadPatients(ctx)
	if err != nil {
		return persistence.Patient{}, err
	}
	for _, patient := range patients {
		if patient.ID == id {
			return patient, nil
		}
	}
	return persistence.Patient{}, persistence.ErrNotFound
}

// GetPatientByPhone retrieves a patient by exact phone number.
func (s *Store) GetPatientByPhone(ctx context.Context, phone string) (persistence.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patients, err := s.loadPatients(ctx)
	if err != nil {
		return persistence.Patient{}, err
	}
	for _, patient := range patients {
		if patient.Phone == phone {
			return patient, nil
		}
	}
	return persistence.Patient{}, persistence.ErrNotFound
}

// UpdatePatient replaces an existing patient record.
func (s *Store) UpdatePatient(ctx context.Context, patient persistence.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patients, err := s.loadPatients(ctx)
	if err != nil {
		return err
	}
	for _, existing := range patients {
		if existing.ID != patient.ID && existing.Phone == patient.Phone {
			return persistence.ErrDuplicate
		}
	}
	for i, existing := range patients {
		if existing.ID == patient.ID {
			patients[i] = patient
			return s.storePatients(ctx, patients)
		}
	}
	return persistence.ErrNotFound
}

// DeletePatient removes a patient by id.
func (s *Store) DeletePatient(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patients, err := s.loadPatients(ctx)
	if err != nil {
		return err
	}
	for i, existing := range patients {
		if existing.ID == id {
			patients = append(patients[:i], patients[i+1:]...)
			return s.storePatients(ctx, patients)
		}
	}
	return persistence.ErrNotFound
}

// ListPatients returns all patients ordered by creation time, then id.
func (s *Store) ListPatients(ctx context.Context) ([]persistence.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patients, err := s.loadPatients(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(patients, func(i, j int) bool {
		if patients[i].CreatedAt.Equal(patients[j].CreatedAt) {
			return patients[i].ID < patients[j].ID
		}
		return patients[i].CreatedAt.Before(patients[j].CreatedAt)
	})
	return patients, nil
}
