package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/clinic-portal/internal/persistence"
)

func (s *Store) loadDoctors(ctx context.Context) ([]persistence.Doctor, error) {
	raw, err := s.getRecord(ctx, keyDoctors)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doctors []persistence.Doctor
	if err := json.Unmarshal(raw, &doctors); err != nil {
		return nil, fmt.Errorf("localstore: decode doctors: %w", err)
	}
	return doctors, nil
}

func (s *Store) storeDoctors(ctx context.Context, doctors []persistence.Doctor) error {
	raw, err := json.Marshal(doctors)
	if err != nil {
		return fmt.Errorf("localstore: encode doctors: %w", err)
	}
	return s.putRecord(ctx, keyDoctors, raw)
}

// GetDoctor retrieves a doctor by id.
func (s *Store) GetDoctor(ctx context.Context, id int64) (persistence.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doctors, err := s.loadDoctors(ctx)
	if err != nil {
		return persistence.Doctor{}, err
	}
	for _, doctor := range doctors {
		if doctor.ID == id {
			return doctor, nil
		}
	}
	return persistence.Doctor{}, persistence.ErrNotFound
}

// GetDoctorByEmail retrieves a doctor by email, case-insensitively.
func (s *Store) GetDoctorByEmail(ctx context.Context, email string) (persistence.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doctors, err := s.loadDoctors(ctx)
	if err != nil {
		return persistence.Doctor{}, err
	}
	lower := strings.ToLower(strings.TrimSpace(email))
	for _, doctor := range doctors {
		if doctor.Email != "" && strings.ToLower(doctor.Email) == lower {
			return doctor, nil
		}
	}
	return persistence.Doctor{}, persistence.ErrNotFound
}

// ListDoctors returns all doctors ordered by id.
func (s *Store) ListDoctors(ctx context.Context) ([]persistence.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doctors, err := s.loadDoctors(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].ID < doctors[j].ID })
	return doctors, nil
}

// ReplaceDoctors overwrites the doctor directory. The directory is seeded
// once and treated as read-only afterwards; this exists for seeding only.
func (s *Store) ReplaceDoctors(ctx context.Context, doctors []persistence.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.storeDoctors(ctx, doctors)
}
