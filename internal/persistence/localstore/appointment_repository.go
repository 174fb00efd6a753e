package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/example/clinic-portal/internal/persistence"
)

func (s *Store) loadAppointments(ctx context.Context) ([]persistence.Appointment, error) {
	raw, err := s.getRecord(ctx, keyAppointments)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var appointments []persistence.Appointment
	if err := json.Unmarshal(raw, &appointments); err != nil {
		return nil, fmt.Errorf("localstore: decode appointments: %w", err)
	}
	return appointments, nil
}

func (s *Store) storeAppointments(ctx context.Context, appointments []persistence.Appointment) error {
	raw, err := json.Marshal(appointments)
	if err != nil {
		return fmt.Errorf("localstore: encode appointments: %w", err)
	}
	return s.putRecord(ctx, keyAppointments, raw)
}

// CreateAppointment appends a new booking record. Slot uniqueness is enforced
// here, under the same lock as the insert: an occupying record whose doctor,
// date and time are already claimed is rejected with ErrSlotTaken even when
// the caller's own availability check passed on a stale snapshot.
func (s *Store) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appointments, err := s.loadAppointments(ctx)
	if err != nil {
		return err
	}
	for _, existing := range appointments {
		if existing.ID == appointment.ID {
			return persistence.ErrDuplicate
		}
		if appointment.ConflictsWith(existing) {
			return persistence.ErrSlotTaken
		}
	}

	return s.storeAppointments(ctx, append(appointments, appointment))
}

// GetAppointment retrieves a booking by id.
func (s *Store) GetAppointment(ctx context.Context, id int64) (persistence.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appointments, err := s.loadAppointments(ctx)
	if err != nil {
		return persistence.Appointment{}, err
	}
	for _, appointment := range appointments {
		if appointment.ID == id {
			return appointment, nil
		}
	}
	return persistence.Appointment{}, persistence.ErrNotFound
}

// UpdateAppointment replaces an existing booking record. Moving an occupying
// record onto a slot another occupying record claims is rejected with
// ErrSlotTaken; the record's own slot never conflicts.
func (s *Store) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appointments, err := s.loadAppointments(ctx)
	if err != nil {
		return err
	}

	index := -1
	for i, existing := range appointments {
		if existing.ID == appointment.ID {
			index = i
			continue
		}
		if appointment.ConflictsWith(existing) {
			return persistence.ErrSlotTaken
		}
	}
	if index < 0 {
		return persistence.ErrNotFound
	}

	appointments[index] = appointment
	return s.storeAppointments(ctx, appointments)
}

// DeleteAppointment physically removes a booking. Only the explicit admin
// delete path reaches this; status transitions never do.
func (s *Store) DeleteAppointment(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appointments, err := s.loadAppointments(ctx)
	if err != nil {
		return err
	}
	for i, existing := range appointments {
		if existing.ID == id {
			appointments = append(appointments[:i], appointments[i+1:]...)
			return s.storeAppointments(ctx, appointments)
		}
	}
	return persistence.ErrNotFound
}

// ListAppointments returns the bookings matching the filter, ordered by date,
// then time, then id.
func (s *Store) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appointments, err := s.loadAppointments(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]persistence.Appointment, 0, len(appointments))
	for _, appointment := range appointments {
		if filter.Matches(appointment) {
			matched = append(matched, appointment)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date < matched[j].Date
		}
		if matched[i].Time != matched[j].Time {
			return matched[i].Time < matched[j].Time
		}
		return matched[i].ID < matched[j].ID
	})

	if len(matched) == 0 {
		return nil, nil
	}
	return matched, nil
}
