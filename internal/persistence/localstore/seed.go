package localstore

import (
	"context"
	"errors"

	"github.com/example/clinic-portal/internal/persistence"
)

// Seeded reports whether the one-time seed has already been applied.
func (s *Store) Seeded(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.getRecord(ctx, keyInitialized)
	if errors.Is(err, persistence.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(raw) == "true", nil
}

// Seed writes the doctor directory and marks the store initialised. The
// directory is immutable after this point.
func (s *Store) Seed(ctx context.Context, doctors []persistence.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storeDoctors(ctx, doctors); err != nil {
		return err
	}
	return s.putRecord(ctx, keyInitialized, []byte("true"))
}

// DefaultDoctors returns the built-in clinic roster. Password hashes are left
// empty; the caller derives and fills them before seeding.
func DefaultDoctors() []persistence.Doctor {
	day := persistence.Timings{Start: "09:00", End: "16:00"}
	evening := persistence.Timings{Start: "16:00", End: "00:00"}

	return []persistence.Doctor{
		{ID: 1, Name: "Sarah Ahmed", Specialty: "Cardiology", Shift: persistence.ShiftDay, Timings: day, Experience: 12, Qualification: "MBBS, MD (Cardiology)", Email: "sarah.ahmed@clinic.example"},
		{ID: 2, Name: "Kamrul Hassan", Specialty: "Dermatology", Shift: persistence.ShiftEvening, Timings: evening, Experience: 8, Qualification: "MBBS, DDV", Email: "kamrul.hassan@clinic.example"},
		{ID: 3, Name: "Nusrat Jahan", Specialty: "Pediatrics", Shift: persistence.ShiftDay, Timings: day, Experience: 10, Qualification: "MBBS, DCH", Email: "nusrat.jahan@clinic.example"},
		{ID: 4, Name: "Imran Chowdhury", Specialty: "Orthopedics", Shift: persistence.ShiftEvening, Timings: evening, Experience: 15, Qualification: "MBBS, MS (Ortho)", Email: "imran.chowdhury@clinic.example"},
		{ID: 5, Name: "Farhana Rahman", Specialty: "Medicine", Shift: persistence.ShiftDay, Timings: day, Experience: 9, Qualification: "MBBS, FCPS (Medicine)", Email: "farhana.rahman@clinic.example"},
		{ID: 6, Name: "Tanvir Islam", Specialty: "ENT", Shift: persistence.ShiftEvening, Timings: evening, Experience: 7, Qualification: "MBBS, DLO", Email: "tanvir.islam@clinic.example"},
	}
}
