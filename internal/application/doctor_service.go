package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/clinic-portal/internal/persistence"
)

// DoctorService exposes the read-only doctor directory. The roster is seeded
// at startup and never modified through the API.
type DoctorService struct {
	doctors persistence.DoctorRepository
	logger  *slog.Logger
}

func NewDoctorService(doctors persistence.DoctorRepository, logger *slog.Logger) *DoctorService {
	return &DoctorService{doctors: doctors, logger: defaultLogger(logger)}
}

// ListDoctors returns every doctor in the directory, ordered by id.
func (s *DoctorService) ListDoctors(ctx context.Context) ([]persistence.Doctor, error) {
	doctors, err := s.doctors.ListDoctors(ctx)
	if err != nil {
		serviceLogger(ctx, s.logger, "doctor_service", "list").Error("failed to list doctors", "error", err)
		return nil, err
	}
	return doctors, nil
}

// GetDoctor returns a single directory entry.
func (s *DoctorService) GetDoctor(ctx context.Context, doctorID int64) (persistence.Doctor, error) {
	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Doctor{}, ErrNotFound
	}
	if err != nil {
		serviceLogger(ctx, s.logger, "doctor_service", "get", "doctor_id", doctorID).Error("failed to load doctor", "error", err)
		return persistence.Doctor{}, err
	}
	return doctor, nil
}
