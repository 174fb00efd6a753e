package application

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/example/clinic-portal/internal/persistence"
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]{2,50}$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,11}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// maxPatientAgeYears rejects dates of birth that cannot belong to a living
// patient.
const maxPatientAgeYears = 120

// PatientService manages the patient registry. Registration is open to the
// public; everything else requires the record owner or an admin.
type PatientService struct {
	patients     persistence.PatientRepository
	appointments persistence.AppointmentRepository
	doctors      persistence.DoctorRepository
	hashParams   Argon2idParams
	idGenerator  func() int64
	now          func() time.Time
	logger       *slog.Logger
}

// NewPatientService wires a PatientService. Nil generator and clock arguments
// fall back to production defaults.
func NewPatientService(
	patients persistence.PatientRepository,
	appointments persistence.AppointmentRepository,
	doctors persistence.DoctorRepository,
	hashParams Argon2idParams,
	idGenerator func() int64,
	now func() time.Time,
	logger *slog.Logger,
) *PatientService {
	if hashParams == (Argon2idParams{}) {
		hashParams = DefaultArgon2idParams
	}
	if idGenerator == nil {
		idGenerator = func() int64 { return time.Now().UnixMilli() }
	}
	if now == nil {
		now = time.Now
	}
	return &PatientService{
		patients:     patients,
		appointments: appointments,
		doctors:      doctors,
		hashParams:   hashParams,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// RegisterPatient validates and creates a new patient record. The initial
// password is derived from the last four digits of the phone number, matching
// what the front desk tells patients on sign-up.
func (s *PatientService) RegisterPatient(ctx context.Context, params RegisterPatientParams) (persistence.Patient, error) {
	logger := serviceLogger(ctx, s.logger, "patient_service", "register")

	params.Name = strings.TrimSpace(params.Name)
	params.Phone = strings.TrimSpace(params.Phone)
	params.Email = strings.TrimSpace(params.Email)

	if err := s.validateProfile(params.Name, params.Phone, params.Email, params.Gender, params.DOB); err != nil {
		logger.Warn("registration rejected", "error_kind", ErrorKind(err))
		return persistence.Patient{}, err
	}

	if _, err := s.patients.GetPatientByPhone(ctx, params.Phone); err == nil {
		logger.Warn("registration rejected", "error_kind", ErrorKind(ErrAlreadyExists))
		return persistence.Patient{}, ErrAlreadyExists
	} else if !errors.Is(err, persistence.ErrNotFound) {
		logger.Error("failed to check phone uniqueness", "error", err)
		return persistence.Patient{}, err
	}

	hash, err := CreatePasswordHash(params.Phone[len(params.Phone)-4:], s.hashParams)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		return persistence.Patient{}, err
	}

	patient := persistence.Patient{
		ID:           s.idGenerator(),
		Name:         params.Name,
		Phone:        params.Phone,
		Email:        params.Email,
		Gender:       params.Gender,
		DOB:          params.DOB,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	for {
		err := s.patients.CreatePatient(ctx, patient)
		if errors.Is(err, persistence.ErrDuplicate) {
			// A concurrent registration can race the phone check; an id
			// collision is resolved by bumping. Re-checking the phone
			// distinguishes the two.
			if _, perr := s.patients.GetPatientByPhone(ctx, patient.Phone); perr == nil {
				return persistence.Patient{}, ErrAlreadyExists
			}
			patient.ID++
			continue
		}
		if err != nil {
			logger.Error("failed to create patient", "error", err)
			return persistence.Patient{}, err
		}
		logger.Info("patient registered", "patient_id", patient.ID)
		return patient, nil
	}
}

// GetPatient returns a patient record visible to the principal.
func (s *PatientService) GetPatient(ctx context.Context, principal Principal, patientID int64) (persistence.Patient, error) {
	if principal.Role != RoleAdmin && !(principal.Role == RolePatient && principal.UserID == patientID) {
		return persistence.Patient{}, ErrUnauthorized
	}

	patient, err := s.patients.GetPatient(ctx, patientID)
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Patient{}, ErrNotFound
	}
	if err != nil {
		return persistence.Patient{}, err
	}
	return patient, nil
}

// ListPatients returns the full registry. Admin only.
func (s *PatientService) ListPatients(ctx context.Context, principal Principal) ([]persistence.Patient, error) {
	if principal.Role != RoleAdmin {
		return nil, ErrUnauthorized
	}
	return s.patients.ListPatients(ctx)
}

// LookupByPhone finds a patient by exact phone number and returns their
// appointment history with doctor names resolved. Admin only; used by the
// front desk when booking on a patient's behalf.
func (s *PatientService) LookupByPhone(ctx context.Context, principal Principal, phone string) (PatientLookup, error) {
	logger := serviceLogger(ctx, s.logger, "patient_service", "lookup")

	if principal.Role != RoleAdmin {
		return PatientLookup{}, ErrUnauthorized
	}

	patient, err := s.patients.GetPatientByPhone(ctx, strings.TrimSpace(phone))
	if errors.Is(err, persistence.ErrNotFound) {
		return PatientLookup{}, ErrNotFound
	}
	if err != nil {
		return PatientLookup{}, err
	}

	appointments, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{PatientID: &patient.ID})
	if err != nil {
		logger.Error("failed to list appointments", "error", err)
		return PatientLookup{}, err
	}

	history := make([]AppointmentView, 0, len(appointments))
	for _, appointment := range appointments {
		view := AppointmentView{
			ID:           appointment.ID,
			Date:         appointment.Date,
			Time:         appointment.Time,
			Reason:       appointment.Reason,
			Status:       appointment.Status,
			DoctorID:     appointment.DoctorID,
			DoctorName:   unknownDoctorName,
			PatientID:    patient.ID,
			PatientName:  patient.Name,
			PatientPhone: patient.Phone,
		}
		if doctor, derr := s.doctors.GetDoctor(ctx, appointment.DoctorID); derr == nil {
			view.DoctorName = doctor.Name
			view.Specialty = doctor.Specialty
		} else if !errors.Is(derr, persistence.ErrNotFound) {
			logger.Error("failed to load doctor", "error", derr)
		}
		history = append(history, view)
	}

	return PatientLookup{Patient: patient, History: history}, nil
}

// UpdatePatient applies a partial profile update. A phone change re-derives
// the stored password hash so the sign-in rule keeps matching the new number.
func (s *PatientService) UpdatePatient(ctx context.Context, principal Principal, params UpdatePatientParams) (persistence.Patient, error) {
	logger := serviceLogger(ctx, s.logger, "patient_service", "update", "patient_id", params.PatientID)

	if principal.Role != RoleAdmin && !(principal.Role == RolePatient && principal.UserID == params.PatientID) {
		return persistence.Patient{}, ErrUnauthorized
	}

	patient, err := s.patients.GetPatient(ctx, params.PatientID)
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Patient{}, ErrNotFound
	}
	if err != nil {
		return persistence.Patient{}, err
	}

	phoneChanged := false
	if params.Name != nil {
		patient.Name = strings.TrimSpace(*params.Name)
	}
	if params.Phone != nil {
		trimmed := strings.TrimSpace(*params.Phone)
		phoneChanged = trimmed != patient.Phone
		patient.Phone = trimmed
	}
	if params.Email != nil {
		patient.Email = strings.TrimSpace(*params.Email)
	}
	if params.Gender != nil {
		patient.Gender = *params.Gender
	}
	if params.DOB != nil {
		patient.DOB = *params.DOB
	}

	if err := s.validateProfile(patient.Name, patient.Phone, patient.Email, patient.Gender, patient.DOB); err != nil {
		logger.Warn("update rejected", "error_kind", ErrorKind(err))
		return persistence.Patient{}, err
	}

	if phoneChanged {
		hash, err := CreatePasswordHash(patient.Phone[len(patient.Phone)-4:], s.hashParams)
		if err != nil {
			logger.Error("failed to hash password", "error", err)
			return persistence.Patient{}, err
		}
		patient.PasswordHash = hash
	}

	err = s.patients.UpdatePatient(ctx, patient)
	if errors.Is(err, persistence.ErrDuplicate) {
		return persistence.Patient{}, ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Patient{}, ErrNotFound
	}
	if err != nil {
		logger.Error("failed to update patient", "error", err)
		return persistence.Patient{}, err
	}

	logger.Info("patient updated")
	return patient, nil
}

// DeletePatient removes a patient record. Admin only. Appointments that
// reference the patient are kept; listings degrade to a placeholder name.
func (s *PatientService) DeletePatient(ctx context.Context, principal Principal, patientID int64) error {
	logger := serviceLogger(ctx, s.logger, "patient_service", "delete", "patient_id", patientID)

	if principal.Role != RoleAdmin {
		return ErrUnauthorized
	}

	err := s.patients.DeletePatient(ctx, patientID)
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		logger.Error("failed to delete patient", "error", err)
		return err
	}

	logger.Info("patient deleted")
	return nil
}

// validateProfile collects every violated profile rule in one pass.
func (s *PatientService) validateProfile(name, phone, email, gender, dob string) error {
	vErr := &ValidationError{}

	if !namePattern.MatchString(name) {
		vErr.add("name", "name must be 2 to 50 letters and spaces")
	}
	if !phonePattern.MatchString(phone) {
		vErr.add("phone", "phone must be 10 or 11 digits")
	}
	if !emailPattern.MatchString(email) {
		vErr.add("email", "email address is not valid")
	}
	switch gender {
	case "male", "female", "other":
	default:
		vErr.add("gender", "gender must be male, female or other")
	}

	if born, err := time.Parse(dateLayout, dob); err != nil {
		vErr.add("dob", "date of birth must be in YYYY-MM-DD format")
	} else {
		now := s.now()
		if !born.Before(now) {
			vErr.add("dob", "date of birth must be in the past")
		} else if born.Before(now.AddDate(-maxPatientAgeYears, 0, 0)) {
			vErr.add("dob", "date of birth is implausibly old")
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
