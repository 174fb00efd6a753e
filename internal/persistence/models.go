package persistence

import "time"

// Shift identifies a doctor's working window.
type Shift string

const (
	// ShiftDay covers the 09:00-16:00 window.
	ShiftDay Shift = "day"
	// ShiftEvening covers the 16:00-00:00 window, wrapping midnight.
	ShiftEvening Shift = "evening"
)

// AppointmentStatus is the lifecycle state of a persisted appointment.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether the status is one of the closed set of states.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Timings is a doctor's shift window as "HH:MM" 24-hour clock strings. An end
// at or before the start signals a window wrapping past midnight.
type Timings struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Doctor is a seeded, read-only directory record.
type Doctor struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Specialty     string  `json:"specialty"`
	Shift         Shift   `json:"shift"`
	Timings       Timings `json:"timings"`
	Experience    int     `json:"experience"`
	Qualification string  `json:"qualification"`
	Email         string  `json:"email,omitempty"`
	PasswordHash  string  `json:"passwordHash,omitempty"`
}

// Patient is a registered portal user record.
type Patient struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Gender       string    `json:"gender"`
	DOB          string    `json:"dob"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Appointment is a booking record. Date is "YYYY-MM-DD" and Time is an
// "HH:MM" slot label aligned to the owning doctor's slot grid.
type Appointment struct {
	ID        int64             `json:"id"`
	PatientID int64             `json:"patientId"`
	DoctorID  int64             `json:"doctorId"`
	Date      string            `json:"date"`
	Time      string            `json:"time"`
	Reason    string            `json:"reason"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Occupies reports whether the appointment blocks its slot. Cancelled
// appointments free the slot for rebooking.
func (a Appointment) Occupies() bool {
	return a.Status == StatusScheduled || a.Status == StatusCompleted
}

// ConflictsWith reports whether two distinct appointments claim the same
// doctor, date and time while both occupy their slots.
func (a Appointment) ConflictsWith(other Appointment) bool {
	return a.ID != other.ID &&
		a.Occupies() && other.Occupies() &&
		a.DoctorID == other.DoctorID &&
		a.Date == other.Date &&
		a.Time == other.Time
}

// Session is an issued login session for any of the three portal roles.
type Session struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	UserID    int64      `json:"userId"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}
