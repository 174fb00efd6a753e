package scheduler

// BookingStatus is the lifecycle state of a booked appointment as the
// availability filter sees it.
type BookingStatus string

const (
	// BookingScheduled marks a confirmed future appointment.
	BookingScheduled BookingStatus = "scheduled"
	// BookingCompleted marks an appointment the doctor has seen through.
	BookingCompleted BookingStatus = "completed"
	// BookingCancelled marks an appointment that no longer occupies its slot.
	BookingCancelled BookingStatus = "cancelled"
)

// Occupies reports whether an appointment in this status blocks its slot.
// Cancelled appointments free the slot for rebooking.
func (s BookingStatus) Occupies() bool {
	return s == BookingScheduled || s == BookingCompleted
}

// Booking is the projection of an appointment relevant to slot arbitration.
type Booking struct {
	ID       int64
	DoctorID int64
	Date     string
	Time     TimeOfDay
	Status   BookingStatus
}

type slotKey struct {
	doctorID int64
	date     string
	time     TimeOfDay
}

// occupiedSet indexes occupying bookings for O(1) membership checks.
func occupiedSet(existing []Booking, excludeID int64) map[slotKey]struct{} {
	occupied := make(map[slotKey]struct{}, len(existing))
	for _, booking := range existing {
		if booking.ID == excludeID && excludeID != 0 {
			continue
		}
		if !booking.Status.Occupies() {
			continue
		}
		occupied[slotKey{booking.DoctorID, booking.Date, booking.Time}] = struct{}{}
	}
	return occupied
}

// AvailableSlots filters candidates down to the slots with no occupying
// booking for the doctor on the given date. Ordering of candidates is
// preserved. excludeID, when non-zero, names an appointment whose own slot
// must not count as a conflict (re-validation during an edit).
func AvailableSlots(candidates []TimeOfDay, doctorID int64, date string, existing []Booking, excludeID int64) []TimeOfDay {
	if len(candidates) == 0 {
		return nil
	}

	occupied := occupiedSet(existing, excludeID)

	available := make([]TimeOfDay, 0, len(candidates))
	for _, candidate := range candidates {
		if _, taken := occupied[slotKey{doctorID, date, candidate}]; taken {
			continue
		}
		available = append(available, candidate)
	}
	return available
}

// SlotTaken reports whether an occupying booking already claims the exact
// (doctor, date, time) triple. This is the commit-time re-check: it must run
// against current bookings, never against a list computed at render time.
func SlotTaken(existing []Booking, doctorID int64, date string, t TimeOfDay, excludeID int64) bool {
	occupied := occupiedSet(existing, excludeID)
	_, taken := occupied[slotKey{doctorID, date, t}]
	return taken
}
