package scheduler

import "testing"

func slotLabels(slots []TimeOfDay) []string {
	labels := make([]string, 0, len(slots))
	for _, slot := range slots {
		labels = append(labels, slot.String())
	}
	return labels
}

func TestAvailableSlots(t *testing.T) {
	candidates := GenerateSlots(540, 660, 30) // 09:00..10:30

	t.Run("no bookings returns all candidates", func(t *testing.T) {
		available := AvailableSlots(candidates, 1, "2026-09-01", nil, 0)
		if len(available) != len(candidates) {
			t.Fatalf("expected %d slots, got %v", len(candidates), slotLabels(available))
		}
	})

	t.Run("no candidates returns empty", func(t *testing.T) {
		if available := AvailableSlots(nil, 1, "2026-09-01", []Booking{{ID: 1, DoctorID: 1}}, 0); available != nil {
			t.Fatalf("expected nil, got %v", available)
		}
	})

	t.Run("scheduled and completed bookings occupy slots", func(t *testing.T) {
		existing := []Booking{
			{ID: 10, DoctorID: 1, Date: "2026-09-01", Time: 540, Status: BookingScheduled},
			{ID: 11, DoctorID: 1, Date: "2026-09-01", Time: 570, Status: BookingCompleted},
		}
		available := AvailableSlots(candidates, 1, "2026-09-01", existing, 0)
		want := []string{"10:00", "10:30"}
		got := slotLabels(available)
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("cancelled bookings never occupy", func(t *testing.T) {
		existing := []Booking{
			{ID: 10, DoctorID: 1, Date: "2026-09-01", Time: 540, Status: BookingCancelled},
		}
		available := AvailableSlots(candidates, 1, "2026-09-01", existing, 0)
		if len(available) != len(candidates) {
			t.Fatalf("cancelled booking excluded a slot: %v", slotLabels(available))
		}
	})

	t.Run("other doctors and dates do not collide", func(t *testing.T) {
		existing := []Booking{
			{ID: 10, DoctorID: 2, Date: "2026-09-01", Time: 540, Status: BookingScheduled},
			{ID: 11, DoctorID: 1, Date: "2026-09-02", Time: 540, Status: BookingScheduled},
		}
		available := AvailableSlots(candidates, 1, "2026-09-01", existing, 0)
		if len(available) != len(candidates) {
			t.Fatalf("unrelated booking excluded a slot: %v", slotLabels(available))
		}
	})

	t.Run("exclude id frees the appointment's own slot", func(t *testing.T) {
		existing := []Booking{
			{ID: 10, DoctorID: 1, Date: "2026-09-01", Time: 540, Status: BookingScheduled},
		}
		available := AvailableSlots(candidates, 1, "2026-09-01", existing, 10)
		if len(available) != len(candidates) {
			t.Fatalf("own slot excluded during edit: %v", slotLabels(available))
		}
	})
}

func TestSlotTaken(t *testing.T) {
	existing := []Booking{
		{ID: 10, DoctorID: 1, Date: "2026-09-01", Time: 540, Status: BookingScheduled},
		{ID: 11, DoctorID: 1, Date: "2026-09-01", Time: 570, Status: BookingCancelled},
	}

	if !SlotTaken(existing, 1, "2026-09-01", 540, 0) {
		t.Fatalf("expected scheduled slot to be taken")
	}
	if SlotTaken(existing, 1, "2026-09-01", 570, 0) {
		t.Fatalf("cancelled slot reported taken")
	}
	if SlotTaken(existing, 1, "2026-09-01", 600, 0) {
		t.Fatalf("free slot reported taken")
	}
	if SlotTaken(existing, 1, "2026-09-01", 540, 10) {
		t.Fatalf("excluded appointment still conflicts with itself")
	}
	if !SlotTaken(existing, 1, "2026-09-01", 540, 11) {
		t.Fatalf("excluding an unrelated id freed a taken slot")
	}
}
