package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// minutesPerDay bounds a TimeOfDay value.
const minutesPerDay = 24 * 60

// TimeOfDay is a clock time expressed as minutes since midnight (0-1439).
type TimeOfDay int

// ParseTimeOfDay converts an "HH:MM" 24-hour clock string into a TimeOfDay.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("scheduler: invalid clock time %q", value)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("scheduler: invalid clock time %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("scheduler: invalid clock time %q", value)
	}

	return TimeOfDay(hours*60 + minutes), nil
}

// String renders the time as a zero-padded "HH:MM" label.
func (t TimeOfDay) String() string {
	normalized := int(t) % minutesPerDay
	if normalized < 0 {
		normalized += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", normalized/60, normalized%60)
}

// GenerateSlots produces the ordered candidate slot times for a shift window.
//
// For a normal window (end > start) slots run from start in interval steps
// while strictly below end. A wrapped window (end <= start) models a shift
// crossing midnight: slots run from start up to the last interval boundary
// below 24:00, then continue from 00:00 up to (but excluding) end. The result
// is ordered chronologically within the shift, which for wrapped windows is
// not clock order; callers rely on that ordering for display.
func GenerateSlots(start, end TimeOfDay, intervalMinutes int) []TimeOfDay {
	if intervalMinutes <= 0 {
		return nil
	}

	slots := make([]TimeOfDay, 0, minutesPerDay/intervalMinutes)

	if end > start {
		for at := int(start); at < int(end); at += intervalMinutes {
			slots = append(slots, TimeOfDay(at))
		}
		return slots
	}

	for at := int(start); at < minutesPerDay; at += intervalMinutes {
		slots = append(slots, TimeOfDay(at))
	}
	for at := 0; at < int(end); at += intervalMinutes {
		slots = append(slots, TimeOfDay(at))
	}
	return slots
}

// ContainsSlot reports whether t falls on the generated grid for the window.
// Booked times must align to the grid; arbitrary in-window times do not count.
func ContainsSlot(start, end TimeOfDay, intervalMinutes int, t TimeOfDay) bool {
	for _, slot := range GenerateSlots(start, end, intervalMinutes) {
		if slot == t {
			return true
		}
	}
	return false
}
