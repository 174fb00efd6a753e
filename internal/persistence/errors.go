package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a record with the same identity already exists.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrSlotTaken is returned when writing an occupying appointment whose
	// doctor, date and time are already claimed by another occupying record.
	ErrSlotTaken = errors.New("persistence: slot already booked")
)
