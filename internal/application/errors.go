package application

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a uniqueness rule rejects a new record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrSlotTaken is returned when a booking targets an occupied slot.
	ErrSlotTaken = errors.New("application: slot already booked")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token has passed its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was explicitly revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrProposalExpired is returned when a booking proposal token is unknown or stale.
	ErrProposalExpired = errors.New("application: booking proposal expired")
)

// ValidationError captures field level validation issues. Every violated rule
// from one attempt is recorded so callers can surface them all at once rather
// than one per submission. Each field carries a single message; when several
// rules reject the same field the first recorded message stands.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(v.Messages(), "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Messages returns every recorded message, ordered by field name for stable
// presentation.
func (v *ValidationError) Messages() []string {
	if v == nil || len(v.FieldErrors) == 0 {
		return nil
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, v.FieldErrors[field])
	}
	return messages
}

// add records a field level validation error. The first message recorded for
// a field wins; later rules for the same field do not replace it.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, recorded := v.FieldErrors[field]; recorded {
		return
	}
	v.FieldErrors[field] = message
}
