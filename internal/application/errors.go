package application

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInUse is returned when a record cannot be removed because plans still reference it.
	ErrInUse = errors.New("application: record in use")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError reports that a plan would overlap an active plan of the same
// professional on the same weekday. Start and End are the conflicting plan's
// canonical times.
type ConflictError struct {
	PlanID string
	Start  string
	End    string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	return fmt.Sprintf("Conflito de horário: O profissional já possui uma sessão agendada neste dia e horário (%s - %s).", c.Start, c.End)
}

// UpstreamError wraps a failure of a collaborator the caller cannot act on.
// Message is safe to show to users; Err is only logged.
type UpstreamError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (u *UpstreamError) Error() string {
	if u.Err == nil {
		return u.Message
	}
	return u.Message + ": " + u.Err.Error()
}

// Unwrap exposes the underlying cause.
func (u *UpstreamError) Unwrap() error {
	return u.Err
}

const msgPlansUnavailable = "Não foi possível carregar os planos de sessão."
