package application

import (
	"errors"
	"time"
)

var (
	// ErrUnauthorized is returned when no valid principal accompanies the call.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrForbidden is returned when the acting principal lacks permission for an operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a create collides with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrEventNotOpen is returned when registration targets an event that is not accepting registrations.
	ErrEventNotOpen = errors.New("application: event not open")
	// ErrEventFull is returned when registration would exceed event capacity.
	ErrEventFull = errors.New("application: event full")
	// ErrAlreadyRegistered is returned when the member already holds a
	// registration for the event, in any state including cancelled.
	ErrAlreadyRegistered = errors.New("application: already registered")
	// ErrAlreadyCancelled is returned when cancellation targets an already cancelled record.
	ErrAlreadyCancelled = errors.New("application: already cancelled")
	// ErrRegistrationCancelled is returned when check-in targets a cancelled registration.
	ErrRegistrationCancelled = errors.New("application: registration cancelled")
	// ErrMemberNotActive is returned when a member whose account is not ACTIVE
	// attempts an operation reserved for active members.
	ErrMemberNotActive = errors.New("application: member not active")
	// ErrInvalidCredentials is returned for failed login attempts.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when the account behind valid credentials is inactive.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when the presented session token has expired.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when the presented session token was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrInvalidTransition is returned when a lifecycle transition is not
	// allowed from the record's current status.
	ErrInvalidTransition = errors.New("application: invalid status transition")
	// ErrUnavailable is returned when the store stayed busy through the retry
	// budget. Callers may try again later.
	ErrUnavailable = errors.New("application: temporarily unavailable")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
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

// AlreadyCheckedInError reports a repeated check-in attempt. It carries the
// stored registration so callers can surface the original check-in time.
type AlreadyCheckedInError struct {
	Registration Registration
}

// Error implements the error interface.
func (e *AlreadyCheckedInError) Error() string {
	return "already checked in"
}

// CheckedInAt returns the time of the original check-in.
func (e *AlreadyCheckedInError) CheckedInAt() time.Time {
	if e == nil || e.Registration.CheckedInAt == nil {
		return time.Time{}
	}
	return *e.Registration.CheckedInAt
}
