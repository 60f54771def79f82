package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrTokenTaken is returned when a registration insert collides on the
	// entry token index. Callers regenerate the token and retry.
	ErrTokenTaken = errors.New("persistence: entry token already taken")
	// ErrEventNotOpen is returned when admission is attempted against an
	// event whose lifecycle status does not accept registrations.
	ErrEventNotOpen = errors.New("persistence: event not open")
	// ErrEventFull is returned when admission would exceed event capacity.
	ErrEventFull = errors.New("persistence: event full")
	// ErrAlreadyCancelled is returned when a cancellation targets a
	// registration or reservation that is already cancelled.
	ErrAlreadyCancelled = errors.New("persistence: already cancelled")
	// ErrAlreadyCheckedIn is returned when a check-in targets a registration
	// that has already been checked in.
	ErrAlreadyCheckedIn = errors.New("persistence: already checked in")
	// ErrRegistrationCancelled is returned when a check-in targets a
	// cancelled registration.
	ErrRegistrationCancelled = errors.New("persistence: registration cancelled")
	// ErrStale is returned when a guarded status update finds the record in
	// a different state than the caller expected.
	ErrStale = errors.New("persistence: stale status")
	// ErrConstraintViolation is returned for CHECK constraint failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a write references a missing record.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrBusy is returned when the store is transiently locked. Callers may
	// retry a bounded number of times before giving up.
	ErrBusy = errors.New("persistence: store busy")
)
