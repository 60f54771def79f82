package persistence

import (
	"context"
	"time"
)

// Repositories are interface-driven so application services stay testable
// with in-memory stubs and so the SQLite implementation can be swapped
// without rewiring business code.

// MemberRepository persists member accounts.
type MemberRepository interface {
	CreateMember(ctx context.Context, member Member) error
	GetMember(ctx context.Context, id string) (Member, error)
	GetMemberByEmail(ctx context.Context, email string) (Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
	UpdateMember(ctx context.Context, member Member) error
}

// SessionRepository persists issued session tokens.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// EventRepository persists the event catalog.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	// TransitionEventStatus moves the event lifecycle status with a guarded
	// compare-and-set. It returns ErrStale when the stored status no longer
	// matches from, so racing transitions cannot be applied twice.
	TransitionEventStatus(ctx context.Context, id, from, to string, now time.Time) error
}

// RegistrationLedger owns registrations, the entry token namespace, and the
// derived confirmed_count on events. Its three mutating operations are each
// a single atomic unit at the storage layer: no caller ever observes a
// capacity check separated from its increment, or a check-in applied twice.
type RegistrationLedger interface {
	// Admit consumes one unit of event capacity and inserts the registration
	// as one transaction. It returns ErrNotFound when the event is missing,
	// ErrEventNotOpen or ErrEventFull when the guarded increment is refused,
	// ErrDuplicate when the (event, member) pair already holds a
	// registration, and ErrTokenTaken on an entry token collision.
	Admit(ctx context.Context, reg Registration) error
	GetRegistration(ctx context.Context, id string) (Registration, error)
	ListRegistrationsByEvent(ctx context.Context, eventID string) ([]Registration, error)
	// CancelAndRelease marks the registration CANCELLED and, when the prior
	// status was counted, decrements the event's confirmed count in the same
	// transaction. Returns ErrAlreadyCancelled for repeated cancellation.
	CancelAndRelease(ctx context.Context, id string, now time.Time) (Registration, error)
	// CheckIn flips exactly one REGISTERED registration carrying the token
	// to CHECKED_IN. Concurrent calls for the same token see one success;
	// the rest receive ErrAlreadyCheckedIn together with the stored row so
	// the original check-in time can be reported.
	CheckIn(ctx context.Context, entryToken string, now time.Time) (Registration, error)
}

// ResourceRepository persists bookable resources.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
}

// ReservationRepository persists resource reservations.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	// TransitionReservationStatus applies a guarded compare-and-set on the
	// reservation status, returning ErrStale when the stored status differs
	// from the expected one.
	TransitionReservationStatus(ctx context.Context, id, from, to string, now time.Time) error
}
