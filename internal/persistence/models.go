package persistence

import "time"

// Member is the stored representation of a community member account.
type Member struct {
	ID           string
	Email        string
	DisplayName  string
	Phone        string
	IsAdmin      bool
	Status       string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is the stored representation of an issued session token.
type Session struct {
	ID        string
	MemberID  string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// Event is the stored representation of a community event.
//
// ConfirmedCount is derived state: it always equals the number of
// registrations for the event whose status is REGISTERED or CHECKED_IN.
// Only the admission and cancellation paths may move it, and only inside
// the same transaction that moves the registration rows.
type Event struct {
	ID             string
	Title          string
	Description    string
	Location       string
	StartTime      time.Time
	EndTime        time.Time
	Capacity       *int
	ConfirmedCount int
	Status         string
	TokenPrefix    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Registration is the stored representation of one member's registration
// for one event. The (EventID, MemberID) pair and the EntryToken are both
// unique for the lifetime of the system.
type Registration struct {
	ID           string
	EventID      string
	MemberID     string
	EntryToken   string
	Status       string
	RegisteredAt time.Time
	CheckedInAt  *time.Time
}

// Resource is the stored representation of a bookable community resource.
type Resource struct {
	ID          string
	Name        string
	Type        string
	Description string
	Capacity    *int
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reservation is the stored representation of a time-ranged resource booking.
type Reservation struct {
	ID         string
	ResourceID string
	MemberID   string
	StartTime  time.Time
	EndTime    time.Time
	Status     string
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EventFilter narrows event listings.
type EventFilter struct {
	Status string
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	ResourceID string
	MemberID   string
	Status     string
}
