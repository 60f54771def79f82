package application

import (
	"time"

	"github.com/example/community-hub/internal/persistence"
)

// Principal represents the authenticated member invoking a service method.
type Principal struct {
	MemberID string
	IsAdmin  bool
}

// MemberStatus is the lifecycle status of a member account.
type MemberStatus string

const (
	MemberPending  MemberStatus = "PENDING"
	MemberActive   MemberStatus = "ACTIVE"
	MemberInactive MemberStatus = "INACTIVE"
)

// Valid reports whether the status is one of the known member statuses.
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberPending, MemberActive, MemberInactive:
		return true
	}
	return false
}

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventOpen      EventStatus = "OPEN"
	EventClosed    EventStatus = "CLOSED"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
)

// Valid reports whether the status is one of the known event statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventOpen, EventClosed, EventCompleted, EventCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving to target.
// The forward path is DRAFT, OPEN, CLOSED, COMPLETED; CANCELLED is reachable
// from every non-terminal status and, like COMPLETED, has no exit.
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	switch s {
	case EventDraft:
		return target == EventOpen || target == EventCancelled
	case EventOpen:
		return target == EventClosed || target == EventCancelled
	case EventClosed:
		return target == EventCompleted || target == EventCancelled
	}
	return false
}

// RegistrationStatus is the lifecycle status of a registration.
type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "REGISTERED"
	RegistrationCheckedIn  RegistrationStatus = "CHECKED_IN"
	RegistrationCancelled  RegistrationStatus = "CANCELLED"
)

// ReservationStatus is the lifecycle status of a resource reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationApproved  ReservationStatus = "APPROVED"
	ReservationRejected  ReservationStatus = "REJECTED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// CanTransitionTo reports whether the reservation lifecycle permits moving to
// target. Decisions apply to PENDING reservations; cancellation is allowed
// until the reservation reaches a terminal decision other than APPROVED.
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	switch s {
	case ReservationPending:
		return target == ReservationApproved || target == ReservationRejected || target == ReservationCancelled
	case ReservationApproved:
		return target == ReservationCancelled
	}
	return false
}

// Member represents a community member account exposed by the services.
type Member struct {
	ID          string
	Email       string
	DisplayName string
	Phone       string
	IsAdmin     bool
	Status      MemberStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event represents a catalog entry exposed by the services. Capacity is nil
// for unlimited events.
type Event struct {
	ID             string
	Title          string
	Description    string
	Location       string
	StartTime      time.Time
	EndTime        time.Time
	Capacity       *int
	ConfirmedCount int
	Status         EventStatus
	TokenPrefix    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Registration represents one member's registration for one event.
type Registration struct {
	ID           string
	EventID      string
	MemberID     string
	EntryToken   string
	Status       RegistrationStatus
	RegisteredAt time.Time
	CheckedInAt  *time.Time
}

// Resource represents a bookable community resource.
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

// Reservation represents a time-ranged booking of a resource.
type Reservation struct {
	ID         string
	ResourceID string
	MemberID   string
	StartTime  time.Time
	EndTime    time.Time
	Status     ReservationStatus
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OverlapWarning flags an existing approved reservation whose time range
// intersects a requested one. Warnings never block the request.
type OverlapWarning struct {
	ReservationID string
	StartTime     time.Time
	EndTime       time.Time
}

// Notification is the fire-and-forget message emitted after admission and
// cancellation. Delivery is best effort and never affects the operation that
// produced it.
type Notification struct {
	Kind           string
	MemberID       string
	EventID        string
	RegistrationID string
	OccurredAt     time.Time
}

// Notification kinds.
const (
	NotificationRegistrationConfirmed = "registration_confirmed"
	NotificationRegistrationCancelled = "registration_cancelled"
)

// RegisterParams wraps the data required to register a member for an event.
type RegisterParams struct {
	Principal Principal
	EventID   string
}

// CancelRegistrationParams wraps the data required to cancel a registration.
type CancelRegistrationParams struct {
	Principal      Principal
	RegistrationID string
}

// EventInput captures caller provided event fields.
type EventInput struct {
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	Capacity    *int
	TokenPrefix string
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Principal Principal
	Input     EventInput
}

// TransitionEventParams wraps the data required to move an event through its lifecycle.
type TransitionEventParams struct {
	Principal Principal
	EventID   string
	Target    EventStatus
}

// ListEventsParams wraps the data required to list catalog entries.
type ListEventsParams struct {
	Status EventStatus
}

// MemberInput captures caller provided member fields.
type MemberInput struct {
	Email       string
	DisplayName string
	Phone       string
	Password    string
	IsAdmin     bool
}

// CreateMemberParams wraps the data required to create a member account.
type CreateMemberParams struct {
	Principal Principal
	Input     MemberInput
}

// UpdateMemberStatusParams wraps the data required to change an account status.
type UpdateMemberStatusParams struct {
	Principal Principal
	MemberID  string
	Target    MemberStatus
}

// LoginParams captures the data required to authenticate a member.
type LoginParams struct {
	Email    string
	Password string
}

// LoginResult captures the outcome of a successful login.
type LoginResult struct {
	Member    Member
	Token     string
	ExpiresAt time.Time
}

// ResourceInput captures caller provided resource fields.
type ResourceInput struct {
	Name        string
	Type        string
	Description string
	Capacity    *int
	Available   bool
}

// CreateResourceParams wraps the data required to create a resource.
type CreateResourceParams struct {
	Principal Principal
	Input     ResourceInput
}

// ReservationInput captures caller provided reservation fields.
type ReservationInput struct {
	ResourceID string
	StartTime  time.Time
	EndTime    time.Time
	Notes      string
}

// RequestReservationParams wraps the data required to request a reservation.
type RequestReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// RequestReservationResult carries the created reservation and any overlap
// warnings against already approved bookings of the same resource.
type RequestReservationResult struct {
	Reservation Reservation
	Warnings    []OverlapWarning
}

// DecideReservationParams wraps an admin decision on a pending reservation.
type DecideReservationParams struct {
	Principal     Principal
	ReservationID string
	Approve       bool
}

// CancelReservationParams wraps the data required to cancel a reservation.
type CancelReservationParams struct {
	Principal     Principal
	ReservationID string
}

// ListReservationsParams wraps the data required to list reservations.
type ListReservationsParams struct {
	Principal  Principal
	ResourceID string
	MemberID   string
	Status     ReservationStatus
}

func toMember(record persistence.Member) Member {
	return Member{
		ID:          record.ID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
		Phone:       record.Phone,
		IsAdmin:     record.IsAdmin,
		Status:      MemberStatus(record.Status),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func toEvent(record persistence.Event) Event {
	return Event{
		ID:             record.ID,
		Title:          record.Title,
		Description:    record.Description,
		Location:       record.Location,
		StartTime:      record.StartTime,
		EndTime:        record.EndTime,
		Capacity:       record.Capacity,
		ConfirmedCount: record.ConfirmedCount,
		Status:         EventStatus(record.Status),
		TokenPrefix:    record.TokenPrefix,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func toRegistration(record persistence.Registration) Registration {
	return Registration{
		ID:           record.ID,
		EventID:      record.EventID,
		MemberID:     record.MemberID,
		EntryToken:   record.EntryToken,
		Status:       RegistrationStatus(record.Status),
		RegisteredAt: record.RegisteredAt,
		CheckedInAt:  record.CheckedInAt,
	}
}

func toResource(record persistence.Resource) Resource {
	return Resource{
		ID:          record.ID,
		Name:        record.Name,
		Type:        record.Type,
		Description: record.Description,
		Capacity:    record.Capacity,
		Available:   record.Available,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func toReservation(record persistence.Reservation) Reservation {
	return Reservation{
		ID:         record.ID,
		ResourceID: record.ResourceID,
		MemberID:   record.MemberID,
		StartTime:  record.StartTime,
		EndTime:    record.EndTime,
		Status:     ReservationStatus(record.Status),
		Notes:      record.Notes,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}
