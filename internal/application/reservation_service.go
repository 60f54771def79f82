package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/community-hub/internal/booking"
	"github.com/example/community-hub/internal/persistence"
)

// ReservationService orchestrates resource bookings. Requests enter PENDING
// with overlap warnings against approved bookings; administrators decide
// them; owners or administrators cancel them.
type ReservationService struct {
	resources    persistence.ResourceRepository
	reservations persistence.ReservationRepository
	idGenerator  func() string
	now          func() time.Time
}

// NewReservationService wires dependencies for the reservation service.
func NewReservationService(resources persistence.ResourceRepository, reservations persistence.ReservationRepository, idGenerator func() string, now func() time.Time) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		resources:    resources,
		reservations: reservations,
		idGenerator:  idGenerator,
		now:          now,
	}
}

// CreateResource persists a new bookable resource for administrators.
func (s *ReservationService) CreateResource(ctx context.Context, params CreateResourceParams) (Resource, error) {
	if s == nil {
		return Resource{}, fmt.Errorf("ReservationService is nil")
	}
	if !params.Principal.IsAdmin {
		return Resource{}, ErrForbidden
	}

	input := params.Input
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	switch strings.ToUpper(strings.TrimSpace(input.Type)) {
	case "ROOM", "EQUIPMENT", "VEHICLE":
	default:
		vErr.add("type", "type must be ROOM, EQUIPMENT, or VEHICLE")
	}
	if input.Capacity != nil && *input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive when set")
	}
	if vErr.HasErrors() {
		return Resource{}, vErr
	}

	now := s.now()
	record := persistence.Resource{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(input.Name),
		Type:        strings.ToUpper(strings.TrimSpace(input.Type)),
		Description: strings.TrimSpace(input.Description),
		Capacity:    input.Capacity,
		Available:   input.Available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.resources.CreateResource(ctx, record); err != nil {
		return Resource{}, err
	}
	return toResource(record), nil
}

// ListResources returns the resource catalog.
func (s *ReservationService) ListResources(ctx context.Context) ([]Resource, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	records, err := s.resources.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	resources := make([]Resource, 0, len(records))
	for _, record := range records {
		resources = append(resources, toResource(record))
	}
	return resources, nil
}

// RequestReservation creates a PENDING reservation and reports overlap
// warnings against already approved bookings of the same resource. Warnings
// inform the admin decision; they never block the request.
func (s *ReservationService) RequestReservation(ctx context.Context, params RequestReservationParams) (RequestReservationResult, error) {
	if s == nil {
		return RequestReservationResult{}, fmt.Errorf("ReservationService is nil")
	}
	if params.Principal.MemberID == "" {
		return RequestReservationResult{}, ErrUnauthorized
	}

	input := params.Input
	vErr := &ValidationError{}
	if strings.TrimSpace(input.ResourceID) == "" {
		vErr.add("resource_id", "resource id is required")
	}
	if input.StartTime.IsZero() {
		vErr.add("start_time", "start time is required")
	}
	if input.EndTime.IsZero() {
		vErr.add("end_time", "end time is required")
	} else if !input.StartTime.IsZero() && !input.EndTime.After(input.StartTime) {
		vErr.add("end_time", "end time must be after start time")
	}
	if vErr.HasErrors() {
		return RequestReservationResult{}, vErr
	}

	resource, err := s.resources.GetResource(ctx, strings.TrimSpace(input.ResourceID))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return RequestReservationResult{}, ErrNotFound
		}
		return RequestReservationResult{}, err
	}
	if !resource.Available {
		vErr.add("resource_id", "resource is not available for booking")
		return RequestReservationResult{}, vErr
	}

	approved, err := s.reservations.ListReservations(ctx, persistence.ReservationFilter{
		ResourceID: resource.ID,
		Status:     string(ReservationApproved),
	})
	if err != nil {
		return RequestReservationResult{}, err
	}

	now := s.now()
	record := persistence.Reservation{
		ID:         s.idGenerator(),
		ResourceID: resource.ID,
		MemberID:   params.Principal.MemberID,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Status:     string(ReservationPending),
		Notes:      strings.TrimSpace(input.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.reservations.CreateReservation(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrForeignKeyViolation) {
			return RequestReservationResult{}, ErrNotFound
		}
		return RequestReservationResult{}, err
	}

	existing := make([]booking.Interval, 0, len(approved))
	for _, res := range approved {
		existing = append(existing, booking.Interval{ID: res.ID, Start: res.StartTime, End: res.EndTime})
	}
	overlapping := booking.FindOverlaps(booking.Interval{ID: record.ID, Start: record.StartTime, End: record.EndTime}, existing)

	warnings := make([]OverlapWarning, 0, len(overlapping))
	for _, hit := range overlapping {
		warnings = append(warnings, OverlapWarning{
			ReservationID: hit.ID,
			StartTime:     hit.Start,
			EndTime:       hit.End,
		})
	}

	return RequestReservationResult{Reservation: toReservation(record), Warnings: warnings}, nil
}

// DecideReservation approves or rejects a pending reservation for administrators.
func (s *ReservationService) DecideReservation(ctx context.Context, params DecideReservationParams) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if !params.Principal.IsAdmin {
		return Reservation{}, ErrForbidden
	}

	record, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, err
	}

	target := ReservationRejected
	if params.Approve {
		target = ReservationApproved
	}
	current := ReservationStatus(record.Status)
	if !current.CanTransitionTo(target) {
		return Reservation{}, ErrInvalidTransition
	}

	now := s.now()
	if err := s.reservations.TransitionReservationStatus(ctx, record.ID, string(current), string(target), now); err != nil {
		switch {
		case errors.Is(err, persistence.ErrStale):
			return Reservation{}, ErrInvalidTransition
		case errors.Is(err, persistence.ErrNotFound):
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, err
	}

	record.Status = string(target)
	record.UpdatedAt = now
	return toReservation(record), nil
}

// CancelReservation cancels a pending or approved reservation on behalf of
// its owner or an administrator.
func (s *ReservationService) CancelReservation(ctx context.Context, params CancelReservationParams) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if params.Principal.MemberID == "" {
		return Reservation{}, ErrUnauthorized
	}

	record, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, err
	}
	if record.MemberID != params.Principal.MemberID && !params.Principal.IsAdmin {
		return Reservation{}, ErrForbidden
	}

	current := ReservationStatus(record.Status)
	if current == ReservationCancelled {
		return Reservation{}, ErrAlreadyCancelled
	}
	if !current.CanTransitionTo(ReservationCancelled) {
		return Reservation{}, ErrInvalidTransition
	}

	now := s.now()
	if err := s.reservations.TransitionReservationStatus(ctx, record.ID, string(current), string(ReservationCancelled), now); err != nil {
		switch {
		case errors.Is(err, persistence.ErrStale):
			return Reservation{}, ErrInvalidTransition
		case errors.Is(err, persistence.ErrNotFound):
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, err
	}

	record.Status = string(ReservationCancelled)
	record.UpdatedAt = now
	return toReservation(record), nil
}

// ListReservations returns reservations. Non-administrators only see their own.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) ([]Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if params.Principal.MemberID == "" {
		return nil, ErrUnauthorized
	}

	memberID := params.MemberID
	if !params.Principal.IsAdmin {
		memberID = params.Principal.MemberID
	}

	records, err := s.reservations.ListReservations(ctx, persistence.ReservationFilter{
		ResourceID: params.ResourceID,
		MemberID:   memberID,
		Status:     string(params.Status),
	})
	if err != nil {
		return nil, err
	}
	reservations := make([]Reservation, 0, len(records))
	for _, record := range records {
		reservations = append(reservations, toReservation(record))
	}
	return reservations, nil
}
