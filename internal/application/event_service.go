package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/community-hub/internal/persistence"
)

var tokenPrefixPattern = regexp.MustCompile(`^[A-Z0-9]{2,8}$`)

// EventService orchestrates validation, authorization, and persistence for
// the event catalog and its lifecycle.
type EventService struct {
	events      persistence.EventRepository
	idGenerator func() string
	now         func() time.Time
}

// NewEventService wires dependencies for the event service.
func NewEventService(events persistence.EventRepository, idGenerator func() string, now func() time.Time) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{events: events, idGenerator: idGenerator, now: now}
}

// CreateEvent validates input and persists a new DRAFT event for administrators.
func (s *EventService) CreateEvent(ctx context.Context, params CreateEventParams) (Event, error) {
	if s == nil {
		return Event{}, fmt.Errorf("EventService is nil")
	}
	if !params.Principal.IsAdmin {
		return Event{}, ErrForbidden
	}

	normalized := normalizeEventInput(params.Input)
	vErr := validateEventInput(normalized)
	if vErr.HasErrors() {
		return Event{}, vErr
	}

	now := s.now()
	record := persistence.Event{
		ID:          s.idGenerator(),
		Title:       normalized.Title,
		Description: normalized.Description,
		Location:    normalized.Location,
		StartTime:   normalized.StartTime,
		EndTime:     normalized.EndTime,
		Capacity:    normalized.Capacity,
		Status:      string(EventDraft),
		TokenPrefix: normalized.TokenPrefix,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.events.CreateEvent(ctx, record); err != nil {
		return Event{}, err
	}
	return toEvent(record), nil
}

// GetEvent returns a single catalog entry.
func (s *EventService) GetEvent(ctx context.Context, id string) (Event, error) {
	if s == nil {
		return Event{}, fmt.Errorf("EventService is nil")
	}
	record, err := s.events.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	return toEvent(record), nil
}

// ListEvents returns catalog entries, optionally narrowed by lifecycle status.
func (s *EventService) ListEvents(ctx context.Context, params ListEventsParams) ([]Event, error) {
	if s == nil {
		return nil, fmt.Errorf("EventService is nil")
	}
	if params.Status != "" && !params.Status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "unknown event status")
		return nil, vErr
	}

	records, err := s.events.ListEvents(ctx, persistence.EventFilter{Status: string(params.Status)})
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(records))
	for _, record := range records {
		events = append(events, toEvent(record))
	}
	return events, nil
}

// TransitionEvent moves an event through its lifecycle for administrators.
// The stored status is re-checked by a compare-and-set, so two racing
// transitions cannot both apply.
func (s *EventService) TransitionEvent(ctx context.Context, params TransitionEventParams) (Event, error) {
	if s == nil {
		return Event{}, fmt.Errorf("EventService is nil")
	}
	if !params.Principal.IsAdmin {
		return Event{}, ErrForbidden
	}
	if !params.Target.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "unknown event status")
		return Event{}, vErr
	}

	record, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}

	current := EventStatus(record.Status)
	if !current.CanTransitionTo(params.Target) {
		return Event{}, ErrInvalidTransition
	}

	now := s.now()
	err = s.events.TransitionEventStatus(ctx, record.ID, string(current), string(params.Target), now)
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrStale):
			return Event{}, ErrInvalidTransition
		case errors.Is(err, persistence.ErrNotFound):
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}

	record.Status = string(params.Target)
	record.UpdatedAt = now
	return toEvent(record), nil
}

func normalizeEventInput(input EventInput) EventInput {
	prefix := strings.ToUpper(strings.TrimSpace(input.TokenPrefix))
	if prefix == "" {
		prefix = "EVT"
	}
	return EventInput{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Capacity:    input.Capacity,
		TokenPrefix: prefix,
	}
}

func validateEventInput(input EventInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Title == "" {
		vErr.add("title", "title is required")
	}
	if input.StartTime.IsZero() {
		vErr.add("start_time", "start time is required")
	}
	if input.EndTime.IsZero() {
		vErr.add("end_time", "end time is required")
	} else if !input.StartTime.IsZero() && !input.EndTime.After(input.StartTime) {
		vErr.add("end_time", "end time must be after start time")
	}
	if input.Capacity != nil && *input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive when set")
	}
	if !tokenPrefixPattern.MatchString(input.TokenPrefix) {
		vErr.add("token_prefix", "token prefix must be 2 to 8 uppercase letters or digits")
	}

	return vErr
}
