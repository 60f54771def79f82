package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/community-hub/internal/application"
)

// EventService captures the catalog operations the handler depends on.
type EventService interface {
	CreateEvent(ctx context.Context, params application.CreateEventParams) (application.Event, error)
	GetEvent(ctx context.Context, id string) (application.Event, error)
	ListEvents(ctx context.Context, params application.ListEventsParams) ([]application.Event, error)
	TransitionEvent(ctx context.Context, params application.TransitionEventParams) (application.Event, error)
}

// EventHandler serves the event catalog and lifecycle endpoints.
type EventHandler struct {
	service   EventService
	responder responder
	logger    *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(service EventService, logger *slog.Logger) *EventHandler {
	logger = defaultLogger(logger)
	return &EventHandler{service: service, responder: newResponder(logger), logger: logger}
}

type createEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    *int      `json:"capacity"`
	TokenPrefix string    `json:"token_prefix"`
}

// Create adds a catalog entry.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	event, err := h.service.CreateEvent(ctx, application.CreateEventParams{
		Principal: principal,
		Input: application.EventInput{
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Capacity:    req.Capacity,
			TokenPrefix: req.TokenPrefix,
		},
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusCreated, toEventResponse(event))
}

// List returns catalog entries, optionally filtered by ?status=.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.service.ListEvents(ctx, application.ListEventsParams{
		Status: application.EventStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, toEventResponse(event))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, out)
}

// Get returns a single catalog entry.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	event, err := h.service.GetEvent(ctx, chi.URLParam(r, "event_id"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toEventResponse(event))
}

type transitionEventRequest struct {
	Status string `json:"status"`
}

// Transition moves the event through its lifecycle.
func (h *EventHandler) Transition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	var req transitionEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	event, err := h.service.TransitionEvent(ctx, application.TransitionEventParams{
		Principal: principal,
		EventID:   chi.URLParam(r, "event_id"),
		Target:    application.EventStatus(req.Status),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toEventResponse(event))
}
