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

// ReservationService captures the resource booking operations the handler
// depends on.
type ReservationService interface {
	CreateResource(ctx context.Context, params application.CreateResourceParams) (application.Resource, error)
	ListResources(ctx context.Context) ([]application.Resource, error)
	RequestReservation(ctx context.Context, params application.RequestReservationParams) (application.RequestReservationResult, error)
	DecideReservation(ctx context.Context, params application.DecideReservationParams) (application.Reservation, error)
	CancelReservation(ctx context.Context, params application.CancelReservationParams) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
}

// ResourceHandler serves shared resources and their reservations.
type ResourceHandler struct {
	service   ReservationService
	responder responder
	logger    *slog.Logger
}

// NewResourceHandler constructs a ResourceHandler.
func NewResourceHandler(service ReservationService, logger *slog.Logger) *ResourceHandler {
	logger = defaultLogger(logger)
	return &ResourceHandler{service: service, responder: newResponder(logger), logger: logger}
}

type createResourceRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Capacity    *int   `json:"capacity"`
	Available   bool   `json:"available"`
}

// CreateResource registers a bookable resource.
func (h *ResourceHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	var req createResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	resource, err := h.service.CreateResource(ctx, application.CreateResourceParams{
		Principal: principal,
		Input: application.ResourceInput{
			Name:        req.Name,
			Type:        req.Type,
			Description: req.Description,
			Capacity:    req.Capacity,
			Available:   req.Available,
		},
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusCreated, toResourceResponse(resource))
}

// ListResources returns the resource inventory.
func (h *ResourceHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resources, err := h.service.ListResources(ctx)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	out := make([]resourceResponse, 0, len(resources))
	for _, resource := range resources {
		out = append(out, toResourceResponse(resource))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, out)
}

type requestReservationRequest struct {
	ResourceID string    `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Notes      string    `json:"notes"`
}

type requestReservationResponse struct {
	Reservation reservationResponse      `json:"reservation"`
	Warnings    []overlapWarningResponse `json:"warnings,omitempty"`
}

// RequestReservation files a pending booking request.
func (h *ResourceHandler) RequestReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	var req requestReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	result, err := h.service.RequestReservation(ctx, application.RequestReservationParams{
		Principal: principal,
		Input: application.ReservationInput{
			ResourceID: req.ResourceID,
			StartTime:  req.StartTime,
			EndTime:    req.EndTime,
			Notes:      req.Notes,
		},
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, requestReservationResponse{
		Reservation: toReservationResponse(result.Reservation),
		Warnings:    toOverlapWarningResponses(result.Warnings),
	})
}

type decideReservationRequest struct {
	Approve bool `json:"approve"`
}

// DecideReservation approves or rejects a pending booking.
func (h *ResourceHandler) DecideReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	var req decideReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	reservation, err := h.service.DecideReservation(ctx, application.DecideReservationParams{
		Principal:     principal,
		ReservationID: chi.URLParam(r, "reservation_id"),
		Approve:       req.Approve,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toReservationResponse(reservation))
}

// CancelReservation withdraws a booking.
func (h *ResourceHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	reservation, err := h.service.CancelReservation(ctx, application.CancelReservationParams{
		Principal:     principal,
		ReservationID: chi.URLParam(r, "reservation_id"),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toReservationResponse(reservation))
}

// ListReservations returns bookings, filtered by the query string. Non-admin
// callers only ever see their own.
func (h *ResourceHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	query := r.URL.Query()
	reservations, err := h.service.ListReservations(ctx, application.ListReservationsParams{
		Principal:  principal,
		ResourceID: query.Get("resource_id"),
		MemberID:   query.Get("member_id"),
		Status:     application.ReservationStatus(query.Get("status")),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationResponse(reservation))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, out)
}
