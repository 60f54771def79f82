package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/community-hub/internal/application"
	"github.com/example/community-hub/internal/metrics"
)

// AdmissionService captures the registration operations the handler depends on.
type AdmissionService interface {
	Register(ctx context.Context, params application.RegisterParams) (application.Registration, error)
	Cancel(ctx context.Context, params application.CancelRegistrationParams) (application.Registration, error)
	ListEventRegistrations(ctx context.Context, principal application.Principal, eventID string) ([]application.Registration, error)
}

// CheckInService captures the check-in operation the handler depends on.
type CheckInService interface {
	CheckIn(ctx context.Context, entryToken string) (application.Registration, error)
}

// RegistrationHandler serves registration, cancellation and check-in.
type RegistrationHandler struct {
	admissions AdmissionService
	checkIns   CheckInService
	metrics    *metrics.Metrics
	responder  responder
	logger     *slog.Logger
}

// NewRegistrationHandler constructs a RegistrationHandler. The metrics bundle
// may be nil, in which case no counters are recorded.
func NewRegistrationHandler(admissions AdmissionService, checkIns CheckInService, m *metrics.Metrics, logger *slog.Logger) *RegistrationHandler {
	logger = defaultLogger(logger)
	return &RegistrationHandler{
		admissions: admissions,
		checkIns:   checkIns,
		metrics:    m,
		responder:  newResponder(logger),
		logger:     logger,
	}
}

// Register admits the authenticated member to the event.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	registration, err := h.admissions.Register(ctx, application.RegisterParams{
		Principal: principal,
		EventID:   chi.URLParam(r, "event_id"),
	})
	if err != nil {
		h.recordAdmissionRejection(err)
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AdmissionsTotal.Inc()
	}
	h.responder.writeJSON(ctx, w, http.StatusCreated, toRegistrationResponse(registration))
}

// Cancel releases the registration's seat.
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	registration, err := h.admissions.Cancel(ctx, application.CancelRegistrationParams{
		Principal:      principal,
		RegistrationID: chi.URLParam(r, "registration_id"),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.CancellationsTotal.Inc()
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toRegistrationResponse(registration))
}

// ListByEvent returns the registrations for an event.
func (h *RegistrationHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)

	registrations, err := h.admissions.ListEventRegistrations(ctx, principal, chi.URLParam(r, "event_id"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	out := make([]registrationResponse, 0, len(registrations))
	for _, registration := range registrations {
		out = append(out, toRegistrationResponse(registration))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, out)
}

type checkInRequest struct {
	EntryToken string `json:"entry_token"`
}

// CheckIn stamps the registration identified by the submitted entry token.
func (h *RegistrationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	registration, err := h.checkIns.CheckIn(ctx, req.EntryToken)
	if err != nil {
		h.recordCheckInRejection(err)
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.CheckInsTotal.Inc()
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toRegistrationResponse(registration))
}

func (h *RegistrationHandler) recordAdmissionRejection(err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, application.ErrEventFull):
		h.metrics.AdmissionRejections.WithLabelValues("event_full").Inc()
	case errors.Is(err, application.ErrEventNotOpen):
		h.metrics.AdmissionRejections.WithLabelValues("event_not_open").Inc()
	case errors.Is(err, application.ErrAlreadyRegistered):
		h.metrics.AdmissionRejections.WithLabelValues("already_registered").Inc()
	case errors.Is(err, application.ErrUnavailable):
		h.metrics.AdmissionRejections.WithLabelValues("unavailable").Inc()
	}
}

func (h *RegistrationHandler) recordCheckInRejection(err error) {
	if h.metrics == nil {
		return
	}
	var checkedIn *application.AlreadyCheckedInError
	switch {
	case errors.As(err, &checkedIn):
		h.metrics.CheckInRejections.WithLabelValues("already_checked_in").Inc()
	case errors.Is(err, application.ErrRegistrationCancelled):
		h.metrics.CheckInRejections.WithLabelValues("cancelled").Inc()
	case errors.Is(err, application.ErrNotFound):
		h.metrics.CheckInRejections.WithLabelValues("unknown_token").Inc()
	case errors.Is(err, application.ErrUnavailable):
		h.metrics.CheckInRejections.WithLabelValues("unavailable").Inc()
	}
}
