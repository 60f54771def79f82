package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/community-hub/internal/application"
)

var (
	errBadRequestBody      = errors.New("request body could not be parsed")
	errMissingSessionToken = errors.New("session token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code string, err error) {
	message := http.StatusText(status)
	if err != nil {
		message = err.Error()
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}
	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
}

// handleServiceError maps the application error taxonomy onto HTTP statuses
// and stable machine readable error codes.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			ErrorCode: "INTERNAL",
			Message:   "internal error",
		})
		return
	}

	status, code, message := http.StatusInternalServerError, "INTERNAL", "internal error"
	switch {
	case errors.Is(err, application.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, "UNAUTHORIZED", "authentication required"
	case errors.Is(err, application.ErrInvalidCredentials):
		status, code, message = http.StatusUnauthorized, "INVALID_CREDENTIALS", "email or password is incorrect"
	case errors.Is(err, application.ErrSessionExpired):
		status, code, message = http.StatusUnauthorized, "SESSION_EXPIRED", "session has expired, log in again"
	case errors.Is(err, application.ErrSessionRevoked):
		status, code, message = http.StatusUnauthorized, "SESSION_REVOKED", "session was revoked, log in again"
	case errors.Is(err, application.ErrForbidden):
		status, code, message = http.StatusForbidden, "FORBIDDEN", "not allowed to perform this operation"
	case errors.Is(err, application.ErrAccountDisabled):
		status, code, message = http.StatusForbidden, "ACCOUNT_DISABLED", "account is disabled"
	case errors.Is(err, application.ErrMemberNotActive):
		status, code, message = http.StatusForbidden, "MEMBER_NOT_ACTIVE", "membership is not active"
	case errors.Is(err, application.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, application.ErrEventNotOpen):
		status, code, message = http.StatusBadRequest, "EVENT_NOT_OPEN", "event is not accepting registrations"
	case errors.Is(err, application.ErrEventFull):
		status, code, message = http.StatusBadRequest, "EVENT_FULL", "event has reached capacity"
	case errors.Is(err, application.ErrAlreadyRegistered):
		status, code, message = http.StatusBadRequest, "ALREADY_REGISTERED", "member already holds a registration for this event"
	case errors.Is(err, application.ErrAlreadyCancelled):
		status, code, message = http.StatusConflict, "ALREADY_CANCELLED", "already cancelled"
	case errors.Is(err, application.ErrAlreadyExists):
		status, code, message = http.StatusConflict, "ALREADY_EXISTS", "resource already exists"
	case errors.Is(err, application.ErrInvalidTransition):
		status, code, message = http.StatusConflict, "INVALID_TRANSITION", "status transition is not allowed"
	case errors.Is(err, application.ErrRegistrationCancelled):
		status, code, message = http.StatusGone, "REGISTRATION_CANCELLED", "registration was cancelled"
	case errors.Is(err, application.ErrUnavailable):
		status, code, message = http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "temporarily unavailable, try again"
	default:
		var checkedIn *application.AlreadyCheckedInError
		if errors.As(err, &checkedIn) {
			r.writeJSON(ctx, w, http.StatusConflict, alreadyCheckedInResponse{
				ErrorCode:   "ALREADY_CHECKED_IN",
				Message:     "registration is already checked in",
				CheckedInAt: checkedIn.CheckedInAt(),
			})
			return
		}
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				ErrorCode: "VALIDATION_FAILED",
				Message:   "input is invalid",
				Errors:    vErr.FieldErrors,
			})
			return
		}
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: message})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type alreadyCheckedInResponse struct {
	ErrorCode   string    `json:"error_code"`
	Message     string    `json:"message"`
	CheckedInAt time.Time `json:"checked_in_at"`
}
