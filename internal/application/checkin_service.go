package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/community-hub/internal/persistence"
)

// CheckInService resolves entry tokens at the door. The ledger guarantees
// that only one concurrent scan of the same token wins; this service maps
// the outcome onto the caller-facing error taxonomy.
type CheckInService struct {
	registrations persistence.RegistrationLedger
	now           func() time.Time
	retryDelay    time.Duration
	logger        *slog.Logger
}

// NewCheckInService wires dependencies for the check-in service.
func NewCheckInService(registrations persistence.RegistrationLedger, now func() time.Time, logger *slog.Logger) *CheckInService {
	if now == nil {
		now = time.Now
	}
	return &CheckInService{
		registrations: registrations,
		now:           now,
		retryDelay:    defaultRetryDelay,
		logger:        defaultLogger(logger),
	}
}

// WithRetryDelay overrides the base backoff between busy retries.
func (s *CheckInService) WithRetryDelay(delay time.Duration) *CheckInService {
	s.retryDelay = delay
	return s
}

// CheckIn marks the registration behind the entry token as checked in. A
// repeated scan returns *AlreadyCheckedInError carrying the stored
// registration so the original check-in time can be reported.
func (s *CheckInService) CheckIn(ctx context.Context, entryToken string) (reg Registration, err error) {
	if s == nil {
		err = fmt.Errorf("CheckInService is nil")
		return
	}
	if s.registrations == nil {
		err = fmt.Errorf("registration ledger not configured")
		return
	}

	token := strings.TrimSpace(entryToken)
	logger := serviceLogger(ctx, s.logger, "CheckInService", "CheckIn",
		"token_provided", token != "",
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "check-in refused", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("registration_id", reg.ID).InfoContext(ctx, "check-in recorded")
	}()

	if token == "" {
		vErr := &ValidationError{}
		vErr.add("entry_token", "entry token is required")
		err = vErr
		return
	}

	var record persistence.Registration
	for attempt := 1; ; attempt++ {
		record, err = s.registrations.CheckIn(ctx, token, s.now())
		if err == nil {
			reg = toRegistration(record)
			return
		}
		if errors.Is(err, persistence.ErrBusy) && attempt < busyRetryLimit {
			delay := s.retryDelay * time.Duration(attempt)
			if delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
				case <-timer.C:
				}
			}
			continue
		}
		switch {
		case errors.Is(err, persistence.ErrAlreadyCheckedIn):
			err = &AlreadyCheckedInError{Registration: toRegistration(record)}
		case errors.Is(err, persistence.ErrRegistrationCancelled):
			err = ErrRegistrationCancelled
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNotFound
		case errors.Is(err, persistence.ErrBusy):
			err = ErrUnavailable
		}
		return
	}
}
