package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/community-hub/internal/persistence"
)

// Notifier accepts fire-and-forget notification messages. Implementations
// must return immediately; whether the message is delivered never affects
// the operation that produced it.
type Notifier interface {
	Notify(ctx context.Context, message Notification)
}

const (
	// tokenRetryLimit bounds regeneration attempts after an entry token collision.
	tokenRetryLimit = 5
	// busyRetryLimit bounds retries when the store reports transient contention.
	busyRetryLimit = 3
	// defaultRetryDelay is the base backoff between busy retries.
	defaultRetryDelay = 50 * time.Millisecond
)

// AdmissionService owns event registration and cancellation. Capacity
// accounting and uniqueness live in the registration ledger; this service
// contributes authorization, token generation, and bounded retries.
type AdmissionService struct {
	members       persistence.MemberRepository
	events        persistence.EventRepository
	registrations persistence.RegistrationLedger
	notifier      Notifier
	idGenerator   func() string
	tokenSuffix   func() string
	now           func() time.Time
	retryDelay    time.Duration
	logger        *slog.Logger
}

// NewAdmissionService wires dependencies for the admission service.
func NewAdmissionService(
	members persistence.MemberRepository,
	events persistence.EventRepository,
	registrations persistence.RegistrationLedger,
	notifier Notifier,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *AdmissionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AdmissionService{
		members:       members,
		events:        events,
		registrations: registrations,
		notifier:      notifier,
		idGenerator:   idGenerator,
		tokenSuffix:   randomTokenSuffix,
		now:           now,
		retryDelay:    defaultRetryDelay,
		logger:        defaultLogger(logger),
	}
}

// WithTokenSuffix overrides the entry token suffix generator.
func (s *AdmissionService) WithTokenSuffix(generator func() string) *AdmissionService {
	if generator != nil {
		s.tokenSuffix = generator
	}
	return s
}

// WithRetryDelay overrides the base backoff between busy retries.
func (s *AdmissionService) WithRetryDelay(delay time.Duration) *AdmissionService {
	s.retryDelay = delay
	return s
}

func (s *AdmissionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AdmissionService", operation, attrs...)
}

// Register admits the acting member to the event and returns the confirmed
// registration carrying its entry token.
func (s *AdmissionService) Register(ctx context.Context, params RegisterParams) (reg Registration, err error) {
	if s == nil {
		err = fmt.Errorf("AdmissionService is nil")
		return
	}
	if s.registrations == nil || s.events == nil || s.members == nil {
		err = fmt.Errorf("admission dependencies not configured")
		return
	}

	logger := s.loggerWith(ctx, "Register",
		"event_id", params.EventID,
		"member_id", params.Principal.MemberID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration refused", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("registration_id", reg.ID).InfoContext(ctx, "registration confirmed")
	}()

	if params.Principal.MemberID == "" {
		err = ErrUnauthorized
		return
	}

	var member persistence.Member
	member, err = s.members.GetMember(ctx, params.Principal.MemberID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}
	if MemberStatus(member.Status) != MemberActive {
		err = ErrMemberNotActive
		return
	}

	var event persistence.Event
	event, err = s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	record := persistence.Registration{
		ID:           s.idGenerator(),
		EventID:      event.ID,
		MemberID:     member.ID,
		Status:       string(RegistrationRegistered),
		RegisteredAt: s.now(),
	}

	tokenAttempts, busyAttempts := 0, 0
	for {
		record.EntryToken = entryToken(event.TokenPrefix, s.tokenSuffix())

		err = s.registrations.Admit(ctx, record)
		switch {
		case err == nil:
			reg = toRegistration(record)
			s.notify(ctx, Notification{
				Kind:           NotificationRegistrationConfirmed,
				MemberID:       member.ID,
				EventID:        event.ID,
				RegistrationID: record.ID,
				OccurredAt:     record.RegisteredAt,
			})
			return
		case errors.Is(err, persistence.ErrTokenTaken):
			tokenAttempts++
			if tokenAttempts >= tokenRetryLimit {
				err = fmt.Errorf("entry token generation exhausted after %d attempts: %w", tokenAttempts, ErrUnavailable)
				return
			}
		case errors.Is(err, persistence.ErrBusy):
			busyAttempts++
			if busyAttempts >= busyRetryLimit {
				err = ErrUnavailable
				return
			}
			s.backoff(ctx, busyAttempts)
		case errors.Is(err, persistence.ErrDuplicate):
			err = ErrAlreadyRegistered
			return
		case errors.Is(err, persistence.ErrEventNotOpen):
			err = ErrEventNotOpen
			return
		case errors.Is(err, persistence.ErrEventFull):
			err = ErrEventFull
			return
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNotFound
			return
		default:
			return
		}
	}
}

// Cancel cancels a registration on behalf of its owner or an administrator
// and releases the capacity slot it held.
func (s *AdmissionService) Cancel(ctx context.Context, params CancelRegistrationParams) (reg Registration, err error) {
	if s == nil {
		err = fmt.Errorf("AdmissionService is nil")
		return
	}
	if s.registrations == nil {
		err = fmt.Errorf("registration ledger not configured")
		return
	}

	logger := s.loggerWith(ctx, "Cancel",
		"registration_id", params.RegistrationID,
		"member_id", params.Principal.MemberID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "cancellation refused", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "registration cancelled")
	}()

	if params.Principal.MemberID == "" {
		err = ErrUnauthorized
		return
	}

	var current persistence.Registration
	current, err = s.registrations.GetRegistration(ctx, params.RegistrationID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}
	if current.MemberID != params.Principal.MemberID && !params.Principal.IsAdmin {
		err = ErrForbidden
		return
	}
	// Once checked in, only an administrator may undo the registration.
	if RegistrationStatus(current.Status) == RegistrationCheckedIn && !params.Principal.IsAdmin {
		err = ErrForbidden
		return
	}

	var cancelled persistence.Registration
	for attempt := 1; ; attempt++ {
		cancelled, err = s.registrations.CancelAndRelease(ctx, params.RegistrationID, s.now())
		if err == nil {
			break
		}
		if errors.Is(err, persistence.ErrBusy) && attempt < busyRetryLimit {
			s.backoff(ctx, attempt)
			continue
		}
		switch {
		case errors.Is(err, persistence.ErrAlreadyCancelled):
			err = ErrAlreadyCancelled
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNotFound
		case errors.Is(err, persistence.ErrBusy):
			err = ErrUnavailable
		}
		return
	}

	reg = toRegistration(cancelled)
	s.notify(ctx, Notification{
		Kind:           NotificationRegistrationCancelled,
		MemberID:       cancelled.MemberID,
		EventID:        cancelled.EventID,
		RegistrationID: cancelled.ID,
		OccurredAt:     s.now(),
	})
	return
}

// ListEventRegistrations returns the registrations for an event to administrators.
func (s *AdmissionService) ListEventRegistrations(ctx context.Context, principal Principal, eventID string) ([]Registration, error) {
	if s == nil {
		return nil, fmt.Errorf("AdmissionService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrForbidden
	}
	if s.events != nil {
		if _, err := s.events.GetEvent(ctx, eventID); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	records, err := s.registrations.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	regs := make([]Registration, 0, len(records))
	for _, record := range records {
		regs = append(regs, toRegistration(record))
	}
	return regs, nil
}

func (s *AdmissionService) notify(ctx context.Context, message Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, message)
}

func (s *AdmissionService) backoff(ctx context.Context, attempt int) {
	delay := s.retryDelay * time.Duration(attempt)
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// entryToken assembles an entry token from the event prefix and a random
// suffix. The prefix falls back to EVT for events created without one.
func entryToken(prefix, suffix string) string {
	prefix = strings.TrimSpace(strings.ToUpper(prefix))
	if prefix == "" {
		prefix = "EVT"
	}
	return prefix + "-" + suffix
}

// randomTokenSuffix returns 8 uppercase hex characters.
func randomTokenSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}
