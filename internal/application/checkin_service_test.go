package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/community-hub/internal/persistence"
	"github.com/example/community-hub/internal/testfixtures"
)

func TestCheckInService(t *testing.T) {
	t.Parallel()

	stored := persistence.Registration{
		ID: "r1", EventID: "e1", MemberID: "m1",
		EntryToken: "EVT-AAAA1111", Status: "REGISTERED", RegisteredAt: fixedNow,
	}

	t.Run("records the check-in", func(t *testing.T) {
		t.Parallel()
		ledger := &stubLedger{
			checkIn: func(_ context.Context, token string, now time.Time) (persistence.Registration, error) {
				require.Equal(t, "EVT-AAAA1111", token)
				checked := stored
				checked.Status = "CHECKED_IN"
				checked.CheckedInAt = &now
				return checked, nil
			},
		}
		service := NewCheckInService(ledger, testfixtures.FrozenClock(fixedNow), nil)

		reg, err := service.CheckIn(context.Background(), " EVT-AAAA1111 ")
		require.NoError(t, err)
		require.Equal(t, RegistrationCheckedIn, reg.Status)
		require.NotNil(t, reg.CheckedInAt)
		require.True(t, reg.CheckedInAt.Equal(fixedNow))
	})

	t.Run("repeat scan carries the original time", func(t *testing.T) {
		t.Parallel()
		original := fixedNow.Add(-15 * time.Minute)
		ledger := &stubLedger{
			checkIn: func(_ context.Context, _ string, _ time.Time) (persistence.Registration, error) {
				checked := stored
				checked.Status = "CHECKED_IN"
				checked.CheckedInAt = &original
				return checked, persistence.ErrAlreadyCheckedIn
			},
		}
		service := NewCheckInService(ledger, testfixtures.FrozenClock(fixedNow), nil)

		_, err := service.CheckIn(context.Background(), "EVT-AAAA1111")
		var checkedInErr *AlreadyCheckedInError
		require.ErrorAs(t, err, &checkedInErr)
		require.True(t, checkedInErr.CheckedInAt().Equal(original))
	})

	t.Run("cancelled registration", func(t *testing.T) {
		t.Parallel()
		ledger := &stubLedger{
			checkIn: func(_ context.Context, _ string, _ time.Time) (persistence.Registration, error) {
				cancelled := stored
				cancelled.Status = "CANCELLED"
				return cancelled, persistence.ErrRegistrationCancelled
			},
		}
		service := NewCheckInService(ledger, testfixtures.FrozenClock(fixedNow), nil)

		_, err := service.CheckIn(context.Background(), "EVT-AAAA1111")
		require.ErrorIs(t, err, ErrRegistrationCancelled)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()
		service := NewCheckInService(&stubLedger{}, testfixtures.FrozenClock(fixedNow), nil)

		_, err := service.CheckIn(context.Background(), "EVT-ZZZZ9999")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty token fails validation", func(t *testing.T) {
		t.Parallel()
		service := NewCheckInService(&stubLedger{}, testfixtures.FrozenClock(fixedNow), nil)

		_, err := service.CheckIn(context.Background(), "   ")
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		require.Contains(t, vErr.FieldErrors, "entry_token")
	})

	t.Run("persistent contention becomes unavailable", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		ledger := &stubLedger{
			checkIn: func(_ context.Context, _ string, _ time.Time) (persistence.Registration, error) {
				attempts++
				return persistence.Registration{}, persistence.ErrBusy
			},
		}
		service := NewCheckInService(ledger, testfixtures.FrozenClock(fixedNow), nil).WithRetryDelay(0)

		_, err := service.CheckIn(context.Background(), "EVT-AAAA1111")
		require.ErrorIs(t, err, ErrUnavailable)
		require.Equal(t, busyRetryLimit, attempts)
	})
}
