package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/community-hub/internal/persistence"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

var testTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func seedMember(t *testing.T, store *Store, id string) {
	t.Helper()
	repo := NewMemberRepository(store)
	err := repo.CreateMember(context.Background(), persistence.Member{
		ID:           id,
		Email:        id + "@example.com",
		DisplayName:  "Member " + id,
		Status:       "ACTIVE",
		PasswordHash: "hash",
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	})
	require.NoError(t, err)
}

func seedEvent(t *testing.T, store *Store, id, status string, capacity *int) {
	t.Helper()
	repo := NewEventRepository(store)
	err := repo.CreateEvent(context.Background(), persistence.Event{
		ID:          id,
		Title:       "Event " + id,
		StartTime:   testTime.Add(24 * time.Hour),
		EndTime:     testTime.Add(26 * time.Hour),
		Capacity:    capacity,
		Status:      status,
		TokenPrefix: "EVT",
		CreatedAt:   testTime,
		UpdatedAt:   testTime,
	})
	require.NoError(t, err)
}

func intp(n int) *int { return &n }

func TestRegistrationLedgerAdmit(t *testing.T) {
	t.Parallel()

	newRegistration := func(id, eventID, memberID, token string) persistence.Registration {
		return persistence.Registration{
			ID:           id,
			EventID:      eventID,
			MemberID:     memberID,
			EntryToken:   token,
			Status:       "REGISTERED",
			RegisteredAt: testTime,
		}
	}

	t.Run("admits and increments confirmed count", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		seedEvent(t, store, "e1", "OPEN", intp(10))
		ledger := NewRegistrationLedger(store)

		err := ledger.Admit(context.Background(), newRegistration("r1", "e1", "m1", "EVT-AAAA1111"))
		require.NoError(t, err)

		event, err := NewEventRepository(store).GetEvent(context.Background(), "e1")
		require.NoError(t, err)
		require.Equal(t, 1, event.ConfirmedCount)

		reg, err := ledger.GetRegistration(context.Background(), "r1")
		require.NoError(t, err)
		require.Equal(t, "REGISTERED", reg.Status)
		require.Nil(t, reg.CheckedInAt)
	})

	t.Run("refuses when event is full", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		seedMember(t, store, "m2")
		seedEvent(t, store, "e1", "OPEN", intp(1))
		ledger := NewRegistrationLedger(store)

		require.NoError(t, ledger.Admit(context.Background(), newRegistration("r1", "e1", "m1", "EVT-AAAA1111")))
		err := ledger.Admit(context.Background(), newRegistration("r2", "e1", "m2", "EVT-BBBB2222"))
		require.ErrorIs(t, err, persistence.ErrEventFull)
	})

	t.Run("refuses when event is not open", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		seedEvent(t, store, "e1", "DRAFT", intp(10))
		ledger := NewRegistrationLedger(store)

		err := ledger.Admit(context.Background(), newRegistration("r1", "e1", "m1", "EVT-AAAA1111"))
		require.ErrorIs(t, err, persistence.ErrEventNotOpen)
	})

	t.Run("reports missing event", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		ledger := NewRegistrationLedger(store)

		err := ledger.Admit(context.Background(), newRegistration("r1", "missing", "m1", "EVT-AAAA1111"))
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("refuses duplicate pair and restores count", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		seedEvent(t, store, "e1", "OPEN", intp(10))
		ledger := NewRegistrationLedger(store)

		require.NoError(t, ledger.Admit(context.Background(), newRegistration("r1", "e1", "m1", "EVT-AAAA1111")))
		err := ledger.Admit(context.Background(), newRegistration("r2", "e1", "m1", "EVT-BBBB2222"))
		require.ErrorIs(t, err, persistence.ErrDuplicate)

		event, err := NewEventRepository(store).GetEvent(context.Background(), "e1")
		require.NoError(t, err)
		require.Equal(t, 1, event.ConfirmedCount)
	})

	t.Run("duplicate pair holds after cancellation", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		seedEvent(t, store, "e1", "OPEN", intp(10))
		ledger := NewRegistrationLedger(store)

		require.NoError(t, ledger.Admit(context.Background(), newRegistration("r1", "e1", "m1", "EVT-AAAA1111")))
		_, err := ledger.CancelAndRelease(context.Background(), "r1", testTime.Add(time.Hour))
		require.NoError(t, err)

		err = ledger.Admit(context.Background(), newRegistration("r2", "e1", "m1", "EVT-BBBB2222"))
		require.ErrorIs(t, err, persistence.ErrDuplicate)
	})

	t.Run("reports entry token collision", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		seedMember(t, store, "m2")
		seedEvent(t, store, "e1", "OPEN", intp(10))
		seedEvent(t, store, "e2", "OPEN", intp(10))
		ledger := NewRegistrationLedger(store)

		require.NoError(t, ledger.Admit(context.Background(), newRegistration("r1", "e1", "m1", "EVT-AAAA1111")))
		err := ledger.Admit(context.Background(), newRegistration("r2", "e2", "m2", "EVT-AAAA1111"))
		require.ErrorIs(t, err, persistence.ErrTokenTaken)

		event, err := NewEventRepository(store).GetEvent(context.Background(), "e2")
		require.NoError(t, err)
		require.Equal(t, 0, event.ConfirmedCount)
	})

	t.Run("unlimited capacity admits freely", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedEvent(t, store, "e1", "OPEN", nil)
		ledger := NewRegistrationLedger(store)

		for i := 0; i < 5; i++ {
			id := fmt.Sprintf("m%d", i)
			seedMember(t, store, id)
			reg := newRegistration("r"+id, "e1", id, fmt.Sprintf("EVT-TOKEN%03d", i))
			require.NoError(t, ledger.Admit(context.Background(), reg))
		}

		event, err := NewEventRepository(store).GetEvent(context.Background(), "e1")
		require.NoError(t, err)
		require.Equal(t, 5, event.ConfirmedCount)
	})
}

func TestRegistrationLedgerAdmitConcurrent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	const capacity = 5
	const contenders = 20
	seedEvent(t, store, "e1", "OPEN", intp(capacity))
	for i := 0; i < contenders; i++ {
		seedMember(t, store, fmt.Sprintf("m%02d", i))
	}
	ledger := NewRegistrationLedger(store)

	results := make(chan error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- ledger.Admit(context.Background(), persistence.Registration{
				ID:           fmt.Sprintf("r%02d", i),
				EventID:      "e1",
				MemberID:     fmt.Sprintf("m%02d", i),
				EntryToken:   fmt.Sprintf("EVT-TOKEN%03d", i),
				Status:       "REGISTERED",
				RegisteredAt: testTime,
			})
		}(i)
	}
	wg.Wait()
	close(results)

	admitted, refused := 0, 0
	for err := range results {
		switch {
		case err == nil:
			admitted++
		default:
			require.ErrorIs(t, err, persistence.ErrEventFull)
			refused++
		}
	}
	require.Equal(t, capacity, admitted)
	require.Equal(t, contenders-capacity, refused)

	event, err := NewEventRepository(store).GetEvent(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, capacity, event.ConfirmedCount)

	regs, err := ledger.ListRegistrationsByEvent(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, regs, capacity)
}

func TestRegistrationLedgerCancelAndRelease(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*Store, *RegistrationLedger) {
		store := newTestStore(t)
		seedMember(t, store, "m1")
		seedEvent(t, store, "e1", "OPEN", intp(1))
		ledger := NewRegistrationLedger(store)
		err := ledger.Admit(context.Background(), persistence.Registration{
			ID: "r1", EventID: "e1", MemberID: "m1",
			EntryToken: "EVT-AAAA1111", Status: "REGISTERED", RegisteredAt: testTime,
		})
		require.NoError(t, err)
		return store, ledger
	}

	t.Run("releases the capacity slot", func(t *testing.T) {
		t.Parallel()
		store, ledger := setup(t)

		cancelled, err := ledger.CancelAndRelease(context.Background(), "r1", testTime.Add(time.Hour))
		require.NoError(t, err)
		require.Equal(t, "CANCELLED", cancelled.Status)

		event, err := NewEventRepository(store).GetEvent(context.Background(), "e1")
		require.NoError(t, err)
		require.Equal(t, 0, event.ConfirmedCount)
	})

	t.Run("repeated cancel is refused", func(t *testing.T) {
		t.Parallel()
		store, ledger := setup(t)

		_, err := ledger.CancelAndRelease(context.Background(), "r1", testTime.Add(time.Hour))
		require.NoError(t, err)
		_, err = ledger.CancelAndRelease(context.Background(), "r1", testTime.Add(2*time.Hour))
		require.ErrorIs(t, err, persistence.ErrAlreadyCancelled)

		event, err := NewEventRepository(store).GetEvent(context.Background(), "e1")
		require.NoError(t, err)
		require.Equal(t, 0, event.ConfirmedCount)
	})

	t.Run("cancelling a checked-in registration releases the slot", func(t *testing.T) {
		t.Parallel()
		store, ledger := setup(t)

		_, err := ledger.CheckIn(context.Background(), "EVT-AAAA1111", testTime.Add(30*time.Minute))
		require.NoError(t, err)

		cancelled, err := ledger.CancelAndRelease(context.Background(), "r1", testTime.Add(time.Hour))
		require.NoError(t, err)
		require.Equal(t, "CANCELLED", cancelled.Status)

		event, err := NewEventRepository(store).GetEvent(context.Background(), "e1")
		require.NoError(t, err)
		require.Equal(t, 0, event.ConfirmedCount)
	})

	t.Run("unknown registration", func(t *testing.T) {
		t.Parallel()
		_, ledger := setup(t)
		_, err := ledger.CancelAndRelease(context.Background(), "missing", testTime)
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func TestRegistrationLedgerCheckIn(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *RegistrationLedger {
		store := newTestStore(t)
		seedMember(t, store, "m1")
		seedEvent(t, store, "e1", "OPEN", intp(10))
		ledger := NewRegistrationLedger(store)
		err := ledger.Admit(context.Background(), persistence.Registration{
			ID: "r1", EventID: "e1", MemberID: "m1",
			EntryToken: "EVT-AAAA1111", Status: "REGISTERED", RegisteredAt: testTime,
		})
		require.NoError(t, err)
		return ledger
	}

	t.Run("stamps the check-in time once", func(t *testing.T) {
		t.Parallel()
		ledger := setup(t)
		scanTime := testTime.Add(30 * time.Minute)

		reg, err := ledger.CheckIn(context.Background(), "EVT-AAAA1111", scanTime)
		require.NoError(t, err)
		require.Equal(t, "CHECKED_IN", reg.Status)
		require.NotNil(t, reg.CheckedInAt)
		require.True(t, reg.CheckedInAt.Equal(scanTime))
	})

	t.Run("repeat scan reports the original time", func(t *testing.T) {
		t.Parallel()
		ledger := setup(t)
		first := testTime.Add(30 * time.Minute)

		_, err := ledger.CheckIn(context.Background(), "EVT-AAAA1111", first)
		require.NoError(t, err)

		reg, err := ledger.CheckIn(context.Background(), "EVT-AAAA1111", first.Add(10*time.Minute))
		require.ErrorIs(t, err, persistence.ErrAlreadyCheckedIn)
		require.NotNil(t, reg.CheckedInAt)
		require.True(t, reg.CheckedInAt.Equal(first))
	})

	t.Run("cancelled registration is refused", func(t *testing.T) {
		t.Parallel()
		ledger := setup(t)

		_, err := ledger.CancelAndRelease(context.Background(), "r1", testTime.Add(time.Hour))
		require.NoError(t, err)

		_, err = ledger.CheckIn(context.Background(), "EVT-AAAA1111", testTime.Add(2*time.Hour))
		require.ErrorIs(t, err, persistence.ErrRegistrationCancelled)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()
		ledger := setup(t)
		_, err := ledger.CheckIn(context.Background(), "EVT-ZZZZ9999", testTime)
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("concurrent scans admit exactly one", func(t *testing.T) {
		t.Parallel()
		ledger := setup(t)
		const scans = 10

		results := make(chan error, scans)
		var wg sync.WaitGroup
		for i := 0; i < scans; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := ledger.CheckIn(context.Background(), "EVT-AAAA1111",
					testTime.Add(time.Duration(i)*time.Second))
				results <- err
			}(i)
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
				continue
			}
			require.ErrorIs(t, err, persistence.ErrAlreadyCheckedIn)
		}
		require.Equal(t, 1, succeeded)
	})
}

func TestEventRepositoryTransition(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	seedEvent(t, store, "e1", "DRAFT", intp(10))
	repo := NewEventRepository(store)

	err := repo.TransitionEventStatus(context.Background(), "e1", "DRAFT", "OPEN", testTime)
	require.NoError(t, err)

	event, err := repo.GetEvent(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, "OPEN", event.Status)

	err = repo.TransitionEventStatus(context.Background(), "e1", "DRAFT", "OPEN", testTime)
	require.ErrorIs(t, err, persistence.ErrStale)

	err = repo.TransitionEventStatus(context.Background(), "missing", "DRAFT", "OPEN", testTime)
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestEventRepositoryList(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	seedEvent(t, store, "e1", "OPEN", intp(10))
	seedEvent(t, store, "e2", "DRAFT", nil)
	repo := NewEventRepository(store)

	all, err := repo.ListEvents(context.Background(), persistence.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	open, err := repo.ListEvents(context.Background(), persistence.EventFilter{Status: "OPEN"})
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "e1", open[0].ID)
}

func TestMemberRepository(t *testing.T) {
	t.Parallel()

	t.Run("email is unique case-insensitively", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		repo := NewMemberRepository(store)
		seedMember(t, store, "m1")

		err := repo.CreateMember(context.Background(), persistence.Member{
			ID:           "m2",
			Email:        "M1@EXAMPLE.COM",
			DisplayName:  "Shouty",
			Status:       "PENDING",
			PasswordHash: "hash",
			CreatedAt:    testTime,
			UpdatedAt:    testTime,
		})
		require.ErrorIs(t, err, persistence.ErrDuplicate)
	})

	t.Run("lookup by email ignores case", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		repo := NewMemberRepository(store)

		member, err := repo.GetMemberByEmail(context.Background(), "M1@Example.Com")
		require.NoError(t, err)
		require.Equal(t, "m1", member.ID)
	})

	t.Run("update unknown member", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		repo := NewMemberRepository(store)
		err := repo.UpdateMember(context.Background(), persistence.Member{ID: "missing", UpdatedAt: testTime})
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func TestSessionRepository(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	seedMember(t, store, "m1")
	repo := NewSessionRepository(store)

	session := persistence.Session{
		ID:        "s1",
		MemberID:  "m1",
		Token:     "tok-1",
		ExpiresAt: testTime.Add(24 * time.Hour),
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
	require.NoError(t, repo.CreateSession(context.Background(), session))

	loaded, err := repo.GetSession(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Equal(t, "m1", loaded.MemberID)
	require.Nil(t, loaded.RevokedAt)

	require.NoError(t, repo.RevokeSession(context.Background(), "tok-1", testTime.Add(time.Hour)))
	loaded, err = repo.GetSession(context.Background(), "tok-1")
	require.NoError(t, err)
	require.NotNil(t, loaded.RevokedAt)

	// Second revoke is a no-op, unknown token is reported.
	require.NoError(t, repo.RevokeSession(context.Background(), "tok-1", testTime.Add(2*time.Hour)))
	require.ErrorIs(t, repo.RevokeSession(context.Background(), "missing", testTime), persistence.ErrNotFound)

	require.NoError(t, repo.DeleteExpiredSessions(context.Background(), testTime.Add(48*time.Hour)))
	_, err = repo.GetSession(context.Background(), "tok-1")
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestReservationRepository(t *testing.T) {
	t.Parallel()

	seedResource := func(t *testing.T, store *Store, id string) {
		t.Helper()
		err := NewResourceRepository(store).CreateResource(context.Background(), persistence.Resource{
			ID:        id,
			Name:      "Room " + id,
			Type:      "ROOM",
			Capacity:  intp(8),
			Available: true,
			CreatedAt: testTime,
			UpdatedAt: testTime,
		})
		require.NoError(t, err)
	}

	t.Run("create list and transition", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		seedResource(t, store, "res1")
		repo := NewReservationRepository(store)

		reservation := persistence.Reservation{
			ID:         "b1",
			ResourceID: "res1",
			MemberID:   "m1",
			StartTime:  testTime.Add(time.Hour),
			EndTime:    testTime.Add(2 * time.Hour),
			Status:     "PENDING",
			CreatedAt:  testTime,
			UpdatedAt:  testTime,
		}
		require.NoError(t, repo.CreateReservation(context.Background(), reservation))

		listed, err := repo.ListReservations(context.Background(), persistence.ReservationFilter{
			ResourceID: "res1", Status: "PENDING",
		})
		require.NoError(t, err)
		require.Len(t, listed, 1)

		err = repo.TransitionReservationStatus(context.Background(), "b1", "PENDING", "APPROVED", testTime.Add(time.Minute))
		require.NoError(t, err)
		err = repo.TransitionReservationStatus(context.Background(), "b1", "PENDING", "APPROVED", testTime.Add(time.Minute))
		require.ErrorIs(t, err, persistence.ErrStale)
	})

	t.Run("rejects inverted time range", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		seedResource(t, store, "res1")
		repo := NewReservationRepository(store)

		err := repo.CreateReservation(context.Background(), persistence.Reservation{
			ID:         "b1",
			ResourceID: "res1",
			MemberID:   "m1",
			StartTime:  testTime.Add(2 * time.Hour),
			EndTime:    testTime.Add(time.Hour),
			Status:     "PENDING",
			CreatedAt:  testTime,
			UpdatedAt:  testTime,
		})
		require.ErrorIs(t, err, persistence.ErrConstraintViolation)
	})

	t.Run("rejects unknown resource", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		seedMember(t, store, "m1")
		repo := NewReservationRepository(store)

		err := repo.CreateReservation(context.Background(), persistence.Reservation{
			ID:         "b1",
			ResourceID: "missing",
			MemberID:   "m1",
			StartTime:  testTime.Add(time.Hour),
			EndTime:    testTime.Add(2 * time.Hour),
			Status:     "PENDING",
			CreatedAt:  testTime,
			UpdatedAt:  testTime,
		})
		require.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
	})
}
