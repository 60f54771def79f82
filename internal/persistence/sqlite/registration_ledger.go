package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/community-hub/internal/persistence"
)

// RegistrationLedger implements persistence.RegistrationLedger.
//
// The capacity invariant is enforced by a guarded UPDATE on the event row:
//
//	UPDATE events SET confirmed_count = confirmed_count + 1
//	WHERE id = ? AND status = 'OPEN'
//	  AND (capacity IS NULL OR confirmed_count < capacity)
//
// The WHERE clause re-evaluates against the current row state under the
// write lock, so two admissions racing for the last slot cannot both pass:
// the second UPDATE matches zero rows. The registration INSERT happens in
// the same transaction; if it fails (duplicate pair, token collision) the
// rollback also undoes the increment.
type RegistrationLedger struct {
	store *Store
}

// NewRegistrationLedger wires the ledger to a store.
func NewRegistrationLedger(store *Store) *RegistrationLedger {
	return &RegistrationLedger{store: store}
}

const registrationColumns = `id, event_id, member_id, entry_token, status, registered_at, checked_in_at`

// Admit consumes one capacity unit and inserts the registration atomically.
func (l *RegistrationLedger) Admit(ctx context.Context, reg persistence.Registration) error {
	err := l.store.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE events
			 SET confirmed_count = confirmed_count + 1, updated_at = ?
			 WHERE id = ? AND status = 'OPEN'
			   AND (capacity IS NULL OR confirmed_count < capacity)`,
			formatTime(reg.RegisteredAt), reg.EventID,
		)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return mapError(err)
		}
		if affected == 0 {
			return l.classifyRefusal(ctx, tx, reg.EventID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO registrations (`+registrationColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			reg.ID, reg.EventID, reg.MemberID, reg.EntryToken,
			reg.Status, formatTime(reg.RegisteredAt), nullableTime(reg.CheckedInAt),
		)
		if err != nil {
			return mapError(err)
		}
		return nil
	})
	return err
}

// classifyRefusal distinguishes why the guarded increment matched no row.
func (l *RegistrationLedger) classifyRefusal(ctx context.Context, tx *sql.Tx, eventID string) error {
	var status string
	var capacity sql.NullInt64
	var confirmed int
	err := tx.QueryRowContext(ctx,
		`SELECT status, capacity, confirmed_count FROM events WHERE id = ?`, eventID,
	).Scan(&status, &capacity, &confirmed)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	if err != nil {
		return mapError(err)
	}
	if status != "OPEN" {
		return persistence.ErrEventNotOpen
	}
	if capacity.Valid && confirmed >= int(capacity.Int64) {
		return persistence.ErrEventFull
	}
	return persistence.ErrBusy
}

// GetRegistration returns a registration by id.
func (l *RegistrationLedger) GetRegistration(ctx context.Context, id string) (persistence.Registration, error) {
	row := l.store.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id)
	return scanRegistration(row)
}

// ListRegistrationsByEvent returns all registrations for an event ordered by
// registration time.
func (l *RegistrationLedger) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]persistence.Registration, error) {
	rows, err := l.store.db.QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE event_id = ? ORDER BY registered_at ASC, id ASC`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var regs []persistence.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, mapError(rows.Err())
}

// CancelAndRelease cancels the registration and releases its capacity slot.
// Both REGISTERED and CHECKED_IN registrations are counted, so the decrement
// applies in either case; a repeated cancel never reaches the decrement.
func (l *RegistrationLedger) CancelAndRelease(ctx context.Context, id string, now time.Time) (persistence.Registration, error) {
	var cancelled persistence.Registration
	err := l.store.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanRegistration(tx.QueryRowContext(ctx,
			`SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id))
		if err != nil {
			return err
		}
		if current.Status == "CANCELLED" {
			return persistence.ErrAlreadyCancelled
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE registrations SET status = 'CANCELLED'
			 WHERE id = ? AND status = ?`, id, current.Status)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return mapError(err)
		}
		if affected == 0 {
			return persistence.ErrBusy
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE events
			 SET confirmed_count = confirmed_count - 1, updated_at = ?
			 WHERE id = ? AND confirmed_count > 0`,
			formatTime(now), current.EventID,
		); err != nil {
			return mapError(err)
		}

		cancelled = current
		cancelled.Status = "CANCELLED"
		return nil
	})
	if err != nil {
		return persistence.Registration{}, err
	}
	return cancelled, nil
}

// CheckIn marks the registration behind the token CHECKED_IN exactly once.
// The guarded single-statement UPDATE decides the winner among concurrent
// scans; losers read the stored row back so the caller can report the
// original check-in time.
func (l *RegistrationLedger) CheckIn(ctx context.Context, entryToken string, now time.Time) (persistence.Registration, error) {
	var checked persistence.Registration
	err := l.store.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE registrations
			 SET status = 'CHECKED_IN', checked_in_at = ?
			 WHERE entry_token = ? AND status = 'REGISTERED'`,
			formatTime(now), entryToken,
		)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return mapError(err)
		}

		current, err := scanRegistration(tx.QueryRowContext(ctx,
			`SELECT `+registrationColumns+` FROM registrations WHERE entry_token = ?`, entryToken))
		if err != nil {
			return err
		}

		if affected == 1 {
			checked = current
			return nil
		}
		switch current.Status {
		case "CHECKED_IN":
			checked = current
			return persistence.ErrAlreadyCheckedIn
		case "CANCELLED":
			checked = current
			return persistence.ErrRegistrationCancelled
		default:
			return persistence.ErrBusy
		}
	})
	if err != nil {
		// The stored row still travels with the sentinel for the
		// already-checked-in case.
		return checked, err
	}
	return checked, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (persistence.Registration, error) {
	var reg persistence.Registration
	var registeredAt string
	var checkedInAt sql.NullString
	err := row.Scan(&reg.ID, &reg.EventID, &reg.MemberID, &reg.EntryToken,
		&reg.Status, &registeredAt, &checkedInAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Registration{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Registration{}, mapError(err)
	}
	reg.RegisteredAt = parseTime(registeredAt)
	reg.CheckedInAt = timePtr(checkedInAt)
	return reg, nil
}
