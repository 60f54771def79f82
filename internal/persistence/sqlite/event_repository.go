package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/community-hub/internal/persistence"
)

// EventRepository implements persistence.EventRepository.
type EventRepository struct {
	store *Store
}

// NewEventRepository wires the repository to a store.
func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{store: store}
}

const eventColumns = `id, title, description, location, start_time, end_time,
	capacity, confirmed_count, status, token_prefix, created_at, updated_at`

// CreateEvent inserts a new catalog entry.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Title, event.Description, event.Location,
		formatTime(event.StartTime), formatTime(event.EndTime),
		nullableInt(event.Capacity), event.ConfirmedCount, event.Status,
		event.TokenPrefix, formatTime(event.CreatedAt), formatTime(event.UpdatedAt),
	)
	return mapError(err)
}

// GetEvent returns an event by id.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return scanEvent(row)
}

// ListEvents returns catalog entries ordered by start time descending,
// optionally narrowed by lifecycle status.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	args := make([]any, 0, 1)
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY start_time DESC, id ASC`

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, mapError(rows.Err())
}

// TransitionEventStatus applies a guarded compare-and-set on the lifecycle
// status so racing transitions cannot both win.
func (r *EventRepository) TransitionEventStatus(ctx context.Context, id, from, to string, now time.Time) error {
	result, err := r.store.db.ExecContext(ctx,
		`UPDATE events SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, formatTime(now), id, from,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 1 {
		return nil
	}

	var exists int
	err = r.store.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	if err != nil {
		return mapError(err)
	}
	return persistence.ErrStale
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var event persistence.Event
	var startTime, endTime, createdAt, updatedAt string
	var capacity sql.NullInt64
	err := row.Scan(&event.ID, &event.Title, &event.Description, &event.Location,
		&startTime, &endTime, &capacity, &event.ConfirmedCount, &event.Status,
		&event.TokenPrefix, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Event{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Event{}, mapError(err)
	}
	event.StartTime = parseTime(startTime)
	event.EndTime = parseTime(endTime)
	event.Capacity = intPtr(capacity)
	event.CreatedAt = parseTime(createdAt)
	event.UpdatedAt = parseTime(updatedAt)
	return event, nil
}
