package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/community-hub/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository.
type ResourceRepository struct {
	store *Store
}

// NewResourceRepository wires the repository to a store.
func NewResourceRepository(store *Store) *ResourceRepository {
	return &ResourceRepository{store: store}
}

const resourceColumns = `id, name, type, description, capacity, available, created_at, updated_at`

// CreateResource inserts a new bookable resource.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO resources (`+resourceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		resource.ID, resource.Name, resource.Type, resource.Description,
		nullableInt(resource.Capacity), boolToInt(resource.Available),
		formatTime(resource.CreatedAt), formatTime(resource.UpdatedAt),
	)
	return mapError(err)
}

// GetResource returns a resource by id.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	return scanResource(row)
}

// ListResources returns all resources ordered by name.
func (r *ResourceRepository) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM resources ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	return resources, mapError(rows.Err())
}

func scanResource(row rowScanner) (persistence.Resource, error) {
	var resource persistence.Resource
	var capacity sql.NullInt64
	var available int
	var createdAt, updatedAt string
	err := row.Scan(&resource.ID, &resource.Name, &resource.Type, &resource.Description,
		&capacity, &available, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Resource{}, mapError(err)
	}
	resource.Capacity = intPtr(capacity)
	resource.Available = available != 0
	resource.CreatedAt = parseTime(createdAt)
	resource.UpdatedAt = parseTime(updatedAt)
	return resource, nil
}

// ReservationRepository implements persistence.ReservationRepository.
type ReservationRepository struct {
	store *Store
}

// NewReservationRepository wires the repository to a store.
func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{store: store}
}

const reservationColumns = `id, resource_id, member_id, start_time, end_time, status, notes, created_at, updated_at`

// CreateReservation inserts a new reservation.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO reservations (`+reservationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reservation.ID, reservation.ResourceID, reservation.MemberID,
		formatTime(reservation.StartTime), formatTime(reservation.EndTime),
		reservation.Status, reservation.Notes,
		formatTime(reservation.CreatedAt), formatTime(reservation.UpdatedAt),
	)
	return mapError(err)
}

// GetReservation returns a reservation by id.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// ListReservations returns reservations matching the filter ordered by start
// time descending.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if filter.ResourceID != "" {
		clauses = append(clauses, `resource_id = ?`)
		args = append(args, filter.ResourceID)
	}
	if filter.MemberID != "" {
		clauses = append(clauses, `member_id = ?`)
		args = append(args, filter.MemberID)
	}
	if filter.Status != "" {
		clauses = append(clauses, `status = ?`)
		args = append(args, filter.Status)
	}
	for i, clause := range clauses {
		if i == 0 {
			query += ` WHERE ` + clause
		} else {
			query += ` AND ` + clause
		}
	}
	query += ` ORDER BY start_time DESC, id ASC`

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, mapError(rows.Err())
}

// TransitionReservationStatus applies a guarded compare-and-set on the
// reservation status.
func (r *ReservationRepository) TransitionReservationStatus(ctx context.Context, id, from, to string, now time.Time) error {
	result, err := r.store.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
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
	err = r.store.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	if err != nil {
		return mapError(err)
	}
	return persistence.ErrStale
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var startTime, endTime, createdAt, updatedAt string
	err := row.Scan(&reservation.ID, &reservation.ResourceID, &reservation.MemberID,
		&startTime, &endTime, &reservation.Status, &reservation.Notes,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	reservation.StartTime = parseTime(startTime)
	reservation.EndTime = parseTime(endTime)
	reservation.CreatedAt = parseTime(createdAt)
	reservation.UpdatedAt = parseTime(updatedAt)
	return reservation, nil
}
