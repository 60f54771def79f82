package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/community-hub/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository.
type SessionRepository struct {
	store *Store
}

// NewSessionRepository wires the repository to a store.
func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

const sessionColumns = `id, member_id, token, expires_at, created_at, updated_at, revoked_at`

// CreateSession inserts a new session.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.MemberID, session.Token,
		formatTime(session.ExpiresAt), formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt), nullableTime(session.RevokedAt),
	)
	return mapError(err)
}

// GetSession returns a session by token.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = ?`, token)

	var session persistence.Session
	var expiresAt, createdAt, updatedAt string
	var revokedAt sql.NullString
	err := row.Scan(&session.ID, &session.MemberID, &session.Token,
		&expiresAt, &createdAt, &updatedAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Session{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	session.ExpiresAt = parseTime(expiresAt)
	session.CreatedAt = parseTime(createdAt)
	session.UpdatedAt = parseTime(updatedAt)
	session.RevokedAt = timePtr(revokedAt)
	return session, nil
}

// RevokeSession stamps the session revoked. Revoking an unknown token
// returns ErrNotFound; revoking twice is a no-op.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	result, err := r.store.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ?, updated_at = ?
		 WHERE token = ? AND revoked_at IS NULL`,
		formatTime(revokedAt), formatTime(revokedAt), token,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		var exists int
		err = r.store.db.QueryRowContext(ctx,
			`SELECT 1 FROM sessions WHERE token = ?`, token).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ErrNotFound
		}
		return mapError(err)
	}
	return nil
}

// DeleteExpiredSessions prunes sessions whose expiry precedes the reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.store.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, formatTime(reference))
	return mapError(err)
}
