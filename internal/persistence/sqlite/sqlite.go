// Package sqlite implements the persistence contracts on SQLite via the
// pure-Go modernc.org/sqlite driver. Uniqueness invariants live in UNIQUE
// indexes and the capacity invariant in a guarded UPDATE, so they hold under
// any interleaving of callers, not only the polite ones.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/example/community-hub/internal/persistence"
)

// Store owns the database handle shared by all repositories.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database behind the DSN and verifies the
// connection. Connection-scoped pragmas are carried in the DSN so every
// pooled connection gets them.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", withDefaultParams(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withDefaultParams appends the pragmas the repositories rely on unless the
// caller's DSN already configures its own.
func withDefaultParams(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

// migrations are applied in order; PRAGMA user_version tracks progress so
// reopening an existing database only applies the tail.
var migrations = []string{
	`CREATE TABLE members (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL COLLATE NOCASE UNIQUE,
		display_name  TEXT NOT NULL,
		phone         TEXT NOT NULL DEFAULT '',
		is_admin      INTEGER NOT NULL DEFAULT 0,
		status        TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);
	CREATE TABLE sessions (
		id         TEXT PRIMARY KEY,
		member_id  TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		token      TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT
	);
	CREATE TABLE events (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		location        TEXT NOT NULL DEFAULT '',
		start_time      TEXT NOT NULL,
		end_time        TEXT NOT NULL,
		capacity        INTEGER,
		confirmed_count INTEGER NOT NULL DEFAULT 0,
		status          TEXT NOT NULL,
		token_prefix    TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		CHECK (confirmed_count >= 0),
		CHECK (capacity IS NULL OR confirmed_count <= capacity)
	);
	CREATE TABLE registrations (
		id            TEXT PRIMARY KEY,
		event_id      TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		member_id     TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		entry_token   TEXT NOT NULL,
		status        TEXT NOT NULL,
		registered_at TEXT NOT NULL,
		checked_in_at TEXT,
		UNIQUE (event_id, member_id)
	);
	CREATE UNIQUE INDEX idx_registrations_entry_token ON registrations (entry_token);
	CREATE TABLE resources (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		capacity    INTEGER,
		available   INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE TABLE reservations (
		id          TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
		member_id   TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL,
		status      TEXT NOT NULL,
		notes       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		CHECK (start_time < end_time)
	);
	CREATE INDEX idx_reservations_resource_time ON reservations (resource_id, start_time);`,
}

// Migrate brings the schema up to the current version.
func (s *Store) Migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for i := version; i < len(migrations); i++ {
		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
				return fmt.Errorf("apply migration %d: %w", i+1, err)
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
				return fmt.Errorf("bump schema version: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

// mapError translates driver errors into persistence sentinels so services
// never depend on SQLite error strings.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: registrations.entry_token"),
		strings.Contains(msg, "idx_registrations_entry_token"):
		return persistence.ErrTokenTaken
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return persistence.ErrDuplicate
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return persistence.ErrForeignKeyViolation
	case strings.Contains(msg, "CHECK constraint failed"):
		return persistence.ErrConstraintViolation
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return persistence.ErrBusy
	}
	return err
}
