package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/community-hub/internal/persistence"
)

// MemberRepository implements persistence.MemberRepository.
type MemberRepository struct {
	store *Store
}

// NewMemberRepository wires the repository to a store.
func NewMemberRepository(store *Store) *MemberRepository {
	return &MemberRepository{store: store}
}

const memberColumns = `id, email, display_name, phone, is_admin, status,
	password_hash, created_at, updated_at`

// CreateMember inserts a new member account. Email uniqueness is enforced by
// the NOCASE unique index, not by a pre-check.
func (r *MemberRepository) CreateMember(ctx context.Context, member persistence.Member) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID, member.Email, member.DisplayName, member.Phone,
		boolToInt(member.IsAdmin), member.Status, member.PasswordHash,
		formatTime(member.CreatedAt), formatTime(member.UpdatedAt),
	)
	return mapError(err)
}

// GetMember returns a member by id.
func (r *MemberRepository) GetMember(ctx context.Context, id string) (persistence.Member, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	return scanMember(row)
}

// GetMemberByEmail returns a member by email, matched case-insensitively.
func (r *MemberRepository) GetMemberByEmail(ctx context.Context, email string) (persistence.Member, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE email = ? COLLATE NOCASE`, email)
	return scanMember(row)
}

// ListMembers returns all members ordered by creation time.
func (r *MemberRepository) ListMembers(ctx context.Context) ([]persistence.Member, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var members []persistence.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, mapError(rows.Err())
}

// UpdateMember rewrites a member record.
func (r *MemberRepository) UpdateMember(ctx context.Context, member persistence.Member) error {
	result, err := r.store.db.ExecContext(ctx,
		`UPDATE members
		 SET email = ?, display_name = ?, phone = ?, is_admin = ?, status = ?,
		     password_hash = ?, updated_at = ?
		 WHERE id = ?`,
		member.Email, member.DisplayName, member.Phone, boolToInt(member.IsAdmin),
		member.Status, member.PasswordHash, formatTime(member.UpdatedAt), member.ID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanMember(row rowScanner) (persistence.Member, error) {
	var member persistence.Member
	var isAdmin int
	var createdAt, updatedAt string
	err := row.Scan(&member.ID, &member.Email, &member.DisplayName, &member.Phone,
		&isAdmin, &member.Status, &member.PasswordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Member{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Member{}, mapError(err)
	}
	member.IsAdmin = isAdmin != 0
	member.CreatedAt = parseTime(createdAt)
	member.UpdatedAt = parseTime(updatedAt)
	return member, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
