package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/example/community-hub/internal/persistence"
)

// PasswordHasher derives a stored hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// MemberService orchestrates the member directory. New accounts start
// PENDING; an administrator activates them before they can register for
// events.
type MemberService struct {
	members      persistence.MemberRepository
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
}

// NewMemberService wires dependencies for the member service.
func NewMemberService(members persistence.MemberRepository, hashPassword PasswordHasher, idGenerator func() string, now func() time.Time) *MemberService {
	if hashPassword == nil {
		hashPassword = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MemberService{members: members, hashPassword: hashPassword, idGenerator: idGenerator, now: now}
}

// CreateMember validates input and persists a new PENDING account for administrators.
func (s *MemberService) CreateMember(ctx context.Context, params CreateMemberParams) (Member, error) {
	if s == nil {
		return Member{}, fmt.Errorf("MemberService is nil")
	}
	if !params.Principal.IsAdmin {
		return Member{}, ErrForbidden
	}

	normalized := normalizeMemberInput(params.Input)
	vErr := validateMemberInput(normalized)
	if vErr.HasErrors() {
		return Member{}, vErr
	}

	hash, err := s.hashPassword(normalized.Password)
	if err != nil {
		return Member{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	record := persistence.Member{
		ID:           s.idGenerator(),
		Email:        normalized.Email,
		DisplayName:  normalized.DisplayName,
		Phone:        normalized.Phone,
		IsAdmin:      normalized.IsAdmin,
		Status:       string(MemberPending),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.members.CreateMember(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return Member{}, ErrAlreadyExists
		}
		return Member{}, err
	}
	return toMember(record), nil
}

// GetMember returns a member to themselves or to an administrator.
func (s *MemberService) GetMember(ctx context.Context, principal Principal, id string) (Member, error) {
	if s == nil {
		return Member{}, fmt.Errorf("MemberService is nil")
	}
	if principal.MemberID != id && !principal.IsAdmin {
		return Member{}, ErrForbidden
	}

	record, err := s.members.GetMember(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	return toMember(record), nil
}

// ListMembers returns the directory for administrators.
func (s *MemberService) ListMembers(ctx context.Context, principal Principal) ([]Member, error) {
	if s == nil {
		return nil, fmt.Errorf("MemberService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrForbidden
	}

	records, err := s.members.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(records))
	for _, record := range records {
		members = append(members, toMember(record))
	}
	return members, nil
}

// UpdateMemberStatus moves an account through its lifecycle for
// administrators: PENDING accounts are activated or turned away, ACTIVE
// accounts deactivated, INACTIVE accounts reinstated.
func (s *MemberService) UpdateMemberStatus(ctx context.Context, params UpdateMemberStatusParams) (Member, error) {
	if s == nil {
		return Member{}, fmt.Errorf("MemberService is nil")
	}
	if !params.Principal.IsAdmin {
		return Member{}, ErrForbidden
	}
	if !params.Target.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "unknown member status")
		return Member{}, vErr
	}

	record, err := s.members.GetMember(ctx, params.MemberID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	if MemberStatus(record.Status) == params.Target {
		return Member{}, ErrInvalidTransition
	}

	record.Status = string(params.Target)
	record.UpdatedAt = s.now()
	if err := s.members.UpdateMember(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	return toMember(record), nil
}

func normalizeMemberInput(input MemberInput) MemberInput {
	return MemberInput{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Phone:       strings.TrimSpace(input.Phone),
		Password:    input.Password,
		IsAdmin:     input.IsAdmin,
	}
}

func validateMemberInput(input MemberInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}

	if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}

	return vErr
}
