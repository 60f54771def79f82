package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/community-hub/internal/persistence"
	"github.com/example/community-hub/internal/testfixtures"
)

func memberRepoWithStatus(status string) *stubMemberRepo {
	member := persistence.Member{
		ID: "m1", Email: "m1@example.com", DisplayName: "Member One",
		Status: status, PasswordHash: "stored-hash",
	}
	return &stubMemberRepo{
		getMember: func(_ context.Context, id string) (persistence.Member, error) {
			if id != member.ID {
				return persistence.Member{}, persistence.ErrNotFound
			}
			return member, nil
		},
		getMemberByEmail: func(_ context.Context, email string) (persistence.Member, error) {
			if email != member.Email {
				return persistence.Member{}, persistence.ErrNotFound
			}
			return member, nil
		},
	}
}

func acceptPassword(hash, password string) error {
	if hash == "stored-hash" && password == "correct horse" {
		return nil
	}
	return ErrInvalidCredentials
}

func TestAuthServiceLogin(t *testing.T) {
	t.Parallel()

	t.Run("issues a session", func(t *testing.T) {
		t.Parallel()
		var created persistence.Session
		sessions := &stubSessionRepo{
			createSession: func(_ context.Context, session persistence.Session) error {
				created = session
				return nil
			},
		}
		service := NewAuthService(memberRepoWithStatus("ACTIVE"), sessions, acceptPassword,
			testfixtures.SequentialIDs("tok"), testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		result, err := service.Login(context.Background(), LoginParams{
			Email:    " M1@Example.com ",
			Password: "correct horse",
		})
		require.NoError(t, err)
		require.Equal(t, "m1", result.Member.ID)
		require.Equal(t, result.Token, created.Token)
		require.True(t, result.ExpiresAt.Equal(fixedNow.Add(time.Hour)))
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		service := NewAuthService(memberRepoWithStatus("ACTIVE"), &stubSessionRepo{}, acceptPassword,
			testfixtures.SequentialIDs("tok"), testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		_, err := service.Login(context.Background(), LoginParams{Email: "m1@example.com", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		service := NewAuthService(memberRepoWithStatus("ACTIVE"), &stubSessionRepo{}, acceptPassword,
			testfixtures.SequentialIDs("tok"), testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		_, err := service.Login(context.Background(), LoginParams{Email: "ghost@example.com", Password: "correct horse"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		t.Parallel()
		service := NewAuthService(memberRepoWithStatus("INACTIVE"), &stubSessionRepo{}, acceptPassword,
			testfixtures.SequentialIDs("tok"), testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		_, err := service.Login(context.Background(), LoginParams{Email: "m1@example.com", Password: "correct horse"})
		require.ErrorIs(t, err, ErrAccountDisabled)
	})

	t.Run("pending account may log in", func(t *testing.T) {
		t.Parallel()
		service := NewAuthService(memberRepoWithStatus("PENDING"), &stubSessionRepo{}, acceptPassword,
			testfixtures.SequentialIDs("tok"), testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		result, err := service.Login(context.Background(), LoginParams{Email: "m1@example.com", Password: "correct horse"})
		require.NoError(t, err)
		require.Equal(t, MemberPending, result.Member.Status)
	})

	t.Run("empty credentials", func(t *testing.T) {
		t.Parallel()
		service := NewAuthService(memberRepoWithStatus("ACTIVE"), &stubSessionRepo{}, acceptPassword,
			testfixtures.SequentialIDs("tok"), testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		_, err := service.Login(context.Background(), LoginParams{})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthServiceValidateSession(t *testing.T) {
	t.Parallel()

	sessionRepoWith := func(session persistence.Session) *stubSessionRepo {
		return &stubSessionRepo{
			getSession: func(_ context.Context, token string) (persistence.Session, error) {
				if token != session.Token {
					return persistence.Session{}, persistence.ErrNotFound
				}
				return session, nil
			},
		}
	}

	liveSession := persistence.Session{
		ID: "s1", MemberID: "m1", Token: "tok-1",
		ExpiresAt: fixedNow.Add(time.Hour), CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}

	t.Run("valid token yields the principal", func(t *testing.T) {
		t.Parallel()
		members := memberRepoWithStatus("ACTIVE")
		service := NewAuthService(members, sessionRepoWith(liveSession), acceptPassword,
			nil, testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		principal, err := service.ValidateSession(context.Background(), "tok-1")
		require.NoError(t, err)
		require.Equal(t, "m1", principal.MemberID)
		require.False(t, principal.IsAdmin)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		expired := liveSession
		expired.ExpiresAt = fixedNow.Add(-time.Minute)
		service := NewAuthService(memberRepoWithStatus("ACTIVE"), sessionRepoWith(expired), acceptPassword,
			nil, testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		_, err := service.ValidateSession(context.Background(), "tok-1")
		require.ErrorIs(t, err, ErrSessionExpired)
	})

	t.Run("revoked token", func(t *testing.T) {
		t.Parallel()
		revoked := liveSession
		at := fixedNow.Add(-time.Minute)
		revoked.RevokedAt = &at
		service := NewAuthService(memberRepoWithStatus("ACTIVE"), sessionRepoWith(revoked), acceptPassword,
			nil, testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		_, err := service.ValidateSession(context.Background(), "tok-1")
		require.ErrorIs(t, err, ErrSessionRevoked)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()
		service := NewAuthService(memberRepoWithStatus("ACTIVE"), &stubSessionRepo{}, acceptPassword,
			nil, testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		_, err := service.ValidateSession(context.Background(), "missing")
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("account deactivated after issue", func(t *testing.T) {
		t.Parallel()
		service := NewAuthService(memberRepoWithStatus("INACTIVE"), sessionRepoWith(liveSession), acceptPassword,
			nil, testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		_, err := service.ValidateSession(context.Background(), "tok-1")
		require.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestAuthServiceLogout(t *testing.T) {
	t.Parallel()

	t.Run("revokes the session", func(t *testing.T) {
		t.Parallel()
		revoked := false
		sessions := &stubSessionRepo{
			revokeSession: func(_ context.Context, token string, _ time.Time) error {
				require.Equal(t, "tok-1", token)
				revoked = true
				return nil
			},
		}
		service := NewAuthService(memberRepoWithStatus("ACTIVE"), sessions, acceptPassword,
			nil, testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		require.NoError(t, service.Logout(context.Background(), "tok-1"))
		require.True(t, revoked)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()
		sessions := &stubSessionRepo{
			revokeSession: func(_ context.Context, _ string, _ time.Time) error {
				return persistence.ErrNotFound
			},
		}
		service := NewAuthService(memberRepoWithStatus("ACTIVE"), sessions, acceptPassword,
			nil, testfixtures.FrozenClock(fixedNow), time.Hour, nil)

		require.ErrorIs(t, service.Logout(context.Background(), "missing"), ErrUnauthorized)
	})
}
