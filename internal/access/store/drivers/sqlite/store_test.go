package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
	"github.com/aussiebroadwan/tenantgate/internal/access/store/drivers/sqldb"
	"github.com/aussiebroadwan/tenantgate/internal/access/store/drivers/sqlite"
	"github.com/aussiebroadwan/tenantgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *sqldb.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s store.Store, email string, role domain.Role) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		CompanyID:    "acme",
		Email:        email,
		DisplayName:  email,
		PasswordHash: "argon2:dummy",
		Role:         role,
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	admin := seedUser(t, s, "boss@acme.test", domain.RoleAdmin)
	seedUser(t, s, "dev@acme.test", domain.RoleMember)

	t.Run("lookup by email", func(t *testing.T) {
		got, err := s.Users().GetUserByEmail(ctx, "boss@acme.test")
		require.NoError(t, err)
		require.Equal(t, admin, got)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := admin
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("admins and counts", func(t *testing.T) {
		admins, err := s.Users().ListAdmins(ctx, "acme")
		require.NoError(t, err)
		require.Len(t, admins, 1)
		require.Equal(t, admin.ID, admins[0].ID)

		n, err := s.Users().CountUsersByCompany(ctx, "acme")
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})
}

func TestLoginAttemptsWindow(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	record := func(kind domain.AttemptKind, ok bool, at time.Time) {
		require.NoError(t, s.LoginAttempts().CreateLoginAttempt(ctx, domain.LoginAttempt{
			ID:          idx.NewAt(at).String(),
			Email:       "a@acme.test",
			Kind:        kind,
			Success:     ok,
			AttemptedAt: at,
		}))
	}

	record(domain.AttemptPassword, false, base.Add(-10*time.Minute)) // outside
	record(domain.AttemptPassword, false, base.Add(-5*time.Minute))  // boundary counts
	record(domain.AttemptPassword, false, base.Add(-time.Minute))
	record(domain.AttemptPassword, true, base.Add(-30*time.Second))
	record(domain.AttemptTwoFactor, false, base.Add(-time.Minute))

	n, err := s.LoginAttempts().CountFailuresSince(ctx, "a@acme.test", domain.AttemptPassword, base.Add(-5*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = s.LoginAttempts().CountFailuresSince(ctx, "a@acme.test", domain.AttemptTwoFactor, base.Add(-5*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	recent, err := s.LoginAttempts().ListRecentAttempts(ctx, "a@acme.test", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.True(t, recent[0].Success)
	require.Nil(t, recent[0].UserID)
}

func TestAccountLocks(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "locked@acme.test", domain.RoleMember)

	lock := func(at time.Time, d time.Duration) domain.AccountLock {
		until := at.Add(d)
		return domain.AccountLock{
			ID:          idx.NewAt(at).String(),
			UserID:      u.ID,
			Email:       u.Email,
			LockedAt:    at,
			LockedUntil: &until,
			Reason:      "too many failures",
		}
	}

	first := lock(base, 30*time.Minute)
	require.NoError(t, s.AccountLocks().CreateLock(ctx, first, base))

	t.Run("second open lock is rejected", func(t *testing.T) {
		err := s.AccountLocks().CreateLock(ctx, lock(base.Add(time.Minute), time.Hour), base.Add(time.Minute))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("expired lock is sealed before relocking", func(t *testing.T) {
		later := base.Add(31 * time.Minute)
		require.NoError(t, s.AccountLocks().CreateLock(ctx, lock(later, time.Hour), later))

		latest, err := s.AccountLocks().GetLatestLockByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, later, latest.LockedAt)

		// The first one keeps its history, sealed at its own deadline.
		var sealedBy string
		require.NoError(t, s.DB().QueryRow(
			`SELECT unlocked_by FROM account_locks WHERE id = ?`, first.ID,
		).Scan(&sealedBy))
		require.Equal(t, domain.UnlockedByExpiry, sealedBy)
	})

	t.Run("seal open lock", func(t *testing.T) {
		ok, err := s.AccountLocks().SealOpenLock(ctx, u.ID, "admin-1", base.Add(40*time.Minute))
		require.NoError(t, err)
		require.True(t, ok)

		_, err = s.AccountLocks().GetOpenLock(ctx, u.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		ok, err = s.AccountLocks().SealOpenLock(ctx, u.ID, "admin-1", base.Add(41*time.Minute))
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("indefinite lock round trips", func(t *testing.T) {
		at := base.Add(time.Hour)
		l := domain.AccountLock{ID: idx.NewAt(at).String(), UserID: u.ID, Email: u.Email, LockedAt: at}
		require.NoError(t, s.AccountLocks().CreateLock(ctx, l, at))

		got, err := s.AccountLocks().GetOpenLock(ctx, u.ID)
		require.NoError(t, err)
		require.Nil(t, got.LockedUntil)
		require.True(t, got.OpenAt(at.Add(1000*time.Hour)))
	})
}

func TestRecoveryCodesAreSingleUse(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "r@acme.test", domain.RoleMember)

	require.NoError(t, s.RecoveryCodes().CreateRecoveryCode(ctx, u.ID, "h1", base))
	require.NoError(t, s.RecoveryCodes().CreateRecoveryCode(ctx, u.ID, "h2", base))

	ok, err := s.RecoveryCodes().ConsumeRecoveryCode(ctx, u.ID, "h1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.RecoveryCodes().ConsumeRecoveryCode(ctx, u.ID, "h1")
	require.NoError(t, err)
	require.False(t, ok)

	n, err := s.RecoveryCodes().CountRecoveryCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, s.RecoveryCodes().DeleteAllRecoveryCodes(ctx, u.ID))
	n, err = s.RecoveryCodes().CountRecoveryCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestTwoFactorAndVerifications(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "v@acme.test", domain.RoleMember)

	t.Run("credential upsert", func(t *testing.T) {
		c := domain.TwoFactorCredential{UserID: u.ID, SealedSecret: []byte{1, 2, 3}, UpdatedAt: base}
		require.NoError(t, s.TwoFactor().UpsertCredential(ctx, c))

		got, err := s.TwoFactor().GetCredential(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.Enabled)
		require.True(t, got.EnabledAt.IsZero())

		c.Enabled = true
		c.EnabledAt = base.Add(time.Minute)
		c.UpdatedAt = c.EnabledAt
		require.NoError(t, s.TwoFactor().UpsertCredential(ctx, c))

		got, err = s.TwoFactor().GetCredential(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, c, got)

		require.NoError(t, s.TwoFactor().DeleteCredential(ctx, u.ID))
		_, err = s.TwoFactor().GetCredential(ctx, u.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("verification refresh and expiry", func(t *testing.T) {
		v := domain.SessionVerification{UserID: u.ID, SessionID: "s1", VerifiedAt: base, ExpiresAt: base.Add(time.Hour)}
		require.NoError(t, s.SessionVerifications().UpsertVerification(ctx, v))

		v.VerifiedAt = base.Add(30 * time.Minute)
		v.ExpiresAt = base.Add(90 * time.Minute)
		require.NoError(t, s.SessionVerifications().UpsertVerification(ctx, v))

		got, err := s.SessionVerifications().GetVerification(ctx, u.ID, "s1")
		require.NoError(t, err)
		require.Equal(t, v, got)

		n, err := s.SessionVerifications().DeleteExpiredVerifications(ctx, base.Add(time.Hour))
		require.NoError(t, err)
		require.Zero(t, n)

		n, err = s.SessionVerifications().DeleteUserVerifications(ctx, u.ID)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	})

	t.Run("expiry must follow verification", func(t *testing.T) {
		bad := domain.SessionVerification{UserID: u.ID, SessionID: "s2", VerifiedAt: base, ExpiresAt: base}
		require.Error(t, s.SessionVerifications().UpsertVerification(ctx, bad))
	})
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "s@acme.test", domain.RoleMember)

	for i, exp := range []time.Duration{time.Hour, -time.Hour} {
		require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
			ID:        []string{"live", "stale"}[i],
			UserID:    u.ID,
			CreatedAt: base.Add(-2 * time.Hour),
			ExpiresAt: base.Add(exp),
		}))
	}

	n, err := s.Sessions().RevokeUserSessions(ctx, u.ID, base)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	got, err := s.Sessions().GetSession(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	require.False(t, got.ActiveAt(base))

	n, err = s.Sessions().DeleteExpiredSessions(ctx, base)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestLicenses(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Licenses().GetLicenseByCompany(ctx, "acme")
	require.ErrorIs(t, err, store.ErrNotFound)

	l := domain.License{
		ID:         idx.New().String(),
		CompanyID:  "acme",
		Key:        "ACME-2026",
		Type:       "enterprise",
		MaxUsers:   25,
		ValidFrom:  base,
		ValidUntil: base.AddDate(1, 0, 0),
		IsActive:   true,
		Features:   []string{"projects", "exports"},
		CreatedAt:  base,
		UpdatedAt:  base,
	}
	require.NoError(t, s.Licenses().UpsertLicense(ctx, l))

	// Replacing keeps the original id and creation time.
	replaced := l
	replaced.ID = idx.New().String()
	replaced.IsActive = false
	replaced.Features = nil
	replaced.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, s.Licenses().UpsertLicense(ctx, replaced))

	got, err := s.Licenses().GetLicenseByCompany(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, l.ID, got.ID)
	require.False(t, got.IsActive)
	require.Empty(t, got.Features)
	require.Equal(t, base.Add(time.Hour), got.UpdatedAt)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "tx@acme.test", domain.RoleMember)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.RecoveryCodes().CreateRecoveryCode(ctx, u.ID, "h", base))
		return store.ErrNotFound
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.RecoveryCodes().CountRecoveryCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, n)
}
