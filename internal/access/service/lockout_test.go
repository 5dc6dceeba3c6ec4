package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/stretchr/testify/require"
)

func TestCountRecentFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Old failure first, then move the clock so it falls out of the window.
	require.NoError(t, h.lockout.LogAttempt(ctx, domain.LoginAttempt{Email: "x@acme.test"}))
	h.clock.Advance(10 * time.Minute)

	for range 3 {
		require.NoError(t, h.lockout.LogAttempt(ctx, domain.LoginAttempt{Email: "X@acme.test "}))
		h.clock.Advance(time.Second)
	}
	require.NoError(t, h.lockout.LogAttempt(ctx, domain.LoginAttempt{Email: "x@acme.test", Success: true}))

	n, err := h.lockout.CountRecentFailures(ctx, "x@acme.test", domain.AttemptPassword, 5*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = h.lockout.CountRecentFailures(ctx, "x@acme.test", domain.AttemptTwoFactor, 5*time.Minute)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLockoutThreshold(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.seed(t, "acme", "admin@acme.test", domain.RoleAdmin)
	user := h.seed(t, "acme", "user@acme.test", domain.RoleMember)

	t.Run("a success does not lock", func(t *testing.T) {
		for range 4 {
			require.ErrorIs(t, h.failLogin(t, user.Email), ErrInvalidCredentials)
		}
		h.login(t, user.Email)

		locked, err := h.lockout.IsLocked(ctx, user.UserID)
		require.NoError(t, err)
		require.False(t, locked)
	})

	t.Run("fifth failure in the window locks", func(t *testing.T) {
		require.ErrorIs(t, h.failLogin(t, user.Email), ErrInvalidCredentials)

		locked, err := h.lockout.IsLocked(ctx, user.UserID)
		require.NoError(t, err)
		require.True(t, locked)

		require.Equal(t, 1, h.notifier.count())
		notice := h.notifier.notices[0]
		require.Equal(t, domain.NoticeAccountLocked, notice.Kind)
		require.Equal(t, []string{admin.Email}, notice.Recipients)
	})

	t.Run("locked account is refused even with the right password", func(t *testing.T) {
		h.clock.Advance(10 * time.Minute)

		_, err := h.credentials.Login(ctx, LoginRequest{Email: user.Email, Password: testPassword})
		require.ErrorIs(t, err, ErrRateLimited)

		var locked *LockedError
		require.True(t, errors.As(err, &locked))
		require.Equal(t, 20*time.Minute, locked.RetryAfter())
		require.Contains(t, locked.Error(), "20 minute")
	})

	t.Run("refused attempts are still recorded", func(t *testing.T) {
		before, err := h.store.LoginAttempts().ListRecentAttempts(ctx, user.Email, 100)
		require.NoError(t, err)

		_, err = h.credentials.Login(ctx, LoginRequest{Email: user.Email, Password: testPassword, IPAddress: "10.0.0.9"})
		var locked *LockedError
		require.ErrorAs(t, err, &locked)

		after, err := h.store.LoginAttempts().ListRecentAttempts(ctx, user.Email, 100)
		require.NoError(t, err)
		require.Len(t, after, len(before)+1)
		require.False(t, after[0].Success)
		require.Equal(t, "10.0.0.9", after[0].IPAddress)

		// No second lock and no second notice.
		require.Equal(t, 1, h.notifier.count())
	})

	t.Run("lock expires lazily", func(t *testing.T) {
		h.clock.Advance(20 * time.Minute)

		locked, err := h.lockout.IsLocked(ctx, user.UserID)
		require.NoError(t, err)
		require.False(t, locked)

		h.login(t, user.Email)
	})

	t.Run("duplicate lock is benign", func(t *testing.T) {
		for range 5 {
			h.failLogin(t, user.Email)
		}
		created, err := h.lockout.EvaluateLockout(ctx, user.Email, user.UserID)
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, 2, h.notifier.count())
	})
}

func TestLockoutNotifierFailureDoesNotBlockLock(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("smtp down")
	user := h.seed(t, "acme", "user@acme.test", domain.RoleMember)

	for range 5 {
		h.failLogin(t, user.Email)
	}
	locked, err := h.lockout.IsLocked(context.Background(), user.UserID)
	require.NoError(t, err)
	require.True(t, locked)
}

func TestIndefiniteLock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.lockout.SetPolicy(domain.LockoutPolicy{Threshold: 2, Window: time.Minute}))
	user := h.seed(t, "acme", "user@acme.test", domain.RoleMember)

	h.failLogin(t, user.Email)
	h.failLogin(t, user.Email)
	h.clock.Advance(365 * 24 * time.Hour)

	_, err := h.credentials.Login(ctx, LoginRequest{Email: user.Email, Password: testPassword})
	var locked *LockedError
	require.True(t, errors.As(err, &locked))
	require.Nil(t, locked.Until)
	require.Contains(t, locked.Error(), "administrator")
}

func TestUnlock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.seed(t, "acme", "admin@acme.test", domain.RoleAdmin)
	user := h.seed(t, "acme", "user@acme.test", domain.RoleMember)
	outsider := h.seed(t, "globex", "admin@globex.test", domain.RoleAdmin)

	for range 5 {
		h.failLogin(t, user.Email)
	}

	t.Run("members cannot unlock", func(t *testing.T) {
		require.ErrorIs(t, h.lockout.Unlock(ctx, user, user.UserID), ErrForbidden)
	})

	t.Run("other companies cannot see the user", func(t *testing.T) {
		require.ErrorIs(t, h.lockout.Unlock(ctx, outsider, user.UserID), ErrNotFound)
	})

	t.Run("unlock twice is fine", func(t *testing.T) {
		require.NoError(t, h.lockout.Unlock(ctx, admin, user.UserID))
		require.NoError(t, h.lockout.Unlock(ctx, admin, user.UserID))

		locked, err := h.lockout.IsLocked(ctx, user.UserID)
		require.NoError(t, err)
		require.False(t, locked)
	})

	t.Run("history is kept", func(t *testing.T) {
		view, err := h.lockout.GetAccountLock(ctx, admin, "USER@acme.test")
		require.NoError(t, err)
		require.False(t, view.State.Locked())
		require.NotNil(t, view.Lock.UnlockedBy)
		require.Equal(t, admin.UserID, *view.Lock.UnlockedBy)
		require.Len(t, view.RecentAttempts, 5)
	})

	t.Run("never locked", func(t *testing.T) {
		_, err := h.lockout.GetAccountLock(ctx, admin, admin.Email)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLockAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.seed(t, "acme", "admin@acme.test", domain.RoleAdmin)
	user := h.seed(t, "acme", "user@acme.test", domain.RoleMember)

	past := h.clock.Now().Add(-time.Minute)
	_, err := h.lockout.LockAccount(ctx, admin, user.UserID, &past, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = h.lockout.LockAccount(ctx, admin, admin.UserID, nil, "")
	require.ErrorIs(t, err, ErrForbidden)

	lock, err := h.lockout.LockAccount(ctx, admin, user.UserID, nil, "offboarding")
	require.NoError(t, err)
	require.Nil(t, lock.LockedUntil)

	_, err = h.lockout.LockAccount(ctx, admin, user.UserID, nil, "again")
	require.ErrorIs(t, err, ErrConflict)

	state, err := h.lockout.LockState(ctx, user.UserID)
	require.NoError(t, err)
	require.True(t, state.Locked())
	require.Equal(t, "offboarding", state.Reason)
}

func TestSetPolicy(t *testing.T) {
	h := newHarness(t)

	require.ErrorIs(t, h.lockout.SetPolicy(domain.LockoutPolicy{Threshold: 0, Window: time.Minute}), ErrValidation)
	require.ErrorIs(t, h.lockout.SetPolicy(domain.LockoutPolicy{Threshold: 3}), ErrValidation)
	require.Equal(t, domain.DefaultLockoutPolicy, h.lockout.Policy())

	p := domain.LockoutPolicy{Threshold: 3, Window: time.Minute, AutoUnlock: time.Hour}
	require.NoError(t, h.lockout.SetPolicy(p))
	require.Equal(t, p, h.lockout.Policy())
}
