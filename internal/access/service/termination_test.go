package service

import (
	"context"
	"errors"
	"testing"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/stretchr/testify/require"
)

func TestTerminate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	admin := h.seed(t, "acme", "admin@acme.test", domain.RoleAdmin)
	target := h.seed(t, "acme", "target@acme.test", domain.RoleMember)
	outsider := h.seed(t, "globex", "boss@globex.test", domain.RoleAdmin)

	secret := enroll(t, h, target)
	caller1, _ := h.login(t, target.Email)
	caller2, res2 := h.login(t, target.Email)
	for _, c := range []domain.Principal{caller1, caller2} {
		v, err := h.twoFactor.Verify(ctx, VerifyRequest{Email: c.Email, SessionID: c.SessionID, Code: codeAt(t, secret, h.clock.Now())})
		require.NoError(t, err)
		require.True(t, v.Verified)
	}

	t.Run("guards", func(t *testing.T) {
		_, err := h.terminator.Terminate(ctx, admin, admin.UserID, "")
		require.ErrorIs(t, err, ErrSelfTermination)

		_, err = h.terminator.Terminate(ctx, target, admin.UserID, "")
		require.ErrorIs(t, err, ErrForbidden)

		_, err = h.terminator.Terminate(ctx, outsider, target.UserID, "")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = h.terminator.Terminate(ctx, admin, "nobody", "")
		require.ErrorIs(t, err, ErrNotFound)

		require.Empty(t, h.pub.signals)
	})

	t.Run("revokes, clears, then publishes", func(t *testing.T) {
		res, err := h.terminator.Terminate(ctx, admin, target.UserID, "offboarded")
		require.NoError(t, err)
		require.Equal(t, TerminationResult{
			UserID:               target.UserID,
			SessionsRevoked:      2,
			VerificationsCleared: 2,
			Delivered:            true,
		}, res)

		_, err = h.identity.ValidateToken(ctx, res2.Token.AccessToken)
		require.ErrorIs(t, err, ErrInvalidSession)

		state, err := h.twoFactor.VerificationState(ctx, target.UserID, caller1.SessionID)
		require.NoError(t, err)
		require.Equal(t, domain.Unverified, state.Status)

		require.Len(t, h.pub.signals, 1)
		sig := h.pub.signals[0]
		require.Equal(t, target.UserID, sig.UserID)
		require.Equal(t, "offboarded", sig.Reason)
		require.Equal(t, h.clock.Now(), sig.IssuedAt)
	})

	t.Run("nothing left to revoke", func(t *testing.T) {
		res, err := h.terminator.Terminate(ctx, admin, target.UserID, "")
		require.NoError(t, err)
		require.Zero(t, res.SessionsRevoked)
	})

	t.Run("publish failure still terminates", func(t *testing.T) {
		_, res := h.login(t, target.Email)
		h.pub.err = errors.New("broker down")
		t.Cleanup(func() { h.pub.err = nil })

		out, err := h.terminator.Terminate(ctx, admin, target.UserID, "")
		require.NoError(t, err)
		require.False(t, out.Delivered)
		require.EqualValues(t, 1, out.SessionsRevoked)

		_, err = h.identity.ValidateToken(ctx, res.Token.AccessToken)
		require.ErrorIs(t, err, ErrInvalidSession)
	})
}
