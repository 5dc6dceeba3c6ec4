package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/pkg/cryptox"
	"github.com/aussiebroadwan/tenantgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seed(t, "acme", "user@acme.test", domain.RoleMember)

	t.Run("good password", func(t *testing.T) {
		res, err := h.credentials.Login(ctx, LoginRequest{Email: " USER@acme.test", Password: testPassword, IPAddress: "10.0.0.1"})
		require.NoError(t, err)
		require.False(t, res.TwoFactorRequired)
		require.NotEmpty(t, res.Token.AccessToken)
		require.Equal(t, 3600, res.Token.ExpiresIn(h.clock.Now()))

		p, err := h.identity.ValidateToken(ctx, res.Token.AccessToken)
		require.NoError(t, err)
		require.Equal(t, user.UserID, p.UserID)
		require.Equal(t, "acme", p.CompanyID)
		require.Equal(t, res.Token.SessionID, p.SessionID)
	})

	t.Run("unknown email looks like a wrong password", func(t *testing.T) {
		_, unknown := h.credentials.Login(ctx, LoginRequest{Email: "ghost@acme.test", Password: testPassword})
		_, wrong := h.credentials.Login(ctx, LoginRequest{Email: user.Email, Password: "not-it-at-all"})
		require.ErrorIs(t, unknown, ErrInvalidCredentials)
		require.Equal(t, unknown.Error(), wrong.Error())
	})

	t.Run("every attempt is recorded", func(t *testing.T) {
		attempts, err := h.store.LoginAttempts().ListRecentAttempts(ctx, "ghost@acme.test", 10)
		require.NoError(t, err)
		require.Len(t, attempts, 1)
		require.Nil(t, attempts[0].UserID)
		require.False(t, attempts[0].Success)

		attempts, err = h.store.LoginAttempts().ListRecentAttempts(ctx, user.Email, 10)
		require.NoError(t, err)
		require.Len(t, attempts, 2)
	})

	t.Run("unknown emails never lock anything", func(t *testing.T) {
		for range 10 {
			h.failLogin(t, "ghost@acme.test")
		}
		require.Zero(t, h.notifier.count())
	})

	t.Run("validation", func(t *testing.T) {
		for _, req := range []LoginRequest{
			{Email: "", Password: "x"},
			{Email: "user@acme.test"},
			{Email: "not-an-email", Password: "x"},
		} {
			_, err := h.credentials.Login(ctx, req)
			require.ErrorIs(t, err, ErrValidation)
		}
	})
}

func TestLoginFailsClosed(t *testing.T) {
	h := newHarness(t)
	user := h.seed(t, "acme", "user@acme.test", domain.RoleMember)
	require.NoError(t, h.store.Close())

	_, err := h.credentials.Login(context.Background(), LoginRequest{Email: user.Email, Password: testPassword})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestValidateToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seed(t, "acme", "user@acme.test", domain.RoleMember)

	t.Run("garbage", func(t *testing.T) {
		_, err := h.identity.ValidateToken(ctx, "not.a.jwt")
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("foreign signer", func(t *testing.T) {
		pemKey, err := cryptox.GenerateEd25519Key()
		require.NoError(t, err)
		other, err := jwtx.NewSignerEdDSA("test-key", pemKey)
		require.NoError(t, err)

		token, err := other.Sign(jwtx.NewAccessClaims(jwtx.AccessClaims{Subject: "u", SessionID: "s"}, "tenantgate-test", time.Hour, h.clock.Now()))
		require.NoError(t, err)

		_, err = h.identity.ValidateToken(ctx, token)
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("session that was never stored", func(t *testing.T) {
		token, err := h.identity.Signer.Sign(jwtx.NewAccessClaims(jwtx.AccessClaims{Subject: "u", SessionID: "missing"}, "tenantgate-test", time.Hour, h.clock.Now()))
		require.NoError(t, err)

		_, err = h.identity.ValidateToken(ctx, token)
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("revoked session", func(t *testing.T) {
		p, res := h.login(t, "user@acme.test")

		n, err := h.identity.InvalidateAllTokens(ctx, p.UserID)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = h.identity.ValidateToken(ctx, res.Token.AccessToken)
		require.ErrorIs(t, err, ErrInvalidSession)

		// A fresh login works again.
		h.login(t, "user@acme.test")
	})

	t.Run("expired token", func(t *testing.T) {
		_, res := h.login(t, "user@acme.test")
		h.clock.Advance(time.Hour + time.Minute)

		_, err := h.identity.ValidateToken(ctx, res.Token.AccessToken)
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestCurrentUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.seed(t, "acme", "user@acme.test", domain.RoleMember)

	u, err := h.identity.CurrentUser(ctx, p)
	require.NoError(t, err)
	require.Equal(t, p.Email, u.Email)

	_, err = h.identity.CurrentUser(ctx, domain.Principal{UserID: "gone"})
	require.ErrorIs(t, err, ErrUserNotFound)
}
