package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/tenantgate/pkg/cryptox"
	"github.com/aussiebroadwan/tenantgate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "https://access.example.test"

func newSigner(t *testing.T, kid string) *jwtx.EdDSASigner {
	t.Helper()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func TestEdDSASignAndVerify(t *testing.T) {
	signer := newSigner(t, "k1")
	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	require.True(t, keys.IsReady())

	now := time.Now().UTC()
	token, err := signer.Sign(jwtx.NewAccessClaims(jwtx.AccessClaims{
		Subject:   "user-1",
		SessionID: "sess-1",
		Email:     "ada@example.test",
		Role:      "admin",
		CompanyID: "acme",
		Scopes:    []string{"admin"},
	}, exampleIssuer, 5*time.Minute, now))
	require.NoError(t, err)

	claims, err := jwtx.NewVerifierEdDSA(keys, exampleIssuer).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "sess-1", claims.SID)
	require.Equal(t, "acme", claims.CompanyID)
	require.Equal(t, []string{"admin"}, claims.Scopes)
	require.NotEmpty(t, claims.ID)
}

func TestVerifyRejects(t *testing.T) {
	signer := newSigner(t, "k1")
	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	now := time.Now().UTC()

	sign := func(a jwtx.AccessClaims, issuer string, ttl time.Duration, at time.Time) string {
		tok, err := signer.Sign(jwtx.NewAccessClaims(a, issuer, ttl, at))
		require.NoError(t, err)
		return tok
	}
	base := jwtx.AccessClaims{Subject: "u", SessionID: "s"}

	t.Run("expired", func(t *testing.T) {
		tok := sign(base, exampleIssuer, time.Minute, now.Add(-time.Hour))
		_, err := jwtx.NewVerifierEdDSA(keys, exampleIssuer).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tok := sign(base, "someone-else", time.Minute, now)
		_, err := jwtx.NewVerifierEdDSA(keys, exampleIssuer).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("missing sid", func(t *testing.T) {
		tok := sign(jwtx.AccessClaims{Subject: "u"}, exampleIssuer, time.Minute, now)
		_, err := jwtx.NewVerifierEdDSA(keys, exampleIssuer).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrMissingSID)
	})

	t.Run("unknown key", func(t *testing.T) {
		other := newSigner(t, "k2")
		tok, err := other.Sign(jwtx.NewAccessClaims(base, exampleIssuer, time.Minute, now))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierEdDSA(keys, exampleIssuer).Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := jwtx.NewVerifierEdDSA(keys, exampleIssuer).Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestValidateTimesLeeway(t *testing.T) {
	now := time.Now().UTC()
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(-2 * time.Second)),
	}}

	// Two seconds late is inside a five second leeway, but not a zero one
	require.NoError(t, c.ValidateTimes(now, 5*time.Second))
	require.ErrorIs(t, c.ValidateTimes(now, 0), jwtx.ErrExpired)
}
