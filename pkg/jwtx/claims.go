package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the lifetime of an access token when the service
// does not override it. Revocation is checked against the session row on
// every request, so this only bounds how long a leaked token is parseable.
const DefaultAccessTokenTTL = 15 * time.Minute

// Claims are the access-token claims issued by the access service.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID, every token belongs to exactly one persisted session.
	SID string `json:"sid"`

	// Scopes derived from the user's role, "admin" unlocks admin routes.
	Scopes []string `json:"scopes,omitempty"`

	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
}

// AccessClaims describes the subject of a new access token.
type AccessClaims struct {
	Subject   string
	SessionID string
	Email     string
	Role      string
	CompanyID string
	Scopes    []string
}

// NewAccessClaims builds minimally-correct claims.
func NewAccessClaims(a AccessClaims, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   a.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:       a.SessionID,
		Scopes:    a.Scopes,
		Email:     a.Email,
		Role:      a.Role,
		CompanyID: a.CompanyID,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateTimes checks exp and nbf against now with a small leeway for skew.
func (c *Claims) ValidateTimes(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
