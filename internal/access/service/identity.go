package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
	"github.com/aussiebroadwan/tenantgate/pkg/jwtx"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
	"github.com/google/uuid"
)

// IdentityService issues and validates access tokens. A token is only good
// while the session row it names is live, which is what makes revocation
// immediate.
type IdentityService struct {
	Store    store.Store
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string

	// TokenTTL is both the token lifetime and the session lifetime.
	TokenTTL time.Duration

	Now func() time.Time
}

// IssuedToken is a freshly signed access token and its session.
type IssuedToken struct {
	AccessToken string
	SessionID   string
	ExpiresAt   time.Time
}

// ExpiresIn is the remaining lifetime in whole seconds.
func (t IssuedToken) ExpiresIn(now time.Time) int {
	return int(t.ExpiresAt.Sub(now).Seconds())
}

func (s *IdentityService) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

// IssueSession persists a new session for u and signs a token for it.
func (s *IdentityService) IssueSession(ctx context.Context, u domain.User, ipAddress, userAgent string) (IssuedToken, error) {
	at := now(s.Now)
	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		CreatedAt: at,
		ExpiresAt: at.Add(s.ttl()),
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return IssuedToken{}, fmt.Errorf("create session: %w", err)
	}

	claims := jwtx.NewAccessClaims(jwtx.AccessClaims{
		Subject:   u.ID,
		SessionID: sess.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		CompanyID: u.CompanyID,
		Scopes:    u.Role.Scopes(),
	}, s.Issuer, s.ttl(), at)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IssuedToken{AccessToken: token, SessionID: sess.ID, ExpiresAt: sess.ExpiresAt}, nil
}

// ValidateToken checks the signature and the backing session and returns
// the caller. Any failure, including a store failure, is Unauthorized.
func (s *IdentityService) ValidateToken(ctx context.Context, token string) (domain.Principal, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	sess, err := s.Store.Sessions().GetSession(ctx, claims.SID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Principal{}, ErrInvalidSession
	}
	if err != nil {
		slogx.FromContext(ctx).Error("session lookup failed", slog.Any("error", err))
		return domain.Principal{}, fmt.Errorf("%w: session lookup: %w", ErrUnauthorized, err)
	}
	if sess.UserID != claims.Subject || !sess.ActiveAt(now(s.Now)) {
		return domain.Principal{}, ErrInvalidSession
	}

	return domain.Principal{
		UserID:    claims.Subject,
		Email:     claims.Email,
		SessionID: claims.SID,
		Role:      domain.Role(claims.Role),
		CompanyID: claims.CompanyID,
	}, nil
}

// CurrentUser loads the caller's user record.
func (s *IdentityService) CurrentUser(ctx context.Context, caller domain.Principal) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, caller.UserID)
	if err != nil {
		return domain.User{}, mapNotFound(err, ErrUserNotFound)
	}
	return u, nil
}

// InvalidateAllTokens revokes every session of userID. Tokens issued before
// the call fail ValidateToken from then on.
func (s *IdentityService) InvalidateAllTokens(ctx context.Context, userID string) (int64, error) {
	n, err := s.Store.Sessions().RevokeUserSessions(ctx, userID, now(s.Now))
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return n, nil
}
