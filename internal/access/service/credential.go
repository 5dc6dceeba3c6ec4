package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
	"github.com/aussiebroadwan/tenantgate/pkg/cryptox"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
)

// CredentialService is the login gate. It checks the lock, the password, and
// records every attempt before handing out a session.
type CredentialService struct {
	Store     store.Store
	Lockout   *LockoutService
	Identity  *IdentityService
	TwoFactor *TwoFactorService
}

type LoginRequest struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	Token             IssuedToken
	TwoFactorRequired bool
}

// Login authenticates a user by email and password.
//
// A locked account gets a *LockedError without the password being looked at,
// the attempt is still recorded.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *CredentialService) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	l := slogx.FromContext(ctx)

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return LoginResult{}, fmt.Errorf("%w: email is malformed", ErrValidation)
	}

	var user *domain.User
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		user = &u
	case errors.Is(err, store.ErrNotFound):
	default:
		l.Error("login user lookup failed", slog.Any("error", err))
		return LoginResult{}, fmt.Errorf("%w: user lookup: %w", ErrUnauthorized, err)
	}

	if user != nil {
		state, err := s.Lockout.LockState(ctx, user.ID)
		if err != nil {
			// No lock decision, no login.
			l.Error("lock check failed", slog.String("user_id", user.ID), slog.Any("error", err))
			return LoginResult{}, fmt.Errorf("%w: lock check: %w", ErrUnauthorized, err)
		}
		if state.Locked() {
			// Recorded as a failure, but never fed back into the lockout.
			if err := s.logAttempt(ctx, req, email, user, false); err != nil {
				return LoginResult{}, err
			}
			l.Info("login refused, account locked", slog.String("user_id", user.ID))
			return LoginResult{}, &LockedError{Until: state.Until, Now: now(s.Lockout.Now)}
		}
	}

	ok := false
	if user == nil {
		cryptox.BurnPasswordCheck(req.Password)
	} else {
		ok = cryptox.VerifyPassword(req.Password, user.PasswordHash) == nil
	}

	if err := s.logAttempt(ctx, req, email, user, ok); err != nil {
		return LoginResult{}, err
	}

	if !ok {
		if user != nil {
			if _, err := s.Lockout.EvaluateLockout(ctx, email, user.ID); err != nil {
				l.Error("lockout evaluation failed", slog.String("user_id", user.ID), slog.Any("error", err))
			}
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.Identity.IssueSession(ctx, *user, req.IPAddress, req.UserAgent)
	if err != nil {
		return LoginResult{}, err
	}

	needs, err := s.TwoFactor.NeedsVerification(ctx, user.ID, token.SessionID)
	if err != nil {
		l.Error("two-factor check failed, requiring verification", slog.Any("error", err))
	}
	l.Info("login succeeded",
		slog.String("user_id", user.ID),
		slog.String("session_id", token.SessionID),
		slog.Bool("two_factor_required", needs),
	)
	return LoginResult{Token: token, TwoFactorRequired: needs}, nil
}

// logAttempt records one password attempt. A login that cannot be recorded
// fails.
func (s *CredentialService) logAttempt(ctx context.Context, req LoginRequest, email string, user *domain.User, success bool) error {
	attempt := domain.LoginAttempt{
		Email:     email,
		Kind:      domain.AttemptPassword,
		Success:   success,
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
	}
	if user != nil {
		attempt.UserID = &user.ID
	}
	if err := s.Lockout.LogAttempt(ctx, attempt); err != nil {
		slogx.FromContext(ctx).Error("login attempt not recorded", slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}
