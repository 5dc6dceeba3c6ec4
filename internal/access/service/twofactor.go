package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
	"github.com/aussiebroadwan/tenantgate/pkg/cryptox"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultVerificationTTL is how long a verified session stays verified.
	DefaultVerificationTTL = 12 * time.Hour

	maxRecoveryCodes = 20
)

// totpOpts accepts the current step and one step either side.
var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// TwoFactorService manages TOTP credentials, recovery codes, and the per
// session verification state:
//
//	UNVERIFIED -> (verify ok) -> VERIFIED(until) -> (expiry or termination) -> UNVERIFIED
type TwoFactorService struct {
	Store   store.Store
	Lockout *LockoutService // shares the attempt log and throttle policy
	Issuer  string

	VerificationTTL time.Duration

	Now func() time.Time
}

func (s *TwoFactorService) verificationTTL() time.Duration {
	if s.VerificationTTL > 0 {
		return s.VerificationTTL
	}
	return DefaultVerificationTTL
}

// Enrollment is a candidate secret. Nothing is stored until Enable.
type Enrollment struct {
	Secret  string
	URL     string
	Issuer  string
	Account string
}

// GenerateSecret returns a fresh TOTP secret for the caller.
func (s *TwoFactorService) GenerateSecret(ctx context.Context, caller domain.Principal) (Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: caller.Email,
		Period:      totpOpts.Period,
		Digits:      totpOpts.Digits,
		Algorithm:   totpOpts.Algorithm,
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("generate totp key: %w", err)
	}
	return Enrollment{
		Secret:  key.Secret(),
		URL:     key.URL(),
		Issuer:  s.Issuer,
		Account: caller.Email,
	}, nil
}

// Enable stores secret for the caller once code proves the authenticator
// has it. Enabling again overwrites the previous secret.
func (s *TwoFactorService) Enable(ctx context.Context, caller domain.Principal, secret, code string) error {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if secret == "" || code == "" {
		return fmt.Errorf("%w: secret and code are required", ErrValidation)
	}

	at := now(s.Now)
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, at, totpOpts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !ok {
		return ErrInvalidTOTPCode
	}

	sealed, err := cryptox.Seal([]byte(secret))
	if err != nil {
		return fmt.Errorf("seal secret: %w", err)
	}

	err = s.Store.TwoFactor().UpsertCredential(ctx, domain.TwoFactorCredential{
		UserID:       caller.UserID,
		SealedSecret: sealed,
		Enabled:      true,
		EnabledAt:    at,
		UpdatedAt:    at,
	})
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	slogx.FromContext(ctx).Info("two-factor enabled", slog.String("user_id", caller.UserID))
	return nil
}

// Disable removes the credential and recovery codes of userID. Callers may
// disable their own, administrators anyone's in their company. Existing
// session verifications are left to expire.
func (s *TwoFactorService) Disable(ctx context.Context, caller domain.Principal, userID string) error {
	if userID == "" {
		userID = caller.UserID
	}
	if userID != caller.UserID {
		if err := requireAdmin(caller); err != nil {
			return err
		}
		if _, err := loadTenantUser(ctx, s.Store, caller, userID); err != nil {
			return err
		}
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RecoveryCodes().DeleteAllRecoveryCodes(ctx, userID); err != nil {
			return fmt.Errorf("delete recovery codes: %w", err)
		}
		if err := tx.TwoFactor().DeleteCredential(ctx, userID); err != nil {
			return fmt.Errorf("delete credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("two-factor disabled",
		slog.String("user_id", userID),
		slog.String("by", caller.UserID),
	)
	return nil
}

type VerifyRequest struct {
	Email          string
	SessionID      string
	Code           string
	IsRecoveryCode bool
	IPAddress      string
	UserAgent      string
}

// VerifyResult carries Reason when Verified is false.
type VerifyResult struct {
	Verified  bool
	Reason    string
	ExpiresAt time.Time
}

// Verify checks a TOTP or recovery code for the session. Wrong codes, unknown
// emails, and users without two-factor all yield invalid_code. Store failures
// are returned as errors and never verify the session.
func (s *TwoFactorService) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	l := slogx.FromContext(ctx)
	email := normalizeEmail(req.Email)
	code := strings.TrimSpace(req.Code)
	if email == "" || req.SessionID == "" || code == "" {
		return VerifyResult{}, fmt.Errorf("%w: email, session and code are required", ErrValidation)
	}

	policy := s.Lockout.Policy()
	failures, err := s.Lockout.CountRecentFailures(ctx, email, domain.AttemptTwoFactor, policy.Window)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("count failures: %w", err)
	}
	if failures >= policy.Threshold {
		l.Warn("two-factor throttled", slog.String("email", email), slog.Int("failures", failures))
		return VerifyResult{Reason: domain.ReasonTwoFactorLocked}, nil
	}

	ok, userID, err := s.check(ctx, email, code, req.IsRecoveryCode)
	if err != nil {
		return VerifyResult{}, err
	}

	attempt := domain.LoginAttempt{
		Email:     email,
		Kind:      domain.AttemptTwoFactor,
		Success:   ok,
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
	}
	if userID != "" {
		attempt.UserID = &userID
	}
	if err := s.Lockout.LogAttempt(ctx, attempt); err != nil {
		return VerifyResult{}, err
	}

	if !ok {
		l.Info("two-factor verification failed", slog.String("email", email))
		return VerifyResult{Reason: domain.ReasonInvalidCode}, nil
	}

	at := now(s.Now)
	v := domain.SessionVerification{
		UserID:     userID,
		SessionID:  req.SessionID,
		VerifiedAt: at,
		ExpiresAt:  at.Add(s.verificationTTL()),
	}
	if err := s.Store.SessionVerifications().UpsertVerification(ctx, v); err != nil {
		return VerifyResult{}, fmt.Errorf("store verification: %w", err)
	}

	l.Info("session verified", slog.String("user_id", userID), slog.String("session_id", req.SessionID))
	return VerifyResult{Verified: true, ExpiresAt: v.ExpiresAt}, nil
}

// check validates code for email and returns the user id when known.
func (s *TwoFactorService) check(ctx context.Context, email, code string, recovery bool) (bool, string, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("load user: %w", err)
	}

	cred, err := s.Store.TwoFactor().GetCredential(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return false, user.ID, nil
	}
	if err != nil {
		return false, "", fmt.Errorf("load credential: %w", err)
	}
	if !cred.Enabled {
		return false, user.ID, nil
	}

	if recovery {
		ok, err := s.Store.RecoveryCodes().ConsumeRecoveryCode(ctx, user.ID, cryptox.FingerprintRecoveryCode(code))
		if err != nil {
			return false, "", fmt.Errorf("consume recovery code: %w", err)
		}
		return ok, user.ID, nil
	}

	secret, err := cryptox.Open(cred.SealedSecret)
	if err != nil {
		return false, "", fmt.Errorf("open secret: %w", err)
	}
	ok, err := totp.ValidateCustom(code, string(secret), now(s.Now), totpOpts)
	if err != nil {
		// Malformed input, e.g. wrong length. Same answer as a wrong code.
		return false, user.ID, nil
	}
	return ok, user.ID, nil
}

// GenerateRecoveryCodes replaces the caller's recovery codes with count new
// ones. The plaintext codes are returned once and only their fingerprints
// are kept.
func (s *TwoFactorService) GenerateRecoveryCodes(ctx context.Context, caller domain.Principal, count int) ([]string, error) {
	if count <= 0 {
		count = domain.DefaultRecoveryCodeCount
	}
	if count > maxRecoveryCodes {
		return nil, fmt.Errorf("%w: at most %d recovery codes", ErrValidation, maxRecoveryCodes)
	}

	cred, err := s.Store.TwoFactor().GetCredential(ctx, caller.UserID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !cred.Enabled) {
		return nil, ErrTwoFactorDisabled
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}

	codes := make([]string, count)
	for i := range codes {
		code, err := cryptox.GenerateRecoveryCode()
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}

	at := now(s.Now)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RecoveryCodes().DeleteAllRecoveryCodes(ctx, caller.UserID); err != nil {
			return fmt.Errorf("delete recovery codes: %w", err)
		}
		for _, code := range codes {
			if err := tx.RecoveryCodes().CreateRecoveryCode(ctx, caller.UserID, cryptox.FingerprintRecoveryCode(code), at); err != nil {
				return fmt.Errorf("store recovery code: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("recovery codes regenerated",
		slog.String("user_id", caller.UserID),
		slog.Int("count", count),
	)
	return codes, nil
}

// VerificationState derives the state of one session at the current time.
func (s *TwoFactorService) VerificationState(ctx context.Context, userID, sessionID string) (domain.VerificationState, error) {
	v, err := s.Store.SessionVerifications().GetVerification(ctx, userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.VerificationState{Status: domain.Unverified}, nil
	}
	if err != nil {
		return domain.VerificationState{}, err
	}
	return v.State(now(s.Now)), nil
}

// NeedsVerification is true when the user has two-factor enabled and the
// session is not verified. On error it answers true along with the error.
func (s *TwoFactorService) NeedsVerification(ctx context.Context, userID, sessionID string) (bool, error) {
	cred, err := s.Store.TwoFactor().GetCredential(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return true, fmt.Errorf("load credential: %w", err)
	}
	if !cred.Enabled {
		return false, nil
	}

	state, err := s.VerificationState(ctx, userID, sessionID)
	if err != nil {
		return true, fmt.Errorf("load verification: %w", err)
	}
	return state.Status != domain.Verified, nil
}

type TwoFactorStatus struct {
	Enabled                bool
	EnabledAt              *time.Time
	RecoveryCodesRemaining int
}

// Status reports the caller's two-factor setup.
func (s *TwoFactorService) Status(ctx context.Context, caller domain.Principal) (TwoFactorStatus, error) {
	cred, err := s.Store.TwoFactor().GetCredential(ctx, caller.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return TwoFactorStatus{}, nil
	}
	if err != nil {
		return TwoFactorStatus{}, err
	}

	n, err := s.Store.RecoveryCodes().CountRecoveryCodes(ctx, caller.UserID)
	if err != nil {
		return TwoFactorStatus{}, err
	}

	st := TwoFactorStatus{Enabled: cred.Enabled, RecoveryCodesRemaining: n}
	if cred.Enabled {
		at := cred.EnabledAt
		st.EnabledAt = &at
	}
	return st, nil
}
