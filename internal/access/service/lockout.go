package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
	"github.com/aussiebroadwan/tenantgate/pkg/idx"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
)

const (
	defaultNotifyTimeout = 5 * time.Second
	recentAttemptsLimit  = 20
)

// LockoutService owns the per account lock state machine:
//
//	UNLOCKED -> (threshold failures in window) -> LOCKED(until)
//	LOCKED   -> (until passes, or admin unlock) -> UNLOCKED
//
// The state is never cached. It is derived from the open lock row and the
// clock on every read.
type LockoutService struct {
	Store    store.Store
	Notifier Notifier // optional

	// NotifyTimeout bounds the admin notification after a lock.
	NotifyTimeout time.Duration

	Now func() time.Time

	policy atomic.Pointer[domain.LockoutPolicy]
}

// NewLockoutService creates the service with an initial policy.
func NewLockoutService(st store.Store, notifier Notifier, policy domain.LockoutPolicy) (*LockoutService, error) {
	s := &LockoutService{Store: st, Notifier: notifier, NotifyTimeout: defaultNotifyTimeout}
	if err := s.SetPolicy(policy); err != nil {
		return nil, err
	}
	return s, nil
}

// Policy returns the policy currently in force.
func (s *LockoutService) Policy() domain.LockoutPolicy {
	if p := s.policy.Load(); p != nil {
		return *p
	}
	return domain.DefaultLockoutPolicy
}

// SetPolicy swaps the policy atomically. It is safe to call while requests
// are being served, which is how the config file watcher reloads it.
func (s *LockoutService) SetPolicy(p domain.LockoutPolicy) error {
	if err := ValidatePolicy(p); err != nil {
		return err
	}
	s.policy.Store(&p)
	return nil
}

// ValidatePolicy rejects policies that would lock everyone or nobody.
func ValidatePolicy(p domain.LockoutPolicy) error {
	switch {
	case p.Threshold < 1:
		return fmt.Errorf("%w: lockout threshold must be at least 1", ErrValidation)
	case p.Window <= 0:
		return fmt.Errorf("%w: lockout window must be positive", ErrValidation)
	case p.AutoUnlock < 0:
		return fmt.Errorf("%w: auto unlock must not be negative", ErrValidation)
	}
	return nil
}

// LogAttempt appends to the attempt log. A store failure is returned to the
// caller, which must then fail the login.
func (s *LockoutService) LogAttempt(ctx context.Context, a domain.LoginAttempt) error {
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = now(s.Now)
	}
	if a.ID == "" {
		a.ID = idx.NewAt(a.AttemptedAt).String()
	}
	if a.Kind == "" {
		a.Kind = domain.AttemptPassword
	}
	a.Email = normalizeEmail(a.Email)

	if err := s.Store.LoginAttempts().CreateLoginAttempt(ctx, a); err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

// CountRecentFailures counts failures of kind for email with attempted_at in
// [now-window, now].
func (s *LockoutService) CountRecentFailures(ctx context.Context, email string, kind domain.AttemptKind, window time.Duration) (int, error) {
	since := now(s.Now).Add(-window)
	return s.Store.LoginAttempts().CountFailuresSince(ctx, normalizeEmail(email), kind, since)
}

// EvaluateLockout runs after a failed password attempt and locks the account
// once the failures in the window reach the threshold. It reports whether
// this call created the lock. Losing the race against a concurrent lock is
// not an error.
func (s *LockoutService) EvaluateLockout(ctx context.Context, email, userID string) (bool, error) {
	if userID == "" {
		// Unknown emails have nothing to lock.
		return false, nil
	}

	policy := s.Policy()
	failures, err := s.CountRecentFailures(ctx, email, domain.AttemptPassword, policy.Window)
	if err != nil {
		return false, fmt.Errorf("count failures: %w", err)
	}
	if failures < policy.Threshold {
		return false, nil
	}

	at := now(s.Now)
	lock := domain.AccountLock{
		ID:       idx.NewAt(at).String(),
		UserID:   userID,
		Email:    normalizeEmail(email),
		LockedAt: at,
		Reason:   fmt.Sprintf("%d failed login attempts within %s", failures, policy.Window),
	}
	if policy.AutoUnlock > 0 {
		until := at.Add(policy.AutoUnlock)
		lock.LockedUntil = &until
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.AccountLocks().CreateLock(ctx, lock, at)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create lock: %w", err)
	}

	slogx.FromContext(ctx).Warn("account locked",
		slog.String("user_id", userID),
		slog.Int("failures", failures),
		slog.Any("locked_until", lock.LockedUntil),
	)
	s.notifyAdmins(ctx, lock)
	return true, nil
}

// notifyAdmins is best effort and never fails the lock.
func (s *LockoutService) notifyAdmins(ctx context.Context, lock domain.AccountLock) {
	if s.Notifier == nil {
		return
	}
	l := slogx.FromContext(ctx)

	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	user, err := s.Store.Users().GetUserByID(ctx, lock.UserID)
	if err != nil {
		l.Error("lock notice: load user", slog.String("user_id", lock.UserID), slog.Any("error", err))
		return
	}
	admins, err := s.Store.Users().ListAdmins(ctx, user.CompanyID)
	if err != nil {
		l.Error("lock notice: list admins", slog.String("company_id", user.CompanyID), slog.Any("error", err))
		return
	}

	recipients := make([]string, 0, len(admins))
	for _, a := range admins {
		recipients = append(recipients, a.Email)
	}

	notice := domain.AdminNotice{
		Kind:        domain.NoticeAccountLocked,
		CompanyID:   user.CompanyID,
		UserID:      user.ID,
		Email:       user.Email,
		Reason:      lock.Reason,
		LockedUntil: lock.LockedUntil,
		Recipients:  recipients,
		IssuedAt:    lock.LockedAt,
	}
	if err := s.Notifier.NotifyAdmins(ctx, notice); err != nil {
		l.Error("lock notice: deliver", slog.String("user_id", user.ID), slog.Any("error", err))
	}
}

// LockState derives the lock state of a user at the current time.
func (s *LockoutService) LockState(ctx context.Context, userID string) (domain.LockState, error) {
	lock, err := s.Store.AccountLocks().GetOpenLock(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.LockState{Status: domain.LockUnlocked}, nil
	}
	if err != nil {
		return domain.LockState{}, err
	}
	return lock.State(now(s.Now)), nil
}

// IsLocked reports whether the account is locked right now. A lock whose end
// has passed counts as unlocked even if nobody sealed it.
func (s *LockoutService) IsLocked(ctx context.Context, userID string) (bool, error) {
	st, err := s.LockState(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.Locked(), nil
}

// Unlock lifts the open lock of a user. Unlocking an account that is not
// locked is a no-op.
func (s *LockoutService) Unlock(ctx context.Context, caller domain.Principal, userID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if _, err := loadTenantUser(ctx, s.Store, caller, userID); err != nil {
		return err
	}

	sealed, err := s.Store.AccountLocks().SealOpenLock(ctx, userID, caller.UserID, now(s.Now))
	if err != nil {
		return fmt.Errorf("unlock: %w", err)
	}
	if sealed {
		slogx.FromContext(ctx).Info("account unlocked",
			slog.String("user_id", userID),
			slog.String("unlocked_by", caller.UserID),
		)
	}
	return nil
}

// LockAccount lets an administrator lock an account by hand. A nil until
// locks it until somebody unlocks it.
func (s *LockoutService) LockAccount(ctx context.Context, caller domain.Principal, userID string, until *time.Time, reason string) (domain.AccountLock, error) {
	if err := requireAdmin(caller); err != nil {
		return domain.AccountLock{}, err
	}
	if userID == caller.UserID {
		return domain.AccountLock{}, fmt.Errorf("%w: cannot lock your own account", ErrForbidden)
	}

	at := now(s.Now)
	if until != nil && !until.After(at) {
		return domain.AccountLock{}, fmt.Errorf("%w: lock end must be in the future", ErrValidation)
	}

	user, err := loadTenantUser(ctx, s.Store, caller, userID)
	if err != nil {
		return domain.AccountLock{}, err
	}

	if reason == "" {
		reason = "locked by administrator"
	}
	lock := domain.AccountLock{
		ID:       idx.NewAt(at).String(),
		UserID:   user.ID,
		Email:    user.Email,
		LockedAt: at,
		Reason:   reason,
	}
	if until != nil {
		u := until.UTC()
		lock.LockedUntil = &u
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.AccountLocks().CreateLock(ctx, lock, at)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.AccountLock{}, ErrAlreadyLocked
	}
	if err != nil {
		return domain.AccountLock{}, fmt.Errorf("lock account: %w", err)
	}

	slogx.FromContext(ctx).Warn("account locked by administrator",
		slog.String("user_id", user.ID),
		slog.String("locked_by", caller.UserID),
	)
	return lock, nil
}

// AccountLockView is what administrators see for one account.
type AccountLockView struct {
	Lock           domain.AccountLock
	State          domain.LockState
	RecentAttempts []domain.LoginAttempt
}

// GetAccountLock returns the latest lock of email with its current state and
// the most recent attempts.
func (s *LockoutService) GetAccountLock(ctx context.Context, caller domain.Principal, email string) (AccountLockView, error) {
	if err := requireAdmin(caller); err != nil {
		return AccountLockView{}, err
	}
	email = normalizeEmail(email)
	if email == "" {
		return AccountLockView{}, fmt.Errorf("%w: email is required", ErrValidation)
	}

	lock, err := s.Store.AccountLocks().GetLatestLockByEmail(ctx, email)
	if err != nil {
		return AccountLockView{}, mapNotFound(err, ErrNoLock)
	}
	if _, err := loadTenantUser(ctx, s.Store, caller, lock.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return AccountLockView{}, ErrNoLock
		}
		return AccountLockView{}, err
	}

	attempts, err := s.Store.LoginAttempts().ListRecentAttempts(ctx, email, recentAttemptsLimit)
	if err != nil {
		return AccountLockView{}, fmt.Errorf("list attempts: %w", err)
	}

	return AccountLockView{
		Lock:           lock,
		State:          lock.State(now(s.Now)),
		RecentAttempts: attempts,
	}, nil
}

// loadTenantUser loads a user that belongs to the caller's company. Users of
// other companies are reported as not found.
func loadTenantUser(ctx context.Context, st store.Store, caller domain.Principal, userID string) (domain.User, error) {
	user, err := st.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, mapNotFound(err, ErrUserNotFound)
	}
	if user.CompanyID != caller.CompanyID {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}
