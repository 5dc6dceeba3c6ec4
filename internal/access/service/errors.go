package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
)

// Error kinds. Every error a service returns wraps exactly one of these so
// the transport can pick a status code with errors.Is.
var (
	ErrValidation   = errors.New("validation_failed")
	ErrNotFound     = errors.New("not_found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate_limited")
	ErrUpstream     = errors.New("upstream_unavailable")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrAdminRequired      = fmt.Errorf("%w: administrator role required", ErrForbidden)
	ErrSelfTermination    = fmt.Errorf("%w: cannot terminate your own session", ErrForbidden)
	ErrTwoFactorDisabled  = fmt.Errorf("%w: two-factor authentication is not enabled", ErrValidation)
	ErrInvalidTOTPCode    = fmt.Errorf("%w: invalid confirmation code", ErrValidation)
	ErrAlreadyLocked      = fmt.Errorf("%w: account already locked", ErrConflict)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrNoLock             = fmt.Errorf("%w: account has never been locked", ErrNotFound)
	ErrLicenseNotFound    = fmt.Errorf("%w: no license for company", ErrNotFound)
	ErrInvalidSession     = fmt.Errorf("%w: session is no longer valid", ErrUnauthorized)
)

// LockedError is returned by login while the account is locked.
type LockedError struct {
	// Until is nil when only an administrator can lift the lock.
	Until *time.Time
	Now   time.Time
}

func (e *LockedError) Error() string {
	if e.Until == nil {
		return "account is locked, contact an administrator to unlock it"
	}
	mins := int(e.RetryAfter().Round(time.Minute) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	return fmt.Sprintf("account is locked, try again in %d minute(s)", mins)
}

func (e *LockedError) Is(target error) bool { return target == ErrRateLimited }

// RetryAfter is the time left on the lock, zero when it has no end.
func (e *LockedError) RetryAfter() time.Duration {
	if e.Until == nil {
		return 0
	}
	return max(e.Until.Sub(e.Now), 0)
}

// requireAdmin is checked before every destructive admin operation.
func requireAdmin(p domain.Principal) error {
	if !p.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// mapNotFound turns store.ErrNotFound into the given service error.
func mapNotFound(err, notFound error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return err
}
