package domain

import "time"

// LockoutPolicy drives the lockout state machine.
type LockoutPolicy struct {
	// Threshold is the number of failures inside Window that locks an account.
	Threshold int
	Window    time.Duration
	// AutoUnlock is how long a lock lasts. Zero means the lock never expires
	// and an administrator has to lift it.
	AutoUnlock time.Duration
}

// DefaultLockoutPolicy is five failures in five minutes, locked for thirty.
var DefaultLockoutPolicy = LockoutPolicy{
	Threshold:  5,
	Window:     5 * time.Minute,
	AutoUnlock: 30 * time.Minute,
}

// UnlockedByExpiry marks locks sealed because their time ran out.
const UnlockedByExpiry = "system:expired"

// AccountLock is never deleted, only sealed with UnlockedAt and UnlockedBy.
type AccountLock struct {
	ID          string
	UserID      string
	Email       string
	LockedAt    time.Time
	LockedUntil *time.Time // nil means indefinite
	Reason      string
	UnlockedAt  *time.Time
	UnlockedBy  *string
}

// OpenAt reports whether the lock is in force at now. Expiry is evaluated
// here, a lock past LockedUntil is not open even if nobody sealed it.
func (l AccountLock) OpenAt(now time.Time) bool {
	if l.UnlockedAt != nil {
		return false
	}
	return l.LockedUntil == nil || l.LockedUntil.After(now)
}

// State computes the lock state at now.
func (l AccountLock) State(now time.Time) LockState {
	if !l.OpenAt(now) {
		return LockState{Status: LockUnlocked}
	}
	return LockState{Status: LockLocked, Until: l.LockedUntil, Reason: l.Reason}
}

type LockStatus string

const (
	LockUnlocked LockStatus = "unlocked"
	LockLocked   LockStatus = "locked"
)

// LockState is the lock state machine value for one account. It is always
// derived from the stored lock and a clock reading, never stored itself.
type LockState struct {
	Status LockStatus
	Until  *time.Time // nil while locked means manual unlock is required
	Reason string
}

func (s LockState) Locked() bool { return s.Status == LockLocked }

// Remaining is the time left on a timed lock, zero otherwise.
func (s LockState) Remaining(now time.Time) time.Duration {
	if !s.Locked() || s.Until == nil {
		return 0
	}
	return max(s.Until.Sub(now), 0)
}

// AdminNotice is sent to administrators when an account gets locked.
type AdminNotice struct {
	Kind        string     `json:"kind"`
	CompanyID   string     `json:"company_id"`
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	Reason      string     `json:"reason"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	Recipients  []string   `json:"recipients"`
	IssuedAt    time.Time  `json:"issued_at"`
}

const NoticeAccountLocked = "account_locked"
