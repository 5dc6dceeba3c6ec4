package domain

import "time"

// AttemptKind separates password logins from two-factor checks so both
// throttles can share one append-only log.
type AttemptKind string

const (
	AttemptPassword  AttemptKind = "password"
	AttemptTwoFactor AttemptKind = "two_factor"
)

// LoginAttempt is immutable once written.
type LoginAttempt struct {
	ID          string
	Email       string
	Kind        AttemptKind
	Success     bool
	UserID      *string
	UserAgent   string
	IPAddress   string
	AttemptedAt time.Time
}
