package domain

import "time"

// TwoFactorCredential holds the sealed TOTP secret. The plaintext secret is
// only ever seen at enrollment.
type TwoFactorCredential struct {
	UserID       string
	SealedSecret []byte
	Enabled      bool
	EnabledAt    time.Time
	UpdatedAt    time.Time
}

// SessionVerification records that a session passed the second factor.
type SessionVerification struct {
	UserID     string
	SessionID  string
	VerifiedAt time.Time
	ExpiresAt  time.Time
}

type VerificationStatus string

const (
	Unverified VerificationStatus = "unverified"
	Verified   VerificationStatus = "verified"
)

// VerificationState is the per session state, derived at read time.
type VerificationState struct {
	Status VerificationStatus
	Until  *time.Time
}

// State returns Verified until ExpiresAt, Unverified from then on.
func (v SessionVerification) State(now time.Time) VerificationState {
	if !now.Before(v.ExpiresAt) {
		return VerificationState{Status: Unverified}
	}
	until := v.ExpiresAt
	return VerificationState{Status: Verified, Until: &until}
}

// Reasons returned by a failed second factor check.
const (
	ReasonInvalidCode     = "invalid_code"
	ReasonTwoFactorLocked = "two_factor_locked"
)

// DefaultRecoveryCodeCount is how many recovery codes a batch contains.
const DefaultRecoveryCodeCount = 8
