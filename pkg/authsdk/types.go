package authsdk

import "time"

// ============================================================================
// Error Types
// ============================================================================

// ErrorResponse is the body of every error the service returns.
type ErrorResponse struct {
	// Error is a short machine readable code (e.g. "account_locked")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse is returned when a request body fails validation.
type ValidationErrorResponse struct {
	// Code is always "validation_error"
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Details maps JSON field names to what is wrong with them
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Login
// ============================================================================

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResponse carries the access token of a new session.
type LoginResponse struct {
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	SessionID string `json:"session_id"`

	// TwoFactorRequired is true when the session must pass POST /v1/2fa/verify
	// before it can reach verified-only routes.
	TwoFactorRequired bool `json:"two_factor_required"`
}

// UserResponse describes the authenticated user.
type UserResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        string    `json:"role"`
	SessionID   string    `json:"session_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateUserRequest is the body of POST /v1/users.
type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	DisplayName string `json:"display_name" validate:"max=64"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	Role        string `json:"role" validate:"omitempty,oneof=admin member"`
}

// ============================================================================
// Account Locks
// ============================================================================

// LoginAttemptResponse is one entry of the attempt log.
type LoginAttemptResponse struct {
	Kind        string    `json:"kind"`
	Success     bool      `json:"success"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// AccountLockResponse is the most recent lock of an account.
type AccountLockResponse struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	Locked      bool       `json:"locked"`
	LockedAt    time.Time  `json:"locked_at"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	Reason      string     `json:"reason"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
	UnlockedBy  *string    `json:"unlocked_by,omitempty"`

	RecentAttempts []LoginAttemptResponse `json:"recent_attempts"`
}

// LockAccountRequest is the body of POST /v1/locks/{userID}. Without Until
// the lock holds until an administrator lifts it.
type LockAccountRequest struct {
	Until  *time.Time `json:"until,omitempty"`
	Reason string     `json:"reason" validate:"max=256"`
}

// ============================================================================
// Two-Factor
// ============================================================================

// TwoFactorSecretResponse is a candidate secret for enrollment.
type TwoFactorSecretResponse struct {
	Secret string `json:"secret"`

	// OTPAuthURL is the otpauth:// URL to render as a QR code
	OTPAuthURL string `json:"otpauth_url"`

	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// EnableTwoFactorRequest confirms a secret with a code from the authenticator.
type EnableTwoFactorRequest struct {
	Secret string `json:"secret" validate:"required,max=128"`
	Code   string `json:"code" validate:"required,numeric,len=6"`
}

// VerifyTwoFactorRequest verifies the session of the bearer token.
type VerifyTwoFactorRequest struct {
	Code           string `json:"code" validate:"required,max=32"`
	IsRecoveryCode bool   `json:"is_recovery_code"`
}

// VerifyTwoFactorResponse is the outcome of a verification.
type VerifyTwoFactorResponse struct {
	Verified bool `json:"verified"`

	// Reason is "invalid_code" or "two_factor_locked" when not verified
	Reason string `json:"reason,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// TwoFactorStatusResponse reports the two-factor setup of the caller.
type TwoFactorStatusResponse struct {
	Enabled                bool       `json:"enabled"`
	EnabledAt              *time.Time `json:"enabled_at,omitempty"`
	RecoveryCodesRemaining int        `json:"recovery_codes_remaining"`
	SessionVerified        bool       `json:"session_verified"`
}

// RecoveryCodesRequest is the body of POST /v1/2fa/recovery-codes.
type RecoveryCodesRequest struct {
	// Count defaults to 8
	Count int `json:"count" validate:"omitempty,min=1,max=20"`
}

// RecoveryCodesResponse holds plaintext codes. They are shown once.
type RecoveryCodesResponse struct {
	Codes []string `json:"codes"`
}

// ============================================================================
// Licenses
// ============================================================================

// LicenseResponse describes the license of the caller's company.
type LicenseResponse struct {
	// Status is NO_LICENSE, PENDING, ACTIVE, EXPIRED or INACTIVE
	Status string `json:"status"`

	Key             string     `json:"key,omitempty"`
	Type            string     `json:"type,omitempty"`
	MaxUsers        int        `json:"max_users,omitempty"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	IsActive        bool       `json:"is_active"`
	Features        []string   `json:"features"`
	DaysUntilExpiry *int       `json:"days_until_expiry,omitempty"`
}

// LicenseKeyRequest carries a key for validation or activation.
type LicenseKeyRequest struct {
	Key string `json:"key" validate:"required,max=256"`
}

// SeatUsageResponse compares users with licensed seats. Exceeding the seat
// count is reported, not enforced.
type SeatUsageResponse struct {
	Used     int  `json:"used"`
	Allowed  int  `json:"allowed"`
	Exceeded bool `json:"exceeded"`
}

// ============================================================================
// Sessions
// ============================================================================

// TerminateRequest is the optional body of POST /v1/sessions/{userID}/terminate.
type TerminateRequest struct {
	Reason string `json:"reason" validate:"max=256"`
}

// TerminateResponse reports what a termination did.
type TerminateResponse struct {
	UserID               string `json:"user_id"`
	SessionsRevoked      int64  `json:"sessions_revoked"`
	VerificationsCleared int64  `json:"verifications_cleared"`

	// Delivered is false when live clients could not be told. The sessions
	// are revoked either way.
	Delivered bool `json:"delivered"`
}

// SessionEventTerminated is the SSE event name of a termination.
const SessionEventTerminated = "session_terminated"

// SessionEvent is the data of a session_terminated event.
type SessionEvent struct {
	UserID   string    `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
	Reason   string    `json:"reason,omitempty"`
}

// ============================================================================
// Bootstrap
// ============================================================================

// BootstrapRequest creates the first administrator of an empty system.
type BootstrapRequest struct {
	CompanyID   string `json:"company_id" validate:"required,max=64"`
	Email       string `json:"email" validate:"required,email,max=254"`
	DisplayName string `json:"display_name" validate:"max=64"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
}

// BootstrapResponse identifies the created administrator.
type BootstrapResponse struct {
	AdminUserID string `json:"admin_user_id"`
	CompanyID   string `json:"company_id"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency.
type HealthChecks struct {
	Database    string `json:"database"`
	Signer      string `json:"signer"`
	Broadcaster string `json:"broadcaster,omitempty"`
}
