package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it and expose sub-repositories so that a transaction
// can only ever hand out transaction scoped repos.
type Store interface {
	Users() Users
	Sessions() Sessions
	LoginAttempts() LoginAttempts
	AccountLocks() AccountLocks
	TwoFactor() TwoFactor
	RecoveryCodes() RecoveryCodes
	SessionVerifications() SessionVerifications
	Licenses() Licenses

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Inside fn only the repos of tx may be used.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// ListAdmins returns the administrators of a company, used as the
	// recipients of lock notices.
	ListAdmins(ctx context.Context, companyID string) ([]domain.User, error)

	CountUsersByCompany(ctx context.Context, companyID string) (int, error)

	IsEmpty(ctx context.Context) (bool, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// RevokeUserSessions stamps revoked_at on every live session of the user
	// and returns how many were revoked.
	RevokeUserSessions(ctx context.Context, userID string, at time.Time) (int64, error)

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// LoginAttempts is append only, there is deliberately no update or delete.
type LoginAttempts interface {
	CreateLoginAttempt(ctx context.Context, a domain.LoginAttempt) error

	// CountFailuresSince counts failed attempts of kind for email with
	// attempted_at >= since.
	CountFailuresSince(ctx context.Context, email string, kind domain.AttemptKind, since time.Time) (int, error)

	// ListRecentAttempts returns the newest attempts for email first.
	ListRecentAttempts(ctx context.Context, email string, limit int) ([]domain.LoginAttempt, error)
}

type AccountLocks interface {
	// CreateLock seals any expired open lock of the user and inserts l. If a
	// lock is still open the insert violates the one-open-lock constraint and
	// ErrAlreadyExists is returned.
	CreateLock(ctx context.Context, l domain.AccountLock, now time.Time) error

	// GetOpenLock returns the unsealed lock of a user, which may have expired
	// already. Callers decide with AccountLock.OpenAt.
	GetOpenLock(ctx context.Context, userID string) (domain.AccountLock, error)

	// GetLatestLockByEmail returns the most recent lock, sealed or not.
	GetLatestLockByEmail(ctx context.Context, email string) (domain.AccountLock, error)

	// SealOpenLock sets unlocked_at and unlocked_by on the open lock, if any,
	// and reports whether a row changed.
	SealOpenLock(ctx context.Context, userID, by string, at time.Time) (bool, error)
}

type TwoFactor interface {
	GetCredential(ctx context.Context, userID string) (domain.TwoFactorCredential, error)

	// UpsertCredential overwrites any existing credential of the user.
	UpsertCredential(ctx context.Context, c domain.TwoFactorCredential) error

	DeleteCredential(ctx context.Context, userID string) error
}

type RecoveryCodes interface {
	CreateRecoveryCode(ctx context.Context, userID, codeHash string, at time.Time) error

	// ConsumeRecoveryCode deletes the code and reports whether it existed.
	// Two concurrent redemptions of one code cannot both succeed.
	ConsumeRecoveryCode(ctx context.Context, userID, codeHash string) (bool, error)

	DeleteAllRecoveryCodes(ctx context.Context, userID string) error
	CountRecoveryCodes(ctx context.Context, userID string) (int, error)
}

type SessionVerifications interface {
	// UpsertVerification inserts or refreshes the row for (user, session).
	UpsertVerification(ctx context.Context, v domain.SessionVerification) error

	GetVerification(ctx context.Context, userID, sessionID string) (domain.SessionVerification, error)

	DeleteUserVerifications(ctx context.Context, userID string) (int64, error)

	// DeleteExpiredVerifications is housekeeping.
	DeleteExpiredVerifications(ctx context.Context, now time.Time) (int64, error)
}

type Licenses interface {
	GetLicenseByCompany(ctx context.Context, companyID string) (domain.License, error)

	// UpsertLicense replaces the license of l.CompanyID.
	UpsertLicense(ctx context.Context, l domain.License) error
}
