package domain

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Scopes are embedded in access tokens and checked by route middleware.
func (r Role) Scopes() []string {
	if r == RoleAdmin {
		return []string{ScopeProfile, ScopeAdmin}
	}
	return []string{ScopeProfile}
}

const (
	ScopeProfile = "profile"
	ScopeAdmin   = "admin"
)

type User struct {
	ID           string
	CompanyID    string
	Email        string
	DisplayName  string
	PasswordHash string // argon2 encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated caller. It is passed explicitly to every
// operation that needs to know who is asking.
type Principal struct {
	UserID    string
	Email     string
	SessionID string
	Role      Role
	CompanyID string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Session is a persisted login. Access tokens carry its id and are only
// honoured while the row is neither revoked nor expired.
type Session struct {
	ID        string
	UserID    string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// ActiveAt reports whether the session can still back a token at now.
func (s Session) ActiveAt(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
