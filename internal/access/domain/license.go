package domain

import (
	"math"
	"slices"
	"time"
)

type License struct {
	ID         string
	CompanyID  string
	Key        string
	Type       string
	MaxUsers   int
	ValidFrom  time.Time
	ValidUntil time.Time
	IsActive   bool
	Features   []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type LicenseStatus string

const (
	LicenseNone     LicenseStatus = "NO_LICENSE"
	LicensePending  LicenseStatus = "PENDING"
	LicenseActive   LicenseStatus = "ACTIVE"
	LicenseExpired  LicenseStatus = "EXPIRED"
	LicenseInactive LicenseStatus = "INACTIVE"
)

// StatusOf classifies l at now. A deactivated license is INACTIVE whatever
// its dates say, otherwise the validity window decides.
func StatusOf(l *License, now time.Time) LicenseStatus {
	switch {
	case l == nil:
		return LicenseNone
	case !l.IsActive:
		return LicenseInactive
	case now.Before(l.ValidFrom):
		return LicensePending
	case now.After(l.ValidUntil):
		return LicenseExpired
	default:
		return LicenseActive
	}
}

// DaysUntilExpiry is the ceiling of the days left until ValidUntil, negative
// once expired.
func DaysUntilExpiry(l License, now time.Time) int {
	return int(math.Ceil(l.ValidUntil.Sub(now).Hours() / 24))
}

// FeatureUserManagement gates user creation.
const FeatureUserManagement = "user_management"

// FeatureEnabled reports whether key is licensed. No license, no features.
func FeatureEnabled(l *License, key string) bool {
	if l == nil {
		return false
	}
	return slices.Contains(l.Features, key)
}

// DenyReason explains why a guard refused an operation.
type DenyReason string

const (
	DenyNone               DenyReason = ""
	DenyNoLicense          DenyReason = "no_license"
	DenyNotYetValid        DenyReason = "not_yet_valid"
	DenyExpired            DenyReason = "expired"
	DenyInactive           DenyReason = "inactive"
	DenyFeatureNotIncluded DenyReason = "feature_not_included"
	DenyUnavailable        DenyReason = "unavailable"
)

// Decision is the outcome of a license guard.
type Decision struct {
	Allowed bool
	Status  LicenseStatus
	Reason  DenyReason
}

// Decide permits feature iff the license is ACTIVE and includes it.
func Decide(l *License, feature string, now time.Time) Decision {
	status := StatusOf(l, now)
	switch status {
	case LicenseNone:
		return Decision{Status: status, Reason: DenyNoLicense}
	case LicensePending:
		return Decision{Status: status, Reason: DenyNotYetValid}
	case LicenseExpired:
		return Decision{Status: status, Reason: DenyExpired}
	case LicenseInactive:
		return Decision{Status: status, Reason: DenyInactive}
	}
	if !FeatureEnabled(l, feature) {
		return Decision{Status: status, Reason: DenyFeatureNotIncluded}
	}
	return Decision{Allowed: true, Status: status}
}

// SeatUsage compares assigned users with the licensed seat count. It is
// informational, exceeding it does not block anything.
type SeatUsage struct {
	Used     int  `json:"used"`
	Allowed  int  `json:"allowed"`
	Exceeded bool `json:"exceeded"`
}

// NewSeatUsage builds usage for a license. MaxUsers of zero means unlimited.
func NewSeatUsage(used int, l *License) SeatUsage {
	s := SeatUsage{Used: used}
	if l != nil {
		s.Allowed = l.MaxUsers
		s.Exceeded = l.MaxUsers > 0 && used > l.MaxUsers
	}
	return s
}
