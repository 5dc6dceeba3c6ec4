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
	"github.com/aussiebroadwan/tenantgate/pkg/idx"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
)

// LicenseAuthority is the remote source of truth for license keys. Lookup
// returns nil and no error when the key is unknown.
type LicenseAuthority interface {
	Lookup(ctx context.Context, key string) (*domain.License, error)
}

// LicenseService answers license questions for a company. Status is always
// computed from the stored row and the clock.
type LicenseService struct {
	Store     store.Store
	Authority LicenseAuthority // optional, needed for ValidateKey and Activate

	Now func() time.Time
}

// Resolve returns the license of a company.
func (s *LicenseService) Resolve(ctx context.Context, companyID string) (domain.License, error) {
	l, err := s.Store.Licenses().GetLicenseByCompany(ctx, companyID)
	if err != nil {
		return domain.License{}, mapNotFound(err, ErrLicenseNotFound)
	}
	return l, nil
}

// LicenseView is a license together with its derived state.
type LicenseView struct {
	License         *domain.License
	Status          domain.LicenseStatus
	DaysUntilExpiry int
}

// Describe is Resolve plus status. A missing license is a NO_LICENSE view,
// not an error.
func (s *LicenseService) Describe(ctx context.Context, companyID string) (LicenseView, error) {
	at := now(s.Now)
	l, err := s.Resolve(ctx, companyID)
	if errors.Is(err, ErrNotFound) {
		return LicenseView{Status: domain.LicenseNone}, nil
	}
	if err != nil {
		return LicenseView{}, err
	}
	return LicenseView{
		License:         &l,
		Status:          domain.StatusOf(&l, at),
		DaysUntilExpiry: domain.DaysUntilExpiry(l, at),
	}, nil
}

// Guard decides whether companyID may use feature right now. It fails closed,
// a store failure yields a deny decision together with the error.
func (s *LicenseService) Guard(ctx context.Context, companyID, feature string) (domain.Decision, error) {
	l, err := s.Resolve(ctx, companyID)
	switch {
	case errors.Is(err, ErrNotFound):
		return domain.Decide(nil, feature, now(s.Now)), nil
	case err != nil:
		return domain.Decision{Status: domain.LicenseNone, Reason: domain.DenyUnavailable}, err
	}
	return domain.Decide(&l, feature, now(s.Now)), nil
}

// SeatUsage compares the users of a company with its licensed seats. It is
// advisory, nothing is blocked when the limit is exceeded.
func (s *LicenseService) SeatUsage(ctx context.Context, companyID string) (domain.SeatUsage, error) {
	used, err := s.Store.Users().CountUsersByCompany(ctx, companyID)
	if err != nil {
		return domain.SeatUsage{}, fmt.Errorf("count users: %w", err)
	}

	l, err := s.Resolve(ctx, companyID)
	if errors.Is(err, ErrNotFound) {
		return domain.NewSeatUsage(used, nil), nil
	}
	if err != nil {
		return domain.SeatUsage{}, err
	}
	return domain.NewSeatUsage(used, &l), nil
}

// KeyValidation is the outcome of a remote key check.
type KeyValidation struct {
	Status  domain.LicenseStatus
	License *domain.License
}

// ValidateKey asks the authority about key without storing anything.
func (s *LicenseService) ValidateKey(ctx context.Context, key string) (KeyValidation, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return KeyValidation{}, fmt.Errorf("%w: license key is required", ErrValidation)
	}
	if s.Authority == nil {
		return KeyValidation{}, fmt.Errorf("%w: no license authority configured", ErrUpstream)
	}

	l, err := s.Authority.Lookup(ctx, key)
	if err != nil {
		return KeyValidation{}, err
	}
	return KeyValidation{Status: domain.StatusOf(l, now(s.Now)), License: l}, nil
}

// Activate validates key remotely and installs it as the caller's company
// license. Keys that are unknown, expired, or inactive are refused. A key
// that is not valid yet is accepted and shows as PENDING.
func (s *LicenseService) Activate(ctx context.Context, caller domain.Principal, key string) (domain.License, error) {
	if err := requireAdmin(caller); err != nil {
		return domain.License{}, err
	}

	v, err := s.ValidateKey(ctx, key)
	if err != nil {
		return domain.License{}, err
	}
	switch v.Status {
	case domain.LicenseNone, domain.LicenseExpired, domain.LicenseInactive:
		return domain.License{}, fmt.Errorf("%w: license key is %s", ErrValidation, v.Status)
	}

	at := now(s.Now)
	l := *v.License
	l.ID = idx.NewAt(at).String()
	l.CompanyID = caller.CompanyID
	l.Key = strings.TrimSpace(key)
	l.CreatedAt = at
	l.UpdatedAt = at

	if err := s.Store.Licenses().UpsertLicense(ctx, l); err != nil {
		return domain.License{}, fmt.Errorf("store license: %w", err)
	}

	slogx.FromContext(ctx).Info("license activated",
		slog.String("company_id", caller.CompanyID),
		slog.String("status", string(v.Status)),
		slog.Time("valid_until", l.ValidUntil),
	)
	return s.Resolve(ctx, caller.CompanyID)
}
