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
	"github.com/aussiebroadwan/tenantgate/pkg/cryptox"
	"github.com/aussiebroadwan/tenantgate/pkg/idx"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
)

const minPasswordLength = 8

var (
	ErrBootstrapAlready      = fmt.Errorf("%w: system already bootstrapped", ErrConflict)
	ErrBootstrapUnauthorized = fmt.Errorf("%w: invalid bootstrap token", ErrUnauthorized)
	ErrEmailTaken            = fmt.Errorf("%w: email already registered", ErrConflict)
)

type NewUser struct {
	Email       string
	DisplayName string
	Password    string
	Role        domain.Role
}

// UserService manages the users of a company.
type UserService struct {
	Store    store.Store
	Licenses *LicenseService // optional, used for the seat warning

	Now func() time.Time
}

// CreateUser adds a user to the caller's company. Going over the licensed
// seat count only logs a warning.
func (s *UserService) CreateUser(ctx context.Context, caller domain.Principal, req NewUser) (domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return domain.User{}, err
	}

	u, err := s.create(ctx, s.Store, caller.CompanyID, req)
	if err != nil {
		return domain.User{}, err
	}

	l := slogx.FromContext(ctx)
	l.Info("user created",
		slog.String("user_id", u.ID),
		slog.String("role", string(u.Role)),
		slog.String("created_by", caller.UserID),
	)

	if s.Licenses != nil {
		usage, err := s.Licenses.SeatUsage(ctx, caller.CompanyID)
		switch {
		case err != nil:
			l.Error("seat usage check failed", slog.Any("error", err))
		case usage.Exceeded:
			l.Warn("licensed seats exceeded",
				slog.String("company_id", caller.CompanyID),
				slog.Int("used", usage.Used),
				slog.Int("allowed", usage.Allowed),
			)
		}
	}
	return u, nil
}

func (s *UserService) create(ctx context.Context, st store.Store, companyID string, req NewUser) (domain.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	role := req.Role
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	at := now(s.Now)
	u := domain.User{
		ID:           idx.NewAt(at).String(),
		CompanyID:    companyID,
		Email:        email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	if err := st.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

type BootstrapRequest struct {
	CompanyID   string
	Email       string
	DisplayName string
	Password    string
}

// BootstrapService creates the first administrator of an empty system. It
// needs the pre-shared token from the environment and only ever works once.
type BootstrapService struct {
	Store store.Store
	Users *UserService
	Token string
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

func (s *BootstrapService) Bootstrap(ctx context.Context, token string, req BootstrapRequest) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if s.Token == "" || !cryptox.ConstantTimeEqual(token, s.Token) {
		l.Warn("unauthorized bootstrap attempt")
		return domain.User{}, ErrBootstrapUnauthorized
	}
	if strings.TrimSpace(req.CompanyID) == "" {
		return domain.User{}, fmt.Errorf("%w: company id is required", ErrValidation)
	}

	var admin domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}
		admin, err = s.Users.create(ctx, tx, strings.TrimSpace(req.CompanyID), NewUser{
			Email:       req.Email,
			DisplayName: req.DisplayName,
			Password:    req.Password,
			Role:        domain.RoleAdmin,
		})
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	l.Info("system bootstrapped", slog.String("admin_id", admin.ID), slog.String("company_id", admin.CompanyID))
	return admin, nil
}
