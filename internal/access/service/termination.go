package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
)

// TerminationService force-ends every session of a user.
//
// The revocation in the store is the source of truth. The broadcast only
// tells live clients sooner, and is published after the revocation so that a
// client can never hear about a termination that has not happened yet.
type TerminationService struct {
	Store     store.Store
	Identity  *IdentityService
	Publisher Publisher // optional

	Now func() time.Time
}

type TerminationResult struct {
	UserID               string
	SessionsRevoked      int64
	VerificationsCleared int64
	Delivered            bool
}

// Terminate revokes the sessions of targetUserID, clears its two-factor
// verifications, and then publishes a termination signal.
func (s *TerminationService) Terminate(ctx context.Context, caller domain.Principal, targetUserID, reason string) (TerminationResult, error) {
	if targetUserID == caller.UserID {
		return TerminationResult{}, ErrSelfTermination
	}
	if err := requireAdmin(caller); err != nil {
		return TerminationResult{}, err
	}
	if _, err := loadTenantUser(ctx, s.Store, caller, targetUserID); err != nil {
		return TerminationResult{}, err
	}

	l := slogx.FromContext(ctx)
	res := TerminationResult{UserID: targetUserID}

	revoked, err := s.Identity.InvalidateAllTokens(ctx, targetUserID)
	if err != nil {
		return TerminationResult{}, fmt.Errorf("terminate: %w", err)
	}
	res.SessionsRevoked = revoked

	cleared, err := s.Store.SessionVerifications().DeleteUserVerifications(ctx, targetUserID)
	if err != nil {
		return TerminationResult{}, fmt.Errorf("terminate: clear verifications: %w", err)
	}
	res.VerificationsCleared = cleared

	l.Warn("sessions terminated",
		slog.String("user_id", targetUserID),
		slog.String("by", caller.UserID),
		slog.Int64("sessions", revoked),
	)

	if s.Publisher == nil {
		return res, nil
	}
	sig := domain.TerminationSignal{UserID: targetUserID, IssuedAt: now(s.Now), Reason: reason}
	if err := s.Publisher.Publish(ctx, sig); err != nil {
		l.Error("termination signal not delivered", slog.String("user_id", targetUserID), slog.Any("error", err))
		return res, nil
	}
	res.Delivered = true
	return res, nil
}
