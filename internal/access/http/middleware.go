package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
)

type ctxKey struct{}

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func principalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(domain.Principal)
	return p, ok && p.UserID != ""
}

// Authn resolves the bearer token to a principal. A token whose session was
// revoked is rejected on the very next request.
func Authn(identity *service.IdentityService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := httpx.BearerToken(r)
			if !ok {
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}

			ctx := r.Context()
			p, err := identity.ValidateToken(ctx, token)
			if err != nil {
				slogx.FromContext(ctx).Debug("token rejected", slog.Any("err", err))
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}

			ctx = withPrincipal(ctx, p)
			ctx = httpx.WithIdentity(ctx, p.UserID, p.Role.Scopes())
			ctx = slogx.WithAttrs(ctx, slog.String("user_id", p.UserID), slog.String("session_id", p.SessionID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTwoFactor only lets sessions through that are verified or belong to
// a user without two-factor. It fails closed.
func RequireTwoFactor(twoFactor *service.TwoFactorService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, ok := principalFrom(ctx)
			if !ok {
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}

			needs, err := twoFactor.NeedsVerification(ctx, p.UserID, p.SessionID)
			if err != nil {
				slogx.FromContext(ctx).Error("verification lookup failed", slog.Any("err", err))
			}
			if needs {
				authsdk.ErrTwoFactorRequired.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireFeature denies the route unless the caller's company holds an
// active license that includes feature.
func RequireFeature(licenses *service.LicenseService, feature string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)
			p, ok := principalFrom(ctx)
			if !ok {
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}

			d, err := licenses.Guard(ctx, p.CompanyID, feature)
			if err != nil {
				log.Error("license guard failed", slog.String("feature", feature), slog.Any("err", err))
				authsdk.NewAPIError(http.StatusServiceUnavailable, authsdk.ErrorCodeServiceUnavailable,
					"license state is unavailable").WriteError(w)
				return
			}
			if !d.Allowed {
				log.Info("feature denied",
					slog.String("feature", feature),
					slog.String("status", string(d.Status)),
					slog.String("reason", string(d.Reason)),
				)
				authsdk.NewAPIError(http.StatusForbidden, authsdk.ErrorCodeLicenseRequired,
					"feature "+feature+" is not licensed: "+string(d.Reason)).WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
