package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/broadcast"
	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
	"github.com/aussiebroadwan/tenantgate/pkg/jwtx"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"

	_ "github.com/aussiebroadwan/tenantgate/api/access" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store              store.Store
	IdentityService    *service.IdentityService
	CredentialService  *service.CredentialService
	LockoutService     *service.LockoutService
	TwoFactorService   *service.TwoFactorService
	LicenseService     *service.LicenseService
	UserService        *service.UserService
	BootstrapService   *service.BootstrapService
	TerminationService *service.TerminationService
	Broadcaster        broadcast.Broadcaster

	// EventHeartbeat is the keepalive interval of the session event stream.
	EventHeartbeat time.Duration
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerLocks()
	r.registerTwoFactor()
	r.registerLicense()
	r.registerUsers()
	r.registerSessions()
	r.registerSystem()
	r.registerBootstrap()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			TenantGate Access Service API
//	@version		0.1.0
//	@description	Access control and license enforcement for multi-tenant applications: account lockout, credential login, TOTP two-factor, license guards and session termination.
//	@description
//	@description				Access tokens are EdDSA signed JWTs and are only honoured while their session is live.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tenantgate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authed prefixes mws with token authentication.
func (r *Router) authed(h http.Handler, mws ...httpx.Middleware) http.Handler {
	return httpx.Chain(h, append([]httpx.Middleware{Authn(r.IdentityService)}, mws...)...)
}

// verified is authed plus a completed second factor where the user has one.
func (r *Router) verified(h http.Handler, mws ...httpx.Middleware) http.Handler {
	return r.authed(h, append([]httpx.Middleware{RequireTwoFactor(r.TwoFactorService)}, mws...)...)
}

// admin is verified plus the admin scope.
func (r *Router) admin(h http.Handler, mws ...httpx.Middleware) http.Handler {
	return r.verified(h, append([]httpx.Middleware{httpx.RequireAnyScope(domain.ScopeAdmin)}, mws...)...)
}

func (r *Router) registerAuth() {
	// POST /auth/login - strict rate limit by IP, the lockout covers the account
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{Credentials: r.CredentialService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /v1/me",
		r.authed(&MeHandler{Identity: r.IdentityService},
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerLocks() {
	h := &LocksHandler{Lockout: r.LockoutService}

	r.Mux.Handle("GET /v1/locks",
		r.admin(http.HandlerFunc(h.HandleGet), httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("POST /v1/locks/{userID}",
		r.admin(http.HandlerFunc(h.HandleLock), httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("POST /v1/locks/{userID}/unlock",
		r.admin(http.HandlerFunc(h.HandleUnlock), httpx.RateLimitByUser(httpx.ModerateLimit)))
}

func (r *Router) registerTwoFactor() {
	h := &TwoFactorHandler{TwoFactor: r.TwoFactorService}

	r.Mux.Handle("GET /v1/2fa",
		r.authed(http.HandlerFunc(h.HandleStatus), httpx.RateLimitByUser(httpx.LenientLimit)))
	r.Mux.Handle("POST /v1/2fa/secret",
		r.authed(http.HandlerFunc(h.HandleSecret), httpx.RateLimitByUser(httpx.ModerateLimit)))

	// Replacing or removing an enabled second factor needs it verified first.
	r.Mux.Handle("POST /v1/2fa/enable",
		r.verified(http.HandlerFunc(h.HandleEnable), httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("DELETE /v1/2fa/{userID}",
		r.verified(http.HandlerFunc(h.HandleDisable), httpx.RateLimitByUser(httpx.ModerateLimit)))

	// POST /2fa/verify - strict, codes are only six digits
	r.Mux.Handle("POST /v1/2fa/verify",
		r.authed(http.HandlerFunc(h.HandleVerify), httpx.RateLimitByUser(httpx.StrictLimit)))

	r.Mux.Handle("POST /v1/2fa/recovery-codes",
		r.verified(http.HandlerFunc(h.HandleRecoveryCodes), httpx.RateLimitByUser(httpx.StrictLimit)))
}

func (r *Router) registerLicense() {
	h := &LicenseHandler{Licenses: r.LicenseService}

	r.Mux.Handle("GET /v1/license",
		r.verified(http.HandlerFunc(h.HandleGet), httpx.RateLimitByUser(httpx.LenientLimit)))
	r.Mux.Handle("GET /v1/license/seats",
		r.verified(http.HandlerFunc(h.HandleSeats), httpx.RateLimitByUser(httpx.LenientLimit)))
	r.Mux.Handle("POST /v1/license/validate",
		r.admin(http.HandlerFunc(h.HandleValidate), httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("POST /v1/license/activate",
		r.admin(http.HandlerFunc(h.HandleActivate), httpx.RateLimitByUser(httpx.ModerateLimit)))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Users: r.UserService}

	r.Mux.Handle("POST /v1/users",
		r.admin(http.HandlerFunc(h.HandleCreate),
			RequireFeature(r.LicenseService, domain.FeatureUserManagement),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSessions() {
	h := &SessionsHandler{
		Terminator:  r.TerminationService,
		Broadcaster: r.Broadcaster,
		Heartbeat:   r.EventHeartbeat,
	}

	r.Mux.Handle("POST /v1/sessions/{userID}/terminate",
		r.admin(http.HandlerFunc(h.HandleTerminate), httpx.RateLimitByUser(httpx.ModerateLimit)))
	r.Mux.Handle("GET /v1/sessions/events",
		r.authed(http.HandlerFunc(h.HandleEvents), httpx.RateLimitByUser(httpx.ModerateLimit)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.Broadcaster))
}

func (r *Router) registerBootstrap() {
	h := &BootstrapHandler{BootstrapService: r.BootstrapService}

	// POST /bootstrap - strict rate limit by IP, the token is the only guard
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}
