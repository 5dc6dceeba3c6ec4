package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/tenantgate/internal/access/broadcast"
	httpapi "github.com/aussiebroadwan/tenantgate/internal/access/http"
	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
	"github.com/aussiebroadwan/tenantgate/internal/access/store/drivers/postgres"
	"github.com/aussiebroadwan/tenantgate/internal/access/store/drivers/sqlite"
	"github.com/aussiebroadwan/tenantgate/pkg/cryptox"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the access service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          store.Store
	keys        *AuthKeys
	redis       *redis.Client // nil without ACCESS_REDIS_URL
	broadcaster broadcast.Broadcaster
	notifier    service.Notifier

	// Services
	identityService     *service.IdentityService
	lockoutService      *service.LockoutService
	credentialService   *service.CredentialService
	twoFactorService    *service.TwoFactorService
	licenseService      *service.LicenseService
	userService         *service.UserService
	bootstrapService    *service.BootstrapService
	terminationService  *service.TerminationService
	housekeepingService *service.HousekeepingService
	policyWatcher       *PolicyWatcher // nil without ACCESS_CONFIG_FILE

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "access-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	keys, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keys = keys

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initBroadcast(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.closeBackends()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.start()

	app.logger.Info("access service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// start launches the background workers that Shutdown stops.
func (app *Application) start() {
	app.housekeepingService.Start()
	if app.policyWatcher != nil {
		app.policyWatcher.Start()
	}
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down access service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop background workers
	app.housekeepingService.Stop()
	if app.policyWatcher != nil {
		app.policyWatcher.Stop()
	}

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("access service stopped")
	return nil
}

// closeBackends closes Redis and the database, returning the database error.
func (app *Application) closeBackends() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

type migratingStore interface {
	store.Store
	ApplyMigrations() error
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase() error {
	var (
		db  migratingStore
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(app.cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf(
			"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
			app.cfg.DatabaseFile,
		)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initBroadcast picks Redis for termination signals and admin notices when
// configured, otherwise an in-process hub and the log.
func (app *Application) initBroadcast() error {
	if app.cfg.RedisURL == "" {
		app.broadcaster = broadcast.NewHub()
		app.notifier = broadcast.LogNotifier{Logger: app.logger}
		app.logger.Warn("no redis configured - session termination is only broadcast within this instance")
		return nil
	}

	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	app.redis = client
	app.broadcaster = broadcast.NewRedis(client)
	app.notifier = broadcast.NewRedisNotifier(client)
	app.logger.Info("redis broadcaster enabled", "addr", opts.Addr)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	lockout, err := service.NewLockoutService(app.db, app.notifier, app.cfg.Policy.Lockout)
	if err != nil {
		return fmt.Errorf("invalid lockout policy: %w", err)
	}
	app.lockoutService = lockout

	app.identityService = &service.IdentityService{
		Store:    app.db,
		Signer:   app.keys.Signer,
		Verifier: app.keys.Verifier,
		Issuer:   app.cfg.Issuer,
		TokenTTL: app.cfg.TokenTTL,
	}
	app.twoFactorService = &service.TwoFactorService{
		Store:           app.db,
		Lockout:         lockout,
		Issuer:          app.cfg.Issuer,
		VerificationTTL: app.cfg.Policy.VerificationTTL,
	}
	app.credentialService = &service.CredentialService{
		Store:     app.db,
		Lockout:   lockout,
		Identity:  app.identityService,
		TwoFactor: app.twoFactorService,
	}

	app.licenseService = &service.LicenseService{Store: app.db}
	if app.cfg.LicenseAuthorityURL != "" {
		app.licenseService.Authority = service.NewHTTPLicenseAuthority(context.Background(), service.AuthorityConfig{
			BaseURL:      app.cfg.LicenseAuthorityURL,
			TokenURL:     app.cfg.LicenseAuthorityToken,
			ClientID:     app.cfg.LicenseAuthorityClient,
			ClientSecret: app.cfg.LicenseAuthoritySecret,
			Scopes:       app.cfg.LicenseAuthorityScopes,
		})
		app.logger.Info("license authority configured", "url", app.cfg.LicenseAuthorityURL)
	}

	app.userService = &service.UserService{Store: app.db, Licenses: app.licenseService}
	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Users: app.userService,
		Token: app.cfg.BootstrapToken,
	}
	app.terminationService = &service.TerminationService{
		Store:     app.db,
		Identity:  app.identityService,
		Publisher: app.broadcaster,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	if app.cfg.ConfigFile != "" {
		watcher, err := NewPolicyWatcher(app.cfg.ConfigFile, lockout, app.logger)
		if err != nil {
			return err
		}
		app.policyWatcher = watcher
	}

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys.KeySet,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.IdentityService = app.identityService
	router.CredentialService = app.credentialService
	router.LockoutService = app.lockoutService
	router.TwoFactorService = app.twoFactorService
	router.LicenseService = app.licenseService
	router.UserService = app.userService
	router.BootstrapService = app.bootstrapService
	router.TerminationService = app.terminationService
	router.Broadcaster = app.broadcaster
	router.EventHeartbeat = app.cfg.EventHeartbeat
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server. No WriteTimeout: the session event stream is
	// long lived, and ends through the base context on shutdown.
	streams, cancelStreams := context.WithCancel(context.Background())
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return streams },
	}
	app.server.RegisterOnShutdown(cancelStreams)
}
