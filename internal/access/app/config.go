package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/pkg/jwtx"
)

type Config struct {
	Issuer         string // Optional: issuer claim for tokens (default: tenantgate)
	BootstrapToken string // Optional: token required to perform bootstrap, bootstrap is disabled without it
	ConfigFile     string // Optional: TOML policy overlay, watched for changes

	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./access.db)
	DatabaseURL    string // Required for postgres: connection URL
	PepperFile     string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	MasterKeyPath  string // Optional: path to master key sealing TOTP secrets (default: ./master.key)
	SigningKeyFile string // Optional: PEM Ed25519 signing key, generated if missing. Empty means ephemeral
	RedisURL       string // Optional: Redis for cross instance termination and admin notices

	LicenseAuthorityURL    string   // Optional: remote license authority base URL
	LicenseAuthorityToken  string   // Optional: OAuth2 token endpoint for the authority
	LicenseAuthorityClient string   // Optional: OAuth2 client id
	LicenseAuthoritySecret string   // Optional: OAuth2 client secret
	LicenseAuthorityScopes []string // Optional: OAuth2 scopes, comma separated in the environment

	Policy Policy

	TokenTTL             time.Duration // Access token and session lifetime (default: 15m)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	EventHeartbeat       time.Duration // Session event stream keepalive (default: 25s)
}

// Policy is the part of the configuration the TOML file can carry. The
// lockout half is reloaded while running.
type Policy struct {
	Lockout         domain.LockoutPolicy
	VerificationTTL time.Duration
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:         getEnvOrDefault("ACCESS_ISSUER", "tenantgate"),
		BootstrapToken: os.Getenv("ACCESS_BOOTSTRAP_TOKEN"),
		ConfigFile:     os.Getenv("ACCESS_CONFIG_FILE"),

		DatabaseDriver: getEnvOrDefault("ACCESS_DATABASE_DRIVER", "sqlite"),
		DatabaseFile:   getEnvOrDefault("ACCESS_DATABASE_FILE", "access.db"),
		DatabaseURL:    os.Getenv("ACCESS_DATABASE_URL"),
		PepperFile:     getEnvOrDefault("ACCESS_PEPPER_FILE", "pepper"),
		MasterKeyPath:  getEnvOrDefault("ACCESS_MASTER_KEY_PATH", "master.key"),
		SigningKeyFile: getEnvOrDefault("ACCESS_SIGNING_KEY_FILE", "signing.pem"),
		RedisURL:       os.Getenv("ACCESS_REDIS_URL"),

		LicenseAuthorityURL:    os.Getenv("ACCESS_LICENSE_AUTHORITY_URL"),
		LicenseAuthorityToken:  os.Getenv("ACCESS_LICENSE_AUTHORITY_TOKEN_URL"),
		LicenseAuthorityClient: os.Getenv("ACCESS_LICENSE_AUTHORITY_CLIENT_ID"),
		LicenseAuthoritySecret: os.Getenv("ACCESS_LICENSE_AUTHORITY_CLIENT_SECRET"),
		LicenseAuthorityScopes: splitList(os.Getenv("ACCESS_LICENSE_AUTHORITY_SCOPES")),

		TokenTTL:             getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		EventHeartbeat:       getEnvDurationOrDefault("ACCESS_EVENT_HEARTBEAT", 25*time.Second),
	}

	switch cfg.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("ACCESS_DATABASE_URL is required for the postgres driver")
		}
	default:
		return cfg, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}

	policy, err := LoadPolicy(cfg.ConfigFile)
	if err != nil {
		return cfg, err
	}
	cfg.Policy = policy

	return cfg, nil
}

// policyFile is the TOML layout:
//
//	[lockout]
//	threshold = 5
//	window = "5m"
//	auto_unlock = "30m"
//
//	[two_factor]
//	verification_ttl = "12h"
type policyFile struct {
	Lockout struct {
		Threshold  int      `toml:"threshold"`
		Window     duration `toml:"window"`
		AutoUnlock duration `toml:"auto_unlock"`
	} `toml:"lockout"`
	TwoFactor struct {
		VerificationTTL duration `toml:"verification_ttl"`
	} `toml:"two_factor"`
}

// duration decodes TOML strings such as "30m".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// LoadPolicy layers the defaults, the TOML file at path (skipped when path
// is empty), and then the environment, which always wins. The result is
// validated.
func LoadPolicy(path string) (Policy, error) {
	p := Policy{
		Lockout:         domain.DefaultLockoutPolicy,
		VerificationTTL: service.DefaultVerificationTTL,
	}

	if path != "" {
		// Keys missing from the file keep the value they are pre-filled with.
		var f policyFile
		f.Lockout.Threshold = p.Lockout.Threshold
		f.Lockout.Window = duration(p.Lockout.Window)
		f.Lockout.AutoUnlock = duration(p.Lockout.AutoUnlock)
		f.TwoFactor.VerificationTTL = duration(p.VerificationTTL)

		if _, err := toml.DecodeFile(path, &f); err != nil {
			return Policy{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}

		p.Lockout.Threshold = f.Lockout.Threshold
		p.Lockout.Window = time.Duration(f.Lockout.Window)
		p.Lockout.AutoUnlock = time.Duration(f.Lockout.AutoUnlock)
		p.VerificationTTL = time.Duration(f.TwoFactor.VerificationTTL)
	}

	p.Lockout.Threshold = getEnvIntOrDefault("ACCESS_LOCKOUT_THRESHOLD", p.Lockout.Threshold)
	p.Lockout.Window = getEnvDurationOrDefault("ACCESS_LOCKOUT_WINDOW", p.Lockout.Window)
	p.Lockout.AutoUnlock = getEnvDurationOrDefault("ACCESS_LOCKOUT_AUTO_UNLOCK", p.Lockout.AutoUnlock)
	p.VerificationTTL = getEnvDurationOrDefault("ACCESS_VERIFICATION_TTL", p.VerificationTTL)

	if err := service.ValidatePolicy(p.Lockout); err != nil {
		return Policy{}, err
	}
	if p.VerificationTTL <= 0 {
		return Policy{}, fmt.Errorf("%w: verification ttl must be positive", service.ErrValidation)
	}

	return p, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
