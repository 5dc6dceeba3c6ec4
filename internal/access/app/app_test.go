package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tenantgate/internal/access/broadcast"
	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
)

const (
	testBootstrapToken = "test-bootstrap-token-12345"
	adminPassword      = "Admin123!secret"
)

// licenseAuthority answers the client credentials grant and validates a
// single key, insisting on the bearer token it handed out.
func licenseAuthority(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "authority-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("POST /v1/licenses/validate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer authority-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Key string `json:"key"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Key != "ACME-ENTERPRISE" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		now := time.Now().UTC()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"key":         body.Key,
			"type":        "enterprise",
			"max_users":   10,
			"valid_from":  now.Add(-time.Hour),
			"valid_until": now.Add(365 * 24 * time.Hour),
			"is_active":   true,
			"features":    []string{domain.FeatureUserManagement},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	mr := miniredis.RunT(t)
	authority := licenseAuthority(t)

	policyPath := filepath.Join(dir, "access.toml")
	writeFile(t, policyPath, "[lockout]\nthreshold = 3\n")
	policy, err := LoadPolicy(policyPath)
	require.NoError(t, err)

	return Config{
		Issuer:         "tenantgate-test",
		BootstrapToken: testBootstrapToken,
		ConfigFile:     policyPath,

		DatabaseDriver: "sqlite",
		DatabaseFile:   filepath.Join(dir, "access.db"),
		PepperFile:     filepath.Join(dir, "pepper"),
		MasterKeyPath:  filepath.Join(dir, "master.key"),
		SigningKeyFile: filepath.Join(dir, "signing.pem"),
		RedisURL:       "redis://" + mr.Addr(),

		LicenseAuthorityURL:    authority.URL,
		LicenseAuthorityToken:  authority.URL + "/oauth/token",
		LicenseAuthorityClient: "tenantgate",
		LicenseAuthoritySecret: "s3cret",

		Policy: policy,

		TokenTTL:             time.Hour,
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		Port:                 0,
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
		EventHeartbeat:       50 * time.Millisecond,
	}
}

func TestApplicationEndToEnd(t *testing.T) {
	cfg := testConfig(t)

	application, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, application.redis)
	require.NotNil(t, application.policyWatcher)
	require.Equal(t, 3, application.lockoutService.Policy().Threshold)
	application.start()

	srv := httptest.NewServer(application.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client := authsdk.NewSDKClient(srv.URL)

	_, err = client.Bootstrap(ctx, testBootstrapToken, authsdk.BootstrapRequest{
		CompanyID: "acme",
		Email:     "root@acme.test",
		Password:  adminPassword,
	})
	require.NoError(t, err)

	admin, err := client.Login(ctx, "root@acme.test", adminPassword)
	require.NoError(t, err)

	// No license yet, so user management is closed.
	_, err = admin.CreateUser(ctx, authsdk.CreateUserRequest{Email: "ada@acme.test", Password: adminPassword})
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	lic, err := admin.ActivateLicense(ctx, "ACME-ENTERPRISE")
	require.NoError(t, err)
	require.Equal(t, string(domain.LicenseActive), lic.Status)

	member, err := admin.CreateUser(ctx, authsdk.CreateUserRequest{Email: "ada@acme.test", Password: adminPassword})
	require.NoError(t, err)

	ada, err := client.Login(ctx, "ada@acme.test", adminPassword)
	require.NoError(t, err)

	events := make(chan authsdk.SessionEvent, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- ada.WatchSession(ctx, func(ev authsdk.SessionEvent) { events <- ev })
	}()

	// The subscription goes through Redis, wait until it is registered.
	require.Eventually(t, func() bool {
		channel := broadcast.Channel(member.ID)
		n, err := application.redis.PubSubNumSub(ctx, channel).Result()
		return err == nil && n[channel] == 1
	}, 5*time.Second, 20*time.Millisecond)

	res, err := admin.TerminateSessions(ctx, member.ID, "offboarded")
	require.NoError(t, err)
	require.EqualValues(t, 1, res.SessionsRevoked)

	select {
	case ev := <-events:
		require.Equal(t, "offboarded", ev.Reason)
	case <-time.After(5 * time.Second):
		t.Fatal("termination event not received")
	}
	require.NoError(t, <-watchErr)

	// The lockout threshold comes from the policy file.
	for range 3 {
		_, err := client.Login(ctx, "ada@acme.test", "wrong-password")
		require.Error(t, err)
	}
	_, err = client.Login(ctx, "ada@acme.test", adminPassword)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)

	require.NoError(t, application.Shutdown())
}

func TestApplicationSigningKeyPersists(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = ""
	cfg.ConfigFile = ""
	cfg.LicenseAuthorityURL = ""

	first, err := New(cfg)
	require.NoError(t, err)
	first.start()
	kid := first.keys.Signer.KID()
	require.NoError(t, first.Shutdown())

	second, err := New(cfg)
	require.NoError(t, err)
	second.start()
	t.Cleanup(func() { _ = second.Shutdown() })

	require.Equal(t, kid, second.keys.Signer.KID())
	require.Nil(t, second.redis)
	require.Nil(t, second.policyWatcher)
}

func TestApplicationRejectsUnreachableRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := New(cfg)
	require.Error(t, err)
}
