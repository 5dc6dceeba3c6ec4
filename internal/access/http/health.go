package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/broadcast"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
	"github.com/aussiebroadwan/tenantgate/pkg/jwtx"
)

// Pinger is implemented by broadcasters with a remote backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe endpoint returning basic service health status, uptime, and version information
//	@Description	This endpoint always returns 200 OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the database, the token signer and the session broadcaster
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeySet,
	broadcaster broadcast.Broadcaster,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Database: "ok", Signer: "ok", Broadcaster: "ok"}
		ready := true
		fail := func(check *string, reason string) {
			*check = "error: " + reason
			ready = false
		}

		if err := st.Ping(r.Context()); err != nil {
			fail(&checks.Database, err.Error())
		}
		if !keys.IsReady() {
			fail(&checks.Signer, "no keys loaded")
		}
		// In-process broadcasters have nothing to ping
		if p, ok := broadcaster.(Pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				fail(&checks.Broadcaster, err.Error())
			}
		}

		resp := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		if !ready {
			resp.Status = "degraded"
			httpx.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
