package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the access service
//	@Description	Creates the first administrator of an empty system. Only available when a bootstrap token is configured, and only works once.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string							true	"Bootstrap token for authorization"
//	@Param			request				body		authsdk.BootstrapRequest		true	"First administrator"
//	@Success		201					{object}	authsdk.BootstrapResponse		"Administrator created"
//	@Failure		400					{object}	authsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		401					{object}	authsdk.ErrorResponse			"Missing or invalid bootstrap token"
//	@Failure		404					{object}	authsdk.ErrorResponse			"Bootstrap not enabled (no token configured)"
//	@Failure		409					{object}	authsdk.ErrorResponse			"System already bootstrapped"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())
	l.Info("Starting to bootstrap")

	// 1. Check if enabled
	if h.BootstrapService.Token == "" {
		authsdk.ErrNotFound.WithDescription("Bootstrap endpoint is not enabled").WriteError(w)
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get("X-Bootstrap-Token")
	if token == "" {
		authsdk.NewAPIError(http.StatusUnauthorized, "unauthorized",
			"Bootstrap token is required in X-Bootstrap-Token header").WriteError(w)
		return
	}

	// 3. Parse request body and validate
	var req authsdk.BootstrapRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	// 4. Perform bootstrap
	admin, err := h.BootstrapService.Bootstrap(r.Context(), token, service.BootstrapRequest{
		CompanyID:   req.CompanyID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrBootstrapUnauthorized) {
			authsdk.NewAPIError(http.StatusUnauthorized, "unauthorized", "Invalid bootstrap token").WriteError(w)
			return
		}
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse{
		AdminUserID: admin.ID,
		CompanyID:   admin.CompanyID,
	})
}
