package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
)

// LoginHandler handles POST /v1/auth/login.
type LoginHandler struct {
	Credentials *service.CredentialService
}

// ServeHTTP godoc
//
//	@Summary		Log in with email and password
//	@Description	Checks the account lock, then the password, and opens a session.
//	@Description	Unknown emails and wrong passwords get the same answer. A locked account gets 429 with Retry-After when the lock ends on its own.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest				true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse				"Access token of the new session"
//	@Failure		400		{object}	authsdk.ValidationErrorResponse	"Malformed request"
//	@Failure		401		{object}	authsdk.ErrorResponse				"Invalid email or password"
//	@Failure		429		{object}	authsdk.ErrorResponse				"Account locked"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	res, err := h.Credentials.Login(r.Context(), service.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: httpx.IPKeyExtractor(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		AccessToken:       res.Token.AccessToken,
		TokenType:         "Bearer",
		ExpiresIn:         res.Token.ExpiresIn(time.Now()),
		SessionID:         res.Token.SessionID,
		TwoFactorRequired: res.TwoFactorRequired,
	})
}

// MeHandler handles GET /v1/me.
type MeHandler struct {
	Identity *service.IdentityService
}

// ServeHTTP godoc
//
//	@Summary		Current user
//	@Description	Returns the user behind the bearer token.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse	"The caller"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	u, err := h.Identity.CurrentUser(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := userResponse(u)
	resp.SessionID = p.SessionID
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:          u.ID,
		CompanyID:   u.CompanyID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}
