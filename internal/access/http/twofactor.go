package http

import (
	"net/http"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
)

// TwoFactorHandler handles enrollment, verification and recovery codes.
type TwoFactorHandler struct {
	TwoFactor *service.TwoFactorService
}

// HandleSecret handles POST /v1/2fa/secret
//
//	@Summary		Generate a TOTP secret
//	@Description	Returns a candidate secret and its otpauth URL. Nothing is stored until the secret is enabled.
//	@Tags			Two-Factor
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TwoFactorSecretResponse	"Candidate secret"
//	@Failure		401	{object}	authsdk.ErrorResponse			"Invalid or missing access token"
//	@Router			/v1/2fa/secret [post].
func (h *TwoFactorHandler) HandleSecret(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	e, err := h.TwoFactor.GenerateSecret(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.TwoFactorSecretResponse{
		Secret:     e.Secret,
		OTPAuthURL: e.URL,
		Issuer:     e.Issuer,
		Account:    e.Account,
	})
}

// HandleEnable handles POST /v1/2fa/enable
//
//	@Summary		Enable two-factor
//	@Description	Stores the secret once the code proves the authenticator holds it.
//	@Tags			Two-Factor
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.EnableTwoFactorRequest	true	"Secret and confirmation code"
//	@Success		204		"Enabled"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid confirmation code"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Router			/v1/2fa/enable [post].
func (h *TwoFactorHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.EnableTwoFactorRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	if err := h.TwoFactor.Enable(r.Context(), p, req.Secret, req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDisable handles DELETE /v1/2fa/{userID}
//
//	@Summary		Disable two-factor
//	@Description	Removes the credential and recovery codes. Use "me" for the caller, administrators may name any user of their company.
//	@Tags			Two-Factor
//	@Security		BearerAuth
//	@Param			userID	path	string	true	"User ID or me"
//	@Success		204		"Disabled"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Administrator role required"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Unknown user"
//	@Router			/v1/2fa/{userID} [delete].
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	userID := r.PathValue("userID")
	if userID == "me" {
		userID = p.UserID
	}

	if err := h.TwoFactor.Disable(r.Context(), p, userID); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerify handles POST /v1/2fa/verify
//
//	@Summary		Verify the session
//	@Description	Checks a TOTP or recovery code for the session of the bearer token.
//	@Description	A failed check answers 200 with verified=false and a reason of invalid_code or two_factor_locked.
//	@Tags			Two-Factor
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyTwoFactorRequest	true	"Code"
//	@Success		200		{object}	authsdk.VerifyTwoFactorResponse	"Outcome"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Invalid request"
//	@Failure		401		{object}	authsdk.ErrorResponse			"Invalid or missing access token"
//	@Router			/v1/2fa/verify [post].
func (h *TwoFactorHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.VerifyTwoFactorRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}

	res, err := h.TwoFactor.Verify(r.Context(), service.VerifyRequest{
		Email:          p.Email,
		SessionID:      p.SessionID,
		Code:           req.Code,
		IsRecoveryCode: req.IsRecoveryCode,
		IPAddress:      httpx.IPKeyExtractor(r),
		UserAgent:      r.UserAgent(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := authsdk.VerifyTwoFactorResponse{Verified: res.Verified, Reason: res.Reason}
	if res.Verified {
		resp.ExpiresAt = &res.ExpiresAt
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleStatus handles GET /v1/2fa
//
//	@Summary		Two-factor status
//	@Description	Reports whether two-factor is enabled, how many recovery codes are left and whether this session is verified.
//	@Tags			Two-Factor
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TwoFactorStatusResponse	"Status"
//	@Failure		401	{object}	authsdk.ErrorResponse			"Invalid or missing access token"
//	@Router			/v1/2fa [get].
func (h *TwoFactorHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principalFrom(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	st, err := h.TwoFactor.Status(ctx, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	vs, err := h.TwoFactor.VerificationState(ctx, p.UserID, p.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TwoFactorStatusResponse{
		Enabled:                st.Enabled,
		EnabledAt:              st.EnabledAt,
		RecoveryCodesRemaining: st.RecoveryCodesRemaining,
		SessionVerified:        vs.Status == domain.Verified,
	})
}

// HandleRecoveryCodes handles POST /v1/2fa/recovery-codes
//
//	@Summary		Regenerate recovery codes
//	@Description	Replaces every recovery code of the caller. The plaintext codes are only returned here.
//	@Tags			Two-Factor
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RecoveryCodesRequest	false	"Batch size"
//	@Success		200		{object}	authsdk.RecoveryCodesResponse	"New codes"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Two-factor not enabled"
//	@Failure		403		{object}	authsdk.ErrorResponse			"Session not verified"
//	@Router			/v1/2fa/recovery-codes [post].
func (h *TwoFactorHandler) HandleRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.RecoveryCodesRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	codes, err := h.TwoFactor.GenerateRecoveryCodes(r.Context(), p, req.Count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.RecoveryCodesResponse{Codes: codes})
}
