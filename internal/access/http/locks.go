package http

import (
	"net/http"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
)

// LocksHandler serves the administrator side of the lockout state machine.
type LocksHandler struct {
	Lockout *service.LockoutService
}

// HandleGet handles GET /v1/locks?email=
//
//	@Summary		Inspect an account lock
//	@Description	Returns the latest lock of the account with its current state and recent login attempts.
//	@Tags			Locks
//	@Security		BearerAuth
//	@Produce		json
//	@Param			email	query		string						true	"Account email"
//	@Success		200		{object}	authsdk.AccountLockResponse	"Latest lock"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Administrator role required"
//	@Failure		404		{object}	authsdk.ErrorResponse		"Unknown user or never locked"
//	@Router			/v1/locks [get].
func (h *LocksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		authsdk.ErrInvalidRequest.WithDescription("email query parameter is required").WriteError(w)
		return
	}

	view, err := h.Lockout.GetAccountLock(r.Context(), p, email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := lockResponse(view.Lock, view.State.Locked())
	for _, a := range view.RecentAttempts {
		resp.RecentAttempts = append(resp.RecentAttempts, authsdk.LoginAttemptResponse{
			Kind:        string(a.Kind),
			Success:     a.Success,
			IPAddress:   a.IPAddress,
			UserAgent:   a.UserAgent,
			AttemptedAt: a.AttemptedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleLock handles POST /v1/locks/{userID}
//
//	@Summary		Lock an account
//	@Description	Locks the account until the given time, or until an administrator unlocks it when no time is given.
//	@Tags			Locks
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		string						true	"User ID"
//	@Param			request	body		authsdk.LockAccountRequest	false	"Lock options"
//	@Success		201		{object}	authsdk.AccountLockResponse	"The new lock"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Invalid request"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Administrator role required"
//	@Failure		404		{object}	authsdk.ErrorResponse		"Unknown user"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Account already locked"
//	@Router			/v1/locks/{userID} [post].
func (h *LocksHandler) HandleLock(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.LockAccountRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	lock, err := h.Lockout.LockAccount(r.Context(), p, r.PathValue("userID"), req.Until, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, lockResponse(lock, true))
}

// HandleUnlock handles POST /v1/locks/{userID}/unlock
//
//	@Summary		Unlock an account
//	@Description	Seals the open lock of the account. Unlocking an account that is not locked is a no-op.
//	@Tags			Locks
//	@Security		BearerAuth
//	@Param			userID	path	string	true	"User ID"
//	@Success		204		"Unlocked"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Administrator role required"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Unknown user"
//	@Router			/v1/locks/{userID}/unlock [post].
func (h *LocksHandler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.Lockout.Unlock(r.Context(), p, r.PathValue("userID")); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

func lockResponse(l domain.AccountLock, locked bool) authsdk.AccountLockResponse {
	return authsdk.AccountLockResponse{
		UserID:         l.UserID,
		Email:          l.Email,
		Locked:         locked,
		LockedAt:       l.LockedAt,
		LockedUntil:    l.LockedUntil,
		Reason:         l.Reason,
		UnlockedAt:     l.UnlockedAt,
		UnlockedBy:     l.UnlockedBy,
		RecentAttempts: []authsdk.LoginAttemptResponse{},
	}
}
