package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/broadcast"
	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/service"
	"github.com/aussiebroadwan/tenantgate/pkg/authsdk"
	"github.com/aussiebroadwan/tenantgate/pkg/httpx"
	"github.com/aussiebroadwan/tenantgate/pkg/slogx"
)

const defaultHeartbeat = 25 * time.Second

// SessionsHandler terminates sessions and streams termination signals to
// live clients.
type SessionsHandler struct {
	Terminator  *service.TerminationService
	Broadcaster broadcast.Broadcaster

	// Heartbeat is the interval of SSE keepalive comments.
	Heartbeat time.Duration
}

// HandleTerminate handles POST /v1/sessions/{userID}/terminate
//
//	@Summary		Terminate a user's sessions
//	@Description	Revokes every session of the user, clears their two-factor verifications and tells connected clients.
//	@Description	The sessions are revoked even when delivered is false.
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		string						true	"User ID"
//	@Param			request	body		authsdk.TerminateRequest	false	"Reason"
//	@Success		200		{object}	authsdk.TerminateResponse	"What was revoked"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Administrator role required or own session"
//	@Failure		404		{object}	authsdk.ErrorResponse		"Unknown user"
//	@Router			/v1/sessions/{userID}/terminate [post].
func (h *SessionsHandler) HandleTerminate(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.TerminateRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}

	res, err := h.Terminator.Terminate(r.Context(), p, r.PathValue("userID"), req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.TerminateResponse{
		UserID:               res.UserID,
		SessionsRevoked:      res.SessionsRevoked,
		VerificationsCleared: res.VerificationsCleared,
		Delivered:            res.Delivered,
	})
}

// HandleEvents handles GET /v1/sessions/events
//
//	@Summary		Session event stream
//	@Description	Server-sent events for the caller. A session_terminated event is sent once when an administrator ends the caller's sessions, then the stream closes.
//	@Description	Comment lines are keepalives.
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Produce		text/event-stream
//	@Success		200	{string}	string					"text/event-stream"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		503	{object}	authsdk.ErrorResponse	"Broadcaster unavailable"
//	@Router			/v1/sessions/events [get].
func (h *SessionsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, ok := principalFrom(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	signals, err := h.Broadcaster.Subscribe(ctx, p.UserID)
	if err != nil {
		log.Error("subscribe failed", slog.Any("err", err))
		authsdk.NewAPIError(http.StatusServiceUnavailable, authsdk.ErrorCodeServiceUnavailable,
			"session events are unavailable").WriteError(w)
		return
	}

	// The stream outlives any server write timeout.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		log.Warn("event stream cannot flush", slog.Any("err", err))
		return
	}

	interval := h.Heartbeat
	if interval <= 0 {
		interval = defaultHeartbeat
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case sig, ok := <-signals:
			if !ok {
				return
			}
			if err := writeTermination(w, sig); err != nil {
				log.Warn("termination event not written", slog.Any("err", err))
				return
			}
			_ = rc.Flush()
			log.Info("termination event sent")
			return
		}
	}
}

func writeTermination(w http.ResponseWriter, sig domain.TerminationSignal) error {
	data, err := json.Marshal(authsdk.SessionEvent{
		UserID:   sig.UserID,
		IssuedAt: sig.IssuedAt,
		Reason:   sig.Reason,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", authsdk.SessionEventTerminated, data)
	return err
}
