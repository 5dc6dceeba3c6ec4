package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Admin operations - every call here requires the admin role.

// ============================================================================
// Account Locks
// ============================================================================

// GetAccountLock returns the most recent lock of the account with email.
func (s *Session) GetAccountLock(ctx context.Context, email string) (*AccountLockResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/locks?email="+url.QueryEscape(email), nil)
	if err != nil {
		return nil, err
	}

	var lock AccountLockResponse
	if err := decodeJSON(resp, &lock, http.StatusOK); err != nil {
		return nil, err
	}

	return &lock, nil
}

// LockAccount locks userID until req.Until, or indefinitely when it is nil.
func (s *Session) LockAccount(ctx context.Context, userID string, req LockAccountRequest) (*AccountLockResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/locks/"+url.PathEscape(userID), req)
	if err != nil {
		return nil, err
	}

	var lock AccountLockResponse
	if err := decodeJSON(resp, &lock, http.StatusCreated); err != nil {
		return nil, err
	}

	return &lock, nil
}

// UnlockAccount lifts the open lock of userID. Unlocking an account that is
// not locked succeeds.
func (s *Session) UnlockAccount(ctx context.Context, userID string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/locks/"+url.PathEscape(userID)+"/unlock", nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ============================================================================
// Session Termination
// ============================================================================

// TerminateSessions revokes every session of userID and tells its live
// clients. Terminating your own sessions is refused.
func (s *Session) TerminateSessions(ctx context.Context, userID, reason string) (*TerminateResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(userID)+"/terminate", TerminateRequest{
		Reason: reason,
	})
	if err != nil {
		return nil, err
	}

	var out TerminateResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}
