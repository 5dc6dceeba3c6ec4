package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the tenant gate access service.
// It provides access to unauthenticated operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// StreamClient is used for the long lived session event stream. It must
	// not have a Timeout. Defaults to a client without one.
	StreamClient *http.Client
}

// NewSDKClient creates a new access service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		StreamClient: &http.Client{},
	}
}

// Login authenticates with email and password and returns the new session.
//
// When the account has two-factor enabled the session is returned with
// TwoFactorRequired set, and VerifyTwoFactor must be called before
// verified-only operations succeed. A locked account yields an *APIError
// with code account_locked and, for timed locks, RetryAfter set.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	var loginResp LoginResponse
	if err := decodeJSON(resp, &loginResp, http.StatusOK); err != nil {
		return nil, err
	}

	return newSession(c, &loginResp), nil
}

// NewSessionFromToken wraps an access token obtained elsewhere.
func (c *SDKClient) NewSessionFromToken(accessToken, sessionID string, expiresIn int) *Session {
	return newSession(c, &LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		SessionID:   sessionID,
	})
}
