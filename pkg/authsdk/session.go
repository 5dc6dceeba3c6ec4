package authsdk

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionEnded is returned by Session methods once the session expired or
// the server terminated it.
var ErrSessionEnded = errors.New("authsdk: session has ended")

// Session represents an authenticated session. There is no refresh: when the
// access token expires the user logs in again.
type Session struct {
	client *SDKClient

	mu                sync.RWMutex
	accessToken       string
	sessionID         string
	expiresAt         time.Time
	twoFactorRequired bool
	ended             bool
}

// newSession creates a new authenticated session from a login response.
func newSession(client *SDKClient, resp *LoginResponse) *Session {
	return &Session{
		client:            client,
		accessToken:       resp.AccessToken,
		sessionID:         resp.SessionID,
		expiresAt:         time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
		twoFactorRequired: resp.TwoFactorRequired,
	}
}

// getValidToken returns the access token unless the session has ended.
func (s *Session) getValidToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ended || !time.Now().Before(s.expiresAt) {
		return "", ErrSessionEnded
	}
	return s.accessToken, nil
}

// End forgets the access token locally. Every later call fails with
// ErrSessionEnded.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	s.accessToken = ""
}

// Ended reports whether End was called or the token expired.
func (s *Session) Ended() bool {
	_, err := s.getValidToken()
	return err != nil
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// SessionID returns the server side session id.
func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// TwoFactorRequired reports whether the session still has to verify.
func (s *Session) TwoFactorRequired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.twoFactorRequired
}

func (s *Session) setTwoFactorRequired(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.twoFactorRequired = v
}
