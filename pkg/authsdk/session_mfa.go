package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ============================================================================
// Two-Factor Enrollment
// ============================================================================

// GenerateTwoFactorSecret returns a candidate TOTP secret. Nothing changes
// on the server until EnableTwoFactor confirms it.
func (s *Session) GenerateTwoFactorSecret(ctx context.Context) (*TwoFactorSecretResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/2fa/secret", nil)
	if err != nil {
		return nil, err
	}

	var secret TwoFactorSecretResponse
	if err := decodeJSON(resp, &secret, http.StatusOK); err != nil {
		return nil, err
	}

	return &secret, nil
}

// EnableTwoFactor stores secret once code proves the authenticator has it.
func (s *Session) EnableTwoFactor(ctx context.Context, secret, code string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/2fa/enable", EnableTwoFactorRequest{
		Secret: secret,
		Code:   code,
	})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// DisableTwoFactor removes two-factor from userID. An empty userID means the
// caller. Administrators may disable it for anyone in their company.
func (s *Session) DisableTwoFactor(ctx context.Context, userID string) error {
	path := "/v1/2fa/me"
	if userID != "" {
		path = "/v1/2fa/" + url.PathEscape(userID)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// TwoFactorStatus reports the caller's two-factor setup.
func (s *Session) TwoFactorStatus(ctx context.Context) (*TwoFactorStatusResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/2fa", nil)
	if err != nil {
		return nil, err
	}

	var status TwoFactorStatusResponse
	if err := decodeJSON(resp, &status, http.StatusOK); err != nil {
		return nil, err
	}

	return &status, nil
}

// ============================================================================
// Session Verification
// ============================================================================

// VerifyTwoFactor verifies this session with a TOTP or recovery code. A wrong
// code is not an error: the response says why it failed.
func (s *Session) VerifyTwoFactor(ctx context.Context, code string, isRecoveryCode bool) (*VerifyTwoFactorResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/2fa/verify", VerifyTwoFactorRequest{
		Code:           code,
		IsRecoveryCode: isRecoveryCode,
	})
	if err != nil {
		return nil, err
	}

	var out VerifyTwoFactorResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	if out.Verified {
		s.setTwoFactorRequired(false)
	}
	return &out, nil
}

// GenerateRecoveryCodes replaces the caller's recovery codes. The returned
// codes are shown once.
// Requires: a verified session.
func (s *Session) GenerateRecoveryCodes(ctx context.Context, count int) ([]string, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/2fa/recovery-codes", RecoveryCodesRequest{Count: count})
	if err != nil {
		return nil, err
	}

	var out RecoveryCodesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return out.Codes, nil
}
