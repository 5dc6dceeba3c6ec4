package authsdk

import (
	"context"
	"net/http"
)

// License returns the license of the caller's company.
// Requires: a verified session.
func (s *Session) License(ctx context.Context) (*LicenseResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/license", nil)
	if err != nil {
		return nil, err
	}

	var out LicenseResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}

// SeatUsage reports used and licensed seats of the caller's company.
func (s *Session) SeatUsage(ctx context.Context) (*SeatUsageResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/license/seats", nil)
	if err != nil {
		return nil, err
	}

	var out SeatUsageResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}

// ValidateLicenseKey asks the license authority about key without
// installing it.
// Requires: admin role.
func (s *Session) ValidateLicenseKey(ctx context.Context, key string) (*LicenseResponse, error) {
	return s.postLicenseKey(ctx, "/v1/license/validate", key, http.StatusOK)
}

// ActivateLicense installs key as the license of the caller's company.
// Requires: admin role.
func (s *Session) ActivateLicense(ctx context.Context, key string) (*LicenseResponse, error) {
	return s.postLicenseKey(ctx, "/v1/license/activate", key, http.StatusOK)
}

func (s *Session) postLicenseKey(ctx context.Context, path, key string, want int) (*LicenseResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, LicenseKeyRequest{Key: key})
	if err != nil {
		return nil, err
	}

	var out LicenseResponse
	if err := decodeJSON(resp, &out, want); err != nil {
		return nil, err
	}

	return &out, nil
}
