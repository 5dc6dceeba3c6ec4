package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// userAgent identifies SDK traffic in the access service request log.
const userAgent = "tenantgate-authsdk"

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// send stamps the SDK user agent on req and runs it through the client.
func (c *SDKClient) send(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("access service %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// doRequest calls one of the public routes: login, bootstrap and the health
// probes.
func (c *SDKClient) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return c.send(req)
}

// doAuthRequest calls a route behind the session's bearer token. A non-nil
// payload is sent as JSON. Routes past the second factor answer
// ErrTwoFactorRequired until the session has been verified.
func (s *Session) doAuthRequest(
	ctx context.Context,
	method, path string,
	payload any,
) (*http.Response, error) {
	token, err := s.getValidToken()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.client.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.client.send(req)
}

// expectStatus drains and closes the body. Any status other than want is
// turned into an *APIError, or a plain error when the body is not one.
func expectStatus(resp *http.Response, want int) ([]byte, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode == want {
		return raw, nil
	}
	if err := parseErrorResponse(resp, raw); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
}

func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	raw, err := expectStatus(resp, expectedStatus)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkStatusNoContent is for the routes that answer 204: enable and disable
// two-factor, and unlock.
func checkStatusNoContent(resp *http.Response) error {
	_, err := expectStatus(resp, http.StatusNoContent)
	return err
}
