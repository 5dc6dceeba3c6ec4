package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"golang.org/x/oauth2/clientcredentials"
)

// HTTPLicenseAuthority validates keys against a remote licensing server.
//
//	POST {BaseURL}/v1/licenses/validate  {"key": "..."}
//
// 200 carries the license, 404 means the key is unknown. Anything else, or
// no answer at all, is an upstream failure.
type HTTPLicenseAuthority struct {
	BaseURL string
	Client  *http.Client
}

// AuthorityConfig configures NewHTTPLicenseAuthority. When ClientID is set
// requests carry a bearer token from the client credentials grant.
type AuthorityConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
}

func NewHTTPLicenseAuthority(ctx context.Context, cfg AuthorityConfig) *HTTPLicenseAuthority {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	if cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		client = cc.Client(ctx)
		client.Timeout = timeout
	}

	return &HTTPLicenseAuthority{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Client:  client,
	}
}

// authorityLicense is the wire form of a license.
type authorityLicense struct {
	Key        string    `json:"key"`
	Type       string    `json:"type"`
	MaxUsers   int       `json:"max_users"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
	IsActive   bool      `json:"is_active"`
	Features   []string  `json:"features"`
}

func (a *HTTPLicenseAuthority) Lookup(ctx context.Context, key string) (*domain.License, error) {
	body, err := json.Marshal(map[string]string{"key": key})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v1/licenses/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: license authority: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: license authority returned %d", ErrUpstream, resp.StatusCode)
	}

	var out authorityLicense
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode license: %w", ErrUpstream, err)
	}
	if out.ValidUntil.Before(out.ValidFrom) {
		return nil, fmt.Errorf("%w: license authority sent an inverted validity window", ErrUpstream)
	}

	if out.Key == "" {
		out.Key = key
	}
	return &domain.License{
		Key:        out.Key,
		Type:       out.Type,
		MaxUsers:   out.MaxUsers,
		ValidFrom:  out.ValidFrom.UTC(),
		ValidUntil: out.ValidUntil.UTC(),
		IsActive:   out.IsActive,
		Features:   out.Features,
	}, nil
}
