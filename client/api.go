package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	login "github.com/bytebase-demo/github-login"
	"github.com/bytebase-demo/github-login/providers"
)

// Timeouts for backend calls. The health probe gets a tighter bound so a
// down backend is detected quickly.
const (
	defaultRequestTimeout     = 30 * time.Second
	defaultHealthCheckTimeout = 5 * time.Second
)

// API is a client for the login backend's HTTP surface
type API struct {
	baseURL            string
	httpClient         *http.Client
	requestTimeout     time.Duration
	healthCheckTimeout time.Duration
	logger             *slog.Logger
}

// APIOption customizes the API client
type APIOption func(*API)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) APIOption {
	return func(a *API) { a.httpClient = c }
}

// WithRequestTimeout bounds callback/user/logout calls
func WithRequestTimeout(d time.Duration) APIOption {
	return func(a *API) { a.requestTimeout = d }
}

// WithHealthCheckTimeout bounds the health probe
func WithHealthCheckTimeout(d time.Duration) APIOption {
	return func(a *API) { a.healthCheckTimeout = d }
}

// NewAPI creates a backend API client for the given base URL
func NewAPI(baseURL string, logger *slog.Logger, opts ...APIOption) *API {
	if logger == nil {
		logger = slog.Default()
	}

	a := &API{
		baseURL:            strings.TrimRight(baseURL, "/"),
		httpClient:         &http.Client{},
		requestTimeout:     defaultRequestTimeout,
		healthCheckTimeout: defaultHealthCheckTimeout,
		logger:             logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ExchangeCode posts the authorization code and state to the backend and
// returns the session token plus the authenticated profile.
func (a *API) ExchangeCode(ctx context.Context, code, state string) (*login.CallbackResponse, error) {
	ctx, cancel := a.ensureTimeout(ctx, a.requestTimeout)
	defer cancel()

	body, err := json.Marshal(&login.CallbackRequest{Code: code, State: state})
	if err != nil {
		return nil, fmt.Errorf("encoding callback request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/api/auth/github/callback", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling callback endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, a.decodeError(resp)
	}

	var result login.CallbackResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding callback response: %w", err)
	}
	if !result.Success || result.AccessToken == "" {
		return nil, fmt.Errorf("callback did not produce a session token")
	}

	return &result, nil
}

// CurrentUser fetches the profile for a session token
func (a *API) CurrentUser(ctx context.Context, sessionToken string) (*providers.Profile, error) {
	ctx, cancel := a.ensureTimeout(ctx, a.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/auth/user", nil)
	if err != nil {
		return nil, fmt.Errorf("building user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling user endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, a.decodeError(resp)
	}

	var result login.UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding user response: %w", err)
	}
	return result.User, nil
}

// Logout tells the backend to delete the session. The backend treats
// unknown tokens as a no-op, so any 200 is success.
func (a *API) Logout(ctx context.Context, sessionToken string) error {
	ctx, cancel := a.ensureTimeout(ctx, a.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("building logout request: %w", err)
	}
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling logout endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return a.decodeError(resp)
	}
	return nil
}

// CheckHealth probes the backend health endpoint. The timeout is enforced
// through the request context. Returns false on any failure.
func (a *API) CheckHealth(ctx context.Context) bool {
	ctx, cancel := a.ensureTimeout(ctx, a.healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Warn("backend health check failed", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// ensureTimeout applies a deadline when the caller's context has none
func (a *API) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// decodeError turns a non-200 response into an error carrying the backend's
// message when one was sent.
func (a *API) decodeError(resp *http.Response) error {
	var apiErr login.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("backend returned %d", resp.StatusCode)
}
