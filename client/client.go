package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bytebase-demo/github-login/providers"
)

// Status is the facade's login state
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusAuthenticated
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Navigator issues the full-page redirect to GitHub. The browser embedder
// implements it with a location change; tests record the URL. A cancelled
// context aborts the navigation.
type Navigator interface {
	Navigate(ctx context.Context, rawURL string) error
}

// NavigatorFunc adapts a function to the Navigator interface
type NavigatorFunc func(ctx context.Context, rawURL string) error

func (f NavigatorFunc) Navigate(ctx context.Context, rawURL string) error {
	return f(ctx, rawURL)
}

// Config holds the facade's dependencies
type Config struct {
	// OAuth is the public OAuth application configuration
	OAuth OAuthConfig

	// API is the backend API client (required)
	API *API

	// Durable persists the session token and profile across page loads
	// (localStorage in the browser). Required.
	Durable KV

	// Ephemeral holds the pending CSRF state for one login attempt
	// (sessionStorage in the browser). Required.
	Ephemeral KV

	// Navigator performs the redirect to GitHub (required)
	Navigator Navigator

	// Logger for structured logging (optional)
	Logger *slog.Logger
}

// Client is the login facade the UI layer drives. It moves between
// StatusIdle, StatusLoading, StatusAuthenticated, and StatusError; a login
// that redirects to GitHub completes on the next page load via Initialize.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	status  Status
	profile *providers.Profile
	token   string
	errMsg  string
}

// New creates a login facade
func New(cfg Config) (*Client, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if cfg.Durable == nil || cfg.Ephemeral == nil {
		return nil, fmt.Errorf("durable and ephemeral storage are required")
	}
	if cfg.Navigator == nil {
		return nil, fmt.Errorf("navigator is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		status: StatusIdle,
	}, nil
}

// Initialize resumes the login flow from the page's initial URL. The
// decision is a pure function of the URL's query parameters:
//
//   - "error" present: enter StatusError with the provider's error.
//   - "code" present: validate the CSRF state, then exchange the code with
//     the backend and persist the session. A state mismatch aborts before
//     any network call.
//   - neither: restore a previously persisted session if one exists.
func (c *Client) Initialize(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("parsing page url: %w", err)
	}
	query := u.Query()

	if provErr := query.Get("error"); provErr != "" {
		c.setError("GitHub authorization failed: " + provErr)
		return nil
	}

	if code := query.Get("code"); code != "" {
		return c.completeCallback(ctx, code, query.Get("state"))
	}

	c.restorePersisted()
	return nil
}

// completeCallback finishes a login attempt that came back from GitHub
func (c *Client) completeCallback(ctx context.Context, code, state string) error {
	c.setStatus(StatusLoading)

	if !ValidateState(c.cfg.Ephemeral, state) {
		c.logger.Warn("state validation failed, aborting login")
		c.setError("Invalid state parameter - possible CSRF attack")
		return nil
	}

	result, err := c.cfg.API.ExchangeCode(ctx, code, state)
	if err != nil {
		c.logger.Error("code exchange failed", "error", err)
		c.setError("Login failed: " + err.Error())
		return nil
	}

	if err := c.persistSession(result.AccessToken, result.User); err != nil {
		c.setError("Login failed: " + err.Error())
		return nil
	}

	c.mu.Lock()
	c.status = StatusAuthenticated
	c.profile = result.User
	c.token = result.AccessToken
	c.errMsg = ""
	c.mu.Unlock()

	c.logger.Info("login completed", "login", result.User.Login, "provider", result.User.Provider)
	return nil
}

// restorePersisted loads a previously persisted session, if any. No
// freshness check is made against the backend.
func (c *Client) restorePersisted() {
	raw, ok := c.cfg.Durable.Get(KeyUserInfo)
	if !ok {
		c.setStatus(StatusIdle)
		return
	}

	var profile providers.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		c.logger.Warn("discarding unreadable persisted profile", "error", err)
		c.cfg.Durable.Delete(KeyUserInfo)
		c.cfg.Durable.Delete(KeySessionToken)
		c.setStatus(StatusIdle)
		return
	}

	token, _ := c.cfg.Durable.Get(KeySessionToken)

	c.mu.Lock()
	c.status = StatusAuthenticated
	c.profile = &profile
	c.token = token
	c.mu.Unlock()
}

// LoginWithGitHub starts the OAuth flow: it mints a state token, builds the
// authorize URL, and navigates there. The function returns once the
// navigation is issued; the flow completes on the next page load.
func (c *Client) LoginWithGitHub(ctx context.Context) error {
	c.setStatus(StatusLoading)

	state := GenerateState(c.cfg.Ephemeral)
	authorizeURL := BuildAuthorizeURL(c.cfg.OAuth, state)

	if err := c.cfg.Navigator.Navigate(ctx, authorizeURL); err != nil {
		c.setError("Failed to start GitHub login: " + err.Error())
		return err
	}
	return nil
}

// LoginWithEmail synthesizes a local-only profile from an email address.
// No provider or backend call is made; the profile persists identically to
// the GitHub path.
func (c *Client) LoginWithEmail(_ context.Context, email string) error {
	local, _, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		err := fmt.Errorf("invalid email address")
		c.setError("Email login failed: " + err.Error())
		return err
	}

	c.setStatus(StatusLoading)

	profile := &providers.Profile{
		ID:        "email_user_" + uuid.NewString(),
		Login:     local,
		Name:      local,
		Email:     email,
		AvatarURL: "https://ui-avatars.com/api/?name=" + url.QueryEscape(local) + "&background=6366f1&color=fff",
		Provider:  "email",
	}

	if err := c.persistSession("", profile); err != nil {
		c.setError("Email login failed: " + err.Error())
		return err
	}

	c.mu.Lock()
	c.status = StatusAuthenticated
	c.profile = profile
	c.token = ""
	c.errMsg = ""
	c.mu.Unlock()

	c.logger.Info("email login completed", "login", local)
	return nil
}

// Logout clears the session. The backend call is best effort; local state
// is cleared even when it fails.
func (c *Client) Logout(ctx context.Context) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != "" {
		if err := c.cfg.API.Logout(ctx, token); err != nil {
			c.logger.Warn("backend logout failed, clearing local state anyway", "error", err)
		}
	}

	c.cfg.Durable.Delete(KeySessionToken)
	c.cfg.Durable.Delete(KeyUserInfo)
	c.cfg.Ephemeral.Delete(KeyOAuthState)

	c.mu.Lock()
	c.status = StatusIdle
	c.profile = nil
	c.token = ""
	c.errMsg = ""
	c.mu.Unlock()
}

// CheckAPIHealth probes the backend, with the API client's health timeout
// enforced.
func (c *Client) CheckAPIHealth(ctx context.Context) bool {
	return c.cfg.API.CheckHealth(ctx)
}

// Status returns the current login state
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// CurrentUser returns the authenticated profile, or nil
func (c *Client) CurrentUser() *providers.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// SessionToken returns the backend session token, empty for email logins
func (c *Client) SessionToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Err returns the current error message, empty unless in StatusError
func (c *Client) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// IsAuthenticated reports whether a profile is loaded
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile != nil
}

// IsGitHubUser reports whether the profile came from GitHub rather than the
// local email path.
func (c *Client) IsGitHubUser() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile != nil && c.profile.Provider != "email"
}

// ClearError dismisses the error banner and returns to StatusIdle
func (c *Client) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusError {
		c.status = StatusIdle
		c.errMsg = ""
	}
}

func (c *Client) persistSession(token string, profile *providers.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	c.cfg.Durable.Set(KeyUserInfo, string(raw))
	if token != "" {
		c.cfg.Durable.Set(KeySessionToken, token)
	}
	return nil
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
	if s != StatusError {
		c.errMsg = ""
	}
}

func (c *Client) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusError
	c.errMsg = msg
}
