package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"github.com/bytebase-demo/github-login/providers"
)

// Compile-time check that Provider implements the providers.Provider interface.
var _ providers.Provider = (*Provider)(nil)

// providerName is the name returned by Provider.Name() and stamped into
// every Profile this provider produces.
const providerName = "github"

// defaultAPIBaseURL is the GitHub REST API base. Overridable for tests.
const defaultAPIBaseURL = "https://api.github.com"

// defaultScope is the scope string requested when none is configured.
// user:email grants access to /user/emails, read:user to /user.
const defaultScope = "user:email read:user"

// Provider implements the providers.Provider interface for GitHub OAuth.
type Provider struct {
	*oauth2.Config
	httpClient     *http.Client
	requestTimeout time.Duration
	apiBaseURL     string
}

// Config holds GitHub OAuth configuration.
type Config struct {
	// ClientID is the GitHub OAuth App client ID.
	ClientID string

	// ClientSecret is the GitHub OAuth App client secret.
	ClientSecret string

	// RedirectURL is the OAuth callback URL the browser returns to.
	RedirectURL string

	// Scope is an optional space-separated scope string
	// (defaults to "user:email read:user").
	Scope string

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client

	// RequestTimeout is the timeout for GitHub API calls (default: 30s).
	// Unlike the usual fire-and-forget health probes, this deadline is
	// actually enforced on every outbound call via the request context
	// and the HTTP client timeout.
	RequestTimeout time.Duration

	// APIBaseURL overrides the GitHub API base URL. Intended for tests.
	APIBaseURL string
}

// NewProvider creates a new GitHub OAuth provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client secret is required")
	}

	scope := cfg.Scope
	if scope == "" {
		scope = defaultScope
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: requestTimeout,
		}
	}

	apiBaseURL := cfg.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	return &Provider{
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{scope},
			Endpoint:     oauthgithub.Endpoint,
		},
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
		apiBaseURL:     apiBaseURL,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// AuthorizationURL generates the GitHub OAuth authorization URL.
// allow_signup lets users without a GitHub account create one mid-flow.
func (p *Provider) AuthorizationURL(state string) string {
	return p.AuthCodeURL(state, oauth2.SetAuthURLParam("allow_signup", "true"))
}

// ensureContextTimeout ensures the context has a deadline, adding one if needed.
// Returns a new context with timeout and a cancel function that should be deferred.
// If the context already has a deadline, returns the original context with a no-op cancel.
func (p *Provider) ensureContextTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.requestTimeout)
}

// ExchangeCode exchanges an authorization code for an access token.
// GitHub OAuth Apps issue non-expiring tokens without a refresh token.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := p.ensureContextTimeout(ctx)
	defer cancel()

	// Use our timed HTTP client for the token endpoint call
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	return token, nil
}

// FetchProfile retrieves the user profile for an access token.
// It combines /user with /user/emails: the email flagged primary wins,
// the public profile email is the fallback.
func (p *Provider) FetchProfile(ctx context.Context, accessToken string) (*providers.Profile, error) {
	ctx, cancel := p.ensureContextTimeout(ctx)
	defer cancel()

	profile, err := p.fetchUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	// Email selection is best-effort: a failed /user/emails call leaves
	// the public profile email in place rather than failing the login.
	if email, err := p.fetchPrimaryEmail(ctx, accessToken); err == nil && email != "" {
		profile.Email = email
	}

	return profile, nil
}

// fetchUser fetches the user record from GitHub's /user endpoint.
func (p *Provider) fetchUser(ctx context.Context, accessToken string) (*providers.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user request failed with status %d", resp.StatusCode)
	}

	var ghUser struct {
		ID          int64     `json:"id"`
		Login       string    `json:"login"`
		Name        string    `json:"name"`
		Email       string    `json:"email"`
		AvatarURL   string    `json:"avatar_url"`
		HTMLURL     string    `json:"html_url"`
		Bio         string    `json:"bio"`
		PublicRepos int       `json:"public_repos"`
		Followers   int       `json:"followers"`
		Following   int       `json:"following"`
		CreatedAt   time.Time `json:"created_at"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	return &providers.Profile{
		ID:          strconv.FormatInt(ghUser.ID, 10),
		Login:       ghUser.Login,
		Name:        ghUser.Name,
		Email:       ghUser.Email,
		AvatarURL:   ghUser.AvatarURL,
		HTMLURL:     ghUser.HTMLURL,
		Bio:         ghUser.Bio,
		PublicRepos: ghUser.PublicRepos,
		Followers:   ghUser.Followers,
		Following:   ghUser.Following,
		CreatedAt:   ghUser.CreatedAt,
		Provider:    providerName,
	}, nil
}

// fetchPrimaryEmail fetches the user's primary email from /user/emails.
// Returns an empty string when no entry is flagged primary.
func (p *Provider) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.apiBaseURL+"/user/emails", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("emails request failed with status %d", resp.StatusCode)
	}

	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("failed to decode emails: %w", err)
	}

	for _, email := range emails {
		if email.Primary {
			return email.Email, nil
		}
	}

	return "", nil
}

// HealthCheck verifies that the GitHub API is reachable.
// It calls the rate limit endpoint, which answers 200 without auth,
// under the provider's request timeout.
func (p *Provider) HealthCheck(ctx context.Context) error {
	ctx, cancel := p.ensureContextTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", p.apiBaseURL+"/rate_limit", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github api unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github health check failed with status %d", resp.StatusCode)
	}

	return nil
}
