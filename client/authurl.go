package client

import "net/url"

// defaultAuthorizeEndpoint is GitHub's OAuth authorize endpoint
const defaultAuthorizeEndpoint = "https://github.com/login/oauth/authorize"

// defaultScope requests profile and email access
const defaultScope = "user:email read:user"

// OAuthConfig holds the public half of the OAuth application configuration.
// The client secret never reaches the browser side; it lives in the backend.
type OAuthConfig struct {
	// ClientID is the GitHub OAuth application client ID (required)
	ClientID string

	// RedirectURI is where GitHub sends the user back (required)
	RedirectURI string

	// Scope is the space-separated scope list
	// Default: "user:email read:user"
	Scope string

	// AuthorizeEndpoint overrides the authorize endpoint, for tests
	AuthorizeEndpoint string
}

// BuildAuthorizeURL constructs the GitHub authorize URL for one login
// attempt. The state token must come from GenerateState so the callback can
// be correlated to this attempt.
func BuildAuthorizeURL(cfg OAuthConfig, state string) string {
	endpoint := cfg.AuthorizeEndpoint
	if endpoint == "" {
		endpoint = defaultAuthorizeEndpoint
	}
	scope := cfg.Scope
	if scope == "" {
		scope = defaultScope
	}

	params := url.Values{}
	params.Set("client_id", cfg.ClientID)
	params.Set("redirect_uri", cfg.RedirectURI)
	params.Set("scope", scope)
	params.Set("state", state)
	params.Set("allow_signup", "true")

	return endpoint + "?" + params.Encode()
}
