// Package providers defines the interface for login identity providers and
// implements the GitHub OAuth provider plus a synthetic demo provider used
// when no live credentials are available.
package providers

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Provider is the interface the login server authenticates through.
// Two implementations exist: the live GitHub provider and the demo provider.
// Which one handles a login is a configuration decision, not an exception
// path, so tests can force either deterministically.
type Provider interface {
	// Name returns the provider name (e.g. "github", "demo")
	Name() string

	// AuthorizationURL builds the URL users are redirected to for consent.
	// state is the caller's anti-CSRF token and is echoed back on callback.
	AuthorizationURL(state string) string

	// ExchangeCode exchanges an authorization code for an access token
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchProfile retrieves the user profile for an access token
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)

	// HealthCheck verifies the provider is reachable.
	// Returns nil if healthy, or an error describing the problem.
	HealthCheck(ctx context.Context) error
}

// Profile is the immutable user snapshot taken at login time.
// Field names follow the GitHub user payload so the JSON shape matches what
// the frontend persists.
type Profile struct {
	// ID is the provider's user identifier
	ID string `json:"id"`

	// Login is the user's handle
	Login string `json:"login"`

	// Name is the display name
	Name string `json:"name"`

	// Email is the primary email when one exists, the public profile
	// email otherwise
	Email string `json:"email"`

	// AvatarURL is the profile picture URL
	AvatarURL string `json:"avatar_url"`

	// HTMLURL is the public profile page URL
	HTMLURL string `json:"html_url"`

	// Bio is the free-form profile description
	Bio string `json:"bio"`

	PublicRepos int `json:"public_repos"`
	Followers   int `json:"followers"`
	Following   int `json:"following"`

	// CreatedAt is when the account was created at the provider
	CreatedAt time.Time `json:"created_at"`

	// Provider tags where the identity came from: "github" or "email"
	Provider string `json:"provider"`
}
