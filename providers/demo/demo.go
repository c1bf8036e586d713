// Package demo implements a synthetic login provider that fabricates a
// successful login without contacting any identity provider. It keeps the
// login page demoable when no live GitHub credentials are configured, and
// serves as the degraded path when the live provider fails.
package demo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/bytebase-demo/github-login/providers"
)

// Compile-time check that Provider implements the providers.Provider interface.
var _ providers.Provider = (*Provider)(nil)

// providerName is the name returned by Provider.Name().
// Note that fabricated profiles are still tagged "github" so the frontend
// renders them like a real GitHub login.
const providerName = "demo"

// Fixed demo identity returned by every exchange.
const (
	demoLogin     = "demo-user"
	demoName      = "Demo User"
	demoEmail     = "demo@example.com"
	demoAvatarURL = "https://avatars.githubusercontent.com/u/9919?s=200&v=4"
	demoHTMLURL   = "https://github.com/demo-user"
	demoBio       = "This is a demo user for testing purposes"
)

// Provider fabricates tokens and profiles for demo logins.
// The profile content is fixed; the user ID and token are fresh per
// exchange so repeated logins produce distinct sessions.
type Provider struct {
	mu        sync.Mutex
	exchanges int
}

// NewProvider creates a new demo provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// AuthorizationURL returns a local pseudo-authorize URL. Navigating to it is
// pointless; the demo provider accepts any non-empty code. It exists so the
// Provider interface is fully implemented and the facade can run end to end.
func (p *Provider) AuthorizationURL(state string) string {
	return "/auth/callback?code=demo&state=" + state
}

// ExchangeCode fabricates an access token. The code is accepted as-is; the
// handler layer already rejected empty codes before this point.
func (p *Provider) ExchangeCode(_ context.Context, _ string) (*oauth2.Token, error) {
	return &oauth2.Token{
		AccessToken: "demo_" + uuid.NewString(),
		TokenType:   "bearer",
	}, nil
}

// FetchProfile returns the fixed demo identity with a fresh user ID.
func (p *Provider) FetchProfile(_ context.Context, _ string) (*providers.Profile, error) {
	id := "github_user_" + uuid.NewString()

	p.mu.Lock()
	p.exchanges++
	p.mu.Unlock()

	return &providers.Profile{
		ID:          id,
		Login:       demoLogin,
		Name:        demoName,
		Email:       demoEmail,
		AvatarURL:   demoAvatarURL,
		HTMLURL:     demoHTMLURL,
		Bio:         demoBio,
		PublicRepos: 42,
		Followers:   100,
		Following:   50,
		CreatedAt:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Provider:    "github",
	}, nil
}

// HealthCheck always succeeds.
func (p *Provider) HealthCheck(_ context.Context) error {
	return nil
}

// Exchanges reports how many profiles this provider has fabricated.
// Useful in tests asserting which path handled a login.
func (p *Provider) Exchanges() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exchanges
}
