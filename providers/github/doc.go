// Package github implements the login provider interface for GitHub OAuth Apps.
//
// GitHub OAuth differs from OIDC providers in several key ways:
//   - No OIDC discovery: endpoints are hardcoded
//   - Non-expiring tokens: standard OAuth Apps issue tokens that don't expire
//   - No refresh tokens: standard OAuth Apps don't provide them
//   - Email privacy: user emails may be private, requiring a separate API call
//
// # Scope
//
// The default scope string is "user:email read:user":
//   - user:email: read user email addresses from /user/emails
//   - read:user: read profile data from /user
//
// # Email Selection
//
// FetchProfile prefers the address flagged primary in /user/emails and falls
// back to the public profile email when no primary entry exists. A failed
// emails call never fails the login.
//
// # Example Usage
//
//	provider, err := github.NewProvider(&github.Config{
//	    ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
//	    ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
//	    RedirectURL:  "http://localhost:5173/auth/callback",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
package github
