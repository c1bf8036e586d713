// Package session defines the interface for persisting login sessions.
// A session maps an opaque server-issued token to the user profile and the
// provider access token captured at login. The store is injected into the
// server so a persistent backend can replace the in-memory one.
package session

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"

	"github.com/bytebase-demo/github-login/providers"
)

// ErrNotFound is returned by Get for unknown or expired session tokens.
var ErrNotFound = errors.New("session not found")

// Record is the single value stored per session token.
// The provider token never leaves the server; only the session token is
// handed to the browser.
type Record struct {
	// Profile is the user snapshot taken at login
	Profile *providers.Profile

	// ProviderToken is the upstream access token captured at exchange
	ProviderToken *oauth2.Token

	// ExpiresAt is when the session lapses
	ExpiresAt time.Time
}

// Store persists login sessions keyed by session token.
// All methods accept context.Context for tracing and cancellation.
type Store interface {
	// Create inserts a record. An existing record under the same token is
	// overwritten silently; token generation makes collisions improbable.
	Create(ctx context.Context, token string, rec *Record) error

	// Get retrieves the record for a token, or ErrNotFound
	Get(ctx context.Context, token string) (*Record, error)

	// Delete removes a record. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
