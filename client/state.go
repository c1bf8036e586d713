package client

import (
	"crypto/subtle"

	"golang.org/x/oauth2"
)

// GenerateState mints a high-entropy CSRF state token and stores it in the
// session-scoped store under KeyOAuthState, replacing any pending token.
func GenerateState(ephemeral KV) string {
	state := oauth2.GenerateVerifier()
	ephemeral.Set(KeyOAuthState, state)
	return state
}

// ValidateState checks a callback's state token against the stored one.
// The stored token is deleted unconditionally, so a state validates at most
// once; replaying the same callback URL fails the second time. Returns false
// when no token was pending.
func ValidateState(ephemeral KV, received string) bool {
	stored, ok := ephemeral.Get(KeyOAuthState)
	ephemeral.Delete(KeyOAuthState)

	if !ok || stored == "" || received == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(received)) == 1
}
