package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/bytebase-demo/github-login/internal/util"
	"github.com/bytebase-demo/github-login/providers"
	"github.com/bytebase-demo/github-login/security"
	"github.com/bytebase-demo/github-login/session"
	"golang.org/x/oauth2"
)

// tokenLogLength is the number of characters of a session token included in
// debug logs. Enough to correlate, not enough to replay.
const tokenLogLength = 8

// Compile-time check that Store implements the session.Store interface.
var _ session.Store = (*Store)(nil)

// entry is the cached form of a session record. The provider access token is
// held encrypted when an encryptor is configured.
type entry struct {
	profile       *providers.Profile
	accessToken   string
	tokenType     string
	tokenExpiry   time.Time
	sessionExpiry time.Time
}

// Store is an in-memory session store with TTL eviction.
// Expired sessions are evicted by the cache rather than lingering with an
// advisory expiry field.
type Store struct {
	cache     *ttlcache.Cache[string, *entry]
	encryptor *security.Encryptor
	logger    *slog.Logger
}

// New creates a new in-memory session store and starts its eviction loop.
// Call Stop when done to release the background goroutine.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *entry](),
	)
	go cache.Start()

	return &Store{
		cache:  cache,
		logger: logger,
	}
}

// SetEncryptor enables encryption at rest for stored provider access tokens.
// Must be called before the store is used.
func (s *Store) SetEncryptor(enc *security.Encryptor) {
	s.encryptor = enc
}

// Create inserts a session record, overwriting any existing record under the
// same token. The record is evicted automatically at ExpiresAt.
func (s *Store) Create(_ context.Context, token string, rec *session.Record) error {
	if rec == nil {
		return fmt.Errorf("session record is required")
	}

	e := &entry{
		profile:       rec.Profile,
		sessionExpiry: rec.ExpiresAt,
	}

	if rec.ProviderToken != nil {
		accessToken := rec.ProviderToken.AccessToken
		if s.encryptor != nil {
			encrypted, err := s.encryptor.Encrypt(accessToken)
			if err != nil {
				return fmt.Errorf("failed to encrypt provider token: %w", err)
			}
			accessToken = encrypted
		}
		e.accessToken = accessToken
		e.tokenType = rec.ProviderToken.TokenType
		e.tokenExpiry = rec.ProviderToken.Expiry
	}

	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		// Already expired on arrival; nothing to store.
		s.logger.Warn("Refusing to store expired session", "expires_at", rec.ExpiresAt)
		return nil
	}

	s.cache.Set(token, e, ttl)

	s.logger.Debug("Session created",
		"token_prefix", util.SafeTruncate(token, tokenLogLength),
		"expires_at", rec.ExpiresAt)

	return nil
}

// Get retrieves the record for a session token.
// Unknown and expired tokens both yield session.ErrNotFound.
func (s *Store) Get(_ context.Context, token string) (*session.Record, error) {
	item := s.cache.Get(token)
	if item == nil {
		return nil, session.ErrNotFound
	}

	e := item.Value()

	rec := &session.Record{
		Profile:   e.profile,
		ExpiresAt: e.sessionExpiry,
	}

	if e.accessToken != "" {
		accessToken := e.accessToken
		if s.encryptor != nil {
			decrypted, err := s.encryptor.Decrypt(accessToken)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt provider token: %w", err)
			}
			accessToken = decrypted
		}
		rec.ProviderToken = &oauth2.Token{
			AccessToken: accessToken,
			TokenType:   e.tokenType,
			Expiry:      e.tokenExpiry,
		}
	}

	return rec, nil
}

// Delete removes a session. Idempotent: deleting an unknown token succeeds.
func (s *Store) Delete(_ context.Context, token string) error {
	s.cache.Delete(token)

	s.logger.Debug("Session deleted", "token_prefix", util.SafeTruncate(token, tokenLogLength))

	return nil
}

// Len reports the number of live sessions. Used by the instrumentation
// layer's active-sessions gauge.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Stop halts the eviction loop.
func (s *Store) Stop() {
	s.cache.Stop()
}
