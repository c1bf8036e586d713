// Package valkey provides a Valkey-backed session store for deployments
// where sessions must survive process restarts or be shared across
// replicas. Expiry is delegated to Valkey key TTLs.
package valkey

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	valkeygo "github.com/valkey-io/valkey-go"
	"golang.org/x/oauth2"

	"github.com/bytebase-demo/github-login/providers"
	"github.com/bytebase-demo/github-login/security"
	"github.com/bytebase-demo/github-login/session"
)

const (
	// DefaultKeyPrefix is the default prefix for all session keys
	DefaultKeyPrefix = "login:"

	// connectionVerifyTimeout bounds the initial PING
	connectionVerifyTimeout = 5 * time.Second

	// maxRecordSize caps serialized session records (64KB). Anything
	// larger indicates a malformed profile rather than a real login.
	maxRecordSize = 64 * 1024
)

// Config holds configuration for the Valkey session store.
type Config struct {
	// Address is the Valkey server address (required), e.g., "localhost:6379"
	Address string

	// Password is the optional password for Valkey authentication
	Password string

	// DB is the optional database number (default 0)
	DB int

	// KeyPrefix is the prefix for all keys (default "login:")
	KeyPrefix string

	// TLS is the optional TLS configuration for encrypted connections
	TLS *tls.Config

	// Logger is the optional structured logger (default: slog.Default())
	Logger *slog.Logger
}

// Store is a Valkey-backed implementation of session.Store.
type Store struct {
	client    valkeygo.Client
	prefix    string
	logger    *slog.Logger
	encryptor *security.Encryptor
}

var _ session.Store = (*Store)(nil)

// record is the serialized form of a session. The provider access token is
// stored encrypted when an encryptor is configured.
type record struct {
	Profile       *providers.Profile `json:"profile"`
	AccessToken   string             `json:"access_token,omitempty"`
	TokenType     string             `json:"token_type,omitempty"`
	TokenExpiry   time.Time          `json:"token_expiry,omitempty"`
	SessionExpiry time.Time          `json:"session_expiry"`
}

// New creates a Valkey-backed session store.
// Returns an error if the connection cannot be established.
func New(cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := valkeygo.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.TLS != nil {
		opts.TLSConfig = cfg.TLS
	}

	client, err := valkeygo.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionVerifyTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	logger.Info("Connected to Valkey session storage",
		"address", cfg.Address,
		"db", cfg.DB,
		"prefix", prefix)

	return &Store{
		client: client,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Close closes the Valkey client connection.
func (s *Store) Close() {
	s.client.Close()
	s.logger.Info("Valkey session storage connection closed")
}

// SetEncryptor enables encryption at rest for stored provider access tokens.
// Must be called before the store is used.
func (s *Store) SetEncryptor(enc *security.Encryptor) {
	s.encryptor = enc
	if enc != nil && enc.IsEnabled() {
		s.logger.Info("Token encryption at rest enabled for Valkey session storage")
	}
}

// Create inserts a session record under the token's key with a TTL derived
// from the record's expiry. Overwrites any existing record under the token.
func (s *Store) Create(ctx context.Context, token string, rec *session.Record) error {
	if rec == nil {
		return fmt.Errorf("session record is required")
	}

	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		s.logger.Warn("Refusing to store expired session", "expires_at", rec.ExpiresAt)
		return nil
	}

	r := record{
		Profile:       rec.Profile,
		SessionExpiry: rec.ExpiresAt,
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
		r.AccessToken = accessToken
		r.TokenType = rec.ProviderToken.TokenType
		r.TokenExpiry = rec.ProviderToken.Expiry
	}

	data, err := json.Marshal(&r)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	if len(data) > maxRecordSize {
		return fmt.Errorf("session record exceeds maximum allowed size")
	}

	key := s.sessionKey(token)
	if err := s.client.Do(ctx,
		s.client.B().Set().Key(key).Value(string(data)).Ex(ttl).Build(),
	).Error(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug("Session created", "expires_at", rec.ExpiresAt)
	return nil
}

// Get retrieves the record for a session token.
// Unknown and expired tokens both yield session.ErrNotFound; Valkey evicts
// expired keys itself.
func (s *Store) Get(ctx context.Context, token string) (*session.Record, error) {
	key := s.sessionKey(token)

	data, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if valkeygo.IsValkeyNil(err) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var r record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session record: %w", err)
	}

	rec := &session.Record{
		Profile:   r.Profile,
		ExpiresAt: r.SessionExpiry,
	}

	if r.AccessToken != "" {
		accessToken := r.AccessToken
		if s.encryptor != nil {
			decrypted, err := s.encryptor.Decrypt(accessToken)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt provider token: %w", err)
			}
			accessToken = decrypted
		}
		rec.ProviderToken = &oauth2.Token{
			AccessToken: accessToken,
			TokenType:   r.TokenType,
			Expiry:      r.TokenExpiry,
		}
	}

	return rec, nil
}

// Delete removes a session. Idempotent: deleting an unknown token succeeds.
func (s *Store) Delete(ctx context.Context, token string) error {
	key := s.sessionKey(token)

	if err := s.client.Do(ctx, s.client.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Debug("Session deleted")
	return nil
}

func (s *Store) sessionKey(token string) string {
	return s.prefix + "session:" + token
}
