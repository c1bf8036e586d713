package client

import "sync"

// Storage keys, matching what the login page persists in the browser.
const (
	// KeySessionToken holds the backend session token (durable)
	KeySessionToken = "github_token"

	// KeyUserInfo holds the serialized user profile (durable)
	KeyUserInfo = "user_info"

	// KeyOAuthState holds the pending CSRF state token (session-scoped)
	KeyOAuthState = "github_oauth_state"
)

// KV is the key-value storage the facade persists state into. Browser
// embedders back it with localStorage or sessionStorage; tests use MemoryKV.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

var _ KV = (*MemoryKV)(nil)

// MemoryKV is an in-memory KV implementation
type MemoryKV struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemoryKV creates an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: make(map[string]string)}
}

func (s *MemoryKV) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemoryKV) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *MemoryKV) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}
