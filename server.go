package login

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/bytebase-demo/github-login/instrumentation"
	"github.com/bytebase-demo/github-login/providers"
	"github.com/bytebase-demo/github-login/providers/demo"
	"github.com/bytebase-demo/github-login/security"
	"github.com/bytebase-demo/github-login/session"
)

// Login paths, reported in audit events and metrics.
const (
	loginPathLive     = "live"
	loginPathFallback = "fallback"
)

// Server implements the login backend logic (provider-agnostic).
// It coordinates the authorization-code exchange using a Provider and an
// injected session store.
type Server struct {
	provider providers.Provider
	fallback providers.Provider
	sessions session.Store
	auditor  *security.Auditor
	limiter  *security.RateLimiter
	inst     *instrumentation.Instrumentation
	logger   *slog.Logger
	config   *ServerConfig
}

// NewServer creates a new login server
func NewServer(
	provider providers.Provider,
	sessions session.Store,
	config *ServerConfig,
	logger *slog.Logger,
) (*Server, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if config == nil {
		config = &ServerConfig{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	config = applyDefaults(config, logger)

	return &Server{
		provider: provider,
		fallback: demo.NewProvider(),
		sessions: sessions,
		config:   config,
		logger:   logger,
	}, nil
}

// SetFallbackProvider replaces the provider used when the live exchange
// fails. The default is the demo provider.
func (s *Server) SetFallbackProvider(p providers.Provider) {
	s.fallback = p
}

// SetAuditor enables security audit logging
func (s *Server) SetAuditor(a *security.Auditor) {
	s.auditor = a
}

// SetRateLimiter enables per-IP rate limiting on the callback endpoint
func (s *Server) SetRateLimiter(rl *security.RateLimiter) {
	s.limiter = rl
}

// SetInstrumentation enables OpenTelemetry metrics and tracing
func (s *Server) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.inst = inst
}

// Instrumentation returns the configured instrumentation, or nil
func (s *Server) Instrumentation() *instrumentation.Instrumentation {
	return s.inst
}

// Config returns the server configuration after defaults were applied
func (s *Server) Config() *ServerConfig {
	return s.config
}

// ExchangeCode completes the authorization-code flow: it exchanges the code
// for a provider token, fetches the user's profile, mints a session token,
// and stores the session.
//
// When the live exchange fails and the demo fallback is enabled, the flow is
// re-run against the fallback provider so the login still completes; the
// degraded path is logged and audited as such.
func (s *Server) ExchangeCode(ctx context.Context, code, state, clientIP string) (*CallbackResponse, error) {
	if code == "" {
		s.auditor.LogLoginFailed(clientIP, "missing authorization code")
		return nil, ErrMissingInput("Missing authorization code")
	}

	s.logger.Info("processing authorization code exchange",
		"provider", s.provider.Name(),
		"state_present", state != "")

	path := loginPathLive
	token, profile, err := s.exchangeWith(ctx, s.provider, code)
	if err != nil {
		if s.config.DisableDemoFallback || s.fallback == nil {
			s.logger.Error("code exchange failed", "provider", s.provider.Name(), "error", err)
			s.auditor.LogLoginFailed(clientIP, "provider exchange failed")
			return nil, ErrProviderError("Failed to process GitHub callback")
		}

		s.logger.Warn("code exchange failed, falling back to demo provider",
			"provider", s.provider.Name(),
			"error", err)

		path = loginPathFallback
		token, profile, err = s.exchangeWith(ctx, s.fallback, code)
		if err != nil {
			s.auditor.LogLoginFailed(clientIP, "fallback exchange failed")
			return nil, ErrServerError("Failed to process GitHub callback")
		}
	}

	sessionToken := oauth2.GenerateVerifier()
	rec := &session.Record{
		Profile:       profile,
		ProviderToken: token,
		ExpiresAt:     time.Now().Add(s.config.SessionTTL),
	}
	if err := s.sessions.Create(ctx, sessionToken, rec); err != nil {
		s.logger.Error("failed to store session", "error", err)
		return nil, ErrServerError("Failed to process GitHub callback")
	}

	s.logger.Info("login succeeded", "login", profile.Login, "path", path)
	s.auditor.LogLoginSucceeded(profile.ID, clientIP, path)
	if s.inst != nil {
		s.inst.Metrics().RecordLogin(ctx, path)
	}

	return &CallbackResponse{
		Success:     true,
		User:        profile,
		AccessToken: sessionToken,
		TokenType:   "bearer",
	}, nil
}

// exchangeWith runs the two-step exchange (code to token, token to profile)
// against one provider.
func (s *Server) exchangeWith(ctx context.Context, p providers.Provider, code string) (*oauth2.Token, *providers.Profile, error) {
	token, err := p.ExchangeCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("exchanging code: %w", err)
	}

	profile, err := p.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching profile: %w", err)
	}

	return token, profile, nil
}

// CurrentUser resolves a session token to the stored profile.
func (s *Server) CurrentUser(ctx context.Context, sessionToken string) (*providers.Profile, error) {
	if sessionToken == "" {
		return nil, ErrUnauthorized("Missing authorization header")
	}

	rec, err := s.sessions.Get(ctx, sessionToken)
	if err != nil {
		return nil, ErrUnauthorized("Invalid access token")
	}

	return rec.Profile, nil
}

// Logout deletes the session for the given token. Unknown tokens are a
// no-op; logout always succeeds.
func (s *Server) Logout(ctx context.Context, sessionToken, clientIP string) {
	if sessionToken == "" {
		return
	}

	rec, err := s.sessions.Get(ctx, sessionToken)
	if err != nil {
		return
	}

	if err := s.sessions.Delete(ctx, sessionToken); err != nil {
		s.logger.Warn("failed to delete session", "error", err)
		return
	}

	s.logger.Info("user logged out", "login", rec.Profile.Login)
	s.auditor.LogSessionDeleted(rec.Profile.ID, clientIP)
}

// HealthCheck pings the identity provider with an enforced timeout.
func (s *Server) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.HealthCheckTimeout)
	defer cancel()

	if err := s.provider.HealthCheck(ctx); err != nil {
		return fmt.Errorf("provider %s health check: %w", s.provider.Name(), err)
	}
	return nil
}
