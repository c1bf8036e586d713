// Command login-server runs the GitHub login demo backend.
//
// Configuration comes from the environment; GITHUB_CLIENT_ID and
// GITHUB_CLIENT_SECRET select the live GitHub provider, and without them
// the server runs entirely on the demo provider.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	login "github.com/bytebase-demo/github-login"
	"github.com/bytebase-demo/github-login/instrumentation"
	"github.com/bytebase-demo/github-login/providers"
	"github.com/bytebase-demo/github-login/providers/demo"
	"github.com/bytebase-demo/github-login/providers/github"
	"github.com/bytebase-demo/github-login/security"
	"github.com/bytebase-demo/github-login/session"
	"github.com/bytebase-demo/github-login/session/memory"
	"github.com/bytebase-demo/github-login/session/valkey"
)

type envConfig struct {
	ListenAddr     string `env:"LISTEN_ADDR" envDefault:":3001"`
	Issuer         string `env:"ISSUER" envDefault:"http://localhost:3001"`
	FrontendOrigin string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubRedirectURI  string `env:"GITHUB_REDIRECT_URI" envDefault:"http://localhost:5173/auth/callback"`

	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	DisableDemoFallback bool          `env:"DISABLE_DEMO_FALLBACK"`

	// SessionStore selects the session backend: "memory" or "valkey"
	SessionStore   string `env:"SESSION_STORE" envDefault:"memory"`
	ValkeyAddr     string `env:"VALKEY_ADDR" envDefault:"localhost:6379"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`
	ValkeyDB       int    `env:"VALKEY_DB"`

	// EncryptionKey is an optional base64-encoded 32-byte AES key; when set,
	// provider tokens are encrypted at rest in the session store.
	EncryptionKey string `env:"SESSION_ENCRYPTION_KEY"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	TrustProxy        bool `env:"TRUST_PROXY"`
	TrustedProxyCount int  `env:"TRUSTED_PROXY_COUNT" envDefault:"1"`

	EnableAuditLog        bool   `env:"ENABLE_AUDIT_LOG" envDefault:"true"`
	EnableInstrumentation bool   `env:"ENABLE_INSTRUMENTATION"`
	ServiceVersion        string `env:"SERVICE_VERSION" envDefault:"dev"`
}

func main() {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	provider, err := buildProvider(&cfg, logger)
	if err != nil {
		log.Fatalf("create provider: %v", err)
	}

	sessions, sessionLen, closeSessions, err := buildSessionStore(&cfg, logger)
	if err != nil {
		log.Fatalf("create session store: %v", err)
	}
	defer closeSessions()

	server, err := login.NewServer(provider, sessions, &login.ServerConfig{
		Issuer:              cfg.Issuer,
		SessionTTL:          cfg.SessionTTL,
		DisableDemoFallback: cfg.DisableDemoFallback,
		TrustProxy:          cfg.TrustProxy,
		TrustedProxyCount:   cfg.TrustedProxyCount,
		AllowedOrigins:      []string{cfg.FrontendOrigin},
		RateLimit: login.RateLimitConfig{
			Rate:  cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
	}, logger)
	if err != nil {
		log.Fatalf("create server: %v", err)
	}

	server.SetAuditor(security.NewAuditor(logger, cfg.EnableAuditLog))

	if cfg.RateLimitRPS > 0 {
		limiter := security.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
		defer limiter.Stop()
		server.SetRateLimiter(limiter)
	}

	if cfg.EnableInstrumentation {
		inst, err := instrumentation.New(instrumentation.Config{
			ServiceName:    "login-api",
			ServiceVersion: cfg.ServiceVersion,
			Enabled:        true,
		})
		if err != nil {
			log.Fatalf("create instrumentation: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = inst.Shutdown(shutdownCtx)
		}()

		if sessionLen != nil {
			if err := inst.RegisterSessionGauge(sessionLen); err != nil {
				log.Fatalf("register session gauge: %v", err)
			}
		}
		server.SetInstrumentation(inst)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := server.HealthCheck(startupCtx); err != nil {
		logger.Warn("identity provider unreachable at startup", "error", err)
	}
	cancel()

	handler := login.NewHandler(server, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("login server listening",
			"addr", cfg.ListenAddr,
			"provider", provider.Name(),
			"frontend_origin", cfg.FrontendOrigin)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// buildSessionStore selects the session backend. The returned callback
// feeds the active-sessions gauge and is nil for backends that cannot count
// sessions cheaply.
func buildSessionStore(cfg *envConfig, logger *slog.Logger) (session.Store, instrumentation.SessionCountCallback, func(), error) {
	var enc *security.Encryptor
	if cfg.EncryptionKey != "" {
		key, err := security.KeyFromBase64(cfg.EncryptionKey)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("decoding encryption key: %w", err)
		}
		enc, err = security.NewEncryptor(key)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("creating encryptor: %w", err)
		}
		logger.Info("provider tokens encrypted at rest")
	}

	switch cfg.SessionStore {
	case "memory":
		store := memory.New(logger)
		if enc != nil {
			store.SetEncryptor(enc)
		}
		count := func() int64 { return int64(store.Len()) }
		return store, count, store.Stop, nil

	case "valkey":
		store, err := valkey.New(valkey.Config{
			Address:  cfg.ValkeyAddr,
			Password: cfg.ValkeyPassword,
			DB:       cfg.ValkeyDB,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		if enc != nil {
			store.SetEncryptor(enc)
		}
		return store, nil, store.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

// buildProvider selects the live GitHub provider when credentials are
// configured, otherwise the demo provider.
func buildProvider(cfg *envConfig, logger *slog.Logger) (providers.Provider, error) {
	if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
		logger.Warn("GitHub credentials not configured, using demo provider")
		return demo.NewProvider(), nil
	}

	return github.NewProvider(&github.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.GitHubRedirectURI,
	})
}
