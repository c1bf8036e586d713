package login

import (
	"log/slog"
	"time"
)

// ServerConfig holds login server configuration
type ServerConfig struct {
	// Issuer is the server's base URL, used for security headers
	Issuer string

	// ServiceName is reported by the health endpoint
	// Default: "Bytebase Login API"
	ServiceName string

	// SessionTTL is how long session tokens remain valid
	// Default: 24 hours
	SessionTTL time.Duration

	// DisableDemoFallback turns off the demo-user fallback. When false
	// (the default), a failed provider exchange is retried against the
	// demo provider so the login flow always completes. When true,
	// provider failures surface as provider_error responses.
	DisableDemoFallback bool

	// HealthCheckTimeout bounds provider health probes
	// Default: 5 seconds
	HealthCheckTimeout time.Duration

	// TrustProxy enables trusting X-Forwarded-For and X-Real-IP headers.
	// WARNING: Only enable if behind a trusted reverse proxy.
	// Default: false
	TrustProxy bool

	// TrustedProxyCount is the number of trusted proxies in front of this
	// server, used with TrustProxy to extract the client IP.
	// Default: 1
	TrustedProxyCount int

	// AllowedOrigins lists origins permitted to make cross-origin requests.
	// Typically just the frontend origin. Empty disables CORS headers.
	AllowedOrigins []string

	// RateLimit configures per-IP limiting on the callback endpoint
	RateLimit RateLimitConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Rate is requests per second allowed per IP. Zero disables limiting.
	Rate float64

	// Burst is the maximum burst size allowed per IP.
	Burst int
}

// applyDefaults fills in zero-valued configuration fields
func applyDefaults(config *ServerConfig, logger *slog.Logger) *ServerConfig {
	if config.ServiceName == "" {
		config.ServiceName = "Bytebase Login API"
	}
	if config.SessionTTL == 0 {
		config.SessionTTL = 24 * time.Hour
	}
	if config.HealthCheckTimeout == 0 {
		config.HealthCheckTimeout = 5 * time.Second
	}
	if config.TrustedProxyCount == 0 {
		config.TrustedProxyCount = 1
	}
	if config.RateLimit.Rate > 0 && config.RateLimit.Burst == 0 {
		config.RateLimit.Burst = int(config.RateLimit.Rate) * 2
	}

	if config.TrustProxy {
		logger.Warn("trusting proxy headers for client IP extraction",
			"risk", "IP spoofing if the proxy chain is misconfigured",
			"trusted_proxy_count", config.TrustedProxyCount)
	}
	if config.DisableDemoFallback {
		logger.Info("demo fallback disabled; provider failures will surface to clients")
	}

	return config
}
