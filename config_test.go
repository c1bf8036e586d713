package login

import (
	"log/slog"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := applyDefaults(&ServerConfig{}, slog.Default())

	if cfg.ServiceName != "Bytebase Login API" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.HealthCheckTimeout != 5*time.Second {
		t.Errorf("HealthCheckTimeout = %v, want 5s", cfg.HealthCheckTimeout)
	}
	if cfg.TrustedProxyCount != 1 {
		t.Errorf("TrustedProxyCount = %d, want 1", cfg.TrustedProxyCount)
	}
	if cfg.RateLimit.Burst != 0 {
		t.Errorf("Burst = %d, want 0 when limiting is disabled", cfg.RateLimit.Burst)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := applyDefaults(&ServerConfig{
		ServiceName:        "Custom API",
		SessionTTL:         time.Hour,
		HealthCheckTimeout: time.Second,
		TrustedProxyCount:  3,
	}, slog.Default())

	if cfg.ServiceName != "Custom API" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.HealthCheckTimeout != time.Second {
		t.Errorf("HealthCheckTimeout = %v", cfg.HealthCheckTimeout)
	}
	if cfg.TrustedProxyCount != 3 {
		t.Errorf("TrustedProxyCount = %d", cfg.TrustedProxyCount)
	}
}

func TestApplyDefaults_RateLimitBurst(t *testing.T) {
	tests := []struct {
		name      string
		limit     RateLimitConfig
		wantBurst int
	}{
		{"burst derived from rate", RateLimitConfig{Rate: 5}, 10},
		{"explicit burst kept", RateLimitConfig{Rate: 5, Burst: 3}, 3},
		{"disabled limiting leaves burst alone", RateLimitConfig{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := applyDefaults(&ServerConfig{RateLimit: tt.limit}, slog.Default())
			if cfg.RateLimit.Burst != tt.wantBurst {
				t.Errorf("Burst = %d, want %d", cfg.RateLimit.Burst, tt.wantBurst)
			}
		})
	}
}
