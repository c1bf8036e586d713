package security

import (
	"log/slog"
	"testing"
	"time"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(10, 20, nil)
	defer rl.Stop()

	if rl.burst != 20 {
		t.Errorf("burst = %d, want 20", rl.burst)
	}
	if rl.logger == nil {
		t.Error("logger should not be nil")
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(10, 5, slog.Default())
	defer rl.Stop()

	identifier := "192.0.2.1"

	// Requests up to the burst are allowed
	for i := 0; i < 5; i++ {
		if !rl.Allow(identifier) {
			t.Errorf("Allow() request %d should be allowed", i+1)
		}
	}

	if rl.Allow(identifier) {
		t.Error("Allow() should return false once the burst is exhausted")
	}
}

func TestRateLimiter_Allow_MultipleIdentifiers(t *testing.T) {
	rl := NewRateLimiter(10, 2, slog.Default())
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		if !rl.Allow("192.0.2.1") {
			t.Errorf("Allow() request %d should be allowed", i+1)
		}
	}
	if rl.Allow("192.0.2.1") {
		t.Error("first identifier should be limited")
	}

	if !rl.Allow("192.0.2.2") {
		t.Error("second identifier should have its own budget")
	}

	if got := rl.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestRateLimiter_RefillOverTime(t *testing.T) {
	rl := NewRateLimiter(20, 1, slog.Default())
	defer rl.Stop()

	identifier := "192.0.2.1"

	if !rl.Allow(identifier) {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow(identifier) {
		t.Fatal("second immediate request should be limited")
	}

	// 20 rps refills one token in 50ms
	time.Sleep(80 * time.Millisecond)

	if !rl.Allow(identifier) {
		t.Error("Allow() should succeed after the bucket refills")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 5, slog.Default())
	defer rl.Stop()

	rl.Allow("192.0.2.1")
	rl.Allow("192.0.2.2")

	// Age both entries past the idle cutoff, then run cleanup directly
	rl.mu.Lock()
	for _, entry := range rl.entries {
		entry.lastSeen = time.Now().Add(-time.Hour)
	}
	rl.mu.Unlock()

	rl.cleanup()

	if got := rl.Len(); got != 0 {
		t.Errorf("Len() after cleanup = %d, want 0", got)
	}
}

func TestRateLimiter_Stop_Idempotent(t *testing.T) {
	rl := NewRateLimiter(10, 5, nil)
	rl.Stop()
	rl.Stop() // must not panic
}
