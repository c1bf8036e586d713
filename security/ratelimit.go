package security

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterEntry tracks one identifier's token bucket and its last use.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-identifier (normally per-IP) rate limiting using
// token buckets. Idle entries are dropped periodically so the map cannot
// grow without bound.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry

	perSecond rate.Limit
	burst     int
	logger    *slog.Logger

	cleanupInterval time.Duration
	maxIdle         time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewRateLimiter creates a rate limiter allowing requestsPerSecond sustained
// with the given burst, and starts its cleanup loop. Call Stop when done.
func NewRateLimiter(requestsPerSecond float64, burst int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}

	rl := &RateLimiter{
		entries:         make(map[string]*limiterEntry),
		perSecond:       rate.Limit(requestsPerSecond),
		burst:           burst,
		logger:          logger,
		cleanupInterval: 5 * time.Minute,
		maxIdle:         30 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow reports whether a request from the identifier may proceed.
func (rl *RateLimiter) Allow(identifier string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.entries[identifier]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.entries[identifier] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// Len reports the number of tracked identifiers.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup drops entries idle longer than maxIdle.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.maxIdle)
	removed := 0
	for id, entry := range rl.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.entries, id)
			removed++
		}
	}

	if removed > 0 {
		rl.logger.Debug("Rate limiter cleanup completed",
			"removed", removed,
			"remaining", len(rl.entries))
	}
}

// Stop halts the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}
