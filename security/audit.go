package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Audit event types for the login flow.
const (
	// EventLoginSucceeded is logged on a successful code exchange.
	// Its "path" detail says whether the live provider or the demo
	// fallback produced the identity.
	EventLoginSucceeded = "login_succeeded"

	// EventLoginFailed is logged when a code exchange fails outright
	EventLoginFailed = "login_failed"

	// EventSessionDeleted is logged when a session is removed at logout
	EventSessionDeleted = "session_deleted"

	// EventUnauthorized is logged when a request carries a missing or
	// unknown session token
	EventUnauthorized = "unauthorized"

	// EventRateLimitExceeded is logged when a rate limit is exceeded
	EventRateLimitExceeded = "rate_limit_exceeded"
)

// Auditor logs security-relevant login events with PII protection:
// user identifiers are hashed before they reach the log stream.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event represents a security audit event
type Event struct {
	Type      string
	UserID    string
	IPAddress string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event with hashed PII
func (a *Auditor) LogEvent(event Event) {
	if a == nil || !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"user_id_hash", hashForLogging(event.UserID),
		"ip_address", event.IPAddress,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogLoginSucceeded logs a successful login and which path produced it
// ("live" or "fallback").
func (a *Auditor) LogLoginSucceeded(userID, ipAddress, path string) {
	a.LogEvent(Event{
		Type:      EventLoginSucceeded,
		UserID:    userID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"path": path,
		},
	})
}

// LogLoginFailed logs a failed code exchange
func (a *Auditor) LogLoginFailed(ipAddress, reason string) {
	a.LogEvent(Event{
		Type:      EventLoginFailed,
		IPAddress: ipAddress,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogSessionDeleted logs a logout
func (a *Auditor) LogSessionDeleted(userID, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventSessionDeleted,
		UserID:    userID,
		IPAddress: ipAddress,
	})
}

// LogUnauthorized logs a request with a missing or unknown session token
func (a *Auditor) LogUnauthorized(ipAddress, reason string) {
	a.LogEvent(Event{
		Type:      EventUnauthorized,
		IPAddress: ipAddress,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogRateLimitExceeded logs a rate limit violation
func (a *Auditor) LogRateLimitExceeded(ipAddress string) {
	a.LogEvent(Event{
		Type:      EventRateLimitExceeded,
		IPAddress: ipAddress,
	})
}

// hashForLogging hashes an identifier so audit logs never carry raw PII.
// Empty values stay empty so absent users are visible as such.
func hashForLogging(v string) string {
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:8])
}
