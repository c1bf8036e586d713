package login

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bytebase-demo/github-login/instrumentation"
	"github.com/bytebase-demo/github-login/security"
)

const (
	tokenTypeBearer = "Bearer"

	// maxCallbackBodySize bounds the callback request body
	maxCallbackBodySize = 1 << 20 // 1 MB

	// preflightCacheSeconds is how long browsers may cache CORS preflight results
	preflightCacheSeconds = 3600
)

// Handler serves the login HTTP API
type Handler struct {
	server *Server
	logger *slog.Logger
	tracer trace.Tracer
}

// NewHandler creates a new HTTP handler for the login server
func NewHandler(server *Server, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		server: server,
		logger: logger,
	}

	if server.inst != nil {
		h.tracer = server.inst.Tracer("http")
	}

	return h
}

// Routes returns the full API handler with request ID and logging
// middleware applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return security.RequestIDMiddleware(h.logRequests(mux))
}

// RegisterRoutes registers the API endpoints on the given mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.ServeHealth)
	mux.HandleFunc("/api/auth/github/callback", h.ServeGitHubCallback)
	mux.HandleFunc("/api/auth/user", h.ServeUser)
	mux.HandleFunc("/api/auth/logout", h.ServeLogout)
}

// ServeHealth handles GET /api/health
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	if h.handlePreflight(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		h.writeError(w, ErrMissingInput("Method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, &HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   h.server.config.ServiceName,
		GoVersion: runtime.Version(),
	})
}

// ServeGitHubCallback handles POST /api/auth/github/callback.
// The client posts the authorization code and state it received from GitHub;
// the response carries the session token and the authenticated profile.
func (h *Handler) ServeGitHubCallback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "login.http.callback")
		defer span.End()
	}

	if h.handlePreflight(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		h.writeError(w, ErrMissingInput("Method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	clientIP := security.GetClientIP(r, h.server.config.TrustProxy, h.server.config.TrustedProxyCount)
	if !h.checkIPRateLimit(ctx, w, clientIP) {
		instrumentation.SetSpanError(span, "rate limit exceeded")
		return
	}

	var req CallbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCallbackBodySize)).Decode(&req); err != nil {
		h.writeError(w, ErrMissingInput("Invalid request body"), 0)
		return
	}

	instrumentation.SetSpanAttributes(span,
		attribute.Bool(instrumentation.AttrCodePresent, req.Code != ""),
		attribute.Bool(instrumentation.AttrStatePresent, req.State != ""),
	)

	resp, err := h.server.ExchangeCode(ctx, req.Code, req.State, clientIP)
	if h.server.inst != nil {
		h.server.inst.Metrics().RecordCallback(ctx, err == nil)
	}
	if err != nil {
		instrumentation.RecordError(span, err)
		h.writeError(w, err, 0)
		h.recordHTTPMetrics(ctx, r, "/api/auth/github/callback", errorStatus(err), start)
		return
	}

	instrumentation.SetSpanSuccess(span)
	h.writeJSON(w, http.StatusOK, resp)
	h.recordHTTPMetrics(ctx, r, "/api/auth/github/callback", http.StatusOK, start)
}

// ServeUser handles GET /api/auth/user
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.handlePreflight(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		h.writeError(w, ErrMissingInput("Method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	token, ok := h.extractBearerToken(r)
	if !ok {
		h.recordUnauthorized(ctx, r, "missing authorization header")
		h.writeError(w, ErrUnauthorized("Missing authorization header"), 0)
		return
	}

	profile, err := h.server.CurrentUser(ctx, token)
	if err != nil {
		h.recordUnauthorized(ctx, r, "invalid session token")
		h.writeError(w, err, 0)
		return
	}

	h.writeJSON(w, http.StatusOK, &UserResponse{
		Success: true,
		User:    profile,
	})
}

// ServeLogout handles POST /api/auth/logout. Logout always succeeds, even
// for missing or unknown tokens.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.handlePreflight(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		h.writeError(w, ErrMissingInput("Method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	token, _ := h.extractBearerToken(r)
	clientIP := security.GetClientIP(r, h.server.config.TrustProxy, h.server.config.TrustedProxyCount)
	h.server.Logout(ctx, token, clientIP)

	if h.server.inst != nil {
		h.server.inst.Metrics().LogoutsTotal.Add(ctx, 1)
	}

	h.writeJSON(w, http.StatusOK, &LogoutResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}

// checkIPRateLimit enforces the per-IP limit. Returns false after writing
// the 429 response.
func (h *Handler) checkIPRateLimit(ctx context.Context, w http.ResponseWriter, clientIP string) bool {
	if h.server.limiter == nil {
		return true
	}
	if h.server.limiter.Allow(clientIP) {
		return true
	}

	h.logger.Warn("rate limit exceeded", "ip", clientIP)
	h.server.auditor.LogRateLimitExceeded(clientIP)
	if h.server.inst != nil {
		h.server.inst.Metrics().RateLimitExceeded.Add(ctx, 1)
	}

	h.writeError(w, ErrRateLimitExceeded("Rate limit exceeded. Please try again later."), 0)
	return false
}

// extractBearerToken extracts the Bearer token from the Authorization header
func (h *Handler) extractBearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}

	const prefix = tokenTypeBearer + " "
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		return "", false
	}
	return auth[len(prefix):], true
}

func (h *Handler) recordUnauthorized(ctx context.Context, r *http.Request, reason string) {
	clientIP := security.GetClientIP(r, h.server.config.TrustProxy, h.server.config.TrustedProxyCount)
	h.server.auditor.LogUnauthorized(clientIP, reason)
	if h.server.inst != nil {
		h.server.inst.Metrics().UnauthorizedTotal.Add(ctx, 1)
	}
}

func (h *Handler) recordHTTPMetrics(ctx context.Context, r *http.Request, endpoint string, status int, start time.Time) {
	if h.server.inst == nil {
		return
	}
	h.server.inst.Metrics().RecordHTTPRequest(ctx, endpoint, r.Method,
		status, float64(time.Since(start).Milliseconds()))
}

// writeJSON writes a JSON response with security and CORS headers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	security.SetSecurityHeaders(w, h.server.config.Issuer)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response. When err is a *Error its status is
// used; statusOverride, when non-zero, wins.
func (h *Handler) writeError(w http.ResponseWriter, err error, statusOverride int) {
	security.SetSecurityHeaders(w, h.server.config.Issuer)

	code := ErrorCodeServerError
	message := "Internal server error"
	status := http.StatusInternalServerError

	if e, ok := err.(*Error); ok {
		code = e.Code
		message = e.Message
		status = e.Status
	}
	if statusOverride != 0 {
		status = statusOverride
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", tokenTypeBearer)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&ErrorResponse{
		Success: false,
		Error:   code,
		Message: message,
	})
}

// errorStatus maps an error to the HTTP status writeError would use for it
func errorStatus(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}

// handlePreflight sets CORS headers and, for OPTIONS requests, answers the
// preflight. Returns true when the request was fully handled.
func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) bool {
	h.setCORSHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// setCORSHeaders sets CORS headers if configured and the origin is allowed.
// The specific origin is echoed back rather than "*" so credentialed
// requests from the frontend work.
func (h *Handler) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(h.server.config.AllowedOrigins) == 0 {
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	if !h.isAllowedOrigin(origin) {
		h.logger.Debug("cross-origin request from disallowed origin", "origin", origin)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Add("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", preflightCacheSeconds))
}

// isAllowedOrigin checks the origin against the allowed origins list.
// Supports exact matching and wildcard "*" for development.
func (h *Handler) isAllowedOrigin(origin string) bool {
	for _, allowed := range h.server.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// logRequests logs each request with method, path, status, and duration
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", security.GetRequestID(r.Context()),
		)
	})
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
