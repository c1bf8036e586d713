// Package instrumentation provides OpenTelemetry (OTEL) instrumentation for the
// login backend.
//
// It covers the three observability layers:
//   - Metrics: counters, histograms, and gauges for login and session operations
//   - Traces: spans for the callback flow, session lookups, and provider calls
//   - Logging: structured slog output with trace context available to callers
//
// # Quick Start
//
// Enable instrumentation and pass it to the server:
//
//	inst, err := instrumentation.New(instrumentation.Config{
//		ServiceName:    "login-api",
//		ServiceVersion: "1.0.0",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
// # Available Metrics
//
// HTTP layer:
//   - login.http.requests.total{method, endpoint, status} - Total HTTP requests
//   - login.http.request.duration{endpoint} - Request duration in milliseconds
//
// Login flow:
//   - login.logins.total{path} - Successful logins, by path (live or fallback)
//   - login.callback.processed{success} - OAuth callbacks processed
//   - login.logouts.total - Logout requests
//
// Sessions:
//   - login.sessions.created - Sessions created
//   - login.sessions.active - Live sessions currently in the store
//
// Security:
//   - login.ratelimit.exceeded - Requests rejected by rate limiting
//   - login.unauthorized.total - Requests with missing or unknown session tokens
//
// When instrumentation is not configured or disabled, no-op providers are used
// and the overhead is zero.
//
// # Security Considerations
//
// This package collects observability data, not credentials. Never record
// actual token values (provider access tokens, authorization codes, session
// tokens) in spans or metric attributes. Only record metadata such as token
// presence, login paths, and validation results.
//
// All operations are thread-safe and can be called concurrently.
package instrumentation
