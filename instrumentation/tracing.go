package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common span attribute keys
//
// SECURITY WARNING: Never record actual credential values (access tokens,
// authorization codes, session tokens) in traces or metrics. Only record
// metadata such as token presence, login paths, and validation results.
const (
	// Login flow attributes - metadata only
	AttrUserID       = "login.user_id"       // User identifier (non-secret)
	AttrLoginPath    = "login.path"          // Which path produced the login (live, fallback)
	AttrCodePresent  = "login.code_present"  // Whether an authorization code was supplied (boolean)
	AttrStatePresent = "login.state_present" // Whether a state token was supplied (boolean)
	AttrSuccess      = "login.success"       // Whether the operation succeeded (boolean)
	AttrError        = "login.error"         // Error code

	// Provider attributes
	AttrProviderName      = "provider.name"
	AttrProviderOperation = "provider.operation"

	// Session attributes
	AttrSessionOperation = "session.operation"
	AttrSessionFound     = "session.found"

	// Security attributes
	AttrClientIP       = "security.client_ip"
	AttrAuditEventType = "security.audit.event_type"

	// HTTP attributes (in addition to standard semantic conventions)
	AttrHTTPEndpoint   = "http.endpoint"
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
)

// RecordError records an error on a span with proper status codes (nil-safe)
func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks a span as successful (nil-safe)
func SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// SetSpanError sets an error status on a span (nil-safe)
func SetSpanError(span trace.Span, message string) {
	if span != nil {
		span.SetStatus(codes.Error, message)
	}
}

// SetSpanAttributes sets attributes on a span (nil-safe)
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span != nil {
		span.SetAttributes(attrs...)
	}
}

// AddLoginAttributes adds common login flow attributes to a span (nil-safe)
func AddLoginAttributes(span trace.Span, provider, path string) {
	if provider != "" {
		SetSpanAttributes(span, attribute.String(AttrProviderName, provider))
	}
	if path != "" {
		SetSpanAttributes(span, attribute.String(AttrLoginPath, path))
	}
}

// AddSessionAttributes adds session operation attributes to a span (nil-safe)
func AddSessionAttributes(span trace.Span, operation string, found bool) {
	SetSpanAttributes(span,
		attribute.String(AttrSessionOperation, operation),
		attribute.Bool(AttrSessionFound, found),
	)
}
