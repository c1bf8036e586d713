package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the login backend.
type Metrics struct {
	// HTTP layer
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Login flow
	LoginsTotal       metric.Int64Counter
	CallbackProcessed metric.Int64Counter
	LogoutsTotal      metric.Int64Counter

	// Sessions
	SessionsCreated metric.Int64Counter
	SessionsActive  metric.Int64ObservableGauge

	// Security
	RateLimitExceeded metric.Int64Counter
	UnauthorizedTotal metric.Int64Counter
}

// newMetrics creates and registers all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}

	httpMeter := inst.Meter("http")
	serverMeter := inst.Meter("server")
	sessionMeter := inst.Meter("session")
	securityMeter := inst.Meter("security")

	var err error
	m.HTTPRequestsTotal, err = httpMeter.Int64Counter(
		"login.http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.requests.total counter: %w", err)
	}

	m.HTTPRequestDuration, err = httpMeter.Float64Histogram(
		"login.http.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.request.duration histogram: %w", err)
	}

	m.LoginsTotal, err = serverMeter.Int64Counter(
		"login.logins.total",
		metric.WithDescription("Number of successful logins, by path (live or fallback)"),
		metric.WithUnit("{login}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logins.total counter: %w", err)
	}

	m.CallbackProcessed, err = serverMeter.Int64Counter(
		"login.callback.processed",
		metric.WithDescription("Number of OAuth callbacks processed"),
		metric.WithUnit("{callback}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create callback.processed counter: %w", err)
	}

	m.LogoutsTotal, err = serverMeter.Int64Counter(
		"login.logouts.total",
		metric.WithDescription("Number of logout requests"),
		metric.WithUnit("{logout}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logouts.total counter: %w", err)
	}

	m.SessionsCreated, err = sessionMeter.Int64Counter(
		"login.sessions.created",
		metric.WithDescription("Number of sessions created"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions.created counter: %w", err)
	}

	m.SessionsActive, err = sessionMeter.Int64ObservableGauge(
		"login.sessions.active",
		metric.WithDescription("Number of live sessions in the store"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions.active gauge: %w", err)
	}

	m.RateLimitExceeded, err = securityMeter.Int64Counter(
		"login.ratelimit.exceeded",
		metric.WithDescription("Number of requests rejected by rate limiting"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ratelimit.exceeded counter: %w", err)
	}

	m.UnauthorizedTotal, err = securityMeter.Int64Counter(
		"login.unauthorized.total",
		metric.WithDescription("Number of requests with missing or unknown session tokens"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create unauthorized.total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, endpoint, method string, status int, durationMs float64) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPEndpoint, endpoint),
		attribute.String(AttrHTTPMethod, method),
		attribute.Int(AttrHTTPStatusCode, status),
	)

	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, durationMs, attrs)
}

// RecordLogin records a successful login and which path produced it.
func (m *Metrics) RecordLogin(ctx context.Context, path string) {
	if m == nil {
		return
	}
	m.LoginsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrLoginPath, path),
	))
}

// RecordCallback records a processed callback and its outcome.
func (m *Metrics) RecordCallback(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.CallbackProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool(AttrSuccess, success),
	))
}
