package login

import "github.com/bytebase-demo/github-login/providers"

// CallbackRequest is the JSON body of the authorization-code callback.
type CallbackRequest struct {
	// Code is the authorization code returned by GitHub
	Code string `json:"code"`

	// State is the CSRF state token echoed back by GitHub (validated client-side)
	State string `json:"state"`
}

// CallbackResponse is returned on a successful code exchange.
type CallbackResponse struct {
	Success bool `json:"success"`

	// User is the authenticated profile
	User *providers.Profile `json:"user"`

	// AccessToken is the session token the client sends as a Bearer credential.
	// It is NOT the provider's access token; that never leaves the backend.
	AccessToken string `json:"access_token"`

	// TokenType is always "bearer"
	TokenType string `json:"token_type"`
}

// UserResponse is returned by the current-user endpoint.
type UserResponse struct {
	Success bool               `json:"success"`
	User    *providers.Profile `json:"user"`
}

// LogoutResponse is returned by the logout endpoint.
type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	GoVersion string `json:"goVersion"`
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Success bool `json:"success"`

	// Error is the machine-readable error code
	Error string `json:"error,omitempty"`

	// Message provides additional human-readable information
	Message string `json:"message"`
}
