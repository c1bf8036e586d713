package login

import (
	"errors"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := NewError(ErrorCodeMissingInput, "Missing authorization code", http.StatusBadRequest)
	if got := err.Error(); got != "missing_input: Missing authorization code" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantCode   string
		wantStatus int
	}{
		{"missing input", ErrMissingInput("m"), ErrorCodeMissingInput, http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized("m"), ErrorCodeUnauthorized, http.StatusUnauthorized},
		{"provider error", ErrProviderError("m"), ErrorCodeProviderError, http.StatusInternalServerError},
		{"server error", ErrServerError("m"), ErrorCodeServerError, http.StatusInternalServerError},
		{"rate limit exceeded", ErrRateLimitExceeded("m"), ErrorCodeRateLimitExceeded, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.wantStatus)
			}
			if tt.err.Message != "m" {
				t.Errorf("Message = %q", tt.err.Message)
			}
		})
	}
}

func TestError_AsTarget(t *testing.T) {
	var wrapped error = ErrUnauthorized("Invalid access token")

	var apiErr *Error
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("errors.As should match *Error")
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d", apiErr.Status)
	}
}
