package login

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/bytebase-demo/github-login/providers"
	"github.com/bytebase-demo/github-login/session/memory"
)

// stubProvider lets tests force either path of the exchange deterministically
type stubProvider struct {
	name         string
	exchangeErr  error
	profileErr   error
	healthErr    error
	profile      *providers.Profile
	exchangeCall int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) AuthorizationURL(state string) string {
	return "https://example.com/authorize?state=" + state
}

func (s *stubProvider) ExchangeCode(_ context.Context, _ string) (*oauth2.Token, error) {
	s.exchangeCall++
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	return &oauth2.Token{AccessToken: "stub-provider-token", TokenType: "bearer"}, nil
}

func (s *stubProvider) FetchProfile(_ context.Context, _ string) (*providers.Profile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	if s.profile != nil {
		return s.profile, nil
	}
	return &providers.Profile{
		ID:       "1001",
		Login:    "octocat",
		Name:     "Octo Cat",
		Email:    "octocat@example.com",
		Provider: "github",
	}, nil
}

func (s *stubProvider) HealthCheck(_ context.Context) error { return s.healthErr }

func newTestServer(t *testing.T, provider providers.Provider, cfg *ServerConfig) (*Server, *memory.Store) {
	t.Helper()

	sessions := memory.New(slog.Default())
	t.Cleanup(sessions.Stop)

	srv, err := NewServer(provider, sessions, cfg, slog.Default())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv, sessions
}

func TestNewServer_Validation(t *testing.T) {
	sessions := memory.New(nil)
	defer sessions.Stop()

	if _, err := NewServer(nil, sessions, nil, nil); err == nil {
		t.Error("NewServer() should reject a nil provider")
	}
	if _, err := NewServer(&stubProvider{name: "stub"}, nil, nil, nil); err == nil {
		t.Error("NewServer() should reject a nil session store")
	}
}

func TestServer_ExchangeCode_EmptyCode(t *testing.T) {
	srv, sessions := newTestServer(t, &stubProvider{name: "stub"}, nil)

	_, err := srv.ExchangeCode(context.Background(), "", "state", "192.0.2.1")
	if err == nil {
		t.Fatal("ExchangeCode() expected error for empty code")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != ErrorCodeMissingInput {
		t.Errorf("error = %v, want code %s", err, ErrorCodeMissingInput)
	}
	if sessions.Len() != 0 {
		t.Errorf("sessions created = %d, want 0", sessions.Len())
	}
}

func TestServer_ExchangeCode_LivePath(t *testing.T) {
	stub := &stubProvider{name: "stub"}
	srv, sessions := newTestServer(t, stub, nil)

	resp, err := srv.ExchangeCode(context.Background(), "code-abc", "state", "192.0.2.1")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	if !resp.Success {
		t.Error("Success = false, want true")
	}
	if resp.AccessToken == "" {
		t.Error("AccessToken is empty")
	}
	if resp.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want %q", resp.TokenType, "bearer")
	}
	if resp.User.Login != "octocat" {
		t.Errorf("User.Login = %q, want %q", resp.User.Login, "octocat")
	}
	if sessions.Len() != 1 {
		t.Errorf("sessions = %d, want 1", sessions.Len())
	}

	// The session token resolves to the stored profile
	profile, err := srv.CurrentUser(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if profile.Login != "octocat" {
		t.Errorf("CurrentUser().Login = %q, want %q", profile.Login, "octocat")
	}
}

func TestServer_ExchangeCode_FallbackPath(t *testing.T) {
	tests := []struct {
		name string
		stub *stubProvider
	}{
		{"token exchange fails", &stubProvider{name: "stub", exchangeErr: errors.New("network down")}},
		{"profile fetch fails", &stubProvider{name: "stub", profileErr: errors.New("api error")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.stub, nil)

			resp, err := srv.ExchangeCode(context.Background(), "code-abc", "state", "192.0.2.1")
			if err != nil {
				t.Fatalf("ExchangeCode() error = %v, want fallback success", err)
			}

			if !resp.Success || resp.AccessToken == "" {
				t.Error("fallback did not produce a success-shaped result")
			}
			if resp.User.Login != "demo-user" {
				t.Errorf("User.Login = %q, want demo identity", resp.User.Login)
			}
			if resp.User.Provider != "github" {
				t.Errorf("User.Provider = %q, want %q", resp.User.Provider, "github")
			}
		})
	}
}

func TestServer_ExchangeCode_FallbackDisabled(t *testing.T) {
	stub := &stubProvider{name: "stub", exchangeErr: errors.New("network down")}
	srv, sessions := newTestServer(t, stub, &ServerConfig{DisableDemoFallback: true})

	_, err := srv.ExchangeCode(context.Background(), "code-abc", "state", "192.0.2.1")
	if err == nil {
		t.Fatal("ExchangeCode() expected error with fallback disabled")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != ErrorCodeProviderError {
		t.Errorf("error = %v, want code %s", err, ErrorCodeProviderError)
	}
	if sessions.Len() != 0 {
		t.Errorf("sessions = %d, want 0", sessions.Len())
	}
}

func TestServer_CurrentUser_Unauthorized(t *testing.T) {
	srv, _ := newTestServer(t, &stubProvider{name: "stub"}, nil)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"unknown token", "never-issued"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.CurrentUser(context.Background(), tt.token)

			var apiErr *Error
			if !errors.As(err, &apiErr) || apiErr.Code != ErrorCodeUnauthorized {
				t.Errorf("error = %v, want code %s", err, ErrorCodeUnauthorized)
			}
		})
	}
}

func TestServer_Logout(t *testing.T) {
	srv, sessions := newTestServer(t, &stubProvider{name: "stub"}, nil)
	ctx := context.Background()

	resp, err := srv.ExchangeCode(ctx, "code-abc", "state", "192.0.2.1")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	srv.Logout(ctx, resp.AccessToken, "192.0.2.1")

	if sessions.Len() != 0 {
		t.Errorf("sessions after logout = %d, want 0", sessions.Len())
	}
	if _, err := srv.CurrentUser(ctx, resp.AccessToken); err == nil {
		t.Error("CurrentUser() should fail after logout")
	}

	// Unknown and empty tokens are no-ops
	srv.Logout(ctx, "never-issued", "192.0.2.1")
	srv.Logout(ctx, "", "192.0.2.1")
}

func TestServer_HealthCheck(t *testing.T) {
	tests := []struct {
		name      string
		healthErr error
		wantErr   bool
	}{
		{"healthy provider", nil, false},
		{"unhealthy provider", errors.New("unreachable"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &stubProvider{name: "stub", healthErr: tt.healthErr}, nil)

			err := srv.HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServer_SessionTTLFromConfig(t *testing.T) {
	srv, _ := newTestServer(t, &stubProvider{name: "stub"}, &ServerConfig{
		SessionTTL: 40 * time.Millisecond,
	})
	ctx := context.Background()

	resp, err := srv.ExchangeCode(ctx, "code-abc", "state", "192.0.2.1")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	if _, err := srv.CurrentUser(ctx, resp.AccessToken); err != nil {
		t.Fatalf("CurrentUser() before expiry error = %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	if _, err := srv.CurrentUser(ctx, resp.AccessToken); err == nil {
		t.Error("CurrentUser() should fail after the session TTL")
	}
}
