package client

import (
	"net/url"
	"strings"
	"testing"
)

func TestBuildAuthorizeURL(t *testing.T) {
	cfg := OAuthConfig{
		ClientID:    "test-client-id",
		RedirectURI: "http://localhost:5173/",
	}

	raw := BuildAuthorizeURL(cfg, "state-token")

	if !strings.HasPrefix(raw, defaultAuthorizeEndpoint+"?") {
		t.Fatalf("URL %q does not use the GitHub authorize endpoint", raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing authorize URL: %v", err)
	}
	q := u.Query()

	checks := map[string]string{
		"client_id":    "test-client-id",
		"redirect_uri": "http://localhost:5173/",
		"scope":        defaultScope,
		"state":        "state-token",
		"allow_signup": "true",
	}
	for param, want := range checks {
		if got := q.Get(param); got != want {
			t.Errorf("param %s = %q, want %q", param, got, want)
		}
	}
}

func TestBuildAuthorizeURL_Overrides(t *testing.T) {
	cfg := OAuthConfig{
		ClientID:          "id",
		RedirectURI:       "http://example.com/cb",
		Scope:             "read:user",
		AuthorizeEndpoint: "https://github.example.com/login/oauth/authorize",
	}

	raw := BuildAuthorizeURL(cfg, "s")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing authorize URL: %v", err)
	}
	if u.Host != "github.example.com" {
		t.Errorf("host = %q, want github.example.com", u.Host)
	}
	if got := u.Query().Get("scope"); got != "read:user" {
		t.Errorf("scope = %q, want read:user", got)
	}
}
