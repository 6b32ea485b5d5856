// ABOUTME: Tests for the OAuth2 providers against fake token and API servers
// ABOUTME: Covers profile mapping, GitHub private email fallback, and the registry

package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// newFakeProviderServer serves a token endpoint at /token plus the given API
// handlers, and returns the server.
func newFakeProviderServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fake-access-token",
			"token_type":   "bearer",
		})
	})
	for pattern, h := range handlers {
		mux.HandleFunc(pattern, h)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEndpoint(srv *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func TestGoogle_AuthCodeURL(t *testing.T) {
	g := NewGoogle("client-id", "client-secret", "https://app.example.com/auth/google/redirect")

	url := g.AuthCodeURL("anti-forgery-state")

	for _, want := range []string{"client_id=client-id", "state=anti-forgery-state", "redirect_uri="} {
		if !strings.Contains(url, want) {
			t.Errorf("AuthCodeURL() = %q, missing %q", url, want)
		}
	}
}

func TestGoogle_Exchange(t *testing.T) {
	srv := newFakeProviderServer(t, map[string]http.HandlerFunc{
		"/userinfo": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"sub":     "google-sub-1",
				"name":    "Alice Example",
				"picture": "https://example.com/alice.png",
				"email":   "alice@example.com",
			})
		},
	})

	g := NewGoogle("client-id", "client-secret", "https://app.example.com/cb")
	g.config.Endpoint = testEndpoint(srv)
	g.userInfoURL = srv.URL + "/userinfo"

	profile, err := g.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if profile.ProviderUserID != "google-sub-1" {
		t.Errorf("ProviderUserID = %q", profile.ProviderUserID)
	}
	if profile.Email != "alice@example.com" {
		t.Errorf("Email = %q", profile.Email)
	}
	if profile.DisplayName != "Alice Example" {
		t.Errorf("DisplayName = %q", profile.DisplayName)
	}
	if profile.AvatarURL != "https://example.com/alice.png" {
		t.Errorf("AvatarURL = %q", profile.AvatarURL)
	}
}

func TestGoogle_Exchange_MissingSub(t *testing.T) {
	srv := newFakeProviderServer(t, map[string]http.HandlerFunc{
		"/userinfo": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"email": "noid@example.com"})
		},
	})

	g := NewGoogle("client-id", "client-secret", "https://app.example.com/cb")
	g.config.Endpoint = testEndpoint(srv)
	g.userInfoURL = srv.URL + "/userinfo"

	if _, err := g.Exchange(context.Background(), "auth-code"); err != ErrNoProviderUserID {
		t.Errorf("Exchange() error = %v, want ErrNoProviderUserID", err)
	}
}

func TestGitHub_Exchange(t *testing.T) {
	srv := newFakeProviderServer(t, map[string]http.HandlerFunc{
		"/user": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"id":         int64(12345),
				"login":      "octocat",
				"name":       "Octo Cat",
				"avatar_url": "https://example.com/octo.png",
				"email":      "octo@example.com",
			})
		},
	})

	g := NewGitHub("client-id", "client-secret", "https://app.example.com/cb")
	g.config.Endpoint = testEndpoint(srv)
	g.apiURL = srv.URL

	profile, err := g.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if profile.ProviderUserID != "12345" {
		t.Errorf("ProviderUserID = %q, want the numeric id as a string", profile.ProviderUserID)
	}
	if profile.Email != "octo@example.com" {
		t.Errorf("Email = %q", profile.Email)
	}
	if profile.DisplayName != "Octo Cat" {
		t.Errorf("DisplayName = %q", profile.DisplayName)
	}
}

func TestGitHub_Exchange_PrivateEmailFallback(t *testing.T) {
	srv := newFakeProviderServer(t, map[string]http.HandlerFunc{
		"/user": func(w http.ResponseWriter, r *http.Request) {
			// Email hidden on the public profile
			json.NewEncoder(w).Encode(map[string]any{
				"id":    int64(777),
				"login": "shy-dev",
			})
		},
		"/user/emails": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]map[string]any{
				{"email": "old@example.com", "primary": false, "verified": true},
				{"email": "shy@example.com", "primary": true, "verified": true},
				{"email": "spam@example.com", "primary": false, "verified": false},
			})
		},
	})

	g := NewGitHub("client-id", "client-secret", "https://app.example.com/cb")
	g.config.Endpoint = testEndpoint(srv)
	g.apiURL = srv.URL

	profile, err := g.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if profile.Email != "shy@example.com" {
		t.Errorf("Email = %q, want the primary verified address", profile.Email)
	}
	// No display name on the profile: the login stands in
	if profile.DisplayName != "shy-dev" {
		t.Errorf("DisplayName = %q, want login fallback", profile.DisplayName)
	}
}

func TestGitHub_Exchange_NoVerifiedEmail(t *testing.T) {
	srv := newFakeProviderServer(t, map[string]http.HandlerFunc{
		"/user": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"id": int64(42), "login": "nomail"})
		},
		"/user/emails": func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]map[string]any{
				{"email": "unverified@example.com", "primary": true, "verified": false},
			})
		},
	})

	g := NewGitHub("client-id", "client-secret", "https://app.example.com/cb")
	g.config.Endpoint = testEndpoint(srv)
	g.apiURL = srv.URL

	profile, err := g.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if profile.Email != "" {
		t.Errorf("Email = %q, want empty when nothing is verified", profile.Email)
	}
}

func TestRegistry(t *testing.T) {
	google := NewGoogle("gid", "gsecret", "https://app.example.com/cb")
	github := NewGitHub("hid", "hsecret", "https://app.example.com/cb")

	r := NewRegistry(google, github)

	if p, ok := r.Get("google"); !ok || p.Name() != "google" {
		t.Error("google provider not registered")
	}
	if p, ok := r.Get("github"); !ok || p.Name() != "github" {
		t.Error("github provider not registered")
	}
	if _, ok := r.Get("gitlab"); ok {
		t.Error("unknown provider should not resolve")
	}
}
