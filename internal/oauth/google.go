// ABOUTME: Google OAuth2 provider using the OpenID Connect userinfo endpoint
// ABOUTME: Exchanges authorization codes and maps userinfo to a Profile

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/solstice-labs/gatekeep/internal/store"
)

// googleUserInfoURL is the OpenID Connect userinfo endpoint.
const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Google is the Google OAuth2 provider.
type Google struct {
	config      *oauth2.Config
	userInfoURL string // overridden in tests
}

// NewGoogle creates a Google provider with the standard endpoints and the
// profile+email scopes.
func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "profile", "email"},
		},
		userInfoURL: googleUserInfoURL,
	}
}

// Name returns the provider key.
func (g *Google) Name() string { return store.ProviderGoogle }

// AuthCodeURL returns the Google consent page URL for the given state.
func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's Google profile.
func (g *Google) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}

	client := g.config.Client(ctx, token)
	resp, err := client.Get(g.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
		Email   string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}

	if info.Sub == "" {
		return nil, ErrNoProviderUserID
	}

	return &Profile{
		ProviderUserID: info.Sub,
		Email:          info.Email,
		DisplayName:    info.Name,
		AvatarURL:      info.Picture,
	}, nil
}
