// ABOUTME: GitHub OAuth2 provider using the REST user and emails endpoints
// ABOUTME: Handles private email addresses via the /user/emails fallback

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/solstice-labs/gatekeep/internal/store"
)

// githubAPIURL is the GitHub REST API base.
const githubAPIURL = "https://api.github.com"

// GitHub is the GitHub OAuth2 provider.
type GitHub struct {
	config *oauth2.Config
	apiURL string // overridden in tests
}

// NewGitHub creates a GitHub provider with the standard endpoints and the
// user:email scope.
func NewGitHub(clientID, clientSecret, redirectURL string) *GitHub {
	return &GitHub{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.GitHub,
			Scopes:       []string{"user:email"},
		},
		apiURL: githubAPIURL,
	}
}

// Name returns the provider key.
func (g *GitHub) Name() string { return store.ProviderGitHub }

// AuthCodeURL returns the GitHub consent page URL for the given state.
func (g *GitHub) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's GitHub profile.
// GitHub profiles may hide the email; when the user endpoint returns none,
// the primary verified address is looked up separately and an empty email is
// accepted as a last resort.
func (g *GitHub) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}

	client := g.config.Client(ctx, token)

	resp, err := client.Get(g.apiURL + "/user")
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user endpoint returned status %d", resp.StatusCode)
	}

	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}

	if user.ID == 0 {
		return nil, ErrNoProviderUserID
	}

	email := user.Email
	if email == "" {
		email = g.primaryEmail(ctx, client)
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Login
	}

	return &Profile{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Email:          email,
		DisplayName:    displayName,
		AvatarURL:      user.AvatarURL,
	}, nil
}

// primaryEmail fetches the primary verified email, returning "" when the
// lookup fails or no verified address exists.
func (g *GitHub) primaryEmail(ctx context.Context, client *http.Client) string {
	resp, err := client.Get(g.apiURL + "/user/emails")
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return ""
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}
