// ABOUTME: OAuth2 provider abstraction for federated login
// ABOUTME: Wraps the authorization-code exchange and normalizes provider profiles

package oauth

import (
	"context"
	"errors"
)

// ErrNoProviderUserID is returned when a provider's profile response lacks a
// stable user id. Profiles without one can't be linked to an account.
var ErrNoProviderUserID = errors.New("provider profile missing user id")

// Profile is the normalized identity returned by a provider after a
// successful code exchange. Email may be empty (GitHub users can hide
// theirs). The core treats the profile as trusted input once the exchange
// succeeds.
type Profile struct {
	ProviderUserID string
	Email          string
	DisplayName    string
	AvatarURL      string
}

// Provider is a single OAuth2 identity provider. Exchange performs the full
// authorization-code exchange and profile fetch in one call; cancellation
// and timeouts ride on the context.
type Provider interface {
	// Name returns the provider key ("google", "github").
	Name() string

	// AuthCodeURL returns the provider consent page URL for the given
	// anti-forgery state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the user's profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Registry holds the configured providers keyed by name.
type Registry map[string]Provider

// NewRegistry builds a registry from the given providers.
func NewRegistry(providers ...Provider) Registry {
	r := make(Registry, len(providers))
	for _, p := range providers {
		r[p.Name()] = p
	}
	return r
}

// Get returns the provider with the given name, or false if not configured.
func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}
