// ABOUTME: Package documentation for the oauth package
// ABOUTME: Explains the provider abstraction and its Google/GitHub implementations

// Package oauth implements the federated-login side of gatekeep.
//
// Each provider wraps a golang.org/x/oauth2 configuration and exposes a
// single Exchange operation that trades an authorization code for a
// normalized Profile. Providers are constructed at startup from config and
// injected into the HTTP layer; there is no global registration.
package oauth
