// ABOUTME: Package documentation for the auth package
// ABOUTME: Explains the token service, identity resolver, and request guard

// Package auth implements gatekeep's authentication core: bcrypt secret
// hashing, the JWT access/refresh token service, the identity resolver for
// local and federated logins, the refresh rotation protocol, and the HTTP
// guard that authenticates requests.
//
// Components are constructed once at startup and passed to the HTTP layer
// explicitly; there is no global strategy registry. The resolver and token
// service return typed errors; only the HTTP layer translates them into
// status codes and redirects.
package auth
