// Package web serves the gatekeep HTTP surface.
//
// # Overview
//
// The server exposes three groups of routes:
//
//   - Public pages and credential operations: home, login, register, and the
//     token refresh endpoint.
//   - Federated login: per-provider start and callback routes guarded by an
//     anti-forgery state cookie.
//   - Authenticated routes behind the auth guard: profile pages, the identity
//     endpoint, and logout.
//
// # Routes
//
//	GET  /                          Home page
//	GET  /healthz                   Health check
//	GET  /auth/login                Login page
//	POST /auth/login                Local login (JSON or form)
//	GET  /auth/register             Registration page
//	POST /auth/register             Local signup (JSON or form)
//	POST /auth/refresh-token        Rotate the token pair
//	GET  /auth/{provider}           Start a federated login
//	GET  /auth/{provider}/redirect  Provider callback
//	POST /auth/logout               End the session (authenticated)
//	GET  /auth/me                   Current identity as JSON (authenticated)
//	GET  /profile                   Profile page (authenticated)
//	GET  /profile/api               Profile as JSON (authenticated)
//
// # Content Negotiation
//
// Credential handlers accept both JSON bodies and HTML form submissions.
// Requests accepting text/html get redirects and rendered pages; everything
// else gets JSON. Error responses carry a single generic message per status;
// diagnostics stay in the logs.
//
// # Lifecycle
//
// Run blocks until the context is cancelled, then drains in-flight requests
// with a shutdown timeout. When legacy sessions are enabled an hourly sweeper
// purges expired rows.
package web
