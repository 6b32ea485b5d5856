// ABOUTME: Cookie placement policy for token pairs and legacy sessions
// ABOUTME: Names, paths, lifetimes, and security attributes are part of the wire contract

package auth

import (
	"net/http"
	"time"
)

// Cookie names and paths. The refresh cookie is scoped to the refresh
// endpoint so browsers never send the long-lived token anywhere else.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
	SessionCookie      = "gatekeep_session"
	RefreshCookiePath  = "/auth/refresh-token"
)

// CookiePolicy emits and clears auth cookies. Secure should be true in
// production deployments (HTTPS only).
type CookiePolicy struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SetTokenCookies sets the access and refresh token cookies for a pair.
// Both are HttpOnly and SameSite=Strict; the access cookie covers the whole
// application path while the refresh cookie is restricted to the refresh
// endpoint.
func (p CookiePolicy) SetTokenCookies(w http.ResponseWriter, pair TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(p.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     RefreshCookiePath,
		MaxAge:   int(p.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearTokenCookies expires both token cookies.
func (p CookiePolicy) ClearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// SetSessionCookie sets the legacy session cookie.
func (p CookiePolicy) SetSessionCookie(w http.ResponseWriter, sessionID string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the legacy session cookie.
func (p CookiePolicy) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
