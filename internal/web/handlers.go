// ABOUTME: HTTP handlers for local credentials, token refresh, and federated login
// ABOUTME: Maps auth errors to statuses and keeps secrets out of responses

package web

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/solstice-labs/gatekeep/internal/auth"
	"github.com/solstice-labs/gatekeep/internal/store"
)

// oauthStateCookie carries the anti-forgery state between the start and
// callback legs of a federated login.
const (
	oauthStateCookie = "gatekeep_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// credentials is the request body for login and register.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// userResponse is the public shape of an account. Digests never leave the
// store layer.
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Thumbnail: u.Thumbnail,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	var user *store.User
	if id := s.peekIdentity(r); id != nil {
		user = id.User
	}
	s.renderHome(w, user)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r.URL.Query().Get("error"), s.providerNames())
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.renderRegister(w, r.URL.Query().Get("error"), s.providerNames())
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		s.writeAuthError(w, r, err, s.renderRegister)
		return
	}

	user, err := s.resolver.Signup(r.Context(), creds.Email, creds.Password, creds.Username)
	if err != nil {
		s.writeAuthError(w, r, err, s.renderRegister)
		return
	}

	if err := s.signIn(w, r, user); err != nil {
		s.writeAuthError(w, r, err, s.renderRegister)
		return
	}

	if wantsHTML(r) {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		s.writeAuthError(w, r, err, s.renderLogin)
		return
	}

	user, err := s.resolver.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		s.writeAuthError(w, r, err, s.renderLogin)
		return
	}

	if err := s.signIn(w, r, user); err != nil {
		s.writeAuthError(w, r, err, s.renderLogin)
		return
	}

	if wantsHTML(r) {
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(auth.RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	user, pair, err := s.sessions.Refresh(r.Context(), presented)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			// A rejected refresh ends the browser session too
			s.cookies.ClearTokenCookies(w)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		s.logger.Error("refresh failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	s.cookies.SetTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	if err := s.sessions.Logout(r.Context(), id.User.ID); err != nil {
		s.logger.Error("logout failed", "user_id", id.User.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if s.legacy != nil {
		if cookie, err := r.Cookie(auth.SessionCookie); err == nil && cookie.Value != "" {
			if err := s.legacy.Destroy(r.Context(), cookie.Value); err != nil {
				s.logger.Error("session destroy failed", "error", err)
			}
		}
		s.cookies.ClearSessionCookie(w)
	}
	s.cookies.ClearTokenCookies(w)

	if wantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, toUserResponse(id.User))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	s.renderProfile(w, id.User, string(id.Method))
}

func (s *Server) handleProfileAPI(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        toUserResponse(id.User),
		"google_id":   id.User.GoogleID,
		"github_id":   id.User.GitHubID,
		"auth_method": id.Method,
	})
}

// handleOAuthStart begins a federated login: mint the anti-forgery state,
// park it in a short-lived cookie, and bounce to the provider.
func (s *Server) handleOAuthStart(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := s.providers.Get(name)
		if !ok {
			http.NotFound(w, r)
			return
		}

		state, err := randomState()
		if err != nil {
			s.logger.Error("state generation failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/auth",
			MaxAge:   int(oauthStateTTL.Seconds()),
			HttpOnly: true,
			Secure:   s.cookies.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
	}
}

// handleOAuthCallback finishes a federated login: check the state, exchange
// the code, resolve the account, and sign in.
func (s *Server) handleOAuthCallback(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := s.providers.Get(name)
		if !ok {
			http.NotFound(w, r)
			return
		}

		stateCookie, err := r.Cookie(oauthStateCookie)
		if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
			s.logger.Warn("oauth state mismatch", "provider", name)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid state"})
			return
		}

		// The state is single-use
		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    "",
			Path:     "/auth",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.cookies.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		code := r.URL.Query().Get("code")
		if code == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing code"})
			return
		}

		profile, err := provider.Exchange(r.Context(), code)
		if err != nil {
			s.logger.Error("code exchange failed", "provider", name, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "provider exchange failed"})
			return
		}

		user, err := s.resolver.ResolveFederated(r.Context(), name, profile)
		if err != nil {
			if errors.Is(err, auth.ErrEmailTaken) {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
				return
			}
			s.logger.Error("federated resolve failed", "provider", name, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}

		if err := s.signIn(w, r, user); err != nil {
			s.logger.Error("sign-in failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}

		http.Redirect(w, r, "/profile", http.StatusSeeOther)
	}
}

// signIn establishes the token session and sets auth cookies. When legacy
// sessions are enabled a server-side session rides alongside.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, user *store.User) error {
	pair, err := s.sessions.EstablishSession(r.Context(), user)
	if err != nil {
		return err
	}
	s.cookies.SetTokenCookies(w, pair)

	if s.legacy != nil {
		session, err := s.legacy.Create(r.Context(), user.ID)
		if err != nil {
			return err
		}
		s.cookies.SetSessionCookie(w, session.ID, session.ExpiresAt)
	}

	return nil
}

// writeAuthError maps auth errors to statuses. Browser form submissions get
// the page re-rendered with the message instead of JSON.
func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error, render func(http.ResponseWriter, string, []string)) {
	status, message := http.StatusInternalServerError, "internal error"

	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		status, message = http.StatusBadRequest, verr.Error()
	case errors.Is(err, auth.ErrEmailTaken):
		status, message = http.StatusConflict, "email already registered"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, errBadRequestBody):
		status, message = http.StatusBadRequest, "malformed request body"
	default:
		s.logger.Error("request failed", "error", err)
	}

	if wantsHTML(r) {
		render(w, message, s.providerNames())
		return
	}
	writeJSON(w, status, map[string]string{"error": message})
}

// peekIdentity resolves an identity for pages that render differently when
// signed in but never reject. Only the token path is consulted.
func (s *Server) peekIdentity(r *http.Request) *auth.Identity {
	var found *auth.Identity
	probe := http.HandlerFunc(func(_ http.ResponseWriter, pr *http.Request) {
		found = auth.FromContext(pr.Context())
	})
	s.guard.RequireAuth(probe).ServeHTTP(discardResponse{}, r)
	return found
}

// providerNames lists the configured federated providers for the templates.
func (s *Server) providerNames() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	return names
}

var errBadRequestBody = errors.New("malformed request body")

// readCredentials decodes a JSON body or an HTML form into credentials.
func readCredentials(r *http.Request) (credentials, error) {
	var creds credentials

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			return credentials{}, errBadRequestBody
		}
		return creds, nil
	}

	if err := r.ParseForm(); err != nil {
		return credentials{}, errBadRequestBody
	}
	creds.Email = r.PostFormValue("email")
	creds.Password = r.PostFormValue("password")
	creds.Username = r.PostFormValue("username")
	return creds, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// discardResponse swallows anything the guard writes while peeking.
type discardResponse struct{}

func (discardResponse) Header() http.Header         { return http.Header{} }
func (discardResponse) Write(b []byte) (int, error) { return len(b), nil }
func (discardResponse) WriteHeader(int)             {}
