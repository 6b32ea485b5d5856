// ABOUTME: HTTP server for gatekeep with route registration and lifecycle
// ABOUTME: Owns graceful shutdown and the legacy session expiry sweeper

package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/solstice-labs/gatekeep/internal/auth"
	"github.com/solstice-labs/gatekeep/internal/oauth"
	"github.com/solstice-labs/gatekeep/internal/store"
)

// sweepInterval is how often expired legacy sessions are purged.
const sweepInterval = time.Hour

// Options carries the dependencies and settings for a Server.
type Options struct {
	Addr      string
	Users     store.UserStore
	Resolver  *auth.Resolver
	Sessions  *auth.SessionManager
	Legacy    *auth.LegacySessions // nil disables the legacy session mode
	Guard     *auth.Guard
	Providers oauth.Registry
	Cookies   auth.CookiePolicy
}

// Server is the gatekeep HTTP server.
type Server struct {
	users      store.UserStore
	resolver   *auth.Resolver
	sessions   *auth.SessionManager
	legacy     *auth.LegacySessions
	guard      *auth.Guard
	providers  oauth.Registry
	cookies    auth.CookiePolicy
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a server and registers its routes.
func NewServer(opts Options) *Server {
	s := &Server{
		users:     opts.Users,
		resolver:  opts.Resolver,
		sessions:  opts.Sessions,
		legacy:    opts.Legacy,
		guard:     opts.Guard,
		providers: opts.Providers,
		cookies:   opts.Cookies,
		logger:    slog.Default().With("component", "web"),
	}

	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// RegisterRoutes registers all routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Public pages
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /auth/login", s.handleLoginPage)
	mux.HandleFunc("GET /auth/register", s.handleRegisterPage)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Credential operations
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/refresh-token", s.handleRefresh)

	// Federated login. Registered per provider so unknown names 404
	// without reaching a handler.
	for name := range s.providers {
		mux.HandleFunc("GET /auth/"+name, s.handleOAuthStart(name))
		mux.HandleFunc("GET /auth/"+name+"/redirect", s.handleOAuthCallback(name))
	}

	// Authenticated routes
	mux.Handle("POST /auth/logout", s.guard.RequireAuth(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /auth/me", s.guard.RequireAuth(http.HandlerFunc(s.handleMe)))
	mux.Handle("GET /profile", s.guard.RequireAuth(http.HandlerFunc(s.handleProfile)))
	mux.Handle("GET /profile/api", s.guard.RequireAuth(http.HandlerFunc(s.handleProfileAPI)))
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails. Shutdown drains in-flight requests with a fresh timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.legacy != nil {
		go s.runSessionSweeper(ctx)
	}

	var serverErr error
	select {
	case <-ctx.Done():
	case serverErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http shutdown failed", "error", err)
		if serverErr == nil {
			serverErr = err
		}
	}

	return serverErr
}

// runSessionSweeper periodically deletes expired legacy sessions.
func (s *Server) runSessionSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.legacy.Sweep(ctx); err != nil {
				s.logger.Error("session sweep failed", "error", err)
			}
		}
	}
}
