// ABOUTME: Legacy server-side cookie sessions kept for the pre-token deployment mode
// ABOUTME: Random session ids stored server-side with periodic expiry sweeps

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/solstice-labs/gatekeep/internal/store"
)

// SessionDuration is the lifetime of a legacy session.
const SessionDuration = 7 * 24 * time.Hour

// LegacySessions is the server-side session provider. It exists alongside
// the stateless token model as the second deployment mode behind the guard;
// which mode a deployment uses is a configuration choice.
type LegacySessions struct {
	sessions store.SessionStore
	users    store.UserStore
	logger   *slog.Logger
}

// NewLegacySessions creates the legacy session provider.
func NewLegacySessions(sessions store.SessionStore, users store.UserStore) *LegacySessions {
	return &LegacySessions{
		sessions: sessions,
		users:    users,
		logger:   slog.Default().With("component", "sessions"),
	}
}

// Create starts a new session for the user and returns it.
func (l *LegacySessions) Create(ctx context.Context, userID string) (*store.Session, error) {
	id, err := generateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	session := &store.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(SessionDuration),
	}

	if err := l.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	return session, nil
}

// Resolve looks up a session id and returns its user. Expired or unknown
// sessions return store.ErrSessionNotFound.
func (l *LegacySessions) Resolve(ctx context.Context, sessionID string) (*store.User, error) {
	session, err := l.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return l.users.GetUser(ctx, session.UserID)
}

// Destroy removes a session; destroying a missing session is not an error.
func (l *LegacySessions) Destroy(ctx context.Context, sessionID string) error {
	return l.sessions.DeleteSession(ctx, sessionID)
}

// Sweep deletes expired sessions. Run periodically by the server.
func (l *LegacySessions) Sweep(ctx context.Context) error {
	return l.sessions.DeleteExpiredSessions(ctx)
}

// generateSecureToken returns a URL-safe random token with n bytes of entropy.
func generateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
