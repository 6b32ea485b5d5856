// ABOUTME: Refresh token rotation protocol with fail-closed revocation
// ABOUTME: One active refresh token per account; any sign of misuse clears the session

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/solstice-labs/gatekeep/internal/store"
)

// SessionManager owns the refresh-token session lifecycle: establishing a
// session on login, rotating it on refresh, and revoking it on logout.
//
// Only one refresh token is valid per account at a time; establishing or
// rotating a session implicitly revokes the previous token. Concurrent
// refreshes for the same user are last-write-wins: the loser's token stops
// matching the stored digest and its next refresh fails.
type SessionManager struct {
	users  store.UserStore
	tokens *TokenService
	logger *slog.Logger
}

// NewSessionManager creates a session manager.
func NewSessionManager(users store.UserStore, tokens *TokenService) *SessionManager {
	return &SessionManager{
		users:  users,
		tokens: tokens,
		logger: slog.Default().With("component", "auth"),
	}
}

// EstablishSession mints a token pair for the user and stores the digest of
// the refresh token, revoking any previously active refresh token.
func (m *SessionManager) EstablishSession(ctx context.Context, user *store.User) (TokenPair, error) {
	pair, err := m.tokens.IssuePair(user)
	if err != nil {
		return TokenPair{}, err
	}

	digest, err := HashToken(pair.RefreshToken)
	if err != nil {
		return TokenPair{}, fmt.Errorf("hashing refresh token: %w", err)
	}

	if err := m.users.SetRefreshTokenHash(ctx, user.ID, digest); err != nil {
		return TokenPair{}, fmt.Errorf("storing refresh digest: %w", err)
	}

	return pair, nil
}

// Refresh exchanges a presented refresh token for a new token pair.
//
// The presented token must carry a valid signature and expiry, name a known
// subject with an active refresh session, and match the stored digest. The
// digest comparison is what defends against replay of a stolen token after
// the legitimate client has rotated. A digest mismatch clears the stored
// digest entirely (fail closed), forcing re-login. Every failure surfaces as
// ErrInvalidToken; diagnostics stay in the logs.
func (m *SessionManager) Refresh(ctx context.Context, presented string) (*store.User, TokenPair, error) {
	claims, err := m.tokens.Verify(presented, TokenTypeRefresh)
	if err != nil {
		m.logger.Debug("refresh token rejected", "reason", err)
		return nil, TokenPair{}, ErrInvalidToken
	}

	user, err := m.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, TokenPair{}, ErrInvalidToken
		}
		return nil, TokenPair{}, fmt.Errorf("looking up user: %w", err)
	}

	if user.RefreshTokenHash == "" {
		// No active session (logged out, or already revoked)
		return nil, TokenPair{}, ErrInvalidToken
	}

	ok, err := VerifyToken(presented, user.RefreshTokenHash)
	if err != nil {
		m.logger.Error("corrupt refresh digest", "user_id", user.ID)
		m.revoke(ctx, user.ID)
		return nil, TokenPair{}, ErrInvalidToken
	}
	if !ok {
		// Valid signature but stale digest: the token was already rotated
		// away. Treat as misuse and kill the whole session.
		m.logger.Warn("refresh token digest mismatch, revoking session", "user_id", user.ID)
		m.revoke(ctx, user.ID)
		return nil, TokenPair{}, ErrInvalidToken
	}

	pair, err := m.EstablishSession(ctx, user)
	if err != nil {
		return nil, TokenPair{}, err
	}

	return user, pair, nil
}

// Logout revokes the user's refresh session. It is idempotent: logging out
// an already logged-out or unknown user is not an error.
func (m *SessionManager) Logout(ctx context.Context, userID string) error {
	err := m.users.SetRefreshTokenHash(ctx, userID, "")
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		return fmt.Errorf("clearing refresh digest: %w", err)
	}
	return nil
}

// revoke clears the stored digest, logging but not propagating failures:
// the caller is already rejecting the request.
func (m *SessionManager) revoke(ctx context.Context, userID string) {
	if err := m.users.SetRefreshTokenHash(ctx, userID, ""); err != nil {
		m.logger.Error("failed to revoke refresh session", "user_id", userID, "error", err)
	}
}
