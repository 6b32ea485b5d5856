// ABOUTME: Unit tests for the refresh rotation protocol
// ABOUTME: Covers rotation, replay rejection, fail-closed revocation, and logout

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solstice-labs/gatekeep/internal/store"
)

func newRefreshFixture(t *testing.T) (*SessionManager, *store.MockStore, *store.User) {
	t.Helper()

	m := store.NewMockStore()
	svc := newTestTokenService(t, 15*time.Minute, 7*24*time.Hour)
	mgr := NewSessionManager(m, svc)

	user := &store.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "$2a$10$unused",
	}
	if err := m.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	return mgr, m, user
}

func TestSessionManager_EstablishSession(t *testing.T) {
	mgr, m, user := newRefreshFixture(t)
	ctx := context.Background()

	pair, err := mgr.EstablishSession(ctx, user)
	if err != nil {
		t.Fatalf("EstablishSession() error = %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("EstablishSession() returned empty tokens")
	}

	stored, err := m.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if stored.RefreshTokenHash == "" {
		t.Fatal("refresh digest not stored")
	}
	if stored.RefreshTokenHash == pair.RefreshToken {
		t.Fatal("stored digest must never be the plaintext token")
	}

	ok, err := VerifyToken(pair.RefreshToken, stored.RefreshTokenHash)
	if err != nil || !ok {
		t.Errorf("stored digest does not match issued token (ok=%v err=%v)", ok, err)
	}
}

func TestSessionManager_Refresh_RotatesToken(t *testing.T) {
	mgr, _, user := newRefreshFixture(t)
	ctx := context.Background()

	pair, err := mgr.EstablishSession(ctx, user)
	if err != nil {
		t.Fatalf("EstablishSession() error = %v", err)
	}

	got, newPair, err := mgr.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Refresh() user = %q, want %q", got.ID, user.ID)
	}
	if newPair.RefreshToken == pair.RefreshToken {
		t.Error("Refresh() must mint a new refresh token")
	}

	// The old token was implicitly revoked by the rotation
	if _, _, err := mgr.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh(old token) error = %v, want ErrInvalidToken", err)
	}

	// And the replay attempt killed the whole session, so even the new
	// token is now dead (fail closed)
	if _, _, err := mgr.Refresh(ctx, newPair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh(new token after misuse) error = %v, want ErrInvalidToken", err)
	}
}

func TestSessionManager_Refresh_MismatchClearsDigest(t *testing.T) {
	mgr, m, user := newRefreshFixture(t)
	ctx := context.Background()

	first, err := mgr.EstablishSession(ctx, user)
	if err != nil {
		t.Fatalf("EstablishSession() error = %v", err)
	}

	// A second login rotates the stored digest; the first session's token
	// still has a valid signature but no longer matches
	if _, err := mgr.EstablishSession(ctx, user); err != nil {
		t.Fatalf("EstablishSession() error = %v", err)
	}

	if _, _, err := mgr.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Refresh(stale token) error = %v, want ErrInvalidToken", err)
	}

	stored, err := m.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if stored.RefreshTokenHash != "" {
		t.Error("digest must be cleared after a mismatch (fail closed)")
	}
}

func TestSessionManager_Refresh_NoStoredDigest(t *testing.T) {
	mgr, _, user := newRefreshFixture(t)
	ctx := context.Background()

	pair, err := mgr.EstablishSession(ctx, user)
	if err != nil {
		t.Fatalf("EstablishSession() error = %v", err)
	}

	if err := mgr.Logout(ctx, user.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if _, _, err := mgr.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh() after logout error = %v, want ErrInvalidToken", err)
	}
}

func TestSessionManager_Refresh_GarbageToken(t *testing.T) {
	mgr, _, _ := newRefreshFixture(t)

	if _, _, err := mgr.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh() error = %v, want ErrInvalidToken", err)
	}
}

func TestSessionManager_Refresh_AccessTokenRejected(t *testing.T) {
	mgr, _, user := newRefreshFixture(t)
	ctx := context.Background()

	pair, err := mgr.EstablishSession(ctx, user)
	if err != nil {
		t.Fatalf("EstablishSession() error = %v", err)
	}

	// An access token is never accepted by the refresh endpoint
	if _, _, err := mgr.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh(access token) error = %v, want ErrInvalidToken", err)
	}
}

func TestSessionManager_Logout_Idempotent(t *testing.T) {
	mgr, m, user := newRefreshFixture(t)
	ctx := context.Background()

	if _, err := mgr.EstablishSession(ctx, user); err != nil {
		t.Fatalf("EstablishSession() error = %v", err)
	}

	if err := mgr.Logout(ctx, user.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := mgr.Logout(ctx, user.ID); err != nil {
		t.Fatalf("second Logout() error = %v", err)
	}
	if err := mgr.Logout(ctx, "never-existed"); err != nil {
		t.Fatalf("Logout(unknown user) error = %v", err)
	}

	stored, err := m.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if stored.RefreshTokenHash != "" {
		t.Error("Logout() must clear the stored digest")
	}
}
