// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Covers user CRUD, uniqueness enforcement, and refresh digest updates

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func testUser(id, email string) *User {
	now := time.Now().UTC().Truncate(time.Second)
	return &User{
		ID:        id,
		Email:     email,
		Username:  "tester",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteStore_CreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := testUser("user-1", "alice@example.com")
	user.PasswordHash = "$2a$10$fakehashfakehashfakehash"
	user.Thumbnail = "https://example.com/a.png"
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
	assert.Equal(t, user.Username, got.Username)
	assert.Equal(t, user.Thumbnail, got.Thumbnail)
	assert.Empty(t, got.GoogleID)
	assert.Empty(t, got.RefreshTokenHash)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byEmail.ID)
}

func TestSQLiteStore_GetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSQLiteStore_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("user-1", "dup@example.com")))

	err := s.CreateUser(ctx, testUser("user-2", "dup@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	// The stored record is unaffected by the failed attempt
	got, err := s.GetUserByEmail(ctx, "dup@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
}

func TestSQLiteStore_DuplicateProviderID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u1 := testUser("user-1", "one@example.com")
	u1.GoogleID = "google-123"
	require.NoError(t, s.CreateUser(ctx, u1))

	u2 := testUser("user-2", "two@example.com")
	u2.GoogleID = "google-123"
	assert.ErrorIs(t, s.CreateUser(ctx, u2), ErrDuplicateProviderID)

	u3 := testUser("user-3", "three@example.com")
	u3.GitHubID = "github-9"
	require.NoError(t, s.CreateUser(ctx, u3))

	u4 := testUser("user-4", "four@example.com")
	u4.GitHubID = "github-9"
	assert.ErrorIs(t, s.CreateUser(ctx, u4), ErrDuplicateProviderID)
}

func TestSQLiteStore_EmptyProviderIDsDontCollide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Local-only accounts have no provider ids; the UNIQUE indexes must not
	// treat the absent values as duplicates.
	require.NoError(t, s.CreateUser(ctx, testUser("user-1", "a@example.com")))
	require.NoError(t, s.CreateUser(ctx, testUser("user-2", "b@example.com")))
}

func TestSQLiteStore_GetUserByProviderID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := testUser("user-1", "fed@example.com")
	u.GoogleID = "g-42"
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByProviderID(ctx, ProviderGoogle, "g-42")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)

	// The same id is never matched against another provider's column
	_, err = s.GetUserByProviderID(ctx, ProviderGitHub, "g-42")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.GetUserByProviderID(ctx, "gitlab", "g-42")
	assert.Error(t, err)
}

func TestSQLiteStore_SetRefreshTokenHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("user-1", "r@example.com")))

	require.NoError(t, s.SetRefreshTokenHash(ctx, "user-1", "digest-1"))
	got, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "digest-1", got.RefreshTokenHash)

	// Overwrite (rotation)
	require.NoError(t, s.SetRefreshTokenHash(ctx, "user-1", "digest-2"))
	got, err = s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "digest-2", got.RefreshTokenHash)

	// Clear (logout)
	require.NoError(t, s.SetRefreshTokenHash(ctx, "user-1", ""))
	got, err = s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, got.RefreshTokenHash)

	assert.ErrorIs(t, s.SetRefreshTokenHash(ctx, "missing", "digest"), ErrUserNotFound)
}

func TestSQLiteStore_Sessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("user-1", "s@example.com")))

	session := &Session{
		ID:        "session-abc",
		UserID:    "user-1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, session))

	got, err := s.GetSession(ctx, "session-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	require.NoError(t, s.DeleteSession(ctx, "session-abc"))
	_, err = s.GetSession(ctx, "session-abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting again is not an error
	require.NoError(t, s.DeleteSession(ctx, "session-abc"))
}

func TestSQLiteStore_ExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("user-1", "e@example.com")))

	expired := &Session{
		ID:        "session-old",
		UserID:    "user-1",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, expired))

	live := &Session{
		ID:        "session-new",
		UserID:    "user-1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, live))

	// Expired sessions are invisible
	_, err := s.GetSession(ctx, "session-old")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Sweep removes them without touching live sessions
	require.NoError(t, s.DeleteExpiredSessions(ctx))
	_, err = s.GetSession(ctx, "session-new")
	assert.NoError(t, err)
}
