// ABOUTME: Tests verifying MockStore matches SQLite store semantics
// ABOUTME: Keeps the in-memory test double honest about uniqueness and expiry

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_DuplicateEmail(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.CreateUser(ctx, testUser("user-1", "dup@example.com")))
	assert.ErrorIs(t, m.CreateUser(ctx, testUser("user-2", "dup@example.com")), ErrDuplicateEmail)
}

func TestMockStore_DuplicateProviderID(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	u1 := testUser("user-1", "a@example.com")
	u1.GitHubID = "gh-1"
	require.NoError(t, m.CreateUser(ctx, u1))

	u2 := testUser("user-2", "b@example.com")
	u2.GitHubID = "gh-1"
	assert.ErrorIs(t, m.CreateUser(ctx, u2), ErrDuplicateProviderID)

	// Same id on the other provider is a different namespace
	u3 := testUser("user-3", "c@example.com")
	u3.GoogleID = "gh-1"
	require.NoError(t, m.CreateUser(ctx, u3))
}

func TestMockStore_ReturnsCopies(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.CreateUser(ctx, testUser("user-1", "copy@example.com")))

	got, err := m.GetUser(ctx, "user-1")
	require.NoError(t, err)
	got.Email = "mutated@example.com"

	again, err := m.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "copy@example.com", again.Email)
}

func TestMockStore_RefreshHashLifecycle(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.CreateUser(ctx, testUser("user-1", "r@example.com")))
	require.NoError(t, m.SetRefreshTokenHash(ctx, "user-1", "digest"))

	got, err := m.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "digest", got.RefreshTokenHash)

	require.NoError(t, m.SetRefreshTokenHash(ctx, "user-1", ""))
	got, err = m.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, got.RefreshTokenHash)

	assert.ErrorIs(t, m.SetRefreshTokenHash(ctx, "missing", "d"), ErrUserNotFound)
}

func TestMockStore_SessionExpiry(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	require.NoError(t, m.CreateSession(ctx, &Session{
		ID:        "old",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	require.NoError(t, m.CreateSession(ctx, &Session{
		ID:        "new",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	_, err := m.GetSession(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, m.DeleteExpiredSessions(ctx))

	_, err = m.GetSession(ctx, "new")
	assert.NoError(t, err)
}
