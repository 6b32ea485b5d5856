// ABOUTME: Mock store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockStore is an in-memory UserStore and SessionStore for testing.
// It mirrors the SQLite store's uniqueness semantics.
type MockStore struct {
	mu         sync.RWMutex
	users      map[string]*User    // keyed by user ID
	emailIndex map[string]string   // keyed by email -> user ID
	googleIdx  map[string]string   // keyed by google id -> user ID
	githubIdx  map[string]string   // keyed by github id -> user ID
	sessions   map[string]*Session // keyed by session ID
}

// Ensure MockStore implements the store contracts.
var (
	_ UserStore    = (*MockStore)(nil)
	_ SessionStore = (*MockStore)(nil)
)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:      make(map[string]*User),
		emailIndex: make(map[string]string),
		googleIdx:  make(map[string]string),
		githubIdx:  make(map[string]string),
		sessions:   make(map[string]*Session),
	}
}

// CreateUser stores a new user, enforcing the same uniqueness rules as SQLite.
func (m *MockStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.emailIndex[user.Email]; exists {
		return ErrDuplicateEmail
	}
	if user.GoogleID != "" {
		if _, exists := m.googleIdx[user.GoogleID]; exists {
			return ErrDuplicateProviderID
		}
	}
	if user.GitHubID != "" {
		if _, exists := m.githubIdx[user.GitHubID]; exists {
			return ErrDuplicateProviderID
		}
	}

	// Make a copy to avoid external modification
	u := *user
	m.users[u.ID] = &u
	m.emailIndex[u.Email] = u.ID
	if u.GoogleID != "" {
		m.googleIdx[u.GoogleID] = u.ID
	}
	if u.GitHubID != "" {
		m.githubIdx[u.GitHubID] = u.ID
	}

	return nil
}

// GetUser retrieves a user by ID.
func (m *MockStore) GetUser(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	// Return a copy
	result := *u
	return &result, nil
}

// GetUserByEmail retrieves a user by email.
func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emailIndex[email]
	if !ok {
		return nil, ErrUserNotFound
	}

	result := *m.users[id]
	return &result, nil
}

// GetUserByProviderID retrieves a user by a federated provider id.
func (m *MockStore) GetUserByProviderID(ctx context.Context, provider, providerID string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var idx map[string]string
	switch provider {
	case ProviderGoogle:
		idx = m.googleIdx
	case ProviderGitHub:
		idx = m.githubIdx
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	id, ok := idx[providerID]
	if !ok {
		return nil, ErrUserNotFound
	}

	result := *m.users[id]
	return &result, nil
}

// SetRefreshTokenHash overwrites the stored refresh token digest.
func (m *MockStore) SetRefreshTokenHash(ctx context.Context, userID, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}

	u.RefreshTokenHash = digest
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

// CreateSession stores a new legacy session.
func (m *MockStore) CreateSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	m.sessions[s.ID] = &s
	return nil
}

// GetSession retrieves a session by ID. Expired sessions are treated as missing.
func (m *MockStore) GetSession(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, ErrSessionNotFound
	}

	result := *s
	return &result, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (m *MockStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// DeleteExpiredSessions removes all sessions past their expiry.
func (m *MockStore) DeleteExpiredSessions(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, id)
		}
	}
	return nil
}
