// ABOUTME: Store interfaces and data types for gatekeep persistence
// ABOUTME: Defines the User identity record and the UserStore/SessionStore contracts

package store

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned when a requested user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound is returned when a session doesn't exist or is expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrDuplicateEmail is returned when creating a user with an email that is
// already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicateProviderID is returned when creating a user with a provider id
// that is already linked to another account.
var ErrDuplicateProviderID = errors.New("provider id already linked")

// Provider names accepted by GetUserByProviderID.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// User represents a single identity record. An account can authenticate when
// it has a password hash, at least one provider id, or both.
type User struct {
	ID           string
	Email        string // unique, stored lowercase
	PasswordHash string // bcrypt digest, empty for federated-only accounts
	GoogleID     string // unique when present
	GitHubID     string // unique when present
	Username     string
	Thumbnail    string

	// RefreshTokenHash is the bcrypt digest of the single active refresh
	// token, or empty when no refresh session exists. Never the plaintext.
	RefreshTokenHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanAuthenticate reports whether the record has at least one usable
// credential (local password or linked provider).
func (u *User) CanAuthenticate() bool {
	return u.PasswordHash != "" || u.GoogleID != "" || u.GitHubID != ""
}

// Session represents a legacy server-side cookie session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// UserStore defines the persistence contract for identity records.
// Single-record operations are atomic; uniqueness violations surface as
// ErrDuplicateEmail or ErrDuplicateProviderID.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByProviderID(ctx context.Context, provider, providerID string) (*User, error)

	// SetRefreshTokenHash overwrites the stored refresh token digest.
	// An empty digest clears the refresh session.
	SetRefreshTokenHash(ctx context.Context, userID, digest string) error

	// Close releases any resources held by the store
	Close() error
}

// SessionStore defines the persistence contract for legacy sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) error
}
