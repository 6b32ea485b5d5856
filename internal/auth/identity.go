// ABOUTME: Identity resolution for local credentials and federated profiles
// ABOUTME: Finds-or-creates the canonical user record and enforces linking invariants

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/solstice-labs/gatekeep/internal/oauth"
	"github.com/solstice-labs/gatekeep/internal/store"
)

// ErrInvalidCredentials is returned for every failed local login: unknown
// email, federated-only account, or wrong password. The message is identical
// in all three cases so callers can't enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken is returned when signing up with an already-registered email.
var ErrEmailTaken = errors.New("email already in use")

// ValidationError describes a user-fixable input problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// dummyDigest is a valid bcrypt digest compared against when the account
// can't be found or has no password, so all login failures take roughly the
// same time.
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Resolver converges identities from local credentials and federated
// profiles onto canonical user records.
type Resolver struct {
	users  store.UserStore
	logger *slog.Logger
}

// NewResolver creates an identity resolver backed by the given user store.
func NewResolver(users store.UserStore) *Resolver {
	return &Resolver{
		users:  users,
		logger: slog.Default().With("component", "auth"),
	}
}

// Signup registers a new local-credential account. The email is
// lowercase-normalized, the password must pass the strength policy, and the
// username defaults to the email local-part.
func (r *Resolver) Signup(ctx context.Context, email, password, username string) (*store.User, error) {
	email = NormalizeEmail(email)

	if email == "" {
		return nil, &ValidationError{Field: "email", Reason: "required"}
	}
	if !emailPattern.MatchString(email) {
		return nil, &ValidationError{Field: "email", Reason: "malformed"}
	}
	if err := checkPasswordStrength(password); err != nil {
		return nil, err
	}

	if username == "" {
		username = emailLocalPart(email)
	}

	digest, err := HashSecret(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := &store.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: digest,
		Username:     username,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := r.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	r.logger.Info("user registered", "id", user.ID)
	return user, nil
}

// Login authenticates a local credential pair. Unknown email, federated-only
// account, and wrong password all return the same ErrInvalidCredentials,
// with a dummy bcrypt comparison keeping the timing uniform.
func (r *Resolver) Login(ctx context.Context, email, password string) (*store.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := r.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_, _ = VerifySecret(password, dummyDigest)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if user.PasswordHash == "" {
		// Federated-only account; indistinguishable from a bad password
		_, _ = VerifySecret(password, dummyDigest)
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifySecret(password, user.PasswordHash)
	if err != nil {
		// A digest we can't parse is an invariant violation, never a
		// clean authentication failure
		r.logger.Error("corrupt password digest", "user_id", user.ID)
		return nil, fmt.Errorf("verifying password for user %s: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ResolveFederated finds or creates the account linked to a federated
// profile. Lookup is strictly by (provider, provider id); two providers
// reporting the same email do not merge into one account. If a profile's
// email is already registered to a different account, the creation conflicts
// and ErrEmailTaken is returned rather than silently linking.
func (r *Resolver) ResolveFederated(ctx context.Context, provider string, profile *oauth.Profile) (*store.User, error) {
	if profile.ProviderUserID == "" {
		return nil, oauth.ErrNoProviderUserID
	}

	user, err := r.users.GetUserByProviderID(ctx, provider, profile.ProviderUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, fmt.Errorf("looking up provider id: %w", err)
	}

	email := NormalizeEmail(profile.Email)
	username := profile.DisplayName
	if username == "" && email != "" {
		username = emailLocalPart(email)
	}
	if username == "" {
		username = provider + "-" + profile.ProviderUserID
	}

	now := time.Now().UTC()
	user = &store.User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  username,
		Thumbnail: profile.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch provider {
	case store.ProviderGoogle:
		user.GoogleID = profile.ProviderUserID
	case store.ProviderGitHub:
		user.GitHubID = profile.ProviderUserID
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	if err := r.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateProviderID) {
			// Lost a race with a concurrent first login; the record exists now
			return r.users.GetUserByProviderID(ctx, provider, profile.ProviderUserID)
		}
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating federated user: %w", err)
	}

	r.logger.Info("federated user registered", "id", user.ID, "provider", provider)
	return user, nil
}

// NormalizeEmail trims whitespace and lowercases an email address.
// Emails are compared and stored in this form everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// checkPasswordStrength enforces the signup strength policy: 8-72 bytes
// with lowercase, uppercase, digit, and symbol characters.
func checkPasswordStrength(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Reason: "required"}
	}
	if len(password) < 8 {
		return &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	if len(password) > MaxSecretLength {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at most %d bytes", MaxSecretLength)}
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, c := range password {
		switch {
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsDigit(c):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		return &ValidationError{
			Field:  "password",
			Reason: "must contain lowercase, uppercase, digit, and symbol characters",
		}
	}

	return nil
}
