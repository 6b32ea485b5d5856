// ABOUTME: JWT access and refresh token minting and verification
// ABOUTME: Uses HS256 with distinct secrets per token type and a type discriminator claim

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/solstice-labs/gatekeep/internal/store"
)

// Token errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")
	ErrMissingClaim   = errors.New("missing required claim")
)

// MinSecretLength is the minimum length for signing secrets.
const MinSecretLength = 32

// TokenType discriminates access tokens from refresh tokens. The type is
// carried as a signed claim and checked on verification, so the two are
// never interchangeable even if the secrets were misconfigured to match.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the signed claims bundle carried by both token types.
// Subject holds the user id.
type Claims struct {
	Email     string    `json:"email"`
	TokenType TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is an access+refresh pair issued together. Both tokens share the
// same subject id and email at issuance time.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService mints and verifies signed, time-boxed access and refresh
// tokens. Access and refresh tokens use distinct signing secrets so a leaked
// access token can never be replayed as a refresh token.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a token service. Both secrets must be at least
// MinSecretLength bytes and must differ from each other.
func NewTokenService(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(accessSecret) < MinSecretLength {
		return nil, fmt.Errorf("access token secret must be at least %d bytes", MinSecretLength)
	}
	if len(refreshSecret) < MinSecretLength {
		return nil, fmt.Errorf("refresh token secret must be at least %d bytes", MinSecretLength)
	}
	if string(accessSecret) == string(refreshSecret) {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	return &TokenService{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// AccessTTL returns the access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken mints a short-lived access token for the user.
func (s *TokenService) IssueAccessToken(user *store.User) (string, error) {
	return s.issue(user, TokenTypeAccess, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken mints a long-lived refresh token for the user.
func (s *TokenService) IssueRefreshToken(user *store.User) (string, error) {
	return s.issue(user, TokenTypeRefresh, s.refreshSecret, s.refreshTTL)
}

// IssuePair mints an access+refresh pair for the user.
func (s *TokenService) IssuePair(user *store.User) (TokenPair, error) {
	access, err := s.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issuing access token: %w", err)
	}
	refresh, err := s.IssueRefreshToken(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issuing refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) issue(user *store.User, typ TokenType, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:     user.Email,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify validates a token against the secret for the expected type and
// returns its claims. Expiry is always recomputed from the signed claim.
// Failures are distinguishable: ErrExpiredToken, ErrWrongTokenType, or
// ErrInvalidToken for anything else.
func (s *TokenService) Verify(tokenString string, expected TokenType) (*Claims, error) {
	secret := s.accessSecret
	if expected == TokenTypeRefresh {
		secret = s.refreshSecret
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != expected {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	return claims, nil
}
