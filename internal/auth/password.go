// ABOUTME: Secret hashing built on bcrypt for passwords and refresh token digests
// ABOUTME: Constant-time verification with corrupt-digest detection

package auth

import (
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost factor used for all digests.
const HashCost = 10

// MaxSecretLength is the longest secret bcrypt can hash directly.
// Longer inputs (refresh tokens) are pre-hashed with SHA-256.
const MaxSecretLength = 72

// ErrCorruptDigest is returned when a stored digest cannot be parsed.
// A mismatched secret is not an error; a digest we can't even read is an
// invariant violation and must never be treated as a clean mismatch.
var ErrCorruptDigest = errors.New("corrupt digest")

// HashSecret hashes a login secret with a random salt. The salt and cost are
// embedded in the digest, so verification is self-contained.
func HashSecret(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), HashCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifySecret compares a secret against a digest in constant time.
// A mismatch returns (false, nil); only a malformed digest returns an error.
func VerifySecret(secret, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrCorruptDigest
}

// HashToken hashes a refresh token for storage. Tokens exceed bcrypt's
// 72-byte input limit, so they are reduced with SHA-256 first.
func HashToken(token string) (string, error) {
	sum := sha256.Sum256([]byte(token))
	digest, err := bcrypt.GenerateFromPassword(sum[:], HashCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyToken compares a refresh token against its stored digest.
// Same contract as VerifySecret.
func VerifyToken(token, digest string) (bool, error) {
	sum := sha256.Sum256([]byte(token))
	err := bcrypt.CompareHashAndPassword([]byte(digest), sum[:])
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrCorruptDigest
}
