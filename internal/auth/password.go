package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the adaptive work factor required for stored credentials.
const bcryptCost = 12

// PasswordHasher produces and verifies salted one-way password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type bcryptHasher struct{}

// NewPasswordHasher returns a bcrypt-backed hasher.
func NewPasswordHasher() PasswordHasher {
	return bcryptHasher{}
}

// Hash generates a salted digest. Two hashes of the same plaintext differ.
func (bcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. bcrypt's comparison is
// constant-time with respect to where a mismatch occurs.
func (bcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
