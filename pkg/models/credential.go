package models

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Login passwords only gate access to the server; message confidentiality
// never depends on them. They are stored as bcrypt hashes and are not
// involved in any key derivation, which all happens client-side.
const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8

	// MaxPasswordLength matches bcrypt's 72-byte input limit. bcrypt
	// silently truncates beyond it, so longer inputs are rejected instead.
	MaxPasswordLength = 72

	// DefaultBcryptCost trades roughly 100ms of hashing time for
	// resistance to offline cracking.
	DefaultBcryptCost = 10
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters")
)

// ValidatePassword enforces the length bounds above. Character-class rules
// are a server policy layered on top; see the auth handler.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword validates the password and returns its bcrypt hash at the
// default cost.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	return string(hash), err
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash reports whether a stored hash was produced at a lower cost
// than the current default (or is not a bcrypt hash at all). Callers can
// transparently upgrade such hashes at login, while they hold the
// plaintext.
func NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < DefaultBcryptCost
}
