// Package validation checks client-supplied identity material and message
// fields: usernames, passwords, post-quantum public keys, and IVs.
//
// Rules are exposed two ways: as direct check functions returning
// descriptive errors, and as custom tags on a validator instance for
// struct-level validation of request payloads.
package validation

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Username constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 80
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Key and IV size constraints, in decoded bytes.
var (
	// mlkemKeySizes are the ML-KEM encapsulation key sizes:
	// ML-KEM-512, ML-KEM-768, ML-KEM-1024.
	mlkemKeySizes = []int{800, 1184, 1568}

	// mldsaKeySizes are the ML-DSA verification key sizes:
	// ML-DSA-44, ML-DSA-65, ML-DSA-87.
	mldsaKeySizes = []int{1312, 1952, 2592}
)

// IVLength is the required decoded IV length in bytes.
const IVLength = 16

// Validation errors with stable messages for API and gateway surfaces.
var (
	ErrUsernameLength  = fmt.Errorf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength)
	ErrUsernameCharset = errors.New("username can only contain letters, numbers, _ and -")
	ErrKeyNotBase64    = errors.New("invalid base64 format")
	ErrIVLength        = fmt.Errorf("iv must decode to exactly %d bytes", IVLength)

	ErrPasswordNoUpper = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLower = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoDigit = errors.New("password must contain at least one digit")
)

// New returns a validator with the chat domain rules registered:
//
//	username      — 3-80 chars of [a-zA-Z0-9_-]
//	mlkem_pubkey  — base64, decoded size one of 800/1184/1568
//	mldsa_pubkey  — base64, decoded size one of 1312/1952/2592
//	aes_iv        — base64, decoded size exactly 16
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report wire field names (json tags) in validation errors, not Go
	// struct field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tag names or nil functions.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return Username(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("mlkem_pubkey", func(fl validator.FieldLevel) bool {
		return PublicKey(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("mldsa_pubkey", func(fl validator.FieldLevel) bool {
		return SignatureKey(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("aes_iv", func(fl validator.FieldLevel) bool {
		return IV(fl.Field().String()) == nil
	})

	return v
}

// Username validates username length and charset.
func Username(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return ErrUsernameLength
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameCharset
	}
	return nil
}

// PublicKey validates a base64-encoded ML-KEM encapsulation key.
func PublicKey(key string) error {
	return keySize(key, mlkemKeySizes)
}

// SignatureKey validates a base64-encoded ML-DSA verification key.
func SignatureKey(key string) error {
	return keySize(key, mldsaKeySizes)
}

func keySize(key string, validSizes []int) error {
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return ErrKeyNotBase64
	}
	for _, size := range validSizes {
		if len(decoded) == size {
			return nil
		}
	}
	return fmt.Errorf("invalid public key size: %d bytes, expected one of %v", len(decoded), validSizes)
}

// IV validates a base64-encoded AES IV.
func IV(iv string) error {
	decoded, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return ErrKeyNotBase64
	}
	if len(decoded) != IVLength {
		return ErrIVLength
	}
	return nil
}

// PasswordStrength enforces the optional strength policy: at least one
// uppercase letter, one lowercase letter, and one digit. Length limits are
// always enforced separately by models.ValidatePassword.
func PasswordStrength(password string) error {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper {
		return ErrPasswordNoUpper
	}
	if !hasLower {
		return ErrPasswordNoLower
	}
	if !hasDigit {
		return ErrPasswordNoDigit
	}
	return nil
}
