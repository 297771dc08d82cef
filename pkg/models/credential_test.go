package models

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"too short", "1234567", ErrPasswordTooShort},
		{"minimum length", "12345678", nil},
		{"bcrypt limit", strings.Repeat("a", 72), nil},
		{"over bcrypt limit", strings.Repeat("a", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); err != tt.wantErr {
				t.Errorf("ValidatePassword() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	const password = "correct horse battery"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == password {
		t.Fatal("hash equals the plaintext")
	}

	if !VerifyPassword(password, hash) {
		t.Error("VerifyPassword() rejected the original password")
	}
	if VerifyPassword("wrong horse", hash) {
		t.Error("VerifyPassword() accepted a different password")
	}
}

func TestHashPassword_RejectsInvalid(t *testing.T) {
	if _, err := HashPassword("short"); err != ErrPasswordTooShort {
		t.Errorf("HashPassword() error = %v, want %v", err, ErrPasswordTooShort)
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, err := bcrypt.GenerateFromPassword([]byte("some password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	if !NeedsRehash(string(weak)) {
		t.Error("NeedsRehash() = false for a hash below the default cost")
	}

	current, err := HashPassword("some password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if NeedsRehash(current) {
		t.Error("NeedsRehash() = true for a hash at the default cost")
	}

	if !NeedsRehash("not-a-bcrypt-hash") {
		t.Error("NeedsRehash() = false for a malformed hash")
	}
}
