package models

import (
	"fmt"
	"time"
)

// User represents a registered chat user.
//
// The public key is a base64-encoded ML-KEM encapsulation key uploaded at
// registration. The server never inspects it beyond size validation; clients
// use it to wrap room keys for this user.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:80" json:"username"`
	PasswordHash string    `gorm:"not null;size:255" json:"-"`
	PublicKey    string    `gorm:"type:text;not null" json:"public_key"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if u.PublicKey == "" {
		return fmt.Errorf("public key is required")
	}
	return nil
}

// APIUser is the wire representation of a user.
type APIUser struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// ToAPI converts the user to its wire representation.
func (u *User) ToAPI() APIUser {
	return APIUser{
		ID:        u.ID,
		Username:  u.Username,
		PublicKey: u.PublicKey,
		IsActive:  u.IsActive,
		CreatedAt: UTCZ(u.CreatedAt),
	}
}

// RoomParticipant is the per-participant entry embedded in connect payloads.
// It deliberately uses user_id as the key name to match the wire protocol.
type RoomParticipant struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
}

// ToParticipant converts the user to a room participant entry.
func (u *User) ToParticipant() RoomParticipant {
	return RoomParticipant{
		UserID:    u.ID,
		Username:  u.Username,
		PublicKey: u.PublicKey,
	}
}

// UTCZ formats a timestamp as UTC with second precision and a Z suffix,
// e.g. 2023-11-28T10:00:00Z. All wire timestamps use this format.
func UTCZ(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
