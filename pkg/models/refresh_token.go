package models

import "time"

// RefreshToken records an issued refresh token by its JWT ID so it can be
// revoked on logout or rotation. The token itself is never stored; possession
// of a refresh JWT whose jti is absent or revoked here is rejected.
type RefreshToken struct {
	JTI       string    `gorm:"primaryKey;size:36" json:"jti"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for RefreshToken.
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired reports whether the token's validity window has passed.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsUsable reports whether the token may still be exchanged for an access token.
func (t *RefreshToken) IsUsable() bool {
	return !t.Revoked && !t.IsExpired()
}
