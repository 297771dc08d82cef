package models

import "time"

// SymmetricKey is one entry in a room's key ledger: the room key at a given
// version, wrapped for a single participant with their ML-KEM public key.
// The server stores the wrap as an opaque base64 blob and never sees the
// plaintext key.
//
// Ledger invariants:
//   - (room_id, user_id, key_version) is unique.
//   - versions per room form a contiguous range [1 .. room.current_key_version].
//   - an entry is revoked exactly when a newer version exists for the same
//     room and user; revocation is bulk-timestamped at rotation time.
type SymmetricKey struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RoomID       uint       `gorm:"not null;index;uniqueIndex:idx_symmetric_keys_room_user_version" json:"room_id"`
	UserID       uint       `gorm:"not null;index;uniqueIndex:idx_symmetric_keys_room_user_version" json:"user_id"`
	KeyVersion   int        `gorm:"not null;uniqueIndex:idx_symmetric_keys_room_user_version" json:"key_version"`
	EncryptedKey string     `gorm:"type:text;not null" json:"encrypted_key"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
}

// TableName returns the table name for SymmetricKey.
func (SymmetricKey) TableName() string {
	return "symmetric_keys"
}

// IsRevoked reports whether the entry has been superseded by a newer version.
func (k *SymmetricKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// KeyWrap pairs a user with their wrapped room key, as supplied by clients on
// create, invite and rotate.
type KeyWrap struct {
	UserID       uint   `json:"user_id"`
	EncryptedKey string `json:"encrypted_key"`
}
