package models

import (
	"bytes"
	"encoding/base64"
	"time"
)

// Message types.
const (
	// MessageTypeUser is a client-encrypted chat message.
	MessageTypeUser = "user"
	// MessageTypeSystem is a server-generated informational message
	// (membership changes). Content is base64 plaintext, not ciphertext.
	MessageTypeSystem = "system"
)

// Message is an append-only ciphertext record. The server never decrypts
// content; it stores what clients send, tagged with the key version the
// sender used so receivers can pick the right key from their ledger.
//
// SenderID is nil for system messages. Messages are never modified after
// insert; history ordering is by creation time with id as tiebreak.
type Message struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	RoomID           uint      `gorm:"not null;index:idx_messages_room_created" json:"room_id"`
	SenderID         *uint     `gorm:"index" json:"sender_id"`
	MessageType      string    `gorm:"not null;default:user;size:16" json:"message_type"`
	EncryptedContent string    `gorm:"type:text;not null" json:"encrypted_content"`
	IV               string    `gorm:"not null;size:64" json:"iv"`
	KeyVersion       int       `gorm:"not null" json:"key_version"`
	Delivered        bool      `gorm:"not null;default:false" json:"delivered"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index:idx_messages_room_created" json:"created_at"`

	// Sender is preloaded for history reads; nil for system messages.
	Sender *User `gorm:"foreignKey:SenderID" json:"-"`
}

// TableName returns the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// IsSystem reports whether this is a server-generated system message.
func (m *Message) IsSystem() bool {
	return m.MessageType == MessageTypeSystem
}

// NewSystemMessage builds a system message for a room. Content is stored
// base64-encoded with a placeholder IV; clients recognise
// message_type=system and skip decryption.
func NewSystemMessage(roomID uint, content string, keyVersion int) *Message {
	return &Message{
		RoomID:           roomID,
		SenderID:         nil,
		MessageType:      MessageTypeSystem,
		EncryptedContent: base64.StdEncoding.EncodeToString([]byte(content)),
		IV:               SystemMessageIV(),
		KeyVersion:       keyVersion,
	}
}

// SystemMessageIV returns the placeholder IV stored on system messages:
// base64 of sixteen ASCII '0' bytes.
func SystemMessageIV() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("0"), 16))
}

// APIMessage is the wire representation of a message, used both for
// new_message fan-out and messages_history items.
type APIMessage struct {
	MessageID        uint   `json:"message_id"`
	RoomID           uint   `json:"room_id"`
	SenderID         *uint  `json:"sender_id"`
	SenderUsername   string `json:"sender_username,omitempty"`
	EncryptedContent string `json:"encrypted_content"`
	IV               string `json:"iv"`
	KeyVersion       int    `json:"key_version"`
	MessageType      string `json:"message_type"`
	CreatedAt        string `json:"created_at"`
}

// ToAPI converts the message to its wire representation. senderUsername may
// be empty for system messages.
func (m *Message) ToAPI(senderUsername string) APIMessage {
	return APIMessage{
		MessageID:        m.ID,
		RoomID:           m.RoomID,
		SenderID:         m.SenderID,
		SenderUsername:   senderUsername,
		EncryptedContent: m.EncryptedContent,
		IV:               m.IV,
		KeyVersion:       m.KeyVersion,
		MessageType:      m.MessageType,
		CreatedAt:        UTCZ(m.CreatedAt),
	}
}
