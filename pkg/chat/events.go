package chat

import "github.com/kyberchat/kyberchat/pkg/models"

// Outbound event names. Every frame the gateway writes carries one of these.
const (
	EventConnected        = "connected"
	EventError            = "error"
	EventRoomCreated      = "room_created"
	EventUsersInvited     = "users_invited"
	EventInvitedToRoom    = "invited_to_room"
	EventRoomJoined       = "room_joined"
	EventUserJoined       = "user_joined"
	EventUserLeft         = "user_left"
	EventRoomLeft         = "room_left"
	EventRoomDeleted      = "room_deleted"
	EventRotationRequired = "rotation_required"
	EventKeyRotated       = "key_rotated"
	EventNewMessage       = "new_message"
	EventMessagesHistory  = "messages_history"
)

// Rotation reasons carried by rotation_required and key_rotated events.
const (
	RotationReasonUserLeft = "user_left"
	RotationReasonPending  = "pending_from_leave"
	RotationReasonManual   = "manual_rotation"
)

// RoomState is one element of the connected payload: a room plus everything
// a client needs to resume it, including the full wrap map so history at any
// version stays decryptable.
type RoomState struct {
	Room          models.APIRoom           `json:"room"`
	Participants  []models.RoomParticipant `json:"participants"`
	EncryptedKeys map[int]string           `json:"encrypted_symmetric_keys"`
}

// ConnectedPayload acknowledges a successful websocket authentication.
type ConnectedPayload struct {
	Message string         `json:"message"`
	User    models.APIUser `json:"user"`
	Rooms   []RoomState    `json:"rooms"`
}

// RoomCreatedPayload announces a new room to its participants.
type RoomCreatedPayload struct {
	Room            models.APIRoom `json:"room"`
	CreatedBy       string         `json:"created_by"`
	EncryptionSetup bool           `json:"encryption_setup"`
}

// UsersInvitedPayload announces new members and the key rotation their
// arrival forced. Wraps travel separately: each invitee gets theirs in
// invited_to_room, existing members refresh from the ledger.
type UsersInvitedPayload struct {
	RoomID        uint             `json:"room_id"`
	InvitedUsers  []models.APIUser `json:"invited_users"`
	InvitedBy     string           `json:"invited_by"`
	NewKeyVersion int              `json:"new_key_version"`
}

// InvitedToRoomPayload is delivered to each invitee's sessions with their
// own wrapped key.
type InvitedToRoomPayload struct {
	Room          models.APIRoom `json:"room"`
	InvitedBy     string         `json:"invited_by"`
	EncryptedKey  string         `json:"encrypted_key"`
	NewKeyVersion int            `json:"new_key_version"`
}

// RoomJoinedPayload acknowledges a join to the calling session.
type RoomJoinedPayload struct {
	Room models.APIRoom `json:"room"`
}

// UserJoinedPayload tells existing subscribers someone joined.
type UserJoinedPayload struct {
	RoomID uint           `json:"room_id"`
	User   models.APIUser `json:"user"`
}

// UserLeftPayload tells remaining members a participant left and that a
// rotation is owed.
type UserLeftPayload struct {
	RoomID           uint   `json:"room_id"`
	UserID           uint   `json:"user_id"`
	Username         string `json:"username"`
	RotationRequired bool   `json:"rotation_required"`
}

// RoomLeftPayload acknowledges a leave to the calling session.
type RoomLeftPayload struct {
	RoomID uint `json:"room_id"`
}

// RoomDeletedPayload reports that the last participant left and the room is
// gone.
type RoomDeletedPayload struct {
	RoomID uint `json:"room_id"`
}

// LeftUser identifies the departed member inside rotation_required.
type LeftUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// RotationRequiredPayload asks one remaining participant to perform a key
// rotation.
type RotationRequiredPayload struct {
	RoomID   uint      `json:"room_id"`
	Reason   string    `json:"reason"`
	LeftUser *LeftUser `json:"left_user,omitempty"`
}

// KeyRotatedPayload is delivered per participant with that participant's
// wrap at the new version.
type KeyRotatedPayload struct {
	RoomID        uint   `json:"room_id"`
	NewKeyVersion int    `json:"new_key_version"`
	Reason        string `json:"reason"`
	RotatedBy     string `json:"rotated_by"`
	EncryptedKey  string `json:"encrypted_key"`
}

// MessagesHistoryPayload is one page of room history, oldest first.
type MessagesHistoryPayload struct {
	RoomID   uint                `json:"room_id"`
	Messages []models.APIMessage `json:"messages"`
	Count    int                 `json:"count"`
	Offset   int                 `json:"offset"`
	HasMore  bool                `json:"has_more"`
}

// ErrorPayload is the error event body.
type ErrorPayload struct {
	Message string `json:"message"`
}
