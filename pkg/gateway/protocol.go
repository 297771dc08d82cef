package gateway

import (
	"encoding/json"

	"github.com/kyberchat/kyberchat/pkg/models"
)

// Inbound event names. Everything else on the wire is outbound and named in
// pkg/chat.
const (
	ActionCreateRoom  = "create_room"
	ActionInvite      = "invite"
	ActionJoin        = "join"
	ActionLeave       = "leave"
	ActionRotateKey   = "rotate_key"
	ActionSendMessage = "send_message"
	ActionGetMessages = "get_messages"
)

// knownActions bounds the inbound-event metric label to server-defined
// names.
var knownActions = map[string]bool{
	ActionCreateRoom:  true,
	ActionInvite:      true,
	ActionJoin:        true,
	ActionLeave:       true,
	ActionRotateKey:   true,
	ActionSendMessage: true,
	ActionGetMessages: true,
}

// Envelope frames every websocket message in both directions. Data is left
// raw inbound so each handler can decode its own payload; unknown fields
// inside are ignored.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// authFrame is the first frame of the handshake.
type authFrame struct {
	Token string `json:"token" validate:"required"`
}

// keyWrapPayload is one per-user wrapped key as clients submit it.
type keyWrapPayload struct {
	UserID       uint   `json:"user_id" validate:"required"`
	EncryptedKey string `json:"encrypted_key" validate:"required"`
}

// toKeyWraps converts wire wraps to the store representation.
func toKeyWraps(in []keyWrapPayload) []models.KeyWrap {
	out := make([]models.KeyWrap, len(in))
	for i, w := range in {
		out[i] = models.KeyWrap{UserID: w.UserID, EncryptedKey: w.EncryptedKey}
	}
	return out
}

type createRoomRequest struct {
	Name           string `json:"name"`
	ParticipantIDs []uint `json:"participant_ids"`
	// IsGroup defaults to len(ParticipantIDs) > 1 when absent.
	IsGroup       *bool            `json:"is_group"`
	EncryptedKeys []keyWrapPayload `json:"encrypted_keys" validate:"omitempty,dive"`
}

type inviteRequest struct {
	RoomID           uint             `json:"room_id" validate:"required"`
	InvitedUserIDs   []uint           `json:"invited_user_ids" validate:"required,min=1"`
	NewEncryptedKeys []keyWrapPayload `json:"new_encrypted_keys" validate:"required,min=1,dive"`
	// ExpectedVersion lets a retrying client pin the version it wrapped
	// for; zero means "whatever is next".
	ExpectedVersion int `json:"expected_version"`
}

// roomRequest covers join and leave.
type roomRequest struct {
	RoomID uint `json:"room_id" validate:"required"`
}

type rotateKeyRequest struct {
	RoomID           uint             `json:"room_id" validate:"required"`
	NewEncryptedKeys []keyWrapPayload `json:"new_encrypted_keys" validate:"required,min=1,dive"`
	ExpectedVersion  int              `json:"expected_version"`
}

type sendMessageRequest struct {
	RoomID           uint   `json:"room_id" validate:"required"`
	EncryptedContent string `json:"encrypted_content" validate:"required"`
	IV               string `json:"iv" validate:"required,aes_iv"`
	KeyVersion       int    `json:"key_version" validate:"required,min=1"`
}

type getMessagesRequest struct {
	RoomID uint `json:"room_id" validate:"required"`
	// Limit distinguishes absent (default) from an explicit zero, which
	// requests an empty page.
	Limit  *int `json:"limit"`
	Offset int  `json:"offset" validate:"omitempty,min=0"`
}

// encodeFrame marshals one outbound envelope.
func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
