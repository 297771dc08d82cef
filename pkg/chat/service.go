// Package chat implements the room, ledger and messaging operations behind
// the websocket gateway: create/invite/leave with their forced key
// rotations, manual rotation, message append and history, and the connect
// replay that brings a session up to date.
//
// The service owns event emission. Every mutation emits its events before
// returning, inside the same call that committed the transaction, so a
// key_rotated for version v is always observed before any new_message at v.
// The store rolls back failed mutations before the service sees the error,
// so a failed operation emits nothing.
package chat

import (
	"context"

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/pkg/models"
	"github.com/kyberchat/kyberchat/pkg/store"
)

// History page bounds. The default applies when a client omits the limit;
// the cap applies always.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 50
)

// Caller identifies the authenticated session an operation arrived on.
type Caller struct {
	SessionID string
	UserID    uint
	Username  string
}

// Service wires the store to the notifier.
type Service struct {
	store    store.Store
	notifier Notifier
}

// NewService creates a chat service.
func NewService(st store.Store, n Notifier) *Service {
	return &Service{store: st, notifier: n}
}

// ConnectResult is everything the gateway needs to finish a handshake:
// the connected payload, the rooms to subscribe the session to, and the
// rooms still owing a rotation from an earlier leave.
type ConnectResult struct {
	Payload      *ConnectedPayload
	RoomIDs      []uint
	PendingRooms []uint
}

// Connect assembles the session bootstrap for a user: profile, rooms with
// participants, and the user's full wrap map per room. Revoked wraps are
// included: history written under an old version is unreadable without them.
//
// Connect is the one operation that emits nothing itself. The gateway must
// register and subscribe the session before any frame is written, so it owns
// the handshake sequence.
func (s *Service) Connect(ctx context.Context, userID uint) (*ConnectResult, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rooms, err := s.store.ListRoomsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := &ConnectResult{
		Payload: &ConnectedPayload{
			Message: "Successfully connected",
			User:    user.ToAPI(),
			Rooms:   make([]RoomState, 0, len(rooms)),
		},
	}

	for _, room := range rooms {
		keys, err := s.store.GetRoomKeysForUser(ctx, room.ID, userID)
		if err != nil {
			return nil, err
		}
		wraps := make(map[int]string, len(keys))
		for _, k := range keys {
			wraps[k.KeyVersion] = k.EncryptedKey
		}

		participants := make([]models.RoomParticipant, len(room.Participants))
		for i := range room.Participants {
			participants[i] = room.Participants[i].ToParticipant()
		}

		res.Payload.Rooms = append(res.Payload.Rooms, RoomState{
			Room:          room.ToAPI(false),
			Participants:  participants,
			EncryptedKeys: wraps,
		})
		res.RoomIDs = append(res.RoomIDs, room.ID)
		if room.RotationPending {
			res.PendingRooms = append(res.PendingRooms, room.ID)
		}
	}

	return res, nil
}

// CreateRoomInput carries a create_room request.
type CreateRoomInput struct {
	Name           string
	ParticipantIDs []uint
	// IsGroup defaults to len(ParticipantIDs) > 1 when nil.
	IsGroup *bool
	Wraps   []models.KeyWrap
}

// CreateRoom creates a room at ledger version 1, subscribes every
// participant's live sessions and announces the room to them.
func (s *Service) CreateRoom(ctx context.Context, caller Caller, in CreateRoomInput) (*models.Room, error) {
	room, err := s.store.CreateRoom(ctx, store.CreateRoomParams{
		CreatorID:      caller.UserID,
		Name:           in.Name,
		ParticipantIDs: in.ParticipantIDs,
		IsGroup:        in.IsGroup,
		Wraps:          in.Wraps,
	})
	if err != nil {
		return nil, err
	}

	for _, id := range room.ParticipantIDs() {
		s.notifier.SubscribeUser(id, room.ID)
	}

	s.notifier.Broadcast(room.ID, EventRoomCreated, RoomCreatedPayload{
		Room:            room.ToAPI(true),
		CreatedBy:       caller.Username,
		EncryptionSetup: len(in.Wraps) > 0,
	})

	logger.InfoCtx(ctx, "room created",
		logger.RoomID(room.ID),
		logger.UserID(caller.UserID),
		logger.Count(len(room.Participants)))
	return room, nil
}

// InviteInput carries an invite request.
type InviteInput struct {
	RoomID         uint
	InvitedUserIDs []uint
	// Wraps must cover exactly the post-invite participant set.
	Wraps           []models.KeyWrap
	ExpectedVersion int
}

// InviteToRoom adds members and installs the next ledger version in one
// transaction, then fans out: users_invited to the room, invited_to_room to
// each new member's sessions with that member's wrap. Existing members do
// not receive wraps here; they fetch theirs from the ledger on reconnect.
func (s *Service) InviteToRoom(ctx context.Context, caller Caller, in InviteInput) (*store.InviteResult, error) {
	res, err := s.store.InviteToRoom(ctx, store.InviteParams{
		RoomID:          in.RoomID,
		CallerID:        caller.UserID,
		InvitedUserIDs:  in.InvitedUserIDs,
		Wraps:           in.Wraps,
		ExpectedVersion: in.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}

	wrapFor := make(map[uint]string, len(in.Wraps))
	for _, w := range in.Wraps {
		wrapFor[w.UserID] = w.EncryptedKey
	}

	for _, u := range res.NewUsers {
		s.notifier.SubscribeUser(u.ID, res.Room.ID)
	}

	invited := make([]models.APIUser, len(res.NewUsers))
	for i, u := range res.NewUsers {
		invited[i] = u.ToAPI()
	}
	s.notifier.Broadcast(res.Room.ID, EventUsersInvited, UsersInvitedPayload{
		RoomID:        res.Room.ID,
		InvitedUsers:  invited,
		InvitedBy:     caller.Username,
		NewKeyVersion: res.NewVersion,
	})

	for _, u := range res.NewUsers {
		s.notifier.ToUser(u.ID, EventInvitedToRoom, InvitedToRoomPayload{
			Room:          res.Room.ToAPI(true),
			InvitedBy:     caller.Username,
			EncryptedKey:  wrapFor[u.ID],
			NewKeyVersion: res.NewVersion,
		})
	}

	logger.InfoCtx(ctx, "users invited",
		logger.RoomID(res.Room.ID),
		logger.UserID(caller.UserID),
		logger.KeyVer(res.NewVersion),
		logger.Count(len(res.NewUsers)))
	return res, nil
}

// JoinRoom subscribes the calling session to a room it is already a member
// of. Presence only: no state changes, no ledger movement.
func (s *Service) JoinRoom(ctx context.Context, caller Caller, roomID uint) (*models.Room, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(caller.UserID) {
		return nil, models.ErrNotParticipant
	}

	s.notifier.Subscribe(caller.SessionID, roomID)
	s.notifier.ToSession(caller.SessionID, EventRoomJoined, RoomJoinedPayload{
		Room: room.ToAPI(true),
	})

	user, err := s.store.GetUserByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	s.notifier.BroadcastExcept(roomID, caller.SessionID, EventUserJoined, UserJoinedPayload{
		RoomID: roomID,
		User:   user.ToAPI(),
	})

	return room, nil
}

// LeaveRoom removes the caller from a room. If the room empties it is
// deleted outright. Otherwise the caller's wraps are purged, the room is
// flagged rotation-pending, and one live remaining participant is asked to
// rotate.
func (s *Service) LeaveRoom(ctx context.Context, caller Caller, roomID uint) (*store.LeaveResult, error) {
	res, err := s.store.LeaveRoom(ctx, roomID, caller.UserID)
	if err != nil {
		return nil, err
	}

	// All of the leaver's sessions stop receiving room traffic, not just
	// the one that sent the leave.
	s.notifier.UnsubscribeUser(caller.UserID, roomID)

	if res.RoomDeleted {
		s.notifier.ToSession(caller.SessionID, EventRoomDeleted, RoomDeletedPayload{RoomID: roomID})
		logger.InfoCtx(ctx, "room deleted after last participant left",
			logger.RoomID(roomID),
			logger.UserID(caller.UserID))
		return res, nil
	}

	s.notifier.Broadcast(roomID, EventUserLeft, UserLeftPayload{
		RoomID:           roomID,
		UserID:           caller.UserID,
		Username:         caller.Username,
		RotationRequired: true,
	})

	if uid, ok := s.notifier.FirstOnline(res.Room.ParticipantIDs()); ok {
		s.notifier.ToUser(uid, EventRotationRequired, RotationRequiredPayload{
			RoomID:   roomID,
			Reason:   RotationReasonUserLeft,
			LeftUser: &LeftUser{ID: caller.UserID, Username: caller.Username},
		})
	} else {
		// Nobody online to rotate; the pending flag reissues the request
		// when a participant reconnects.
		logger.InfoCtx(ctx, "rotation deferred until a participant reconnects",
			logger.RoomID(roomID))
	}

	s.notifier.ToSession(caller.SessionID, EventRoomLeft, RoomLeftPayload{RoomID: roomID})

	logger.InfoCtx(ctx, "user left room",
		logger.RoomID(roomID),
		logger.UserID(caller.UserID))
	return res, nil
}

// RotateInput carries a rotate_key request.
type RotateInput struct {
	RoomID uint
	// Wraps must cover exactly the current participant set.
	Wraps           []models.KeyWrap
	ExpectedVersion int
}

// RotateRoomKey installs the next ledger version and delivers each
// participant their wrap via a targeted key_rotated. Emission happens here,
// before control returns to the gateway, so subscribers always observe the
// rotation before any message sent under the new version.
func (s *Service) RotateRoomKey(ctx context.Context, caller Caller, in RotateInput) (*store.RotateResult, error) {
	res, err := s.store.RotateRoomKey(ctx, store.RotateParams{
		RoomID:          in.RoomID,
		CallerID:        caller.UserID,
		Wraps:           in.Wraps,
		ExpectedVersion: in.ExpectedVersion,
	})
	if err != nil {
		return nil, err
	}

	wrapFor := make(map[uint]string, len(in.Wraps))
	for _, w := range in.Wraps {
		wrapFor[w.UserID] = w.EncryptedKey
	}

	for _, id := range res.Room.ParticipantIDs() {
		s.notifier.ToUser(id, EventKeyRotated, KeyRotatedPayload{
			RoomID:        res.Room.ID,
			NewKeyVersion: res.NewVersion,
			Reason:        RotationReasonManual,
			RotatedBy:     caller.Username,
			EncryptedKey:  wrapFor[id],
		})
	}

	logger.InfoCtx(ctx, "room key rotated",
		logger.RoomID(in.RoomID),
		logger.UserID(caller.UserID),
		logger.KeyVer(res.NewVersion))
	return res, nil
}

// SendMessageInput carries a send_message request.
type SendMessageInput struct {
	RoomID           uint
	EncryptedContent string
	IV               string
	KeyVersion       int
}

// SendMessage appends a ciphertext record and broadcasts it to the room,
// sender included: the sender's own new_message doubles as the delivery ack.
//
// For a two-person direct room the Delivered flag is set when the
// counterparty has a live session at send time. Group delivery tracking is
// deliberately absent.
func (s *Service) SendMessage(ctx context.Context, caller Caller, in SendMessageInput) (*models.Message, error) {
	room, err := s.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	senderID := caller.UserID
	msg := &models.Message{
		RoomID:           in.RoomID,
		SenderID:         &senderID,
		MessageType:      models.MessageTypeUser,
		EncryptedContent: in.EncryptedContent,
		IV:               in.IV,
		KeyVersion:       in.KeyVersion,
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.notifier.Broadcast(in.RoomID, EventNewMessage, msg.ToAPI(caller.Username))

	if !room.IsGroup && len(room.Participants) == 2 {
		var other uint
		for _, id := range room.ParticipantIDs() {
			if id != caller.UserID {
				other = id
			}
		}
		if other != 0 && s.notifier.IsOnline(other) {
			if err := s.store.MarkMessagesDelivered(ctx, []uint{msg.ID}); err != nil {
				logger.WarnCtx(ctx, "failed to mark message delivered",
					logger.MessageID(msg.ID),
					logger.Err(err))
			} else {
				msg.Delivered = true
			}
		}
	}

	return msg, nil
}

// HistoryInput carries a get_messages request. The gateway resolves an
// absent limit to DefaultHistoryLimit before calling; an explicit zero
// yields an empty page.
type HistoryInput struct {
	RoomID uint
	Limit  int
	Offset int
}

// RoomHistory returns one page of room history to the calling session,
// oldest first. Only participants may read.
func (s *Service) RoomHistory(ctx context.Context, caller Caller, in HistoryInput) (*MessagesHistoryPayload, error) {
	room, err := s.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(caller.UserID) {
		return nil, models.ErrNotParticipant
	}

	limit := in.Limit
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if limit < 0 {
		limit = 0
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	msgs, hasMore, err := s.store.GetRoomMessages(ctx, in.RoomID, limit, offset)
	if err != nil {
		return nil, err
	}

	// The store pages newest-first; the wire wants chronological.
	items := make([]models.APIMessage, len(msgs))
	for i, m := range msgs {
		var sender string
		if m.Sender != nil {
			sender = m.Sender.Username
		}
		items[len(msgs)-1-i] = m.ToAPI(sender)
	}

	payload := &MessagesHistoryPayload{
		RoomID:   in.RoomID,
		Messages: items,
		Count:    len(items),
		Offset:   offset,
		HasMore:  hasMore,
	}
	s.notifier.ToSession(caller.SessionID, EventMessagesHistory, payload)
	return payload, nil
}
