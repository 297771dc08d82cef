// Package store provides the chat service persistence layer.
//
// This package implements the Store interface for managing users, refresh
// tokens, rooms, the per-room key ledger, messages, and uploaded file
// metadata.
//
// Two backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL (HA-capable)
package store

import (
	"context"

	"github.com/kyberchat/kyberchat/pkg/models"
)

// Store provides the chat service persistence interface.
//
// Membership-changing operations (CreateRoom, InviteToRoom, LeaveRoom,
// RotateRoomKey) are composite: each runs in a single transaction that
// mutates the participant set and the key ledger together, holding a row
// lock on the room so concurrent rotations serialise. A partial ledger
// install never commits.
//
// Thread Safety: Implementations must be safe for concurrent use from
// multiple goroutines.
type Store interface {
	// ============================================
	// USER OPERATIONS
	// ============================================

	// GetUser returns a user by username.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	GetUser(ctx context.Context, username string) (*models.User, error)

	// GetUserByID returns a user by id.
	// Returns models.ErrUserNotFound if no user has this id.
	GetUserByID(ctx context.Context, id uint) (*models.User, error)

	// ListUsers returns all users.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// SearchUsers returns users whose username contains the query
	// (case-insensitive), paginated. excludeUserID, when non-zero, is left
	// out of both the page and the total count so callers do not find
	// themselves. Returns the matching page and the total match count.
	SearchUsers(ctx context.Context, query string, excludeUserID uint, page, perPage int) ([]*models.User, int64, error)

	// CreateUser creates a new user and returns its generated id.
	// Returns models.ErrDuplicateUser if the username is taken.
	CreateUser(ctx context.Context, user *models.User) (uint, error)

	// SetUserActive flips the active flag.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	SetUserActive(ctx context.Context, username string, active bool) error

	// ValidateCredentials verifies username/password credentials.
	// Returns models.ErrInvalidCredentials on mismatch or unknown user,
	// models.ErrUserDisabled for an inactive account.
	ValidateCredentials(ctx context.Context, username, password string) (*models.User, error)

	// ============================================
	// REFRESH TOKEN OPERATIONS
	// ============================================

	// SaveRefreshToken records an issued refresh token by jti.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error

	// GetRefreshToken returns the record for a jti.
	// Returns models.ErrTokenNotFound if absent.
	GetRefreshToken(ctx context.Context, jti string) (*models.RefreshToken, error)

	// RevokeRefreshToken marks a jti as revoked. Revoking an already
	// revoked or unknown jti is not an error.
	RevokeRefreshToken(ctx context.Context, jti string) error

	// PurgeExpiredTokens deletes refresh token records past their expiry.
	// Returns the number of rows removed.
	PurgeExpiredTokens(ctx context.Context) (int64, error)

	// ============================================
	// ROOM & KEY LEDGER OPERATIONS
	// ============================================

	// GetRoom returns a room with its participants preloaded.
	// Returns models.ErrRoomNotFound if the room doesn't exist.
	GetRoom(ctx context.Context, id uint) (*models.Room, error)

	// ListRoomsForUser returns all rooms the user participates in, with
	// participants preloaded.
	ListRoomsForUser(ctx context.Context, userID uint) ([]*models.Room, error)

	// CreateRoom creates a room with the creator and any existing invitees
	// as participants and installs ledger version 1 from the supplied
	// wraps. An empty wrap set is allowed (the room starts without key
	// material); a non-empty one must cover exactly the resulting
	// participant set or the create fails with
	// models.ErrIncompleteWrapSet. Returns the room with participants
	// preloaded.
	CreateRoom(ctx context.Context, params CreateRoomParams) (*models.Room, error)

	// InviteToRoom adds users to a room and rotates the key in one
	// transaction: version becomes current+1, the supplied wraps must
	// cover every resulting participant, and entries at the previous
	// version are bulk-revoked.
	// Returns models.ErrRoomNotFound, models.ErrNotParticipant,
	// models.ErrNoNewUsers, models.ErrIncompleteWrapSet, or
	// models.ErrVersionConflict.
	InviteToRoom(ctx context.Context, params InviteParams) (*InviteResult, error)

	// LeaveRoom removes the caller from a room, purges their ledger
	// entries, and marks the room rotation_pending. If the caller was the
	// last participant the room is deleted along with its messages and
	// ledger. Returns models.ErrRoomNotFound or models.ErrNotParticipant.
	LeaveRoom(ctx context.Context, roomID, userID uint) (*LeaveResult, error)

	// RotateRoomKey installs a new ledger version covering exactly the
	// current participants and clears rotation_pending.
	// Returns models.ErrRoomNotFound, models.ErrNotParticipant,
	// models.ErrEmptyRoom, models.ErrIncompleteWrapSet, or
	// models.ErrVersionConflict.
	RotateRoomKey(ctx context.Context, params RotateParams) (*RotateResult, error)

	// GetRoomKeysForUser returns the user's ledger entries for a room in
	// ascending version order.
	GetRoomKeysForUser(ctx context.Context, roomID, userID uint) ([]*models.SymmetricKey, error)

	// GetRoomKeys returns every ledger entry for a room, ordered by
	// version then user id.
	GetRoomKeys(ctx context.Context, roomID uint) ([]*models.SymmetricKey, error)

	// ReplaceOrInsertWrap installs or overwrites a single ledger entry at
	// an already-installed version, for topping up a participant missed
	// by that version's install. Idempotent on identical resends. Returns
	// models.ErrRoomNotFound, models.ErrNotParticipant, or
	// models.ErrVersionConflict when the version has not been installed
	// yet.
	ReplaceOrInsertWrap(ctx context.Context, roomID, userID uint, version int, wrap string) error

	// ============================================
	// MESSAGE OPERATIONS
	// ============================================

	// AppendMessage stores a message. The room must exist; key versions
	// above the room's current version are rejected with
	// models.ErrVersionConflict.
	AppendMessage(ctx context.Context, msg *models.Message) error

	// GetRoomMessages returns up to limit messages for a room skipping
	// offset, newest first, plus whether further pages may exist.
	GetRoomMessages(ctx context.Context, roomID uint, limit, offset int) ([]*models.Message, bool, error)

	// MarkMessagesDelivered sets the delivered flag on the given messages.
	MarkMessagesDelivered(ctx context.Context, messageIDs []uint) error

	// ============================================
	// UPLOADED FILE OPERATIONS
	// ============================================

	// CreateUploadedFile records metadata for an uploaded blob.
	CreateUploadedFile(ctx context.Context, file *models.UploadedFile) error

	// GetUploadedFile returns file metadata by its stored filename.
	// Returns models.ErrFileNotFound if absent.
	GetUploadedFile(ctx context.Context, filename string) (*models.UploadedFile, error)

	// DeleteUploadedFile removes the metadata record for a filename.
	// Returns models.ErrFileNotFound if absent.
	DeleteUploadedFile(ctx context.Context, filename string) error

	// ============================================
	// HEALTH & LIFECYCLE
	// ============================================

	// Healthcheck verifies database connectivity.
	Healthcheck(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// CreateRoomParams carries the inputs of a room creation.
type CreateRoomParams struct {
	CreatorID      uint
	Name           string
	ParticipantIDs []uint
	// IsGroup defaults to len(ParticipantIDs) > 1 when nil.
	IsGroup *bool
	// Wraps install ledger version 1. Either empty, deferring encryption
	// setup, or covering exactly the resulting participant set.
	Wraps []models.KeyWrap
}

// InviteParams carries the inputs of an invite-with-rotation.
type InviteParams struct {
	RoomID         uint
	CallerID       uint
	InvitedUserIDs []uint
	// Wraps must cover every participant of the resulting set.
	Wraps []models.KeyWrap
	// ExpectedVersion, when non-zero, names the version this invite
	// intends to install. A mismatch with current+1 fails with
	// models.ErrVersionConflict instead of silently rebasing.
	ExpectedVersion int
}

// InviteResult reports the outcome of an invite.
type InviteResult struct {
	Room       *models.Room
	NewUsers   []*models.User
	NewVersion int
	// SystemMessage is the membership notice appended in the same
	// transaction, at the new version.
	SystemMessage *models.Message
}

// LeaveResult reports the outcome of a leave.
type LeaveResult struct {
	// RoomDeleted is set when the leaver was the last participant.
	RoomDeleted bool
	// Room is the post-leave room with remaining participants preloaded;
	// nil when RoomDeleted.
	Room *models.Room
	// SystemMessage is the departure notice; nil when RoomDeleted.
	SystemMessage *models.Message
}

// RotateParams carries the inputs of a key rotation.
type RotateParams struct {
	RoomID   uint
	CallerID uint
	// Wraps must cover exactly the current participants.
	Wraps []models.KeyWrap
	// ExpectedVersion, when non-zero, names the version this rotation
	// intends to install; see InviteParams.ExpectedVersion.
	ExpectedVersion int
}

// RotateResult reports the outcome of a rotation.
type RotateResult struct {
	Room       *models.Room
	NewVersion int
}
