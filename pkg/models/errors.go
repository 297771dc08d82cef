package models

import "errors"

// Common errors for chat domain operations.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Room errors
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotParticipant = errors.New("not a participant in this room")
	ErrNoNewUsers     = errors.New("no new users were added")
	ErrEmptyRoom      = errors.New("cannot rotate keys in empty room")

	// Key ledger errors
	ErrIncompleteWrapSet = errors.New("encrypted keys must cover all current participants")
	ErrVersionConflict   = errors.New("key version conflict")
	ErrKeyNotFound       = errors.New("symmetric key not found")

	// Message errors
	ErrMessageNotFound = errors.New("message not found")

	// Token errors
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrTokenRevoked  = errors.New("refresh token has been revoked")

	// File errors
	ErrFileNotFound = errors.New("file not found")
	ErrNotUploader  = errors.New("only the uploader can delete a file")
)
