package chat

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/kyberchat/kyberchat/pkg/auth"
	"github.com/kyberchat/kyberchat/pkg/models"
	"github.com/kyberchat/kyberchat/pkg/validation"
)

// Category buckets an operation error by how it should be surfaced: the
// gateway turns it into an error event, the HTTP layer into a problem
// response. Classification is by sentinel, so wrapped errors still land in
// the right bucket.
type Category string

const (
	CategoryUnauthenticated Category = "unauthenticated"
	CategoryDenied          Category = "authorization_denied"
	CategoryNotFound        Category = "not_found"
	CategoryValidation      Category = "validation"
	CategoryConflict        Category = "conflict"
	CategoryInvariant       Category = "state_invariant"
	CategoryStorage         Category = "storage_failure"
	CategoryTransport       Category = "transport_failure"
)

// Classify maps an error to its category. Unrecognised errors are storage
// failures: everything the domain and auth layers produce deliberately is a
// known sentinel, so whatever is left came up from the database.
func Classify(err error) Category {
	var vErrs validator.ValidationErrors

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrTokenNotFound),
		errors.Is(err, models.ErrTokenRevoked):
		return CategoryUnauthenticated

	case errors.Is(err, models.ErrNotParticipant),
		errors.Is(err, models.ErrNotUploader),
		errors.Is(err, models.ErrUserDisabled):
		return CategoryDenied

	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrRoomNotFound),
		errors.Is(err, models.ErrKeyNotFound),
		errors.Is(err, models.ErrMessageNotFound),
		errors.Is(err, models.ErrFileNotFound):
		return CategoryNotFound

	case errors.Is(err, models.ErrIncompleteWrapSet),
		errors.Is(err, models.ErrNoNewUsers),
		errors.Is(err, models.ErrPasswordTooShort),
		errors.Is(err, models.ErrPasswordTooLong),
		errors.Is(err, validation.ErrUsernameLength),
		errors.Is(err, validation.ErrUsernameCharset),
		errors.Is(err, validation.ErrKeyNotBase64),
		errors.Is(err, validation.ErrIVLength),
		errors.Is(err, validation.ErrPasswordNoUpper),
		errors.Is(err, validation.ErrPasswordNoLower),
		errors.Is(err, validation.ErrPasswordNoDigit),
		errors.As(err, &vErrs):
		return CategoryValidation

	case errors.Is(err, models.ErrVersionConflict),
		errors.Is(err, models.ErrDuplicateUser):
		return CategoryConflict

	case errors.Is(err, models.ErrEmptyRoom):
		return CategoryInvariant

	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return CategoryTransport

	default:
		return CategoryStorage
	}
}

// SafeMessage returns the client-facing text for an error. Sentinel text is
// already written for clients; storage and transport failures get a generic
// message so database internals never cross the wire.
func SafeMessage(err error) string {
	switch Classify(err) {
	case CategoryStorage:
		return "internal server error"
	case CategoryTransport:
		return "connection interrupted"
	default:
		return err.Error()
	}
}
