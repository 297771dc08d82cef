package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/internal/telemetry"
	"github.com/kyberchat/kyberchat/pkg/chat"
)

// decode unmarshals and validates an inbound payload. On failure it sends
// the error event itself and reports false; the handler just returns.
func (g *Gateway) decode(sess *Session, data json.RawMessage, dst any) bool {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		g.sendError(sess, "invalid payload")
		return false
	}
	if err := g.validate.Struct(dst); err != nil {
		g.sendError(sess, validationMessage(err))
		return false
	}
	return true
}

// validationMessage flattens a validator error to one client-facing line
// naming the first offending wire field.
func validationMessage(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		fe := vErrs[0]
		if fe.Tag() == "required" {
			return "missing required field: " + fe.Field()
		}
		return "invalid field: " + fe.Field()
	}
	return "invalid payload"
}

func (g *Gateway) sendError(sess *Session, message string) {
	g.hub.ToSession(sess.ID, chat.EventError, chat.ErrorPayload{Message: message})
}

// sendOpError converts a failed operation into an error event. Storage
// failures mark the span and are logged with their cause; the client only
// sees the generic message. Domain rejections pass through untouched.
func (g *Gateway) sendOpError(ctx context.Context, sess *Session, err error) {
	if chat.Classify(err) == chat.CategoryStorage {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "operation failed", logger.Err(err))
	}
	g.sendError(sess, chat.SafeMessage(err))
}

func (g *Gateway) handleCreateRoom(ctx context.Context, sess *Session, caller chat.Caller, data json.RawMessage) {
	var req createRoomRequest
	if !g.decode(sess, data, &req) {
		return
	}
	_, err := g.svc.CreateRoom(ctx, caller, chat.CreateRoomInput{
		Name:           req.Name,
		ParticipantIDs: req.ParticipantIDs,
		IsGroup:        req.IsGroup,
		Wraps:          toKeyWraps(req.EncryptedKeys),
	})
	if err != nil {
		g.sendOpError(ctx, sess, err)
	}
}

func (g *Gateway) handleInvite(ctx context.Context, sess *Session, caller chat.Caller, data json.RawMessage) {
	var req inviteRequest
	if !g.decode(sess, data, &req) {
		return
	}
	_, err := g.svc.InviteToRoom(ctx, caller, chat.InviteInput{
		RoomID:          req.RoomID,
		InvitedUserIDs:  req.InvitedUserIDs,
		Wraps:           toKeyWraps(req.NewEncryptedKeys),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		g.sendOpError(ctx, sess, err)
		return
	}
	if g.hub.metrics != nil {
		g.hub.metrics.RecordKeyRotation("invite")
	}
}

func (g *Gateway) handleJoin(ctx context.Context, sess *Session, caller chat.Caller, data json.RawMessage) {
	var req roomRequest
	if !g.decode(sess, data, &req) {
		return
	}
	if _, err := g.svc.JoinRoom(ctx, caller, req.RoomID); err != nil {
		g.sendOpError(ctx, sess, err)
	}
}

func (g *Gateway) handleLeave(ctx context.Context, sess *Session, caller chat.Caller, data json.RawMessage) {
	var req roomRequest
	if !g.decode(sess, data, &req) {
		return
	}
	if _, err := g.svc.LeaveRoom(ctx, caller, req.RoomID); err != nil {
		g.sendOpError(ctx, sess, err)
	}
}

func (g *Gateway) handleRotateKey(ctx context.Context, sess *Session, caller chat.Caller, data json.RawMessage) {
	var req rotateKeyRequest
	if !g.decode(sess, data, &req) {
		return
	}
	_, err := g.svc.RotateRoomKey(ctx, caller, chat.RotateInput{
		RoomID:          req.RoomID,
		Wraps:           toKeyWraps(req.NewEncryptedKeys),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		g.sendOpError(ctx, sess, err)
		return
	}
	if g.hub.metrics != nil {
		g.hub.metrics.RecordKeyRotation("manual")
	}
}

func (g *Gateway) handleSendMessage(ctx context.Context, sess *Session, caller chat.Caller, data json.RawMessage) {
	var req sendMessageRequest
	if !g.decode(sess, data, &req) {
		return
	}
	_, err := g.svc.SendMessage(ctx, caller, chat.SendMessageInput{
		RoomID:           req.RoomID,
		EncryptedContent: req.EncryptedContent,
		IV:               req.IV,
		KeyVersion:       req.KeyVersion,
	})
	if err != nil {
		g.sendOpError(ctx, sess, err)
	}
}

func (g *Gateway) handleGetMessages(ctx context.Context, sess *Session, caller chat.Caller, data json.RawMessage) {
	var req getMessagesRequest
	if !g.decode(sess, data, &req) {
		return
	}
	limit := chat.DefaultHistoryLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	_, err := g.svc.RoomHistory(ctx, caller, chat.HistoryInput{
		RoomID: req.RoomID,
		Limit:  limit,
		Offset: req.Offset,
	})
	if err != nil {
		g.sendOpError(ctx, sess, err)
	}
}
