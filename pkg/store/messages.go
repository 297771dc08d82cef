package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kyberchat/kyberchat/pkg/models"
)

// ============================================
// MESSAGE OPERATIONS
// ============================================

func (s *GORMStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.Where("id = ?", msg.RoomID).First(&room).Error; err != nil {
			return convertNotFoundError(err, models.ErrRoomNotFound)
		}

		// System messages are appended by the mutation transactions
		// themselves; everything arriving here carries a sender, and the
		// sender must still be in the room.
		if msg.SenderID != nil {
			var n int64
			if err := tx.Table("room_participants").
				Where("room_id = ? AND user_id = ?", msg.RoomID, *msg.SenderID).
				Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return models.ErrNotParticipant
			}
		}

		// A message may lag behind the current version (sender had not
		// yet seen a rotation) but can never run ahead of it.
		if msg.KeyVersion > room.CurrentKeyVersion {
			return models.ErrVersionConflict
		}

		return tx.Create(msg).Error
	})
}

func (s *GORMStore) GetRoomMessages(ctx context.Context, roomID uint, limit, offset int) ([]*models.Message, bool, error) {
	if limit <= 0 {
		return []*models.Message{}, false, nil
	}

	var msgs []*models.Message
	if err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error; err != nil {
		return nil, false, err
	}

	// A full page means more may exist; an exact-boundary false positive
	// costs the client one empty follow-up fetch.
	return msgs, len(msgs) == limit, nil
}

func (s *GORMStore) MarkMessagesDelivered(ctx context.Context, messageIDs []uint) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id IN ?", messageIDs).
		Update("delivered", true).Error
}
