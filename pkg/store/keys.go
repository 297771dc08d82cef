package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kyberchat/kyberchat/pkg/models"
)

// ============================================
// KEY LEDGER READS
// ============================================

func (s *GORMStore) GetRoomKeysForUser(ctx context.Context, roomID, userID uint) ([]*models.SymmetricKey, error) {
	var keys []*models.SymmetricKey
	if err := s.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Order("key_version ASC").
		Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *GORMStore) GetRoomKeys(ctx context.Context, roomID uint) ([]*models.SymmetricKey, error) {
	var keys []*models.SymmetricKey
	if err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("key_version ASC, user_id ASC").
		Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// ReplaceOrInsertWrap tops up one ledger entry at a version that has already
// been installed: a create without key material, or an install whose caller
// missed a participant, leaves holes this fills. The entry is stamped revoked
// when the version is no longer current, matching its siblings.
func (s *GORMStore) ReplaceOrInsertWrap(ctx context.Context, roomID, userID uint, version int, wrap string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.getRoomForUpdate(tx, roomID)
		if err != nil {
			return err
		}
		if !room.HasParticipant(userID) {
			return models.ErrNotParticipant
		}
		if version < 1 || version > room.CurrentKeyVersion {
			return models.ErrVersionConflict
		}

		var existing models.SymmetricKey
		err = tx.Where("room_id = ? AND user_id = ? AND key_version = ?",
			roomID, userID, version).First(&existing).Error
		switch {
		case err == nil:
			if existing.EncryptedKey == wrap {
				return nil
			}
			return tx.Model(&existing).Update("encrypted_key", wrap).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry := models.SymmetricKey{
				RoomID:       roomID,
				UserID:       userID,
				KeyVersion:   version,
				EncryptedKey: wrap,
			}
			if version < room.CurrentKeyVersion {
				entry.RevokedAt = supersededStamp(tx, roomID, version)
			}
			return tx.Create(&entry).Error
		default:
			return err
		}
	})
}

// supersededStamp picks the revocation timestamp for a top-up at an old
// version: the one its siblings already carry, or now if the version had no
// entries.
func supersededStamp(tx *gorm.DB, roomID uint, version int) *time.Time {
	var sibling models.SymmetricKey
	err := tx.Where("room_id = ? AND key_version = ? AND revoked_at IS NOT NULL",
		roomID, version).First(&sibling).Error
	if err == nil && sibling.RevokedAt != nil {
		return sibling.RevokedAt
	}
	now := time.Now()
	return &now
}
