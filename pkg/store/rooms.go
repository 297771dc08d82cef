package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kyberchat/kyberchat/pkg/models"
)

// ============================================
// ROOM & KEY LEDGER OPERATIONS
// ============================================
//
// Membership and rotation writes share one shape: load the room (row-locked
// on PostgreSQL), validate against the loaded state, then mutate the
// participant set, the rooms row, and the key ledger inside the same
// transaction. The version bump itself is a guarded UPDATE keyed on the
// version that was read, so of two racing rotations exactly one commits and
// the other surfaces models.ErrVersionConflict.

func (s *GORMStore) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	return getByField[models.Room](ctx, s.db, "id", id, models.ErrRoomNotFound, "Participants")
}

func (s *GORMStore) ListRoomsForUser(ctx context.Context, userID uint) ([]*models.Room, error) {
	var rooms []*models.Room
	if err := s.db.WithContext(ctx).
		Preload("Participants").
		Joins("JOIN room_participants rp ON rp.room_id = rooms.id").
		Where("rp.user_id = ?", userID).
		Order("rooms.id ASC").
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *GORMStore) CreateRoom(ctx context.Context, params CreateRoomParams) (*models.Room, error) {
	isGroup := len(params.ParticipantIDs) > 1
	if params.IsGroup != nil {
		isGroup = *params.IsGroup
	}

	var roomID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var creator models.User
		if err := tx.Where("id = ?", params.CreatorID).First(&creator).Error; err != nil {
			return convertNotFoundError(err, models.ErrUserNotFound)
		}

		room := models.Room{
			Name:              params.Name,
			IsGroup:           isGroup,
			CurrentKeyVersion: 1,
		}
		if err := tx.Create(&room).Error; err != nil {
			return err
		}

		// The creator is always a participant, listed or not. Unknown
		// invitee ids are skipped rather than failing the create.
		participants := []*models.User{&creator}
		seen := map[uint]bool{creator.ID: true}
		for _, id := range params.ParticipantIDs {
			if seen[id] {
				continue
			}
			var u models.User
			if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			seen[id] = true
			participants = append(participants, &u)
		}
		if err := tx.Model(&room).Association("Participants").Append(participants); err != nil {
			return err
		}

		// Install ledger version 1. A room may be created without any
		// wraps (the room_created event reports encryption_setup=false);
		// once wraps are supplied they must cover exactly the resulting
		// participant set, same as a rotation.
		wraps := wrapMap(params.Wraps)
		if len(wraps) > 0 {
			ids := make([]uint, 0, len(participants))
			for _, p := range participants {
				ids = append(ids, p.ID)
			}
			if !wrapsCoverExactly(wraps, ids) {
				return models.ErrIncompleteWrapSet
			}
		}
		if err := installWraps(tx, room.ID, 1, wraps); err != nil {
			return err
		}

		roomID = room.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRoom(ctx, roomID)
}

func (s *GORMStore) InviteToRoom(ctx context.Context, params InviteParams) (*InviteResult, error) {
	result := &InviteResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.getRoomForUpdate(tx, params.RoomID)
		if err != nil {
			return err
		}
		if !room.HasParticipant(params.CallerID) {
			return models.ErrNotParticipant
		}

		newVersion := room.CurrentKeyVersion + 1
		if params.ExpectedVersion != 0 && params.ExpectedVersion != newVersion {
			return models.ErrVersionConflict
		}

		// Resolve genuinely new users. Already-present invitees are
		// per-user no-ops and unknown ids are skipped; an invite that
		// adds nobody is rejected outright.
		seen := make(map[uint]bool, len(room.Participants))
		for _, p := range room.Participants {
			seen[p.ID] = true
		}
		var newUsers []*models.User
		for _, id := range params.InvitedUserIDs {
			if seen[id] {
				continue
			}
			var u models.User
			if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			seen[id] = true
			newUsers = append(newUsers, &u)
		}
		if len(newUsers) == 0 {
			return models.ErrNoNewUsers
		}

		// The supplied wraps must cover exactly the resulting
		// participant set before anything is written.
		resulting := room.ParticipantIDs()
		for _, u := range newUsers {
			resulting = append(resulting, u.ID)
		}
		wraps := wrapMap(params.Wraps)
		if !wrapsCoverExactly(wraps, resulting) {
			return models.ErrIncompleteWrapSet
		}

		if err := tx.Model(room).Association("Participants").Append(newUsers); err != nil {
			return err
		}

		// Invite rotates but does not clear rotation_pending: a pending
		// post-leave rotation is still owed by a remaining member.
		if err := bumpRoomVersion(tx, room, nil); err != nil {
			return err
		}
		if err := revokeLedgerVersion(tx, room.ID, newVersion-1); err != nil {
			return err
		}
		if err := installWraps(tx, room.ID, newVersion, wraps); err != nil {
			return err
		}

		names := make([]string, len(newUsers))
		for i, u := range newUsers {
			names[i] = u.Username
		}
		sysMsg := models.NewSystemMessage(room.ID, strings.Join(names, ", ")+" joined the room", newVersion)
		if err := tx.Create(sysMsg).Error; err != nil {
			return err
		}

		fresh, err := reloadRoom(tx, room.ID)
		if err != nil {
			return err
		}
		result.Room = fresh
		result.NewUsers = newUsers
		result.NewVersion = newVersion
		result.SystemMessage = sysMsg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GORMStore) LeaveRoom(ctx context.Context, roomID, userID uint) (*LeaveResult, error) {
	result := &LeaveResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.getRoomForUpdate(tx, roomID)
		if err != nil {
			return err
		}

		var leaver *models.User
		for i := range room.Participants {
			if room.Participants[i].ID == userID {
				leaver = &room.Participants[i]
				break
			}
		}
		if leaver == nil {
			return models.ErrNotParticipant
		}

		if err := tx.Model(room).Association("Participants").Delete(leaver); err != nil {
			return err
		}

		// The leaver's ledger entries are purged outright, not merely
		// revoked: a later re-invite must not resurrect old versions.
		if err := tx.Where("room_id = ? AND user_id = ?", room.ID, userID).
			Delete(&models.SymmetricKey{}).Error; err != nil {
			return err
		}

		if len(room.Participants) == 1 {
			// Last one out deletes the room. Messages and any leftover
			// ledger entries go with it; SQLite has no FK cascades by
			// default, so the cleanup is explicit.
			if err := tx.Where("room_id = ?", room.ID).
				Delete(&models.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("room_id = ?", room.ID).
				Delete(&models.SymmetricKey{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(room).Error; err != nil {
				return err
			}
			result.RoomDeleted = true
			return nil
		}

		// The server cannot mint keys, so rotation is owed by a remaining
		// member; the flag survives until one of them performs it.
		if err := tx.Model(&models.Room{}).Where("id = ?", room.ID).
			Update("rotation_pending", true).Error; err != nil {
			return err
		}

		sysMsg := models.NewSystemMessage(room.ID, leaver.Username+" left the room", room.CurrentKeyVersion)
		if err := tx.Create(sysMsg).Error; err != nil {
			return err
		}

		fresh, err := reloadRoom(tx, room.ID)
		if err != nil {
			return err
		}
		result.Room = fresh
		result.SystemMessage = sysMsg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GORMStore) RotateRoomKey(ctx context.Context, params RotateParams) (*RotateResult, error) {
	result := &RotateResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.getRoomForUpdate(tx, params.RoomID)
		if err != nil {
			return err
		}
		if !room.HasParticipant(params.CallerID) {
			return models.ErrNotParticipant
		}
		if len(room.Participants) == 0 {
			return models.ErrEmptyRoom
		}

		newVersion := room.CurrentKeyVersion + 1
		if params.ExpectedVersion != 0 && params.ExpectedVersion != newVersion {
			return models.ErrVersionConflict
		}

		wraps := wrapMap(params.Wraps)
		if !wrapsCoverExactly(wraps, room.ParticipantIDs()) {
			return models.ErrIncompleteWrapSet
		}

		if err := bumpRoomVersion(tx, room, map[string]any{"rotation_pending": false}); err != nil {
			return err
		}
		if err := revokeLedgerVersion(tx, room.ID, newVersion-1); err != nil {
			return err
		}
		if err := installWraps(tx, room.ID, newVersion, wraps); err != nil {
			return err
		}

		result.Room = room
		result.NewVersion = newVersion
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ============================================
// TRANSACTION HELPERS
// ============================================

// getRoomForUpdate loads a room with participants inside a transaction.
// On PostgreSQL the rooms row is locked FOR UPDATE so concurrent membership
// and rotation transactions serialise; SQLite write transactions are already
// exclusive and its grammar has no FOR UPDATE.
func (s *GORMStore) getRoomForUpdate(tx *gorm.DB, roomID uint) (*models.Room, error) {
	q := tx.Preload("Participants")
	if s.config.Type == DatabaseTypePostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var room models.Room
	if err := q.Where("id = ?", roomID).First(&room).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrRoomNotFound)
	}
	return &room, nil
}

// reloadRoom re-reads a room with participants within the transaction, after
// association writes have changed what the in-memory copy holds.
func reloadRoom(tx *gorm.DB, roomID uint) (*models.Room, error) {
	var room models.Room
	if err := tx.Preload("Participants").Where("id = ?", roomID).First(&room).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrRoomNotFound)
	}
	return &room, nil
}

// bumpRoomVersion advances current_key_version by one with a guard on the
// version that was read. Zero rows affected means another transaction moved
// the version first.
func bumpRoomVersion(tx *gorm.DB, room *models.Room, extra map[string]any) error {
	newVersion := room.CurrentKeyVersion + 1
	updates := map[string]any{"current_key_version": newVersion}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.Model(&models.Room{}).
		Where("id = ? AND current_key_version = ?", room.ID, room.CurrentKeyVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrVersionConflict
	}

	room.CurrentKeyVersion = newVersion
	if pending, ok := extra["rotation_pending"].(bool); ok {
		room.RotationPending = pending
	}
	return nil
}

// revokeLedgerVersion stamps revoked_at on every ledger entry at the given
// version. Each install revokes only the version it supersedes; older
// versions were stamped when they were superseded.
func revokeLedgerVersion(tx *gorm.DB, roomID uint, version int) error {
	return tx.Model(&models.SymmetricKey{}).
		Where("room_id = ? AND key_version = ? AND revoked_at IS NULL", roomID, version).
		Update("revoked_at", time.Now()).Error
}

// installWraps inserts one ledger row per user at the given version. A
// unique-constraint hit means a racing transaction already installed this
// version.
func installWraps(tx *gorm.DB, roomID uint, version int, wraps map[uint]string) error {
	if len(wraps) == 0 {
		return nil
	}
	keys := make([]models.SymmetricKey, 0, len(wraps))
	for userID, wrap := range wraps {
		keys = append(keys, models.SymmetricKey{
			RoomID:       roomID,
			UserID:       userID,
			KeyVersion:   version,
			EncryptedKey: wrap,
		})
	}
	if err := tx.Create(&keys).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrVersionConflict
		}
		return err
	}
	return nil
}

// wrapMap normalises client-supplied wrap pairs into a user→wrap map.
// Entries with a zero user id or empty key are dropped; on duplicates the
// last entry wins.
func wrapMap(wraps []models.KeyWrap) map[uint]string {
	m := make(map[uint]string, len(wraps))
	for _, w := range wraps {
		if w.UserID == 0 || w.EncryptedKey == "" {
			continue
		}
		m[w.UserID] = w.EncryptedKey
	}
	return m
}

// wrapsCoverExactly reports whether the wrap map covers exactly the given
// participant set: no participant missing, no extra recipients.
func wrapsCoverExactly(wraps map[uint]string, participantIDs []uint) bool {
	if len(wraps) != len(participantIDs) {
		return false
	}
	for _, id := range participantIDs {
		if _, ok := wraps[id]; !ok {
			return false
		}
	}
	return true
}
