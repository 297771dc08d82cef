package store

import (
	"context"
	"errors"

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/pkg/models"
)

// ============================================
// USER OPERATIONS
// ============================================

func (s *GORMStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	return getByField[models.User](ctx, s.db, "username", username, models.ErrUserNotFound)
}

func (s *GORMStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return getByField[models.User](ctx, s.db, "id", id, models.ErrUserNotFound)
}

func (s *GORMStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return listAll[models.User](ctx, s.db)
}

func (s *GORMStore) SearchUsers(ctx context.Context, query string, excludeUserID uint, page, perPage int) ([]*models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	// LOWER(...) LIKE keeps matching case-insensitive on both SQLite and
	// PostgreSQL; ILIKE would be postgres-only.
	base := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("LOWER(username) LIKE LOWER(?)", "%"+query+"%")
	if excludeUserID != 0 {
		base = base.Where("id <> ?", excludeUserID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*models.User
	if err := base.
		Order("username ASC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (s *GORMStore) CreateUser(ctx context.Context, user *models.User) (uint, error) {
	if err := create(ctx, s.db, user, models.ErrDuplicateUser); err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (s *GORMStore) SetUserActive(ctx context.Context, username string, active bool) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Update("is_active", active)
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return models.ErrUserNotFound
	}
	return nil
}

func (s *GORMStore) ValidateCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUser(ctx, username)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		// Indistinguishable from a wrong password on purpose.
		return nil, models.ErrInvalidCredentials
	case err != nil:
		return nil, err
	}

	if !user.IsActive {
		return nil, models.ErrUserDisabled
	}

	if !models.VerifyPassword(password, user.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}

	// Login is the only moment the plaintext is available, so hashes made
	// at an older cost get upgraded here. Best effort: a failed upgrade
	// must not fail the login.
	if models.NeedsRehash(user.PasswordHash) {
		if hash, err := models.HashPassword(password); err == nil {
			if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
				logger.WarnCtx(ctx, "password rehash failed", logger.Username(username), logger.Err(err))
			} else {
				user.PasswordHash = hash
			}
		}
	}

	return user, nil
}
