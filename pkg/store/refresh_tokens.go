package store

import (
	"context"
	"time"

	"github.com/kyberchat/kyberchat/pkg/models"
)

// ============================================
// REFRESH TOKEN OPERATIONS
// ============================================

func (s *GORMStore) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *GORMStore) GetRefreshToken(ctx context.Context, jti string) (*models.RefreshToken, error) {
	return getByField[models.RefreshToken](ctx, s.db, "jti", jti, models.ErrTokenNotFound)
}

func (s *GORMStore) RevokeRefreshToken(ctx context.Context, jti string) error {
	// Revoking an unknown or already-revoked token is deliberately not an
	// error: logout must be idempotent.
	return s.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}

func (s *GORMStore) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
