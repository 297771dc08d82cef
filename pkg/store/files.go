package store

import (
	"context"

	"github.com/kyberchat/kyberchat/pkg/models"
)

// ============================================
// UPLOADED FILE OPERATIONS
// ============================================

func (s *GORMStore) CreateUploadedFile(ctx context.Context, file *models.UploadedFile) error {
	return s.db.WithContext(ctx).Create(file).Error
}

func (s *GORMStore) GetUploadedFile(ctx context.Context, filename string) (*models.UploadedFile, error) {
	return getByField[models.UploadedFile](ctx, s.db, "filename", filename, models.ErrFileNotFound)
}

func (s *GORMStore) DeleteUploadedFile(ctx context.Context, filename string) error {
	return deleteByField[models.UploadedFile](ctx, s.db, "filename", filename, models.ErrFileNotFound)
}
