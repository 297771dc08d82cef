package store

import (
	"context"

	"gorm.io/gorm"
)

// ============================================================================
// Generic GORM Helpers
// ============================================================================
//
// Shared CRUD plumbing for the store files in this package. The helpers take
// a raw *gorm.DB rather than the GORMStore so individual methods can hand in
// transactions, and they fold the recurring concerns together: context
// propagation, preloads, not-found conversion, and duplicate detection.

// withPreloads stacks Preload clauses onto a query.
func withPreloads(q *gorm.DB, preloads []string) *gorm.DB {
	for _, p := range preloads {
		q = q.Preload(p)
	}
	return q
}

// getByField loads the first record of type T where field = value, mapping
// gorm's not-found onto the caller's domain error.
func getByField[T any](ctx context.Context, db *gorm.DB, field string, value any, notFoundErr error, preloads ...string) (*T, error) {
	var record T
	q := withPreloads(db.WithContext(ctx), preloads)
	if err := q.Where(field+" = ?", value).First(&record).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &record, nil
}

// listAll loads every record of type T. No records is an empty slice, not
// an error.
func listAll[T any](ctx context.Context, db *gorm.DB, preloads ...string) ([]*T, error) {
	var records []*T
	if err := withPreloads(db.WithContext(ctx), preloads).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// create inserts the entity, letting the database assign the autoincrement
// primary key. A unique constraint violation comes back as dupErr.
func create[T any](ctx context.Context, db *gorm.DB, entity *T, dupErr error) error {
	err := db.WithContext(ctx).Create(entity).Error
	if isUniqueConstraintError(err) {
		return dupErr
	}
	return err
}

// deleteByField removes the records of type T where field = value, returning
// notFoundErr when nothing matched.
func deleteByField[T any](ctx context.Context, db *gorm.DB, field string, value any, notFoundErr error) error {
	var zero T
	res := db.WithContext(ctx).Where(field+" = ?", value).Delete(&zero)
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return notFoundErr
	}
	return nil
}
