package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ============================================
// HEALTH & LIFECYCLE
// ============================================

// sqlDB unwraps the database/sql handle behind GORM.
func (s *GORMStore) sqlDB() (*sql.DB, error) {
	db, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	return db, nil
}

// Healthcheck pings the database, bounded by ctx. The readiness probe and
// the gateway's health endpoint both route through here.
func (s *GORMStore) Healthcheck(ctx context.Context) error {
	db, err := s.sqlDB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *GORMStore) Close() error {
	db, err := s.sqlDB()
	if err != nil {
		return err
	}
	return db.Close()
}

// Compile-time interface check
var _ Store = (*GORMStore)(nil)
