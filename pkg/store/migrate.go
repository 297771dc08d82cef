package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver used by golang-migrate

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/pkg/store/migrations"
)

// RunPostgresMigrations brings the PostgreSQL schema up to date using the
// SQL files embedded in pkg/store/migrations. golang-migrate serializes
// concurrent runs through a PostgreSQL advisory lock, so several instances
// racing here on startup is safe.
//
// SQLite deployments never take this path: there the schema is owned by
// GORM AutoMigrate, which runs on every open.
func RunPostgresMigrations(ctx context.Context, cfg *PostgresConfig) error {
	if cfg == nil {
		return fmt.Errorf("postgres configuration is required")
	}

	logger.Info("Applying database migrations", "database", cfg.Database, "host", cfg.Host)

	// golang-migrate drives a plain database/sql connection, not GORM.
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	m, err := newMigrator(db, cfg.Database)
	if err != nil {
		return err
	}

	switch err := m.Up(); {
	case err == nil:
		logger.Info("Migrations applied")
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("Schema already up to date")
	default:
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return reportSchemaVersion(m)
}

// newMigrator assembles a migrator from an open connection and the embedded
// migration sources.
func newMigrator(db *sql.DB, database string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
		DatabaseName:    database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// reportSchemaVersion logs where the schema ended up after a migration run.
// A dirty flag means a migration died halfway and the version row needs
// manual repair before the next run will do anything.
func reportSchemaVersion(m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("No migrations recorded yet")
		return nil
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("Current schema version", "version", version, "dirty", dirty)
	if dirty {
		logger.Warn("Schema is marked dirty - repair schema_migrations before the next run")
	}
	return nil
}
