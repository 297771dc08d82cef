// Package migrations embeds the versioned SQL schema for the PostgreSQL
// backend. Files follow the golang-migrate naming convention
// (NNNNNN_name.up.sql / NNNNNN_name.down.sql) and must stay in sync with
// the GORM models in pkg/models, which own the schema for SQLite.
package migrations

import "embed"

// FS contains all SQL migration files.
//
//go:embed *.sql
var FS embed.FS
