package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations.
// Used by the migrate runner (cmd/migrate) for Postgres and by EnsureSchema for SQLite.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
