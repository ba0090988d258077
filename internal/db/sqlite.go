package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// EnsureSchema applies the embedded up migrations in order. Used for SQLite, where golang-migrate is not wired;
// the migrations are written with IF NOT EXISTS so repeated calls are no-ops.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	names, err := fs.Glob(MigrationFS, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := fs.ReadFile(MigrationFS, name)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", name, err)
		}
		for _, stmt := range strings.Split(string(body), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema: %s: %w", name, err)
			}
		}
	}
	return nil
}
