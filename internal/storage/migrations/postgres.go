// Package migrations applies the embedded schema files for the SQL
// backends at startup. Every migration is idempotent; there is no
// version table, re-running the full set is always safe.
package migrations

import (
	"context"
	"embed"
	"fmt"

	"solana-curve-sniper/internal/storage/postgres"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

// RunPostgresMigrations applies the trade-log schema.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(postgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, f := range files {
		if _, err := pool.Exec(ctx, f.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", f.name, err)
		}
	}
	return nil
}
