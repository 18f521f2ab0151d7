package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"admissions/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies embedded migrations that have not run yet, each in its own transaction.
func Migrate(ctx context.Context, txm *TxManager) error {
	q := txm.GetQuerier(ctx)
	if _, err := q.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}

		err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
			q := txm.GetQuerier(ctx)
			tag, err := q.Exec(ctx,
				`INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING`, file)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			if _, err := q.Exec(ctx, string(body)); err != nil {
				return err
			}
			logger.Info(ctx, "migration applied", "version", file)
			return nil
		})
		if err != nil {
			return fmt.Errorf("apply %s: %w", file, err)
		}
	}

	return nil
}
