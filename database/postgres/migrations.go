package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/zipstream"
)

// Migrate creates the download history tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables zipstream.Tables) error {
	if err := createDownloadsTable(ctx, pool, tables.Downloads); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.Downloads, err)
	}
	return nil
}

// DropTables removes the download history tables.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables zipstream.Tables) error {
	quotedTable := pgx.Identifier{tables.Downloads}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.Downloads, err)
	}
	return nil
}

func createDownloadsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexStarted := pgx.Identifier{fmt.Sprintf("idx_%s_started", tableName)}.Sanitize()
	indexArchive := pgx.Identifier{fmt.Sprintf("idx_%s_archive", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			archive TEXT NOT NULL,
			outcome TEXT NOT NULL,
			bytes_sent BIGINT NOT NULL,
			chunks BIGINT NOT NULL,
			exit_code INTEGER NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (started_at DESC, id DESC);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (archive, started_at DESC);
	`,
		quotedTable,
		indexStarted, quotedTable,
		indexArchive, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create downloads table: %w", err)
	}
	return nil
}
