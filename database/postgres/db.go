package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/internal"
)

// downloadsSchema uses the data_type spelling of information_schema.columns.
var downloadsSchema = internal.Schema{
	"id":          {Type: "uuid"},
	"archive":     {Type: "text"},
	"outcome":     {Type: "text"},
	"bytes_sent":  {Type: "bigint"},
	"chunks":      {Type: "bigint"},
	"exit_code":   {Type: "integer"},
	"started_at":  {Type: "timestamp with time zone"},
	"finished_at": {Type: "timestamp with time zone"},
}

// ValidateSchema checks that the history tables exist in the public schema
// with the columns the repo reads and writes.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables zipstream.Tables) error {
	if err := validateTable(ctx, pool, tables.Downloads, downloadsSchema); err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Downloads, err)
	}
	return nil
}

func validateTable(ctx context.Context, pool *pgxpool.Pool, table string, want internal.Schema) error {
	if !zipstream.IsValidTableName(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}

	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
	`, table)
	if err != nil {
		return fmt.Errorf("read columns: %w", err)
	}
	defer rows.Close()

	actual := make(internal.Schema)
	for rows.Next() {
		var (
			name, dataType string
			nullable       bool
		)
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return fmt.Errorf("read columns: %w", err)
		}
		actual[name] = internal.Column{Type: dataType, Nullable: nullable}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("read columns: %w", err)
	}

	// No columns reported means the table is absent.
	if len(actual) == 0 {
		return fmt.Errorf("table %s does not exist", table)
	}

	return internal.CompareSchema(table, want, actual)
}
