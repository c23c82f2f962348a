package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/internal"
)

// downloadsSchema is what createDownloadsTable produces, as PRAGMA table_info
// reports it.
var downloadsSchema = internal.Schema{
	"id":          {Type: "text"},
	"archive":     {Type: "text"},
	"outcome":     {Type: "text"},
	"bytes_sent":  {Type: "integer"},
	"chunks":      {Type: "integer"},
	"exit_code":   {Type: "integer"},
	"started_at":  {Type: "text"},
	"finished_at": {Type: "text"},
}

// ValidateSchema checks that the history tables exist with the columns the
// repo reads and writes. Use it after migrating a database by hand.
func ValidateSchema(ctx context.Context, db *sql.DB, tables zipstream.Tables) error {
	if err := validateTable(ctx, db, tables.Downloads, downloadsSchema); err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Downloads, err)
	}
	return nil
}

func validateTable(ctx context.Context, db *sql.DB, table string, want internal.Schema) error {
	if !zipstream.IsValidTableName(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}

	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("table %s does not exist", table)
	}
	if err != nil {
		return fmt.Errorf("look up table: %w", err)
	}

	actual, err := readColumns(ctx, db, table)
	if err != nil {
		return err
	}

	return internal.CompareSchema(table, want, actual)
}

func readColumns(ctx context.Context, db *sql.DB, table string) (internal.Schema, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(internal.Schema)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("read columns: %w", err)
		}
		columns[name] = internal.Column{Type: colType, Nullable: notNull == 0}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return columns, nil
}
