// Package sqlite implements the download history repo using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/internal"
)

// timeLayout has a fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Record(ctx context.Context, d zipstream.Download) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, archive, outcome, bytes_sent, chunks, exit_code, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName))

	_, err := r.db.ExecContext(ctx, query,
		d.ID.String(), d.Archive, string(d.Outcome), d.BytesSent, d.Chunks, d.ExitCode,
		formatTime(d.StartedAt), formatTime(d.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (r *repo) List(ctx context.Context, q zipstream.ListQuery) (zipstream.ListResult, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return zipstream.ListResult{}, fmt.Errorf("list: %w: %w", zipstream.ErrInvalidInput, err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var query string
	var args []any

	if q.Cursor == "" {
		query = fmt.Sprintf(`
			SELECT id, archive, outcome, bytes_sent, chunks, exit_code, started_at, finished_at
			FROM %s
			WHERE (? = '' OR archive = ?)
			ORDER BY started_at DESC, id DESC
			LIMIT ?
		`, quoteIdentifier(r.tableName))
		args = []any{q.Archive, q.Archive, limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, archive, outcome, bytes_sent, chunks, exit_code, started_at, finished_at
			FROM %s
			WHERE (? = '' OR archive = ?) AND (started_at, id) < (?, ?)
			ORDER BY started_at DESC, id DESC
			LIMIT ?
		`, quoteIdentifier(r.tableName))
		args = []any{q.Archive, q.Archive, formatTime(cursor.StartedAt), cursor.ID, limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return zipstream.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]zipstream.Download, 0, limit)
	for rows.Next() {
		var d zipstream.Download
		var idStr, outcome, startedAt, finishedAt string

		if scanErr := rows.Scan(&idStr, &d.Archive, &outcome, &d.BytesSent, &d.Chunks, &d.ExitCode, &startedAt, &finishedAt); scanErr != nil {
			return zipstream.ListResult{}, fmt.Errorf("list: scan: %w", scanErr)
		}

		var parseErr error
		d.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return zipstream.ListResult{}, fmt.Errorf("list: parse uuid: %w", parseErr)
		}

		d.Outcome, parseErr = zipstream.ParseOutcome(outcome)
		if parseErr != nil {
			return zipstream.ListResult{}, fmt.Errorf("list: %w", parseErr)
		}

		d.StartedAt, parseErr = time.Parse(timeLayout, startedAt)
		if parseErr != nil {
			return zipstream.ListResult{}, fmt.Errorf("list: parse started_at: %w", parseErr)
		}

		d.FinishedAt, parseErr = time.Parse(timeLayout, finishedAt)
		if parseErr != nil {
			return zipstream.ListResult{}, fmt.Errorf("list: parse finished_at: %w", parseErr)
		}

		items = append(items, d)
	}

	if err := rows.Err(); err != nil {
		return zipstream.ListResult{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		// Cursor points to the last item of the current page
		last := items[limit-1]
		nextCursor = internal.EncodeCursor(last.StartedAt, last.ID.String())
		items = items[:limit]
	}

	return zipstream.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *repo) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE started_at < ?`, quoteIdentifier(r.tableName))

	result, err := r.db.ExecContext(ctx, query, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: rows affected: %w", err)
	}

	return n, nil
}
