// Package postgres implements the download history repo using PostgreSQL
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/internal"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *Repo) table() string {
	return pgx.Identifier{r.tableName}.Sanitize()
}

func (r *Repo) Record(ctx context.Context, d zipstream.Download) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, archive, outcome, bytes_sent, chunks, exit_code, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.table())

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.Archive, string(d.Outcome), d.BytesSent, d.Chunks, d.ExitCode, d.StartedAt, d.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (r *Repo) List(ctx context.Context, q zipstream.ListQuery) (zipstream.ListResult, error) {
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
			WHERE ($1 = '' OR archive = $1)
			ORDER BY started_at DESC, id DESC
			LIMIT $2
		`, r.table())
		args = []any{q.Archive, limit + 1}
	} else {
		query = fmt.Sprintf(`
			SELECT id, archive, outcome, bytes_sent, chunks, exit_code, started_at, finished_at
			FROM %s
			WHERE ($1 = '' OR archive = $1) AND (started_at, id) < ($2, $3::uuid)
			ORDER BY started_at DESC, id DESC
			LIMIT $4
		`, r.table())
		args = []any{q.Archive, cursor.StartedAt, cursor.ID, limit + 1}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return zipstream.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]zipstream.Download, 0, limit)
	for rows.Next() {
		var d zipstream.Download
		var outcome string

		if err := rows.Scan(&d.ID, &d.Archive, &outcome, &d.BytesSent, &d.Chunks, &d.ExitCode, &d.StartedAt, &d.FinishedAt); err != nil {
			return zipstream.ListResult{}, fmt.Errorf("list: scan: %w", err)
		}
		if d.Outcome, err = zipstream.ParseOutcome(outcome); err != nil {
			return zipstream.ListResult{}, fmt.Errorf("list: %w", err)
		}
		d.StartedAt = d.StartedAt.UTC()
		d.FinishedAt = d.FinishedAt.UTC()

		items = append(items, d)
	}

	if err := rows.Err(); err != nil {
		return zipstream.ListResult{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		last := items[limit-1]
		nextCursor = internal.EncodeCursor(last.StartedAt, last.ID.String())
		items = items[:limit]
	}

	return zipstream.ListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *Repo) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE started_at < $1`, r.table())

	tag, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	return tag.RowsAffected(), nil
}
