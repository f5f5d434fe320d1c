package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"editstate/internal/store"
)

const recordColumns = "kind, name, record_key, source_file, source_hash, fields, updated_at"

func (c *Client) UpsertRecord(ctx context.Context, r store.Record) error {
	fieldsJSON, err := json.Marshal(r.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields: %w", err)
	}

	updatedAt := r.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	query := `
INSERT INTO records (kind, name, record_key, source_file, source_hash, fields, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (kind, name, record_key) DO UPDATE SET
    source_file = COALESCE(NULLIF(EXCLUDED.source_file, ''), records.source_file),
    source_hash = COALESCE(NULLIF(EXCLUDED.source_hash, ''), records.source_hash),
    fields = EXCLUDED.fields,
    updated_at = EXCLUDED.updated_at
`

	_, err = c.pool.Exec(ctx, query,
		r.Kind,
		r.Name,
		r.Key,
		r.SourceFile,
		r.SourceHash,
		fieldsJSON,
		updatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}
	return nil
}

// GetRecord returns nil without error when the record does not exist.
func (c *Client) GetRecord(ctx context.Context, kind, name, key string) (*store.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE kind = $1 AND name = $2 AND record_key = $3`

	rows, err := c.pool.Query(ctx, query, kind, name, key)
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (c *Client) ListRecords(ctx context.Context, kind, name string, opts store.ListOptions) ([]store.Record, error) {
	order, err := opts.OrderClause()
	if err != nil {
		return nil, err
	}

	var limit any
	l, offset := opts.Window()
	if l >= 0 {
		limit = l
	}
	var include []string
	if len(opts.Include) > 0 {
		include = opts.Include
	}

	args := []any{kind, name, include, limit, offset}
	where := ""
	for _, field := range opts.WhereFields() {
		args = append(args, field, opts.Where[field])
		where += fmt.Sprintf("\n  AND fields->>$%d = $%d", len(args)-1, len(args))
	}

	query := fmt.Sprintf(`
SELECT %s
FROM records
WHERE kind = $1
  AND name = $2
  AND ($3::text[] IS NULL OR record_key = ANY($3))%s
ORDER BY %s
LIMIT $4 OFFSET $5
`, recordColumns, where, order)

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return scanRecords(rows)
}

func (c *Client) ListAllRecords(ctx context.Context) ([]store.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records ORDER BY kind, name, length(record_key), record_key`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing all records: %w", err)
	}
	return scanRecords(rows)
}

func (c *Client) DeleteRecord(ctx context.Context, kind, name, key string) (bool, error) {
	tag, err := c.pool.Exec(ctx,
		"DELETE FROM records WHERE kind = $1 AND name = $2 AND record_key = $3",
		kind, name, key,
	)
	if err != nil {
		return false, fmt.Errorf("deleting record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanRecords(rows pgx.Rows) ([]store.Record, error) {
	defer rows.Close()

	records := []store.Record{}
	for rows.Next() {
		var r store.Record
		var fieldsBytes []byte
		err := rows.Scan(
			&r.Kind,
			&r.Name,
			&r.Key,
			&r.SourceFile,
			&r.SourceHash,
			&fieldsBytes,
			&r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if len(fieldsBytes) > 0 {
			if err := json.Unmarshal(fieldsBytes, &r.Fields); err != nil {
				return nil, fmt.Errorf("unmarshaling fields: %w", err)
			}
		}
		if r.Fields == nil {
			r.Fields = map[string]any{}
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record rows: %w", err)
	}
	return records, nil
}
