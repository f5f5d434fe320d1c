package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"editstate/internal/store"
)

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

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
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (kind, name, record_key) DO UPDATE SET
		source_file = CASE WHEN excluded.source_file = '' THEN records.source_file ELSE excluded.source_file END,
		source_hash = CASE WHEN excluded.source_hash = '' THEN records.source_hash ELSE excluded.source_hash END,
		fields = excluded.fields,
		updated_at = excluded.updated_at
	`

	_, err = c.db.ExecContext(ctx, query,
		r.Kind,
		r.Name,
		r.Key,
		r.SourceFile,
		r.SourceHash,
		string(fieldsJSON),
		updatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}
	return nil
}

// GetRecord returns nil without error when the record does not exist.
func (c *Client) GetRecord(ctx context.Context, kind, name, key string) (*store.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE kind = ? AND name = ? AND record_key = ?`

	rows, err := c.db.QueryContext(ctx, query, kind, name, key)
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
	limit, offset := opts.Window()

	args := []any{kind, name}
	where := "kind = ? AND name = ?"
	if len(opts.Include) > 0 {
		placeholders := make([]string, len(opts.Include))
		for i, key := range opts.Include {
			placeholders[i] = "?"
			args = append(args, key)
		}
		where += fmt.Sprintf(" AND record_key IN (%s)", strings.Join(placeholders, ", "))
	}
	for _, field := range opts.WhereFields() {
		where += " AND CAST(json_extract(fields, ?) AS TEXT) = ?"
		args = append(args, jsonPath(field), opts.Where[field])
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
	SELECT %s
	FROM records
	WHERE %s
	ORDER BY %s
	LIMIT ? OFFSET ?
	`, recordColumns, where, order)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return scanRecords(rows)
}

func (c *Client) ListAllRecords(ctx context.Context) ([]store.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records ORDER BY kind, name, length(record_key), record_key`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing all records: %w", err)
	}
	return scanRecords(rows)
}

func (c *Client) DeleteRecord(ctx context.Context, kind, name, key string) (bool, error) {
	result, err := c.db.ExecContext(ctx,
		"DELETE FROM records WHERE kind = ? AND name = ? AND record_key = ?",
		kind, name, key,
	)
	if err != nil {
		return false, fmt.Errorf("deleting record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected > 0, nil
}

// jsonPath quotes field so any name addresses a single top-level member.
func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}

func scanRecords(rows *sql.Rows) ([]store.Record, error) {
	defer rows.Close()

	records := []store.Record{}
	for rows.Next() {
		var r store.Record
		var fieldsText, updatedAt string
		err := rows.Scan(
			&r.Kind,
			&r.Name,
			&r.Key,
			&r.SourceFile,
			&r.SourceHash,
			&fieldsText,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if fieldsText != "" {
			if err := json.Unmarshal([]byte(fieldsText), &r.Fields); err != nil {
				return nil, fmt.Errorf("unmarshaling fields: %w", err)
			}
		}
		if r.Fields == nil {
			r.Fields = map[string]any{}
		}
		if t, err := time.Parse(timeLayout, updatedAt); err == nil {
			r.UpdatedAt = t
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record rows: %w", err)
	}
	return records, nil
}
