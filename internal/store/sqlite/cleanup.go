package sqlite

import (
	"context"
	"fmt"
	"strings"
)

// RemoveStaleRecords deletes ingested records of an entity whose source file
// is no longer present. Records without a source file are never touched.
func (c *Client) RemoveStaleRecords(ctx context.Context, kind, name string, currentSourceFiles []string) (int64, error) {
	args := []any{kind, name}
	notIn := ""
	if len(currentSourceFiles) > 0 {
		placeholders := make([]string, len(currentSourceFiles))
		for i, f := range currentSourceFiles {
			placeholders[i] = "?"
			args = append(args, f)
		}
		notIn = fmt.Sprintf("AND source_file NOT IN (%s)", strings.Join(placeholders, ", "))
	}

	query := fmt.Sprintf(`
	DELETE FROM records
	WHERE kind = ?
	  AND name = ?
	  AND source_file IS NOT NULL
	  AND source_file <> ''
	  %s
	`, notIn)

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale records: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return affected, nil
}

func (c *Client) GetSourceHashes(ctx context.Context, kind, name string) (map[string]string, error) {
	query := `
	SELECT source_file, source_hash FROM records
	WHERE kind = ?
	  AND name = ?
	  AND source_file IS NOT NULL
	  AND source_file <> ''
	`

	rows, err := c.db.QueryContext(ctx, query, kind, name)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning source hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source hashes: %w", err)
	}

	return hashes, nil
}
