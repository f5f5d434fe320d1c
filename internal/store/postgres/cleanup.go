package postgres

import (
	"context"
	"fmt"
)

// RemoveStaleRecords deletes ingested records of an entity whose source file
// is no longer present. Records without a source file are never touched.
func (c *Client) RemoveStaleRecords(ctx context.Context, kind, name string, currentSourceFiles []string) (int64, error) {
	if currentSourceFiles == nil {
		currentSourceFiles = []string{}
	}

	query := `
DELETE FROM records
WHERE kind = $1
  AND name = $2
  AND source_file <> ''
  AND NOT (source_file = ANY($3))
`

	tag, err := c.pool.Exec(ctx, query, kind, name, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) GetSourceHashes(ctx context.Context, kind, name string) (map[string]string, error) {
	query := `
SELECT source_file, source_hash FROM records
WHERE kind = $1
  AND name = $2
  AND source_file <> ''
`

	rows, err := c.pool.Query(ctx, query, kind, name)
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
