package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema runs every statement in one Exec call, which PostgreSQL
// applies as a single implicit transaction.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS records (
    id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    kind        TEXT NOT NULL,
    name        TEXT NOT NULL,
    record_key  TEXT NOT NULL,
    source_file TEXT NOT NULL DEFAULT '',
    source_hash TEXT NOT NULL DEFAULT '',
    fields      JSONB NOT NULL DEFAULT '{}',
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT uq_record UNIQUE (kind, name, record_key)
);

CREATE INDEX IF NOT EXISTS idx_records_entity ON records (kind, name);
CREATE INDEX IF NOT EXISTS idx_records_source_file ON records (source_file);
CREATE INDEX IF NOT EXISTS idx_records_updated ON records (kind, name, updated_at);
CREATE INDEX IF NOT EXISTS idx_records_fields ON records USING GIN (fields);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
