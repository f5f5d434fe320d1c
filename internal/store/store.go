package store

import (
	"context"
)

// Store persists entity records. It is the source the session fetches from
// and the target saves and deletes are written to.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertRecord(ctx context.Context, r Record) error
	GetRecord(ctx context.Context, kind, name, key string) (*Record, error)
	ListRecords(ctx context.Context, kind, name string, opts ListOptions) ([]Record, error)
	ListAllRecords(ctx context.Context) ([]Record, error)
	DeleteRecord(ctx context.Context, kind, name, key string) (bool, error)

	GetSourceHashes(ctx context.Context, kind, name string) (map[string]string, error)
	RemoveStaleRecords(ctx context.Context, kind, name string, currentSourceFiles []string) (int64, error)
}
