package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"editstate/internal/config"
)

func TestOpenDB(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.ProjectConfig{Database: config.DatabaseConfig{DSN: "sqlite://" + filepath.Join(t.TempDir(), "cli.db")}}
		db, err := openDB(ctx, cfg)
		require.NoError(t, err)
		defer db.Close(ctx)
		require.NoError(t, db.EnsureSchema(ctx))
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		cfg := &config.ProjectConfig{Database: config.DatabaseConfig{DSN: "mysql://localhost/db"}}
		db, err := openDB(ctx, cfg)
		require.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"status=draft", "author=", "tag=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"status": "draft", "author": "", "tag": "a=b"}, params)

	_, err = parseParams([]string{"status"})
	require.Error(t, err)
	_, err = parseParams([]string{"=x"})
	require.Error(t, err)
}
