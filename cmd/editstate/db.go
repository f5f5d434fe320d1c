package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"editstate/internal/config"
	"editstate/internal/logging"
	"editstate/internal/store"
	"editstate/internal/store/postgres"
	"editstate/internal/store/sqlite"
)

// openDB picks the backend from the DSN scheme.
func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := cfg.Database.DSN
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		client, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		client, err := sqlite.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported database dsn %q, expected sqlite:// or postgres://", dsn)
	}
}

type project struct {
	cfg      *config.ProjectConfig
	registry *config.Registry
	logger   *slog.Logger
}

// loadProject reads both config files and builds the logger. Logs go to
// stderr so stdout stays free for command output and the stdio transport.
func loadProject() (*project, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	registry, err := config.LoadRegistry(entitiesPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &project{cfg: cfg, registry: registry, logger: logger}, nil
}
