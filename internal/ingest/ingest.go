package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"editstate/internal/config"
	"editstate/internal/logging"
	"editstate/internal/parser"
	"editstate/internal/query"
	"editstate/internal/store"
)

// Store is the part of store.Store ingestion writes through.
type Store interface {
	EnsureSchema(ctx context.Context) error
	UpsertRecord(ctx context.Context, r store.Record) error
	GetSourceHashes(ctx context.Context, kind, name string) (map[string]string, error)
	RemoveStaleRecords(ctx context.Context, kind, name string, currentSourceFiles []string) (int64, error)
}

type Result struct {
	RecordsUpserted int
	RecordsRemoved  int
	FilesSkipped    int
	Errors          []error
}

type Options struct {
	Full   bool
	Logger *slog.Logger
}

// Run loads every configured source into the store. Files whose hash is
// unchanged since the last run are skipped unless Full is set, and records
// whose source file disappeared are removed. Per-file failures are collected
// in the result; only setup failures abort the run.
func Run(ctx context.Context, cfg *config.ProjectConfig, registry *config.Registry, db Store, options Options) (*Result, error) {
	logger := logging.OrDiscard(options.Logger)

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	result := &Result{}
	sourceFiles := make(map[int][]string)

	for i, source := range cfg.Sources {
		entity, ok := registry.Entity(source.Kind, source.Name)
		if !ok {
			return nil, fmt.Errorf("source %s/%s is not a configured entity", source.Kind, source.Name)
		}

		var existingHashes map[string]string
		if !options.Full {
			var err error
			existingHashes, err = db.GetSourceHashes(ctx, entity.Kind, entity.Name)
			if err != nil {
				return nil, fmt.Errorf("get source hashes for %s/%s: %w", entity.Kind, entity.Name, err)
			}
		}

		files, err := walkMarkdownFiles(source.Paths, cfg.Exclude)
		if err != nil {
			return nil, fmt.Errorf("walking files for %s/%s: %w", entity.Kind, entity.Name, err)
		}
		sourceFiles[i] = files

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			hash, err := computeHash(path)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
				continue
			}
			if !options.Full {
				if existing, ok := existingHashes[path]; ok && existing == hash {
					result.FilesSkipped++
					continue
				}
			}

			doc, err := parser.ParseFile(path)
			if err != nil {
				if errors.Is(err, parser.ErrNoFrontmatter) || errors.Is(err, parser.ErrMissingType) {
					logger.Debug("skipping file", "path", path, "reason", err)
					result.FilesSkipped++
					continue
				}
				result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
				continue
			}

			if !strings.EqualFold(doc.Kind, entity.Kind) || !strings.EqualFold(doc.Name, entity.Name) {
				logger.Debug("skipping file of another entity", "path", path, "kind", doc.Kind, "name", doc.Name)
				result.FilesSkipped++
				continue
			}

			key, err := recordKey(doc, entity, path)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("keying %s: %w", path, err))
				continue
			}

			record := store.Record{
				Kind:       entity.Kind,
				Name:       entity.Name,
				Key:        string(key),
				SourceFile: path,
				SourceHash: hash,
				Fields:     parser.ToRecord(doc, entity.KeyField(), string(key)),
			}
			if err := db.UpsertRecord(ctx, record); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", path, err))
				continue
			}
			result.RecordsUpserted++
		}
	}

	for i, source := range cfg.Sources {
		entity, _ := registry.Entity(source.Kind, source.Name)
		deleted, err := db.RemoveStaleRecords(ctx, entity.Kind, entity.Name, sourceFiles[i])
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("removing stale records for %s/%s: %w", entity.Kind, entity.Name, err))
			continue
		}
		result.RecordsRemoved += int(deleted)
	}

	logger.Info("ingest finished",
		"upserted", result.RecordsUpserted,
		"removed", result.RecordsRemoved,
		"skipped", result.FilesSkipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

// recordKey takes the key field from frontmatter, falling back to the file
// name without its extension.
func recordKey(doc *parser.Document, entity *config.EntityConfig, path string) (query.Key, error) {
	if value, ok := doc.Frontmatter[entity.KeyField()]; ok {
		key, ok := query.KeyOf(value)
		if !ok {
			return "", fmt.Errorf("%s must be a string or integer", entity.KeyField())
		}
		return key, nil
	}
	base := filepath.Base(path)
	return query.Key(strings.TrimSuffix(base, filepath.Ext(base))), nil
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if isExcluded(path, excluded) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
