package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultCacheSize = 1024

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
	Sources  []Source       `yaml:"sources"`
	Exclude  []string       `yaml:"exclude"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type CacheConfig struct {
	Size int `yaml:"size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Source maps content directories onto one entity (kind, name) pair.
type Source struct {
	Kind  string   `yaml:"kind"`
	Name  string   `yaml:"name"`
	Paths []string `yaml:"paths"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyProjectDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyProjectDefaults(cfg *ProjectConfig) {
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = DefaultCacheSize
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
	if strings.TrimSpace(cfg.Log.Format) == "" {
		cfg.Log.Format = "text"
	}
	for i := range cfg.Sources {
		if strings.TrimSpace(cfg.Sources[i].Kind) == "" {
			cfg.Sources[i].Kind = DefaultKind
		}
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if cfg.Cache.Size < 0 {
		return fmt.Errorf("cache size must not be negative: %d", cfg.Cache.Size)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", cfg.Log.Format)
	}

	seen := make(map[string]struct{})
	for i, source := range cfg.Sources {
		if strings.TrimSpace(source.Name) == "" {
			return fmt.Errorf("source %d name is required", i)
		}
		if len(source.Paths) == 0 {
			return fmt.Errorf("source %d paths are required", i)
		}
		key := entityKey(source.Kind, source.Name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate source: %s/%s", source.Kind, source.Name)
		}
		seen[key] = struct{}{}
	}

	return nil
}
