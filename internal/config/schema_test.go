package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRegistry(t *testing.T) {
	t.Run("valid registry loads", func(t *testing.T) {
		registry, err := LoadRegistry(filepath.Join("testdata", "valid_entities.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !registry.IsValidEntity("postType", "post") {
			t.Fatalf("expected postType/post to be valid")
		}
	})

	t.Run("missing entities", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nentities: []\n")
		if _, err := LoadRegistry(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("duplicate entity names", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nentities:\n  - name: post\n  - kind: postType\n    name: POST\n")
		if _, err := LoadRegistry(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("transient key field", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nentities:\n  - name: post\n    transient_edits: [id]\n")
		if _, err := LoadRegistry(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing entity name", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nentities:\n  - kind: root\n")
		if _, err := LoadRegistry(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestRegistryHelpers(t *testing.T) {
	registry, err := LoadRegistry(filepath.Join("testdata", "valid_entities.yaml"))
	if err != nil {
		t.Fatalf("loading registry: %v", err)
	}

	t.Run("Entity case-insensitive", func(t *testing.T) {
		if _, ok := registry.Entity("POSTTYPE", "Page"); !ok {
			t.Fatalf("expected to find postType/page")
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		post, _ := registry.Entity("postType", "post")
		if post.KeyField() != "id" {
			t.Fatalf("expected default key field, got %q", post.KeyField())
		}
		site, _ := registry.Entity("root", "site")
		if site.KeyField() != "slug" {
			t.Fatalf("expected slug key field, got %q", site.KeyField())
		}
	})

	t.Run("EntitiesByKind sorted by name", func(t *testing.T) {
		entities := registry.EntitiesByKind("postType")
		if len(entities) != 2 {
			t.Fatalf("expected 2 entities, got %d", len(entities))
		}
		if entities[0].Name != "page" || entities[1].Name != "post" {
			t.Fatalf("unexpected order: %s, %s", entities[0].Name, entities[1].Name)
		}
	})

	t.Run("IsTransient", func(t *testing.T) {
		post, _ := registry.Entity("postType", "post")
		if !post.IsTransient("selection") {
			t.Fatalf("expected selection to be transient")
		}
		if post.IsTransient("title") {
			t.Fatalf("expected title not to be transient")
		}
	})

	t.Run("Title unwraps raw values", func(t *testing.T) {
		post, _ := registry.Entity("postType", "post")
		if got := post.Title(map[string]any{"title": map[string]any{"raw": "Hi", "rendered": "<p>Hi</p>"}}); got != "Hi" {
			t.Fatalf("expected Hi, got %q", got)
		}
		if got := post.Title(map[string]any{"title": "Plain"}); got != "Plain" {
			t.Fatalf("expected Plain, got %q", got)
		}
		site, _ := registry.Entity("root", "site")
		if got := site.Title(map[string]any{"title": "ignored"}); got != "" {
			t.Fatalf("expected empty title, got %q", got)
		}
	})

	t.Run("TitleFunc overrides field", func(t *testing.T) {
		custom, err := NewRegistry(EntityConfig{Name: "menu", TitleFunc: func(record map[string]any) string {
			name, _ := record["name"].(string)
			return strings.ToUpper(name)
		}})
		if err != nil {
			t.Fatalf("building registry: %v", err)
		}
		menu, _ := custom.Entity(DefaultKind, "menu")
		if got := menu.Title(map[string]any{"name": "main"}); got != "MAIN" {
			t.Fatalf("expected MAIN, got %q", got)
		}
	})
}
