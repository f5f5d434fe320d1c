package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("full frontmatter", func(t *testing.T) {
		content := []byte("---\ntitle: Hello World\ntype: post\nkind: postType\nid: 12\nstatus: draft\ntags: [news, launch]\n---\n\nThis is the body.\n")
		doc, err := Parse(content)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "Hello World" {
			t.Fatalf("expected title, got %q", doc.Title)
		}
		if doc.Kind != "postType" || doc.Name != "post" {
			t.Fatalf("unexpected entity %s/%s", doc.Kind, doc.Name)
		}
		if doc.ID != 12 {
			t.Fatalf("expected id 12, got %#v", doc.ID)
		}
		if doc.Body == "" {
			t.Fatalf("expected body")
		}
		if !reflect.DeepEqual(doc.Tags, []string{"news", "launch"}) {
			t.Fatalf("unexpected tags: %#v", doc.Tags)
		}
		if _, ok := doc.Frontmatter["status"]; !ok {
			t.Fatalf("expected status in frontmatter")
		}
	})

	t.Run("minimal frontmatter", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Minimal\ntype: page\n---\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Kind != DefaultKind {
			t.Fatalf("expected default kind, got %q", doc.Kind)
		}
		if doc.ID != nil {
			t.Fatalf("expected no id, got %#v", doc.ID)
		}
		if doc.Tags != nil {
			t.Fatalf("expected nil tags, got %#v", doc.Tags)
		}
		if doc.Body != "" {
			t.Fatalf("expected empty body, got %q", doc.Body)
		}
	})

	t.Run("closing marker at end of file", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: End\ntype: page\n---"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "End" {
			t.Fatalf("expected title, got %q", doc.Title)
		}
	})

	t.Run("dashes inside a value", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: a---\ntype: page\n---\nbody\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "a---" {
			t.Fatalf("expected title with dashes, got %q", doc.Title)
		}
	})

	t.Run("windows line endings", func(t *testing.T) {
		doc, err := Parse([]byte("---\r\ntitle: CRLF\r\ntype: page\r\n---\r\nbody\r\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Body != "body\n" {
			t.Fatalf("unexpected body %q", doc.Body)
		}
	})

	t.Run("no frontmatter", func(t *testing.T) {
		_, err := Parse([]byte("Just text"))
		if !errors.Is(err, ErrNoFrontmatter) {
			t.Fatalf("expected ErrNoFrontmatter, got %v", err)
		}
	})

	t.Run("missing closing marker", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: Missing\n"))
		if !errors.Is(err, ErrNoFrontmatter) {
			t.Fatalf("expected ErrNoFrontmatter, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: [\n---\n"))
		if !errors.Is(err, ErrInvalidYAML) {
			t.Fatalf("expected ErrInvalidYAML, got %v", err)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		_, err := Parse([]byte("---\ntype: page\n---\n"))
		if !errors.Is(err, ErrMissingTitle) {
			t.Fatalf("expected ErrMissingTitle, got %v", err)
		}
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: Something\n---\n"))
		if !errors.Is(err, ErrMissingType) {
			t.Fatalf("expected ErrMissingType, got %v", err)
		}
	})

	t.Run("tags single string", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Tags\ntype: post\ntags: lone\n---\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(doc.Tags, []string{"lone"}) {
			t.Fatalf("unexpected tags: %#v", doc.Tags)
		}
	})

	t.Run("tags of the wrong type", func(t *testing.T) {
		if _, err := Parse([]byte("---\ntitle: Tags\ntype: post\ntags: [1, 2]\n---\n")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestParseFile(t *testing.T) {
	doc, err := ParseFile(filepath.Join("testdata", "about.md"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doc.Title != "About Us" {
		t.Fatalf("expected title, got %q", doc.Title)
	}
	if doc.SourceFile == "" {
		t.Fatalf("expected source file set")
	}
}

func TestParseFile_NoFrontmatter(t *testing.T) {
	_, err := ParseFile(filepath.Join("testdata", "no_frontmatter.md"))
	if !errors.Is(err, ErrNoFrontmatter) {
		t.Fatalf("expected ErrNoFrontmatter, got %v", err)
	}
}

func TestParseFile_MissingType(t *testing.T) {
	_, err := ParseFile(filepath.Join("testdata", "missing_type.md"))
	if !errors.Is(err, ErrMissingType) {
		t.Fatalf("expected ErrMissingType, got %v", err)
	}
}

func TestParse_BOMTrim(t *testing.T) {
	doc, err := Parse([]byte("\ufeff---\ntitle: BOM\ntype: page\n---\n"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doc.Title != "BOM" {
		t.Fatalf("expected title, got %q", doc.Title)
	}
}

func TestParseFile_ReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected missing file")
	}
	if _, err := ParseFile(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestToRecord(t *testing.T) {
	doc, err := ParseFile(filepath.Join("testdata", "about.md"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	record := ToRecord(doc, "id", "about")

	if record["id"] != float64(5) {
		t.Fatalf("expected frontmatter id to win, got %#v", record["id"])
	}
	if record["menu_order"] != float64(2) {
		t.Fatalf("expected numeric fields as float64, got %#v", record["menu_order"])
	}
	title, ok := record["title"].(map[string]any)
	if !ok || title["raw"] != "About Us" || title["rendered"] != "<p>About Us</p>" {
		t.Fatalf("unexpected title %#v", record["title"])
	}
	content, ok := record["content"].(map[string]any)
	if !ok {
		t.Fatalf("expected content map, got %#v", record["content"])
	}
	if content["raw"] != "We build **editors**." {
		t.Fatalf("unexpected raw content %q", content["raw"])
	}
	if content["rendered"] != "<p>We build <strong>editors</strong>.</p>\n" {
		t.Fatalf("unexpected rendered content %q", content["rendered"])
	}
	if _, ok := record["type"]; ok {
		t.Fatalf("expected type to be consumed")
	}
	if !reflect.DeepEqual(record["tags"], []any{"company", "team"}) {
		t.Fatalf("unexpected tags %#v", record["tags"])
	}

	minimal := ToRecord(&Document{Title: "T", Frontmatter: map[string]any{"title": "T"}}, "slug", "t")
	if minimal["slug"] != "t" {
		t.Fatalf("expected key field filled, got %#v", minimal["slug"])
	}
}
