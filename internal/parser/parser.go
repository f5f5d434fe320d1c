package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultKind is used when a document does not name its entity kind.
const DefaultKind = "postType"

// Document is one content file: its frontmatter, the entity it belongs to
// and its markdown body.
type Document struct {
	Frontmatter map[string]any
	Title       string
	Kind        string
	Name        string
	ID          any
	Tags        []string
	Body        string
	SourceFile  string
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle  = errors.New("frontmatter missing required 'title' field")
	ErrMissingType   = errors.New("frontmatter missing required 'type' field")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	trimmed = bytes.ReplaceAll(trimmed, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	yamlBytes, body, ok := cutClosingMarker(rest)
	if !ok {
		return nil, ErrNoFrontmatter
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}

	title, ok := frontmatter["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, ErrMissingTitle
	}

	name, ok := frontmatter["type"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, ErrMissingType
	}

	kind := DefaultKind
	if v, ok := frontmatter["kind"].(string); ok && strings.TrimSpace(v) != "" {
		kind = strings.TrimSpace(v)
	}

	tags, err := parseTags(frontmatter["tags"])
	if err != nil {
		return nil, err
	}

	return &Document{
		Frontmatter: frontmatter,
		Title:       title,
		Kind:        kind,
		Name:        strings.TrimSpace(name),
		ID:          frontmatter["id"],
		Tags:        tags,
		Body:        string(body),
	}, nil
}

// cutClosingMarker splits at the first "---" line, which may also end the
// file without a trailing newline.
func cutClosingMarker(rest []byte) ([]byte, []byte, bool) {
	if bytes.HasPrefix(rest, []byte("---\n")) {
		return nil, rest[len("---\n"):], true
	}
	if end := bytes.Index(rest, []byte("\n---\n")); end != -1 {
		return rest[:end+1], rest[end+len("\n---\n"):], true
	}
	if bytes.HasSuffix(rest, []byte("\n---")) {
		return rest[:len(rest)-len("---")], nil, true
	}
	return nil, nil, false
}

func parseTags(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tags must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			tags = append(tags, s)
		}
		if len(tags) == 0 {
			return nil, nil
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("tags must be string or list of strings")
	}
}
