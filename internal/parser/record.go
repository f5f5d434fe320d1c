package parser

import (
	"strings"

	"gitlab.com/golang-commonmark/markdown"
)

var renderer = markdown.New(markdown.HTML(true), markdown.Tables(true), markdown.Linkify(false))

// reserved frontmatter keys are consumed by the parser and not copied into
// the record.
var reserved = map[string]bool{
	"kind": true,
	"type": true,
	"tags": true,
}

// Render converts markdown to HTML.
func Render(src string) string {
	return renderer.RenderToString([]byte(src))
}

// RawAttribute pairs a raw value with its rendered HTML. Titles render
// without the trailing newline.
func RawAttribute(field, raw string) map[string]any {
	rendered := Render(raw)
	if field == "title" {
		rendered = strings.TrimSpace(rendered)
	}
	return map[string]any{"raw": raw, "rendered": rendered}
}

// ToRecord builds the stored form of a document. title and content carry
// both the raw source and its rendered HTML; every other frontmatter field is
// copied as is. keyField receives the key when it is not set in frontmatter.
func ToRecord(doc *Document, keyField, key string) map[string]any {
	record := make(map[string]any, len(doc.Frontmatter)+3)
	for field, value := range doc.Frontmatter {
		if reserved[field] {
			continue
		}
		record[field] = normalize(value)
	}

	record["title"] = RawAttribute("title", doc.Title)
	record["content"] = RawAttribute("content", strings.TrimSpace(doc.Body))
	if len(doc.Tags) > 0 {
		tags := make([]any, len(doc.Tags))
		for i, tag := range doc.Tags {
			tags[i] = tag
		}
		record["tags"] = tags
	}
	if _, ok := record[keyField]; !ok {
		record[keyField] = key
	}
	return record
}

// normalize converts YAML-decoded values into the shapes JSON decoding
// produces, so records read back from the store compare equal to freshly
// parsed ones.
func normalize(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	default:
		return value
	}
}
