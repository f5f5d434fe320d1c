package validate

import (
	"context"
	"fmt"

	"editstate/internal/config"
	"editstate/internal/query"
	"editstate/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnknownEntity       = "unknown_entity"
	codeMissingKey          = "missing_key"
	codeKeyMismatch         = "key_mismatch"
	codeInvalidRawAttribute = "invalid_raw_attribute"
	codeMissingTitle        = "missing_title"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Kind     string
	Name     string
	Key      string
	FilePath string
}

type Report struct {
	Issues []Issue
}

// HasErrors reports whether any issue is an error rather than a warning.
func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// RecordLister is the part of store.Store validation reads from.
type RecordLister interface {
	ListAllRecords(ctx context.Context) ([]store.Record, error)
}

// Run checks every stored record against the entity registry.
func Run(ctx context.Context, registry *config.Registry, db RecordLister) (*Report, error) {
	if registry == nil {
		return nil, fmt.Errorf("entity registry is required")
	}
	if db == nil {
		return nil, fmt.Errorf("store is required")
	}

	records, err := db.ListAllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	issues := make([]Issue, 0)
	for i := range records {
		record := &records[i]
		entity, ok := registry.Entity(record.Kind, record.Name)
		if !ok {
			issues = append(issues, newIssue(record, SeverityError, codeUnknownEntity,
				fmt.Sprintf("entity %s/%s is not configured", record.Kind, record.Name)))
			continue
		}
		issues = append(issues, validateKey(record, entity)...)
		issues = append(issues, validateRawAttributes(record, entity)...)
		issues = append(issues, validateTitle(record, entity)...)
	}

	return &Report{Issues: issues}, nil
}

func validateKey(record *store.Record, entity *config.EntityConfig) []Issue {
	field := entity.KeyField()
	value, ok := record.Fields[field]
	if !ok || value == nil {
		return []Issue{newIssue(record, SeverityError, codeMissingKey,
			fmt.Sprintf("missing primary key field: %s", field))}
	}
	key, ok := query.KeyOf(value)
	if !ok || string(key) != record.Key {
		return []Issue{newIssue(record, SeverityError, codeKeyMismatch,
			fmt.Sprintf("primary key field %s is %v, stored under %s", field, value, record.Key))}
	}
	return nil
}

// validateRawAttributes requires raw attribute fields to be either a plain
// value or a {raw, rendered} pair whose raw member is present.
func validateRawAttributes(record *store.Record, entity *config.EntityConfig) []Issue {
	var issues []Issue
	for _, attr := range entity.RawAttributes {
		value, ok := record.Fields[attr]
		if !ok {
			continue
		}
		nested, ok := value.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := nested["raw"]; !ok {
			issues = append(issues, newIssue(record, SeverityError, codeInvalidRawAttribute,
				fmt.Sprintf("raw attribute %s has no raw value", attr)))
		}
	}
	return issues
}

func validateTitle(record *store.Record, entity *config.EntityConfig) []Issue {
	if entity.TitleField == "" && entity.TitleFunc == nil {
		return nil
	}
	if entity.Title(record.Fields) != "" {
		return nil
	}
	return []Issue{newIssue(record, SeverityWarn, codeMissingTitle, "record has no title")}
}

func newIssue(record *store.Record, severity Severity, code, message string) Issue {
	return Issue{
		Severity: severity,
		Code:     code,
		Message:  message,
		Kind:     record.Kind,
		Name:     record.Name,
		Key:      record.Key,
		FilePath: record.SourceFile,
	}
}
