package store

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is one stored entity record. Fields holds the record as the
// session sees it, primary key included.
type Record struct {
	Kind       string
	Name       string
	Key        string
	SourceFile string
	SourceHash string
	Fields     map[string]any
	UpdatedAt  time.Time
}

const (
	OrderByKey     = "key"
	OrderByUpdated = "updated"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListOptions selects a page of records. PerPage -1 returns every record;
// zero values fall back to page 1 of 10 ordered by key ascending. Include
// restricts the result to the given keys and Where to records whose
// top-level field, read as text, equals the given value.
type ListOptions struct {
	Page    int
	PerPage int
	OrderBy string
	Order   string
	Include []string
	Where   map[string]string
}

// WhereFields returns the Where field names in a stable order.
func (o ListOptions) WhereFields() []string {
	fields := make([]string, 0, len(o.Where))
	for field := range o.Where {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Window returns LIMIT and OFFSET values; a negative limit means no limit.
func (o ListOptions) Window() (limit, offset int) {
	page := o.Page
	if page < 1 {
		page = 1
	}
	perPage := o.PerPage
	if perPage == -1 {
		return -1, 0
	}
	if perPage <= 0 {
		perPage = 10
	}
	return perPage, (page - 1) * perPage
}

// OrderClause returns the ORDER BY expression for the options. Keys sort by
// length first so numeric keys come out in numeric order.
func (o ListOptions) OrderClause() (string, error) {
	direction := "ASC"
	switch strings.ToLower(o.Order) {
	case "", OrderAsc:
	case OrderDesc:
		direction = "DESC"
	default:
		return "", fmt.Errorf("invalid order %q, expected asc or desc", o.Order)
	}

	switch strings.ToLower(o.OrderBy) {
	case "", OrderByKey, "id":
		return fmt.Sprintf("length(record_key) %[1]s, record_key %[1]s", direction), nil
	case OrderByUpdated:
		return fmt.Sprintf("updated_at %[1]s, length(record_key), record_key", direction), nil
	default:
		return "", fmt.Errorf("invalid orderby %q, expected key or updated", o.OrderBy)
	}
}
