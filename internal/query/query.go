// Package query resolves single-record and collection queries against the
// per-entity queried state, distinguishing collections that do not exist
// from data that has not been fetched yet.
package query

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultContext = "default"
	DefaultPage    = 1
	DefaultPerPage = 10
)

// Key is the string form of a primary key.
type Key string

// KeyOf normalizes a string or numeric primary key value. Numbers format
// without exponent, so 5, 5.0 and json.Number("5.0") all become "5".
func KeyOf(value any) (Key, bool) {
	switch v := value.(type) {
	case Key:
		return v, v != ""
	case string:
		return Key(v), v != ""
	case int:
		return Key(strconv.Itoa(v)), true
	case int8:
		return Key(strconv.FormatInt(int64(v), 10)), true
	case int16:
		return Key(strconv.FormatInt(int64(v), 10)), true
	case int32:
		return Key(strconv.FormatInt(int64(v), 10)), true
	case int64:
		return Key(strconv.FormatInt(v, 10)), true
	case uint:
		return Key(strconv.FormatUint(uint64(v), 10)), true
	case uint8:
		return Key(strconv.FormatUint(uint64(v), 10)), true
	case uint16:
		return Key(strconv.FormatUint(uint64(v), 10)), true
	case uint32:
		return Key(strconv.FormatUint(uint64(v), 10)), true
	case uint64:
		return Key(strconv.FormatUint(v, 10)), true
	case float32:
		return floatKey(float64(v))
	case float64:
		return floatKey(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Key(strconv.FormatInt(i, 10)), true
		}
		if f, err := v.Float64(); err == nil {
			return floatKey(f)
		}
		return Key(v.String()), v.String() != ""
	default:
		return "", false
	}
}

func floatKey(v float64) (Key, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return Key(strconv.FormatInt(int64(v), 10)), true
	}
	return Key(strconv.FormatFloat(v, 'f', -1, 64)), true
}

// Presence tells apart the three outcomes of a lookup.
type Presence int

const (
	// Unknown means the collection itself does not exist.
	Unknown Presence = iota
	// NotLoaded means the collection exists but the value has not been fetched.
	NotLoaded
	Loaded
)

func (p Presence) String() string {
	switch p {
	case NotLoaded:
		return "not_loaded"
	case Loaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Query selects records. Params are server-side filters and ordering and
// take part in the stable key; the other fields do not.
type Query struct {
	Context string
	Fields  []string
	Include []Key
	Page    int
	PerPage int
	Params  map[string]string
}

// ContextName resolves the view context, defaulting to "default".
func (q Query) ContextName() string {
	if q.Context == "" {
		return DefaultContext
	}
	return q.Context
}

func (q Query) HasFields() bool {
	return len(q.Fields) > 0
}

// Window returns the 1-based page and the page size; a page size of -1
// selects everything.
func (q Query) Window() (int, int) {
	page := q.Page
	if page < 1 {
		page = DefaultPage
	}
	perPage := q.PerPage
	if perPage == 0 || perPage < -1 {
		perPage = DefaultPerPage
	}
	return page, perPage
}

// StableKey identifies the result list a collection query maps to.
func (q Query) StableKey() string {
	values := url.Values{}
	for key, value := range q.Params {
		values.Set(key, value)
	}
	return values.Encode()
}

// FieldsKey is a canonical string for the field filter.
func (q Query) FieldsKey() string {
	return strings.Join(q.Fields, ",")
}

// IncludeKey is a canonical string for the include list.
func (q Query) IncludeKey() string {
	parts := make([]string, len(q.Include))
	for i, key := range q.Include {
		parts[i] = string(key)
	}
	return strings.Join(parts, ",")
}

// ParseFields splits a comma separated _fields value.
func ParseFields(raw string) []string {
	var fields []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields = append(fields, part)
	}
	return fields
}
