package query

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyOf(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Key
		ok    bool
	}{
		{name: "string", value: "about", want: "about", ok: true},
		{name: "empty string", value: "", ok: false},
		{name: "int", value: 5, want: "5", ok: true},
		{name: "int64", value: int64(42), want: "42", ok: true},
		{name: "integral float", value: 5.0, want: "5", ok: true},
		{name: "fractional float", value: 1.5, want: "1.5", ok: true},
		{name: "json number", value: json.Number("7"), want: "7", ok: true},
		{name: "json number integral float", value: json.Number("5.0"), want: "5", ok: true},
		{name: "json number fraction", value: json.Number("2.50"), want: "2.5", ok: true},
		{name: "json number exponent", value: json.Number("1e3"), want: "1000", ok: true},
		{name: "int8", value: int8(-3), want: "-3", ok: true},
		{name: "int16", value: int16(300), want: "300", ok: true},
		{name: "uint8", value: uint8(9), want: "9", ok: true},
		{name: "uint16", value: uint16(65535), want: "65535", ok: true},
		{name: "uint32", value: uint32(70000), want: "70000", ok: true},
		{name: "float32", value: float32(8), want: "8", ok: true},
		{name: "nan", value: math.NaN(), ok: false},
		{name: "nil", value: nil, ok: false},
		{name: "map", value: map[string]any{}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeyOf(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	q := Query{Params: map[string]string{"orderby": "date", "order": "asc"}}
	assert.Equal(t, "default", q.ContextName())
	assert.Equal(t, "order=asc&orderby=date", q.StableKey())

	page, perPage := q.Window()
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPerPage, perPage)

	all := Query{PerPage: -1, Page: 3}
	page, perPage = all.Window()
	assert.Equal(t, 3, page)
	assert.Equal(t, -1, perPage)

	assert.Equal(t, []string{"id", "title.raw"}, ParseFields(" id, ,title.raw,"))
	assert.Nil(t, ParseFields(""))
}

func TestFilter(t *testing.T) {
	item := map[string]any{
		"id":    5,
		"title": map[string]any{"raw": "Hi", "rendered": "<p>Hi</p>"},
		"meta":  map[string]any{"a": 1, "b": 2},
	}

	t.Run("nested paths", func(t *testing.T) {
		got := Filter(item, []string{"id", "title.raw", "missing", "meta.c"})
		assert.Equal(t, map[string]any{"id": 5, "title": map[string]any{"raw": "Hi"}}, got)
	})

	t.Run("overlapping paths do not touch the cached item", func(t *testing.T) {
		got := Filter(item, []string{"meta", "title.raw", "title.rendered"})
		assert.Equal(t, map[string]any{"a": 1, "b": 2}, got["meta"])
		assert.Equal(t, map[string]any{"raw": "Hi", "rendered": "<p>Hi</p>"}, got["title"])

		got = Filter(item, []string{"meta", "meta.a"})
		nested := got["meta"].(map[string]any)
		nested["a"] = 99
		assert.Equal(t, 1, item["meta"].(map[string]any)["a"])
	})

	t.Run("idempotent", func(t *testing.T) {
		fields := []string{"id", "title.rendered"}
		assert.Equal(t, Filter(item, fields), Filter(item, fields))
	})
}

func TestProject(t *testing.T) {
	t.Run("nil state is unknown", func(t *testing.T) {
		_, presence := Project(nil, "5", Query{})
		assert.Equal(t, Unknown, presence)
	})

	s := Receive(nil, []map[string]any{{"id": 5.0, "title": "full"}}, "id", Query{}, false)
	s = Receive(s, []map[string]any{{"id": 6.0, "title": "partial"}}, "id", Query{Fields: []string{"id", "title"}}, false)

	t.Run("complete record", func(t *testing.T) {
		got, presence := Project(s, "5", Query{})
		require.Equal(t, Loaded, presence)
		assert.Equal(t, "full", got["title"])
	})

	t.Run("partial record without fields is not loaded", func(t *testing.T) {
		got, presence := Project(s, "6", Query{})
		assert.Equal(t, NotLoaded, presence)
		assert.Nil(t, got)
	})

	t.Run("partial record with fields", func(t *testing.T) {
		got, presence := Project(s, "6", Query{Fields: []string{"title", "status"}})
		require.Equal(t, Loaded, presence)
		assert.Equal(t, map[string]any{"title": "partial"}, got)
	})

	t.Run("missing key", func(t *testing.T) {
		_, presence := Project(s, "7", Query{Fields: []string{"title"}})
		assert.Equal(t, NotLoaded, presence)
	})

	t.Run("other context", func(t *testing.T) {
		_, presence := Project(s, "5", Query{Context: "edit"})
		assert.Equal(t, NotLoaded, presence)
	})
}

func TestReceiveKeepsCompleteness(t *testing.T) {
	s := Receive(nil, []map[string]any{{"id": "a", "title": "full", "body": "b"}}, "id", Query{}, false)
	s = Receive(s, []map[string]any{{"id": "a", "title": "newer"}}, "id", Query{Fields: []string{"title"}}, false)

	got, presence := Project(s, "a", Query{})
	require.Equal(t, Loaded, presence)
	assert.Equal(t, map[string]any{"id": "a", "title": "newer", "body": "b"}, got)
}

func TestReceiveDoesNotMutateInput(t *testing.T) {
	first := Receive(nil, []map[string]any{{"id": "a"}}, "id", Query{}, false)
	_ = Receive(first, []map[string]any{{"id": "b"}}, "id", Query{}, false)

	assert.Len(t, first.Items[DefaultContext], 1)
}

func TestProjectMany(t *testing.T) {
	records := func(ids ...string) []map[string]any {
		out := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			out = append(out, map[string]any{"id": id, "title": "t" + id})
		}
		return out
	}

	q := Query{PerPage: 2, Params: map[string]string{"orderby": "title"}}

	t.Run("unknown and not loaded", func(t *testing.T) {
		_, presence := ProjectMany(nil, q)
		assert.Equal(t, Unknown, presence)
		_, presence = ProjectMany(NewState(), q)
		assert.Equal(t, NotLoaded, presence)
	})

	s := Receive(nil, records("a", "b"), "id", q, true)

	t.Run("first page", func(t *testing.T) {
		got, presence := ProjectMany(s, q)
		require.Equal(t, Loaded, presence)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0]["id"])
	})

	t.Run("second page not fetched", func(t *testing.T) {
		page2 := q
		page2.Page = 2
		got, presence := ProjectMany(s, page2)
		require.Equal(t, Loaded, presence)
		assert.Empty(t, got)
	})

	page3 := q
	page3.Page = 3
	s = Receive(s, records("e"), "id", page3, true)

	t.Run("hole before received page", func(t *testing.T) {
		page2 := q
		page2.Page = 2
		_, presence := ProjectMany(s, page2)
		assert.Equal(t, NotLoaded, presence)

		got, presence := ProjectMany(s, page3)
		require.Equal(t, Loaded, presence)
		assert.Equal(t, "e", got[0]["id"])
	})

	t.Run("all", func(t *testing.T) {
		all := Query{PerPage: -1, Params: map[string]string{"status": "draft"}}
		st := Receive(nil, records("x", "y", "z"), "id", all, true)
		got, presence := ProjectMany(st, all)
		require.Equal(t, Loaded, presence)
		assert.Len(t, got, 3)
	})

	t.Run("include skips unknown ids", func(t *testing.T) {
		got, presence := ProjectMany(s, Query{Include: []Key{"a", "zz", "b"}})
		require.Equal(t, Loaded, presence)
		require.Len(t, got, 2)
		assert.Equal(t, "b", got[1]["id"])
	})

	t.Run("field filter on collection", func(t *testing.T) {
		filtered := q
		filtered.Fields = []string{"title"}
		got, presence := ProjectMany(s, filtered)
		require.Equal(t, Loaded, presence)
		assert.Equal(t, map[string]any{"title": "ta"}, got[0])
	})

	t.Run("incomplete item without fields", func(t *testing.T) {
		partialQuery := Query{PerPage: -1, Fields: []string{"id"}}
		st := Receive(nil, records("p"), "id", partialQuery, true)
		full := partialQuery
		full.Fields = nil
		_, presence := ProjectMany(st, full)
		assert.Equal(t, NotLoaded, presence)
	})
}

func TestRemove(t *testing.T) {
	q := Query{PerPage: -1}
	s := Receive(nil, []map[string]any{{"id": "a"}, {"id": "b"}}, "id", q, true)
	s = Receive(s, []map[string]any{{"id": "a"}}, "id", Query{Context: "edit"}, false)

	next := Remove(s, "a")
	_, presence := Project(next, "a", Query{})
	assert.Equal(t, NotLoaded, presence)
	_, presence = Project(next, "a", Query{Context: "edit"})
	assert.Equal(t, NotLoaded, presence)

	got, presence := ProjectMany(next, q)
	require.Equal(t, Loaded, presence)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0]["id"])

	_, presence = Project(s, "a", Query{})
	assert.Equal(t, Loaded, presence)
}
