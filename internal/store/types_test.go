package store

import (
	"testing"
)

func TestListOptionsWindow(t *testing.T) {
	tests := []struct {
		name       string
		opts       ListOptions
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", opts: ListOptions{}, wantLimit: 10, wantOffset: 0},
		{name: "third page", opts: ListOptions{Page: 3, PerPage: 5}, wantLimit: 5, wantOffset: 10},
		{name: "everything", opts: ListOptions{Page: 4, PerPage: -1}, wantLimit: -1, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := tt.opts.Window()
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("Window() = %d, %d, want %d, %d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestListOptionsOrderClause(t *testing.T) {
	clause, err := ListOptions{}.OrderClause()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clause != "length(record_key) ASC, record_key ASC" {
		t.Errorf("unexpected clause %q", clause)
	}

	clause, err = ListOptions{OrderBy: "updated", Order: "DESC"}.OrderClause()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clause != "updated_at DESC, length(record_key), record_key" {
		t.Errorf("unexpected clause %q", clause)
	}

	if _, err := (ListOptions{OrderBy: "title"}).OrderClause(); err == nil {
		t.Error("expected error for unknown orderby")
	}
	if _, err := (ListOptions{Order: "up"}).OrderClause(); err == nil {
		t.Error("expected error for unknown order")
	}
}
