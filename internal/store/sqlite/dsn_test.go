package sqlite

import (
	"testing"
)

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "memory", input: "sqlite://:memory:", want: ":memory:"},
		{name: "absolute", input: "sqlite:///var/lib/editstate.db", want: "/var/lib/editstate.db"},
		{name: "relative", input: "sqlite://editstate.db", want: "./editstate.db"},
		{name: "dot relative", input: "sqlite://./data/editstate.db", want: "./data/editstate.db"},
		{name: "escaped", input: "sqlite://my%20data.db", want: "./my data.db"},
		{name: "query", input: "sqlite://editstate.db?_pragma=foreign_keys(1)", want: "./editstate.db?_pragma=foreign_keys(1)"},
		{name: "wrong scheme", input: "postgres://localhost/db", wantErr: true},
		{name: "empty path", input: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseDSN(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
