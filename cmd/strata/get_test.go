package main

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/strata-format/strata/ir"
)

func TestLookup(t *testing.T) {
	val := map[string]any{
		"db": map[string]any{
			"hosts": []any{"a", "b", "c"},
			"port":  5432,
		},
	}
	tests := []struct {
		path    string
		want    any
		wantErr bool
	}{
		{path: "db.port", want: 5432},
		{path: "db.hosts[1]", want: "b"},
		{path: "db.hosts[-1]", want: "c"},
		{path: "", want: val},
		{path: "db.missing", wantErr: true},
		{path: "db.hosts[3]", wantErr: true},
		{path: "db.port[0]", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			path, err := ir.ParsePath(tc.path)
			if err != nil {
				t.Fatalf("parse path: %v", err)
			}
			got, err := lookup(val, path)
			if tc.wantErr {
				if !errors.Is(err, ir.ErrNotFound) {
					t.Fatalf("want ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
