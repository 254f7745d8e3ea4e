package query_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spacenote/spacenote/spacenote/query"
	"github.com/spacenote/spacenote/types"
)

func TestBuildSort(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []types.SortField
	}{
		{
			name:   "ascending by default",
			tokens: []string{"priority"},
			want:   []types.SortField{{Field: "fields.priority"}},
		},
		{
			name:   "dash prefix means descending",
			tokens: []string{"-created_at"},
			want:   []types.SortField{{Field: "created_at", Descending: true}},
		},
		{
			name:   "id aliases to the primary key",
			tokens: []string{"-id"},
			want:   []types.SortField{{Field: "_id", Descending: true}},
		},
		{
			name:   "input order defines precedence",
			tokens: []string{"-priority", "created_at", "title"},
			want: []types.SortField{
				{Field: "fields.priority", Descending: true},
				{Field: "created_at"},
				{Field: "fields.title"},
			},
		},
		{
			name:   "no tokens yields empty sort",
			tokens: nil,
			want:   []types.SortField{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.BuildSort(types.Filter{ID: "f", Sort: tt.tokens})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("sort mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDefaultSort(t *testing.T) {
	want := []types.SortField{{Field: "_id", Descending: true}}
	if diff := cmp.Diff(want, query.DefaultSort()); diff != "" {
		t.Errorf("default sort mismatch (-want +got):\n%s", diff)
	}
}
