package query

import (
	"strings"

	"github.com/spacenote/spacenote/types"
)

// BuildSort translates a filter's sort tokens into storage-path sort keys.
// A leading "-" marks descending order. Keys are emitted in input order,
// which defines tie-break precedence: the first token is the primary key.
func BuildSort(filter types.Filter) []types.SortField {
	sort := make([]types.SortField, 0, len(filter.Sort))
	for _, token := range filter.Sort {
		name, descending := strings.CutPrefix(token, "-")
		sort = append(sort, types.SortField{
			Field:      storagePath(name),
			Descending: descending,
		})
	}
	return sort
}

// DefaultSort is the listing order when no filter is applied: newest
// notes first.
func DefaultSort() []types.SortField {
	return []types.SortField{{Field: "_id", Descending: true}}
}
