package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/types"
)

// Page is a bounded, counted slice of a query's result set.
type Page struct {
	Items       []bson.M
	TotalCount  int64
	CurrentPage int
	PageSize    int
	TotalPages  int
	HasNext     bool
	HasPrev     bool
}

// ListPage runs a built query and sort against a collection and returns
// page number page (1-based) of pageSize documents. The caller clamps
// pageSize to the space's configured maximum beforehand.
func ListPage(ctx context.Context, c Collection, query bson.M, sortKeys []types.SortField, page, pageSize int) (Page, error) {
	if page < 1 {
		return Page{}, fmt.Errorf("%w: page must be >= 1, got %d", types.ErrValidation, page)
	}
	if pageSize < 1 {
		return Page{}, fmt.Errorf("%w: page size must be > 0, got %d", types.ErrValidation, pageSize)
	}

	totalCount, err := c.Count(ctx, query)
	if err != nil {
		return Page{}, err
	}

	skip := int64(page-1) * int64(pageSize)
	items, err := c.Find(ctx, query, sortKeys, skip, int64(pageSize))
	if err != nil {
		return Page{}, err
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	return Page{
		Items:       items,
		TotalCount:  totalCount,
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}, nil
}
