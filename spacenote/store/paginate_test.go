package store

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/types"
)

func seedNumbers(t *testing.T, count int) Collection {
	t.Helper()
	coll := NewMemory().Global("numbers")
	for i := 1; i <= count; i++ {
		if err := coll.Insert(context.Background(), bson.M{"_id": int64(i)}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	return coll
}

func TestListPage(t *testing.T) {
	coll := seedNumbers(t, 45)
	asc := []types.SortField{{Field: "_id"}}

	tests := []struct {
		name       string
		page       int
		pageSize   int
		wantItems  int
		wantPages  int
		wantFirst  int64
		wantNext   bool
		wantPrev   bool
	}{
		{name: "first page", page: 1, pageSize: 20, wantItems: 20, wantPages: 3, wantFirst: 1, wantNext: true, wantPrev: false},
		{name: "middle page", page: 2, pageSize: 20, wantItems: 20, wantPages: 3, wantFirst: 21, wantNext: true, wantPrev: true},
		{name: "short last page", page: 3, pageSize: 20, wantItems: 5, wantPages: 3, wantFirst: 41, wantNext: false, wantPrev: true},
		{name: "past the end", page: 4, pageSize: 20, wantItems: 0, wantPages: 3, wantNext: false, wantPrev: true},
		{name: "exact division", page: 3, pageSize: 15, wantItems: 15, wantPages: 3, wantFirst: 31, wantNext: false, wantPrev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ListPage(context.Background(), coll, bson.M{}, asc, tt.page, tt.pageSize)
			if err != nil {
				t.Fatalf("ListPage failed: %v", err)
			}
			if page.TotalCount != 45 {
				t.Errorf("TotalCount = %d, want 45", page.TotalCount)
			}
			if len(page.Items) != tt.wantItems {
				t.Errorf("len(Items) = %d, want %d", len(page.Items), tt.wantItems)
			}
			if page.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", page.TotalPages, tt.wantPages)
			}
			if tt.wantItems > 0 && page.Items[0]["_id"] != tt.wantFirst {
				t.Errorf("first item = %v, want %d", page.Items[0]["_id"], tt.wantFirst)
			}
			if page.HasNext != tt.wantNext {
				t.Errorf("HasNext = %v, want %v", page.HasNext, tt.wantNext)
			}
			if page.HasPrev != tt.wantPrev {
				t.Errorf("HasPrev = %v, want %v", page.HasPrev, tt.wantPrev)
			}
		})
	}
}

func TestListPageEmptyResult(t *testing.T) {
	coll := seedNumbers(t, 0)

	page, err := ListPage(context.Background(), coll, bson.M{}, nil, 1, 20)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if page.TotalCount != 0 || page.TotalPages != 0 || page.HasNext || page.HasPrev {
		t.Errorf("empty page = %+v, want zeroed counters", page)
	}
}

func TestListPageInvalidArguments(t *testing.T) {
	coll := seedNumbers(t, 3)

	if _, err := ListPage(context.Background(), coll, bson.M{}, nil, 0, 20); !errors.Is(err, types.ErrValidation) {
		t.Errorf("page 0 error = %v, want validation error", err)
	}
	if _, err := ListPage(context.Background(), coll, bson.M{}, nil, 1, 0); !errors.Is(err, types.ErrValidation) {
		t.Errorf("page size 0 error = %v, want validation error", err)
	}
}
