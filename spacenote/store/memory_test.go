package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/types"
)

func TestMemoryCollectionCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	coll := s.Global("spaces")

	if err := coll.Insert(ctx, bson.M{"_id": "tasks", "name": "Tasks"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	doc, err := coll.FindByID(ctx, "tasks")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if doc["name"] != "Tasks" {
		t.Errorf("name = %v, want Tasks", doc["name"])
	}

	if err := coll.UpdateByID(ctx, "tasks", bson.M{"$set": bson.M{"name": "Team tasks"}}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	doc, _ = coll.FindByID(ctx, "tasks")
	if doc["name"] != "Team tasks" {
		t.Errorf("name after update = %v, want Team tasks", doc["name"])
	}

	if err := coll.DeleteByID(ctx, "tasks"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := coll.FindByID(ctx, "tasks"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("find after delete = %v, want not found", err)
	}
	if err := coll.DeleteByID(ctx, "tasks"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("second delete = %v, want not found", err)
	}
}

func TestMemoryUpdateNestedAndIncrement(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.AddSpaceCollections(ctx, "tasks"); err != nil {
		t.Fatalf("failed to add collections: %v", err)
	}
	coll, err := s.SpaceCollection("tasks", KindNotes)
	if err != nil {
		t.Fatalf("failed to get collection: %v", err)
	}

	if err := coll.Insert(ctx, bson.M{"_id": int64(1), "comment_count": int64(0)}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	err = coll.UpdateByID(ctx, int64(1), bson.M{
		"$set": bson.M{"fields.status": "closed"},
		"$inc": bson.M{"comment_count": 1},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	doc, _ := coll.FindByID(ctx, int64(1))
	if got := docValue(doc, "fields.status"); got != "closed" {
		t.Errorf("nested set = %v, want closed", got)
	}
	if got := doc["comment_count"]; got != int64(1) {
		t.Errorf("comment_count = %v (%T), want 1", got, got)
	}
}

func TestMemorySpaceCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	// Unregistered space: not found.
	if _, err := s.SpaceCollection("ghost", KindNotes); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("unregistered space error = %v, want not found", err)
	}

	if err := s.AddSpaceCollections(ctx, "tasks"); err != nil {
		t.Fatalf("failed to add collections: %v", err)
	}
	for _, kind := range []Kind{KindNotes, KindComments, KindAttachments} {
		if _, err := s.SpaceCollection("tasks", kind); err != nil {
			t.Errorf("collection %s missing after registration: %v", kind, err)
		}
	}

	if err := s.DropSpaceCollections(ctx, "tasks"); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	if _, err := s.SpaceCollection("tasks", KindNotes); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("dropped space error = %v, want not found", err)
	}
	if err := s.DropSpaceCollections(ctx, "tasks"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("second drop = %v, want not found", err)
	}
}

func TestMemoryNextID(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.AddSpaceCollections(ctx, "tasks"); err != nil {
		t.Fatalf("failed to add collections: %v", err)
	}
	notes, _ := s.SpaceCollection("tasks", KindNotes)
	comments, _ := s.SpaceCollection("tasks", KindComments)

	for want := int64(1); want <= 3; want++ {
		got, err := notes.NextID(ctx)
		if err != nil {
			t.Fatalf("NextID failed: %v", err)
		}
		if got != want {
			t.Errorf("NextID = %d, want %d", got, want)
		}
	}

	// Counters are per collection.
	if got, _ := comments.NextID(ctx); got != 1 {
		t.Errorf("comment counter = %d, want 1", got)
	}
}

func TestMemoryNextIDConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.AddSpaceCollections(ctx, "tasks"); err != nil {
		t.Fatalf("failed to add collections: %v", err)
	}
	coll, _ := s.SpaceCollection("tasks", KindNotes)

	const workers = 20
	const perWorker = 25

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := coll.NextID(ctx)
				if err != nil {
					t.Errorf("NextID failed: %v", err)
					return
				}
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("got %d distinct ids, want %d", len(seen), workers*perWorker)
	}
}

func TestMemoryFindSkipLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	coll := s.Global("numbers")
	for i := int64(1); i <= 10; i++ {
		if err := coll.Insert(ctx, bson.M{"_id": i}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	docs, err := coll.Find(ctx, bson.M{}, []types.SortField{{Field: "_id"}}, 3, 4)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(docs) != 4 {
		t.Fatalf("got %d docs, want 4", len(docs))
	}
	if docs[0]["_id"] != int64(4) || docs[3]["_id"] != int64(7) {
		t.Errorf("window = [%v..%v], want [4..7]", docs[0]["_id"], docs[3]["_id"])
	}

	// Skip past the end.
	docs, err = coll.Find(ctx, bson.M{}, nil, 50, 10)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d docs past the end, want 0", len(docs))
	}
}

func TestDocumentsAreCopiedAtTheStoreBoundary(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	coll := s.Global("notes")

	inserted := bson.M{
		"_id":           int64(1),
		"comment_count": int64(0),
		"fields":        map[string]any{"status": "open"},
	}
	if err := coll.Insert(ctx, inserted); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	// Mutating the caller's map after insert must not touch the store.
	inserted["comment_count"] = int64(99)

	before, err := coll.FindByID(ctx, int64(1))
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if before["comment_count"] != int64(0) {
		t.Fatalf("comment_count = %v, want 0 (insert must copy)", before["comment_count"])
	}

	update := bson.M{
		"$inc": bson.M{"comment_count": 1},
		"$set": bson.M{"fields.status": "closed"},
	}
	if err := coll.UpdateByID(ctx, int64(1), update); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// The snapshot taken before the update must be unaffected.
	if before["comment_count"] != int64(0) {
		t.Errorf("snapshot comment_count = %v, want 0", before["comment_count"])
	}
	fields, _ := before["fields"].(map[string]any)
	if fields["status"] != "open" {
		t.Errorf("snapshot status = %v, want open", fields["status"])
	}

	after, err := coll.FindByID(ctx, int64(1))
	if err != nil {
		t.Fatalf("find after update failed: %v", err)
	}
	if after["comment_count"] != int64(1) {
		t.Errorf("comment_count = %v, want 1", after["comment_count"])
	}

	// Mutating a read result must not write through to the store.
	afterFields, _ := after["fields"].(map[string]any)
	afterFields["status"] = "scribbled"
	final, _ := coll.FindByID(ctx, int64(1))
	finalFields, _ := final["fields"].(map[string]any)
	if finalFields["status"] != "closed" {
		t.Errorf("stored status = %v, want closed", finalFields["status"])
	}
}

func TestMemoryConcurrentReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	coll := s.Global("notes")
	if err := coll.Insert(ctx, bson.M{"_id": int64(1), "comment_count": int64(0), "fields": map[string]any{"status": "open"}}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	const writers = 4
	const iterations = 50
	var wg sync.WaitGroup
	errs := make(chan error, writers*2)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if err := coll.UpdateByID(ctx, int64(1), bson.M{"$inc": bson.M{"comment_count": 1}}); err != nil {
					errs <- err
					return
				}
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				doc, err := coll.FindByID(ctx, int64(1))
				if err != nil {
					errs <- err
					return
				}
				// Walk into the nested map while writers run.
				if fields, ok := doc["fields"].(map[string]any); !ok || fields["status"] != "open" {
					errs <- errors.New("unexpected document shape")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent access failed: %v", err)
	}

	doc, err := coll.FindByID(ctx, int64(1))
	if err != nil {
		t.Fatalf("final find failed: %v", err)
	}
	if doc["comment_count"] != int64(writers*iterations) {
		t.Errorf("comment_count = %v, want %d", doc["comment_count"], writers*iterations)
	}
}
