package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/types"
)

// memoryStore keeps all collections in process memory. It backs tests
// and is the data model the JSON-file store persists.
type memoryStore struct {
	locks       *lockManager
	collections map[string]*memoryCollection
	// afterWrite, when set, persists the store after each mutation while
	// the write lock is still held. The JSON-file store hooks in here.
	afterWrite func() error
}

// NewMemory creates an empty in-memory store.
func NewMemory() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		locks:       &lockManager{},
		collections: make(map[string]*memoryCollection),
	}
}

func (s *memoryStore) Global(name string) Collection {
	var c *memoryCollection
	_ = s.locks.execute(writeOperation, func() error {
		c = s.ensureCollection(name)
		return nil
	})
	return c
}

func (s *memoryStore) AddSpaceCollections(_ context.Context, spaceID string) error {
	return s.locks.execute(writeOperation, func() error {
		for _, kind := range spaceKinds {
			s.ensureCollection(CollectionName(spaceID, kind))
		}
		return s.persist()
	})
}

func (s *memoryStore) SpaceCollection(spaceID string, kind Kind) (Collection, error) {
	name := CollectionName(spaceID, kind)
	var c *memoryCollection
	err := s.locks.execute(readOperation, func() error {
		var ok bool
		c, ok = s.collections[name]
		if !ok {
			return fmt.Errorf("%w: collection %q does not exist", types.ErrNotFound, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *memoryStore) DropSpaceCollections(_ context.Context, spaceID string) error {
	return s.locks.execute(writeOperation, func() error {
		for _, kind := range spaceKinds {
			name := CollectionName(spaceID, kind)
			if _, ok := s.collections[name]; !ok {
				return fmt.Errorf("%w: collection %q does not exist", types.ErrNotFound, name)
			}
		}
		for _, kind := range spaceKinds {
			delete(s.collections, CollectionName(spaceID, kind))
		}
		return s.persist()
	})
}

func (s *memoryStore) Close() error {
	return nil
}

// ensureCollection must run under the write lock.
func (s *memoryStore) ensureCollection(name string) *memoryCollection {
	if c, ok := s.collections[name]; ok {
		return c
	}
	c := &memoryCollection{store: s}
	s.collections[name] = c
	return c
}

// persist must run under the write lock.
func (s *memoryStore) persist() error {
	if s.afterWrite == nil {
		return nil
	}
	return s.afterWrite()
}

// memoryCollection holds documents in insertion order plus the id
// counter. All access goes through the owning store's lock manager.
type memoryCollection struct {
	store     *memoryStore
	documents []bson.M
	lastID    int64
}

func (c *memoryCollection) Insert(_ context.Context, doc bson.M) error {
	return c.store.locks.execute(writeOperation, func() error {
		c.documents = append(c.documents, cloneDoc(doc))
		return c.store.persist()
	})
}

func (c *memoryCollection) FindByID(_ context.Context, id any) (bson.M, error) {
	var found bson.M
	err := c.store.locks.execute(readOperation, func() error {
		for _, doc := range c.documents {
			if equalValues(doc["_id"], id) {
				found = cloneDoc(doc)
				return nil
			}
		}
		return fmt.Errorf("%w: document %v", types.ErrNotFound, id)
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (c *memoryCollection) Find(_ context.Context, query bson.M, sortKeys []types.SortField, skip, limit int64) ([]bson.M, error) {
	var result []bson.M
	err := c.store.locks.execute(readOperation, func() error {
		for _, doc := range c.documents {
			if matchQuery(doc, query) {
				result = append(result, cloneDoc(doc))
			}
		}
		sortDocuments(result, sortKeys)

		if skip > 0 {
			if skip >= int64(len(result)) {
				result = nil
			} else {
				result = result[skip:]
			}
		}
		if limit > 0 && int64(len(result)) > limit {
			result = result[:limit]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *memoryCollection) Count(_ context.Context, query bson.M) (int64, error) {
	var count int64
	err := c.store.locks.execute(readOperation, func() error {
		for _, doc := range c.documents {
			if matchQuery(doc, query) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (c *memoryCollection) UpdateByID(_ context.Context, id any, update bson.M) error {
	return c.store.locks.execute(writeOperation, func() error {
		for _, doc := range c.documents {
			if !equalValues(doc["_id"], id) {
				continue
			}
			applyUpdate(doc, update)
			return c.store.persist()
		}
		return fmt.Errorf("%w: document %v", types.ErrNotFound, id)
	})
}

func (c *memoryCollection) DeleteByID(_ context.Context, id any) error {
	return c.store.locks.execute(writeOperation, func() error {
		for i, doc := range c.documents {
			if equalValues(doc["_id"], id) {
				c.documents = append(c.documents[:i], c.documents[i+1:]...)
				return c.store.persist()
			}
		}
		return fmt.Errorf("%w: document %v", types.ErrNotFound, id)
	})
}

// NextID increments the collection counter under the store's write lock,
// so concurrent creators in one space never observe the same id.
func (c *memoryCollection) NextID(_ context.Context) (int64, error) {
	var id int64
	err := c.store.locks.execute(writeOperation, func() error {
		c.lastID++
		id = c.lastID
		return c.store.persist()
	})
	return id, err
}

// applyUpdate executes $set and $inc clauses in place.
func applyUpdate(doc bson.M, update bson.M) {
	if set, ok := asMap(update["$set"]); ok {
		for key, value := range set {
			setPath(doc, key, value)
		}
	}
	if inc, ok := asMap(update["$inc"]); ok {
		for key, delta := range inc {
			current, _ := asFloat(docValue(doc, key))
			d, _ := asFloat(delta)
			setPath(doc, key, int64(current+d))
		}
	}
}

// setPath writes a possibly dotted path, creating nested maps as needed.
func setPath(doc bson.M, path string, value any) {
	segments := splitPath(path)
	current := doc
	for _, segment := range segments[:len(segments)-1] {
		next, ok := asMap(current[segment])
		if !ok {
			next = bson.M{}
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// cloneDoc deep-copies a document. The store clones on insert and on
// every read so callers never share nested maps or slices with the
// stored copy that applyUpdate mutates in place.
func cloneDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for key, value := range doc {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case bson.M:
		return cloneDoc(value)
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, item := range value {
			out[key] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), value...)
	default:
		return v
	}
}
