package spacenote

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/spacenote/fields"
	"github.com/spacenote/spacenote/spacenote/query"
	"github.com/spacenote/spacenote/spacenote/store"
	"github.com/spacenote/spacenote/types"
)

var spaceIDRe = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// SpaceService manages space definitions with an in-memory cache. The
// cache is refreshed per-key after every mutating write; callers holding
// a *types.Space must treat it as read-only.
type SpaceService struct {
	store store.Store

	mu    sync.RWMutex
	cache map[string]*types.Space
}

// NewSpaceService creates the service. Call Start to warm the cache.
func NewSpaceService(st store.Store) *SpaceService {
	return &SpaceService{
		store: st,
		cache: make(map[string]*types.Space),
	}
}

func (s *SpaceService) collection() store.Collection {
	return s.store.Global("spaces")
}

// Start loads every space into the cache and registers the per-space
// collections with the store.
func (s *SpaceService) Start(ctx context.Context) error {
	docs, err := s.collection().Find(ctx, bson.M{}, nil, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to load spaces: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		var space types.Space
		if err := fromDoc(doc, &space); err != nil {
			return err
		}
		s.cache[space.ID] = &space
		if err := s.store.AddSpaceCollections(ctx, space.ID); err != nil {
			return err
		}
	}
	return nil
}

// GetSpace returns a space from the cache.
func (s *SpaceService) GetSpace(id string) (*types.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	space, ok := s.cache[id]
	if !ok {
		return nil, fmt.Errorf("%w: space %q", types.ErrNotFound, id)
	}
	return space, nil
}

// ListSpaces returns all cached spaces.
func (s *SpaceService) ListSpaces() []*types.Space {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spaces := make([]*types.Space, 0, len(s.cache))
	for _, space := range s.cache {
		spaces = append(spaces, space)
	}
	return spaces
}

// Refresh reloads one space from storage into the cache. Mutating calls
// invoke it themselves; external writers (imports, migrations) call it
// explicitly to make their changes visible.
func (s *SpaceService) Refresh(ctx context.Context, id string) error {
	doc, err := s.collection().FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to refresh space %q: %w", id, err)
	}
	var space types.Space
	if err := fromDoc(doc, &space); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache[space.ID] = &space
	s.mu.Unlock()
	return nil
}

// CreateSpace creates a space with an empty schema and registers its
// collections.
func (s *SpaceService) CreateSpace(ctx context.Context, id, name string, members []string) (*types.Space, error) {
	if !spaceIDRe.MatchString(id) {
		return nil, fmt.Errorf("%w: invalid space id %q: must be a lowercase slug", types.ErrConfig, id)
	}
	if _, err := s.GetSpace(id); err == nil {
		return nil, fmt.Errorf("%w: space %q already exists", types.ErrConfig, id)
	}

	space := &types.Space{
		ID:              id,
		Name:            name,
		Members:         members,
		DefaultPageSize: types.DefaultPageSize,
		MaxPageSize:     types.DefaultMaxPageSize,
	}
	doc, err := toDoc(space)
	if err != nil {
		return nil, err
	}
	if err := s.collection().Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create space %q: %w", id, err)
	}
	if err := s.store.AddSpaceCollections(ctx, id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[id] = space
	s.mu.Unlock()
	return space, nil
}

// AddField validates a new field definition against the space schema and
// appends it.
func (s *SpaceService) AddField(ctx context.Context, spaceID string, field types.SpaceField) error {
	space, err := s.GetSpace(spaceID)
	if err != nil {
		return err
	}
	if err := fields.ValidateNewField(space, field); err != nil {
		return err
	}

	updated := append(append([]types.SpaceField{}, space.Fields...), field)
	return s.persistUpdate(ctx, spaceID, "fields", updated)
}

// AddFilter validates and stores a new filter definition. All problems
// are reported together, joined into one error.
func (s *SpaceService) AddFilter(ctx context.Context, spaceID string, filter types.Filter) error {
	space, err := s.GetSpace(spaceID)
	if err != nil {
		return err
	}
	if errs := query.ValidateFilter(space, filter); len(errs) > 0 {
		return errors.Join(errs...)
	}

	updated := append(append([]types.Filter{}, space.Filters...), filter)
	return s.persistUpdate(ctx, spaceID, "filters", updated)
}

// UpdateFilter replaces an existing filter definition, re-validating it
// against the schema with the old definition excluded.
func (s *SpaceService) UpdateFilter(ctx context.Context, spaceID string, filter types.Filter) error {
	space, err := s.GetSpace(spaceID)
	if err != nil {
		return err
	}
	if space.GetFilter(filter.ID) == nil {
		return fmt.Errorf("%w: filter %q in space %q", types.ErrNotFound, filter.ID, spaceID)
	}

	remaining := withoutFilter(space, filter.ID)
	if errs := query.ValidateFilter(remaining, filter); len(errs) > 0 {
		return errors.Join(errs...)
	}

	updated := append(append([]types.Filter{}, remaining.Filters...), filter)
	return s.persistUpdate(ctx, spaceID, "filters", updated)
}

// DeleteFilter removes a filter definition.
func (s *SpaceService) DeleteFilter(ctx context.Context, spaceID, filterID string) error {
	space, err := s.GetSpace(spaceID)
	if err != nil {
		return err
	}
	if space.GetFilter(filterID) == nil {
		return fmt.Errorf("%w: filter %q in space %q", types.ErrNotFound, filterID, spaceID)
	}
	return s.persistUpdate(ctx, spaceID, "filters", withoutFilter(space, filterID).Filters)
}

// UpdateMembers replaces the member list.
func (s *SpaceService) UpdateMembers(ctx context.Context, spaceID string, members []string) error {
	if _, err := s.GetSpace(spaceID); err != nil {
		return err
	}
	return s.persistUpdate(ctx, spaceID, "members", members)
}

// UpdateListFields replaces the default note-list columns, checking that
// every referenced field exists.
func (s *SpaceService) UpdateListFields(ctx context.Context, spaceID string, listFields []string) error {
	space, err := s.GetSpace(spaceID)
	if err != nil {
		return err
	}
	for _, name := range listFields {
		if !types.IsBuiltinField(name) && space.GetField(name) == nil {
			return fmt.Errorf("%w: list field %q does not exist in space", types.ErrConfig, name)
		}
	}
	return s.persistUpdate(ctx, spaceID, "list_fields", listFields)
}

// UpdateHiddenCreateFields replaces the set of fields hidden in the
// create form; hidden fields are filled from their defaults.
func (s *SpaceService) UpdateHiddenCreateFields(ctx context.Context, spaceID string, hidden []string) error {
	space, err := s.GetSpace(spaceID)
	if err != nil {
		return err
	}
	for _, name := range hidden {
		if space.GetField(name) == nil {
			return fmt.Errorf("%w: hidden create field %q does not exist in space", types.ErrConfig, name)
		}
	}
	return s.persistUpdate(ctx, spaceID, "hidden_create_fields", hidden)
}

// UpdatePageSizes sets the default and maximum page sizes.
func (s *SpaceService) UpdatePageSizes(ctx context.Context, spaceID string, defaultSize, maxSize int) error {
	if _, err := s.GetSpace(spaceID); err != nil {
		return err
	}
	if defaultSize < 1 || maxSize < 1 || defaultSize > maxSize {
		return fmt.Errorf("%w: invalid page sizes: default %d, max %d", types.ErrConfig, defaultSize, maxSize)
	}
	if err := s.persistField(ctx, spaceID, bson.M{"default_page_size": defaultSize, "max_page_size": maxSize}); err != nil {
		return err
	}
	return s.Refresh(ctx, spaceID)
}

// DeleteSpace removes the space definition and drops its collections.
func (s *SpaceService) DeleteSpace(ctx context.Context, spaceID string) error {
	if _, err := s.GetSpace(spaceID); err != nil {
		return err
	}
	if err := s.store.DropSpaceCollections(ctx, spaceID); err != nil {
		return err
	}
	if err := s.collection().DeleteByID(ctx, spaceID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.cache, spaceID)
	s.mu.Unlock()
	return nil
}

// ImportSpace stores a fully-formed space definition, typically one
// parsed and validated by the export package, and registers its
// collections.
func (s *SpaceService) ImportSpace(ctx context.Context, space *types.Space) (*types.Space, error) {
	if !spaceIDRe.MatchString(space.ID) {
		return nil, fmt.Errorf("%w: invalid space id %q: must be a lowercase slug", types.ErrConfig, space.ID)
	}
	if _, err := s.GetSpace(space.ID); err == nil {
		return nil, fmt.Errorf("%w: space %q already exists", types.ErrConfig, space.ID)
	}

	doc, err := toDoc(space)
	if err != nil {
		return nil, err
	}
	if err := s.collection().Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to import space %q: %w", space.ID, err)
	}
	if err := s.store.AddSpaceCollections(ctx, space.ID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[space.ID] = space
	s.mu.Unlock()
	return space, nil
}

// persistUpdate writes one field of a space document, then refreshes the
// cache entry from storage.
func (s *SpaceService) persistUpdate(ctx context.Context, spaceID, field string, value any) error {
	encoded, err := toDoc(struct {
		Value any `json:"value"`
	}{Value: value})
	if err != nil {
		return err
	}
	if err := s.persistField(ctx, spaceID, bson.M{field: encoded["value"]}); err != nil {
		return err
	}
	return s.Refresh(ctx, spaceID)
}

func (s *SpaceService) persistField(ctx context.Context, spaceID string, set bson.M) error {
	if err := s.collection().UpdateByID(ctx, spaceID, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("failed to update space %q: %w", spaceID, err)
	}
	return nil
}

// withoutFilter returns a shallow space copy with one filter removed.
func withoutFilter(space *types.Space, filterID string) *types.Space {
	copied := *space
	copied.Filters = make([]types.Filter, 0, len(space.Filters))
	for _, f := range space.Filters {
		if f.ID != filterID {
			copied.Filters = append(copied.Filters, f)
		}
	}
	return &copied
}
