package spacenote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/spacenote/fields"
	"github.com/spacenote/spacenote/spacenote/query"
	"github.com/spacenote/spacenote/spacenote/special"
	"github.com/spacenote/spacenote/spacenote/store"
	"github.com/spacenote/spacenote/types"
)

// Notifier receives events after note mutations commit. Implementations
// must not block; failures are logged and ignored.
type Notifier interface {
	NoteCreated(ctx context.Context, space *types.Space, note *types.Note) error
	NoteUpdated(ctx context.Context, space *types.Space, note *types.Note) error
	CommentCreated(ctx context.Context, space *types.Space, comment *types.Comment) error
}

// NoteService manages notes within spaces: creation and edits from raw
// form values, filtered listings, and comment statistics.
type NoteService struct {
	store    store.Store
	spaces   *SpaceService
	special  *special.Resolver
	notifier Notifier
	logger   *slog.Logger
}

func NewNoteService(st store.Store, spaces *SpaceService, resolver *special.Resolver, logger *slog.Logger) *NoteService {
	return &NoteService{
		store:   st,
		spaces:  spaces,
		special: resolver,
		logger:  logger.With("service", "notes"),
	}
}

// SetNotifier installs the post-mutation event hook.
func (s *NoteService) SetNotifier(n Notifier) { s.notifier = n }

func (s *NoteService) collection(spaceID string) (store.Collection, error) {
	return s.store.SpaceCollection(spaceID, store.KindNotes)
}

// CreateNoteFromRaw validates raw form values against the space schema
// and creates a note. Fields hidden from the create form may be absent;
// they are filled from defaults. Special tokens resolve against the
// current user and attachment state.
func (s *NoteService) CreateNoteFromRaw(ctx context.Context, spaceID string, author *types.User, raw map[string]string) (*types.Note, error) {
	space, err := s.spaces.GetSpace(spaceID)
	if err != nil {
		return nil, err
	}
	if author == nil || !space.HasMember(author.ID) {
		return nil, fmt.Errorf("%w: author must be a member of space %q", types.ErrValidation, spaceID)
	}

	validated, err := fields.ValidateNoteFields(space, raw, true)
	if err != nil {
		return nil, err
	}
	resolved, err := s.special.ResolveFieldValues(ctx, space, validated, author)
	if err != nil {
		return nil, err
	}

	coll, err := s.collection(spaceID)
	if err != nil {
		return nil, err
	}
	id, err := coll.NextID(ctx)
	if err != nil {
		return nil, err
	}

	note := &types.Note{
		ID:        id,
		Author:    author.ID,
		CreatedAt: time.Now().UTC(),
		Fields:    resolved,
	}
	doc, err := toDoc(note)
	if err != nil {
		return nil, err
	}
	if err := coll.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create note in space %q: %w", spaceID, err)
	}

	s.assignPendingImages(ctx, space, note)
	s.notify(ctx, "note created", func(n Notifier) error {
		return n.NoteCreated(ctx, space, note)
	})
	return note, nil
}

// UpdateNoteFromRaw replaces a note's field values. Unlike creation,
// every schema field must be present in raw: an edit form always posts
// the full field set.
func (s *NoteService) UpdateNoteFromRaw(ctx context.Context, spaceID string, noteID int64, editor *types.User, raw map[string]string) (*types.Note, error) {
	space, err := s.spaces.GetSpace(spaceID)
	if err != nil {
		return nil, err
	}
	if editor == nil || !space.HasMember(editor.ID) {
		return nil, fmt.Errorf("%w: editor must be a member of space %q", types.ErrValidation, spaceID)
	}

	note, err := s.GetNote(ctx, spaceID, noteID)
	if err != nil {
		return nil, err
	}

	validated, err := fields.ValidateNoteFields(space, raw, false)
	if err != nil {
		return nil, err
	}
	resolved, err := s.special.ResolveFieldValues(ctx, space, validated, editor)
	if err != nil {
		return nil, err
	}

	coll, err := s.collection(spaceID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	fieldsDoc, err := toDoc(struct {
		Fields map[string]types.FieldValue `json:"fields"`
	}{Fields: resolved})
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"fields":    fieldsDoc["fields"],
		"edited_at": now.Format(time.RFC3339Nano),
	}}
	if err := coll.UpdateByID(ctx, noteID, update); err != nil {
		return nil, fmt.Errorf("failed to update note %d in space %q: %w", noteID, spaceID, err)
	}

	note.Fields = resolved
	note.EditedAt = &now
	s.assignPendingImages(ctx, space, note)
	s.notify(ctx, "note updated", func(n Notifier) error {
		return n.NoteUpdated(ctx, space, note)
	})
	return note, nil
}

// GetNote fetches one note by its space-scoped id.
func (s *NoteService) GetNote(ctx context.Context, spaceID string, noteID int64) (*types.Note, error) {
	coll, err := s.collection(spaceID)
	if err != nil {
		return nil, err
	}
	doc, err := coll.FindByID(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("note %d in space %q: %w", noteID, spaceID, err)
	}
	var note types.Note
	if err := fromDoc(doc, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// ListNotes returns one page of notes, optionally through a saved
// filter. An empty filterID lists everything with the default sort.
// pageSize 0 means the space default; anything above the space maximum
// is clamped.
func (s *NoteService) ListNotes(ctx context.Context, spaceID, filterID string, currentUser *types.User, page, pageSize int) (*types.NotePage, error) {
	space, err := s.spaces.GetSpace(spaceID)
	if err != nil {
		return nil, err
	}

	q := bson.M{}
	sortKeys := query.DefaultSort()
	if filterID != "" {
		filter := space.GetFilter(filterID)
		if filter == nil {
			return nil, fmt.Errorf("%w: filter %q in space %q", types.ErrNotFound, filterID, spaceID)
		}
		q, err = query.BuildQuery(*filter, space, currentUser)
		if err != nil {
			return nil, err
		}
		if keys := query.BuildSort(*filter); len(keys) > 0 {
			sortKeys = keys
		}
	}

	coll, err := s.collection(spaceID)
	if err != nil {
		return nil, err
	}
	result, err := store.ListPage(ctx, coll, q, sortKeys, page, space.ClampPageSize(pageSize))
	if err != nil {
		return nil, err
	}

	notes := make([]types.Note, 0, len(result.Items))
	for _, doc := range result.Items {
		var note types.Note
		if err := fromDoc(doc, &note); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return &types.NotePage{
		Notes:       notes,
		TotalCount:  result.TotalCount,
		CurrentPage: result.CurrentPage,
		PageSize:    result.PageSize,
		TotalPages:  result.TotalPages,
		HasNext:     result.HasNext,
		HasPrev:     result.HasPrev,
	}, nil
}

// CountNotes returns the number of notes matching a saved filter, or all
// notes for an empty filterID.
func (s *NoteService) CountNotes(ctx context.Context, spaceID, filterID string, currentUser *types.User) (int64, error) {
	space, err := s.spaces.GetSpace(spaceID)
	if err != nil {
		return 0, err
	}
	q := bson.M{}
	if filterID != "" {
		filter := space.GetFilter(filterID)
		if filter == nil {
			return 0, fmt.Errorf("%w: filter %q in space %q", types.ErrNotFound, filterID, spaceID)
		}
		q, err = query.BuildQuery(*filter, space, currentUser)
		if err != nil {
			return 0, err
		}
	}
	coll, err := s.collection(spaceID)
	if err != nil {
		return 0, err
	}
	return coll.Count(ctx, q)
}

// DeleteNote removes a note and its comments.
func (s *NoteService) DeleteNote(ctx context.Context, spaceID string, noteID int64) error {
	coll, err := s.collection(spaceID)
	if err != nil {
		return err
	}
	if err := coll.DeleteByID(ctx, noteID); err != nil {
		return fmt.Errorf("note %d in space %q: %w", noteID, spaceID, err)
	}
	comments, err := s.store.SpaceCollection(spaceID, store.KindComments)
	if err != nil {
		return err
	}
	docs, err := comments.Find(ctx, bson.M{"note_id": noteID}, nil, 0, 0)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := comments.DeleteByID(ctx, doc["_id"]); err != nil {
			return err
		}
	}
	return nil
}

// bumpCommentStats increments the comment counter and stamps the last
// comment time on a note.
func (s *NoteService) bumpCommentStats(ctx context.Context, spaceID string, noteID int64, at time.Time) error {
	coll, err := s.collection(spaceID)
	if err != nil {
		return err
	}
	return coll.UpdateByID(ctx, noteID, bson.M{
		"$inc": bson.M{"comment_count": int64(1)},
		"$set": bson.M{"last_comment_at": at.Format(time.RFC3339Nano)},
	})
}

// assignPendingImages ties attachments referenced by image fields to the
// note. Assignment failures do not fail the mutation.
func (s *NoteService) assignPendingImages(ctx context.Context, space *types.Space, note *types.Note) {
	attachments, err := s.store.SpaceCollection(space.ID, store.KindAttachments)
	if err != nil {
		return
	}
	for i := range space.Fields {
		field := &space.Fields[i]
		if field.Type != types.FieldTypeImage {
			continue
		}
		id, ok := note.Fields[field.Name].(int64)
		if !ok {
			continue
		}
		err := attachments.UpdateByID(ctx, id, bson.M{"$set": bson.M{"note_id": note.ID}})
		if err != nil {
			s.logger.Warn("failed to assign attachment to note",
				"space_id", space.ID, "note_id", note.ID, "attachment_id", id, "error", err)
		}
	}
}

func (s *NoteService) notify(ctx context.Context, event string, fn func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := fn(s.notifier); err != nil {
		s.logger.Warn("notifier failed", "event", event, "error", err)
	}
}
