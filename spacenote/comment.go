package spacenote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/spacenote/store"
	"github.com/spacenote/spacenote/types"
)

// CommentService manages comments on notes. Comment ids come from the
// space-scoped comment counter, independent of note ids.
type CommentService struct {
	store  store.Store
	spaces *SpaceService
	notes  *NoteService
}

func NewCommentService(st store.Store, spaces *SpaceService, notes *NoteService) *CommentService {
	return &CommentService{store: st, spaces: spaces, notes: notes}
}

func (s *CommentService) collection(spaceID string) (store.Collection, error) {
	return s.store.SpaceCollection(spaceID, store.KindComments)
}

// CreateComment adds a comment to a note and bumps the note's comment
// statistics.
func (s *CommentService) CreateComment(ctx context.Context, spaceID string, noteID int64, author *types.User, content string) (*types.Comment, error) {
	space, err := s.spaces.GetSpace(spaceID)
	if err != nil {
		return nil, err
	}
	if author == nil || !space.HasMember(author.ID) {
		return nil, fmt.Errorf("%w: author must be a member of space %q", types.ErrValidation, spaceID)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content must not be empty", types.ErrValidation)
	}
	if _, err := s.notes.GetNote(ctx, spaceID, noteID); err != nil {
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

	comment := &types.Comment{
		ID:        id,
		NoteID:    noteID,
		Author:    author.ID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	doc, err := toDoc(comment)
	if err != nil {
		return nil, err
	}
	if err := coll.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create comment in space %q: %w", spaceID, err)
	}

	if err := s.notes.bumpCommentStats(ctx, spaceID, noteID, comment.CreatedAt); err != nil {
		return nil, err
	}
	s.notes.notify(ctx, "comment created", func(n Notifier) error {
		return n.CommentCreated(ctx, space, comment)
	})
	return comment, nil
}

// GetComment fetches one comment by id.
func (s *CommentService) GetComment(ctx context.Context, spaceID string, id int64) (*types.Comment, error) {
	coll, err := s.collection(spaceID)
	if err != nil {
		return nil, err
	}
	doc, err := coll.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("comment %d in space %q: %w", id, spaceID, err)
	}
	var comment types.Comment
	if err := fromDoc(doc, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments returns a note's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, spaceID string, noteID int64) ([]types.Comment, error) {
	coll, err := s.collection(spaceID)
	if err != nil {
		return nil, err
	}
	docs, err := coll.Find(ctx, bson.M{"note_id": noteID},
		[]types.SortField{{Field: "_id"}}, 0, 0)
	if err != nil {
		return nil, err
	}
	comments := make([]types.Comment, 0, len(docs))
	for _, doc := range docs {
		var comment types.Comment
		if err := fromDoc(doc, &comment); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, nil
}
