package spacenote

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/spacenote/store"
	"github.com/spacenote/spacenote/types"
)

// AttachmentService manages per-space file attachment records. File
// bytes live on disk or object storage; this service tracks only
// metadata and the note assignment.
type AttachmentService struct {
	store  store.Store
	spaces *SpaceService
}

func NewAttachmentService(st store.Store, spaces *SpaceService) *AttachmentService {
	return &AttachmentService{store: st, spaces: spaces}
}

func (s *AttachmentService) collection(spaceID string) (store.Collection, error) {
	return s.store.SpaceCollection(spaceID, store.KindAttachments)
}

// CreateAttachment records an uploaded file. It starts unassigned; the
// note is set later, typically when an image field resolves @last.
func (s *AttachmentService) CreateAttachment(ctx context.Context, spaceID, author, filename, contentType string, size int64) (*types.Attachment, error) {
	space, err := s.spaces.GetSpace(spaceID)
	if err != nil {
		return nil, err
	}
	if !space.HasMember(author) {
		return nil, fmt.Errorf("%w: user %q is not a member of space %q", types.ErrValidation, author, spaceID)
	}

	coll, err := s.collection(spaceID)
	if err != nil {
		return nil, err
	}
	id, err := coll.NextID(ctx)
	if err != nil {
		return nil, err
	}

	att := &types.Attachment{
		ID:          id,
		SpaceID:     spaceID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		Author:      author,
		CreatedAt:   time.Now().UTC(),
	}
	doc, err := toDoc(att)
	if err != nil {
		return nil, err
	}
	if err := coll.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}
	return att, nil
}

// GetAttachment fetches one attachment by numeric id.
func (s *AttachmentService) GetAttachment(ctx context.Context, spaceID string, id int64) (*types.Attachment, error) {
	coll, err := s.collection(spaceID)
	if err != nil {
		return nil, err
	}
	doc, err := coll.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("attachment %d in space %q: %w", id, spaceID, err)
	}
	var att types.Attachment
	if err := fromDoc(doc, &att); err != nil {
		return nil, err
	}
	return &att, nil
}

// ListUnassigned returns attachments not yet tied to a note, newest
// first. The special resolver uses it to answer @last.
func (s *AttachmentService) ListUnassigned(ctx context.Context, spaceID string) ([]types.Attachment, error) {
	coll, err := s.collection(spaceID)
	if err != nil {
		return nil, err
	}
	docs, err := coll.Find(ctx, bson.M{"note_id": nil},
		[]types.SortField{{Field: "_id", Descending: true}}, 0, 0)
	if err != nil {
		return nil, err
	}
	return decodeAttachments(docs)
}

// ListByNote returns the attachments assigned to a note, oldest first.
func (s *AttachmentService) ListByNote(ctx context.Context, spaceID string, noteID int64) ([]types.Attachment, error) {
	coll, err := s.collection(spaceID)
	if err != nil {
		return nil, err
	}
	docs, err := coll.Find(ctx, bson.M{"note_id": noteID},
		[]types.SortField{{Field: "_id"}}, 0, 0)
	if err != nil {
		return nil, err
	}
	return decodeAttachments(docs)
}

func decodeAttachments(docs []bson.M) ([]types.Attachment, error) {
	attachments := make([]types.Attachment, 0, len(docs))
	for _, doc := range docs {
		var att types.Attachment
		if err := fromDoc(doc, &att); err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}
	return attachments, nil
}

// AssignToNote ties an attachment to a note.
func (s *AttachmentService) AssignToNote(ctx context.Context, spaceID string, attachmentID, noteID int64) error {
	coll, err := s.collection(spaceID)
	if err != nil {
		return err
	}
	if _, err := coll.FindByID(ctx, attachmentID); err != nil {
		return fmt.Errorf("attachment %d in space %q: %w", attachmentID, spaceID, err)
	}
	return coll.UpdateByID(ctx, attachmentID, bson.M{"$set": bson.M{"note_id": noteID}})
}

// DeleteAttachment removes an attachment record.
func (s *AttachmentService) DeleteAttachment(ctx context.Context, spaceID string, id int64) error {
	coll, err := s.collection(spaceID)
	if err != nil {
		return err
	}
	return coll.DeleteByID(ctx, id)
}
