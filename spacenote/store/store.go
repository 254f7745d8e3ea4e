// Package store provides per-tenant document collections: one collection
// per space per entity kind, plus global collections for spaces, users
// and sessions. Backends share a single query grammar (bson.M with
// $-operators, the expression the query package builds); the memory and
// JSON-file backends evaluate it in-process, the mongo backend hands it
// to the server.
package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/spacenote/spacenote/types"
)

// Kind names an entity kind stored in its own per-space collection.
type Kind string

const (
	KindNotes       Kind = "notes"
	KindComments    Kind = "comments"
	KindAttachments Kind = "attachments"
)

// spaceKinds lists the collections created for every space.
var spaceKinds = []Kind{KindNotes, KindComments, KindAttachments}

// CollectionName builds the backing collection name for a space and kind,
// e.g. "our-tasks_notes".
func CollectionName(spaceID string, kind Kind) string {
	return fmt.Sprintf("%s_%s", spaceID, kind)
}

// Collection is a single document collection. Documents are bson.M maps
// keyed by "_id"; ids within per-space collections are integers assigned
// by NextID.
type Collection interface {
	// Insert adds a document. The caller sets "_id".
	Insert(ctx context.Context, doc bson.M) error

	// FindByID returns the document with the given id, or a
	// types.ErrNotFound error.
	FindByID(ctx context.Context, id any) (bson.M, error)

	// Find returns documents matching the query, ordered by sort, after
	// skipping skip documents and returning at most limit (limit <= 0
	// means no limit).
	Find(ctx context.Context, query bson.M, sort []types.SortField, skip, limit int64) ([]bson.M, error)

	// Count returns the number of documents matching the query.
	Count(ctx context.Context, query bson.M) (int64, error)

	// UpdateByID applies an update document ({"$set": ..., "$inc": ...})
	// to the document with the given id.
	UpdateByID(ctx context.Context, id any, update bson.M) error

	// DeleteByID removes the document with the given id.
	DeleteByID(ctx context.Context, id any) error

	// NextID atomically increments and returns the collection's id
	// counter. The first id is 1.
	NextID(ctx context.Context) (int64, error)
}

// Store manages collections. Per-space collections must be registered
// with AddSpaceCollections before use; referencing them earlier is a
// not-found error. Global collections are created lazily.
type Store interface {
	// Global returns a named global collection ("spaces", "users", ...),
	// creating it on first use.
	Global(name string) Collection

	// AddSpaceCollections registers the note, comment and attachment
	// collections for a space.
	AddSpaceCollections(ctx context.Context, spaceID string) error

	// SpaceCollection returns a space's collection of the given kind, or
	// a types.ErrNotFound error if the space was never registered.
	SpaceCollection(spaceID string, kind Kind) (Collection, error)

	// DropSpaceCollections removes a space's collections and their
	// documents.
	DropSpaceCollections(ctx context.Context, spaceID string) error

	// Close releases backend resources.
	Close() error
}
