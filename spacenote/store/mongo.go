package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/spacenote/spacenote/types"
)

// countersCollection holds one {_id: <collection>, seq: <last id>}
// document per per-space collection. Ids are taken with an atomic
// $inc-and-fetch, so concurrent creators cannot collide.
const countersCollection = "_counters"

// mongoStore adapts a MongoDB database to the Store interface. The query
// and sort expressions pass through to the server unchanged.
type mongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	locks      *lockManager
	registered map[string]bool
}

// NewMongo connects to MongoDB and returns a store over the named
// database. Spaces already present must be re-registered with
// AddSpaceCollections on startup.
func NewMongo(ctx context.Context, uri, database string) (Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb is unreachable: %w", err)
	}
	return &mongoStore{
		client:     client,
		db:         client.Database(database),
		locks:      &lockManager{},
		registered: make(map[string]bool),
	}, nil
}

func (s *mongoStore) Global(name string) Collection {
	return &mongoCollection{name: name, store: s}
}

func (s *mongoStore) AddSpaceCollections(_ context.Context, spaceID string) error {
	return s.locks.execute(writeOperation, func() error {
		for _, kind := range spaceKinds {
			s.registered[CollectionName(spaceID, kind)] = true
		}
		return nil
	})
}

func (s *mongoStore) SpaceCollection(spaceID string, kind Kind) (Collection, error) {
	name := CollectionName(spaceID, kind)
	err := s.locks.execute(readOperation, func() error {
		if !s.registered[name] {
			return fmt.Errorf("%w: collection %q does not exist", types.ErrNotFound, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &mongoCollection{name: name, store: s}, nil
}

func (s *mongoStore) DropSpaceCollections(ctx context.Context, spaceID string) error {
	return s.locks.execute(writeOperation, func() error {
		for _, kind := range spaceKinds {
			name := CollectionName(spaceID, kind)
			if !s.registered[name] {
				return fmt.Errorf("%w: collection %q does not exist", types.ErrNotFound, name)
			}
		}
		for _, kind := range spaceKinds {
			name := CollectionName(spaceID, kind)
			if err := s.db.Collection(name).Drop(ctx); err != nil {
				return fmt.Errorf("failed to drop collection %q: %w", name, err)
			}
			if _, err := s.db.Collection(countersCollection).DeleteOne(ctx, bson.M{"_id": name}); err != nil {
				return fmt.Errorf("failed to drop counter for %q: %w", name, err)
			}
			delete(s.registered, name)
		}
		return nil
	})
}

func (s *mongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

type mongoCollection struct {
	name  string
	store *mongoStore
}

func (c *mongoCollection) coll() *mongo.Collection {
	return c.store.db.Collection(c.name)
}

func (c *mongoCollection) Insert(ctx context.Context, doc bson.M) error {
	_, err := c.coll().InsertOne(ctx, doc)
	return err
}

func (c *mongoCollection) FindByID(ctx context.Context, id any) (bson.M, error) {
	var doc bson.M
	err := c.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: document %v", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *mongoCollection) Find(ctx context.Context, query bson.M, sortKeys []types.SortField, skip, limit int64) ([]bson.M, error) {
	opts := options.Find()
	if len(sortKeys) > 0 {
		sortDoc := make(bson.D, 0, len(sortKeys))
		for _, key := range sortKeys {
			direction := 1
			if key.Descending {
				direction = -1
			}
			sortDoc = append(sortDoc, bson.E{Key: key.Field, Value: direction})
		}
		opts = opts.SetSort(sortDoc)
	}
	if skip > 0 {
		opts = opts.SetSkip(skip)
	}
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := c.coll().Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *mongoCollection) Count(ctx context.Context, query bson.M) (int64, error) {
	return c.coll().CountDocuments(ctx, query)
}

func (c *mongoCollection) UpdateByID(ctx context.Context, id any, update bson.M) error {
	res, err := c.coll().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: document %v", types.ErrNotFound, id)
	}
	return nil
}

func (c *mongoCollection) DeleteByID(ctx context.Context, id any) error {
	res, err := c.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: document %v", types.ErrNotFound, id)
	}
	return nil
}

func (c *mongoCollection) NextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := c.store.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": c.name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id for %q: %w", c.name, err)
	}
	return counter.Seq, nil
}
