// Package mongo provides a MongoDB cache index shared by every process
// publishing into the same workspace.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"goa.design/accessors/cache/index"
)

// Store is a MongoDB index.Store. Entries are documents keyed by identity.
type Store struct {
	collection *mongo.Collection
}

var _ index.Store = (*Store)(nil)

// New returns a store persisting entries in collection.
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

// Save upserts e.
func (s *Store) Save(ctx context.Context, e *index.Entry) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": e.Identity}, e, opts); err != nil {
		return fmt.Errorf("mongodb save entry %q: %w", e.Identity, err)
	}
	return nil
}

// Get returns the entry of identity.
func (s *Store) Get(ctx context.Context, identity string) (*index.Entry, error) {
	var e index.Entry
	if err := s.collection.FindOne(ctx, bson.M{"_id": identity}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, index.ErrNotFound
		}
		return nil, fmt.Errorf("mongodb get entry %q: %w", identity, err)
	}
	return &e, nil
}

// Delete removes the entry of identity.
func (s *Store) Delete(ctx context.Context, identity string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": identity})
	if err != nil {
		return fmt.Errorf("mongodb delete entry %q: %w", identity, err)
	}
	if res.DeletedCount == 0 {
		return index.ErrNotFound
	}
	return nil
}

// List returns the entries of kind sorted by identity.
func (s *Store) List(ctx context.Context, kind string) ([]*index.Entry, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb list entries: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	out := make([]*index.Entry, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongodb list entries decode: %w", err)
	}
	return out, nil
}
