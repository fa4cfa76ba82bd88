package document

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store runs single-document operations against one collection.
// FindOne returns a nil document when nothing matches.
type Store interface {
	Find(ctx context.Context, filter bson.M) ([]bson.M, error)
	FindOne(ctx context.Context, filter bson.M) (bson.M, error)
	UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) error
	InsertOne(ctx context.Context, doc bson.M) error
	// InsertIfAbsent inserts doc unless a document matches filter and
	// reports whether it inserted.
	InsertIfAbsent(ctx context.Context, filter, doc bson.M) (bool, error)
	DeleteOne(ctx context.Context, filter bson.M) error
	DeleteMany(ctx context.Context, filter bson.M) error
}

// MongoStore is a Store that connects a new client for every call and
// disconnects it when the call returns.
type MongoStore struct {
	uri        string
	database   string
	collection string
}

// NewMongoStore returns a MongoStore for the given collection.
func NewMongoStore(uri, database, collection string) *MongoStore {
	return &MongoStore{uri: uri, database: database, collection: collection}
}

// with runs fn on the collection of a fresh client.
func (s *MongoStore) with(ctx context.Context, fn func(*mongo.Collection) error) (rerr error) {
	client, err := mongo.Connect(options.Client().ApplyURI(s.uri))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.WithoutCancel(ctx)); err != nil {
			rerr = errors.Join(rerr, err)
		}
	}()
	return fn(client.Database(s.database).Collection(s.collection))
}

// Find implements Store.
func (s *MongoStore) Find(ctx context.Context, filter bson.M) ([]bson.M, error) {
	var docs []bson.M
	err := s.with(ctx, func(c *mongo.Collection) error {
		cursor, err := c.Find(ctx, orAll(filter))
		if err != nil {
			return err
		}
		return cursor.All(ctx, &docs)
	})
	return docs, err
}

// FindOne implements Store.
func (s *MongoStore) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	var doc bson.M
	err := s.with(ctx, func(c *mongo.Collection) (err error) {
		doc, err = findOne(ctx, c, filter)
		return err
	})
	return doc, err
}

// UpdateOne implements Store.
func (s *MongoStore) UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) error {
	return s.with(ctx, func(c *mongo.Collection) error {
		_, err := c.UpdateOne(ctx, orAll(filter), update, options.UpdateOne().SetUpsert(upsert))
		return err
	})
}

// InsertOne implements Store.
func (s *MongoStore) InsertOne(ctx context.Context, doc bson.M) error {
	return s.with(ctx, func(c *mongo.Collection) error {
		_, err := c.InsertOne(ctx, doc)
		return err
	})
}

// InsertIfAbsent implements Store. The lookup and the insert share one
// client but are not atomic.
func (s *MongoStore) InsertIfAbsent(ctx context.Context, filter, doc bson.M) (bool, error) {
	var inserted bool
	err := s.with(ctx, func(c *mongo.Collection) error {
		existing, err := findOne(ctx, c, filter)
		if err != nil || existing != nil {
			return err
		}
		if _, err := c.InsertOne(ctx, doc); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}

// DeleteOne implements Store.
func (s *MongoStore) DeleteOne(ctx context.Context, filter bson.M) error {
	return s.with(ctx, func(c *mongo.Collection) error {
		_, err := c.DeleteOne(ctx, orAll(filter))
		return err
	})
}

// DeleteMany implements Store.
func (s *MongoStore) DeleteMany(ctx context.Context, filter bson.M) error {
	return s.with(ctx, func(c *mongo.Collection) error {
		_, err := c.DeleteMany(ctx, orAll(filter))
		return err
	})
}

func findOne(ctx context.Context, c *mongo.Collection, filter bson.M) (bson.M, error) {
	var doc bson.M
	err := c.FindOne(ctx, orAll(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	return doc, err
}

// orAll returns filter, or a filter matching every document when it is nil.
func orAll(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

var _ Store = (*MongoStore)(nil)
