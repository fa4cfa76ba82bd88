// Package document stores Go structs as MongoDB documents.
//
// A Collection of T reads documents into T values and writes T values as
// documents. Sub-documents are written by fields implementing Serializable
// and read back through a Registry or by fields implementing Deserializable:
//
//	reg := document.Registry{}
//	document.Register(reg, parseVenue)
//	games, err := document.Open(cfg.Mongo, document.Config[Game]{Collection: "games", Registry: reg})
//	game, err := games.FindOne(ctx, bson.M{"game_id": 42})
package document

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/syssam/syphon"
	"github.com/syssam/syphon/config"
)

// ErrKeepNils is returned when nil fields are to be kept but the document
// is written by a Config.Encode override.
var ErrKeepNils = errors.New("document: keeping nil fields is not supported with a custom encoder")

// Config configures a Collection.
type Config[T any] struct {
	// Collection is the collection name. Required.
	Collection string
	// Database is the database name. Open defaults it to the configured
	// MongoDB database.
	Database string
	// Registry holds the sub-document parsers used by the default decoder.
	Registry Registry
	// Encode replaces ToMap when set.
	Encode func(T) (map[string]any, error)
	// Decode replaces FromMap when set.
	Decode func(map[string]any) (T, error)
	// Logger receives operation errors. The zero value discards them.
	Logger zerolog.Logger
}

// Collection reads and writes documents of type T.
type Collection[T any] struct {
	store  Store
	name   string
	cfg    Config[T]
	logger zerolog.Logger
}

// New returns a Collection of T over store.
func New[T any](store Store, cfg Config[T]) (*Collection[T], error) {
	if store == nil {
		return nil, syphon.NewValidationError("store", errors.New("is required"))
	}
	if cfg.Collection == "" {
		return nil, syphon.NewValidationError("collection", errors.New("is required"))
	}
	return &Collection[T]{
		store:  store,
		name:   cfg.Collection,
		cfg:    cfg,
		logger: cfg.Logger.With().Str("collection", cfg.Collection).Logger(),
	}, nil
}

// Open returns a Collection of T stored in the MongoDB server of m.
// No connection is made until the first operation.
func Open[T any](m config.Mongo, cfg Config[T]) (*Collection[T], error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if cfg.Database == "" {
		cfg.Database = m.Database
	}
	return New(Store(NewMongoStore(m.URI(), cfg.Database, cfg.Collection)), cfg)
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// FindMany returns every document matching filter. A nil filter matches all.
func (c *Collection[T]) FindMany(ctx context.Context, filter bson.M) ([]T, error) {
	docs, err := c.store.Find(ctx, filter)
	if err != nil {
		return nil, c.queryError("find", err)
	}
	result := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := c.decode(doc)
		if err != nil {
			return nil, c.queryError("find", err)
		}
		result = append(result, v)
	}
	return result, nil
}

// FindOne returns the first document matching filter, or a
// *syphon.NotFoundError when there is none.
func (c *Collection[T]) FindOne(ctx context.Context, filter bson.M) (T, error) {
	var zero T
	doc, err := c.FindOneMap(ctx, filter)
	if err != nil {
		return zero, err
	}
	v, err := c.decode(doc)
	if err != nil {
		return zero, c.queryError("find one", err)
	}
	return v, nil
}

// FindOneMap returns the first document matching filter as stored, or a
// *syphon.NotFoundError when there is none.
func (c *Collection[T]) FindOneMap(ctx context.Context, filter bson.M) (bson.M, error) {
	doc, err := c.store.FindOne(ctx, filter)
	if err != nil {
		return nil, c.queryError("find one", err)
	}
	if doc == nil {
		return nil, syphon.NewNotFoundErrorWithFilter(c.name, filter)
	}
	return doc, nil
}

// Set sets fields on the first document matching filter.
func (c *Collection[T]) Set(ctx context.Context, filter, set bson.M, upsert bool) error {
	return c.update(ctx, "set", filter, bson.M{"$set": set}, upsert)
}

// Inc increments numeric fields of the first document matching filter.
func (c *Collection[T]) Inc(ctx context.Context, filter, inc bson.M) error {
	return c.update(ctx, "inc", filter, bson.M{"$inc": inc}, false)
}

// Push appends elements to array fields of the first document matching filter.
func (c *Collection[T]) Push(ctx context.Context, filter, push bson.M, upsert bool) error {
	return c.update(ctx, "push", filter, bson.M{"$push": push}, upsert)
}

// Pull removes matching elements from array fields of the first document
// matching filter.
func (c *Collection[T]) Pull(ctx context.Context, filter, pull bson.M) error {
	return c.update(ctx, "pull", filter, bson.M{"$pull": pull}, false)
}

// AddToSet appends elements missing from array fields of the first document
// matching filter.
func (c *Collection[T]) AddToSet(ctx context.Context, filter, add bson.M) error {
	return c.update(ctx, "add to set", filter, bson.M{"$addToSet": add}, false)
}

// InsertOne inserts doc. Nil fields are omitted unless keepNils is set.
func (c *Collection[T]) InsertOne(ctx context.Context, doc T, keepNils bool) error {
	m, err := c.encode(doc, keepNils)
	if err != nil {
		return c.mutationError("insert", err)
	}
	if err := c.store.InsertOne(ctx, m); err != nil {
		return c.mutationError("insert", err)
	}
	return nil
}

// InsertOneIfAbsent inserts doc unless a document matches filter, and
// reports whether it inserted.
func (c *Collection[T]) InsertOneIfAbsent(ctx context.Context, doc T, filter bson.M, keepNils bool) (bool, error) {
	m, err := c.encode(doc, keepNils)
	if err != nil {
		return false, c.mutationError("insert", err)
	}
	inserted, err := c.store.InsertIfAbsent(ctx, filter, m)
	if err != nil {
		return false, c.mutationError("insert", err)
	}
	return inserted, nil
}

// DeleteOne deletes the first document matching filter.
func (c *Collection[T]) DeleteOne(ctx context.Context, filter bson.M) error {
	if err := c.store.DeleteOne(ctx, filter); err != nil {
		return c.mutationError("delete", err)
	}
	return nil
}

// DeleteMany deletes every document matching filter.
func (c *Collection[T]) DeleteMany(ctx context.Context, filter bson.M) error {
	if err := c.store.DeleteMany(ctx, filter); err != nil {
		return c.mutationError("delete", err)
	}
	return nil
}

func (c *Collection[T]) update(ctx context.Context, op string, filter, update bson.M, upsert bool) error {
	if err := c.store.UpdateOne(ctx, filter, update, upsert); err != nil {
		return c.mutationError(op, err)
	}
	return nil
}

// encode returns doc as it is stored.
func (c *Collection[T]) encode(doc T, keepNils bool) (bson.M, error) {
	if c.cfg.Encode == nil {
		return ToMap(doc, keepNils)
	}
	if keepNils {
		return nil, ErrKeepNils
	}
	return c.cfg.Encode(doc)
}

// decode loads a stored document into a T.
func (c *Collection[T]) decode(doc bson.M) (T, error) {
	if c.cfg.Decode != nil {
		return c.cfg.Decode(doc)
	}
	return FromMap[T](doc, c.cfg.Registry)
}

func (c *Collection[T]) queryError(op string, err error) error {
	c.logger.Error().Err(err).Str("op", op).Msg("document query failed")
	return syphon.NewQueryError(c.name, op, err)
}

func (c *Collection[T]) mutationError(op string, err error) error {
	c.logger.Error().Err(err).Str("op", op).Msg("document write failed")
	return syphon.NewMutationError(c.name, op, err)
}
