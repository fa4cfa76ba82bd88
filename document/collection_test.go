package document_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/syssam/syphon"
	"github.com/syssam/syphon/config"
	"github.com/syssam/syphon/document"
)

// memStore is an in-memory Store matching documents on top-level equality.
type memStore struct {
	docs    []bson.M
	updates []bson.M
	upserts []bool
	err     error
}

func (s *memStore) match(doc, filter bson.M) bool {
	for k, v := range filter {
		if doc[k] != v {
			return false
		}
	}
	return true
}

func (s *memStore) Find(_ context.Context, filter bson.M) ([]bson.M, error) {
	var out []bson.M
	for _, d := range s.docs {
		if s.match(d, filter) {
			out = append(out, d)
		}
	}
	return out, s.err
}

func (s *memStore) FindOne(_ context.Context, filter bson.M) (bson.M, error) {
	for _, d := range s.docs {
		if s.match(d, filter) {
			return d, s.err
		}
	}
	return nil, s.err
}

func (s *memStore) UpdateOne(_ context.Context, filter, update bson.M, upsert bool) error {
	s.updates = append(s.updates, bson.M{"filter": filter, "update": update})
	s.upserts = append(s.upserts, upsert)
	return s.err
}

func (s *memStore) InsertOne(_ context.Context, doc bson.M) error {
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, doc)
	return nil
}

func (s *memStore) InsertIfAbsent(ctx context.Context, filter, doc bson.M) (bool, error) {
	existing, err := s.FindOne(ctx, filter)
	if err != nil || existing != nil {
		return false, err
	}
	return true, s.InsertOne(ctx, doc)
}

func (s *memStore) DeleteOne(_ context.Context, filter bson.M) error {
	for i, d := range s.docs {
		if s.match(d, filter) {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			break
		}
	}
	return s.err
}

func (s *memStore) DeleteMany(_ context.Context, filter bson.M) error {
	kept := s.docs[:0]
	for _, d := range s.docs {
		if !s.match(d, filter) {
			kept = append(kept, d)
		}
	}
	s.docs = kept
	return s.err
}

func newGames(t *testing.T, store *memStore) *document.Collection[Game] {
	t.Helper()
	reg := document.Registry{}
	document.Register(reg, parseVenue)
	games, err := document.New(store, document.Config[Game]{Collection: "games", Registry: reg})
	require.NoError(t, err)
	return games
}

func TestNew(t *testing.T) {
	_, err := document.New[Game](nil, document.Config[Game]{Collection: "games"})
	assert.True(t, syphon.IsValidationError(err))

	_, err = document.New(&memStore{}, document.Config[Game]{})
	assert.True(t, syphon.IsValidationError(err))

	games, err := document.New(&memStore{}, document.Config[Game]{Collection: "games"})
	require.NoError(t, err)
	assert.Equal(t, "games", games.Name())
}

func TestOpen(t *testing.T) {
	_, err := document.Open(config.Mongo{Port: 27017}, document.Config[Game]{Collection: "games"})
	require.Error(t, err)
	assert.True(t, syphon.IsConfigError(err))

	games, err := document.Open(config.Mongo{
		Host:     "localhost",
		Port:     27017,
		User:     "syphon",
		Password: "secret",
		Database: "nba",
	}, document.Config[Game]{Collection: "games"})
	require.NoError(t, err)
	assert.Equal(t, "games", games.Name())
}

func TestInsertAndFind(t *testing.T) {
	store := &memStore{}
	games := newGames(t, store)
	ctx := context.Background()

	require.NoError(t, games.InsertOne(ctx, Game{GameID: 1, Home: "Hawks", Venue: &Venue{Name: "State Farm"}}, false))
	require.NoError(t, games.InsertOne(ctx, Game{GameID: 2, Home: "Bulls"}, true))
	require.Len(t, store.docs, 2)
	assert.NotContains(t, store.docs[0], "away")
	assert.Contains(t, store.docs[1], "away")

	all, err := games.FindMany(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, &Venue{Name: "State Farm"}, all[0].Venue)

	g, err := games.FindOne(ctx, bson.M{"home": "Bulls"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), g.GameID)

	m, err := games.FindOneMap(ctx, bson.M{"game_id": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, "Hawks", m["home"])

	_, err = games.FindOne(ctx, bson.M{"home": "Knicks"})
	require.Error(t, err)
	assert.True(t, syphon.IsNotFound(err))
	var nf *syphon.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, bson.M{"home": "Knicks"}, nf.Filter())

	_, err = games.FindOneMap(ctx, bson.M{"home": "Knicks"})
	assert.True(t, syphon.IsNotFound(err))
}

func TestInsertOneIfAbsent(t *testing.T) {
	store := &memStore{}
	games := newGames(t, store)
	ctx := context.Background()

	inserted, err := games.InsertOneIfAbsent(ctx, Game{GameID: 1, Home: "Hawks"}, bson.M{"game_id": int64(1)}, false)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = games.InsertOneIfAbsent(ctx, Game{GameID: 1, Home: "Celtics"}, bson.M{"game_id": int64(1)}, false)
	require.NoError(t, err)
	assert.False(t, inserted)
	require.Len(t, store.docs, 1)
	assert.Equal(t, "Hawks", store.docs[0]["home"])
}

func TestUpdates(t *testing.T) {
	store := &memStore{}
	games := newGames(t, store)
	ctx := context.Background()
	filter := bson.M{"game_id": 1}

	require.NoError(t, games.Set(ctx, filter, bson.M{"home": "Hawks"}, true))
	require.NoError(t, games.Inc(ctx, filter, bson.M{"attendance": 1}))
	require.NoError(t, games.Push(ctx, filter, bson.M{"tags": "overtime"}, false))
	require.NoError(t, games.Pull(ctx, filter, bson.M{"tags": "overtime"}))
	require.NoError(t, games.AddToSet(ctx, filter, bson.M{"tags": "playoffs"}))

	assert.Equal(t, []bson.M{
		{"filter": filter, "update": bson.M{"$set": bson.M{"home": "Hawks"}}},
		{"filter": filter, "update": bson.M{"$inc": bson.M{"attendance": 1}}},
		{"filter": filter, "update": bson.M{"$push": bson.M{"tags": "overtime"}}},
		{"filter": filter, "update": bson.M{"$pull": bson.M{"tags": "overtime"}}},
		{"filter": filter, "update": bson.M{"$addToSet": bson.M{"tags": "playoffs"}}},
	}, store.updates)
	assert.Equal(t, []bool{true, false, false, false, false}, store.upserts)
}

func TestDelete(t *testing.T) {
	store := &memStore{docs: []bson.M{
		{"game_id": 1, "home": "Hawks"},
		{"game_id": 2, "home": "Hawks"},
		{"game_id": 3, "home": "Bulls"},
	}}
	games := newGames(t, store)
	ctx := context.Background()

	require.NoError(t, games.DeleteOne(ctx, bson.M{"home": "Hawks"}))
	require.Len(t, store.docs, 2)
	assert.Equal(t, 2, store.docs[0]["game_id"])

	require.NoError(t, games.DeleteMany(ctx, bson.M{"home": "Hawks"}))
	require.Len(t, store.docs, 1)
	assert.Equal(t, "Bulls", store.docs[0]["home"])
}

func TestCustomCodec(t *testing.T) {
	store := &memStore{}
	games, err := document.New(store, document.Config[Game]{
		Collection: "games",
		Encode: func(g Game) (map[string]any, error) {
			return map[string]any{"id": g.GameID, "teams": g.Home}, nil
		},
		Decode: func(m map[string]any) (Game, error) {
			return Game{GameID: m["id"].(int64), Home: m["teams"].(string)}, nil
		},
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, games.InsertOne(ctx, Game{GameID: 3, Home: "Nets"}, false))
	assert.Equal(t, bson.M{"id": int64(3), "teams": "Nets"}, store.docs[0])

	g, err := games.FindOne(ctx, bson.M{"id": int64(3)})
	require.NoError(t, err)
	assert.Equal(t, Game{GameID: 3, Home: "Nets"}, g)

	err = games.InsertOne(ctx, Game{GameID: 4}, true)
	assert.ErrorIs(t, err, document.ErrKeepNils)
	_, err = games.InsertOneIfAbsent(ctx, Game{GameID: 4}, bson.M{"id": int64(4)}, true)
	assert.ErrorIs(t, err, document.ErrKeepNils)
	assert.Len(t, store.docs, 1)
}

func TestStoreErrors(t *testing.T) {
	var buf bytes.Buffer
	store := &memStore{err: errors.New("server selection timeout")}
	games, err := document.New(store, document.Config[Game]{Collection: "games", Logger: zerolog.New(&buf)})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = games.FindMany(ctx, nil)
	assert.True(t, syphon.IsQueryError(err))
	_, err = games.FindOne(ctx, nil)
	assert.True(t, syphon.IsQueryError(err))
	assert.False(t, syphon.IsNotFound(err))

	err = games.Set(ctx, nil, bson.M{"home": "x"}, false)
	assert.True(t, syphon.IsMutationError(err))
	err = games.InsertOne(ctx, Game{}, false)
	assert.True(t, syphon.IsMutationError(err))
	err = games.DeleteMany(ctx, nil)
	assert.True(t, syphon.IsMutationError(err))

	assert.Contains(t, buf.String(), `"collection":"games"`)
	assert.Contains(t, buf.String(), "server selection timeout")
}
