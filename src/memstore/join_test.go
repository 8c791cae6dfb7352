package memstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modeldb/src/adapter"
	"modeldb/src/models"
	"modeldb/src/settings"
)

func seedLibrary(t *testing.T, s *Store, books int) {
	t.Helper()
	mustCreate(t, s, "author", models.Record{"id": "a1", "name": "Ada"})
	mustCreate(t, s, "author", models.Record{"id": "a2", "name": "Grace"})
	mustCreate(t, s, "profile", models.Record{"id": "p1", "bio": "pioneer", "authorId": "a1"})
	for i := 1; i <= books; i++ {
		mustCreate(t, s, "book", models.Record{
			"id":       fmt.Sprintf("b%d", i),
			"title":    fmt.Sprintf("Volume %d", i),
			"authorId": "a1",
		})
	}
}

func TestJoinOneToOne(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	seedLibrary(t, s, 0)
	ctx := context.Background()

	rec, err := s.FindOne(ctx, "author", adapter.FindOneOptions{
		Where: whereEq("id", "a1"),
		Joins: map[string]adapter.JoinOption{"profile": {}},
	})
	require.NoError(t, err)
	require.NotNil(t, rec)

	profile, ok := rec["profile"].(models.Record)
	require.True(t, ok)
	assert.Equal(t, "p1", profile.ID())
	assert.Equal(t, "pioneer", profile["bio"])
}

func TestJoinOneToOneAbsentIsExplicitNil(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	seedLibrary(t, s, 0)

	rec, err := s.FindOne(context.Background(), "author", adapter.FindOneOptions{
		Where: whereEq("id", "a2"),
		Joins: map[string]adapter.JoinOption{"profile": {}},
	})
	require.NoError(t, err)
	require.NotNil(t, rec)

	v, present := rec["profile"]
	require.True(t, present, "the key is attached even when nothing matched")
	assert.Nil(t, v)
}

func TestJoinOneToManyOrderAndLimit(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	seedLibrary(t, s, 10)
	ctx := context.Background()

	rec, err := s.FindOne(ctx, "author", adapter.FindOneOptions{
		Where: whereEq("id", "a1"),
		Joins: map[string]adapter.JoinOption{"book": {}},
	})
	require.NoError(t, err)
	books, ok := rec["book"].([]models.Record)
	require.True(t, ok)
	require.Len(t, books, 10)
	assert.Equal(t, "b1", books[0].ID(), "children attach in creation order")
	assert.Equal(t, "b10", books[9].ID())

	rec, err = s.FindOne(ctx, "author", adapter.FindOneOptions{
		Where: whereEq("id", "a1"),
		Joins: map[string]adapter.JoinOption{"book": {Limit: 3}},
	})
	require.NoError(t, err)
	books = rec["book"].([]models.Record)
	require.Len(t, books, 3)
	assert.Equal(t, "b1", books[0].ID())
	assert.Equal(t, "b3", books[2].ID())
}

func TestJoinOneToManyEmptySlice(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	seedLibrary(t, s, 0)

	rec, err := s.FindOne(context.Background(), "author", adapter.FindOneOptions{
		Where: whereEq("id", "a1"),
		Joins: map[string]adapter.JoinOption{"book": {}},
	})
	require.NoError(t, err)
	books, ok := rec["book"].([]models.Record)
	require.True(t, ok, "a childless one-to-many still attaches a slice")
	assert.Empty(t, books)
}

func TestJoinUnknownRelation(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	seedLibrary(t, s, 1)

	_, err := s.FindOne(context.Background(), "author", adapter.FindOneOptions{
		Where: whereEq("id", "a1"),
		Joins: map[string]adapter.JoinOption{"publisher": {}},
	})
	require.ErrorIs(t, err, adapter.ErrUnknownRelation)
}

func TestJoinOnFindMany(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	seedLibrary(t, s, 2)

	recs, err := s.FindMany(context.Background(), "author", adapter.FindManyOptions{
		Joins: map[string]adapter.JoinOption{"book": {}, "profile": {}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Len(t, recs[0]["book"], 2)
	assert.NotNil(t, recs[0]["profile"])
	assert.Len(t, recs[1]["book"], 0)
	assert.Nil(t, recs[1]["profile"])
}

func TestJoinSurvivesProjection(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	seedLibrary(t, s, 1)

	rec, err := s.FindOne(context.Background(), "author", adapter.FindOneOptions{
		Where:  whereEq("id", "a1"),
		Joins:  map[string]adapter.JoinOption{"book": {}},
		Select: []string{"name"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", rec["name"])
	assert.NotContains(t, rec, "id")
	assert.Len(t, rec["book"], 1)
}

func TestJoinFanOutMatchesInProcess(t *testing.T) {
	fanOut := settings.DefaultOptions()
	fanOut.Experimental.Joins = false

	inProc := newTestStore(t, models.OnDeleteCascade, nil)
	perRec := newTestStore(t, models.OnDeleteCascade, fanOut)
	seedLibrary(t, inProc, 5)
	seedLibrary(t, perRec, 5)

	opts := adapter.FindManyOptions{
		Joins: map[string]adapter.JoinOption{"book": {Limit: 2}, "profile": {}},
	}
	a, err := inProc.FindMany(context.Background(), "author", opts)
	require.NoError(t, err)
	b, err := perRec.FindMany(context.Background(), "author", opts)
	require.NoError(t, err)
	assert.Equal(t, a, b, "both join strategies attach identical results")
}
