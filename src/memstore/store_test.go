package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modeldb/src/adapter"
	"modeldb/src/models"
	"modeldb/src/schema"
	"modeldb/src/settings"
)

// librarySchema is the fixture most store tests run against: authors,
// their one-to-one profile, and their books. The book reference's
// onDelete policy is the knob the cascade tests turn.
func librarySchema(t *testing.T, bookPolicy models.OnDeletePolicy) *schema.Schema {
	t.Helper()
	sch, err := schema.New(
		models.ModelDefinition{Name: "author", Fields: []models.FieldDefinition{
			{Name: "name", Type: models.FieldTypeString, Required: true},
			{Name: "email", Type: models.FieldTypeString, Unique: true},
			{Name: "rating", Type: models.FieldTypeNumber},
			{Name: "active", Type: models.FieldTypeBoolean, DefaultValue: true},
			{Name: "createdAt", Type: models.FieldTypeDate},
		}},
		models.ModelDefinition{Name: "profile", Fields: []models.FieldDefinition{
			{Name: "bio", Type: models.FieldTypeString},
			{Name: "authorId", Type: models.FieldTypeString, Unique: true,
				References: &models.Reference{Model: "author", OnDelete: models.OnDeleteCascade}},
		}},
		models.ModelDefinition{Name: "book", Fields: []models.FieldDefinition{
			{Name: "title", Type: models.FieldTypeString, Required: true},
			{Name: "authorId", Type: models.FieldTypeString,
				References: &models.Reference{Model: "author", OnDelete: bookPolicy}},
		}},
	).Build()
	require.NoError(t, err)
	return sch
}

func newTestStore(t *testing.T, bookPolicy models.OnDeletePolicy, opts *settings.Options) *Store {
	t.Helper()
	s, err := New(librarySchema(t, bookPolicy), opts, nil)
	require.NoError(t, err)
	return s
}

func mustCreate(t *testing.T, s *Store, model string, data models.Record) models.Record {
	t.Helper()
	rec, err := s.Create(context.Background(), model, data)
	require.NoError(t, err)
	return rec
}

func mustCount(t *testing.T, s *Store, model string, where []adapter.Where) int {
	t.Helper()
	n, err := s.Count(context.Background(), model, where)
	require.NoError(t, err)
	return n
}

func whereEq(field string, value any) []adapter.Where {
	return []adapter.Where{{Field: field, Operator: adapter.OpEq, Value: value}}
}

func TestNewRequiresSchema(t *testing.T) {
	_, err := New(nil, nil, nil)
	require.Error(t, err)
}

func TestCreateGeneratesIDAndDefaults(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)

	rec := mustCreate(t, s, "author", models.Record{"name": "Ada", "email": "ada@example.com"})
	assert.NotEmpty(t, rec.ID())
	assert.Equal(t, true, rec["active"], "declared default fills the absent field")

	other := mustCreate(t, s, "author", models.Record{"name": "Grace", "email": "grace@example.com"})
	assert.NotEqual(t, rec.ID(), other.ID())
}

func TestCreateKeepsSuppliedID(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	rec := mustCreate(t, s, "author", models.Record{"id": "a1", "name": "Ada"})
	assert.Equal(t, "a1", rec.ID())
}

func TestCreateValidates(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	ctx := context.Background()

	_, err := s.Create(ctx, "author", models.Record{"email": "ada@example.com"})
	var verr *adapter.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = s.Create(ctx, "author", models.Record{"name": "Ada", "rating": "high"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rating", verr.Field)
}

func TestCreateUniqueViolation(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	ctx := context.Background()

	mustCreate(t, s, "author", models.Record{"name": "Ada", "email": "ada@example.com"})
	_, err := s.Create(ctx, "author", models.Record{"name": "Imposter", "email": "ada@example.com"})

	var uerr *adapter.UniqueConstraintError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "author", uerr.Model)
	assert.Equal(t, "email", uerr.Field)
}

func TestUniqueConstraintsScopePerModel(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)

	mustCreate(t, s, "author", models.Record{"name": "Ada", "email": "shared"})
	mustCreate(t, s, "profile", models.Record{"bio": "...", "authorId": "shared"})
}

func TestUnknownModel(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	ctx := context.Background()

	_, err := s.Create(ctx, "publisher", models.Record{"name": "x"})
	require.ErrorIs(t, err, adapter.ErrUnknownModel)

	_, err = s.FindMany(ctx, "publisher", adapter.FindManyOptions{})
	require.ErrorIs(t, err, adapter.ErrUnknownModel)

	_, err = s.Count(ctx, "publisher", nil)
	require.ErrorIs(t, err, adapter.ErrUnknownModel)
}

func TestFindOneAbsenceIsNotAnError(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)

	rec, err := s.FindOne(context.Background(), "author", adapter.FindOneOptions{
		Where: whereEq("name", "nobody"),
	})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStoresShareNothing(t *testing.T) {
	a := newTestStore(t, models.OnDeleteCascade, nil)
	b := newTestStore(t, models.OnDeleteCascade, nil)

	mustCreate(t, a, "author", models.Record{"name": "Ada"})
	assert.Equal(t, 1, mustCount(t, a, "author", nil))
	assert.Equal(t, 0, mustCount(t, b, "author", nil))
}

func TestResultsNeverAliasTables(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	ctx := context.Background()

	created := mustCreate(t, s, "author", models.Record{"name": "Ada"})
	created["name"] = "mutated"

	rec, err := s.FindOne(ctx, "author", adapter.FindOneOptions{Where: whereEq("id", created.ID())})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Ada", rec["name"])

	rec["name"] = "also mutated"
	again, err := s.FindOne(ctx, "author", adapter.FindOneOptions{Where: whereEq("id", created.ID())})
	require.NoError(t, err)
	assert.Equal(t, "Ada", again["name"])
}

func TestCreatedAtRoundTrips(t *testing.T) {
	s := newTestStore(t, models.OnDeleteCascade, nil)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mustCreate(t, s, "author", models.Record{"name": "Ada", "createdAt": at})
	rec, err := s.FindOne(context.Background(), "author", adapter.FindOneOptions{
		Where: whereEq("createdAt", at),
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, at, rec["createdAt"])
}
