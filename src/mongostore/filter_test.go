package mongostore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"modeldb/src/adapter"
)

func TestWhereToFilterEmpty(t *testing.T) {
	filter, err := whereToFilter("user", nil)
	require.NoError(t, err)
	assert.Equal(t, bson.D{}, filter)
}

func TestWhereToFilterSinglePredicate(t *testing.T) {
	filter, err := whereToFilter("user", []adapter.Where{
		{Field: "email", Operator: adapter.OpEq, Value: "ada@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "email", Value: "ada@example.com"}}, filter)
}

func TestWhereToFilterOperators(t *testing.T) {
	cases := []struct {
		name  string
		where adapter.Where
		want  bson.D
	}{
		{"empty operator means eq",
			adapter.Where{Field: "n", Value: 1},
			bson.D{{Key: "n", Value: 1}}},
		{"ne",
			adapter.Where{Field: "n", Operator: adapter.OpNe, Value: 1},
			bson.D{{Key: "n", Value: bson.D{{Key: "$ne", Value: 1}}}}},
		{"in",
			adapter.Where{Field: "n", Operator: adapter.OpIn, Value: []int{1, 2}},
			bson.D{{Key: "n", Value: bson.D{{Key: "$in", Value: []int{1, 2}}}}}},
		{"notIn",
			adapter.Where{Field: "n", Operator: adapter.OpNotIn, Value: []int{1, 2}},
			bson.D{{Key: "n", Value: bson.D{{Key: "$nin", Value: []int{1, 2}}}}}},
		{"lt",
			adapter.Where{Field: "n", Operator: adapter.OpLt, Value: 5},
			bson.D{{Key: "n", Value: bson.D{{Key: "$lt", Value: 5}}}}},
		{"lte",
			adapter.Where{Field: "n", Operator: adapter.OpLte, Value: 5},
			bson.D{{Key: "n", Value: bson.D{{Key: "$lte", Value: 5}}}}},
		{"gt",
			adapter.Where{Field: "n", Operator: adapter.OpGt, Value: 5},
			bson.D{{Key: "n", Value: bson.D{{Key: "$gt", Value: 5}}}}},
		{"gte",
			adapter.Where{Field: "n", Operator: adapter.OpGte, Value: 5},
			bson.D{{Key: "n", Value: bson.D{{Key: "$gte", Value: 5}}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			filter, err := whereToFilter("m", []adapter.Where{tc.where})
			require.NoError(t, err)
			assert.Equal(t, tc.want, filter)
		})
	}
}

func TestWhereToFilterStringOperators(t *testing.T) {
	filter, err := whereToFilter("user", []adapter.Where{
		{Field: "name", Operator: adapter.OpStartsWith, Value: "A"},
	})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "name", Value: bson.D{
		{Key: "$regex", Value: primitive.Regex{Pattern: "^A"}},
	}}}, filter)

	filter, err = whereToFilter("user", []adapter.Where{
		{Field: "name", Operator: adapter.OpEndsWith, Value: "n"},
	})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "name", Value: bson.D{
		{Key: "$regex", Value: primitive.Regex{Pattern: "n$"}},
	}}}, filter)

	// Pattern metacharacters in the literal are escaped, never
	// interpreted.
	filter, err = whereToFilter("user", []adapter.Where{
		{Field: "email", Operator: adapter.OpContains, Value: "a.b+c"},
	})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "email", Value: bson.D{
		{Key: "$regex", Value: primitive.Regex{Pattern: `a\.b\+c`}},
	}}}, filter)
}

func TestWhereToFilterStringOperatorNeedsString(t *testing.T) {
	_, err := whereToFilter("user", []adapter.Where{
		{Field: "name", Operator: adapter.OpContains, Value: 42},
	})
	var verr *adapter.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestWhereToFilterUnknownOperator(t *testing.T) {
	_, err := whereToFilter("user", []adapter.Where{
		{Field: "name", Operator: "like", Value: "x"},
	})
	var verr *adapter.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestWhereToFilterFoldsLeftToRight(t *testing.T) {
	a := adapter.Where{Field: "name", Operator: adapter.OpEq, Value: "Ada"}
	b := adapter.Where{Field: "name", Operator: adapter.OpEq, Value: "Grace", Connector: adapter.Or}
	c := adapter.Where{Field: "rating", Operator: adapter.OpLt, Value: 4}

	filter, err := whereToFilter("author", []adapter.Where{a, b, c})
	require.NoError(t, err)

	// (a OR b) AND c, never a OR (b AND c).
	want := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: "Ada"}},
			bson.D{{Key: "name", Value: "Grace"}},
		}}},
		bson.D{{Key: "rating", Value: bson.D{{Key: "$lt", Value: 4}}}},
	}}}
	assert.Equal(t, want, filter)
}
