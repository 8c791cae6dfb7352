package mongostore

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"modeldb/src/adapter"
)

// whereToFilter translates an ordered predicate list into a bson filter.
// The clause folds left-to-right exactly like the memory engine: each
// predicate combines with the expression built so far under $and or $or,
// so `a OR b AND c` becomes {$and: [{$or: [a, b]}, c]}.
func whereToFilter(model string, where []adapter.Where) (bson.D, error) {
	if len(where) == 0 {
		return bson.D{}, nil
	}
	expr, err := predicateFilter(model, where[0])
	if err != nil {
		return nil, err
	}
	for _, w := range where[1:] {
		term, err := predicateFilter(model, w)
		if err != nil {
			return nil, err
		}
		op := "$and"
		if w.Connector == adapter.Or {
			op = "$or"
		}
		expr = bson.D{{Key: op, Value: bson.A{expr, term}}}
	}
	return expr, nil
}

func predicateFilter(model string, w adapter.Where) (bson.D, error) {
	switch w.Operator {
	case adapter.OpEq, "":
		return bson.D{{Key: w.Field, Value: w.Value}}, nil
	case adapter.OpNe:
		return operatorFilter(w.Field, "$ne", w.Value), nil
	case adapter.OpIn:
		return operatorFilter(w.Field, "$in", w.Value), nil
	case adapter.OpNotIn:
		return operatorFilter(w.Field, "$nin", w.Value), nil
	case adapter.OpLt:
		return operatorFilter(w.Field, "$lt", w.Value), nil
	case adapter.OpLte:
		return operatorFilter(w.Field, "$lte", w.Value), nil
	case adapter.OpGt:
		return operatorFilter(w.Field, "$gt", w.Value), nil
	case adapter.OpGte:
		return operatorFilter(w.Field, "$gte", w.Value), nil
	case adapter.OpContains, adapter.OpStartsWith, adapter.OpEndsWith:
		s, ok := w.Value.(string)
		if !ok {
			return nil, &adapter.ValidationError{Model: model, Field: w.Field, Reason: "string operator needs a string value"}
		}
		pattern := regexp.QuoteMeta(s)
		switch w.Operator {
		case adapter.OpStartsWith:
			pattern = "^" + pattern
		case adapter.OpEndsWith:
			pattern = pattern + "$"
		}
		return operatorFilter(w.Field, "$regex", primitive.Regex{Pattern: pattern}), nil
	default:
		return nil, &adapter.ValidationError{Model: model, Field: w.Field, Reason: fmt.Sprintf("unknown operator %q", w.Operator)}
	}
}

func operatorFilter(field, op string, value any) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: op, Value: value}}}}
}
