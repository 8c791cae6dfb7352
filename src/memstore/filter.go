package memstore

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"modeldb/src/adapter"
	"modeldb/src/helpers"
	"modeldb/src/models"
)

func unknownModel(name string) error {
	return fmt.Errorf("%s: %w", name, adapter.ErrUnknownModel)
}

// matchRecords returns the table indexes of records matching the
// where-clause, in table order. Callers hold the store lock.
func (s *Store) matchRecords(def models.ModelDefinition, where []adapter.Where) ([]int, error) {
	var matches []int
	for i, rec := range s.tables[def.Name] {
		ok, err := evalWhere(def, rec, where)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, i)
		}
	}
	return matches, nil
}

// evalWhere folds the ordered predicate list left-to-right. Consecutive
// predicates combine with AND unless a predicate names OR; there is no
// grouping, so `a OR b AND c` evaluates as `(a OR b) AND c`.
func evalWhere(def models.ModelDefinition, rec models.Record, where []adapter.Where) (bool, error) {
	if len(where) == 0 {
		return true, nil
	}
	result, err := evalPredicate(def, rec, where[0])
	if err != nil {
		return false, err
	}
	for _, w := range where[1:] {
		next, err := evalPredicate(def, rec, w)
		if err != nil {
			return false, err
		}
		if w.Connector == adapter.Or {
			result = result || next
		} else {
			result = result && next
		}
	}
	return result, nil
}

func evalPredicate(def models.ModelDefinition, rec models.Record, w adapter.Where) (bool, error) {
	v := rec[w.Field]

	switch w.Operator {
	case adapter.OpEq, "":
		return helpers.EqualValues(v, w.Value), nil
	case adapter.OpNe:
		return !helpers.EqualValues(v, w.Value), nil
	case adapter.OpIn:
		return valueIn(v, w.Value), nil
	case adapter.OpNotIn:
		return !valueIn(v, w.Value), nil
	case adapter.OpLt, adapter.OpLte, adapter.OpGt, adapter.OpGte:
		ft, ok := fieldType(def, w.Field)
		if !ok {
			return false, &adapter.ValidationError{Model: def.Name, Field: w.Field, Reason: "cannot order on undeclared field"}
		}
		cmp, ok := compareTyped(ft, v, w.Value)
		if !ok {
			return false, nil
		}
		switch w.Operator {
		case adapter.OpLt:
			return cmp < 0, nil
		case adapter.OpLte:
			return cmp <= 0, nil
		case adapter.OpGt:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	case adapter.OpContains, adapter.OpStartsWith, adapter.OpEndsWith:
		sv, ok1 := v.(string)
		pattern, ok2 := w.Value.(string)
		if !ok1 || !ok2 {
			return false, nil
		}
		switch w.Operator {
		case adapter.OpContains:
			return strings.Contains(sv, pattern), nil
		case adapter.OpStartsWith:
			return strings.HasPrefix(sv, pattern), nil
		default:
			return strings.HasSuffix(sv, pattern), nil
		}
	default:
		return false, &adapter.ValidationError{Model: def.Name, Field: w.Field, Reason: fmt.Sprintf("unknown operator %q", w.Operator)}
	}
}

// fieldType resolves the declared type used for ordered comparison and
// sorting. The implicit id field is a string.
func fieldType(def models.ModelDefinition, name string) (models.FieldType, bool) {
	if name == "id" {
		return models.FieldTypeString, true
	}
	f, ok := def.Field(name)
	return f.Type, ok
}

// valueIn reports whether v equals any element of the list value carried
// by an in/notIn predicate.
func valueIn(v, list any) bool {
	if list == nil {
		return false
	}
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return helpers.EqualValues(v, list)
	}
	for i := 0; i < rv.Len(); i++ {
		if helpers.EqualValues(v, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// compareTyped compares two values under the field's declared type.
// The boolean result is false when either side does not fit the type.
func compareTyped(ft models.FieldType, a, b any) (int, bool) {
	switch ft {
	case models.FieldTypeString:
		as, ok1 := a.(string)
		bs, ok2 := b.(string)
		if !ok1 || !ok2 {
			return 0, false
		}
		return strings.Compare(as, bs), true
	case models.FieldTypeNumber:
		af, ok1 := helpers.ToFloat64(a)
		bf, ok2 := helpers.ToFloat64(b)
		if !ok1 || !ok2 {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	case models.FieldTypeBoolean:
		ab, ok1 := a.(bool)
		bb, ok2 := b.(bool)
		if !ok1 || !ok2 {
			return 0, false
		}
		return boolCompare(ab, bb), true
	case models.FieldTypeDate:
		at, ok1 := a.(time.Time)
		bt, ok2 := b.(time.Time)
		if !ok1 || !ok2 {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}

// false sorts before true.
func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
