package helpers

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID returns a fresh record identifier.
func GenerateUUID() string {
	return uuid.New().String()
}

// EqualValues compares two field values loosely enough that an int
// matches the float it was stored or decoded as, without panicking on
// uncomparable input. Two nils are equal.
func EqualValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := ToFloat64(a); ok {
		if bf, ok := ToFloat64(b); ok {
			return af == bf
		}
		return false
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// ToFloat64 coerces any supported numeric value to a float64 for
// comparison purposes.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
