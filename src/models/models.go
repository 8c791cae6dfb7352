package models

import (
	"time"
)

// FieldType is the closed set of value types a field can hold. Adding a
// type means extending every exhaustive switch over FieldType, so the
// compiler keeps validators and comparators in sync.
type FieldType int

const (
	FieldTypeString FieldType = iota
	FieldTypeNumber
	FieldTypeBoolean
	FieldTypeDate
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeString:
		return "string"
	case FieldTypeNumber:
		return "number"
	case FieldTypeBoolean:
		return "boolean"
	case FieldTypeDate:
		return "date"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the declared field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeBoolean, FieldTypeDate:
		return true
	default:
		return false
	}
}

// OnDeletePolicy is the referential action taken on records that reference
// a deleted record. The zero value is NoAction.
type OnDeletePolicy int

const (
	OnDeleteNoAction OnDeletePolicy = iota
	OnDeleteCascade
	OnDeleteSetNull
	OnDeleteRestrict
)

func (p OnDeletePolicy) String() string {
	switch p {
	case OnDeleteNoAction:
		return "noAction"
	case OnDeleteCascade:
		return "cascade"
	case OnDeleteSetNull:
		return "setNull"
	case OnDeleteRestrict:
		return "restrict"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the declared delete policies.
func (p OnDeletePolicy) Valid() bool {
	switch p {
	case OnDeleteNoAction, OnDeleteCascade, OnDeleteSetNull, OnDeleteRestrict:
		return true
	default:
		return false
	}
}

// Reference declares that a field holds the key of a record in another
// model. Field defaults to "id" when left empty.
type Reference struct {
	// Model is the name of the referenced model.
	Model string

	// Field is the referenced field on that model.
	Field string

	// OnDelete is the action applied to the referencing record when the
	// referenced record is deleted.
	OnDelete OnDeletePolicy
}

// FieldDefinition describes a single named, typed attribute of a model.
type FieldDefinition struct {
	Name     string
	Type     FieldType
	Required bool
	Unique   bool

	// DefaultValue is a fixed value applied at create time when the field
	// is absent. DefaultFunc is a zero-argument generator invoked instead
	// when set; it takes precedence over DefaultValue.
	DefaultValue any
	DefaultFunc  func() any

	References *Reference
}

// HasDefault reports whether a create without this field still ends up
// with a concrete value.
func (f FieldDefinition) HasDefault() bool {
	return f.DefaultFunc != nil || f.DefaultValue != nil
}

// Default resolves the field's default value, invoking the generator when
// one is set.
func (f FieldDefinition) Default() any {
	if f.DefaultFunc != nil {
		return f.DefaultFunc()
	}
	return f.DefaultValue
}

// ModelDefinition is a named entity type, analogous to a table. Fields is
// a slice rather than a map so declaration order is preserved; generated
// output depends on it, querying does not.
type ModelDefinition struct {
	Name   string
	Fields []FieldDefinition
}

// Field looks up a field definition by name.
func (m ModelDefinition) Field(name string) (FieldDefinition, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// Record is one instance of a model: a flat mapping of field name to
// value, plus the implicit "id" field.
type Record map[string]any

// ID returns the record's identifier, or "" when unset.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone copies the record so callers never alias a table's backing map.
// Joined attachments are themselves clones, so a shallow copy is enough.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CheckValue reports whether v is an acceptable value for a field of
// type t. A nil value never matches; absence is the caller's concern.
func CheckValue(t FieldType, v any) bool {
	if v == nil {
		return false
	}
	switch t {
	case FieldTypeString:
		_, ok := v.(string)
		return ok
	case FieldTypeNumber:
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case FieldTypeBoolean:
		_, ok := v.(bool)
		return ok
	case FieldTypeDate:
		_, ok := v.(time.Time)
		return ok
	default:
		return false
	}
}
