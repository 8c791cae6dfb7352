package adapter

import (
	"modeldb/src/helpers"
	"modeldb/src/models"
)

// NormalizeCreate prepares incoming create data for insertion: the input
// is copied, declared defaults fill absent fields, a generated id is
// assigned when none was supplied, and required/type validation runs over
// the result. Every backend shares these semantics so a record created
// through one adapter looks the same through another.
//
// Foreign-key values are deliberately not checked for existence; they are
// interpreted at join and delete time only.
func NormalizeCreate(def models.ModelDefinition, data models.Record) (models.Record, error) {
	rec := make(models.Record, len(data)+len(def.Fields)+1)
	for k, v := range data {
		rec[k] = v
	}

	for _, f := range def.Fields {
		if v, ok := rec[f.Name]; ok && v != nil {
			continue
		}
		if f.HasDefault() {
			rec[f.Name] = f.Default()
		}
	}

	if rec.ID() == "" {
		rec["id"] = helpers.GenerateUUID()
	}

	for _, f := range def.Fields {
		v, ok := rec[f.Name]
		if !ok || v == nil {
			if f.Required {
				return nil, &ValidationError{Model: def.Name, Field: f.Name, Reason: "required field missing"}
			}
			continue
		}
		if !models.CheckValue(f.Type, v) {
			return nil, &ValidationError{Model: def.Name, Field: f.Name, Reason: "value is not a " + f.Type.String()}
		}
	}
	return rec, nil
}

// ValidateUpdate checks a partial update against the model definition.
// Only fields present in data are checked; a nil value is allowed unless
// the field is required. Validation always precedes mutation.
func ValidateUpdate(def models.ModelDefinition, data models.Record) error {
	for name, v := range data {
		f, ok := def.Field(name)
		if !ok {
			continue
		}
		if v == nil {
			if f.Required {
				return &ValidationError{Model: def.Name, Field: name, Reason: "required field cannot be cleared"}
			}
			continue
		}
		if !models.CheckValue(f.Type, v) {
			return &ValidationError{Model: def.Name, Field: name, Reason: "value is not a " + f.Type.String()}
		}
	}
	return nil
}

// UniqueFields lists the declared unique fields present in data, in
// declaration order. Backends use it to know which constraint scans an
// insert or update needs.
func UniqueFields(def models.ModelDefinition, data models.Record) []models.FieldDefinition {
	var out []models.FieldDefinition
	for _, f := range def.Fields {
		if !f.Unique {
			continue
		}
		if v, ok := data[f.Name]; ok && v != nil {
			out = append(out, f)
		}
	}
	return out
}
