package schema

import (
	"modeldb/src/models"
)

// Schema is a finalized, immutable snapshot of the merged model set.
// Every adapter bound to it reads the same definitions; relationships
// are resolved once at build time and cached alongside the snapshot.
type Schema struct {
	byKey     map[string]models.ModelDefinition
	order     []string
	relations map[string]ModelRelations
}

func newSchema(byKey map[string]models.ModelDefinition, order []string) *Schema {
	return &Schema{
		byKey:     byKey,
		order:     order,
		relations: resolveRelations(byKey, order),
	}
}

// Model returns the definition for the named model.
func (s *Schema) Model(name string) (models.ModelDefinition, bool) {
	m, ok := s.byKey[name]
	return m, ok
}

// HasModel reports whether the named model is part of the schema.
func (s *Schema) HasModel(name string) bool {
	_, ok := s.byKey[name]
	return ok
}

// ModelNames lists the model keys in registration order.
func (s *Schema) ModelNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// RelationsOf returns the relationships touching the named model.
func (s *Schema) RelationsOf(name string) ModelRelations {
	return s.relations[name]
}

// WithoutModels returns a schema with the named model keys dropped.
// Generators use this to exclude pre-existing or reserved tables before
// emitting any output; filtering the schema beats patching generated
// text after the fact. Relationships are re-resolved over the remaining
// models, so references into a dropped model simply disappear.
func (s *Schema) WithoutModels(names ...string) *Schema {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	byKey := make(map[string]models.ModelDefinition, len(s.byKey))
	var order []string
	for _, name := range s.order {
		if drop[name] {
			continue
		}
		byKey[name] = s.byKey[name]
		order = append(order, name)
	}
	return newSchema(byKey, order)
}
