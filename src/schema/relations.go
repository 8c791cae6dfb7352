package schema

import (
	"modeldb/src/models"
)

// Cardinality tags a relationship as one-to-one or one-to-many, derived
// from whether the referencing field is unique.
type Cardinality int

const (
	OneToMany Cardinality = iota
	OneToOne
)

func (c Cardinality) String() string {
	if c == OneToOne {
		return "one-to-one"
	}
	return "one-to-many"
}

// Relation describes one schema-derived relationship between two models.
// It is computed from field-level reference metadata, never stored.
type Relation struct {
	// Model owns the referencing field.
	Model string

	// Field is the foreign-key field on Model.
	Field string

	// TargetModel and TargetField identify the referenced side.
	TargetModel string
	TargetField string

	Cardinality Cardinality
	OnDelete    models.OnDeletePolicy
}

// ModelRelations groups the relationships touching one model. Outward
// relations are this model's own referencing fields; inward relations are
// fields on other models that point here. Joins and referential actions
// both operate on the inward set.
type ModelRelations struct {
	Outward []Relation
	Inward  []Relation
}

// resolveRelations derives every relationship in the model set, in model
// and field declaration order so traversal is deterministic.
func resolveRelations(byKey map[string]models.ModelDefinition, order []string) map[string]ModelRelations {
	out := make(map[string]ModelRelations, len(order))
	for _, name := range order {
		for _, f := range byKey[name].Fields {
			if f.References == nil {
				continue
			}
			if _, ok := byKey[f.References.Model]; !ok {
				// Dangling references only survive schema filtering;
				// Build rejects them outright.
				continue
			}
			rel := Relation{
				Model:       name,
				Field:       f.Name,
				TargetModel: f.References.Model,
				TargetField: f.References.Field,
				Cardinality: OneToMany,
				OnDelete:    f.References.OnDelete,
			}
			if rel.TargetField == "" {
				rel.TargetField = "id"
			}
			if f.Unique {
				rel.Cardinality = OneToOne
			}

			owner := out[name]
			owner.Outward = append(owner.Outward, rel)
			out[name] = owner

			target := out[rel.TargetModel]
			target.Inward = append(target.Inward, rel)
			out[rel.TargetModel] = target
		}
	}
	return out
}
