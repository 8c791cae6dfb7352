package schema

import (
	"fmt"

	"go.uber.org/multierr"

	"modeldb/src/models"
)

// Plugin is a named schema fragment. Fragments are merged in the order
// they are registered; model keys must not collide across fragments.
type Plugin struct {
	Name   string
	Models []models.ModelDefinition
}

// Builder accumulates schema fragments and produces one finalized,
// validated snapshot. The zero Builder is not usable; call New.
type Builder struct {
	plugins []Plugin

	built    bool
	snapshot *Schema
	buildErr error
}

// New returns a builder seeded with an optional base fragment.
func New(initial ...models.ModelDefinition) *Builder {
	b := &Builder{}
	if len(initial) > 0 {
		b.plugins = append(b.plugins, Plugin{Name: "base", Models: initial})
	}
	return b
}

// Use registers another fragment and returns the extended builder.
// Registering a fragment after Build invalidates the memoized snapshot;
// the next Build produces a new one, while schemas already handed out
// stay valid and immutable.
func (b *Builder) Use(p Plugin) *Builder {
	b.plugins = append(b.plugins, p)
	b.built = false
	b.snapshot = nil
	b.buildErr = nil
	return b
}

// Build merges the registered fragments into an immutable schema
// snapshot. All validation failures are aggregated so the caller sees
// every defect at once, not just the first. Build is idempotent:
// repeated calls return the same snapshot.
func (b *Builder) Build() (*Schema, error) {
	if b.built {
		return b.snapshot, b.buildErr
	}

	byKey := make(map[string]models.ModelDefinition)
	var order []string
	var errs error

	for _, p := range b.plugins {
		for _, m := range p.Models {
			if m.Name == "" {
				errs = multierr.Append(errs, fmt.Errorf("plugin %q: %w", p.Name, ErrUnnamedModel))
				continue
			}
			if _, exists := byKey[m.Name]; exists {
				errs = multierr.Append(errs, fmt.Errorf("plugin %q: model %q: %w", p.Name, m.Name, ErrModelCollision))
				continue
			}
			byKey[m.Name] = cloneModel(m)
			order = append(order, m.Name)
		}
	}

	for _, name := range order {
		errs = multierr.Append(errs, validateModel(byKey, byKey[name]))
	}

	b.built = true
	if errs != nil {
		b.buildErr = errs
		return nil, errs
	}
	b.snapshot = newSchema(byKey, order)
	return b.snapshot, nil
}

// validateModel checks one merged model against the full model set.
func validateModel(byKey map[string]models.ModelDefinition, m models.ModelDefinition) error {
	var errs error
	seen := make(map[string]bool, len(m.Fields))

	for _, f := range m.Fields {
		if f.Name == "id" {
			errs = multierr.Append(errs, fmt.Errorf("model %q: %q: %w", m.Name, f.Name, ErrReservedField))
		}
		if seen[f.Name] {
			errs = multierr.Append(errs, fmt.Errorf("model %q: %q: %w", m.Name, f.Name, ErrDuplicateField))
		}
		seen[f.Name] = true

		if !f.Type.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("model %q: field %q: unknown type: %w", m.Name, f.Name, ErrInvalidField))
		}
		if f.DefaultValue != nil && !models.CheckValue(f.Type, f.DefaultValue) {
			errs = multierr.Append(errs, fmt.Errorf("model %q: field %q: default value is not a %s: %w", m.Name, f.Name, f.Type, ErrInvalidField))
		}

		if f.References == nil {
			continue
		}
		if !f.References.OnDelete.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("model %q: field %q: unknown onDelete policy: %w", m.Name, f.Name, ErrInvalidField))
		}
		if f.Required && f.References.OnDelete == models.OnDeleteSetNull {
			errs = multierr.Append(errs, fmt.Errorf("model %q: field %q: setNull would violate required: %w", m.Name, f.Name, ErrInvalidField))
		}
		target, ok := byKey[f.References.Model]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("model %q: field %q references model %q: %w", m.Name, f.Name, f.References.Model, ErrUnknownReference))
			continue
		}
		targetField := f.References.Field
		if targetField == "" || targetField == "id" {
			continue
		}
		if _, ok := target.Field(targetField); !ok {
			errs = multierr.Append(errs, fmt.Errorf("model %q: field %q references %s.%s: %w", m.Name, f.Name, f.References.Model, targetField, ErrUnknownReference))
		}
	}
	return errs
}

// cloneModel deep-copies a model definition so later mutation of the
// caller's structs cannot reach into a finalized snapshot.
func cloneModel(m models.ModelDefinition) models.ModelDefinition {
	out := models.ModelDefinition{Name: m.Name}
	out.Fields = make([]models.FieldDefinition, len(m.Fields))
	copy(out.Fields, m.Fields)
	for i, f := range out.Fields {
		if f.References != nil {
			ref := *f.References
			if ref.Field == "" {
				ref.Field = "id"
			}
			out.Fields[i].References = &ref
		}
	}
	return out
}
