package memstore

import (
	"fmt"
	"sort"

	"modeldb/src/adapter"
	"modeldb/src/helpers"
	"modeldb/src/models"
	"modeldb/src/schema"
)

// attachJoins resolves each requested relation name against the base
// model's inward relations and attaches the related records. A
// one-to-one reverse relation attaches the single child or an explicit
// nil; a one-to-many relation attaches children in table order, capped
// by the join's Limit. Relations not requested are never attached.
func (s *Store) attachJoins(def models.ModelDefinition, recs []models.Record, joins map[string]adapter.JoinOption) error {
	if len(joins) == 0 || len(recs) == 0 {
		return nil
	}

	names := make([]string, 0, len(joins))
	for name := range joins {
		names = append(names, name)
	}
	sort.Strings(names)

	inward := s.schema.RelationsOf(def.Name).Inward
	for _, name := range names {
		rel, ok := findInward(inward, name)
		if !ok {
			return fmt.Errorf("join %q on model %q: %w", name, def.Name, adapter.ErrUnknownRelation)
		}
		if s.opts.Experimental.Joins {
			s.joinScan(rel, recs, joins[name])
		} else {
			if err := s.joinFanOut(rel, recs, joins[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

// findInward picks the inward relation whose owning model matches the
// requested name; the relation name on the reverse side is the
// referencing model's key.
func findInward(inward []schema.Relation, name string) (schema.Relation, bool) {
	for _, rel := range inward {
		if rel.Model == name {
			return rel, true
		}
	}
	return schema.Relation{}, false
}

// joinScan is the in-process path: one pass over the child table per
// base record, matching foreign keys directly.
func (s *Store) joinScan(rel schema.Relation, recs []models.Record, opt adapter.JoinOption) {
	children := s.tables[rel.Model]
	for _, base := range recs {
		attach(base, rel, collectChildren(children, rel.Field, base[rel.TargetField], childLimit(rel, opt)))
	}
}

// joinFanOut is the fallback when in-process joins are disabled: each
// base record issues its own filtered lookup through the general
// predicate pipeline, one query per relation per record. Results are
// identical to joinScan.
func (s *Store) joinFanOut(rel schema.Relation, recs []models.Record, opt adapter.JoinOption) error {
	childDef, err := s.model(rel.Model)
	if err != nil {
		return err
	}
	for _, base := range recs {
		where := []adapter.Where{{Field: rel.Field, Operator: adapter.OpEq, Value: base[rel.TargetField]}}
		matches, err := s.matchRecords(childDef, where)
		if err != nil {
			return err
		}
		limit := childLimit(rel, opt)
		var found []models.Record
		for _, idx := range matches {
			found = append(found, s.tables[rel.Model][idx].Clone())
			if limit > 0 && len(found) == limit {
				break
			}
		}
		attach(base, rel, found)
	}
	return nil
}

// childLimit caps one-to-many attachments; a one-to-one reverse relation
// always resolves at most one child.
func childLimit(rel schema.Relation, opt adapter.JoinOption) int {
	if rel.Cardinality == schema.OneToOne {
		return 1
	}
	return opt.Limit
}

func collectChildren(children []models.Record, fkField string, parentVal any, limit int) []models.Record {
	var found []models.Record
	for _, child := range children {
		if !helpers.EqualValues(child[fkField], parentVal) {
			continue
		}
		found = append(found, child.Clone())
		if limit > 0 && len(found) == limit {
			break
		}
	}
	return found
}

// attach writes the join result onto the base record. Absence on a
// one-to-one relation is an explicit nil, never a missing key.
func attach(base models.Record, rel schema.Relation, found []models.Record) {
	if rel.Cardinality == schema.OneToOne {
		if len(found) == 0 {
			base[rel.Model] = nil
			return
		}
		base[rel.Model] = found[0]
		return
	}
	if found == nil {
		found = []models.Record{}
	}
	base[rel.Model] = found
}
