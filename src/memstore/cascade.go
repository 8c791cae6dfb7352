package memstore

import (
	"modeldb/src/adapter"
	"modeldb/src/helpers"
	"modeldb/src/models"
)

// deletePlan is the two-phase unit of a delete: phase one walks the
// cascade closure collecting planned deletes and set-nulls and running
// every restrict check; phase two applies the plan. Nothing mutates
// until the whole plan has been validated, which keeps a batch delete
// all-or-nothing.
type deletePlan struct {
	// deletes maps model name to the set of record ids to remove. It
	// doubles as the visited set, so cyclic schemas terminate.
	deletes map[string]map[string]bool

	setNulls []fieldClear
}

type fieldClear struct {
	model string
	field string
	id    string
}

func newDeletePlan() *deletePlan {
	return &deletePlan{deletes: make(map[string]map[string]bool)}
}

func (p *deletePlan) planned(model, id string) bool {
	return p.deletes[model][id]
}

func (p *deletePlan) markDelete(model, id string) {
	ids := p.deletes[model]
	if ids == nil {
		ids = make(map[string]bool)
		p.deletes[model] = ids
	}
	ids[id] = true
}

// planRecordDelete adds rec to the plan and walks every model whose
// fields reference rec's model, applying that reference's onDelete
// policy. Children already planned for deletion neither block a
// restrict nor get set-null'd; they are gone either way.
func (s *Store) planRecordDelete(plan *deletePlan, model string, rec models.Record) error {
	id := rec.ID()
	if plan.planned(model, id) {
		return nil
	}
	plan.markDelete(model, id)

	for _, rel := range s.schema.RelationsOf(model).Inward {
		if rel.OnDelete == models.OnDeleteNoAction {
			continue
		}
		parentVal := rec[rel.TargetField]
		if parentVal == nil {
			continue
		}

		for _, child := range s.tables[rel.Model] {
			if !helpers.EqualValues(child[rel.Field], parentVal) {
				continue
			}
			if plan.planned(rel.Model, child.ID()) {
				continue
			}
			switch rel.OnDelete {
			case models.OnDeleteRestrict:
				return &adapter.ReferentialIntegrityError{Model: rel.Model, Field: rel.Field, Referenced: model}
			case models.OnDeleteSetNull:
				plan.setNulls = append(plan.setNulls, fieldClear{model: rel.Model, field: rel.Field, id: child.ID()})
			case models.OnDeleteCascade:
				if err := s.planRecordDelete(plan, rel.Model, child); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// applyDeletePlan performs the planned mutations: tables are rebuilt
// without the deleted records (order preserved), then surviving
// children have their foreign keys cleared.
func (s *Store) applyDeletePlan(plan *deletePlan) {
	removed := 0
	for model, ids := range plan.deletes {
		table := s.tables[model]
		kept := table[:0:0]
		for _, rec := range table {
			if ids[rec.ID()] {
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		s.tables[model] = kept
	}

	for _, c := range plan.setNulls {
		if plan.planned(c.model, c.id) {
			// A later branch of the walk deleted this child after the
			// set-null was recorded.
			continue
		}
		for _, rec := range s.tables[c.model] {
			if rec.ID() == c.id {
				rec[c.field] = nil
				break
			}
		}
	}

	if len(plan.deletes) > 1 {
		s.logger.Debugw("cascade delete applied",
			"models", len(plan.deletes),
			"records", removed,
			"cleared", len(plan.setNulls))
	}
}
