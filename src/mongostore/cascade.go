package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"modeldb/src/adapter"
	"modeldb/src/models"
)

// deletePlan mirrors the memory engine's two-phase delete: the cascade
// closure is walked and every restrict check evaluated with reads only;
// writes happen after the whole plan validates. Mongo has no
// multi-document transaction here, so a mid-apply failure can leave a
// partial delete; the plan phase still guarantees no restrict policy is
// ever violated by a write.
type deletePlan struct {
	deletes  map[string]map[string]bool
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

func (s *Store) planRecordDelete(ctx context.Context, plan *deletePlan, model string, rec models.Record) error {
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

		children, err := s.findAll(ctx, rel.Model, bson.D{{Key: rel.Field, Value: parentVal}}, options.Find())
		if err != nil {
			return err
		}
		for _, child := range children {
			if plan.planned(rel.Model, child.ID()) {
				continue
			}
			switch rel.OnDelete {
			case models.OnDeleteRestrict:
				return &adapter.ReferentialIntegrityError{Model: rel.Model, Field: rel.Field, Referenced: model}
			case models.OnDeleteSetNull:
				plan.setNulls = append(plan.setNulls, fieldClear{model: rel.Model, field: rel.Field, id: child.ID()})
			case models.OnDeleteCascade:
				if err := s.planRecordDelete(ctx, plan, rel.Model, child); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Store) applyDeletePlan(ctx context.Context, plan *deletePlan) error {
	for model, ids := range plan.deletes {
		idList := make([]string, 0, len(ids))
		for id := range ids {
			idList = append(idList, id)
		}
		if _, err := s.collection(model).DeleteMany(ctx, bson.M{"id": bson.M{"$in": idList}}); err != nil {
			return fmt.Errorf("cascade delete %s: %w", model, err)
		}
	}

	for _, c := range plan.setNulls {
		if plan.planned(c.model, c.id) {
			continue
		}
		_, err := s.collection(c.model).UpdateOne(ctx, bson.M{"id": c.id}, bson.M{"$set": bson.M{c.field: nil}})
		if err != nil {
			return fmt.Errorf("clear reference %s.%s: %w", c.model, c.field, err)
		}
	}
	return nil
}
