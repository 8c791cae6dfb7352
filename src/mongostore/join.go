package mongostore

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"modeldb/src/adapter"
	"modeldb/src/helpers"
	"modeldb/src/models"
	"modeldb/src/schema"
)

// attachJoins resolves requested relations the same way the memory
// engine does. With in-process joins enabled, each relation costs one
// batched $in query whose results are grouped here; disabled, the store
// falls back to one query per base record. Both paths attach identical
// results.
func (s *Store) attachJoins(ctx context.Context, def models.ModelDefinition, recs []models.Record, joins map[string]adapter.JoinOption) error {
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
		var err error
		if s.opts.Experimental.Joins {
			err = s.joinBatch(ctx, rel, recs, joins[name])
		} else {
			err = s.joinFanOut(ctx, rel, recs, joins[name])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func findInward(inward []schema.Relation, name string) (schema.Relation, bool) {
	for _, rel := range inward {
		if rel.Model == name {
			return rel, true
		}
	}
	return schema.Relation{}, false
}

// joinBatch fetches all children for the whole record set in one query
// and groups them in process.
func (s *Store) joinBatch(ctx context.Context, rel schema.Relation, recs []models.Record, opt adapter.JoinOption) error {
	keys := make([]any, 0, len(recs))
	for _, base := range recs {
		if v := base[rel.TargetField]; v != nil {
			keys = append(keys, v)
		}
	}

	children, err := s.findAll(ctx, rel.Model, bson.D{{Key: rel.Field, Value: bson.M{"$in": keys}}}, options.Find())
	if err != nil {
		return err
	}

	limit := childLimit(rel, opt)
	for _, base := range recs {
		var found []models.Record
		for _, child := range children {
			if !helpers.EqualValues(child[rel.Field], base[rel.TargetField]) {
				continue
			}
			found = append(found, child.Clone())
			if limit > 0 && len(found) == limit {
				break
			}
		}
		attach(base, rel, found)
	}
	return nil
}

// joinFanOut issues one lookup per base record.
func (s *Store) joinFanOut(ctx context.Context, rel schema.Relation, recs []models.Record, opt adapter.JoinOption) error {
	limit := childLimit(rel, opt)
	findOpts := options.Find()
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	for _, base := range recs {
		found, err := s.findAll(ctx, rel.Model, bson.D{{Key: rel.Field, Value: base[rel.TargetField]}}, findOpts)
		if err != nil {
			return err
		}
		attach(base, rel, found)
	}
	return nil
}

func childLimit(rel schema.Relation, opt adapter.JoinOption) int {
	if rel.Cardinality == schema.OneToOne {
		return 1
	}
	return opt.Limit
}

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

// project trims records to the selected fields, keeping requested join
// attachments.
func project(recs []models.Record, selects []string, joins map[string]adapter.JoinOption) []models.Record {
	if len(selects) == 0 {
		return recs
	}
	out := make([]models.Record, len(recs))
	for i, rec := range recs {
		p := make(models.Record, len(selects)+len(joins))
		for _, f := range selects {
			if v, ok := rec[f]; ok {
				p[f] = v
			}
		}
		for name := range joins {
			if v, ok := rec[name]; ok {
				p[name] = v
			}
		}
		out[i] = p
	}
	return out
}
