package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"modeldb/src/adapter"
	"modeldb/src/models"
	"modeldb/src/schema"
	"modeldb/src/settings"
)

// Store implements the adapter contract against a MongoDB database: one
// collection per model, records keyed by their "id" field (Mongo's own
// _id is left to the server and stripped on read). Semantics match the
// memory engine; the relational behavior Mongo lacks (unique fields,
// referential actions, relation joins) is emulated here with the same
// schema-derived algorithms.
type Store struct {
	db     *mongo.Database
	schema *schema.Schema
	opts   *settings.Options
	logger *zap.SugaredLogger
}

var _ adapter.Adapter = (*Store)(nil)

// New binds a finalized schema to a Mongo database handle.
func New(db *mongo.Database, sch *schema.Schema, opts *settings.Options, logger *zap.SugaredLogger) (*Store, error) {
	if db == nil {
		return nil, errors.New("mongostore: nil database handle")
	}
	if sch == nil {
		return nil, errors.New("mongostore: nil schema")
	}
	if opts == nil {
		opts = settings.DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{db: db, schema: sch, opts: opts, logger: logger}, nil
}

// Factory returns an adapter factory closed over the database handle.
func Factory(db *mongo.Database) adapter.Factory {
	return func(sch *schema.Schema, opts *settings.Options, logger *zap.SugaredLogger) (adapter.Adapter, error) {
		return New(db, sch, opts, logger)
	}
}

func (s *Store) model(name string) (models.ModelDefinition, error) {
	def, ok := s.schema.Model(name)
	if !ok {
		return models.ModelDefinition{}, fmt.Errorf("%s: %w", name, adapter.ErrUnknownModel)
	}
	return def, nil
}

func (s *Store) collection(model string) *mongo.Collection {
	return s.db.Collection(model)
}

// Create mirrors the memory engine: normalize, pre-check unique fields
// with a count per constraint, then insert.
func (s *Store) Create(ctx context.Context, model string, data models.Record) (models.Record, error) {
	def, err := s.model(model)
	if err != nil {
		return nil, err
	}
	rec, err := adapter.NormalizeCreate(def, data)
	if err != nil {
		return nil, err
	}

	col := s.collection(model)
	for _, f := range adapter.UniqueFields(def, rec) {
		n, err := col.CountDocuments(ctx, bson.M{f.Name: rec[f.Name]})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", model, err)
		}
		if n > 0 {
			return nil, &adapter.UniqueConstraintError{Model: model, Field: f.Name}
		}
	}

	if _, err := col.InsertOne(ctx, rec); err != nil {
		return nil, fmt.Errorf("create %s: %w", model, err)
	}
	return rec.Clone(), nil
}

func (s *Store) FindOne(ctx context.Context, model string, opts adapter.FindOneOptions) (models.Record, error) {
	def, err := s.model(model)
	if err != nil {
		return nil, err
	}
	filter, err := whereToFilter(model, opts.Where)
	if err != nil {
		return nil, err
	}

	var raw bson.M
	err = s.collection(model).FindOne(ctx, filter).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("findOne %s: %w", model, err)
	}

	recs := []models.Record{fromBSON(raw)}
	if err := s.attachJoins(ctx, def, recs, opts.Joins); err != nil {
		return nil, err
	}
	return project(recs, opts.Select, opts.Joins)[0], nil
}

func (s *Store) FindMany(ctx context.Context, model string, opts adapter.FindManyOptions) ([]models.Record, error) {
	def, err := s.model(model)
	if err != nil {
		return nil, err
	}
	filter, err := whereToFilter(model, opts.Where)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find()
	if opts.SortBy != nil {
		dir := 1
		if opts.SortBy.Direction == adapter.SortDesc {
			dir = -1
		}
		// _id ascends with insertion, so ties keep creation order the
		// way the memory engine's stable sort does.
		findOpts.SetSort(bson.D{{Key: opts.SortBy.Field, Value: dir}, {Key: "_id", Value: 1}})
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	recs, err := s.findAll(ctx, model, filter, findOpts)
	if err != nil {
		return nil, err
	}
	if err := s.attachJoins(ctx, def, recs, opts.Joins); err != nil {
		return nil, err
	}
	return project(recs, opts.Select, opts.Joins), nil
}

func (s *Store) Update(ctx context.Context, model string, where []adapter.Where, data models.Record) (models.Record, error) {
	def, err := s.model(model)
	if err != nil {
		return nil, err
	}
	current, err := s.FindOne(ctx, model, adapter.FindOneOptions{Where: where})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("update %s: %w", model, adapter.ErrNotFound)
	}

	if err := adapter.ValidateUpdate(def, data); err != nil {
		return nil, err
	}
	if err := s.checkUniqueExcluding(ctx, def, data, []string{current.ID()}); err != nil {
		return nil, err
	}

	_, err = s.collection(model).UpdateOne(ctx, bson.M{"id": current.ID()}, bson.M{"$set": data})
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", model, err)
	}
	for k, v := range data {
		current[k] = v
	}
	return current, nil
}

func (s *Store) UpdateMany(ctx context.Context, model string, where []adapter.Where, data models.Record) ([]models.Record, error) {
	def, err := s.model(model)
	if err != nil {
		return nil, err
	}
	filter, err := whereToFilter(model, where)
	if err != nil {
		return nil, err
	}
	matches, err := s.findAll(ctx, model, filter, options.Find())
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []models.Record{}, nil
	}

	if err := adapter.ValidateUpdate(def, data); err != nil {
		return nil, err
	}
	if len(matches) > 1 {
		if uniques := adapter.UniqueFields(def, data); len(uniques) > 0 {
			return nil, &adapter.UniqueConstraintError{Model: model, Field: uniques[0].Name}
		}
	}
	ids := recordIDs(matches)
	if err := s.checkUniqueExcluding(ctx, def, data, ids); err != nil {
		return nil, err
	}

	_, err = s.collection(model).UpdateMany(ctx, bson.M{"id": bson.M{"$in": ids}}, bson.M{"$set": data})
	if err != nil {
		return nil, fmt.Errorf("updateMany %s: %w", model, err)
	}
	for _, rec := range matches {
		for k, v := range data {
			rec[k] = v
		}
	}
	return matches, nil
}

func (s *Store) Delete(ctx context.Context, model string, where []adapter.Where) error {
	current, err := s.FindOne(ctx, model, adapter.FindOneOptions{Where: where})
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("delete %s: %w", model, adapter.ErrNotFound)
	}

	plan := newDeletePlan()
	if err := s.planRecordDelete(ctx, plan, model, current); err != nil {
		return err
	}
	return s.applyDeletePlan(ctx, plan)
}

func (s *Store) DeleteMany(ctx context.Context, model string, where []adapter.Where) (int, error) {
	filter, err := whereToFilter(model, where)
	if err != nil {
		return 0, err
	}
	matches, err := s.findAll(ctx, model, filter, options.Find())
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}

	plan := newDeletePlan()
	for _, rec := range matches {
		if err := s.planRecordDelete(ctx, plan, model, rec); err != nil {
			return 0, err
		}
	}
	if err := s.applyDeletePlan(ctx, plan); err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (s *Store) Count(ctx context.Context, model string, where []adapter.Where) (int, error) {
	if _, err := s.model(model); err != nil {
		return 0, err
	}
	filter, err := whereToFilter(model, where)
	if err != nil {
		return 0, err
	}
	n, err := s.collection(model).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", model, err)
	}
	return int(n), nil
}

// findAll drains a cursor into records with driver types normalized.
func (s *Store) findAll(ctx context.Context, model string, filter bson.D, findOpts *options.FindOptions) ([]models.Record, error) {
	cur, err := s.collection(model).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", model, err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("find %s: %w", model, err)
	}
	recs := make([]models.Record, len(raw))
	for i, m := range raw {
		recs[i] = fromBSON(m)
	}
	return recs, nil
}

func (s *Store) checkUniqueExcluding(ctx context.Context, def models.ModelDefinition, data models.Record, excludedIDs []string) error {
	col := s.collection(def.Name)
	for _, f := range adapter.UniqueFields(def, data) {
		n, err := col.CountDocuments(ctx, bson.M{f.Name: data[f.Name], "id": bson.M{"$nin": excludedIDs}})
		if err != nil {
			return fmt.Errorf("unique check %s.%s: %w", def.Name, f.Name, err)
		}
		if n > 0 {
			return &adapter.UniqueConstraintError{Model: def.Name, Field: f.Name}
		}
	}
	return nil
}

func recordIDs(recs []models.Record) []string {
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID()
	}
	return ids
}

// fromBSON converts a decoded document into a Record: the server-side
// _id is dropped and driver types are mapped back to field types.
func fromBSON(m bson.M) models.Record {
	rec := make(models.Record, len(m))
	for k, v := range m {
		if k == "_id" {
			continue
		}
		rec[k] = fromBSONValue(v)
	}
	return rec
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSONValue(e)
		}
		return out
	case bson.M:
		return fromBSON(t)
	default:
		return v
	}
}
