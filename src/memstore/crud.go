package memstore

import (
	"context"
	"fmt"

	"modeldb/src/adapter"
	"modeldb/src/helpers"
	"modeldb/src/models"
)

// Create normalizes the incoming data (defaults, generated id), enforces
// unique fields against the model's live rows, and appends the record.
func (s *Store) Create(ctx context.Context, model string, data models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.model(model)
	if err != nil {
		return nil, err
	}

	rec, err := adapter.NormalizeCreate(def, data)
	if err != nil {
		return nil, err
	}

	for _, f := range adapter.UniqueFields(def, rec) {
		for _, row := range s.tables[model] {
			if helpers.EqualValues(row[f.Name], rec[f.Name]) {
				return nil, &adapter.UniqueConstraintError{Model: model, Field: f.Name}
			}
		}
	}

	s.tables[model] = append(s.tables[model], rec)
	return rec.Clone(), nil
}

// FindOne returns the first matching record in table order, or (nil, nil)
// when nothing matches. Absence is not an error.
func (s *Store) FindOne(ctx context.Context, model string, opts adapter.FindOneOptions) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.model(model)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRecords(def, opts.Where)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	recs := []models.Record{s.tables[model][matches[0]].Clone()}
	if err := s.attachJoins(def, recs, opts.Joins); err != nil {
		return nil, err
	}
	return projectRecords(recs, opts.Select, opts.Joins)[0], nil
}

// FindMany filters, sorts, pages, and joins, in that order.
func (s *Store) FindMany(ctx context.Context, model string, opts adapter.FindManyOptions) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.model(model)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRecords(def, opts.Where)
	if err != nil {
		return nil, err
	}

	recs := make([]models.Record, len(matches))
	for i, idx := range matches {
		recs[i] = s.tables[model][idx].Clone()
	}

	if opts.SortBy != nil {
		if err := sortRecords(def, recs, *opts.SortBy); err != nil {
			return nil, err
		}
	}
	recs = paginate(recs, opts.Offset, opts.Limit)

	if err := s.attachJoins(def, recs, opts.Joins); err != nil {
		return nil, err
	}
	return projectRecords(recs, opts.Select, opts.Joins), nil
}

// Update applies the field updates to the first matching record.
// Validation and the unique re-check (which excludes the record itself)
// both run before anything is mutated.
func (s *Store) Update(ctx context.Context, model string, where []adapter.Where, data models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.model(model)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRecords(def, where)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("update %s: %w", model, adapter.ErrNotFound)
	}

	target := matches[0]
	if err := adapter.ValidateUpdate(def, data); err != nil {
		return nil, err
	}
	if err := s.checkUniqueExcluding(def, data, map[int]bool{target: true}); err != nil {
		return nil, err
	}

	rec := s.tables[model][target]
	for k, v := range data {
		rec[k] = v
	}
	return rec.Clone(), nil
}

// UpdateMany applies the same field updates to every match. Zero matches
// is not an error. Setting a unique field across more than one record is
// itself a conflict.
func (s *Store) UpdateMany(ctx context.Context, model string, where []adapter.Where, data models.Record) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.model(model)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRecords(def, where)
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
	excluded := make(map[int]bool, len(matches))
	for _, idx := range matches {
		excluded[idx] = true
	}
	if err := s.checkUniqueExcluding(def, data, excluded); err != nil {
		return nil, err
	}

	out := make([]models.Record, len(matches))
	for i, idx := range matches {
		rec := s.tables[model][idx]
		for k, v := range data {
			rec[k] = v
		}
		out[i] = rec.Clone()
	}
	return out, nil
}

// Delete removes the first matching record after propagating referential
// actions. A restrict anywhere in the closure aborts with the store
// unchanged.
func (s *Store) Delete(ctx context.Context, model string, where []adapter.Where) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.model(model)
	if err != nil {
		return err
	}
	matches, err := s.matchRecords(def, where)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("delete %s: %w", model, adapter.ErrNotFound)
	}

	plan := newDeletePlan()
	if err := s.planRecordDelete(plan, model, s.tables[model][matches[0]]); err != nil {
		return err
	}
	s.applyDeletePlan(plan)
	return nil
}

// DeleteMany removes every match as one atomic batch: all restrict
// checks for the whole batch run before any record is touched.
func (s *Store) DeleteMany(ctx context.Context, model string, where []adapter.Where) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.model(model)
	if err != nil {
		return 0, err
	}
	matches, err := s.matchRecords(def, where)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}

	plan := newDeletePlan()
	for _, idx := range matches {
		if err := s.planRecordDelete(plan, model, s.tables[model][idx]); err != nil {
			return 0, err
		}
	}
	s.applyDeletePlan(plan)
	return len(matches), nil
}

// Count returns the number of matching records.
func (s *Store) Count(ctx context.Context, model string, where []adapter.Where) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.model(model)
	if err != nil {
		return 0, err
	}
	matches, err := s.matchRecords(def, where)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// checkUniqueExcluding scans the model's table for values in data that
// would collide on a unique field, ignoring the rows being updated.
func (s *Store) checkUniqueExcluding(def models.ModelDefinition, data models.Record, excluded map[int]bool) error {
	for _, f := range adapter.UniqueFields(def, data) {
		for i, row := range s.tables[def.Name] {
			if excluded[i] {
				continue
			}
			if helpers.EqualValues(row[f.Name], data[f.Name]) {
				return &adapter.UniqueConstraintError{Model: def.Name, Field: f.Name}
			}
		}
	}
	return nil
}
