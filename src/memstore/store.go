package memstore

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"modeldb/src/adapter"
	"modeldb/src/models"
	"modeldb/src/schema"
	"modeldb/src/settings"
)

// Store is the reference adapter: per-model record tables held entirely
// in process, with relational behavior (filter, sort, paginate, join,
// referential actions) emulated over linear scans. Tables preserve
// insertion order; that order is the deterministic tiebreak for joins
// and for queries without an explicit sort.
//
// A single mutex guards the whole store. Every adapter operation runs
// start-to-finish under it, which makes each call atomic; there is no
// suspension point between reading and mutating a table.
type Store struct {
	schema *schema.Schema
	opts   *settings.Options
	logger *zap.SugaredLogger

	mu     sync.Mutex
	tables map[string][]models.Record
}

var _ adapter.Adapter = (*Store)(nil)

// New builds an empty store bound to a finalized schema. Records live
// only inside this instance; two stores built from the same schema share
// nothing.
func New(sch *schema.Schema, opts *settings.Options, logger *zap.SugaredLogger) (*Store, error) {
	if sch == nil {
		return nil, errors.New("memstore: nil schema")
	}
	if opts == nil {
		opts = settings.DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	tables := make(map[string][]models.Record)
	for _, name := range sch.ModelNames() {
		tables[name] = nil
	}

	logger.Debugw("memory adapter ready",
		"models", len(tables),
		"joins", opts.Experimental.Joins)

	return &Store{
		schema: sch,
		opts:   opts,
		logger: logger,
		tables: tables,
	}, nil
}

// Factory adapts New to the adapter.Factory signature.
func Factory(sch *schema.Schema, opts *settings.Options, logger *zap.SugaredLogger) (adapter.Adapter, error) {
	return New(sch, opts, logger)
}

var _ adapter.Factory = Factory

// model resolves a model definition or fails with ErrUnknownModel.
func (s *Store) model(name string) (models.ModelDefinition, error) {
	def, ok := s.schema.Model(name)
	if !ok {
		return models.ModelDefinition{}, unknownModel(name)
	}
	return def, nil
}
