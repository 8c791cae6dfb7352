package adapter

import (
	"context"

	"go.uber.org/zap"

	"modeldb/src/models"
	"modeldb/src/schema"
	"modeldb/src/settings"
)

// Operator is the comparison applied by a single where predicate.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpIn         Operator = "in"
	OpNotIn      Operator = "notIn"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
)

// Connector joins a predicate with the running result of the predicates
// before it. The empty connector means And.
type Connector string

const (
	And Connector = "AND"
	Or  Connector = "OR"
)

// Where is one predicate of a where-clause. A clause is an ordered list
// of predicates folded left-to-right; there is no grouping.
type Where struct {
	Field     string
	Operator  Operator
	Value     any
	Connector Connector
}

// SortDirection orders a result set ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortBy names the single field a result set is ordered on. Comparison
// follows the field's declared type; ties keep table insertion order.
type SortBy struct {
	Field     string
	Direction SortDirection
}

// JoinOption configures one requested relation. Limit caps a one-to-many
// attachment to the first N children in table order; zero means all.
type JoinOption struct {
	Limit int
}

// FindOneOptions narrows a single-record lookup.
type FindOneOptions struct {
	Where  []Where
	Joins  map[string]JoinOption
	Select []string
}

// FindManyOptions narrows, orders, and pages a multi-record query.
// Zero Limit means unbounded.
type FindManyOptions struct {
	Where  []Where
	SortBy *SortBy
	Limit  int
	Offset int
	Joins  map[string]JoinOption
	Select []string
}

// Adapter is the uniform data-access contract every backend implements.
// Operations return typed failures for foreseeable conditions, never
// panic. FindOne returns (nil, nil) when nothing matches; Update and
// Delete return ErrNotFound because they target an existing record,
// while UpdateMany and DeleteMany report zero matches without error.
type Adapter interface {
	Create(ctx context.Context, model string, data models.Record) (models.Record, error)
	FindOne(ctx context.Context, model string, opts FindOneOptions) (models.Record, error)
	FindMany(ctx context.Context, model string, opts FindManyOptions) ([]models.Record, error)
	Update(ctx context.Context, model string, where []Where, data models.Record) (models.Record, error)
	UpdateMany(ctx context.Context, model string, where []Where, data models.Record) ([]models.Record, error)
	Delete(ctx context.Context, model string, where []Where) error
	DeleteMany(ctx context.Context, model string, where []Where) (int, error)
	Count(ctx context.Context, model string, where []Where) (int, error)
}

// Factory binds a finalized schema and per-instance options to a concrete
// adapter. A nil options value means settings.DefaultOptions(); a nil
// logger is replaced with a no-op logger.
type Factory func(sch *schema.Schema, opts *settings.Options, logger *zap.SugaredLogger) (Adapter, error)
