package adapter

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Update and Delete when no record matches.
var ErrNotFound = errors.New("record not found")

// ErrUnknownModel is returned when an operation names a model the bound
// schema does not define.
var ErrUnknownModel = errors.New("model not defined in schema")

// ErrUnknownRelation is returned when a join requests a relation the
// schema does not derive for the queried model.
var ErrUnknownRelation = errors.New("no such relation")

// ValidationError reports a missing required field or a value of the
// wrong type at create or update time.
type ValidationError struct {
	Model  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s.%s: %s", e.Model, e.Field, e.Reason)
}

// UniqueConstraintError reports a duplicate value on a unique field
// within one model's table.
type UniqueConstraintError struct {
	Model string
	Field string
}

func (e *UniqueConstraintError) Error() string {
	return fmt.Sprintf("unique constraint violated on %s.%s", e.Model, e.Field)
}

// ReferentialIntegrityError reports a delete blocked by a restrict
// policy: records in Model still reference the record being deleted
// from Referenced.
type ReferentialIntegrityError struct {
	Model      string
	Field      string
	Referenced string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("delete restricted: %s.%s still references %s", e.Model, e.Field, e.Referenced)
}
