package schema

// Add custom error definitions here
import "errors"

// ErrModelCollision is returned when two plugins define the same model key.
var ErrModelCollision = errors.New("model already defined by an earlier plugin")

// ErrUnnamedModel is returned when a plugin carries a model with no name.
var ErrUnnamedModel = errors.New("model has no name")

// ErrDuplicateField is returned when a model declares the same field twice.
var ErrDuplicateField = errors.New("duplicate field name")

// ErrReservedField is returned when a model declares the implicit id field.
var ErrReservedField = errors.New("field name is reserved")

// ErrUnknownReference is returned when a reference points at a model or
// field that is not part of the finalized schema.
var ErrUnknownReference = errors.New("reference target not defined")

// ErrInvalidField is returned for a field whose type, policy, or default
// is malformed.
var ErrInvalidField = errors.New("invalid field definition")
