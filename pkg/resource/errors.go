package resource

import (
	"errors"
	"fmt"
)

// Argument and lookup errors. These fail fast, before any store interaction,
// and are never wrapped into a store failure.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("resource not found")
	ErrUnknownType     = errors.New("unknown resource type")
	ErrUnknownField    = errors.New("unknown attribute or relationship")
)

// Relationship value errors.
var (
	// ErrShapeMismatch reports that a supplied relationship value's
	// cardinality does not match the descriptor (a collection for a to-one,
	// a single resource for a to-many).
	ErrShapeMismatch = errors.New("relationship value does not match cardinality")
)

// Identity tracking errors.
var (
	// ErrDuplicateIdentity reports an attempt to attach or insert a second
	// instance for an identity that is already tracked in the unit of work.
	ErrDuplicateIdentity = errors.New("identity already tracked in this unit of work")
	// ErrNotAttached reports an operation on a resource that is not
	// attached to the unit of work.
	ErrNotAttached = errors.New("resource is not attached to this unit of work")
)

// Catalog validation errors.
var (
	ErrCatalogDuplicateType  = errors.New("duplicate resource type")
	ErrCatalogDuplicateField = errors.New("duplicate attribute or relationship name")
	ErrCatalogBadTarget      = errors.New("relationship target type not declared")
	ErrCatalogBadDescriptor  = errors.New("malformed relationship descriptor")
)

// ConstraintError wraps a store rejection of the commit (foreign key,
// uniqueness, not-null). It is raised exactly once, at the save boundary, so
// callers can map it to a conflict response without parsing driver text.
type ConstraintError struct {
	// Op names the operation that was being committed.
	Op string
	// Err is the underlying driver error.
	Err error
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: store rejected changes: %v", e.Op, e.Err)
}

// Unwrap returns the underlying driver error.
func (e *ConstraintError) Unwrap() error { return e.Err }

// IsConstraintViolation reports whether err is, or wraps, a ConstraintError.
func IsConstraintViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}
