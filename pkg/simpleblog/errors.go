package simpleblog

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrNotFound indicates the target entity does not exist in the store
	ErrNotFound = errors.New("entity not found")

	// ErrIdentityConflict indicates a create carried a client-assigned id
	ErrIdentityConflict = errors.New("a new entity cannot already have an id")

	// ErrIdentityRequired indicates an update was missing the id
	ErrIdentityRequired = errors.New("an existing entity must have an id")
)

// ResourceError represents an error from a resource operation. It carries the
// entity name and, when known, the id the operation targeted.
type ResourceError struct {
	Entity string
	ID     string
	Op     string
	Err    error
}

func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s operation %s failed for id %s: %v", e.Entity, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s operation %s failed: %v", e.Entity, e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// FieldViolation describes a single failed validation rule.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports the required-field violations that caused a create
// or update to be rejected before any store interaction.
type ValidationError struct {
	Entity     string
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed with %d violation(s)", e.Entity, len(e.Violations))
}
