package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrConstraint matches every *ConstraintError.
	ErrConstraint = errors.New("constraint violated")
)

// ValidationError is returned when a request is rejected before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError is returned when a referenced card or todo does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConstraintError is returned when an operation is forbidden by policy.
type ConstraintError struct {
	Message string
}

func (e *ConstraintError) Error() string { return e.Message }

func (e *ConstraintError) Is(target error) bool { return target == ErrConstraint }

// CardNotFound builds the error for a missing card.
func CardNotFound(id string) error { return &NotFoundError{Entity: "card", ID: id} }

// TodoNotFound builds the error for a missing todo.
func TodoNotFound(id string) error { return &NotFoundError{Entity: "todo", ID: id} }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
