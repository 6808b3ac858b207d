package inventory

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a referenced entity does not exist.
// It always names the entity kind so the HTTP layer can surface
// "<Entity> not found" bodies.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// ConflictError reports a uniqueness or referential conflict (409-class).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// BusinessRuleError reports a failed domain guard that is not a conflict
// (400-class): gateway at capacity, device attached elsewhere, and similar.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string { return e.Message }

func notFound(entity string) error { return &NotFoundError{Entity: entity} }

func conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func businessRule(format string, args ...any) error {
	return &BusinessRuleError{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsBusinessRule reports whether err is a BusinessRuleError.
func IsBusinessRule(err error) bool {
	var b *BusinessRuleError
	return errors.As(err, &b)
}
