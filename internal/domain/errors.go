package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the record store. Transports map these onto HTTP
// status codes and GraphQL error messages; anything else is internal.
var (
	ErrNotFound  = errors.New("ndvi map not found")
	ErrInvalidID = errors.New("invalid ndvi map id")
)

// ValidationError reports a missing required field or an unrecognized enum
// value, detected at the record store boundary before the database is
// touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
