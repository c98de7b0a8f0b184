/*
Copyright © 2025 TaskFlow contributors
*/
package types

import (
	"fmt"
	"strings"
)

// ValidationError carries every field-level rule violation found in a
// payload, not just the first one.
type ValidationError struct {
	Details []string `json:"details"`
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

// NewValidationError creates a ValidationError from a list of messages.
func NewValidationError(details ...string) *ValidationError {
	return &ValidationError{Details: details}
}

// NotFoundError indicates that no task exists for the requested identifier.
type NotFoundError struct {
	ID string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// MalformedIDError indicates an identifier that does not match the expected
// UUID format.
type MalformedIDError struct {
	ID string `json:"id"`
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("malformed task id: %q", e.ID)
}

// DuplicateError indicates a unique-constraint violation.
type DuplicateError struct {
	ID string `json:"id"`
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("task already exists: %s", e.ID)
}

// ConnectionError indicates the storage backend is unreachable or timed
// out. It is recoverable: the backend selector routes around it.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("storage connection failed during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// InternalError wraps anything unclassified. Its detail is suppressed
// outside development mode.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
