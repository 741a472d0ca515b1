package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets errors built with NewDomainError match the sentinels below via errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common error codes
const (
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidState       = "INVALID_STATE"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
)

// Common domain errors
var (
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists      = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput       = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrUnauthorized       = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInvalidState       = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrPersistenceFailure = NewDomainError(CodePersistenceFailure, "The operation could not be saved")
)

// PersistenceError wraps a store or sink failure with the operation that triggered it.
// It matches ErrPersistenceFailure through errors.Is and keeps the cause reachable.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError creates a PersistenceError for the given operation
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is matches ErrPersistenceFailure
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailure
}

// As exposes the error as a DomainError so HTTP and UI layers can map it uniformly
func (e *PersistenceError) As(target any) bool {
	if de, ok := target.(**DomainError); ok {
		*de = ErrPersistenceFailure
		return true
	}
	return false
}
