// Package domain defines error types for content upgrade operations.
package domain

import "fmt"

// OperationError is a custom error type for operation failures
type OperationError struct {
	Operation string // The operation that failed (e.g., "content-upgrade")
	Message   string // Human-readable error message
	Cause     error  // Underlying error
}

func (e *OperationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s (%v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates a journal session or similar resource was not found
type NotFoundError struct {
	Type       string // "session", "summary", ...
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Type, e.Identifier)
}

// ValidationError indicates input validation failed
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// ConflictError indicates a resource already exists
type ConflictError struct {
	Type       string // "step", "handler", ...
	Identifier string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Type, e.Identifier)
}

// UnknownContentTypeError indicates no upgrade steps are registered for a content type.
// It is fatal to a run; no partial result is returned.
type UnknownContentTypeError struct {
	ContentType string
}

func (e *UnknownContentTypeError) Error() string {
	return fmt.Sprintf("unknown content type: %s", e.ContentType)
}

// StepError reports the upgrade step that halted a migration chain.
type StepError struct {
	ContentType string
	Version     string // major.minor of the failing step
	Name        string
	Cause       error
}

func (e *StepError) Error() string {
	name := ""
	if e.Name != "" {
		name = " (" + e.Name + ")"
	}
	return fmt.Sprintf("%s upgrade to %s%s failed: %v", e.ContentType, e.Version, name, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// NewOperationError creates a new OperationError
func NewOperationError(operation, message string, cause error) *OperationError {
	return &OperationError{
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(typ, identifier string) *NotFoundError {
	return &NotFoundError{
		Type:       typ,
		Identifier: identifier,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewConflictError creates a new ConflictError
func NewConflictError(typ, identifier string) *ConflictError {
	return &ConflictError{
		Type:       typ,
		Identifier: identifier,
	}
}

// NewUnknownContentTypeError creates a new UnknownContentTypeError
func NewUnknownContentTypeError(contentType string) *UnknownContentTypeError {
	return &UnknownContentTypeError{ContentType: contentType}
}

// NewStepError creates a new StepError
func NewStepError(contentType, version, name string, cause error) *StepError {
	return &StepError{
		ContentType: contentType,
		Version:     version,
		Name:        name,
		Cause:       cause,
	}
}
