package errors

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Sentinel values for errors.Is checks. Matching is by error type, so any
// NotFoundError satisfies errors.Is(err, ErrNotFound).
var (
	ErrNotFound        = NewNotFoundError("resource", nil)
	ErrInvalidArgument = NewValidationError("", "invalid argument")
	ErrNotTestMode     = NewPreconditionError("refusing to provision test databases outside test mode")
	ErrConfig          = NewConfigError("", "invalid configuration")
)

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is reports whether target is a ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// GRPCStatus returns the gRPC status for this error
func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// NotFoundError is returned when a row addressed by identifier does not exist.
type NotFoundError struct {
	Resource string
	ID       any
	Err      error
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// Wrap attaches the underlying database error.
func (e *NotFoundError) Wrap(err error) *NotFoundError {
	e.Err = err
	return e
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s not found: id=%v", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Unwrap returns the wrapped error
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// GRPCStatus returns the gRPC status for this error
func (e *NotFoundError) GRPCStatus() *status.Status {
	return status.New(codes.NotFound, e.Error())
}

// PreconditionError means an operation was invoked in a state where it must not run.
type PreconditionError struct {
	Message string
}

// NewPreconditionError creates a new precondition error
func NewPreconditionError(message string) *PreconditionError {
	return &PreconditionError{Message: message}
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	return e.Message
}

// Is reports whether target is a PreconditionError.
func (e *PreconditionError) Is(target error) bool {
	_, ok := target.(*PreconditionError)
	return ok
}

// GRPCStatus returns the gRPC status for this error
func (e *PreconditionError) GRPCStatus() *status.Status {
	return status.New(codes.FailedPrecondition, e.Message)
}

// ConfigError reports a missing or malformed configuration value.
type ConfigError struct {
	Key     string
	Message string
}

// NewConfigError creates a new configuration error
func NewConfigError(key, message string) *ConfigError {
	return &ConfigError{Key: key, Message: message}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s", e.Key, e.Message)
	}
	return e.Message
}

// Is reports whether target is a ConfigError.
func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// GRPCStatus returns the gRPC status for this error
func (e *ConfigError) GRPCStatus() *status.Status {
	return status.New(codes.FailedPrecondition, e.Error())
}

// InternalError wraps an unexpected database or driver failure.
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// GRPCStatus returns the gRPC status for this error
func (e *InternalError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Message)
}
