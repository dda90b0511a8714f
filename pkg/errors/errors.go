// Package errors provides custom error types for the devmerge system.
// These errors enable programmatic error checking for the few failures that can
// escape reconciliation (contract violations) and for the caller-side policy that
// classifies device-source refresh failures.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the devmerge system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrReauthRequired indicates that the credentials of a device source must be renewed by the user
	ErrReauthRequired = errors.New("re-authentication required")

	// ErrNotReady indicates a transient failure; the operation should be retried later
	ErrNotReady = errors.New("not ready")

	// ErrUnsupported indicates an input format or kind the system does not handle
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ReauthRequiredError reports that a device source rejected its credentials
// and the user has to authenticate again before the source is usable.
type ReauthRequiredError struct {
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ReauthRequiredError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("authentication failed for %s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ReauthRequiredError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ReauthRequiredError) Is(target error) bool {
	return target == ErrReauthRequired
}

// NewReauthRequiredError creates a new ReauthRequiredError
func NewReauthRequiredError(source, message string, err error) *ReauthRequiredError {
	return &ReauthRequiredError{Source: source, Message: message, Err: err}
}

// NotReadyError reports a failure the caller should retry later.
type NotReadyError struct {
	Source  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *NotReadyError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s not ready: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("not ready: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *NotReadyError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}

// NewNotReadyError creates a new NotReadyError
func NewNotReadyError(source, message string, err error) *NotReadyError {
	return &NotReadyError{Source: source, Message: message, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// MergeError represents a failure to reconcile a pair of devices
type MergeError struct {
	DeviceID string
	Err      error
}

// Error implements the error interface
func (e *MergeError) Error() string {
	return fmt.Sprintf("merge of device %s failed: %v", e.DeviceID, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *MergeError) Unwrap() error {
	return e.Err
}

// NewMergeError creates a new MergeError
func NewMergeError(deviceID string, err error) *MergeError {
	return &MergeError{DeviceID: deviceID, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "toml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnsupported checks if an error reports an unhandled format or kind
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// IsReauthRequired checks if an error requires the user to authenticate again
func IsReauthRequired(err error) bool {
	return errors.Is(err, ErrReauthRequired)
}

// IsNotReady checks if an error is transient and worth retrying later
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
