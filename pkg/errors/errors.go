// Package errors provides custom error types for the comicmap system.
// These errors enable programmatic error checking across the extraction,
// storage and reconciliation layers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As mirror the standard library helpers so callers need a single import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the comicmap system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a remote write was rejected because the version token is stale
	ErrConflict = errors.New("version conflict")

	// ErrNoExtractor indicates that no registered extractor can handle a URL
	ErrNoExtractor = errors.New("no extractor found")

	// ErrReadOnly indicates an attempt to modify a read-only resource
	ErrReadOnly = errors.New("read only")

	// ErrRateLimited indicates that a remote rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates that a remote endpoint is temporarily unavailable
	ErrUnavailable = errors.New("remote unavailable")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
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

// FetchError represents a failed network request against a remote endpoint.
type FetchError struct {
	URL        string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed (status %d): %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch %s failed: %s", e.URL, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return target == ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return target == ErrRateLimited
	case e.StatusCode >= 500:
		return target == ErrUnavailable
	}
	return false
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, message string) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ExtractionError represents a failure to pull metadata out of a source page.
type ExtractionError struct {
	Extractor string
	URL       string
	Field     string // set when a required field was missing or malformed
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	prefix := "extraction failed"
	if e.Extractor != "" {
		prefix = fmt.Sprintf("%s extraction failed", e.Extractor)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s for %s (field %s): %s", prefix, e.URL, e.Field, e.Message)
	}
	return fmt.Sprintf("%s for %s: %s", prefix, e.URL, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError
func NewExtractionError(extractor, url, message string, err error) *ExtractionError {
	return &ExtractionError{
		Extractor: extractor,
		URL:       url,
		Message:   message,
		Err:       err,
	}
}

// ConflictError is returned when a conditional remote write loses against
// a newer revision of the blob.
type ConflictError struct {
	Key     string
	Version string
	Err     error
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("remote write conflict on %s (expected version %s)", e.Key, e.Version)
	}
	return fmt.Sprintf("remote write conflict on %s", e.Key)
}

// Unwrap implements errors.Unwrap
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(key, version string, err error) *ConflictError {
	return &ConflictError{Key: key, Version: version, Err: err}
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

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a remote write conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNoExtractor checks if an error means no extractor matched a URL
func IsNoExtractor(err error) bool {
	return errors.Is(err, ErrNoExtractor)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "html", "yaml"
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

// IOError represents an error during local I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "rename", "lock"
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

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "get", "put", "sync", "push"
	Resource  string // "blob", "collection", "requests"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapFetch wraps a transport error as a FetchError
func WrapFetch(url string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}

// WrapExtraction wraps an error as an ExtractionError
func WrapExtraction(extractor, url string, err error) error {
	if err == nil {
		return nil
	}
	return NewExtractionError(extractor, url, err.Error(), err)
}
