// Package errors defines the pipeline error taxonomy. Only configuration
// errors propagate to callers; every structural or parse failure degrades
// to an annotated or skipped row inside the transform.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes for the conditions a caller can act on.
const (
	CodeInvalidConfiguration = "INVALID_CONFIGURATION"
	CodeFileSystem           = "FILESYSTEM_ERROR"
	CodeSheetNotFound        = "SHEET_NOT_FOUND"
)

// PipelineError is a structured error with a stable code, suitable for
// matching with errors.Is against the predefined values below.
type PipelineError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return e.Message
}

// Is matches any PipelineError carrying the same code, so derived
// instances compare equal to their predefined sentinel.
func (e *PipelineError) Is(target error) bool {
	var pe *PipelineError
	if stderrors.As(target, &pe) {
		return pe.Code == e.Code
	}
	return false
}

// New creates a PipelineError with the given code and message.
func New(code, message string) *PipelineError {
	return &PipelineError{Code: code, Message: message}
}

// NewWithDetails creates a PipelineError with additional details.
func NewWithDetails(code, message string, details interface{}) *PipelineError {
	return &PipelineError{Code: code, Message: message, Details: details}
}

// Predefined errors for common conditions.
var (
	// ErrInvalidConfiguration is returned for unknown strategy or method
	// names and non-positive multipliers. It fails fast: no row is
	// touched when it is raised.
	ErrInvalidConfiguration = New(CodeInvalidConfiguration, "invalid configuration")

	// ErrSheetNotFound is returned when a workbook contains no sheet that
	// looks like a data table.
	ErrSheetNotFound = New(CodeSheetNotFound, "no data sheet found in workbook")
)

// InvalidConfigurationf builds a configuration error with a formatted
// message.
func InvalidConfigurationf(format string, args ...interface{}) *PipelineError {
	return New(CodeInvalidConfiguration, fmt.Sprintf(format, args...))
}

// FileSystemError wraps a filesystem failure with the operation name.
func FileSystemError(operation string, err error) *PipelineError {
	return NewWithDetails(CodeFileSystem, fmt.Sprintf("file system error during %s", operation), err.Error())
}

// IsInvalidConfiguration reports whether err is a configuration error.
func IsInvalidConfiguration(err error) bool {
	return stderrors.Is(err, ErrInvalidConfiguration)
}
