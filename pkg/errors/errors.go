// Package errors provides structured error types for expectedfreq.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI, and HTTP server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Domain codes mirror the input taxonomy of the risk converter:
//   - OUT_OF_RANGE: baseline risk outside (0, 1)
//   - INVALID_MEASURE: non-positive ratio or a percentage change of -100 or less
//   - UNKNOWN_MEASURE_KIND: unsupported measure tag
//   - INVALID_RISK_BOUNDS: exposed risk above 1 under the reject policy
//
// The remaining codes cover input plumbing (formats, config, files) and
// unexpected internal failures.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeOutOfRange, "baseline risk must be in (0, 1), got %g", p)
//	if errors.Is(err, errors.ErrCodeOutOfRange) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Risk conversion errors
	ErrCodeOutOfRange         Code = "OUT_OF_RANGE"
	ErrCodeInvalidMeasure     Code = "INVALID_MEASURE"
	ErrCodeUnknownMeasureKind Code = "UNKNOWN_MEASURE_KIND"
	ErrCodeInvalidRiskBounds  Code = "INVALID_RISK_BOUNDS"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidLabel  Code = "INVALID_LABEL"
	ErrCodeInvalidShape  Code = "INVALID_SHAPE"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInputError reports whether err was caused by caller input rather than
// an internal failure. The HTTP server maps these to 400 responses.
func IsInputError(err error) bool {
	switch GetCode(err) {
	case ErrCodeOutOfRange, ErrCodeInvalidMeasure, ErrCodeUnknownMeasureKind,
		ErrCodeInvalidRiskBounds, ErrCodeInvalidInput, ErrCodeInvalidFormat,
		ErrCodeInvalidConfig, ErrCodeInvalidLabel, ErrCodeInvalidShape:
		return true
	}
	return false
}
