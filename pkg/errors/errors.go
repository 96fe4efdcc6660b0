// Package errors provides structured error types for comfyscope.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the HTTP server
//   - Machine-readable error codes for programmatic handling
//   - User-facing messages that hide internal detail
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NO_* / *_NOT_FOUND: Nothing usable was found
//   - IMAGE_* / MALFORMED_*: Input could not be decoded
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNoWorkflow, "No workflow information found in this image")
//	if errors.Is(err, errors.ErrCodeNoWorkflow) {
//	    // Show the message to the user
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeImageProcessing, origErr, "Error extracting workflow data from image.")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Extraction outcomes surfaced to users
	ErrCodeNoWorkflow        Code = "NO_WORKFLOW"
	ErrCodeImageProcessing   Code = "IMAGE_PROCESSING"
	ErrCodeMalformedWorkflow Code = "MALFORMED_WORKFLOW"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// User-facing messages for the two terminal extraction failures.
const (
	MsgNoWorkflow      = "No workflow information found in this image"
	MsgImageProcessing = "Error extracting workflow data from image."
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

// NoWorkflow returns the error reported when no chunk yielded a workflow.
func NoWorkflow() *Error {
	return New(ErrCodeNoWorkflow, "%s", MsgNoWorkflow)
}

// ImageProcessing wraps a chunk-decoding failure with the user-facing message.
func ImageProcessing(cause error) *Error {
	return Wrap(ErrCodeImageProcessing, cause, "%s", MsgImageProcessing)
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
