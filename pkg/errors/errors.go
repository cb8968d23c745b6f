// Package errors provides structured error types for mdgraph.
//
// Errors carry a machine-readable code so the CLI can tell a malformed
// document apart from a failing renderer or an unwritable output path,
// while still wrapping the underlying cause for errors.Is/As.
//
// # Error Codes
//
//   - INVALID_*: configuration and flag validation failures
//   - MALFORMED_BLOCK: a graph block opener without a closing fence
//   - FILE_NOT_FOUND, IO_ERROR: reading input or writing output
//   - RENDER_FAILED, TIMEOUT: the graph renderer failed or took too long
//   - INTERNAL_ERROR: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFormat, "unknown format: %s", f)
//	if errors.Is(err, errors.ErrCodeInvalidFormat) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "write %s", path)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidRenderer Code = "INVALID_RENDERER"
	ErrCodeInvalidEngine   Code = "INVALID_ENGINE"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Document errors
	ErrCodeMalformedBlock Code = "MALFORMED_BLOCK"

	// Filesystem errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeIO           Code = "IO_ERROR"

	// Renderer errors
	ErrCodeRenderFailed Code = "RENDER_FAILED"
	ErrCodeTimeout      Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// Only the outermost *Error in the chain is compared.
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

// UserMessage returns the error without code prefixes, for printing.
// Messages of nested *Error and *RenderError values are joined with ": ".
func UserMessage(err error) string {
	switch e := err.(type) {
	case nil:
		return ""
	case *RenderError:
		return fmt.Sprintf("graph %d (%s): %s", e.Index, e.Output, UserMessage(e.Err))
	case *Error:
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// RenderError reports which graph block failed to render.
type RenderError struct {
	Index  int    // block index in document order
	Output string // image path that was being produced
	Err    error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("graph %d (%s): %v", e.Index, e.Output, e.Err)
}

// Unwrap returns the renderer failure.
func (e *RenderError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *RenderError) Code() Code {
	if Is(e.Err, ErrCodeTimeout) {
		return ErrCodeTimeout
	}
	return ErrCodeRenderFailed
}
