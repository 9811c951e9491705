// Package errors provides the coded error type shared by the depmap CLI and
// HTTP API.
//
// Codes are grouped by prefix:
//   - INVALID_*: bad user input (package names, kinds, flags, paths)
//   - *NOT_FOUND: unknown packages, files, or snapshots
//   - STORE_ERROR, CACHE_ERROR: persistence backends
//   - NETWORK_ERROR, TIMEOUT: remote backends (Redis, MongoDB)
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodePackageNotFound, "package %q not found", name)
//	if errors.Is(err, errors.ErrCodePackageNotFound) {
//	    // ...
//	}
//
//	err = errors.Wrap(errors.ErrCodeStore, cause, "save snapshot")
//
// [HTTPStatus] maps a code to the status the API answers with.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidKind    Code = "INVALID_KIND"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeNotAPackage     Code = "NOT_A_PACKAGE"

	// Backend errors
	ErrCodeStore   Code = "STORE_ERROR"
	ErrCodeCache   Code = "CACHE_ERROR"
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
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

// UserMessage returns the message of the outermost *Error without its code
// prefix, or err.Error() for other errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus returns the response status for code: 404 for the not-found
// family, 400 for INVALID_*, 500 otherwise.
func HTTPStatus(code Code) int {
	switch {
	case code == ErrCodeNotFound, code == ErrCodePackageNotFound, code == ErrCodeFileNotFound:
		return http.StatusNotFound
	case strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
