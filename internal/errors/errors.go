package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig = "CONFIG"
	ErrSSH    = "SSH"
	ErrExec   = "EXEC"

	// ErrAmbiguous covers target selections that span more than one role.
	ErrAmbiguous = "RESOLVE_AMBIGUOUS"
	// ErrNotFound covers roles or hosts that aren't declared anywhere.
	ErrNotFound = "RESOLVE_NOT_FOUND"
	// ErrAborted is returned when the operator declines a confirmation.
	ErrAborted = "ABORTED"

	ErrDirty    = "PREFLIGHT_DIRTY"
	ErrUnpushed = "PREFLIGHT_UNPUSHED"

	// ErrRemoteStep marks a pipeline step whose remote command failed.
	ErrRemoteStep = "REMOTE_STEP"

	// ErrLock means another run holds the vhost lock.
	ErrLock = "LOCK"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrSSH code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrSSH,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var vhErr *Error
	if errors.As(err, &vhErr) {
		return vhErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost structured Error in err's chain,
// or an empty string if there is none.
func CodeOf(err error) string {
	var vhErr *Error
	if errors.As(err, &vhErr) {
		return vhErr.Code
	}
	return ""
}

// As is errors.As, re-exported so callers don't need both packages.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is, re-exported for the same reason as As.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
