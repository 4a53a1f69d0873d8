package output

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess     = 0
	ExitUserError   = 1 // bad arguments, missing product, unset SPLENT_APP
	ExitSystemError = 2 // git, docker or GitHub failed, I/O errors
	ExitConflict    = 3 // target exists, version still in use
)

// ExitError is an error that carries an exit code for the CLI.
type ExitError struct {
	Code    int
	Message string
	Hint    string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As support.
func (e *ExitError) Unwrap() error {
	return e.Cause
}

// WithHint attaches a remediation hint printed under the error.
func (e *ExitError) WithHint(format string, args ...any) *ExitError {
	e.Hint = fmt.Sprintf(format, args...)
	return e
}

// NewUserError creates an error for user-caused issues (exit code 1).
func NewUserError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitUserError, Message: fmt.Sprintf(format, args...)}
}

// NewSystemError creates an error for system failures (exit code 2).
func NewSystemError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitSystemError, Message: fmt.Sprintf(format, args...)}
}

// NewSystemErrorWithCause creates a system error wrapping an underlying cause.
func NewSystemErrorWithCause(message string, cause error) *ExitError {
	return &ExitError{Code: ExitSystemError, Message: message, Cause: cause}
}

// NewConflictError creates an error for state conflicts (exit code 3).
func NewConflictError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitConflict, Message: fmt.Sprintf(format, args...)}
}

// GetExitCode extracts the exit code from an error.
// Untyped errors count as user errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUserError
}
