package cli

import (
	"errors"
	"fmt"
)

// Exit codes of the insnbench command.
const (
	ExitSuccess      = 0 // Report written
	ExitFailure      = 1 // A measurement failed or the fault trap self-test did not pass
	ExitCommandError = 2 // Bad flags, bad configuration or unwritable output
)

// ExitError carries an exit code out of a command.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var served *servedError
	if errors.As(err, &served) {
		return served.code
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// servedError ends a probe child's command run. It is never printed.
type servedError struct {
	code int
}

func (e *servedError) Error() string {
	return fmt.Sprintf("probe child served (exit %d)", e.code)
}
