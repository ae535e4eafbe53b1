// Package errors provides the CLI error type for parley's headless commands.
//
// CLIError pairs a user-facing message with an optional hint and the exit
// code the process should end with.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI errors.
const (
	ExitSuccess = 0  // Successful execution
	ExitGeneral = 1  // General error
	ExitNetwork = 3  // Backend unreachable or rejected the request
	ExitConfig  = 4  // Configuration error
	ExitUsage   = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing CLI error.
type CLIError struct {
	Message string
	Hint    string
	Cause   error
	Code    int
}

func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a CLIError with the given exit code.
func New(code int, message string) *CLIError {
	return &CLIError{Message: message, Code: code}
}

// Wrap wraps cause in a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{Message: message, Cause: cause, Code: code}
}

// WithHint adds actionable guidance.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is errors.As specialised to CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}
