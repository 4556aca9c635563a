package code

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/snippetexec/result"
)

// Sentinel errors for error classification.
var (
	// ErrCodeExecution indicates that a snippet failed, such as a syntax
	// error, a runtime exception or a rejected capability.
	ErrCodeExecution = errors.New("code execution error")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrLimitExceeded indicates that an execution limit was reached,
	// such as the timeout or the output ceiling.
	ErrLimitExceeded = errors.New("limit exceeded")
)

// CodeError represents a snippet failure reported in an error envelope.
// It includes optional source location information for debugging.
type CodeError struct {
	// Message describes the error.
	Message string

	// Reason is the failure reason of the envelope.
	Reason result.Reason

	// Line is the 1-based line number where the error occurred.
	// Zero indicates the line is unknown.
	Line int

	// Column is the 1-based column number where the error occurred.
	// Zero indicates the column is unknown.
	Column int
}

// Error returns the error message, including line and column if available.
func (e *CodeError) Error() string {
	if e.Line > 0 && !containsPosition(e.Message) {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Is reports whether this error matches the target.
// CodeError matches ErrCodeExecution, and ErrLimitExceeded when the
// snippet ran out of time or produced too much output.
func (e *CodeError) Is(target error) bool {
	switch target {
	case ErrCodeExecution:
		return true
	case ErrLimitExceeded:
		return e.Reason == result.ReasonTimedOut || e.Reason == result.ReasonOutputTooLarge
	}
	return false
}

// containsPosition reports whether msg already carries a source position,
// as RuntimeFailureError messages do.
func containsPosition(msg string) bool {
	return strings.Contains(msg, "(line ")
}
