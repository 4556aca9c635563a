package result

import (
	"errors"
	"fmt"
	"time"
)

// Reason names a failure class in the meta of an error envelope.
type Reason string

const (
	ReasonCapabilityRejected   Reason = "capability_rejected"
	ReasonTimedOut             Reason = "timed_out"
	ReasonOutputTooLarge       Reason = "output_too_large"
	ReasonOutputMissing        Reason = "output_missing"
	ReasonRuntimeFailure       Reason = "runtime_failure"
	ReasonOrchestrationFailure Reason = "orchestration_failure"
)

// Sentinel errors for failure classification.
var (
	// ErrCapabilityRejected indicates a request for a capability outside
	// the allow-list.
	ErrCapabilityRejected = errors.New("capability rejected")

	// ErrTimedOut indicates the wall-clock budget elapsed.
	ErrTimedOut = errors.New("timed out")

	// ErrOutputTooLarge indicates the result exceeded the output ceiling.
	ErrOutputTooLarge = errors.New("output too large")

	// ErrOutputMissing indicates the snippet never bound the output name.
	ErrOutputMissing = errors.New("output missing")

	// ErrRuntimeFailure indicates the snippet raised an exception or did
	// not parse.
	ErrRuntimeFailure = errors.New("runtime failure")

	// ErrOrchestrationFailure indicates the execution machinery failed.
	ErrOrchestrationFailure = errors.New("orchestration failure")
)

// OutputName is the name a snippet binds its result to.
const OutputName = "output"

// CapabilityRejectedError is returned when a snippet requests a
// capability that is not allowed.
type CapabilityRejectedError struct {
	Name string
}

func (e *CapabilityRejectedError) Error() string {
	return fmt.Sprintf("capability %q is not allowed", e.Name)
}

// Is matches ErrCapabilityRejected.
func (e *CapabilityRejectedError) Is(target error) bool {
	return target == ErrCapabilityRejected
}

// TimedOutError is returned when the budget elapses.
type TimedOutError struct {
	Budget time.Duration
}

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("execution timed out after %s", e.Budget)
}

// Is matches ErrTimedOut.
func (e *TimedOutError) Is(target error) bool {
	return target == ErrTimedOut
}

// OutputTooLargeError is returned when a result measures above the
// output ceiling.
type OutputTooLargeError struct {
	Measured int
	Ceiling  int
}

func (e *OutputTooLargeError) Error() string {
	return fmt.Sprintf("output too large: %d cells exceeds the limit of %d", e.Measured, e.Ceiling)
}

// Is matches ErrOutputTooLarge.
func (e *OutputTooLargeError) Is(target error) bool {
	return target == ErrOutputTooLarge
}

// RuntimeFailureError is an exception raised by the snippet, including
// syntax errors.
type RuntimeFailureError struct {
	// Message describes the error.
	Message string

	// Line is the 1-based line number where the error occurred.
	// Zero indicates the line is unknown.
	Line int

	// Column is the 1-based column number where the error occurred.
	// Zero indicates the column is unknown.
	Column int

	// Err is the underlying error, if any.
	Err error
}

// Error returns the error message, including line and column if available.
func (e *RuntimeFailureError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *RuntimeFailureError) Unwrap() error {
	return e.Err
}

// Is matches ErrRuntimeFailure.
func (e *RuntimeFailureError) Is(target error) bool {
	return target == ErrRuntimeFailure
}

// OrchestrationFailureError is a failure of the execution machinery
// rather than of the snippet.
type OrchestrationFailureError struct {
	Message string
	Err     error
}

func (e *OrchestrationFailureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *OrchestrationFailureError) Unwrap() error {
	return e.Err
}

// Is matches ErrOrchestrationFailure.
func (e *OrchestrationFailureError) Is(target error) bool {
	return target == ErrOrchestrationFailure
}

// MissingOutput returns the error reported when a snippet does not bind
// the output name.
func MissingOutput() error {
	return fmt.Errorf("%w: snippet did not define %q", ErrOutputMissing, OutputName)
}

// ReasonOf returns the failure reason matching err. Unclassified errors
// are runtime failures.
func ReasonOf(err error) Reason {
	switch {
	case errors.Is(err, ErrCapabilityRejected):
		return ReasonCapabilityRejected
	case errors.Is(err, ErrTimedOut):
		return ReasonTimedOut
	case errors.Is(err, ErrOutputTooLarge):
		return ReasonOutputTooLarge
	case errors.Is(err, ErrOutputMissing):
		return ReasonOutputMissing
	case errors.Is(err, ErrOrchestrationFailure):
		return ReasonOrchestrationFailure
	default:
		return ReasonRuntimeFailure
	}
}

// FromError converts err into an error envelope.
func FromError(err error) Result {
	r := Error(ReasonOf(err), err.Error())
	var rf *RuntimeFailureError
	if errors.As(err, &rf) && rf.Line > 0 {
		r.Meta["line"] = rf.Line
		r.Meta["column"] = rf.Column
	}
	var tl *OutputTooLargeError
	if errors.As(err, &tl) {
		r.Meta["measured"] = tl.Measured
		r.Meta["ceiling"] = tl.Ceiling
	}
	var cr *CapabilityRejectedError
	if errors.As(err, &cr) {
		r.Meta["capability"] = cr.Name
	}
	return r
}
