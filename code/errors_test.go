package code

import (
	"errors"
	"testing"

	"github.com/jonwraymond/snippetexec/result"
)

func TestCodeError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CodeError
		want string
	}{
		{
			name: "message only",
			err:  &CodeError{Message: "ReferenceError: x is not defined"},
			want: "ReferenceError: x is not defined",
		},
		{
			name: "with position",
			err:  &CodeError{Message: "ReferenceError: x is not defined", Line: 3, Column: 7},
			want: "ReferenceError: x is not defined (line 3, col 7)",
		},
		{
			name: "position already in message",
			err:  &CodeError{Message: "boom (line 3, col 7)", Line: 3, Column: 7},
			want: "boom (line 3, col 7)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeError_Is(t *testing.T) {
	tests := []struct {
		reason    result.Reason
		execution bool
		limit     bool
	}{
		{result.ReasonRuntimeFailure, true, false},
		{result.ReasonCapabilityRejected, true, false},
		{result.ReasonOutputMissing, true, false},
		{result.ReasonTimedOut, true, true},
		{result.ReasonOutputTooLarge, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			var err error = &CodeError{Message: "x", Reason: tt.reason}
			if got := errors.Is(err, ErrCodeExecution); got != tt.execution {
				t.Errorf("errors.Is(ErrCodeExecution) = %v, want %v", got, tt.execution)
			}
			if got := errors.Is(err, ErrLimitExceeded); got != tt.limit {
				t.Errorf("errors.Is(ErrLimitExceeded) = %v, want %v", got, tt.limit)
			}
			if errors.Is(err, ErrConfiguration) {
				t.Error("errors.Is(ErrConfiguration) = true, want false")
			}
		})
	}
}

func TestExecuteResult_Err(t *testing.T) {
	ok := ExecuteResult{Envelope: result.Scalar(int64(1))}
	if ok.Err() != nil || !ok.OK() {
		t.Errorf("Err() = %v, OK() = %v for scalar", ok.Err(), ok.OK())
	}

	failed := ExecuteResult{Envelope: result.FromError(&result.RuntimeFailureError{
		Message: "TypeError: boom", Line: 2, Column: 5,
	})}
	var ce *CodeError
	if !errors.As(failed.Err(), &ce) {
		t.Fatalf("Err() = %v, want *CodeError", failed.Err())
	}
	if ce.Line != 2 || ce.Column != 5 || ce.Reason != result.ReasonRuntimeFailure {
		t.Errorf("CodeError = %+v", ce)
	}
	if failed.OK() {
		t.Error("OK() = true for error envelope")
	}
}
