package code

import (
	"time"

	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime"
)

// CallRecord captures a single data-access call made by a snippet.
type CallRecord struct {
	// Op is the gateway operation, such as "query" or "metric".
	Op string `json:"op"`

	// Target is the query text, metric name or function ID.
	Target string `json:"target"`

	// Error contains the error message if the call failed.
	Error string `json:"error,omitempty"`

	// DurationMs is the call time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}

// ExecuteParams specifies the parameters for executing a snippet.
type ExecuteParams struct {
	// Code is the JavaScript source to execute.
	Code string `json:"code"`

	// Timeout specifies the maximum duration for execution.
	// If zero, the executor's default timeout is used.
	Timeout time.Duration `json:"timeout"`

	// Profile selects the backend. If empty, the runtime default applies.
	Profile runtime.SecurityProfile `json:"profile,omitempty"`

	// MaxCalls limits data-access calls. It is capped by Config.MaxCalls.
	MaxCalls int `json:"maxCalls,omitempty"`

	// Allow narrows the capability allow-list for this snippet.
	// Nil keeps the configured list.
	Allow []string `json:"allow,omitempty"`

	// Metadata is passed through to the runtime request.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ExecuteResult contains the outcome of executing a snippet.
type ExecuteResult struct {
	// ID identifies the execution.
	ID string `json:"id"`

	// Envelope is the typed result.
	Envelope result.Result `json:"result"`

	// Stdout contains print output.
	Stdout string `json:"stdout,omitempty"`

	// Calls records data-access calls in order.
	Calls []CallRecord `json:"calls,omitempty"`

	// State is the terminal execution state.
	State runtime.State `json:"state"`

	// Backend is the kind of backend that ran the snippet.
	Backend runtime.BackendKind `json:"backend"`

	// DurationMs is the total execution time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}

// OK reports whether the snippet produced a value.
func (r ExecuteResult) OK() bool {
	return !r.Envelope.IsError()
}

// Err returns the envelope's failure as a *CodeError, or nil.
func (r ExecuteResult) Err() error {
	if !r.Envelope.IsError() {
		return nil
	}
	e := &CodeError{Message: r.Envelope.Message(), Reason: r.Envelope.Reason()}
	if line, ok := r.Envelope.Meta["line"]; ok {
		e.Line = toInt(line)
		e.Column = toInt(r.Envelope.Meta["column"])
	}
	return e
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func callRecords(in []runtime.CallRecord) []CallRecord {
	if len(in) == 0 {
		return nil
	}
	out := make([]CallRecord, len(in))
	for i, c := range in {
		out[i] = CallRecord{
			Op:         c.Op,
			Target:     c.Target,
			Error:      c.Error,
			DurationMs: c.Duration.Milliseconds(),
		}
	}
	return out
}
