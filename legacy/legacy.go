// Package legacy unwraps result envelopes into the bare values older
// callers expect.
//
// An error envelope becomes a mapping with a single "error" field, a
// mapping envelope becomes a plain map, and every other kind yields its
// value unchanged.
package legacy

import (
	"context"

	"github.com/jonwraymond/snippetexec/frame"
	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime"
)

// ErrorKey is the field holding the message of an unwrapped error.
const ErrorKey = "error"

// Unwrap returns the bare value of r.
func Unwrap(r result.Result) any {
	switch r.Kind {
	case result.KindError:
		return map[string]any{ErrorKey: r.Message()}
	case result.KindMapping:
		if m, ok := r.Value.(*result.OrderedMap); ok {
			return m.ToMap()
		}
	}
	return r.Value
}

// Records returns a table envelope's rows as column-keyed maps. It reports
// false for any other kind.
func Records(r result.Result) ([]map[string]any, bool) {
	if r.Kind != result.KindTable {
		return nil, false
	}
	t, ok := r.Value.(*frame.Table)
	if !ok {
		return nil, false
	}
	return t.Records(), true
}

// Run executes code on rt and unwraps the envelope. Orchestration errors
// are reported the same way as error envelopes.
func Run(ctx context.Context, rt runtime.Runtime, code string) any {
	res, err := rt.Execute(ctx, runtime.ExecuteRequest{Code: code})
	if err != nil {
		return map[string]any{ErrorKey: err.Error()}
	}
	return Unwrap(res.Envelope)
}
