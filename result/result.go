package result

import (
	"github.com/jonwraymond/snippetexec/frame"
)

// Kind is the closed set of envelope kinds.
type Kind string

const (
	KindScalar  Kind = "scalar"
	KindSeries  Kind = "series"
	KindTable   Kind = "table"
	KindMapping Kind = "mapping"
	KindFigure  Kind = "figure"
	KindError   Kind = "error"
	KindObject  Kind = "object"
)

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindScalar, KindSeries, KindTable, KindMapping, KindFigure, KindError, KindObject:
		return true
	}
	return false
}

// Result is the envelope returned for every execution. Build it through
// the constructors; it is not modified after construction.
type Result struct {
	// Kind tags the value.
	Kind Kind `json:"kind"`

	// Value is the domain value, or the error message for KindError.
	Value any `json:"value"`

	// Meta holds lightweight shape information such as lengths, shapes
	// and key lists.
	Meta map[string]any `json:"meta"`
}

// Scalar wraps a number.
func Scalar(v any) Result {
	return Result{Kind: KindScalar, Value: v, Meta: map[string]any{}}
}

// Series wraps a series, recording its length and name.
func Series(s *frame.Series) Result {
	return Result{
		Kind:  KindSeries,
		Value: s,
		Meta: map[string]any{
			"length": s.Len(),
			"name":   s.Name,
		},
	}
}

// Table wraps a table, recording its shape and column names.
func Table(t *frame.Table) Result {
	return Result{
		Kind:  KindTable,
		Value: t,
		Meta: map[string]any{
			"rows":         t.NumRows(),
			"columns":      t.NumColumns(),
			"shape":        []int{t.NumRows(), t.NumColumns()},
			"column_names": append([]string(nil), t.Columns...),
		},
	}
}

// Mapping wraps an ordered mapping, recording its keys in order.
func Mapping(m *OrderedMap) Result {
	return Result{
		Kind:  KindMapping,
		Value: m,
		Meta:  map[string]any{"keys": m.Keys()},
	}
}

// Figure wraps a chart description.
func Figure(f *frame.Figure) Result {
	return Result{
		Kind:  KindFigure,
		Value: f,
		Meta: map[string]any{
			"chart_type": f.ChartType,
			"series":     len(f.Series),
		},
	}
}

// Object wraps an opaque value. typeName is recorded when non-empty.
func Object(v any, typeName string) Result {
	meta := map[string]any{}
	if typeName != "" {
		meta["type"] = typeName
	}
	return Result{Kind: KindObject, Value: v, Meta: meta}
}

// Error builds an error envelope with the given failure reason.
func Error(reason Reason, message string) Result {
	return Result{
		Kind:  KindError,
		Value: message,
		Meta:  map[string]any{"reason": string(reason)},
	}
}

// IsError reports whether r is an error envelope.
func (r Result) IsError() bool {
	return r.Kind == KindError
}

// Message returns the error message of an error envelope, or "".
func (r Result) Message() string {
	if r.Kind != KindError {
		return ""
	}
	s, _ := r.Value.(string)
	return s
}

// Reason returns the failure reason of an error envelope, or "".
func (r Result) Reason() Reason {
	if r.Kind != KindError {
		return ""
	}
	s, _ := r.Meta["reason"].(string)
	return Reason(s)
}
