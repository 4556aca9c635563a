package result

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/jonwraymond/snippetexec/frame"
)

// adapter claims a value for one kind family.
type adapter func(v any) (Result, bool)

// adapters run in priority order; the first claim wins. Table detection
// precedes mapping detection.
var adapters = []adapter{
	classifyAbsent,
	classifyScalar,
	classifySeries,
	classifyTable,
	classifyMapping,
	classifyFigure,
}

// Classify tags v with its kind. It never returns an error envelope.
func Classify(v any) Result {
	for _, a := range adapters {
		if r, ok := a(v); ok {
			return r
		}
	}
	return Object(v, fmt.Sprintf("%T", v))
}

// Finalize validates v against maxCells and classifies it. An oversized
// value yields an error envelope.
func Finalize(v any, maxCells int) Result {
	if err := Validate(v, maxCells); err != nil {
		return FromError(err)
	}
	return Classify(v)
}

func classifyAbsent(v any) (Result, bool) {
	if v == nil {
		return Object(map[string]any{}, ""), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return Object(map[string]any{}, ""), true
		}
	}
	return Result{}, false
}

func classifyScalar(v any) (Result, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return Scalar(v), true
	}
	return Result{}, false
}

func classifySeries(v any) (Result, bool) {
	if s, ok := v.(*frame.Series); ok {
		return Series(s), true
	}
	return Result{}, false
}

func classifyTable(v any) (Result, bool) {
	if t, ok := v.(*frame.Table); ok {
		return Table(t), true
	}
	return Result{}, false
}

func classifyMapping(v any) (Result, bool) {
	switch m := v.(type) {
	case *OrderedMap:
		return Mapping(m), true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		om := NewOrderedMap()
		for _, k := range keys {
			om.Set(k, m[k])
		}
		return Mapping(om), true
	}
	return Result{}, false
}

func classifyFigure(v any) (Result, bool) {
	if f, ok := v.(*frame.Figure); ok {
		return Figure(f), true
	}
	return Result{}, false
}
