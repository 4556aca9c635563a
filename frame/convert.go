package frame

import (
	"encoding/json"
	"strconv"
)

// Float converts a numeric value to float64. Strings are not parsed; use
// [ParseFloat] for that. The second return value reports success.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ParseFloat is like [Float] but also accepts numeric strings and byte
// slices, which is what most SQL drivers return for DECIMAL columns.
func ParseFloat(v any) (float64, bool) {
	if f, ok := Float(v); ok {
		return f, true
	}
	switch s := v.(type) {
	case string:
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(s), 64)
		return f, err == nil
	}
	return 0, false
}

// Floats converts every numeric element of values to float64, skipping
// anything that is not a number.
func Floats(values []any) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := ParseFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}
