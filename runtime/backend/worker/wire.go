package worker

import (
	"fmt"
	"time"

	"github.com/jonwraymond/snippetexec/frame"
	"github.com/jonwraymond/snippetexec/internal/codec"
	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime/gateway/proxy"
)

// Worker message types. Gateway traffic uses the proxy package's types on
// the same stream.
const (
	MsgExecute proxy.MessageType = "execute"
	MsgResult  proxy.MessageType = "result"
)

// job is the execute payload sent to a worker.
type job struct {
	Code             string
	Timeout          time.Duration
	Allow            []string
	MaxOutputCells   int
	MaxStdoutBytes   int
	MaxCallStackSize int
	Gateway          bool
}

func (j job) payload() map[string]any {
	return map[string]any{
		"code":             j.Code,
		"timeout_ms":       j.Timeout.Milliseconds(),
		"allow":            j.Allow,
		"max_output_cells": j.MaxOutputCells,
		"max_stdout_bytes": j.MaxStdoutBytes,
		"max_call_stack":   j.MaxCallStackSize,
		"gateway":          j.Gateway,
	}
}

func jobFromPayload(p map[string]any) (job, error) {
	code, ok := p["code"].(string)
	if !ok || code == "" {
		return job{}, fmt.Errorf("%w: execute payload has no code", proxy.ErrProtocol)
	}
	gw, _ := p["gateway"].(bool)
	return job{
		Code:             code,
		Timeout:          time.Duration(intOf(p["timeout_ms"])) * time.Millisecond,
		Allow:            stringsOf(p["allow"]),
		MaxOutputCells:   intOf(p["max_output_cells"]),
		MaxStdoutBytes:   intOf(p["max_stdout_bytes"]),
		MaxCallStackSize: intOf(p["max_call_stack"]),
		Gateway:          gw,
	}, nil
}

// packResult flattens an envelope into CBOR-friendly values. Domain types
// keep enough structure for unpackResult to rebuild them through the
// result constructors.
func packResult(r result.Result) (map[string]any, error) {
	out := map[string]any{"kind": string(r.Kind)}
	switch r.Kind {
	case result.KindSeries:
		s := r.Value.(*frame.Series)
		out["value"] = map[string]any{"name": s.Name, "index": s.Index, "values": plain(s.Values)}
	case result.KindTable:
		t := r.Value.(*frame.Table)
		rows := make([]any, len(t.Rows))
		for i, row := range t.Rows {
			rows[i] = plain(row)
		}
		out["value"] = map[string]any{"columns": t.Columns, "rows": rows}
	case result.KindMapping:
		m := r.Value.(*result.OrderedMap)
		values := make([]any, 0, m.Len())
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			values = append(values, plain(v))
		}
		out["value"] = map[string]any{"keys": m.Keys(), "values": values}
	case result.KindFigure:
		data, err := codec.Marshal(r.Value)
		if err != nil {
			return nil, err
		}
		out["value"] = data
	case result.KindError, result.KindObject:
		out["value"] = plain(r.Value)
		out["meta"] = r.Meta
	default:
		out["value"] = r.Value
	}
	if _, err := codec.Marshal(out); err != nil {
		return nil, err
	}
	return out, nil
}

func unpackResult(p map[string]any) (result.Result, error) {
	kind := result.Kind(fmt.Sprint(p["kind"]))
	if !kind.IsValid() {
		return result.Result{}, fmt.Errorf("%w: unknown result kind %q", proxy.ErrProtocol, kind)
	}
	value := p["value"]
	switch kind {
	case result.KindScalar:
		return result.Scalar(value), nil

	case result.KindSeries:
		m, _ := value.(map[string]any)
		values, _ := m["values"].([]any)
		s, err := frame.NewSeries(fmt.Sprint(m["name"]), restoreAll(values), stringsOf(m["index"]))
		if err != nil {
			return result.Result{}, fmt.Errorf("%w: %v", proxy.ErrProtocol, err)
		}
		return result.Series(s), nil

	case result.KindTable:
		m, _ := value.(map[string]any)
		rawRows, _ := m["rows"].([]any)
		rows := make([][]any, len(rawRows))
		for i, r := range rawRows {
			row, _ := r.([]any)
			rows[i] = restoreAll(row)
		}
		t, err := frame.NewTable(stringsOf(m["columns"]), rows)
		if err != nil {
			return result.Result{}, fmt.Errorf("%w: %v", proxy.ErrProtocol, err)
		}
		return result.Table(t), nil

	case result.KindMapping:
		m, _ := value.(map[string]any)
		keys := stringsOf(m["keys"])
		values, _ := m["values"].([]any)
		if len(keys) != len(values) {
			return result.Result{}, fmt.Errorf("%w: mapping has %d keys and %d values", proxy.ErrProtocol, len(keys), len(values))
		}
		om := result.NewOrderedMap()
		for i, k := range keys {
			om.Set(k, restore(values[i]))
		}
		return result.Mapping(om), nil

	case result.KindFigure:
		data, _ := value.([]byte)
		var f frame.Figure
		if err := codec.Unmarshal(data, &f); err != nil {
			return result.Result{}, fmt.Errorf("%w: figure: %v", proxy.ErrProtocol, err)
		}
		return result.Figure(&f), nil
	}

	meta, _ := p["meta"].(map[string]any)
	if meta == nil {
		meta = map[string]any{}
	}
	return result.Result{Kind: kind, Value: restore(value), Meta: meta}, nil
}

// plain replaces ordered maps and frame values nested inside v with values
// the codec can encode. Ordered maps keep their key order on the wire.
func plain(v any) any {
	switch x := v.(type) {
	case *result.OrderedMap:
		out := codec.OrderedMap{Keys: x.Keys(), Values: make([]any, 0, x.Len())}
		for _, k := range out.Keys {
			val, _ := x.Get(k)
			out.Values = append(out.Values, plain(val))
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	case *frame.Table:
		return plain(toAny(x.Records()))
	case *frame.Series:
		return map[string]any{"name": x.Name, "index": x.Index, "values": plain(x.Values)}
	case *frame.Figure:
		return x
	case nil, string, bool, int64, float64, int, uint64:
		return x
	}
	if _, err := codec.Marshal(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return v
}

// restore rebuilds the ordered maps plain encoded.
func restore(v any) any {
	switch x := v.(type) {
	case codec.OrderedMap:
		om := result.NewOrderedMap()
		for i, k := range x.Keys {
			var val any
			if i < len(x.Values) {
				val = x.Values[i]
			}
			om.Set(k, restore(val))
		}
		return om
	case []any:
		for i, e := range x {
			x[i] = restore(e)
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = restore(e)
		}
		return x
	}
	return v
}

func restoreAll(xs []any) []any {
	for i, x := range xs {
		xs[i] = restore(x)
	}
	return xs
}

func toAny(records []map[string]any) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}

func intOf(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func stringsOf(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
