package script

import (
	"context"
	"math"
	"reflect"
	"strconv"

	"github.com/dop251/goja"

	"github.com/jonwraymond/snippetexec/result"
)

const (
	maxExportDepth = 64

	// checkEvery is how many exported elements pass between budget checks.
	checkEvery = 1024
)

var plainObject = reflect.TypeOf(map[string]any(nil))

// exporter converts JavaScript values into plain Go values. Plain objects
// become *result.OrderedMap so key order survives, arrays become []any,
// and wrapped Go values are returned unchanged. Non-finite numbers become
// their JavaScript string form.
//
// Every array element and object key counts against maxCells, so a single
// oversized value is refused before it is copied. Getters run inside the
// VM and stay subject to its interrupt.
type exporter struct {
	ctx      context.Context
	expired  error
	maxCells int
	cells    int
}

func newExporter(ctx context.Context, expired error, maxCells int) *exporter {
	if maxCells <= 0 {
		maxCells = result.DefaultMaxOutputCells
	}
	return &exporter{ctx: ctx, expired: expired, maxCells: maxCells}
}

// count charges n cells and checks the budget.
func (x *exporter) count(n int) error {
	if n > x.maxCells-x.cells {
		return &result.OutputTooLargeError{Measured: x.cells + n, Ceiling: x.maxCells}
	}
	before := x.cells
	x.cells += n
	if before/checkEvery != x.cells/checkEvery && x.ctx.Err() != nil {
		return x.expired
	}
	return nil
}

func (x *exporter) export(v goja.Value, depth int) (any, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	if depth > maxExportDepth {
		return "[nested too deeply]", nil
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		raw := v.Export()
		if f, ok := raw.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return v.String(), nil
		}
		return raw, nil
	}

	switch obj.ClassName() {
	case "Array":
		n := obj.Get("length").ToInteger()
		if n > int64(x.maxCells) {
			return nil, &result.OutputTooLargeError{Measured: int(min(n, math.MaxInt32)), Ceiling: x.maxCells}
		}
		if err := x.count(int(n)); err != nil {
			return nil, err
		}
		out := make([]any, n)
		for i := range out {
			if i%checkEvery == 0 && x.ctx.Err() != nil {
				return nil, x.expired
			}
			elem, err := x.export(obj.Get(strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case "Function":
		return "[function]", nil
	case "Object":
		if obj.ExportType() != plainObject {
			return obj.Export(), nil
		}
		keys := obj.Keys()
		if err := x.count(len(keys)); err != nil {
			return nil, err
		}
		m := result.NewOrderedMap()
		for _, k := range keys {
			val, err := x.export(obj.Get(k), depth+1)
			if err != nil {
				return nil, err
			}
			m.Set(k, val)
		}
		return m, nil
	}
	return obj.Export(), nil
}
