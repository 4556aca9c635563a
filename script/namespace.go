package script

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/dop251/goja"
	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/snippetexec/capability"
	"github.com/jonwraymond/snippetexec/frame"
	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime"
)

// ErrNoGateway is thrown by data functions when no gateway is configured.
var ErrNoGateway = errors.New("data access is not configured")

// env is the per-run state shared by the namespace functions.
type env struct {
	ctx      context.Context
	vm       *goja.Runtime
	gw       runtime.Gateway
	stdout   *boundedBuffer
	maxCells int
	expired  error

	// aborted is the first error that stopped the run from the host side.
	// It is not catchable by the snippet.
	aborted error
}

// abort interrupts the VM with err and returns it. The first abort wins.
func (e *env) abort(err error) error {
	if e.aborted == nil {
		e.aborted = err
	}
	e.vm.Interrupt(e.aborted)
	return e.aborted
}

// globals binds capability modules to global names.
var globals = []struct {
	name       string
	capability string
	property   string
}{
	{name: "query", capability: capability.Data, property: "query"},
	{name: "metric", capability: capability.Metrics, property: "get"},
	{name: "analytics", capability: capability.Analytics},
	{name: "frame", capability: capability.Frame},
	{name: "pd", capability: capability.Frame},
	{name: "chart", capability: capability.Chart},
}

func (e *env) loaders() map[string]capability.Loader {
	return map[string]capability.Loader{
		capability.Math:      e.module(e.mathModule),
		capability.Text:      e.module(e.textModule),
		capability.Time:      e.module(e.timeModule),
		capability.JSON:      e.module(e.jsonModule),
		capability.Frame:     e.module(e.frameModule),
		capability.Chart:     e.module(e.chartModule),
		capability.Data:      e.module(e.dataModule),
		capability.Metrics:   e.module(e.metricsModule),
		capability.Analytics: e.module(e.analyticsModule),
	}
}

func (e *env) module(build func(*goja.Object) error) capability.Loader {
	return func(string) (any, error) {
		obj := e.vm.NewObject()
		if err := build(obj); err != nil {
			return nil, err
		}
		return obj, nil
	}
}

// bind installs require, print and the globals whose capability is allowed.
func (e *env) bind(guard *capability.Guard) error {
	if err := e.vm.Set("require", func(name string) (goja.Value, error) {
		v, err := guard.Require(name)
		if err != nil {
			return nil, err
		}
		return e.vm.ToValue(v), nil
	}); err != nil {
		return err
	}
	if err := e.vm.Set("print", e.print); err != nil {
		return err
	}

	for _, g := range globals {
		if !guard.Allows(g.capability) {
			continue
		}
		v, err := guard.Require(g.capability)
		if err != nil {
			return err
		}
		value := e.vm.ToValue(v)
		if g.property != "" {
			value = value.ToObject(e.vm).Get(g.property)
		}
		if err := e.vm.Set(g.name, value); err != nil {
			return err
		}
	}
	return nil
}

func (e *env) print(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = arg.String()
	}
	e.stdout.WriteString(strings.Join(parts, " ") + "\n")
	return goja.Undefined()
}

func (e *env) dataModule(obj *goja.Object) error {
	return obj.Set("query", func(sql string, args ...any) (*frame.Table, error) {
		if e.gw == nil {
			return nil, ErrNoGateway
		}
		return e.gw.Query(e.ctx, sql, args)
	})
}

func (e *env) metricsModule(obj *goja.Object) error {
	return obj.Set("get", func(name string) (float64, error) {
		if e.gw == nil {
			return 0, ErrNoGateway
		}
		return e.gw.Metric(e.ctx, name)
	})
}

func (e *env) analyticsModule(obj *goja.Object) error {
	if err := obj.Set("call", func(id string, args map[string]any) (any, error) {
		if e.gw == nil {
			return nil, ErrNoGateway
		}
		if args == nil {
			args = map[string]any{}
		}
		return e.gw.CallFunction(e.ctx, id, args)
	}); err != nil {
		return err
	}
	if err := obj.Set("search", func(query string, limit int) ([]map[string]any, error) {
		if e.gw == nil {
			return nil, ErrNoGateway
		}
		found, err := e.gw.SearchFunctions(e.ctx, query, limit)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(found))
		for i, s := range found {
			out[i] = map[string]any{
				"id":          s.ID,
				"name":        s.Name,
				"namespace":   s.Namespace,
				"description": s.ShortDescription,
				"tags":        s.Tags,
			}
		}
		return out, nil
	}); err != nil {
		return err
	}
	return obj.Set("describe", func(id string, full bool) (map[string]any, error) {
		if e.gw == nil {
			return nil, ErrNoGateway
		}
		level := tooldoc.DetailSummary
		if full {
			level = tooldoc.DetailFull
		}
		doc, err := e.gw.DescribeFunction(e.ctx, id, level)
		if err != nil {
			return nil, err
		}
		return map[string]any{"summary": doc.Summary, "notes": doc.Notes}, nil
	})
}

func (e *env) frameModule(obj *goja.Object) error {
	fns := map[string]any{
		"table": func(columns, rows goja.Value) (*frame.Table, error) {
			if err := e.fits(length(rows), length(columns)); err != nil {
				return nil, err
			}
			var (
				cols []string
				data [][]any
			)
			if err := e.exportTo(columns, &cols); err != nil {
				return nil, err
			}
			if err := e.exportTo(rows, &data); err != nil {
				return nil, err
			}
			return frame.NewTable(cols, data)
		},
		"fromRecords": func(columns, records goja.Value) (*frame.Table, error) {
			if err := e.fits(length(records), length(columns)); err != nil {
				return nil, err
			}
			var (
				cols []string
				recs []map[string]any
			)
			if err := e.exportTo(columns, &cols); err != nil {
				return nil, err
			}
			if err := e.exportTo(records, &recs); err != nil {
				return nil, err
			}
			return frame.FromRecords(cols, recs), nil
		},
		"zeros": func(rows, cols int) (*frame.Table, error) {
			if rows >= 0 && cols >= 0 {
				if err := e.fits(int64(rows), int64(cols)); err != nil {
					return nil, err
				}
			}
			return frame.Zeros(rows, cols)
		},
		"series": func(name string, values, index goja.Value) (*frame.Series, error) {
			if err := e.fits(length(values), 1); err != nil {
				return nil, err
			}
			if err := e.fits(length(index), 1); err != nil {
				return nil, err
			}
			vals := []any{}
			var labels []string
			if err := e.exportTo(values, &vals); err != nil {
				return nil, err
			}
			if err := e.exportTo(index, &labels); err != nil {
				return nil, err
			}
			return frame.NewSeries(name, vals, labels)
		},
	}
	for name, fn := range fns {
		if err := obj.Set(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// fits aborts the run when a rows by cols table would exceed the output
// ceiling. Columns alone count as cells so a wide empty table is refused
// as well.
func (e *env) fits(rows, cols int64) error {
	measured := satMul(rows, cols)
	if cols > measured {
		measured = cols
	}
	if measured <= int64(e.maxCells) {
		return nil
	}
	if measured > math.MaxInt32 {
		measured = math.MaxInt32
	}
	return e.abort(&result.OutputTooLargeError{Measured: int(measured), Ceiling: e.maxCells})
}

// exportTo converts v into dst, leaving dst untouched for null and
// undefined.
func (e *env) exportTo(v goja.Value, dst any) error {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return e.vm.ExportTo(v, dst)
}

// length reads the length property of an array-like value without
// converting it.
func length(v goja.Value) int64 {
	obj, ok := v.(*goja.Object)
	if !ok {
		return 0
	}
	n := obj.Get("length")
	if n == nil {
		return 0
	}
	return max(n.ToInteger(), 0)
}

func satMul(a, b int64) int64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}

func (e *env) chartModule(obj *goja.Object) error {
	for _, kind := range []string{"bar", "line", "pie", "area", "scatter"} {
		chartType := kind
		if err := obj.Set(kind, func(title string, series ...*frame.Series) (*frame.Figure, error) {
			return frame.NewFigure(chartType, title, series...)
		}); err != nil {
			return err
		}
	}
	return nil
}
