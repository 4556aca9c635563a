package script

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonwraymond/snippetexec/frame"
)

func setAll(obj *goja.Object, fns map[string]any) error {
	for name, fn := range fns {
		if err := obj.Set(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// numbers accepts a JavaScript array or a series.
func numbers(v any) ([]float64, error) {
	switch x := v.(type) {
	case *frame.Series:
		return x.Floats(), nil
	case []any:
		return frame.Floats(x), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("expected an array or series, got %T", v)
}

func stat(f func([]float64) (float64, error)) func(any) (float64, error) {
	return func(v any) (float64, error) {
		xs, err := numbers(v)
		if err != nil {
			return 0, err
		}
		return f(xs)
	}
}

func (e *env) mathModule(obj *goja.Object) error {
	return setAll(obj, map[string]any{
		"sum": func(v any) (float64, error) {
			xs, err := numbers(v)
			return frame.Sum(xs), err
		},
		"mean":   stat(frame.Mean),
		"median": stat(frame.Median),
		"std":    stat(frame.StdDev),
		"min":    stat(frame.Min),
		"max":    stat(frame.Max),
		"round":  frame.Round,
		"pctChange": func(v any) ([]any, error) {
			xs, err := numbers(v)
			if err != nil {
				return nil, err
			}
			values := make([]any, len(xs))
			for i, x := range xs {
				values[i] = x
			}
			return (&frame.Series{Values: values}).PctChange().Values, nil
		},
		"movingAverage": func(v any, window int) ([]float64, error) {
			xs, err := numbers(v)
			if err != nil {
				return nil, err
			}
			return frame.MovingAverage(xs, window)
		},
	})
}

func (e *env) textModule(obj *goja.Object) error {
	title := cases.Title(language.English)
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)
	return setAll(obj, map[string]any{
		"title":    func(s string) string { return title.String(s) },
		"upper":    func(s string) string { return upper.String(s) },
		"lower":    func(s string) string { return lower.String(s) },
		"trim":     strings.TrimSpace,
		"split":    strings.Split,
		"join":     strings.Join,
		"contains": strings.Contains,
		"replace":  strings.ReplaceAll,
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if n < 0 || len(r) <= n {
				return s
			}
			return string(r[:n])
		},
	})
}

var (
	timeInputs = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02", "2006-01"}
	timeNamed  = map[string]string{
		"rfc3339": time.RFC3339,
		"date":    "2006-01-02",
		"month":   "2006-01",
		"year":    "2006",
	}
)

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func (e *env) timeModule(obj *goja.Object) error {
	return setAll(obj, map[string]any{
		"now": func() string { return time.Now().UTC().Format(time.RFC3339) },
		"parse": func(s string) (string, error) {
			t, err := parseTime(s)
			if err != nil {
				return "", err
			}
			return t.Format(time.RFC3339), nil
		},
		"format": func(s, layout string) (string, error) {
			t, err := parseTime(s)
			if err != nil {
				return "", err
			}
			if named, ok := timeNamed[layout]; ok {
				layout = named
			}
			return t.Format(layout), nil
		},
		"addDays": func(s string, days int) (string, error) {
			t, err := parseTime(s)
			if err != nil {
				return "", err
			}
			return t.AddDate(0, 0, days).Format(time.RFC3339), nil
		},
		"diffDays": func(a, b string) (float64, error) {
			ta, err := parseTime(a)
			if err != nil {
				return 0, err
			}
			tb, err := parseTime(b)
			if err != nil {
				return 0, err
			}
			return tb.Sub(ta).Hours() / 24, nil
		},
	})
}

func (e *env) jsonModule(obj *goja.Object) error {
	return setAll(obj, map[string]any{
		"parse": func(s string) (goja.Value, error) {
			var v any
			if err := json.Unmarshal([]byte(s), &v); err != nil {
				return nil, err
			}
			return e.vm.ToValue(v), nil
		},
		"stringify": func(v goja.Value) (string, error) {
			x := newExporter(e.ctx, e.expired, e.maxCells)
			value, err := x.export(v, 0)
			if err != nil {
				return "", err
			}
			data, err := json.Marshal(value)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	})
}
