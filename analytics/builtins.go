package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/jonwraymond/snippetexec/frame"
)

var valuesSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"values": map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
	},
	"required": []any{"values"},
}

func builtins() []Function {
	stat := func(name, title, desc string, fn func([]float64) (float64, error)) Function {
		return Function{
			Name:        name,
			Title:       title,
			Description: desc,
			Notes:       "Arguments: values (array or series). Non-numeric entries are ignored.",
			InputSchema: valuesSchema,
			Tags:        []string{"statistics", "aggregate"},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				xs, err := floatsArg(args, "values")
				if err != nil {
					return nil, err
				}
				return fn(xs)
			},
		}
	}

	return []Function{
		stat("mean", "Mean", "Arithmetic mean of a list of numbers", frame.Mean),
		stat("sum", "Sum", "Sum of a list of numbers", func(xs []float64) (float64, error) {
			return frame.Sum(xs), nil
		}),
		stat("median", "Median", "Median of a list of numbers", frame.Median),
		stat("stddev", "Standard deviation", "Sample standard deviation of a list of numbers", frame.StdDev),
		stat("min", "Minimum", "Smallest value in a list of numbers", frame.Min),
		stat("max", "Maximum", "Largest value in a list of numbers", frame.Max),
		{
			Name:        "pct_change",
			Title:       "Percent change",
			Description: "Period over period percent change of a list of numbers",
			Notes:       "Arguments: values. The first entry, and any entry following a zero, is null.",
			InputSchema: valuesSchema,
			Tags:        []string{"trend", "change"},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				xs, err := floatsArg(args, "values")
				if err != nil {
					return nil, err
				}
				out := make([]any, len(xs))
				for i := 1; i < len(xs); i++ {
					if xs[i-1] != 0 {
						out[i] = (xs[i] - xs[i-1]) / xs[i-1]
					}
				}
				return out, nil
			},
		},
		{
			Name:        "moving_average",
			Title:       "Moving average",
			Description: "Trailing moving average over a fixed window",
			Notes:       "Arguments: values, window (positive integer, at most the number of values).",
			Tags:        []string{"trend", "smoothing"},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				xs, err := floatsArg(args, "values")
				if err != nil {
					return nil, err
				}
				window, ok := frame.Float(args["window"])
				if !ok {
					return nil, fmt.Errorf("%w: window must be a number", ErrInvalidArgs)
				}
				return frame.MovingAverage(xs, int(window))
			},
		},
		{
			Name:        "growth_rate",
			Title:       "Compound growth rate",
			Description: "Compound growth rate per period between the first and last value",
			Notes:       "Arguments: values. Needs at least two values and a positive first value.",
			InputSchema: valuesSchema,
			Tags:        []string{"trend", "growth"},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				xs, err := floatsArg(args, "values")
				if err != nil {
					return nil, err
				}
				if len(xs) < 2 || xs[0] <= 0 {
					return nil, fmt.Errorf("%w: growth rate needs at least two values starting above zero", ErrInvalidArgs)
				}
				periods := float64(len(xs) - 1)
				return math.Pow(xs[len(xs)-1]/xs[0], 1/periods) - 1, nil
			},
		},
		{
			Name:        "correlation",
			Title:       "Correlation",
			Description: "Pearson correlation coefficient between two lists of numbers",
			Notes:       "Arguments: x, y (equal length arrays or series).",
			Tags:        []string{"statistics", "relationship"},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				xs, err := floatsArg(args, "x")
				if err != nil {
					return nil, err
				}
				ys, err := floatsArg(args, "y")
				if err != nil {
					return nil, err
				}
				return frame.Correlation(xs, ys)
			},
		},
	}
}

// floatsArg extracts a list of numbers from args[key]. Series arrive as
// *frame.Series in-process and as their encoded map from a worker.
func floatsArg(args map[string]any, key string) ([]float64, error) {
	switch v := args[key].(type) {
	case []float64:
		return v, nil
	case []any:
		return frame.Floats(v), nil
	case *frame.Series:
		return v.Floats(), nil
	case map[string]any:
		if values, ok := v["values"].([]any); ok {
			return frame.Floats(values), nil
		}
	case nil:
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidArgs, key)
	}
	return nil, fmt.Errorf("%w: %s must be an array of numbers, got %T", ErrInvalidArgs, key, args[key])
}
