package frame

import "fmt"

// Figure describes a chart. Rendering is left to the consumer.
type Figure struct {
	ChartType string         `json:"chartType"`
	Title     string         `json:"title"`
	XAxis     string         `json:"xAxis,omitempty"`
	YAxis     string         `json:"yAxis,omitempty"`
	Series    []FigureSeries `json:"series"`
	Colors    []string       `json:"colors,omitempty"`
}

// FigureSeries is one data series of a figure.
type FigureSeries struct {
	Name string  `json:"name"`
	Data []Point `json:"data"`
}

// Point is a labeled value.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

var chartTypes = map[string]bool{
	"bar":         true,
	"line":        true,
	"pie":         true,
	"area":        true,
	"scatter":     true,
	"stacked_bar": true,
}

var palette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// NewFigure builds a figure of the given chart type from one or more
// series. Non-numeric values are plotted as zero.
func NewFigure(chartType, title string, series ...*Series) (*Figure, error) {
	if !chartTypes[chartType] {
		return nil, fmt.Errorf("frame: unsupported chart type %q", chartType)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("frame: %s chart needs at least one series", chartType)
	}

	fig := &Figure{
		ChartType: chartType,
		Title:     title,
		Series:    make([]FigureSeries, 0, len(series)),
		Colors:    make([]string, 0, len(series)),
	}
	for i, s := range series {
		if s == nil {
			return nil, fmt.Errorf("frame: series %d is empty", i)
		}
		points := make([]Point, len(s.Values))
		for j, v := range s.Values {
			f, _ := ParseFloat(v)
			points[j] = Point{Label: s.Label(j), Value: f}
		}
		fig.Series = append(fig.Series, FigureSeries{Name: s.Name, Data: points})
		fig.Colors = append(fig.Colors, palette[i%len(palette)])
	}
	return fig, nil
}

// Axes sets the axis titles and returns the figure for chaining.
func (f *Figure) Axes(x, y string) *Figure {
	f.XAxis = x
	f.YAxis = y
	return f
}

// PointCount returns the number of points across all series.
func (f *Figure) PointCount() int {
	n := 0
	for _, s := range f.Series {
		n += len(s.Data)
	}
	return n
}
