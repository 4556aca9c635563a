package frame

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoColumn is returned when a table has no column with the requested name.
var ErrNoColumn = errors.New("frame: no such column")

// Table is a two-dimensional table. Every row has exactly len(Columns)
// cells.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable creates a table, rejecting rows whose width does not match the
// number of columns.
func NewTable(columns []string, rows [][]any) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("frame: row %d has %d cells, want %d", i, len(row), len(columns))
		}
	}
	if rows == nil {
		rows = [][]any{}
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// FromRecords builds a table from records, reading the given columns from
// each. Missing keys become nil.
func FromRecords(columns []string, records []map[string]any) *Table {
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(columns))
		for j, col := range columns {
			row[j] = rec[col]
		}
		rows[i] = row
	}
	return &Table{Columns: columns, Rows: rows}
}

// Zeros returns a rows by cols table filled with 0. Columns are named
// c0, c1, and so on.
func Zeros(rows, cols int) (*Table, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("frame: invalid shape %dx%d", rows, cols)
	}
	columns := make([]string, cols)
	for j := range columns {
		columns[j] = fmt.Sprintf("c%d", j)
	}
	data := make([][]any, rows)
	for i := range data {
		row := make([]any, cols)
		for j := range row {
			row[j] = 0
		}
		data[i] = row
	}
	return &Table{Columns: columns, Rows: data}, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// Cells returns rows times columns.
func (t *Table) Cells() int {
	return len(t.Rows) * len(t.Columns)
}

func (t *Table) columnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q (have %s)", ErrNoColumn, name, strings.Join(t.Columns, ", "))
}

// Column returns the named column as a series.
func (t *Table) Column(name string) (*Series, error) {
	idx, err := t.columnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return &Series{Name: name, Values: values}, nil
}

// Head returns a table holding the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j, err := t.columnIndex(name)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]any, len(idx))
		for k, j := range idx {
			out[k] = row[j]
		}
		rows[i] = out
	}
	return &Table{Columns: append([]string(nil), names...), Rows: rows}, nil
}

// Filter returns the rows whose column equals value. Numbers compare by
// value regardless of their Go type.
func (t *Table) Filter(column string, value any) (*Table, error) {
	idx, err := t.columnIndex(column)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, 0)
	for _, row := range t.Rows {
		if cellEqual(row[idx], value) {
			rows = append(rows, row)
		}
	}
	return &Table{Columns: t.Columns, Rows: rows}, nil
}

// SortBy returns a copy of the table sorted on column. Numeric cells sort
// numerically, everything else by its string form.
func (t *Table) SortBy(column string, descending bool) (*Table, error) {
	idx, err := t.columnIndex(column)
	if err != nil {
		return nil, err
	}
	rows := append([][]any(nil), t.Rows...)
	sort.SliceStable(rows, func(a, b int) bool {
		less := cellLess(rows[a][idx], rows[b][idx])
		if descending {
			return cellLess(rows[b][idx], rows[a][idx])
		}
		return less
	})
	return &Table{Columns: t.Columns, Rows: rows}, nil
}

// Aggregate groups rows by the by column and reduces the measure column
// with fn (sum, count, mean, min or max). Groups keep first-seen order.
func (t *Table) Aggregate(by, measure, fn string) (*Series, error) {
	byIdx, err := t.columnIndex(by)
	if err != nil {
		return nil, err
	}
	mIdx, err := t.columnIndex(measure)
	if err != nil {
		return nil, err
	}
	reduce, ok := reducers[fn]
	if !ok {
		return nil, fmt.Errorf("frame: unknown aggregation %q", fn)
	}

	var order []string
	groups := make(map[string][]float64)
	for _, row := range t.Rows {
		key := fmt.Sprint(row[byIdx])
		if _, seen := groups[key]; !seen {
			order = append(order, key)
			groups[key] = nil
		}
		if f, ok := ParseFloat(row[mIdx]); ok {
			groups[key] = append(groups[key], f)
		}
	}

	values := make([]any, len(order))
	for i, key := range order {
		values[i] = reduce(groups[key])
	}
	return &Series{Name: measure, Index: order, Values: values}, nil
}

// Records returns the rows as column-keyed maps.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for j, col := range t.Columns {
			rec[col] = row[j]
		}
		out[i] = rec
	}
	return out
}

var reducers = map[string]func([]float64) any{
	"sum":   func(xs []float64) any { return Sum(xs) },
	"count": func(xs []float64) any { return int64(len(xs)) },
	"mean":  nilOnEmpty(Mean),
	"min":   nilOnEmpty(Min),
	"max":   nilOnEmpty(Max),
}

func nilOnEmpty(f func([]float64) (float64, error)) func([]float64) any {
	return func(xs []float64) any {
		v, err := f(xs)
		if err != nil {
			return nil
		}
		return v
	}
}

func cellEqual(a, b any) bool {
	fa, okA := Float(a)
	fb, okB := Float(b)
	if okA && okB {
		return fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func cellLess(a, b any) bool {
	fa, okA := ParseFloat(a)
	fb, okB := ParseFloat(b)
	if okA && okB {
		return fa < fb
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
