package frame

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func salesTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(
		[]string{"region", "month", "revenue"},
		[][]any{
			{"east", "jan", 100},
			{"west", "jan", 80},
			{"east", "feb", 120},
			{"west", "feb", 60.5},
		},
	)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return tbl
}

func TestNewTable_RejectsRaggedRows(t *testing.T) {
	_, err := NewTable([]string{"a", "b"}, [][]any{{1}})
	if err == nil {
		t.Error("NewTable() error = nil, want error for ragged row")
	}
}

func TestZeros(t *testing.T) {
	tbl, err := Zeros(3, 4)
	if err != nil {
		t.Fatalf("Zeros() error = %v", err)
	}
	if tbl.NumRows() != 3 || tbl.NumColumns() != 4 || tbl.Cells() != 12 {
		t.Errorf("shape = %dx%d, want 3x4", tbl.NumRows(), tbl.NumColumns())
	}
	if _, err := Zeros(-1, 2); err == nil {
		t.Error("Zeros(-1, 2) error = nil, want error")
	}
}

func TestTable_Column(t *testing.T) {
	tbl := salesTable(t)
	col, err := tbl.Column("revenue")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if col.Len() != 4 || col.Sum() != 360.5 {
		t.Errorf("Column(revenue) len=%d sum=%v", col.Len(), col.Sum())
	}
	if _, err := tbl.Column("nope"); !errors.Is(err, ErrNoColumn) {
		t.Errorf("Column(nope) error = %v, want ErrNoColumn", err)
	}
}

func TestTable_Aggregate(t *testing.T) {
	tbl := salesTable(t)

	tests := []struct {
		fn   string
		want []any
	}{
		{"sum", []any{220.0, 140.5}},
		{"count", []any{int64(2), int64(2)}},
		{"max", []any{120.0, 80.0}},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			s, err := tbl.Aggregate("region", "revenue", tt.fn)
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			if !reflect.DeepEqual(s.Index, []string{"east", "west"}) {
				t.Errorf("Index = %v, want [east west]", s.Index)
			}
			if !reflect.DeepEqual(s.Values, tt.want) {
				t.Errorf("Values = %v, want %v", s.Values, tt.want)
			}
		})
	}

	if _, err := tbl.Aggregate("region", "revenue", "mode"); err == nil {
		t.Error("Aggregate(mode) error = nil, want error")
	}
}

func TestTable_FilterSortSelect(t *testing.T) {
	tbl := salesTable(t)

	east, err := tbl.Filter("region", "east")
	if err != nil || east.NumRows() != 2 {
		t.Fatalf("Filter() rows = %d, err = %v", east.NumRows(), err)
	}

	sorted, err := tbl.SortBy("revenue", true)
	if err != nil {
		t.Fatalf("SortBy() error = %v", err)
	}
	if sorted.Rows[0][2] != 120 {
		t.Errorf("SortBy desc first = %v, want 120", sorted.Rows[0][2])
	}
	if tbl.Rows[0][2] != 100 {
		t.Error("SortBy() modified the receiver")
	}

	sel, err := tbl.Select("revenue", "region")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if !reflect.DeepEqual(sel.Rows[0], []any{100, "east"}) {
		t.Errorf("Select() first row = %v", sel.Rows[0])
	}
}

func TestTable_Records(t *testing.T) {
	tbl := salesTable(t)
	recs := tbl.Records()
	if len(recs) != 4 || recs[1]["region"] != "west" {
		t.Errorf("Records() = %v", recs)
	}
	back := FromRecords(tbl.Columns, recs)
	if !reflect.DeepEqual(back.Rows, tbl.Rows) {
		t.Errorf("FromRecords() rows = %v, want %v", back.Rows, tbl.Rows)
	}
}

func TestSeries_Stats(t *testing.T) {
	s, err := NewSeries("x", []any{2, 4, "n/a", 6}, nil)
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}
	if got, _ := s.Mean(); got != 4 {
		t.Errorf("Mean() = %v, want 4", got)
	}
	if got, _ := s.Median(); got != 4 {
		t.Errorf("Median() = %v, want 4", got)
	}
	if got, _ := s.Std(); got != 2 {
		t.Errorf("Std() = %v, want 2", got)
	}
	if got := s.Head(2); got.Len() != 2 {
		t.Errorf("Head(2).Len() = %d", got.Len())
	}
	if _, err := NewSeries("x", []any{1}, []string{"a", "b"}); err == nil {
		t.Error("NewSeries() with mismatched index error = nil")
	}
}

func TestSeries_PctChange(t *testing.T) {
	s, _ := NewSeries("x", []any{100, 110, 0, 5}, nil)
	got := s.PctChange().Values
	if got[0] != nil || got[3] != nil {
		t.Errorf("PctChange() = %v, want nil at 0 and 3", got)
	}
	if math.Abs(got[1].(float64)-0.1) > 1e-9 {
		t.Errorf("PctChange()[1] = %v, want 0.1", got[1])
	}
}

func TestStats_Empty(t *testing.T) {
	if _, err := Mean(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Mean(nil) error = %v, want ErrEmpty", err)
	}
	if _, err := StdDev([]float64{1}); err == nil {
		t.Error("StdDev(single) error = nil, want error")
	}
}

func TestStats_Values(t *testing.T) {
	tests := []struct {
		name string
		fn   func([]float64) (float64, error)
		in   []float64
		want float64
	}{
		{name: "mean", fn: Mean, in: []float64{1, 2, 3, 4}, want: 2.5},
		{name: "median odd", fn: Median, in: []float64{3, 1, 2}, want: 2},
		{name: "median even", fn: Median, in: []float64{4, 1, 3, 2}, want: 2.5},
		{name: "stddev", fn: StdDev, in: []float64{2, 4, 4, 4, 5, 5, 7, 9}, want: math.Sqrt(32.0 / 7)},
		{name: "min", fn: Min, in: []float64{3, -1, 2}, want: -1},
		{name: "max", fn: Max, in: []float64{3, -1, 2}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.in)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMedian_LeavesInputUnsorted(t *testing.T) {
	in := []float64{4, 1, 3, 2}
	if _, err := Median(in); err != nil {
		t.Fatalf("Median() error = %v", err)
	}
	if !reflect.DeepEqual(in, []float64{4, 1, 3, 2}) {
		t.Errorf("input = %v, want unchanged", in)
	}
}

func TestCorrelation(t *testing.T) {
	r, err := Correlation([]float64{1, 2, 3}, []float64{2, 4, 6})
	if err != nil || math.Abs(r-1) > 1e-9 {
		t.Errorf("Correlation(linear) = %v, %v; want 1", r, err)
	}
	if _, err := Correlation([]float64{1, 1, 1}, []float64{1, 2, 3}); err == nil {
		t.Error("Correlation(constant) error = nil, want error")
	}
	if _, err := Correlation([]float64{1, 2}, []float64{1}); err == nil {
		t.Error("Correlation(mismatched) error = nil, want error")
	}
	if _, err := Correlation([]float64{1}, []float64{1}); !errors.Is(err, ErrEmpty) {
		t.Errorf("Correlation(single) error = %v, want ErrEmpty", err)
	}
}

func TestMovingAverage(t *testing.T) {
	got, err := MovingAverage([]float64{1, 2, 3, 4}, 2)
	if err != nil {
		t.Fatalf("MovingAverage() error = %v", err)
	}
	if !reflect.DeepEqual(got, []float64{1.5, 2.5, 3.5}) {
		t.Errorf("MovingAverage() = %v, want [1.5 2.5 3.5]", got)
	}
	if _, err := MovingAverage([]float64{1}, 2); err == nil {
		t.Error("MovingAverage(window > len) error = nil, want error")
	}
}

func TestNewFigure(t *testing.T) {
	s, _ := NewSeries("revenue", []any{10, "20", nil}, []string{"a", "b", "c"})
	fig, err := NewFigure("bar", "Revenue", s)
	if err != nil {
		t.Fatalf("NewFigure() error = %v", err)
	}
	want := []Point{{"a", 10}, {"b", 20}, {"c", 0}}
	if !reflect.DeepEqual(fig.Series[0].Data, want) {
		t.Errorf("Data = %v, want %v", fig.Series[0].Data, want)
	}
	if fig.PointCount() != 3 || len(fig.Colors) != 1 {
		t.Errorf("PointCount() = %d colors = %v", fig.PointCount(), fig.Colors)
	}
	if _, err := NewFigure("radar", "x", s); err == nil {
		t.Error("NewFigure(radar) error = nil, want error")
	}
	if _, err := NewFigure("line", "x"); err == nil {
		t.Error("NewFigure() without series error = nil, want error")
	}
}
