package result

import (
	"reflect"
	"testing"

	"github.com/jonwraymond/snippetexec/frame"
)

func TestClassify_Kinds(t *testing.T) {
	series, _ := frame.NewSeries("sales", []any{1, 2, 3}, nil)
	table, _ := frame.NewTable([]string{"a", "b"}, [][]any{{1, 2}})
	fig, _ := frame.NewFigure("bar", "t", series)
	om := NewOrderedMap()
	om.Set("x", 1)

	tests := []struct {
		name  string
		value any
		want  Kind
	}{
		{name: "nil", value: nil, want: KindObject},
		{name: "int", value: 42, want: KindScalar},
		{name: "int64", value: int64(42), want: KindScalar},
		{name: "float", value: 3.5, want: KindScalar},
		{name: "uint8", value: uint8(7), want: KindScalar},
		{name: "bool", value: true, want: KindObject},
		{name: "string", value: "hello", want: KindObject},
		{name: "series", value: series, want: KindSeries},
		{name: "table", value: table, want: KindTable},
		{name: "ordered map", value: om, want: KindMapping},
		{name: "plain map", value: map[string]any{"b": 1, "a": 2}, want: KindMapping},
		{name: "figure", value: fig, want: KindFigure},
		{name: "slice", value: []any{1, 2}, want: KindObject},
		{name: "nil table", value: (*frame.Table)(nil), want: KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.value)
			if got.Kind != tt.want {
				t.Errorf("Classify(%v).Kind = %v, want %v", tt.value, got.Kind, tt.want)
			}
			if got.IsError() {
				t.Errorf("Classify(%v) returned an error envelope", tt.value)
			}
		})
	}
}

func TestClassify_NilIsEmptyObject(t *testing.T) {
	got := Classify(nil)
	m, ok := got.Value.(map[string]any)
	if !ok || len(m) != 0 {
		t.Errorf("Classify(nil).Value = %#v, want empty map", got.Value)
	}
}

func TestClassify_ScalarKeepsValue(t *testing.T) {
	got := Classify(int64(42))
	if got.Value != int64(42) {
		t.Errorf("Value = %#v, want int64(42)", got.Value)
	}
}

func TestClassify_MappingKeysInInsertionOrder(t *testing.T) {
	om := NewOrderedMap()
	om.Set("b", 2)
	om.Set("a", 1)
	om.Set("b", 3)

	got := Classify(om)
	want := []string{"b", "a"}
	if !reflect.DeepEqual(got.Meta["keys"], want) {
		t.Errorf("Meta[keys] = %v, want %v", got.Meta["keys"], want)
	}
}

func TestClassify_PlainMapKeysSorted(t *testing.T) {
	got := Classify(map[string]any{"b": 1, "a": 2})
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got.Meta["keys"], want) {
		t.Errorf("Meta[keys] = %v, want %v", got.Meta["keys"], want)
	}
}

func TestClassify_TableMeta(t *testing.T) {
	table, _ := frame.Zeros(3, 2)
	got := Classify(table)

	if got.Meta["rows"] != 3 || got.Meta["columns"] != 2 {
		t.Errorf("Meta = %v, want rows=3 columns=2", got.Meta)
	}
	if !reflect.DeepEqual(got.Meta["shape"], []int{3, 2}) {
		t.Errorf("Meta[shape] = %v, want [3 2]", got.Meta["shape"])
	}
	if !reflect.DeepEqual(got.Meta["column_names"], []string{"c0", "c1"}) {
		t.Errorf("Meta[column_names] = %v", got.Meta["column_names"])
	}
}

func TestClassify_SeriesMeta(t *testing.T) {
	s, _ := frame.NewSeries("x", []any{1, 2, 3, 4}, nil)
	got := Classify(s)
	if got.Meta["length"] != 4 || got.Meta["name"] != "x" {
		t.Errorf("Meta = %v, want length=4 name=x", got.Meta)
	}
}

func TestFinalize_TooLarge(t *testing.T) {
	table, _ := frame.Zeros(2000, 2000)
	got := Finalize(table, DefaultMaxOutputCells)

	if !got.IsError() {
		t.Fatalf("Finalize() kind = %v, want error", got.Kind)
	}
	if got.Reason() != ReasonOutputTooLarge {
		t.Errorf("Reason() = %v, want %v", got.Reason(), ReasonOutputTooLarge)
	}
	if got.Meta["measured"] != 4_000_000 {
		t.Errorf("Meta[measured] = %v, want 4000000", got.Meta["measured"])
	}
}

func TestFinalize_WithinLimit(t *testing.T) {
	table, _ := frame.Zeros(10, 10)
	got := Finalize(table, 100)
	if got.Kind != KindTable {
		t.Errorf("Finalize() kind = %v, want table", got.Kind)
	}
}
