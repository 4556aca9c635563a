package legacy

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jonwraymond/snippetexec/frame"
	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime"
)

// stubRuntime returns a fixed envelope or error.
type stubRuntime struct {
	envelope result.Result
	err      error
	lastCode string
}

func (s *stubRuntime) Execute(_ context.Context, req runtime.ExecuteRequest) (runtime.ExecuteResult, error) {
	s.lastCode = req.Code
	if s.err != nil {
		return runtime.ExecuteResult{}, s.err
	}
	return runtime.ExecuteResult{Envelope: s.envelope}, nil
}

func TestUnwrap(t *testing.T) {
	om := result.NewOrderedMap()
	om.Set("a", int64(1))
	om.Set("b", int64(2))
	tbl, _ := frame.NewTable([]string{"x"}, [][]any{{1}})

	tests := []struct {
		name string
		in   result.Result
		want any
	}{
		{"scalar", result.Scalar(int64(42)), int64(42)},
		{"error", result.Error(result.ReasonTimedOut, "execution timed out after 5s"), map[string]any{"error": "execution timed out after 5s"}},
		{"mapping", result.Mapping(om), map[string]any{"a": int64(1), "b": int64(2)}},
		{"table", result.Table(tbl), tbl},
		{"object", result.Object("text", "string"), "text"},
		{"absent", result.Classify(nil), map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unwrap(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unwrap() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestRecords(t *testing.T) {
	tbl, _ := frame.NewTable([]string{"region", "sales"}, [][]any{{"north", 10}, {"south", 20}})
	recs, ok := Records(result.Table(tbl))
	if !ok {
		t.Fatal("Records() ok = false, want true")
	}
	want := []map[string]any{{"region": "north", "sales": 10}, {"region": "south", "sales": 20}}
	if !reflect.DeepEqual(recs, want) {
		t.Errorf("Records() = %v, want %v", recs, want)
	}

	if _, ok := Records(result.Scalar(1)); ok {
		t.Error("Records(scalar) ok = true, want false")
	}
}

func TestRun(t *testing.T) {
	rt := &stubRuntime{envelope: result.Scalar(int64(7))}
	if got := Run(context.Background(), rt, "output = 7"); got != int64(7) {
		t.Errorf("Run() = %v, want 7", got)
	}
	if rt.lastCode != "output = 7" {
		t.Errorf("code = %q, want %q", rt.lastCode, "output = 7")
	}

	rt = &stubRuntime{err: errors.New("runtime unavailable")}
	got := Run(context.Background(), rt, "output = 7")
	if !reflect.DeepEqual(got, map[string]any{"error": "runtime unavailable"}) {
		t.Errorf("Run() = %v, want error mapping", got)
	}
}
