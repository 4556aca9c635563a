package exec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/snippetexec/datasource"
	"github.com/jonwraymond/snippetexec/frame"
	"github.com/jonwraymond/snippetexec/metrics"
	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime"
	"github.com/jonwraymond/snippetexec/runtime/backend/worker"
)

const helperEnv = "SNIPPETEXEC_EXEC_WORKER"

// TestMain lets the test binary act as the worker process.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "" {
		os.Exit(m.Run())
	}
	if err := worker.Serve(context.Background(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func openOrders(t *testing.T) *datasource.Source {
	t.Helper()
	ctx := context.Background()
	db, err := sql.Open(datasource.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE orders (region TEXT, amount REAL);
		INSERT INTO orders VALUES ('north', 120.5), ('south', 80.0), ('north', 150.0);`); err != nil {
		t.Fatalf("seeding database: %v", err)
	}
	return datasource.New(db, datasource.DriverSQLite, 0)
}

func newTestExec(t *testing.T, opts Options) *Exec {
	t.Helper()
	if opts.Data == nil {
		opts.Data = openOrders(t)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewMemoryStore(map[string]float64{"dau": 1500, "signups": 30})
	}
	if opts.DefaultTimeout == 0 {
		opts.DefaultTimeout = 2 * time.Second
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func workerOptions() Options {
	return Options{
		EnableWorker:  true,
		WorkerCommand: os.Args[0],
		WorkerArgs:    []string{"-test.run=^$"},
		WorkerEnv:     append(os.Environ(), helperEnv+"=1"),
	}
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if e.Profile() != runtime.ProfileDev {
		t.Errorf("Profile() = %v, want dev", e.Profile())
	}
	if e.opts.MaxCalls != DefaultMaxCalls {
		t.Errorf("MaxCalls = %d, want %d", e.opts.MaxCalls, DefaultMaxCalls)
	}
	if e.opts.DefaultTimeout != DefaultTimeout {
		t.Errorf("DefaultTimeout = %v, want %v", e.opts.DefaultTimeout, DefaultTimeout)
	}
	if len(e.Functions()) == 0 {
		t.Error("Functions() is empty, want the default registry")
	}
	if e.Runtime() == nil {
		t.Error("Runtime() = nil")
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"bad profile", Options{SecurityProfile: "paranoid"}, ErrInvalidProfile},
		{"hardened without worker", Options{SecurityProfile: runtime.ProfileHardened}, ErrWorkerRequired},
		{"negative calls", Options{MaxCalls: -1}, ErrNegativeSetting},
		{"negative timeout", Options{DefaultTimeout: -time.Second}, ErrNegativeSetting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExecute_QueryTable(t *testing.T) {
	e := newTestExec(t, Options{})
	res, err := e.Execute(context.Background(), `
output = query("SELECT region, SUM(amount) AS total FROM orders GROUP BY region ORDER BY region");`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Envelope.Kind != result.KindTable {
		t.Fatalf("Envelope = %+v, want table", res.Envelope)
	}
	tbl := res.Envelope.Value.(*frame.Table)
	if !reflect.DeepEqual(tbl.Columns, []string{"region", "total"}) {
		t.Errorf("Columns = %v", tbl.Columns)
	}
	if tbl.NumRows() != 2 || tbl.Rows[0][0] != "north" || tbl.Rows[0][1] != 270.5 {
		t.Errorf("Rows = %v", tbl.Rows)
	}
	if res.Backend != runtime.BackendInProcess {
		t.Errorf("Backend = %v, want inprocess", res.Backend)
	}
	if len(res.Calls) != 1 || res.Calls[0].Op != runtime.OpQuery {
		t.Errorf("Calls = %+v, want one query", res.Calls)
	}
}

func TestExecute_WriteRejected(t *testing.T) {
	e := newTestExec(t, Options{})
	res, err := e.Execute(context.Background(), `output = query("DELETE FROM orders");`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Envelope.Reason() != result.ReasonRuntimeFailure {
		t.Errorf("Envelope = %+v, want runtime failure", res.Envelope)
	}
	if !strings.Contains(res.Envelope.Message(), "SELECT") {
		t.Errorf("Message() = %q, want read-only rejection", res.Envelope.Message())
	}
}

func TestExecute_MetricsAndFunctions(t *testing.T) {
	e := newTestExec(t, Options{})
	res, err := e.Execute(context.Background(), `
output = {dau: metric("dau"), avg: analytics.call("mean", {values: [1, 2, 3]})};`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Envelope.Kind != result.KindMapping {
		t.Fatalf("Envelope = %+v, want mapping", res.Envelope)
	}
	m := res.Envelope.Value.(*result.OrderedMap)
	if !reflect.DeepEqual(m.Keys(), []string{"dau", "avg"}) {
		t.Errorf("Keys() = %v, want [dau avg]", m.Keys())
	}
	if v, _ := m.Get("avg"); v != int64(2) {
		t.Errorf("avg = %#v, want 2", v)
	}
}

func TestExecuteParams_AllowNarrowed(t *testing.T) {
	e := newTestExec(t, Options{})
	res, err := e.ExecuteParams(context.Background(), Params{
		Code:  `var m = require("metrics"); output = 1;`,
		Allow: []string{"math"},
	})
	if err != nil {
		t.Fatalf("ExecuteParams() error = %v", err)
	}
	if res.Envelope.Reason() != result.ReasonCapabilityRejected {
		t.Errorf("Envelope = %+v, want capability rejection", res.Envelope)
	}
}

func TestExecute_ConfiguredAllowList(t *testing.T) {
	e := newTestExec(t, Options{Allow: []string{"math"}})
	res, err := e.Execute(context.Background(), `require("data"); output = 1;`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Envelope.Reason() != result.ReasonCapabilityRejected {
		t.Errorf("Envelope = %+v, want capability rejection", res.Envelope)
	}
}

func TestExecute_OutputCeiling(t *testing.T) {
	e := newTestExec(t, Options{MaxOutputCells: 10})
	res, err := e.Execute(context.Background(), `output = frame.zeros(5, 5);`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Envelope.Reason() != result.ReasonOutputTooLarge {
		t.Errorf("Envelope = %+v, want output_too_large", res.Envelope)
	}
}

func TestExecuteLegacy(t *testing.T) {
	e := newTestExec(t, Options{})
	if got := e.ExecuteLegacy(context.Background(), `output = metric("signups");`); got != int64(30) {
		t.Errorf("ExecuteLegacy() = %#v, want 30", got)
	}

	got := e.ExecuteLegacy(context.Background(), `var x = 1;`)
	m, ok := got.(map[string]any)
	if !ok || !strings.Contains(fmt.Sprint(m["error"]), "output") {
		t.Errorf("ExecuteLegacy() = %#v, want error mapping", got)
	}

	got = e.ExecuteLegacy(context.Background(), `output = {"a": 1, "b": 2};`)
	if !reflect.DeepEqual(got, map[string]any{"a": int64(1), "b": int64(2)}) {
		t.Errorf("ExecuteLegacy() = %#v, want plain mapping", got)
	}
}

func TestRegisterFunction(t *testing.T) {
	e := newTestExec(t, Options{})
	err := e.RegisterFunction(Function{
		Name:        "double",
		Description: "Doubles a number",
		Tags:        []string{"math"},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			v, _ := args["x"].(int64)
			return v * 2, nil
		},
	})
	if err != nil {
		t.Fatalf("RegisterFunction() error = %v", err)
	}
	res, err := e.Execute(context.Background(), `output = analytics.call("double", {x: 21});`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Envelope.Kind != result.KindScalar || res.Envelope.Value != int64(42) {
		t.Errorf("Envelope = %+v, want scalar 42", res.Envelope)
	}
}

func TestSearchAndDescribeFunctions(t *testing.T) {
	e := newTestExec(t, Options{})
	ctx := context.Background()

	hits, err := e.SearchFunctions(ctx, "correlation", 3)
	if err != nil {
		t.Fatalf("SearchFunctions() error = %v", err)
	}
	found := false
	for _, h := range hits {
		found = found || h.ID == "analytics:correlation"
	}
	if !found {
		t.Errorf("SearchFunctions() = %+v, want analytics:correlation", hits)
	}

	doc, err := e.DescribeFunction(ctx, "analytics:median", tooldoc.DetailSummary)
	if err != nil {
		t.Fatalf("DescribeFunction() error = %v", err)
	}
	if doc.Summary == "" {
		t.Error("DescribeFunction() summary is empty")
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := e.SearchFunctions(canceled, "mean", 1); !errors.Is(err, context.Canceled) {
		t.Errorf("SearchFunctions() error = %v, want context.Canceled", err)
	}
}

func TestExecute_HardenedWorker(t *testing.T) {
	opts := workerOptions()
	opts.SecurityProfile = runtime.ProfileHardened
	e := newTestExec(t, opts)

	res, err := e.Execute(context.Background(), `
var t = query("SELECT region, amount FROM orders");
print("rows", t.numRows());
output = t.aggregate("region", "amount", "sum");`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Backend != runtime.BackendWorker {
		t.Errorf("Backend = %v, want worker", res.Backend)
	}
	if res.Envelope.Kind != result.KindSeries {
		t.Fatalf("Envelope = %+v, want series", res.Envelope)
	}
	s := res.Envelope.Value.(*frame.Series)
	if !reflect.DeepEqual(s.Index, []string{"north", "south"}) {
		t.Errorf("Index = %v, want [north south]", s.Index)
	}
	if res.Stdout != "rows 3\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "rows 3\n")
	}
	if len(res.Calls) != 1 {
		t.Errorf("Calls = %+v, want one proxied query", res.Calls)
	}
}

func TestExecute_WorkerTimeout(t *testing.T) {
	opts := workerOptions()
	opts.SecurityProfile = runtime.ProfileStandard
	e := newTestExec(t, opts)

	res, err := e.ExecuteParams(context.Background(), Params{
		Code:    `while (true) {}`,
		Timeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("ExecuteParams() error = %v", err)
	}
	if res.Envelope.Reason() != result.ReasonTimedOut {
		t.Errorf("Envelope = %+v, want timed_out", res.Envelope)
	}
	if res.State != runtime.StateTimedOut {
		t.Errorf("State = %v, want timed_out", res.State)
	}
}

func TestExecute_RepeatableAcrossBackends(t *testing.T) {
	snippets := []struct {
		name string
		code string
		kind result.Kind
	}{
		{name: "scalar", code: `output = Math.round(metric("dau") / 3);`, kind: result.KindScalar},
		{name: "nested mapping", code: `output = {b: {y: 1, x: [1, {q: "r", p: null}]}, a: "s"};`, kind: result.KindMapping},
		{name: "table", code: `output = query("SELECT region, amount FROM orders ORDER BY amount");`, kind: result.KindTable},
		{name: "series", code: `output = query("SELECT region, amount FROM orders").aggregate("region", "amount", "sum");`, kind: result.KindSeries},
		{name: "figure", code: `output = chart.bar("Orders", frame.series("amount", [1, 2.5], ["a", "b"]));`, kind: result.KindFigure},
		{name: "rejected", code: `require("os"); output = 1;`, kind: result.KindError},
		{name: "undefined", code: `output = [1, 2].find(function (x) { return x > 5; });`, kind: result.KindObject},
	}

	hardened := workerOptions()
	hardened.SecurityProfile = runtime.ProfileHardened
	backends := map[string]*Exec{
		"inprocess": newTestExec(t, Options{}),
		"worker":    newTestExec(t, hardened),
	}

	for _, sn := range snippets {
		t.Run(sn.name, func(t *testing.T) {
			encoded := map[string]string{}
			for name, e := range backends {
				first, err := e.Execute(context.Background(), sn.code)
				if err != nil {
					t.Fatalf("%s: Execute() error = %v", name, err)
				}
				second, err := e.Execute(context.Background(), sn.code)
				if err != nil {
					t.Fatalf("%s: second Execute() error = %v", name, err)
				}
				if first.Envelope.Kind != sn.kind {
					t.Errorf("%s: Kind = %v, want %v", name, first.Envelope.Kind, sn.kind)
				}
				if first.Envelope.Kind != second.Envelope.Kind || !reflect.DeepEqual(first.Envelope.Value, second.Envelope.Value) {
					t.Errorf("%s: runs differ: %+v then %+v", name, first.Envelope, second.Envelope)
				}
				data, err := json.Marshal(first.Envelope.Value)
				if err != nil {
					t.Fatalf("%s: json.Marshal() error = %v", name, err)
				}
				encoded[name] = string(data)
			}
			if encoded["inprocess"] != encoded["worker"] {
				t.Errorf("backends differ:\n inprocess %s\n worker    %s", encoded["inprocess"], encoded["worker"])
			}
		})
	}
}
