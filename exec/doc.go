// Package exec assembles a complete snippet execution engine.
//
// It combines the analytics registry, the optional data source and metric
// store, and a runtime with in-process and worker backends into a single
// [Exec] value:
//
//	source, _ := datasource.Open(ctx, datasource.Config{Driver: "sqlite", DSN: "sales.db"})
//	engine, err := exec.New(exec.Options{
//	    Data:    source,
//	    Metrics: metrics.NewMemoryStore(map[string]float64{"dau": 1500}),
//	})
//
//	res, err := engine.Execute(ctx, `
//	    var t = query("SELECT region, amount FROM orders");
//	    output = t.aggregate("region", "amount", "sum");`)
//
// # Security Profiles
//
//   - dev: in-process execution; a busy in-process slot falls back to a
//     worker when workers are enabled
//   - standard: worker execution when workers are enabled, in-process
//     otherwise
//   - hardened: worker execution only; requires EnableWorker
//
// Worker processes run the current binary with the "worker" argument
// unless WorkerCommand says otherwise; the binary must dispatch that
// argument to worker.Serve.
//
// # Function Discovery
//
// Analytic functions are searchable from snippets with analytics.search
// and from Go with [Exec.SearchFunctions]. Custom functions are added
// with [Exec.RegisterFunction].
//
// # Legacy Callers
//
// [Exec.ExecuteLegacy] returns the bare value of the envelope, with errors
// reported as a mapping holding a single "error" field.
package exec
