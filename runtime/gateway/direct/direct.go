// Package direct provides a gateway that implements runtime.Gateway by
// delegating to in-process data sources, metric stores and the analytics
// registry. It runs in the parent process with no isolation boundary and
// records every call.
package direct

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/snippetexec/frame"
	"github.com/jonwraymond/snippetexec/runtime"
)

// Errors for limit enforcement and configuration.
var (
	// ErrCallLimitExceeded is returned when MaxCalls is exceeded.
	ErrCallLimitExceeded = errors.New("gateway call limit exceeded")

	// ErrNotConfigured is returned when the collaborator for an operation
	// is missing.
	ErrNotConfigured = errors.New("gateway collaborator not configured")
)

// Querier runs read-only SQL.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*frame.Table, error)
}

// MetricStore reads metric values.
type MetricStore interface {
	Get(ctx context.Context, name string) (float64, error)
}

// FunctionRegistry calls and documents analytic functions.
type FunctionRegistry interface {
	Call(ctx context.Context, id string, args map[string]any) (any, error)
	Search(query string, limit int) ([]index.Summary, error)
	Describe(id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error)
}

// Config configures a direct gateway.
type Config struct {
	// Data answers Query. Optional.
	Data Querier

	// Metrics answers Metric. Optional.
	Metrics MetricStore

	// Functions answers CallFunction, SearchFunctions and DescribeFunction.
	// Optional.
	Functions FunctionRegistry

	// MaxCalls limits the total number of calls.
	// Zero means unlimited.
	MaxCalls int
}

// Gateway implements runtime.Gateway by directly delegating to the
// configured collaborators.
type Gateway struct {
	data      Querier
	metrics   MetricStore
	functions FunctionRegistry
	maxCalls  int

	mu        sync.Mutex
	callCount int
	calls     []runtime.CallRecord
}

// New creates a new direct gateway with the given configuration.
func New(cfg Config) *Gateway {
	return &Gateway{
		data:      cfg.Data,
		metrics:   cfg.Metrics,
		functions: cfg.Functions,
		maxCalls:  cfg.MaxCalls,
	}
}

// Query delegates to the data source.
func (g *Gateway) Query(ctx context.Context, sql string, args []any) (*frame.Table, error) {
	var table *frame.Table
	err := g.do(ctx, runtime.OpQuery, sql, g.data != nil, func() error {
		var err error
		table, err = g.data.Query(ctx, sql, args...)
		return err
	})
	return table, err
}

// Metric delegates to the metric store.
func (g *Gateway) Metric(ctx context.Context, name string) (float64, error) {
	var value float64
	err := g.do(ctx, runtime.OpMetric, name, g.metrics != nil, func() error {
		var err error
		value, err = g.metrics.Get(ctx, name)
		return err
	})
	return value, err
}

// CallFunction delegates to the function registry.
func (g *Gateway) CallFunction(ctx context.Context, id string, args map[string]any) (any, error) {
	var value any
	err := g.do(ctx, runtime.OpCall, id, g.functions != nil, func() error {
		var err error
		value, err = g.functions.Call(ctx, id, args)
		return err
	})
	return value, err
}

// SearchFunctions delegates to the function registry.
func (g *Gateway) SearchFunctions(ctx context.Context, query string, limit int) ([]index.Summary, error) {
	var found []index.Summary
	err := g.do(ctx, runtime.OpSearch, query, g.functions != nil, func() error {
		var err error
		found, err = g.functions.Search(query, limit)
		return err
	})
	return found, err
}

// DescribeFunction delegates to the function registry.
func (g *Gateway) DescribeFunction(ctx context.Context, id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	var doc tooldoc.ToolDoc
	err := g.do(ctx, runtime.OpDescribe, id, g.functions != nil, func() error {
		var err error
		doc, err = g.functions.Describe(id, level)
		return err
	})
	return doc, err
}

// do enforces the call limit, runs fn and records the call.
func (g *Gateway) do(ctx context.Context, op, target string, configured bool, fn func() error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !configured {
		return fmt.Errorf("%w: %s", ErrNotConfigured, op)
	}

	// Check call limit
	g.mu.Lock()
	if g.maxCalls > 0 && g.callCount >= g.maxCalls {
		g.mu.Unlock()
		return fmt.Errorf("%w: max %d calls exceeded", ErrCallLimitExceeded, g.maxCalls)
	}
	g.callCount++
	g.mu.Unlock()

	start := time.Now()
	err := fn()

	record := runtime.CallRecord{
		Op:       op,
		Target:   target,
		Duration: time.Since(start),
	}
	if err != nil {
		record.Error = err.Error()
	}

	g.mu.Lock()
	g.calls = append(g.calls, record)
	g.mu.Unlock()

	return err
}

// Calls returns a copy of all recorded calls.
func (g *Gateway) Calls() []runtime.CallRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]runtime.CallRecord, len(g.calls))
	copy(out, g.calls)
	return out
}

// Reset clears recorded calls and resets the call counter.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.callCount = 0
	g.calls = nil
}
