package runtime

import (
	"context"
	"time"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/snippetexec/frame"
)

// Gateway is the data-access surface injected into a snippet.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation; the execution budget is applied to ctx.
// - Errors: failures surface in the snippet as exceptions.
// - Ownership: returned tables are caller-owned.
type Gateway interface {
	// Query runs a read-only SQL statement.
	Query(ctx context.Context, sql string, args []any) (*frame.Table, error)

	// Metric returns the current value of a named metric.
	Metric(ctx context.Context, name string) (float64, error)

	// CallFunction invokes a registered analytic function by ID.
	CallFunction(ctx context.Context, id string, args map[string]any) (any, error)

	// SearchFunctions finds analytic functions matching query.
	SearchFunctions(ctx context.Context, query string, limit int) ([]index.Summary, error)

	// DescribeFunction returns documentation for an analytic function.
	DescribeFunction(ctx context.Context, id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error)
}

// CallRecord captures one gateway call made during an execution.
type CallRecord struct {
	// Op is the gateway operation: query, metric, call, search or describe.
	Op string `json:"op"`

	// Target is the statement, metric name or function ID.
	Target string `json:"target"`

	// Duration is how long the call took.
	Duration time.Duration `json:"duration"`

	// Error is the error message if the call failed.
	Error string `json:"error,omitempty"`
}

// Gateway operations recorded in CallRecord.Op.
const (
	OpQuery    = "query"
	OpMetric   = "metric"
	OpCall     = "call"
	OpSearch   = "search"
	OpDescribe = "describe"
)
