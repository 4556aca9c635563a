package exec

import (
	"github.com/jonwraymond/tooldiscovery/index"

	"github.com/jonwraymond/snippetexec/analytics"
	"github.com/jonwraymond/snippetexec/code"
)

// Result is the outcome of one snippet execution.
type Result = code.ExecuteResult

// Params configures one execution.
type Params = code.ExecuteParams

// Function is a custom analytic function.
type Function = analytics.Function

// FunctionSummary is an alias to index.Summary for search results.
type FunctionSummary = index.Summary
