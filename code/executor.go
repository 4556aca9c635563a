package code

import (
	"context"

	"github.com/jonwraymond/snippetexec/capability"
	"github.com/jonwraymond/snippetexec/runtime"
)

// Executor is the main entry point for executing snippets.
// It orchestrates configuration, limits, and result collection.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation; a canceled run yields a timed_out envelope.
// - Errors: snippet failures are reported in the envelope; returned errors
// are configuration or orchestration problems.
// - Ownership: params are read-only; returned ExecuteResult is caller-owned.
type Executor interface {
	// ExecuteCode runs a snippet with the given parameters.
	ExecuteCode(ctx context.Context, params ExecuteParams) (ExecuteResult, error)
}

// DefaultExecutor is the standard implementation of Executor.
type DefaultExecutor struct {
	cfg Config
}

// NewDefaultExecutor creates a new DefaultExecutor with the given configuration.
// Returns ErrConfiguration if any required field is missing.
func NewDefaultExecutor(cfg Config) (*DefaultExecutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &DefaultExecutor{cfg: cfg}, nil
}

// ExecuteCode runs a snippet with the given parameters.
func (e *DefaultExecutor) ExecuteCode(ctx context.Context, params ExecuteParams) (ExecuteResult, error) {
	if params.Timeout == 0 {
		params.Timeout = e.cfg.DefaultTimeout
	}

	// Resolve MaxCalls (params capped by config)
	maxCalls := params.MaxCalls
	if maxCalls <= 0 || maxCalls > e.cfg.MaxCalls {
		maxCalls = e.cfg.MaxCalls
	}

	allow := e.allowList(params.Allow)
	limits := e.cfg.Limits
	limits.MaxCalls = maxCalls

	req := runtime.ExecuteRequest{
		Code:     params.Code,
		Profile:  params.Profile,
		Timeout:  params.Timeout,
		Limits:   limits,
		Allow:    &allow,
		Metadata: params.Metadata,
	}
	if e.cfg.Gateways != nil {
		req.Gateway = e.cfg.Gateways.NewGateway(maxCalls)
	}

	res, err := e.cfg.Runtime.Execute(ctx, req)
	if err != nil {
		return ExecuteResult{}, err
	}

	out := ExecuteResult{
		ID:         res.ID,
		Envelope:   res.Envelope,
		Stdout:     res.Stdout,
		Calls:      callRecords(res.Calls),
		State:      res.State,
		Backend:    res.Backend.Kind,
		DurationMs: res.Duration.Milliseconds(),
	}

	// Log execution summary if logger present
	if e.cfg.Logger != nil {
		e.cfg.Logger.Logf("executed snippet %s: %s in %dms with %d calls",
			out.ID, out.Envelope.Kind, out.DurationMs, len(out.Calls))
	}
	return out, nil
}

// allowList narrows the configured list to the requested names.
func (e *DefaultExecutor) allowList(requested []string) capability.AllowList {
	if requested == nil {
		return *e.cfg.Allow
	}
	var names []string
	for _, n := range requested {
		if e.cfg.Allow.Allows(n) {
			names = append(names, n)
		}
	}
	return capability.NewAllowList(names...)
}
