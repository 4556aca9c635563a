package exec

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"

	"github.com/jonwraymond/snippetexec/analytics"
	"github.com/jonwraymond/snippetexec/capability"
	"github.com/jonwraymond/snippetexec/code"
	"github.com/jonwraymond/snippetexec/legacy"
	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime"
	"github.com/jonwraymond/snippetexec/runtime/backend/inprocess"
	"github.com/jonwraymond/snippetexec/runtime/backend/worker"
	"github.com/jonwraymond/snippetexec/runtime/gateway/direct"
)

// Exec is the assembled snippet execution engine.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: snippet failures are reported in Result; only configuration
// and orchestration problems are returned as errors.
type Exec struct {
	opts      Options
	runtime   *runtime.DefaultRuntime
	executor  *code.DefaultExecutor
	functions *analytics.Registry
}

// New creates an Exec from the given options.
func New(opts Options) (*Exec, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	rcfg := runtime.RuntimeConfig{
		Backends:       map[runtime.SecurityProfile]runtime.Backend{},
		DefaultProfile: opts.SecurityProfile,
		DefaultTimeout: opts.DefaultTimeout,
		Logger:         logger,
	}

	// Without a worker to fall back to, in-process callers queue.
	icfg := inprocess.Config{Wait: !opts.EnableWorker}
	if logger != nil {
		icfg.Logger = logger
	}
	inproc := inprocess.New(icfg)
	rcfg.Backends[runtime.ProfileDev] = inproc
	rcfg.Backends[runtime.ProfileStandard] = inproc

	if opts.EnableWorker {
		wcfg := worker.Config{
			Command: opts.WorkerCommand,
			Args:    opts.WorkerArgs,
			Env:     opts.WorkerEnv,
		}
		if logger != nil {
			wcfg.Logger = logger
		}
		wb := worker.New(wcfg)
		rcfg.Backends[runtime.ProfileStandard] = wb
		rcfg.Backends[runtime.ProfileHardened] = wb
		rcfg.Fallback = wb
	}

	rt := runtime.NewDefaultRuntime(rcfg)

	var allow *capability.AllowList
	if opts.Allow != nil {
		a := capability.NewAllowList(opts.Allow...)
		allow = &a
	}

	ccfg := code.Config{
		Runtime:        rt,
		Gateways:       code.GatewayFunc(opts.newGateway),
		Allow:          allow,
		DefaultTimeout: opts.DefaultTimeout,
		MaxCalls:       opts.MaxCalls,
		Limits:         runtime.Limits{MaxOutputCells: opts.MaxOutputCells},
	}
	if logger != nil {
		ccfg.Logger = slogLogger{logger}
	}
	executor, err := code.NewDefaultExecutor(ccfg)
	if err != nil {
		return nil, err
	}

	return &Exec{
		opts:      opts,
		runtime:   rt,
		executor:  executor,
		functions: opts.Functions,
	}, nil
}

// newGateway builds a direct gateway over the configured collaborators.
// Nil collaborators stay unset so the gateway reports them as not configured.
func (o *Options) newGateway(maxCalls int) runtime.Gateway {
	cfg := direct.Config{MaxCalls: maxCalls}
	if o.Data != nil {
		cfg.Data = o.Data
	}
	if o.Metrics != nil {
		cfg.Metrics = o.Metrics
	}
	if o.Functions != nil {
		cfg.Functions = o.Functions
	}
	return direct.New(cfg)
}

// Execute runs src with the default profile and limits.
func (e *Exec) Execute(ctx context.Context, src string) (Result, error) {
	return e.executor.ExecuteCode(ctx, Params{Code: src})
}

// ExecuteParams runs a snippet with per-call parameters.
func (e *Exec) ExecuteParams(ctx context.Context, params Params) (Result, error) {
	return e.executor.ExecuteCode(ctx, params)
}

// ExecuteLegacy runs src and returns the bare value of its envelope.
// Failures become a mapping with a single "error" field.
func (e *Exec) ExecuteLegacy(ctx context.Context, src string) any {
	res, err := e.Execute(ctx, src)
	if err != nil {
		return legacy.Unwrap(result.FromError(err))
	}
	return legacy.Unwrap(res.Envelope)
}

// RegisterFunction adds a custom analytic function.
func (e *Exec) RegisterFunction(fn Function) error {
	return e.functions.Register(fn)
}

// SearchFunctions searches analytic functions by name, description and tags.
func (e *Exec) SearchFunctions(ctx context.Context, query string, limit int) ([]FunctionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.functions.Search(query, limit)
}

// DescribeFunction returns the documentation of an analytic function.
func (e *Exec) DescribeFunction(ctx context.Context, id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	if err := ctx.Err(); err != nil {
		return tooldoc.ToolDoc{}, err
	}
	return e.functions.Describe(id, level)
}

// Functions lists the registered analytic functions sorted by name.
func (e *Exec) Functions() []model.Tool {
	return e.functions.List()
}

// Runtime returns the underlying runtime.
func (e *Exec) Runtime() runtime.Runtime {
	return e.runtime
}

// Profile returns the default security profile.
func (e *Exec) Profile() runtime.SecurityProfile {
	return e.opts.SecurityProfile
}

// slogLogger adapts a slog.Logger to code.Logger.
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Logf(format string, args ...any) {
	s.l.Debug("snippet", "event", fmt.Sprintf(format, args...))
}
