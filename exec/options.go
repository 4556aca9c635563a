package exec

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonwraymond/snippetexec/analytics"
	"github.com/jonwraymond/snippetexec/metrics"
	"github.com/jonwraymond/snippetexec/runtime"
	"github.com/jonwraymond/snippetexec/runtime/gateway/direct"
)

// Default configuration values.
const (
	DefaultMaxCalls = runtime.DefaultMaxCalls
	DefaultTimeout  = runtime.DefaultTimeout
)

// Errors returned by Options validation.
var (
	ErrInvalidProfile  = errors.New("exec: invalid security profile")
	ErrWorkerRequired  = errors.New("exec: hardened profile requires EnableWorker")
	ErrNegativeSetting = errors.New("exec: limits must not be negative")
)

// Options configures an Exec instance.
type Options struct {
	// Data answers query(). Optional; without it queries throw.
	Data direct.Querier

	// Metrics answers metric(). Optional.
	Metrics metrics.Store

	// Functions is the analytic function registry.
	// Default: analytics.NewDefaultRegistry()
	Functions *analytics.Registry

	// SecurityProfile is the default profile for executions.
	// Default: runtime.ProfileDev
	SecurityProfile runtime.SecurityProfile

	// DefaultTimeout is the snippet budget.
	// Default: 5s
	DefaultTimeout time.Duration

	// MaxCalls limits data-access calls per snippet.
	// Default: 100
	MaxCalls int

	// MaxOutputCells is the output ceiling.
	// Default: 1,000,000
	MaxOutputCells int

	// Allow lists the permitted capabilities. Nil allows the default set.
	Allow []string

	// EnableWorker registers the worker-process backend.
	EnableWorker bool

	// WorkerCommand and WorkerArgs start a worker process.
	// Default: the current executable with the "worker" argument
	WorkerCommand string
	WorkerArgs    []string

	// WorkerEnv is the worker environment. Nil inherits the parent's.
	WorkerEnv []string

	// Logger receives execution logs.
	// Default: discard
	Logger *slog.Logger
}

// validate checks the option values.
func (o *Options) validate() error {
	if o.SecurityProfile != "" && !o.SecurityProfile.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidProfile, o.SecurityProfile)
	}
	if o.SecurityProfile == runtime.ProfileHardened && !o.EnableWorker {
		return ErrWorkerRequired
	}
	if o.DefaultTimeout < 0 || o.MaxCalls < 0 || o.MaxOutputCells < 0 {
		return ErrNegativeSetting
	}
	return nil
}

// applyDefaults sets default values for unset optional fields.
func (o *Options) applyDefaults() error {
	if o.SecurityProfile == "" {
		o.SecurityProfile = runtime.ProfileDev
	}
	if o.DefaultTimeout == 0 {
		o.DefaultTimeout = DefaultTimeout
	}
	if o.MaxCalls == 0 {
		o.MaxCalls = DefaultMaxCalls
	}
	if o.MaxOutputCells == 0 {
		o.MaxOutputCells = runtime.DefaultMaxOutputCells
	}
	if o.Functions == nil {
		r, err := analytics.NewDefaultRegistry()
		if err != nil {
			return err
		}
		o.Functions = r
	}
	return nil
}
