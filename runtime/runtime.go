package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/snippetexec/result"
)

// Runtime executes snippets.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: cancellation terminates the execution and yields a timed-out envelope.
// - Errors: only malformed requests and missing backends return errors.
// - Ownership: req is read-only; the returned result is caller-owned.
type Runtime interface {
	Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error)
}

// RuntimeConfig configures a DefaultRuntime.
type RuntimeConfig struct {
	// Backends maps each profile to the backend serving it.
	Backends map[SecurityProfile]Backend

	// DefaultProfile is used when a request sets none.
	// Default: ProfileDev
	DefaultProfile SecurityProfile

	// Fallback runs executions whose selected backend reports
	// ErrBackendBusy. Optional.
	Fallback Backend

	// DefaultTimeout is used when a request sets none.
	// Default: DefaultTimeout
	DefaultTimeout time.Duration

	// DefaultLimits fills zero fields of request limits.
	DefaultLimits Limits

	// Logger receives one record per execution. Default: discard.
	Logger *slog.Logger

	// CodePreviewBytes bounds the code logged per execution.
	// Default: 200
	CodePreviewBytes int
}

// DefaultRuntime is the standard Runtime.
type DefaultRuntime struct {
	cfg RuntimeConfig
}

// NewDefaultRuntime creates a runtime with the given configuration.
func NewDefaultRuntime(cfg RuntimeConfig) *DefaultRuntime {
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = ProfileDev
	}
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.CodePreviewBytes == 0 {
		cfg.CodePreviewBytes = 200
	}
	return &DefaultRuntime{cfg: cfg}
}

// Execute runs req on the backend selected by its profile. Snippet
// failures of every kind come back as an error envelope with a nil error.
func (r *DefaultRuntime) Execute(ctx context.Context, req ExecuteRequest) (res ExecuteResult, err error) {
	if req.Code == "" {
		return ExecuteResult{}, ErrMissingCode
	}
	req = r.withDefaults(req)
	if !req.Profile.IsValid() {
		return ExecuteResult{}, fmt.Errorf("%w: %q", ErrInvalidProfile, req.Profile)
	}
	backend, ok := r.cfg.Backends[req.Profile]
	if !ok || backend == nil {
		return ExecuteResult{}, fmt.Errorf("%w: no backend for profile %q", ErrRuntimeUnavailable, req.Profile)
	}

	m := NewMachine()
	_ = m.To(StatePreparing)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res = ExecuteResult{
				Envelope: result.FromError(&result.OrchestrationFailureError{
					Message: fmt.Sprintf("execution panicked: %v", p),
				}),
				Backend: BackendInfo{Kind: backend.Kind()},
			}
			err = nil
		}
		m.Finish(outcomeOf(res.Envelope))
		res.ID = req.ID
		res.State = m.Outcome()
		res.Duration = time.Since(start)
		r.log(req, res)
	}()

	_ = m.To(StateRunning)
	res, err = backend.Execute(ctx, req)
	if errors.Is(err, ErrBackendBusy) && r.cfg.Fallback != nil {
		backend = r.cfg.Fallback
		res, err = backend.Execute(ctx, req)
	}
	if err != nil {
		res = ExecuteResult{
			Envelope: result.FromError(&result.OrchestrationFailureError{
				Message: fmt.Sprintf("%s backend failed", backend.Kind()),
				Err:     err,
			}),
			Backend: BackendInfo{Kind: backend.Kind()},
		}
		err = nil
	}
	_ = m.To(outcomeOf(res.Envelope))
	return res, nil
}

func (r *DefaultRuntime) withDefaults(req ExecuteRequest) ExecuteRequest {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Profile == "" {
		req.Profile = r.cfg.DefaultProfile
	}
	if req.Timeout <= 0 {
		req.Timeout = r.cfg.DefaultTimeout
	}
	if req.Limits.MaxOutputCells == 0 {
		req.Limits.MaxOutputCells = r.cfg.DefaultLimits.MaxOutputCells
	}
	if req.Limits.MaxCalls == 0 {
		req.Limits.MaxCalls = r.cfg.DefaultLimits.MaxCalls
	}
	if req.Limits.MaxStdoutBytes == 0 {
		req.Limits.MaxStdoutBytes = r.cfg.DefaultLimits.MaxStdoutBytes
	}
	req.Limits = req.Limits.WithDefaults()
	return req
}

func (r *DefaultRuntime) log(req ExecuteRequest, res ExecuteResult) {
	attrs := []any{
		"id", req.ID,
		"profile", req.Profile,
		"backend", res.Backend.Kind,
		"state", res.State,
		"kind", res.Envelope.Kind,
		"duration", res.Duration,
		"calls", len(res.Calls),
		"code", result.Truncate(req.Code, r.cfg.CodePreviewBytes),
	}
	if res.Envelope.IsError() {
		attrs = append(attrs,
			"reason", res.Envelope.Reason(),
			"error", result.Truncate(res.Envelope.Message(), r.cfg.CodePreviewBytes),
		)
		if res.Envelope.Reason() == result.ReasonOrchestrationFailure {
			r.cfg.Logger.Error("snippet execution failed", attrs...)
			return
		}
		r.cfg.Logger.Warn("snippet execution failed", attrs...)
		return
	}
	r.cfg.Logger.Info("snippet executed", attrs...)
}

// outcomeOf maps an envelope to the terminal state it represents.
func outcomeOf(env result.Result) State {
	switch {
	case !env.Kind.IsValid():
		return StateFailed
	case env.Reason() == result.ReasonTimedOut:
		return StateTimedOut
	case env.IsError():
		return StateFailed
	default:
		return StateSucceeded
	}
}
