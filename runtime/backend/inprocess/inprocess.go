// Package inprocess provides a backend that runs snippets inside the
// calling process.
//
// The budget is enforced by an interrupt alarm armed for each execution
// and disarmed when it ends. Only one execution runs at a time: a second
// caller gets runtime.ErrBackendBusy, or waits when Config.Wait is set.
//
// A snippet blocked inside a host function (a slow query, for example)
// is interrupted only when that function returns; gateway calls are
// bounded by the same budget through their context.
package inprocess

import (
	"context"
	"time"

	"github.com/jonwraymond/snippetexec/runtime"
	"github.com/jonwraymond/snippetexec/script"
)

// Config configures an in-process backend.
type Config struct {
	// Wait makes a busy backend queue callers instead of returning
	// runtime.ErrBackendBusy.
	Wait bool

	// MaxCallStackSize bounds snippet recursion.
	// Default: script.DefaultMaxCallStackSize
	MaxCallStackSize int

	// Logger is an optional logger for execution events.
	Logger runtime.Logger
}

// Backend runs snippets in-process, one at a time.
type Backend struct {
	slot   chan struct{}
	wait   bool
	stack  int
	logger runtime.Logger
}

// New creates a new in-process backend with the given configuration.
func New(cfg Config) *Backend {
	return &Backend{
		slot:   make(chan struct{}, 1),
		wait:   cfg.Wait,
		stack:  cfg.MaxCallStackSize,
		logger: cfg.Logger,
	}
}

// Kind returns runtime.BackendInProcess.
func (b *Backend) Kind() runtime.BackendKind {
	return runtime.BackendInProcess
}

// Execute runs req in the calling process.
func (b *Backend) Execute(ctx context.Context, req runtime.ExecuteRequest) (runtime.ExecuteResult, error) {
	if req.Code == "" {
		return runtime.ExecuteResult{}, runtime.ErrMissingCode
	}
	if err := b.acquire(ctx); err != nil {
		return runtime.ExecuteResult{}, err
	}
	defer b.release()

	limits := req.Limits.WithDefaults()
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = runtime.DefaultTimeout
	}

	start := time.Now()
	out := script.Run(ctx, req.Code, script.Options{
		Allow:            req.AllowList(),
		Gateway:          req.Gateway,
		Timeout:          timeout,
		MaxStdoutBytes:   limits.MaxStdoutBytes,
		MaxCallStackSize: b.stack,
		MaxOutputCells:   limits.MaxOutputCells,
	})
	env := out.Envelope(limits.MaxOutputCells)
	duration := time.Since(start)

	if b.logger != nil && env.IsError() {
		b.logger.Info("in-process snippet failed", "id", req.ID, "reason", env.Reason(), "duration", duration)
	}

	return runtime.ExecuteResult{
		Envelope: env,
		Stdout:   out.Stdout,
		Calls:    runtime.RecordedCalls(req.Gateway),
		Duration: duration,
		Backend: runtime.BackendInfo{
			Kind: runtime.BackendInProcess,
		},
	}, nil
}

func (b *Backend) acquire(ctx context.Context) error {
	if !b.wait {
		select {
		case b.slot <- struct{}{}:
			return nil
		default:
			return runtime.ErrBackendBusy
		}
	}
	select {
	case b.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return runtime.ErrBackendBusy
	}
}

func (b *Backend) release() {
	<-b.slot
}
