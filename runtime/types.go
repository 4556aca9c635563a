package runtime

import (
	"context"
	"time"

	"github.com/jonwraymond/snippetexec/capability"
	"github.com/jonwraymond/snippetexec/result"
)

// SecurityProfile selects the isolation level of an execution.
type SecurityProfile string

const (
	// ProfileDev runs in-process. Fast, shares the host address space.
	ProfileDev SecurityProfile = "dev"

	// ProfileStandard runs in a worker process.
	ProfileStandard SecurityProfile = "standard"

	// ProfileHardened runs in a worker process with a minimal environment.
	ProfileHardened SecurityProfile = "hardened"
)

// IsValid reports whether p is a known profile.
func (p SecurityProfile) IsValid() bool {
	switch p {
	case ProfileDev, ProfileStandard, ProfileHardened:
		return true
	}
	return false
}

// BackendKind identifies a backend implementation.
type BackendKind string

const (
	BackendInProcess BackendKind = "inprocess"
	BackendWorker    BackendKind = "worker"
)

// Default request values.
const (
	DefaultTimeout        = 5 * time.Second
	DefaultMaxOutputCells = result.DefaultMaxOutputCells
	DefaultMaxCalls       = 100
	DefaultMaxStdoutBytes = 64 * 1024
)

// Limits bounds the resources of one execution.
type Limits struct {
	// MaxOutputCells is the ceiling on rows times columns of a table
	// result, or the length of a series result.
	MaxOutputCells int `json:"maxOutputCells,omitempty"`

	// MaxCalls limits gateway calls. Zero means the default.
	MaxCalls int `json:"maxCalls,omitempty"`

	// MaxStdoutBytes caps captured print output.
	MaxStdoutBytes int `json:"maxStdoutBytes,omitempty"`
}

// WithDefaults returns l with zero fields replaced by defaults.
func (l Limits) WithDefaults() Limits {
	if l.MaxOutputCells == 0 {
		l.MaxOutputCells = DefaultMaxOutputCells
	}
	if l.MaxCalls == 0 {
		l.MaxCalls = DefaultMaxCalls
	}
	if l.MaxStdoutBytes == 0 {
		l.MaxStdoutBytes = DefaultMaxStdoutBytes
	}
	return l
}

// ExecuteRequest describes one execution. Backends treat it as read-only.
type ExecuteRequest struct {
	// ID identifies the execution in logs. Generated when empty.
	ID string

	// Code is the snippet source.
	Code string

	// Profile selects the backend. Empty means the runtime default.
	Profile SecurityProfile

	// Timeout is the wall-clock budget. Zero means DefaultTimeout.
	Timeout time.Duration

	// Limits bounds output and gateway use.
	Limits Limits

	// Allow is the capability allow-list. Nil means the default list.
	Allow *capability.AllowList

	// Gateway provides data access. Nil leaves data access unbound.
	Gateway Gateway

	// Metadata carries caller-defined values for logging.
	Metadata map[string]any
}

// AllowList returns the effective allow-list of the request.
func (r ExecuteRequest) AllowList() capability.AllowList {
	if r.Allow == nil {
		return capability.DefaultAllowList()
	}
	return *r.Allow
}

// BackendInfo describes the backend that ran an execution.
type BackendInfo struct {
	Kind    BackendKind    `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
}

// ExecuteResult is the outcome of an execution.
type ExecuteResult struct {
	// ID is the execution ID from the request.
	ID string `json:"id"`

	// Envelope is the single typed result of the execution.
	Envelope result.Result `json:"envelope"`

	// Stdout holds captured print output.
	Stdout string `json:"stdout,omitempty"`

	// Calls records the gateway calls made by the snippet.
	Calls []CallRecord `json:"calls,omitempty"`

	// State is the terminal state reached before Done.
	State State `json:"state"`

	// Duration is the total wall-clock time.
	Duration time.Duration `json:"duration"`

	// Backend describes where the snippet ran.
	Backend BackendInfo `json:"backend"`
}

// Backend runs snippets.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use, or
// return ErrBackendBusy when they cannot accept another execution.
// - Context: cancellation terminates the execution like a timeout.
// - Errors: snippet failures are error envelopes; Go errors are reserved
// for invalid requests and unavailable backends.
// - Ownership: req is read-only; the returned result is caller-owned.
type Backend interface {
	// Kind returns the backend kind.
	Kind() BackendKind

	// Execute runs req and returns its result.
	Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error)
}

// Logger is the structured logger used by backends. *slog.Logger
// satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// CallRecorder is implemented by gateways that record their calls.
// Backends copy the records into ExecuteResult.Calls.
type CallRecorder interface {
	Calls() []CallRecord
}

// RecordedCalls returns the calls recorded by gw, or nil.
func RecordedCalls(gw Gateway) []CallRecord {
	if rec, ok := gw.(CallRecorder); ok {
		return rec.Calls()
	}
	return nil
}
