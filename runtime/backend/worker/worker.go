// Package worker provides a backend that runs each snippet in a separate
// worker process.
//
// The parent starts the configured command (by default the current binary
// with the "worker" argument) in its own process group, sends the request
// as a CBOR message on the worker's stdin, and polls a queue fed from the
// worker's stdout until a result arrives or the budget elapses. Data-access
// calls made by the snippet are proxied back over the same streams and
// answered with the request's gateway.
//
// When the budget elapses the whole process group receives SIGTERM, then
// SIGKILL after a grace period, and the worker is reaped. A snippet stuck
// in a host function is therefore still terminated, unlike in-process
// execution.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime"
	"github.com/jonwraymond/snippetexec/runtime/gateway/proxy"
)

// Defaults for worker supervision.
const (
	DefaultPollInterval = 10 * time.Millisecond
	DefaultKillGrace    = 200 * time.Millisecond
	DefaultOverhead     = time.Second

	maxStderrBytes = 4 << 10
)

// ErrStart is returned when the worker process cannot be started.
var ErrStart = errors.New("worker start failed")

// Config configures a worker backend.
type Config struct {
	// Command is the worker executable.
	// Default: the current executable
	Command string

	// Args are passed to Command.
	// Default: ["worker"]
	Args []string

	// Env is the worker environment. Nil inherits the parent's.
	Env []string

	// PollInterval is how often the result queue is checked.
	// Default: DefaultPollInterval
	PollInterval time.Duration

	// KillGrace is the delay between SIGTERM and SIGKILL.
	// Default: DefaultKillGrace
	KillGrace time.Duration

	// Overhead is added to the snippet budget to cover process start-up.
	// Default: DefaultOverhead
	Overhead time.Duration

	// MaxCallStackSize is forwarded to the worker's interpreter.
	MaxCallStackSize int

	// Logger is an optional logger for worker supervision events.
	Logger runtime.Logger
}

// Backend runs each snippet in a fresh worker process.
//
// Contract:
// - Concurrency: safe for concurrent use; each execution owns its process.
// - Context: cancellation terminates the worker and yields a timed_out envelope.
// - Errors: only start-up failures are returned as errors.
type Backend struct {
	command  string
	args     []string
	env      []string
	poll     time.Duration
	grace    time.Duration
	overhead time.Duration
	stack    int
	logger   runtime.Logger
}

// New creates a new worker backend with the given configuration.
func New(cfg Config) *Backend {
	if cfg.Command == "" {
		if exe, err := os.Executable(); err == nil {
			cfg.Command = exe
		}
	}
	if cfg.Args == nil {
		cfg.Args = []string{"worker"}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = DefaultKillGrace
	}
	if cfg.Overhead <= 0 {
		cfg.Overhead = DefaultOverhead
	}
	return &Backend{
		command:  cfg.Command,
		args:     cfg.Args,
		env:      cfg.Env,
		poll:     cfg.PollInterval,
		grace:    cfg.KillGrace,
		overhead: cfg.Overhead,
		stack:    cfg.MaxCallStackSize,
		logger:   cfg.Logger,
	}
}

// Kind returns runtime.BackendWorker.
func (b *Backend) Kind() runtime.BackendKind {
	return runtime.BackendWorker
}

// Execute runs req in a new worker process.
func (b *Backend) Execute(ctx context.Context, req runtime.ExecuteRequest) (runtime.ExecuteResult, error) {
	if req.Code == "" {
		return runtime.ExecuteResult{}, runtime.ErrMissingCode
	}
	limits := req.Limits.WithDefaults()
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = runtime.DefaultTimeout
	}

	start := time.Now()
	p, err := b.start()
	if err != nil {
		return runtime.ExecuteResult{}, err
	}
	defer p.close()

	j := job{
		Code:             req.Code,
		Timeout:          timeout,
		Allow:            req.AllowList().Names(),
		MaxOutputCells:   limits.MaxOutputCells,
		MaxStdoutBytes:   limits.MaxStdoutBytes,
		MaxCallStackSize: b.stack,
		Gateway:          req.Gateway != nil,
	}
	var (
		env    result.Result
		stdout string
	)
	if err := p.conn.Send(ctx, proxy.Message{Type: MsgExecute, ID: req.ID, Payload: j.payload()}); err != nil {
		b.terminate(p)
		env = result.FromError(&result.OrchestrationFailureError{Message: "sending request to worker", Err: err})
	} else {
		env, stdout = b.supervise(ctx, p, req, timeout)
	}

	return runtime.ExecuteResult{
		Envelope: env,
		Stdout:   stdout,
		Calls:    runtime.RecordedCalls(req.Gateway),
		Duration: time.Since(start),
		Backend: runtime.BackendInfo{
			Kind: runtime.BackendWorker,
			Details: map[string]any{
				"pid": p.pid(),
			},
		},
	}, nil
}

// supervise polls the worker's message queue until a result arrives, the
// worker exits, or the budget elapses.
func (b *Backend) supervise(ctx context.Context, p *process, req runtime.ExecuteRequest, timeout time.Duration) (result.Result, string) {
	budget := time.NewTimer(timeout + b.overhead)
	defer budget.Stop()
	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	var calls sync.WaitGroup
	defer calls.Wait()
	// Gateway calls may not outlive the budget.
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	timedOut := func() (result.Result, string) {
		b.terminate(p)
		return result.FromError(&result.TimedOutError{Budget: timeout}), ""
	}

	for {
		select {
		case <-ctx.Done():
			return timedOut()
		case <-budget.C:
			return timedOut()
		case <-ticker.C:
		}

	drain:
		for {
			select {
			case msg, ok := <-p.queue:
				if !ok {
					return b.exited(p), ""
				}
				switch {
				case msg.Type == MsgResult:
					env, err := unpackResult(payloadMap(msg.Payload["envelope"]))
					if err != nil {
						env = result.FromError(&result.OrchestrationFailureError{Message: "decoding worker result", Err: err})
					}
					stdout, _ := msg.Payload["stdout"].(string)
					b.reap(p)
					return env, stdout
				case proxy.IsRequest(msg.Type):
					calls.Add(1)
					go func(msg proxy.Message) {
						defer calls.Done()
						resp := proxy.Handle(callCtx, req.Gateway, msg)
						_ = p.conn.Send(callCtx, resp)
					}(msg)
				default:
					b.warn("unexpected worker message", "type", msg.Type)
				}
			default:
				break drain
			}
		}
	}
}

// exited reports a worker that closed its output without a result.
func (b *Backend) exited(p *process) result.Result {
	err := <-p.done
	stderr := strings.TrimSpace(p.stderr.String())
	b.warn("worker terminated without producing a result", "pid", p.pid(), "error", err, "stderr", stderr)
	return result.FromError(&result.OrchestrationFailureError{
		Message: "worker terminated without producing a result",
		Err:     err,
	})
}

// reap waits for a worker that delivered its result, terminating it if it
// lingers.
func (b *Backend) reap(p *process) {
	select {
	case <-p.done:
	case <-time.After(b.grace):
		b.terminate(p)
	}
}

// terminate signals the worker's process group with SIGTERM, escalates to
// SIGKILL after the grace period, and waits for the process to be reaped.
func (b *Backend) terminate(p *process) {
	select {
	case <-p.done:
		return
	default:
	}
	if err := terminateGroup(p.cmd); err != nil {
		_ = killGroup(p.cmd)
	}
	select {
	case <-p.done:
		return
	case <-time.After(b.grace):
	}
	if err := killGroup(p.cmd); err != nil {
		b.warn("killing worker failed", "pid", p.pid(), "error", err)
	}
	<-p.done
}

func (b *Backend) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}

// process is one running worker.
type process struct {
	cmd    *exec.Cmd
	conn   *proxy.StreamConnection
	queue  chan proxy.Message
	done   chan error
	quit   chan struct{}
	stderr *limitedBuffer

	stdoutR *os.File
}

func (b *Backend) start() (*process, error) {
	if b.command == "" {
		return nil, fmt.Errorf("%w: no worker command", ErrStart)
	}
	cmd := exec.Command(b.command, b.args...)
	cmd.Env = b.env
	configureProcessGroup(cmd)

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStart, err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdinR.Close()
		_ = stdinW.Close()
		return nil, fmt.Errorf("%w: %v", ErrStart, err)
	}
	stderr := &limitedBuffer{limit: maxStderrBytes}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{stdinR, stdinW, stdoutR, stdoutW} {
			_ = f.Close()
		}
		return nil, fmt.Errorf("%w: %v", ErrStart, err)
	}
	// The child holds its own copies.
	_ = stdinR.Close()
	_ = stdoutW.Close()

	p := &process{
		cmd:     cmd,
		conn:    proxy.NewStreamConnection(stdoutR, stdinW, stdinW),
		queue:   make(chan proxy.Message, 16),
		done:    make(chan error, 1),
		quit:    make(chan struct{}),
		stderr:  stderr,
		stdoutR: stdoutR,
	}
	go func() {
		p.done <- cmd.Wait()
		close(p.done)
	}()
	go p.read()
	return p, nil
}

// read feeds the queue until the worker's stdout is closed.
func (p *process) read() {
	defer close(p.queue)
	for {
		msg, err := p.conn.Receive(context.Background())
		if err != nil {
			return
		}
		select {
		case p.queue <- msg:
		case <-p.quit:
			return
		}
	}
}

func (p *process) pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *process) close() {
	close(p.quit)
	_ = p.conn.Close()
	_ = p.stdoutR.Close()
}

func payloadMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// limitedBuffer keeps the first limit bytes written to it.
type limitedBuffer struct {
	mu    sync.Mutex
	b     strings.Builder
	limit int
}

func (w *limitedBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if room := w.limit - w.b.Len(); room > 0 {
		if len(p) > room {
			w.b.Write(p[:room])
		} else {
			w.b.Write(p)
		}
	}
	return len(p), nil
}

func (w *limitedBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}
