package code

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime"
)

// mockRuntime implements runtime.Runtime for testing.
type mockRuntime struct {
	mu       sync.Mutex
	envelope result.Result
	calls    []runtime.CallRecord
	err      error
	requests []runtime.ExecuteRequest
}

func (m *mockRuntime) Execute(_ context.Context, req runtime.ExecuteRequest) (runtime.ExecuteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return runtime.ExecuteResult{}, m.err
	}
	env := m.envelope
	if env.Kind == "" {
		env = result.Scalar(int64(1))
	}
	return runtime.ExecuteResult{
		ID:       "exec-1",
		Envelope: env,
		Stdout:   "out",
		Calls:    m.calls,
		State:    runtime.StateSucceeded,
		Duration: 25 * time.Millisecond,
		Backend:  runtime.BackendInfo{Kind: runtime.BackendInProcess},
	}, nil
}

func (m *mockRuntime) lastRequest() runtime.ExecuteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// mockLogger captures Logf calls for testing.
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

// countingFactory records the call limits it was asked for.
type countingFactory struct {
	mu     sync.Mutex
	limits []int
	gw     runtime.Gateway
}

func (f *countingFactory) NewGateway(maxCalls int) runtime.Gateway {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, maxCalls)
	return f.gw
}
