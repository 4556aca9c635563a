package runtime

import (
	"context"
	"errors"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"

	"github.com/jonwraymond/snippetexec/frame"
	"github.com/jonwraymond/snippetexec/result"
)

// errNotFound is used by mock gateway
var errNotFound = errors.New("not found")

// mockGateway is a minimal mock for testing
type mockGateway struct{}

func (m *mockGateway) Query(ctx context.Context, _ string, _ []any) (*frame.Table, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return frame.NewTable(nil, nil)
}

func (m *mockGateway) Metric(ctx context.Context, _ string) (float64, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	return 0, errNotFound
}

func (m *mockGateway) CallFunction(ctx context.Context, _ string, _ map[string]any) (any, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, errNotFound
}

func (m *mockGateway) SearchFunctions(ctx context.Context, _ string, _ int) ([]index.Summary, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, nil
}

func (m *mockGateway) DescribeFunction(ctx context.Context, _ string, _ tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	if ctx.Err() != nil {
		return tooldoc.ToolDoc{}, ctx.Err()
	}
	return tooldoc.ToolDoc{}, errNotFound
}

// mockBackend returns a fixed envelope, error or panic.
type mockBackend struct {
	kind     BackendKind
	envelope result.Result
	err      error
	panicVal any
	calls    int
	lastReq  ExecuteRequest
}

func (b *mockBackend) Kind() BackendKind {
	if b.kind == "" {
		return "mock"
	}
	return b.kind
}

func (b *mockBackend) Execute(_ context.Context, req ExecuteRequest) (ExecuteResult, error) {
	b.calls++
	b.lastReq = req
	if b.panicVal != nil {
		panic(b.panicVal)
	}
	if b.err != nil {
		return ExecuteResult{}, b.err
	}
	return ExecuteResult{Envelope: b.envelope, Backend: BackendInfo{Kind: b.Kind()}}, nil
}

var (
	_ Gateway = (*mockGateway)(nil)
	_ Backend = (*mockBackend)(nil)
)
