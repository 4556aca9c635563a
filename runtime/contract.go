package runtime

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jonwraymond/snippetexec/result"
)

// BackendContract configures RunBackendContractTests.
type BackendContract struct {
	// NewBackend returns a fresh backend for each subtest.
	NewBackend func() Backend

	// NewGateway returns a gateway for requests. Optional.
	NewGateway func() Gateway

	// ExpectedKind is the kind the backend must report.
	ExpectedKind BackendKind

	// SkipExecutionTests skips subtests that run snippets.
	SkipExecutionTests bool
}

// RunBackendContractTests runs the behavior every Backend must share.
func RunBackendContractTests(t *testing.T, c BackendContract) {
	t.Helper()

	request := func(code string, timeout time.Duration) ExecuteRequest {
		req := ExecuteRequest{
			ID:      "contract",
			Code:    code,
			Timeout: timeout,
			Limits:  Limits{}.WithDefaults(),
		}
		if c.NewGateway != nil {
			req.Gateway = c.NewGateway()
		}
		return req
	}

	t.Run("Kind", func(t *testing.T) {
		if got := c.NewBackend().Kind(); got != c.ExpectedKind {
			t.Errorf("Kind() = %v, want %v", got, c.ExpectedKind)
		}
	})

	t.Run("RequiresCode", func(t *testing.T) {
		_, err := c.NewBackend().Execute(context.Background(), request("", time.Second))
		if !errors.Is(err, ErrMissingCode) {
			t.Errorf("Execute() error = %v, want %v", err, ErrMissingCode)
		}
	})

	if c.SkipExecutionTests {
		return
	}

	t.Run("Scalar", func(t *testing.T) {
		res, err := c.NewBackend().Execute(context.Background(), request("output = 42", 5*time.Second))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Envelope.Kind != result.KindScalar {
			t.Fatalf("Kind = %v (%v), want scalar", res.Envelope.Kind, res.Envelope.Value)
		}
		if f, ok := res.Envelope.Value.(int64); !ok || f != 42 {
			t.Errorf("Value = %#v, want int64(42)", res.Envelope.Value)
		}
		if res.Backend.Kind != c.ExpectedKind {
			t.Errorf("Backend.Kind = %v, want %v", res.Backend.Kind, c.ExpectedKind)
		}
	})

	t.Run("Mapping", func(t *testing.T) {
		res, err := c.NewBackend().Execute(context.Background(), request(`output = {"a": 1, "b": 2}`, 5*time.Second))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Envelope.Kind != result.KindMapping {
			t.Fatalf("Kind = %v, want mapping", res.Envelope.Kind)
		}
		if got := res.Envelope.Meta["keys"]; !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Errorf("Meta[keys] = %v, want [a b]", got)
		}
	})

	t.Run("CapabilityRejected", func(t *testing.T) {
		code := `
var reached = false;
try { require("os"); } catch (e) { reached = true; }
output = reached;`
		res, err := c.NewBackend().Execute(context.Background(), request(code, 5*time.Second))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Envelope.Reason() != result.ReasonCapabilityRejected {
			t.Errorf("Envelope = %+v, want capability rejection", res.Envelope)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		start := time.Now()
		res, err := c.NewBackend().Execute(context.Background(), request("while (true) {}", 200*time.Millisecond))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Envelope.Reason() != result.ReasonTimedOut {
			t.Errorf("Envelope = %+v, want timeout", res.Envelope)
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("Execute() took %v, want close to the budget", elapsed)
		}
	})

	t.Run("OutputTooLarge", func(t *testing.T) {
		res, err := c.NewBackend().Execute(context.Background(), request("output = frame.zeros(2000, 2000)", 10*time.Second))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Envelope.Reason() != result.ReasonOutputTooLarge {
			t.Errorf("Envelope = %+v, want output too large", res.Envelope)
		}
	})

	t.Run("OutputMissing", func(t *testing.T) {
		res, err := c.NewBackend().Execute(context.Background(), request("var x = 1 + 1;", 5*time.Second))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Envelope.Reason() != result.ReasonOutputMissing {
			t.Errorf("Envelope = %+v, want output missing", res.Envelope)
		}
	})

	t.Run("RuntimeFailure", func(t *testing.T) {
		res, err := c.NewBackend().Execute(context.Background(), request("output = undefinedName + 1", 5*time.Second))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Envelope.Reason() != result.ReasonRuntimeFailure {
			t.Errorf("Envelope = %+v, want runtime failure", res.Envelope)
		}
	})

	t.Run("ContextCanceled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		res, err := c.NewBackend().Execute(ctx, request("while (true) {}", 30*time.Second))
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Envelope.Reason() != result.ReasonTimedOut {
			t.Errorf("Envelope = %+v, want timeout", res.Envelope)
		}
	})
}
