package runtime_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime"
)

func Example_securityProfiles() {
	profiles := []runtime.SecurityProfile{
		runtime.ProfileDev,
		runtime.ProfileStandard,
		runtime.ProfileHardened,
	}

	fmt.Println("Security Profiles:")
	for _, p := range profiles {
		fmt.Printf("  %s (valid: %v)\n", p, p.IsValid())
	}

	invalid := runtime.SecurityProfile("unknown")
	fmt.Printf("  %s (valid: %v)\n", invalid, invalid.IsValid())
	// Output:
	// Security Profiles:
	//   dev (valid: true)
	//   standard (valid: true)
	//   hardened (valid: true)
	//   unknown (valid: false)
}

func Example_executeRequest() {
	req := runtime.ExecuteRequest{
		Code:    `output = 42`,
		Profile: runtime.ProfileDev,
		Timeout: 2 * time.Second,
		Limits: runtime.Limits{
			MaxOutputCells: 10_000,
			MaxCalls:       20,
		},
	}

	fmt.Printf("Profile: %s\n", req.Profile)
	fmt.Printf("Timeout: %v\n", req.Timeout)
	fmt.Printf("MaxOutputCells: %d\n", req.Limits.MaxOutputCells)
	fmt.Printf("Allowed: %v\n", req.AllowList().Names())
	// Output:
	// Profile: dev
	// Timeout: 2s
	// MaxOutputCells: 10000
	// Allowed: [analytics chart data frame json math metrics text time]
}

func ExampleDefaultRuntime() {
	backend := &fixedBackend{envelope: result.Scalar(int64(42))}

	rt := runtime.NewDefaultRuntime(runtime.RuntimeConfig{
		Backends: map[runtime.SecurityProfile]runtime.Backend{
			runtime.ProfileDev: backend,
		},
		DefaultProfile: runtime.ProfileDev,
	})

	res, err := rt.Execute(context.Background(), runtime.ExecuteRequest{Code: `output = 42`})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Kind: %s\n", res.Envelope.Kind)
	fmt.Printf("Value: %v\n", res.Envelope.Value)
	fmt.Printf("State: %s\n", res.State)
	// Output:
	// Kind: scalar
	// Value: 42
	// State: succeeded
}

func Example_errors() {
	fmt.Printf("ErrMissingCode: %v\n", runtime.ErrMissingCode)
	fmt.Printf("ErrRuntimeUnavailable: %v\n", runtime.ErrRuntimeUnavailable)
	fmt.Printf("ErrBackendBusy: %v\n", runtime.ErrBackendBusy)
	// Output:
	// ErrMissingCode: code is required
	// ErrRuntimeUnavailable: runtime unavailable
	// ErrBackendBusy: backend busy
}

// fixedBackend is a minimal Backend implementation for examples.
type fixedBackend struct {
	envelope result.Result
}

func (b *fixedBackend) Execute(_ context.Context, _ runtime.ExecuteRequest) (runtime.ExecuteResult, error) {
	return runtime.ExecuteResult{Envelope: b.envelope, Backend: runtime.BackendInfo{Kind: b.Kind()}}, nil
}

func (b *fixedBackend) Kind() runtime.BackendKind { return "fixed" }

var _ runtime.Backend = (*fixedBackend)(nil)
