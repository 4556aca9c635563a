// Package code provides the snippet executor used by analysis engines.
//
// An [Executor] accepts generated JavaScript, builds a fresh data-access
// gateway for the run, hands the request to a [runtime.Runtime], and
// returns the typed result envelope together with the captured output,
// the recorded data-access calls and timing.
//
// # Result Convention
//
// Snippets assign their result to the reserved name `output`:
//
//	var sales = query("SELECT region, amount FROM orders");
//	output = sales.aggregate("region", "amount", "sum");
//
// A snippet that never assigns `output` produces an error envelope.
//
// # Errors
//
// Snippet failures are reported in the envelope, never as Go errors.
// [ExecuteResult.Err] converts an error envelope into a [*CodeError] for
// callers that prefer sentinel checks:
//
//	res, err := exec.ExecuteCode(ctx, code.ExecuteParams{Code: src})
//	if err != nil {
//	    return err // configuration or orchestration problem
//	}
//	if errors.Is(res.Err(), code.ErrLimitExceeded) {
//	    // timed out or output too large
//	}
//
// # Limits
//
//   - Timeout: wall-clock budget per snippet, enforced by the backend
//   - MaxCalls: data-access calls per snippet, enforced by the gateway
//   - Allow: capability names the snippet may require, a subset of
//     Config.Allow
package code
