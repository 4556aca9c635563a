// Package runtime orchestrates snippet executions.
//
// A [Runtime] accepts an [ExecuteRequest], selects a [Backend] by
// [SecurityProfile], and always produces exactly one envelope in
// [ExecuteResult]. Two backends ship with the module:
//
//   - inprocess: runs the snippet in the calling process and enforces the
//     budget with an interrupt alarm. One execution at a time.
//   - worker: runs the snippet in a child process and enforces the budget
//     by terminating the child's process group.
//
// Snippets reach data only through a [Gateway]. Backends never return Go
// errors for snippet failures; those become error envelopes. Go errors are
// reserved for malformed requests and missing configuration.
//
// # State machine
//
// Every execution moves Idle, Preparing, Running, then one of Succeeded,
// Failed or TimedOut, and finally Done. Illegal moves are rejected with
// [ErrIllegalTransition].
package runtime
