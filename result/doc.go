// Package result defines the typed envelope produced by every snippet
// execution, together with the validator that enforces the output ceiling
// and the classifier that tags a raw value with its kind.
//
// # Kinds
//
// A [Result] carries exactly one [Kind]:
//
//   - scalar: a number
//   - series: a *frame.Series
//   - table: a *frame.Table
//   - mapping: a key-value mapping, insertion ordered when the producer
//     preserves order
//   - figure: a *frame.Figure
//   - error: a failed execution; Value is the message and Meta["reason"]
//     names the failure class
//   - object: anything else
//
// # Errors
//
// Failure classes are typed errors ([CapabilityRejectedError],
// [TimedOutError], [OutputTooLargeError], [RuntimeFailureError],
// [OrchestrationFailureError]) plus [ErrOutputMissing]. Each one matches
// its sentinel through errors.Is, and [FromError] turns any of them into
// an error envelope.
package result
