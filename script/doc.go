// Package script runs analysis snippets in a goja JavaScript interpreter.
//
// Each call to [Run] creates a fresh interpreter whose global scope holds
// only the names bound for that execution:
//
//   - require(name): loads an allowed capability module
//   - print(...): appends to captured stdout
//   - query(sql, ...args): read-only SQL through the gateway (data)
//   - metric(name): current metric value through the gateway (metrics)
//   - analytics: call, search and describe analytic functions (analytics)
//   - frame and pd: tabular constructors (frame)
//   - chart: figure constructors (chart)
//
// Globals other than require and print are bound only when their
// capability is allowed. A request for a capability outside the allow-list
// stops the snippet immediately; a JavaScript try/catch cannot recover
// from it. eval and the Function constructor are disabled.
//
// The snippet reports its result by assigning the global name "output".
package script
