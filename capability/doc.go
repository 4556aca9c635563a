// Package capability implements the guard that decides which named
// capabilities a snippet may load.
//
// An [AllowList] is an immutable set of root names. A [Guard] is built per
// execution from an allow-list and a set of [Loader]s; the snippet's
// module resolver calls [Guard.Require] and nothing else. There is no
// process-wide hook: a guard is bound to one interpreter and closed when
// that execution ends.
package capability
