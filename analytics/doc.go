// Package analytics provides the registry of named analytic functions that
// snippets reach through analytics.call, analytics.search and
// analytics.describe.
//
// Each function is registered as a tool in a tooldiscovery index so it can
// be found by keyword, and carries documentation in a tooldoc store for
// progressive disclosure. Function IDs take the form "analytics:<name>";
// the bare name is accepted as well.
//
// NewDefaultRegistry returns a registry with the built-in statistics:
// mean, sum, median, stddev, min, max, pct_change, moving_average,
// growth_rate and correlation.
package analytics
