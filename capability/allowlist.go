package capability

import (
	"sort"
	"strings"
)

// Default capability names.
const (
	Math      = "math"
	Text      = "text"
	Time      = "time"
	JSON      = "json"
	Frame     = "frame"
	Chart     = "chart"
	Data      = "data"
	Metrics   = "metrics"
	Analytics = "analytics"
)

// AllowList is an immutable set of capability root names.
type AllowList struct {
	names map[string]struct{}
}

// NewAllowList returns an allow-list holding the root names of names.
func NewAllowList(names ...string) AllowList {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if root := RootName(n); root != "" {
			set[root] = struct{}{}
		}
	}
	return AllowList{names: set}
}

// DefaultAllowList returns the curated default set.
func DefaultAllowList() AllowList {
	return NewAllowList(Math, Text, Time, JSON, Frame, Chart, Data, Metrics, Analytics)
}

// Allows reports whether the root of name is in the list.
func (a AllowList) Allows(name string) bool {
	_, ok := a.names[RootName(name)]
	return ok
}

// Names returns the allowed names in sorted order.
func (a AllowList) Names() []string {
	out := make([]string, 0, len(a.names))
	for n := range a.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of allowed names.
func (a AllowList) Len() int {
	return len(a.names)
}

// With returns a new allow-list extended with names. The receiver is
// unchanged.
func (a AllowList) With(names ...string) AllowList {
	return NewAllowList(append(a.Names(), names...)...)
}

// Without returns a new allow-list with names removed. The receiver is
// unchanged.
func (a AllowList) Without(names ...string) AllowList {
	drop := NewAllowList(names...)
	var keep []string
	for _, n := range a.Names() {
		if !drop.Allows(n) {
			keep = append(keep, n)
		}
	}
	return NewAllowList(keep...)
}

// RootName returns the text of name before the first "/" or ".", trimmed
// of surrounding whitespace.
func RootName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexAny(name, "/."); i >= 0 {
		name = name[:i]
	}
	return name
}
