package capability

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jonwraymond/snippetexec/result"
)

// Errors returned by Guard.
var (
	// ErrUnavailable is returned when an allowed capability has no loader.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrGuardClosed is returned by Require after Close.
	ErrGuardClosed = errors.New("capability guard closed")
)

// Loader produces the value bound for a capability. name is the full
// requested name, so a loader can serve sub-paths such as "math/stats".
type Loader func(name string) (any, error)

// Guard resolves capability requests for one execution.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: rejected names return *result.CapabilityRejectedError.
// - Ownership: the guard must be closed when its execution ends.
type Guard struct {
	allow   AllowList
	loaders map[string]Loader

	mu       sync.Mutex
	cache    map[string]any
	rejected *result.CapabilityRejectedError
	onReject func(error)
	closed   bool
}

// NewGuard returns a guard over allow that resolves names through
// loaders, keyed by root name.
func NewGuard(allow AllowList, loaders map[string]Loader) *Guard {
	return &Guard{
		allow:   allow,
		loaders: loaders,
		cache:   make(map[string]any),
	}
}

// OnReject registers fn to be called once, with the rejection error, the
// first time a request is rejected.
func (g *Guard) OnReject(fn func(error)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onReject = fn
}

// Require resolves name. Names outside the allow-list are rejected and
// recorded; allowed names are loaded once and cached.
func (g *Guard) Require(name string) (any, error) {
	root := RootName(name)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, ErrGuardClosed
	}
	if !g.allow.Allows(root) {
		err := &result.CapabilityRejectedError{Name: root}
		var notify func(error)
		if g.rejected == nil {
			g.rejected = err
			notify = g.onReject
		}
		g.mu.Unlock()
		if notify != nil {
			notify(err)
		}
		return nil, err
	}
	if v, ok := g.cache[name]; ok {
		g.mu.Unlock()
		return v, nil
	}
	load, ok := g.loaders[root]
	g.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnavailable, root)
	}
	v, err := load(name)
	if err != nil {
		return nil, fmt.Errorf("capability %q: %w", name, err)
	}

	g.mu.Lock()
	g.cache[name] = v
	g.mu.Unlock()
	return v, nil
}

// Allows reports whether name would pass the allow-list.
func (g *Guard) Allows(name string) bool {
	return g.allow.Allows(name)
}

// Rejected returns the first rejection, or nil.
func (g *Guard) Rejected() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rejected == nil {
		return nil
	}
	return g.rejected
}

// Close releases loaded values. Further requests fail.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.cache = nil
}
