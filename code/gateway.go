package code

import "github.com/jonwraymond/snippetexec/runtime"

// GatewayFactory builds the data-access gateway for one execution. A
// fresh gateway per execution keeps call limits and call records scoped
// to that execution.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: the returned gateway belongs to a single execution.
type GatewayFactory interface {
	NewGateway(maxCalls int) runtime.Gateway
}

// GatewayFunc adapts a function to GatewayFactory.
type GatewayFunc func(maxCalls int) runtime.Gateway

// NewGateway calls f.
func (f GatewayFunc) NewGateway(maxCalls int) runtime.Gateway {
	return f(maxCalls)
}
