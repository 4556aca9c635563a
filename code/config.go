package code

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/snippetexec/capability"
	"github.com/jonwraymond/snippetexec/runtime"
)

// Config holds the configuration for a snippet executor.
type Config struct {
	// Runtime executes snippets.
	// Required.
	Runtime runtime.Runtime

	// Gateways builds the data-access gateway for each execution.
	// Optional; without it snippets have no data access.
	Gateways GatewayFactory

	// Allow is the capability allow-list.
	// Default: capability.DefaultAllowList()
	Allow *capability.AllowList

	// DefaultTimeout is the execution timeout when ExecuteParams does
	// not specify one. If zero, the runtime default applies.
	DefaultTimeout time.Duration

	// MaxCalls limits the data-access calls of each execution.
	// Default: runtime.DefaultMaxCalls
	MaxCalls int

	// Limits are the output and stdout ceilings.
	Limits runtime.Limits

	// Logger is an optional logger for observability.
	Logger Logger
}

// Validate checks that all required fields are set.
// Returns ErrConfiguration if any required field is missing.
func (c *Config) Validate() error {
	var missing []string

	if c.Runtime == nil {
		missing = append(missing, "Runtime")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.MaxCalls < 0 {
		return fmt.Errorf("%w: MaxCalls must not be negative", ErrConfiguration)
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func (c *Config) applyDefaults() {
	if c.Allow == nil {
		allow := capability.DefaultAllowList()
		c.Allow = &allow
	}
	if c.MaxCalls == 0 {
		c.MaxCalls = runtime.DefaultMaxCalls
	}
	c.Limits = c.Limits.WithDefaults()
}
