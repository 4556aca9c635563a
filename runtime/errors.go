package runtime

import "errors"

// Errors returned by runtimes and backends.
var (
	// ErrMissingCode is returned when a request has no code.
	ErrMissingCode = errors.New("code is required")

	// ErrRuntimeUnavailable is returned when no backend serves a profile
	// or a backend cannot start.
	ErrRuntimeUnavailable = errors.New("runtime unavailable")

	// ErrBackendBusy is returned by a backend that cannot accept another
	// execution right now.
	ErrBackendBusy = errors.New("backend busy")

	// ErrInvalidProfile is returned for an unknown security profile.
	ErrInvalidProfile = errors.New("invalid security profile")

	// ErrIllegalTransition is returned for a state change the state
	// machine does not allow.
	ErrIllegalTransition = errors.New("illegal state transition")
)
