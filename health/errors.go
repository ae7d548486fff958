package health

import "errors"

var (
	// ErrCheckTimeout indicates a check did not finish before the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no checker is registered under a name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrResidentMismatch indicates a cache's resident key set and store
	// disagree on their size.
	ErrResidentMismatch = errors.New("health: resident key set out of sync with store")

	// ErrCircuitOpen indicates a fetch circuit breaker is rejecting calls.
	ErrCircuitOpen = errors.New("health: circuit breaker open")
)
