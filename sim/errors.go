package sim

import "errors"

// Error taxonomy shared by every package of the benchmark.
// Callers match with errors.Is; producers wrap with fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidConfig reports a configuration rejected before any simulation runs.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedRequest reports a request event that does not have exactly one active item.
	ErrMalformedRequest = errors.New("malformed request stream")

	// ErrInfeasibleProjection reports a projection that failed to land in the feasible set.
	ErrInfeasibleProjection = errors.New("infeasible projection")
)
