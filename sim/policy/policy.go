// Package policy implements the caching policies compared by the benchmark:
// the BSCH hindsight optimum, the LRU and ARC discrete caches, and the
// fractional OGA cache with its box+budget projection.
//
// Every policy owns its cache state exclusively. A Policy value must be driven
// by a single goroutine, one Step per timeslot in time order.
package policy

// Policy serves one request per timeslot and advances its cache configuration.
type Policy interface {
	// Name returns the key identifying this instance in reports and persisted
	// artifacts, e.g. "lru" or "oga[0.1]".
	Name() string

	// Reset restores the configuration the policy starts a run with.
	Reset()

	// Step serves the request for item at timeslot t under weights w.
	// The outcome reflects the cache before the update triggered by the request.
	Step(t, item int, w []float64) (Outcome, error)

	// Cache returns a copy of the current configuration as an N-vector.
	// Discrete policies report membership as 0/1 entries.
	Cache() []float64
}

// Outcome is the result of serving one request.
type Outcome struct {
	Utility float64
	Hit     bool // the requested item was at least partially cached
}
