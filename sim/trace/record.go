// Package trace records the per-timeslot outcome of benchmark runs and
// summarizes them against reference policies.
// This package has no dependencies on sim/ or sim/policy/; it stores pure data types.
package trace

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Run captures one policy's pass over a request stream.
type Run struct {
	Policy       string
	Utility      []float64     // utility earned at every timeslot
	Hits         []bool        // hit indicator per timeslot; nil for policies without one
	CacheHistory *mat.Dense    // T×N configuration after every timeslot; nil unless tracked
	Distance     []float64     // Euclidean distance to the reference configuration; nil unless tracked
	Elapsed      time.Duration // wall-clock time of the run
}

// Total returns the cumulative utility of the run.
func (r *Run) Total() float64 { return floats.Sum(r.Utility) }

// Cumulative returns the running sum of the utility trace.
func (r *Run) Cumulative() []float64 {
	out := make([]float64, len(r.Utility))
	if len(out) == 0 {
		return out
	}
	return floats.CumSum(out, r.Utility)
}

// HitCount returns the number of hits, 0 when hits are not recorded.
func (r *Run) HitCount() int {
	n := 0
	for _, h := range r.Hits {
		if h {
			n++
		}
	}
	return n
}

// HitRatio returns hits / T, 0 when hits are not recorded.
func (r *Run) HitRatio() float64 {
	if len(r.Hits) == 0 {
		return 0
	}
	return float64(r.HitCount()) / float64(len(r.Hits))
}
