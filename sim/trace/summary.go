package trace

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a Run and compares it with the reference policies.
type Summary struct {
	Policy        string
	Total         float64
	MeanUtility   float64
	Hits          int
	HitRatio      float64
	RegretVsBSCH  float64 // BSCH total − this total; 0 without a BSCH run
	RegretVsLRU   float64 // LRU total − this total; 0 without an LRU run
	FinalDistance float64 // last recorded distance to the reference; 0 when untracked
	Elapsed       time.Duration
}

// Summarize computes aggregate statistics of run. bsch and lru may be nil.
// Safe for a nil run (returns zero-value fields).
func Summarize(run, bsch, lru *Run) *Summary {
	summary := &Summary{}
	if run == nil {
		return summary
	}
	summary.Policy = run.Policy
	summary.Total = run.Total()
	if len(run.Utility) > 0 {
		summary.MeanUtility = stat.Mean(run.Utility, nil)
	}
	summary.Hits = run.HitCount()
	summary.HitRatio = run.HitRatio()
	if bsch != nil {
		summary.RegretVsBSCH = bsch.Total() - summary.Total
	}
	if lru != nil {
		summary.RegretVsLRU = lru.Total() - summary.Total
	}
	if n := len(run.Distance); n > 0 {
		summary.FinalDistance = run.Distance[n-1]
	}
	summary.Elapsed = run.Elapsed
	return summary
}

// Regret returns the cumulative regret trace Σ_{s≤t} reference[s] − utility[s].
// Both traces must have the same length.
func Regret(reference, utility []float64) []float64 {
	out := make([]float64, len(utility))
	if len(out) == 0 {
		return out
	}
	floats.SubTo(out, reference, utility)
	return floats.CumSum(out, out)
}
