package trace

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Options controls which optional outputs a Recorder keeps.
type Options struct {
	CacheHistory bool      // keep the T×N configuration history
	Reference    []float64 // when non-nil, record the distance to this configuration every timeslot
}

// NeedsCache reports whether recording requires the cache configuration of every timeslot.
func (o Options) NeedsCache() bool { return o.CacheHistory || o.Reference != nil }

// Recorder collects the outcome of a run one timeslot at a time.
type Recorder struct {
	opts Options
	run  *Run
}

// NewRecorder creates a Recorder for a run of the given horizon over a library of n items.
func NewRecorder(policy string, horizon, n int, opts Options) *Recorder {
	run := &Run{
		Policy:  policy,
		Utility: make([]float64, horizon),
		Hits:    make([]bool, horizon),
	}
	if opts.CacheHistory {
		run.CacheHistory = mat.NewDense(horizon, n, nil)
	}
	if opts.Reference != nil {
		run.Distance = make([]float64, horizon)
	}
	return &Recorder{opts: opts, run: run}
}

// Record stores timeslot t. cache may be nil when Options.NeedsCache is false.
func (r *Recorder) Record(t int, utility float64, hit bool, cache []float64) {
	r.run.Utility[t] = utility
	r.run.Hits[t] = hit
	if r.opts.CacheHistory {
		r.run.CacheHistory.SetRow(t, cache)
	}
	if r.opts.Reference != nil {
		r.run.Distance[t] = floats.Distance(cache, r.opts.Reference, 2)
	}
}

// Truncate drops every timeslot from t on. Used when a run stops early.
func (r *Recorder) Truncate(t int) {
	r.run.Utility = r.run.Utility[:t]
	r.run.Hits = r.run.Hits[:t]
	if r.run.Distance != nil {
		r.run.Distance = r.run.Distance[:t]
	}
	if r.run.CacheHistory != nil {
		if t == 0 {
			r.run.CacheHistory = nil
		} else {
			_, n := r.run.CacheHistory.Dims()
			r.run.CacheHistory = mat.DenseCopyOf(r.run.CacheHistory.Slice(0, t, 0, n))
		}
	}
}

// Run returns the recorded run.
func (r *Recorder) Run() *Run { return r.run }
