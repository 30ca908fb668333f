package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/inference-sim/cachesim/sim"
	"github.com/inference-sim/cachesim/sim/policy"
	"github.com/inference-sim/cachesim/sim/trace"
)

// defaultCheckEvery is how many timeslots run between context checks.
const defaultCheckEvery = 1024

// Options selects the optional outputs of Simulate.
type Options struct {
	TrackCacheHistory bool      // record the T×N configuration history
	Reference         []float64 // when non-nil, record the distance to it every timeslot
	CheckEvery        int       // timeslots between context checks; 0 means defaultCheckEvery
}

// Simulate resets p and serves every request of the stream to it.
//
// On cancellation the run recorded so far is returned together with the
// context error. A policy error aborts the run and is returned as is.
func Simulate(ctx context.Context, p policy.Policy, s *sim.RequestStream, w *sim.Weights, opts Options) (*trace.Run, error) {
	topts := trace.Options{CacheHistory: opts.TrackCacheHistory, Reference: opts.Reference}
	rec := trace.NewRecorder(p.Name(), s.Len(), s.Library(), topts)
	needsCache := topts.NeedsCache()
	every := opts.CheckEvery
	if every <= 0 {
		every = defaultCheckEvery
	}

	p.Reset()
	start := time.Now()
	for t := 0; t < s.Len(); t++ {
		if t%every == 0 {
			if err := ctx.Err(); err != nil {
				rec.Truncate(t)
				run := rec.Run()
				run.Elapsed = time.Since(start)
				return run, fmt.Errorf("%s stopped at timeslot %d: %w", p.Name(), t, err)
			}
		}
		out, err := p.Step(t, s.Item(t), w.At(t))
		if err != nil {
			return nil, err
		}
		var cache []float64
		if needsCache {
			cache = p.Cache()
		}
		rec.Record(t, out.Utility, out.Hit, cache)
	}
	run := rec.Run()
	run.Elapsed = time.Since(start)
	return run, nil
}
