// Package bench runs a set of caching policies over one shared request stream
// and collects their outcomes.
//
// Every policy is an independent task: the stream and weights are read-only and
// each task owns its cache state. Tasks fan out on a bounded goroutine pool;
// EG meta-learners run after all their OGA experts completed (fan-in barrier).
// A failing or panicking task is reported as a *TaskError without affecting
// its siblings.
package bench

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"

	"github.com/inference-sim/cachesim/sim"
	"github.com/inference-sim/cachesim/sim/metalearn"
	"github.com/inference-sim/cachesim/sim/metrics"
	"github.com/inference-sim/cachesim/sim/policy"
	"github.com/inference-sim/cachesim/sim/trace"
)

// TaskError attributes a failure to the policy task that produced it.
type TaskError struct {
	Policy string
	Err    error
}

func (e *TaskError) Error() string { return fmt.Sprintf("policy %s: %v", e.Policy, e.Err) }

func (e *TaskError) Unwrap() error { return e.Err }

// Result is the outcome of one task. Exactly one of Run and Err is set,
// except on cancellation where Run holds the partial trace.
type Result struct {
	Name        string
	Family      string
	Run         *trace.Run
	MetaLearner *metalearn.Result // set for EG tasks
	Summary     *trace.Summary
	Err         error
}

// Report collects every task result in plan order.
type Report struct {
	Reference []float64 // best static configuration in hindsight
	Hindsight float64   // its total utility
	Results   []*Result
}

// Result returns the result of the named task, nil if absent.
func (r *Report) Result(name string) *Result {
	for _, res := range r.Results {
		if res.Name == name {
			return res
		}
	}
	return nil
}

// Err aggregates the failures of every task, nil when all succeeded.
func (r *Report) Err() error {
	var err error
	for _, res := range r.Results {
		err = multierr.Append(err, res.Err)
	}
	return err
}

// Benchmark runs a plan over a fixed stream and weights.
type Benchmark struct {
	Config  sim.Config
	Stream  *sim.RequestStream
	Weights *sim.Weights
	Plan    *Plan              // nil means NewPlan(Config)
	Metrics *metrics.Collector // nil disables metrics
	Workers int                // maximum concurrent tasks; 0 means unbounded
}

// New validates the configuration against the inputs and returns a Benchmark.
func New(cfg sim.Config, s *sim.RequestStream, w *sim.Weights) (*Benchmark, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s.Len() != cfg.Horizon || s.Library() != cfg.Library {
		return nil, fmt.Errorf("%w: stream is %d×%d, configuration is %d×%d",
			sim.ErrInvalidConfig, s.Len(), s.Library(), cfg.Horizon, cfg.Library)
	}
	if err := w.CheckStream(s); err != nil {
		return nil, err
	}
	return &Benchmark{Config: cfg, Stream: s, Weights: w}, nil
}

func (b *Benchmark) newPool() *pool.Pool {
	p := pool.New()
	if b.Workers > 0 {
		p = p.WithMaxGoroutines(b.Workers)
	}
	return p
}

// Run executes every task of the plan. The returned error aggregates task
// failures; the report is always returned and holds every successful result.
func (b *Benchmark) Run(ctx context.Context) (*Report, error) {
	plan := b.Plan
	if plan == nil {
		plan = NewPlan(b.Config)
	}
	logrus.Debugf("benchmark plan: %v", plan.Names())

	reference := policy.BestStatic(b.Stream, b.Weights, b.Config.Capacity)
	report := &Report{
		Reference: reference,
		Hindsight: policy.HindsightUtility(b.Stream, b.Weights, b.Config.Capacity),
	}
	opts := Options{TrackCacheHistory: b.Config.TrackCacheHistory}
	if b.Config.TrackDistance {
		opts.Reference = reference
	}

	// Phase 1: independent policies.
	results := make([]*Result, len(plan.Policies))
	p := b.newPool()
	for i, spec := range plan.Policies {
		i, spec := i, spec
		p.Go(func() {
			results[i] = b.runPolicy(ctx, spec, opts)
		})
	}
	p.Wait()

	// Phase 2: meta-learners over the completed expert traces.
	byName := make(map[string]*Result, len(results))
	for _, res := range results {
		byName[res.Name] = res
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(b.Config.Seed))
	metaResults := make([]*Result, len(plan.MetaLearners))
	p = b.newPool()
	for i, spec := range plan.MetaLearners {
		i, spec := i, spec
		// PartitionedRNG is not thread-safe: derive on this goroutine.
		src := rng.ForSubsystem(sim.SubsystemMetaLearner(i))
		p.Go(func() {
			metaResults[i] = b.runMetaLearner(ctx, spec, byName, src)
		})
	}
	p.Wait()

	report.Results = append(results, metaResults...)
	b.summarize(report)
	return report, report.Err()
}

func (b *Benchmark) runPolicy(ctx context.Context, spec PolicySpec, opts Options) *Result {
	res := &Result{Name: spec.Name, Family: spec.Family}
	var err error
	var pc panics.Catcher
	pc.Try(func() {
		res.Run, err = Simulate(ctx, spec.New(b.Stream, b.Weights), b.Stream, b.Weights, opts)
	})
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}
	if err != nil {
		b.fail(res, err)
		return res
	}
	logrus.Infof("[%.2fs] %s cache policy", res.Run.Elapsed.Seconds(), spec.Name)
	return res
}

func (b *Benchmark) runMetaLearner(ctx context.Context, spec MetaSpec, experts map[string]*Result, src metalearn.Source) *Result {
	res := &Result{Name: spec.Name, Family: sim.PolicyEG}

	var missing []string
	traces := make([][]float64, 0, len(spec.Experts))
	for _, name := range spec.Experts {
		e, ok := experts[name]
		if !ok || e.Err != nil || e.Run == nil {
			missing = append(missing, name)
			continue
		}
		traces = append(traces, e.Run.Utility)
	}
	if len(missing) > 0 {
		b.fail(res, fmt.Errorf("missing expert traces %v", missing))
		return res
	}
	if err := ctx.Err(); err != nil {
		b.fail(res, err)
		return res
	}

	start := time.Now()
	var err error
	var pc panics.Catcher
	pc.Try(func() {
		u, uerr := metalearn.Experts(traces)
		if uerr != nil {
			err = uerr
			return
		}
		rate := spec.Rate
		if spec.Auto {
			rate = metalearn.AutoRate(u)
		}
		res.MetaLearner, err = metalearn.Run(u, rate, src)
	})
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}
	if err != nil {
		b.fail(res, err)
		return res
	}
	res.Run = &trace.Run{Policy: spec.Name, Utility: res.MetaLearner.Utility, Elapsed: time.Since(start)}
	logrus.Infof("[%.2fs] %s meta learner", res.Run.Elapsed.Seconds(), spec.Name)
	return res
}

func (b *Benchmark) fail(res *Result, err error) {
	res.Err = &TaskError{Policy: res.Name, Err: err}
	logrus.Warnf("%s failed: %v", res.Name, err)
	b.Metrics.RecordFailure(res.Name)
}

// summarize fills every summary against the BSCH and LRU runs and feeds metrics.
func (b *Benchmark) summarize(report *Report) {
	var bsch, lru *trace.Run
	if r := report.Result(sim.PolicyBSCH); r != nil && r.Err == nil {
		bsch = r.Run
	} else {
		bsch = &trace.Run{Policy: sim.PolicyBSCH, Utility: policy.StaticUtility(b.Stream, report.Reference, b.Weights)}
	}
	if r := report.Result(sim.PolicyLRU); r != nil && r.Err == nil {
		lru = r.Run
	}
	for _, res := range report.Results {
		if res.Err != nil || res.Run == nil {
			continue
		}
		res.Summary = trace.Summarize(res.Run, bsch, lru)
		b.Metrics.ObserveRun(res.Run)
		b.Metrics.SetRegret(res.Name, res.Summary.RegretVsBSCH)
	}
}

// Succeeded returns the results without an error, in plan order.
func (r *Report) Succeeded() []*Result {
	return slices.DeleteFunc(slices.Clone(r.Results), func(res *Result) bool { return res.Err != nil })
}
