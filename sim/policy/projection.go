package policy

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/inference-sim/cachesim/sim"
)

// DefaultProjectionTolerance is the relative slack allowed on the budget constraint.
const DefaultProjectionTolerance = 1e-6

// ProjectionError reports a projection whose output is not feasible.
// It wraps sim.ErrInfeasibleProjection.
type ProjectionError struct {
	Timeslot int // -1 when the projection ran outside a simulation
	Reason   string
	Sum      float64
	Capacity int
}

func (e *ProjectionError) Error() string {
	if e.Timeslot >= 0 {
		return fmt.Sprintf("projection at timeslot %d: %s (sum=%g, capacity=%d): %v", e.Timeslot, e.Reason, e.Sum, e.Capacity, sim.ErrInfeasibleProjection)
	}
	return fmt.Sprintf("projection: %s (sum=%g, capacity=%d): %v", e.Reason, e.Sum, e.Capacity, sim.ErrInfeasibleProjection)
}

func (e *ProjectionError) Unwrap() error { return sim.ErrInfeasibleProjection }

// breakpoint is a value of τ where clip(z_i−τ, 0, 1) changes slope.
type breakpoint struct {
	at    float64
	delta int // +1: coordinate leaves the upper bound, −1: coordinate reaches zero
}

// Projector computes Euclidean projections onto F = {y ∈ [0,1]^N : Σy ≤ C}.
// It owns scratch buffers reused across calls, so one Projector must not be
// shared between goroutines.
type Projector struct {
	n         int
	capacity  int
	tolerance float64
	events    []breakpoint
}

// NewProjector creates a projection context for library size n and capacity c.
// Panics if n <= 0 or c is outside [1, n].
func NewProjector(n, c int) *Projector {
	if n <= 0 {
		panic(fmt.Sprintf("NewProjector: library size must be positive, got %d", n))
	}
	if c < 1 || c > n {
		panic(fmt.Sprintf("NewProjector: capacity must be within [1 .. %d], got %d", n, c))
	}
	return &Projector{
		n:         n,
		capacity:  c,
		tolerance: DefaultProjectionTolerance,
		events:    make([]breakpoint, 0, 2*n),
	}
}

// Project writes the point of F closest to z into dst. dst and z must both have
// length N and must not alias.
//
// When clip(z, 0, 1) already satisfies the budget it is the projection. Otherwise
// the projection is clip(z−τ, 0, 1) for the unique τ > 0 with Σ clip(z_i−τ, 0, 1) = C;
// τ is found exactly by sweeping the 2N sorted breakpoints of that piecewise-linear sum.
func (p *Projector) Project(dst, z []float64) error {
	if len(z) != p.n || len(dst) != p.n {
		panic(fmt.Sprintf("Projector.Project: got vectors of length %d and %d, want %d", len(dst), len(z), p.n))
	}
	for i, v := range z {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ProjectionError{Timeslot: -1, Reason: fmt.Sprintf("input entry %d is %v", i, v), Sum: math.NaN(), Capacity: p.capacity}
		}
	}

	c := float64(p.capacity)
	sum := 0.0
	for i, v := range z {
		dst[i] = clip01(v)
		sum += dst[i]
	}
	if sum <= c {
		return p.verify(dst)
	}

	p.events = p.events[:0]
	for _, v := range z {
		p.events = append(p.events, breakpoint{at: v - 1, delta: +1}, breakpoint{at: v, delta: -1})
	}
	slices.SortFunc(p.events, func(a, b breakpoint) int { return cmp.Compare(a.at, b.at) })

	// Left of the first breakpoint every coordinate sits at its upper bound.
	f := float64(p.n)
	prev := p.events[0].at
	active := 0
	tau := math.NaN()
	for _, e := range p.events {
		next := f - float64(active)*(e.at-prev)
		if next <= c && active > 0 {
			tau = prev + (f-c)/float64(active)
			break
		}
		f, prev = next, e.at
		active += e.delta
	}
	if math.IsNaN(tau) {
		return &ProjectionError{Timeslot: -1, Reason: "no threshold satisfies the budget", Sum: sum, Capacity: p.capacity}
	}

	for i, v := range z {
		dst[i] = clip01(v - tau)
	}
	return p.verify(dst)
}

func (p *Projector) verify(y []float64) error {
	sum := 0.0
	for i, v := range y {
		if !(v >= 0 && v <= 1) {
			return &ProjectionError{Timeslot: -1, Reason: fmt.Sprintf("entry %d = %v outside [0, 1]", i, v), Sum: math.NaN(), Capacity: p.capacity}
		}
		sum += v
	}
	c := float64(p.capacity)
	if sum > c+p.tolerance*math.Max(1, c) {
		return &ProjectionError{Timeslot: -1, Reason: "budget exceeded", Sum: sum, Capacity: p.capacity}
	}
	return nil
}

// Project returns the Euclidean projection of z onto {y ∈ [0,1]^n : Σy ≤ c}
// for 1 <= c <= n. It allocates a fresh Projector; hot loops should keep their own.
func Project(z []float64, n, c int) ([]float64, error) {
	y := make([]float64, n)
	if err := NewProjector(n, c).Project(y, z); err != nil {
		return nil, err
	}
	return y, nil
}

func clip01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
