// Package testutil provides shared test infrastructure for the caching benchmark.
// It consolidates stream builders and floating-point assertions used across
// the sim/ sub-packages' tests.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/inference-sim/cachesim/sim"
)

// Stream builds a request stream over n items or fails the test.
func Stream(t testing.TB, n int, items ...int) *sim.RequestStream {
	t.Helper()
	s, err := sim.NewRequestStream(n, items)
	if err != nil {
		t.Fatalf("building request stream: %v", err)
	}
	return s
}

// UniformWeights returns static weights of 1 for n items.
func UniformWeights(t testing.TB, n int) *sim.Weights {
	t.Helper()
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return StaticWeights(t, w...)
}

// StaticWeights builds static weights or fails the test.
func StaticWeights(t testing.TB, w ...float64) *sim.Weights {
	t.Helper()
	weights, err := sim.NewStaticWeights(w)
	if err != nil {
		t.Fatalf("building weights: %v", err)
	}
	return weights
}

// TimeVaryingWeights builds T×N weights from rows or fails the test.
func TimeVaryingWeights(t testing.TB, rows [][]float64) *sim.Weights {
	t.Helper()
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	w, err := sim.NewTimeVaryingWeights(m)
	if err != nil {
		t.Fatalf("building time-varying weights: %v", err)
	}
	return w
}

// SkewedStream draws T requests over n items where item i has probability ∝ 1/(i+1).
// It is a deterministic stand-in for the workload generators in tests that must not
// depend on the workload package.
func SkewedStream(t testing.TB, seed int64, horizon, n int) *sim.RequestStream {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	cdf := make([]float64, n)
	total := 0.0
	for i := range cdf {
		total += 1 / float64(i+1)
		cdf[i] = total
	}
	items := make([]int, horizon)
	for k := range items {
		u := rng.Float64() * total
		i := 0
		for i < n-1 && cdf[i] < u {
			i++
		}
		items[k] = i
	}
	return Stream(t, n, items...)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t testing.TB, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertFeasible checks y ∈ [0,1]^N and Σy ≤ c + eps.
func AssertFeasible(t testing.TB, name string, y []float64, c int, eps float64) {
	t.Helper()
	sum := 0.0
	for i, v := range y {
		if v < 0 || v > 1 || math.IsNaN(v) {
			t.Errorf("%s: entry %d = %v outside [0, 1]", name, i, v)
			return
		}
		sum += v
	}
	if sum > float64(c)+eps {
		t.Errorf("%s: sum = %v exceeds capacity %d", name, sum, c)
	}
}
