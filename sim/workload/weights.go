package workload

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/inference-sim/cachesim/sim"
)

// GenerateWeights creates the utility weights of a run over n items and horizon T.
//
//   - "uniform": every item weighs 1
//   - "random": a static vector drawn from [0, 1)
//   - "time_varying": a T×N matrix drawn from [0, 1)
func GenerateWeights(spec WeightSpec, n, horizon int, rng *rand.Rand) (*sim.Weights, error) {
	switch spec.Type {
	case "", "uniform":
		w := make([]float64, n)
		for i := range w {
			w[i] = 1
		}
		return sim.NewStaticWeights(w)

	case "random":
		w := make([]float64, n)
		for i := range w {
			w[i] = rng.Float64()
		}
		return sim.NewStaticWeights(w)

	case "time_varying":
		m := mat.NewDense(horizon, n, nil)
		m.Apply(func(_, _ int, _ float64) float64 { return rng.Float64() }, m)
		return sim.NewTimeVaryingWeights(m)

	default:
		return nil, fmt.Errorf("unknown weight type %q", spec.Type)
	}
}

// RandomCache returns a random feasible configuration: entries drawn from [0, 1)
// and scaled down to sum to C when their sum exceeds it.
func RandomCache(n, c int, rng *rand.Rand) []float64 {
	y := make([]float64, n)
	sum := 0.0
	for i := range y {
		y[i] = rng.Float64()
		sum += y[i]
	}
	if sum > float64(c) {
		scale := float64(c) / sum
		for i := range y {
			y[i] *= scale
		}
	}
	return y
}
