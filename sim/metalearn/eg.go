// Package metalearn implements the exponentiated-gradient (EG) meta-learner that
// combines K caching experts whose per-timeslot utilities form a T×K matrix.
//
// The experts never interact: each one is run independently over the same request
// stream beforehand, and EG only consumes the resulting utility matrix. Expert
// selection is randomized through a caller-supplied Source, while the weight
// trajectory and the expected utility depend only on the matrix and the rate.
package metalearn

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/inference-sim/cachesim/sim"
)

// Source supplies uniform draws in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// LearningRate returns sqrt(2 ln K / (maxUtility²·T)).
// A non-positive utility bound makes every update a no-op, so 0 is returned.
func LearningRate(maxUtility float64, horizon, experts int) float64 {
	if maxUtility <= 0 || horizon <= 0 || experts <= 0 {
		return 0
	}
	return math.Sqrt(2 * math.Log(float64(experts)) / (maxUtility * maxUtility * float64(horizon)))
}

// AutoRate derives the learning rate from the largest utility observed in u.
func AutoRate(u *mat.Dense) float64 {
	t, k := u.Dims()
	return LearningRate(mat.Max(u), t, k)
}

// RegretBound returns maxUtility·sqrt(2·T·ln K), an upper bound on the expected
// regret of EG against the best fixed expert when run at LearningRate.
func RegretBound(maxUtility float64, horizon, experts int) float64 {
	return maxUtility * math.Sqrt(2*float64(horizon)*math.Log(float64(experts)))
}

// Name returns the key of an EG instance, "eg[<rate>]".
func Name(rate float64) string {
	return "eg[" + strconv.FormatFloat(rate, 'g', -1, 64) + "]"
}

// Uniform returns the starting weights 1/K.
func Uniform(k int) []float64 {
	m := make([]float64, k)
	for i := range m {
		m[i] = 1 / float64(k)
	}
	return m
}

// Select draws an expert index from the categorical distribution m.
// Experts with zero weight are never selected.
func Select(m []float64, src Source) int {
	u := src.Float64()
	acc := 0.0
	last := -1
	for i, p := range m {
		if p <= 0 {
			continue
		}
		last = i
		acc += p
		if u < acc {
			return i
		}
	}
	if last < 0 {
		panic("metalearn.Select: weight vector has no positive entry")
	}
	// u landed in the rounding gap above Σm.
	return last
}

// Update writes the multiplicative-weights step m_i·exp(rate·u_i), normalised onto
// the probability simplex, into dst. The exponent is shifted by rate·max(u),
// which cancels in the normalisation and keeps exp from overflowing.
func Update(dst, m, u []float64, rate float64) {
	shift := rate * floats.Max(u)
	for i := range m {
		dst[i] = m[i] * math.Exp(rate*u[i]-shift)
	}
	floats.Scale(1/floats.Sum(dst), dst)
}

// Result is the outcome of one EG run over T timeslots and K experts.
type Result struct {
	Rate     float64
	Utility  []float64  // realized utility U[t, Selected[t]]
	Selected []int      // expert chosen at every timeslot
	Expected []float64  // Σ_i M_t[i]·U[t,i]
	Weights  *mat.Dense // (T+1)×K; row t is M_t, row 0 is uniform
}

// Total returns the realized cumulative utility.
func (r *Result) Total() float64 { return floats.Sum(r.Utility) }

// ExpectedTotal returns the cumulative expected utility.
func (r *Result) ExpectedTotal() float64 { return floats.Sum(r.Expected) }

// Final returns the expert weights after the last update.
func (r *Result) Final() []float64 {
	rows, _ := r.Weights.Dims()
	return mat.Row(nil, rows-1, r.Weights)
}

// Run replays the T×K utility matrix u through EG at the given rate, drawing
// expert selections from src.
func Run(u *mat.Dense, rate float64, src Source) (*Result, error) {
	if u == nil || u.IsEmpty() {
		return nil, fmt.Errorf("%w: expert utility matrix must not be empty", sim.ErrInvalidConfig)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return nil, fmt.Errorf("%w: EG learning rate must be a non-negative finite number, got %f", sim.ErrInvalidConfig, rate)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: EG requires a random source", sim.ErrInvalidConfig)
	}
	horizon, k := u.Dims()
	for t := 0; t < horizon; t++ {
		for i, v := range u.RawRowView(t) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: utility of expert %d at timeslot %d is %f", sim.ErrInvalidConfig, i, t, v)
			}
		}
	}

	res := &Result{
		Rate:     rate,
		Utility:  make([]float64, horizon),
		Selected: make([]int, horizon),
		Expected: make([]float64, horizon),
		Weights:  mat.NewDense(horizon+1, k, nil),
	}
	m := Uniform(k)
	next := make([]float64, k)
	res.Weights.SetRow(0, m)
	for t := 0; t < horizon; t++ {
		row := u.RawRowView(t)
		e := Select(m, src)
		res.Selected[t] = e
		res.Utility[t] = row[e]
		res.Expected[t] = floats.Dot(m, row)

		Update(next, m, row, rate)
		m, next = next, m
		res.Weights.SetRow(t+1, m)
	}
	return res, nil
}

// Experts stacks K utility traces of equal length T into a T×K matrix.
func Experts(traces [][]float64) (*mat.Dense, error) {
	if len(traces) == 0 {
		return nil, fmt.Errorf("%w: EG needs at least one expert", sim.ErrInvalidConfig)
	}
	horizon := len(traces[0])
	if horizon == 0 {
		return nil, fmt.Errorf("%w: expert utility traces must not be empty", sim.ErrInvalidConfig)
	}
	u := mat.NewDense(horizon, len(traces), nil)
	for i, tr := range traces {
		if len(tr) != horizon {
			return nil, fmt.Errorf("%w: expert %d has %d timeslots, want %d", sim.ErrInvalidConfig, i, len(tr), horizon)
		}
		u.SetCol(i, tr)
	}
	return u, nil
}
