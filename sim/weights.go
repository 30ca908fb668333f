package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Weights holds the per-item utility weights of a run: either a static
// N-vector (the common case) or a T×N matrix whose row t applies at timeslot t.
//
// Slices returned by At alias internal storage and must not be modified.
type Weights struct {
	n       int
	static  []float64
	varying *mat.Dense
}

// NewStaticWeights creates time-invariant weights from an N-vector.
func NewStaticWeights(w []float64) (*Weights, error) {
	if len(w) == 0 {
		return nil, fmt.Errorf("%w: weight vector must not be empty", ErrInvalidConfig)
	}
	if err := validateWeights(w); err != nil {
		return nil, err
	}
	cp := make([]float64, len(w))
	copy(cp, w)
	return &Weights{n: len(w), static: cp}, nil
}

// NewTimeVaryingWeights creates weights from a T×N matrix.
func NewTimeVaryingWeights(m *mat.Dense) (*Weights, error) {
	if m == nil || m.IsEmpty() {
		return nil, fmt.Errorf("%w: weight matrix must not be empty", ErrInvalidConfig)
	}
	r, c := m.Dims()
	for t := 0; t < r; t++ {
		if err := validateWeights(m.RawRowView(t)); err != nil {
			return nil, fmt.Errorf("timeslot %d: %w", t, err)
		}
	}
	return &Weights{n: c, varying: mat.DenseCopyOf(m)}, nil
}

func validateWeights(w []float64) error {
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weight[%d] must be a finite number, got %f", ErrInvalidConfig, i, v)
		}
		if v < 0 {
			return fmt.Errorf("%w: weight[%d] must be non-negative, got %f", ErrInvalidConfig, i, v)
		}
	}
	return nil
}

// At returns the weight vector in effect at timeslot t.
func (w *Weights) At(t int) []float64 {
	if w.varying != nil {
		return w.varying.RawRowView(t)
	}
	return w.static
}

// Library returns N.
func (w *Weights) Library() int { return w.n }

// IsTimeVarying reports whether the weights carry one row per timeslot.
func (w *Weights) IsTimeVarying() bool { return w.varying != nil }

// Horizon returns the number of rows of time-varying weights, 0 for static weights.
func (w *Weights) Horizon() int {
	if w.varying == nil {
		return 0
	}
	r, _ := w.varying.Dims()
	return r
}

// Max returns the largest weight of the run, an upper bound on any single-timeslot utility.
func (w *Weights) Max() float64 {
	if w.varying != nil {
		return mat.Max(w.varying)
	}
	return floats.Max(w.static)
}

// Matrix returns the weights as a dense matrix: T×N for time-varying weights,
// 1×N for static weights.
func (w *Weights) Matrix() *mat.Dense {
	if w.varying != nil {
		return mat.DenseCopyOf(w.varying)
	}
	return mat.NewDense(1, w.n, append([]float64(nil), w.static...))
}

// CheckStream verifies that the weights can serve every timeslot of s.
func (w *Weights) CheckStream(s *RequestStream) error {
	if w.n != s.Library() {
		return fmt.Errorf("%w: weights cover %d items, stream library has %d", ErrInvalidConfig, w.n, s.Library())
	}
	if w.varying != nil && w.Horizon() != s.Len() {
		return fmt.Errorf("%w: time-varying weights have %d rows, stream has %d timeslots", ErrInvalidConfig, w.Horizon(), s.Len())
	}
	return nil
}
