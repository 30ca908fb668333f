package workload

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ItemSampler draws the item requested at a timeslot.
type ItemSampler interface {
	// Sample returns an item index in [0, N).
	Sample(t int, rng *rand.Rand) int
}

// UniformSampler requests every item with equal probability.
type UniformSampler struct {
	n int
}

func (s *UniformSampler) Sample(_ int, rng *rand.Rand) int {
	return rng.Intn(s.n)
}

// ZipfSampler requests item i with probability ∝ (i+1)^−alpha using inverse
// CDF via binary search. Any alpha >= 0 is accepted; alpha = 0 is uniform.
type ZipfSampler struct {
	cdf []float64
}

// NewZipfSampler creates a Zipfian sampler over n items.
func NewZipfSampler(n int, alpha float64) (*ZipfSampler, error) {
	if n <= 0 {
		return nil, fmt.Errorf("zipf library size must be positive, got %d", n)
	}
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) || alpha < 0 {
		return nil, fmt.Errorf("zipf alpha must be a non-negative finite number, got %f", alpha)
	}
	cdf := make([]float64, n)
	total := 0.0
	for i := range cdf {
		total += math.Pow(float64(i+1), -alpha)
		cdf[i] = total
	}
	for i := range cdf {
		cdf[i] /= total
	}
	// Ensure last CDF entry is exactly 1.0
	cdf[n-1] = 1.0
	return &ZipfSampler{cdf: cdf}, nil
}

// Probability returns the probability of item i.
func (s *ZipfSampler) Probability(i int) float64 {
	if i == 0 {
		return s.cdf[0]
	}
	return s.cdf[i] - s.cdf[i-1]
}

func (s *ZipfSampler) Sample(_ int, rng *rand.Rand) int {
	u := rng.Float64()
	idx := sort.SearchFloat64s(s.cdf, u)
	if idx >= len(s.cdf) {
		idx = len(s.cdf) - 1
	}
	return idx
}

// RoundRobinSampler cycles through the first bound items. It is the adversarial
// stream for recency caches smaller than the bound.
type RoundRobinSampler struct {
	bound int
}

func (s *RoundRobinSampler) Sample(t int, _ *rand.Rand) int {
	return t % s.bound
}

// NewItemSampler creates an ItemSampler from a StreamSpec over n items.
func NewItemSampler(spec StreamSpec, n int) (ItemSampler, error) {
	switch spec.Distribution {
	case "uniform":
		return &UniformSampler{n: n}, nil

	case "zipf":
		return NewZipfSampler(n, spec.Alpha)

	case "round_robin":
		if spec.Bound <= 0 || spec.Bound > n {
			return nil, fmt.Errorf("round-robin bound must be within [1 .. %d], got %d", n, spec.Bound)
		}
		return &RoundRobinSampler{bound: spec.Bound}, nil

	default:
		return nil, fmt.Errorf("unknown stream distribution %q", spec.Distribution)
	}
}
