package workload

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformSampler_CoversLibrary(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s, err := NewItemSampler(StreamSpec{Distribution: "uniform"}, 10)
	require.NoError(t, err)

	counts := make([]int, 10)
	n := 20000
	for i := 0; i < n; i++ {
		counts[s.Sample(i, rng)]++
	}
	for item, c := range counts {
		frac := float64(c) / float64(n)
		if math.Abs(frac-0.1) > 0.02 {
			t.Errorf("item %d frequency = %.3f, want ≈ 0.1", item, frac)
		}
	}
}

func TestZipfSampler_ProbabilitiesFollowPowerLaw(t *testing.T) {
	s, err := NewZipfSampler(4, 1)
	require.NoError(t, err)

	// 1/H_4 with H_4 = 25/12
	h := 25.0 / 12
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 1/(float64(i+1)*h), s.Probability(i), 1e-12, "item %d", i)
	}
}

func TestZipfSampler_AlphaZeroIsUniform(t *testing.T) {
	s, err := NewZipfSampler(5, 0)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.InDelta(t, 0.2, s.Probability(i), 1e-12)
	}
}

func TestZipfSampler_EmpiricalFrequencyMatches(t *testing.T) {
	// GIVEN alpha < 1, which the sampler must accept
	s, err := NewZipfSampler(50, 0.8)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(7))

	// WHEN many requests are drawn
	n := 50000
	counts := make([]int, 50)
	for i := 0; i < n; i++ {
		item := s.Sample(i, rng)
		require.True(t, item >= 0 && item < 50)
		counts[item]++
	}

	// THEN the most popular items match their probability
	for i := 0; i < 3; i++ {
		frac := float64(counts[i]) / float64(n)
		if math.Abs(frac-s.Probability(i)) > 0.01 {
			t.Errorf("item %d frequency = %.4f, want ≈ %.4f", i, frac, s.Probability(i))
		}
	}
	assert.Greater(t, counts[0], counts[49])
}

func TestZipfSampler_RejectsNegativeAlpha(t *testing.T) {
	_, err := NewZipfSampler(5, -0.1)
	assert.Error(t, err)
	_, err = NewItemSampler(StreamSpec{Distribution: "zipf", Alpha: math.NaN()}, 5)
	assert.Error(t, err)
}

func TestRoundRobinSampler_CyclesBound(t *testing.T) {
	s, err := NewItemSampler(StreamSpec{Distribution: "round_robin", Bound: 3}, 10)
	require.NoError(t, err)

	got := make([]int, 7)
	for i := range got {
		got[i] = s.Sample(i, nil)
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0}, got)
}

func TestNewItemSampler_InvalidSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec StreamSpec
	}{
		{"unknown distribution", StreamSpec{Distribution: "pareto"}},
		{"round robin zero bound", StreamSpec{Distribution: "round_robin", Bound: 0}},
		{"round robin bound above library", StreamSpec{Distribution: "round_robin", Bound: 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewItemSampler(tt.spec, 10)
			assert.Error(t, err)
		})
	}
}
