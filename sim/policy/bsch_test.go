package policy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/inference-sim/cachesim/sim/internal/testutil"
)

func TestBSCH_SelectsMostRequested(t *testing.T) {
	// GIVEN N=5, C=2 and the stream [0, 0, 0, 1, 1] with uniform weights
	s := testutil.Stream(t, 5, 0, 0, 0, 1, 1)
	w := testutil.UniformWeights(t, 5)

	// WHEN the hindsight configuration is computed
	b := NewBSCH(s, w, 2)

	// THEN items 0 and 1 are cached and every request is a hit
	assert.Equal(t, []float64{1, 1, 0, 0, 0}, b.Cache())
	assert.Equal(t, 5.0, HindsightUtility(s, w, 2))
	trace, _ := runPolicy(t, b, s, w)
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, trace)
	assert.Equal(t, trace, StaticUtility(s, b.Cache(), w))
}

func TestBestStatic_IsIntegralWithExactlyCItems(t *testing.T) {
	s := testutil.SkewedStream(t, 5, 500, 40)
	w := testutil.UniformWeights(t, 40)
	for _, c := range []int{1, 5, 39} {
		y := BestStatic(s, w, c)
		ones := 0
		for _, v := range y {
			require.True(t, v == 0 || v == 1, "entry %v is not integral", v)
			if v == 1 {
				ones++
			}
		}
		assert.Equal(t, c, ones, "capacity %d", c)
	}
}

func TestTopC_TieBreakByIndex(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		c      int
		want   []int
	}{
		{"all equal", []float64{2, 2, 2, 2}, 2, []int{0, 1}},
		{"tie at boundary", []float64{1, 3, 1, 1}, 2, []int{1, 0}},
		{"zero scores", []float64{0, 0, 5}, 2, []int{2, 0}},
		{"capacity exceeds library", []float64{1, 2}, 5, []int{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TopC(tt.scores, tt.c))
		})
	}
}

func TestBSCH_WeightsChangeTheChoice(t *testing.T) {
	// GIVEN item 0 requested twice at weight 1 and item 1 once at weight 5
	s := testutil.Stream(t, 3, 0, 0, 1)
	w := testutil.StaticWeights(t, 1, 5, 1)

	// THEN the heavier item wins
	assert.Equal(t, []float64{0, 1, 0}, BestStatic(s, w, 1))
	assert.Equal(t, 5.0, HindsightUtility(s, w, 1))
}

func TestPrefixHindsight_KnownStream(t *testing.T) {
	s := testutil.Stream(t, 3, 2, 0, 0, 2, 2)
	w := testutil.UniformWeights(t, 3)

	got := PrefixHindsight(s, w, 1)

	assert.Equal(t, []float64{1, 1, 2, 2, 3}, got)
	assert.Equal(t, HindsightUtility(s, w, 1), got[len(got)-1])
}

// bruteForceHindsight enumerates every c-subset of the library.
func bruteForceHindsight(scores []float64, c int) float64 {
	best := 0.0
	var rec func(start, left int, acc float64)
	rec = func(start, left int, acc float64) {
		if left == 0 {
			best = max(best, acc)
			return
		}
		for i := start; i <= len(scores)-left; i++ {
			rec(i+1, left-1, acc+scores[i])
		}
	}
	rec(0, c, 0)
	return best
}

func TestPrefixHindsight_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for trial := 0; trial < 30; trial++ {
		n := 3 + rng.Intn(6)
		c := 1 + rng.Intn(n-1)
		items := make([]int, 40)
		for i := range items {
			items[i] = rng.Intn(n)
		}
		raw := make([]float64, n)
		for i := range raw {
			raw[i] = rng.Float64() * 3
		}
		s := testutil.Stream(t, n, items...)
		w := testutil.StaticWeights(t, raw...)

		prefix := PrefixHindsight(s, w, c)
		for k := 1; k <= len(items); k++ {
			sub := testutil.Stream(t, n, items[:k]...)
			want := bruteForceHindsight(sub.Scores(w), c)
			assert.InDelta(t, want, prefix[k-1], 1e-9, "trial %d prefix %d", trial, k)
		}
	}
}

func TestPrefixHindsight_TimeVaryingWeights(t *testing.T) {
	// GIVEN weights where item 1 becomes valuable only late in the stream
	s := testutil.Stream(t, 2, 0, 0, 1)
	w := testutil.TimeVaryingWeights(t, [][]float64{{1, 1}, {1, 1}, {1, 10}})

	got := PrefixHindsight(s, w, 1)

	assert.Equal(t, []float64{1, 2, 10}, got)
	assert.Equal(t, HindsightUtility(s, w, 1), got[2])
}

func TestBSCH_DominatesOnlinePoliciesOnStationaryStream(t *testing.T) {
	// GIVEN a long stationary skewed stream
	const n, c = 100, 10
	s := testutil.SkewedStream(t, 21, 20000, n)
	w := testutil.UniformWeights(t, n)

	hindsight := HindsightUtility(s, w, c)
	policies := []Policy{
		NewLRU(n, c),
		NewOGA(OGAConfig{Library: n, Capacity: c, Horizon: s.Len(), Schedule: NewDynamicRate(n, c, s.Len())}),
		NewOGA(OGAConfig{Library: n, Capacity: c, Horizon: s.Len(), Schedule: FixedRate(0.01)}),
	}

	// THEN no online policy collects more than the hindsight optimum
	for _, p := range policies {
		trace, _ := runPolicy(t, p, s, w)
		assert.LessOrEqual(t, floats.Sum(trace), hindsight, p.Name())
	}
}

func TestNewBSCH_PanicsOnBadCapacity(t *testing.T) {
	s := testutil.Stream(t, 3, 0)
	w := testutil.UniformWeights(t, 3)
	assert.Panics(t, func() { NewBSCH(s, w, 0) })
	assert.Panics(t, func() { NewBSCH(s, w, 3) })
}
