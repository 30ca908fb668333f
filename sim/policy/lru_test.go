package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/cachesim/sim/internal/testutil"
)

func hits(t *testing.T, p Policy, items []int, n int) ([]bool, []float64) {
	t.Helper()
	w := testutil.UniformWeights(t, n)
	gotHits := make([]bool, len(items))
	trace := make([]float64, len(items))
	for step, item := range items {
		out, err := p.Step(step, item, w.At(step))
		require.NoError(t, err)
		gotHits[step] = out.Hit
		trace[step] = out.Utility
	}
	return gotHits, trace
}

func TestLRU_HitsAndTrace(t *testing.T) {
	// GIVEN N=4, C=2 and the stream [0, 0, 0, 1, 1]
	lru := NewLRU(4, 2)

	// WHEN served
	gotHits, trace := hits(t, lru, []int{0, 0, 0, 1, 1}, 4)

	// THEN only the first request of each item misses
	assert.Equal(t, []bool{false, true, true, false, true}, gotHits)
	assert.Equal(t, []float64{0, 1, 1, 0, 1}, trace)
	assert.Equal(t, []float64{1, 1, 0, 0}, lru.Cache())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	// GIVEN C=2 and the stream [0, 1, 0, 2, 1]
	lru := NewLRU(3, 2)

	gotHits, _ := hits(t, lru, []int{0, 1, 0, 2, 1}, 3)

	// THEN inserting 2 evicts 1 (older than the refreshed 0), and 1 then evicts 0
	assert.Equal(t, []bool{false, false, true, false, false}, gotHits)
	assert.Equal(t, []int{2, 1}, lru.Contents())
	assert.Equal(t, []float64{0, 1, 1}, lru.Cache())
}

func TestLRU_WeightedHit(t *testing.T) {
	lru := NewLRU(3, 1)
	w := testutil.StaticWeights(t, 2.5, 1, 1)

	_, err := lru.Step(0, 0, w.At(0))
	require.NoError(t, err)
	out, err := lru.Step(1, 0, w.At(1))
	require.NoError(t, err)

	assert.True(t, out.Hit)
	assert.Equal(t, 2.5, out.Utility)
}

func TestLRU_NeverExceedsCapacity(t *testing.T) {
	s := testutil.SkewedStream(t, 4, 3000, 30)
	w := testutil.UniformWeights(t, 30)
	lru := NewLRU(30, 4)
	for step := 0; step < s.Len(); step++ {
		_, err := lru.Step(step, s.Item(step), w.At(step))
		require.NoError(t, err)
		assert.LessOrEqual(t, len(lru.Contents()), 4)
	}
	testutil.AssertFeasible(t, "lru cache", lru.Cache(), 4, 0)
}

func TestLRU_ResetAndDeterminism(t *testing.T) {
	items := []int{3, 1, 3, 0, 2, 1, 3}
	lru := NewLRU(4, 2)
	firstHits, firstTrace := hits(t, lru, items, 4)

	lru.Reset()
	assert.Empty(t, lru.Contents())

	againHits, againTrace := hits(t, lru, items, 4)
	assert.Equal(t, firstHits, againHits)
	assert.Equal(t, firstTrace, againTrace)
}

func TestNewLRU_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { NewLRU(3, 0) })
}
