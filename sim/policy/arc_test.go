package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/cachesim/sim/internal/testutil"
)

func TestARC_HitsRepeatedItems(t *testing.T) {
	a := NewARC(4, 2)

	gotHits, trace := hits(t, a, []int{0, 0, 0, 1, 1}, 4)

	assert.Equal(t, []bool{false, true, true, false, true}, gotHits)
	assert.Equal(t, []float64{0, 1, 1, 0, 1}, trace)
	assert.Equal(t, "arc", a.Name())
}

func TestARC_StaysIntegralAndWithinCapacity(t *testing.T) {
	s := testutil.SkewedStream(t, 8, 3000, 30)
	w := testutil.UniformWeights(t, 30)
	a := NewARC(30, 5)
	for step := 0; step < s.Len(); step++ {
		_, err := a.Step(step, s.Item(step), w.At(step))
		require.NoError(t, err)
	}
	y := a.Cache()
	testutil.AssertFeasible(t, "arc cache", y, 5, 0)
	for _, v := range y {
		assert.True(t, v == 0 || v == 1)
	}
}

func TestARC_ResetEmptiesCache(t *testing.T) {
	a := NewARC(3, 1)
	_, err := a.Step(0, 2, []float64{1, 1, 1})
	require.NoError(t, err)

	a.Reset()

	assert.Equal(t, []float64{0, 0, 0}, a.Cache())
}
