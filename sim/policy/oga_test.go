package policy

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/cachesim/sim"
	"github.com/inference-sim/cachesim/sim/internal/testutil"
)

func TestOGA_PureOperations(t *testing.T) {
	x := []float64{0, 1, 0}
	y := []float64{0.2, 0.5, 1}
	w := []float64{3, 2, 1}

	assert.Equal(t, []float64{0, 0, 0}, Construct(3))
	assert.InDelta(t, 1.0, Utility(x, y, w), 1e-15)
	assert.Equal(t, []float64{0, 2, 0}, Gradient(x, w))
	assert.InDeltaSlice(t, []float64{0.2, 0.7, 1}, Ascend(y, Gradient(x, w), 0.1), 1e-15)
	assert.Equal(t, 2.0, LipschitzBound(x, w))
}

func TestDiameter_CapacityRegimes(t *testing.T) {
	tests := []struct {
		n, c int
		want float64
	}{
		{10, 2, math.Sqrt(4)},
		{10, 5, math.Sqrt(10)},
		{10, 8, math.Sqrt(4)},
		{10, 10, 0},
		{10, 0, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Diameter(tt.n, tt.c), 1e-15, "Diameter(%d, %d)", tt.n, tt.c)
	}
}

func TestDynamicLearningRate(t *testing.T) {
	assert.InDelta(t, 0.2, DynamicLearningRate(2, 1, 100), 1e-15)
	assert.Equal(t, 0.0, DynamicLearningRate(2, 0, 100), "zero gradient bound yields rate 0")
}

func TestOGA_Name(t *testing.T) {
	fixed := NewOGA(OGAConfig{Library: 4, Capacity: 1, Horizon: 4, Schedule: FixedRate(0.1)})
	dynamic := NewOGA(OGAConfig{Library: 4, Capacity: 1, Horizon: 4, Schedule: NewDynamicRate(4, 1, 4)})
	assert.Equal(t, "oga[0.1]", fixed.Name())
	assert.Equal(t, "oga[dynamic]", dynamic.Name())
}

func runPolicy(t *testing.T, p Policy, s *sim.RequestStream, w *sim.Weights) ([]float64, [][]float64) {
	t.Helper()
	utilities := make([]float64, s.Len())
	caches := make([][]float64, s.Len())
	for step := 0; step < s.Len(); step++ {
		out, err := p.Step(step, s.Item(step), w.At(step))
		require.NoError(t, err)
		utilities[step] = out.Utility
		caches[step] = p.Cache()
	}
	return utilities, caches
}

func TestOGA_AlternatingStream_FixedRate(t *testing.T) {
	// GIVEN N=4, C=1, rate 0.1 and the stream [0, 1, 0, 1] with uniform weights
	s := testutil.Stream(t, 4, 0, 1, 0, 1)
	w := testutil.UniformWeights(t, 4)
	oga := NewOGA(OGAConfig{Library: 4, Capacity: 1, Horizon: 4, Schedule: FixedRate(0.1)})

	// WHEN the stream is served
	utilities, caches := runPolicy(t, oga, s, w)

	// THEN the trace and every cache state match the hand-computed values
	assert.InDeltaSlice(t, []float64{0, 0, 0.1, 0.1}, utilities, 1e-12)
	wantCaches := [][]float64{
		{0.1, 0, 0, 0},
		{0.1, 0.1, 0, 0},
		{0.2, 0.1, 0, 0},
		{0.2, 0.2, 0, 0},
	}
	for step, want := range wantCaches {
		assert.InDeltaSlice(t, want, caches[step], 1e-12, "cache after timeslot %d", step)
		testutil.AssertFeasible(t, "oga cache", caches[step], 1, eps)
	}

	// AND a fresh instance reproduces the trace
	again, _ := runPolicy(t, NewOGA(OGAConfig{Library: 4, Capacity: 1, Horizon: 4, Schedule: FixedRate(0.1)}), s, w)
	assert.Equal(t, utilities, again)
}

func TestOGA_BudgetProjectionEngages(t *testing.T) {
	// GIVEN a rate large enough to hit the budget on the third request
	s := testutil.Stream(t, 3, 0, 0, 1)
	w := testutil.UniformWeights(t, 3)
	oga := NewOGA(OGAConfig{Library: 3, Capacity: 1, Horizon: 3, Schedule: FixedRate(1)})

	utilities, caches := runPolicy(t, oga, s, w)

	assert.InDeltaSlice(t, []float64{0, 1, 0}, utilities, 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0}, caches[2], 1e-12)
}

func TestOGA_SkipFinalUpdate(t *testing.T) {
	s := testutil.Stream(t, 4, 0, 1, 0, 1)
	w := testutil.UniformWeights(t, 4)
	cfg := OGAConfig{Library: 4, Capacity: 1, Horizon: 4, Schedule: FixedRate(0.1)}

	full, fullCaches := runPolicy(t, NewOGA(cfg), s, w)
	cfg.SkipFinalUpdate = true
	skipped, skippedCaches := runPolicy(t, NewOGA(cfg), s, w)

	// THEN utilities are identical but the final snapshot differs
	assert.Equal(t, full, skipped)
	assert.InDeltaSlice(t, []float64{0.2, 0.2, 0, 0}, fullCaches[3], 1e-12)
	assert.InDeltaSlice(t, []float64{0.2, 0.1, 0, 0}, skippedCaches[3], 1e-12)
}

func TestOGA_DynamicRate(t *testing.T) {
	// GIVEN N=10, C=2 (diameter 2), T=100 and unit weights: rate = 2/(1·10) = 0.2
	s := testutil.Stream(t, 10, 3)
	oga := NewOGA(OGAConfig{Library: 10, Capacity: 2, Horizon: 100, Schedule: NewDynamicRate(10, 2, 100)})

	_, err := oga.Step(0, s.Item(0), testutil.UniformWeights(t, 10).At(0))
	require.NoError(t, err)

	assert.InDelta(t, 0.2, oga.LastRate(), 1e-15)
	assert.InDelta(t, 0.2, oga.Cache()[3], 1e-15)
}

func TestOGA_DynamicRate_ZeroWeightLeavesCache(t *testing.T) {
	w := testutil.StaticWeights(t, 0, 1, 1)
	oga := NewOGA(OGAConfig{Library: 3, Capacity: 1, Horizon: 10, Schedule: NewDynamicRate(3, 1, 10)})

	_, err := oga.Step(0, 0, w.At(0))
	require.NoError(t, err)

	assert.Equal(t, 0.0, oga.LastRate())
	assert.Equal(t, []float64{0, 0, 0}, oga.Cache())
}

func TestOGA_FeasibleEveryTimeslot(t *testing.T) {
	s := testutil.SkewedStream(t, 11, 2000, 50)
	w := testutil.UniformWeights(t, 50)
	schedules := []RateSchedule{FixedRate(0.05), FixedRate(0.5), FixedRate(5), NewDynamicRate(50, 5, s.Len())}

	for _, sched := range schedules {
		t.Run(sched.String(), func(t *testing.T) {
			oga := NewOGA(OGAConfig{Library: 50, Capacity: 5, Horizon: s.Len(), Schedule: sched})
			for step := 0; step < s.Len(); step++ {
				_, err := oga.Step(step, s.Item(step), w.At(step))
				require.NoError(t, err)
				testutil.AssertFeasible(t, "oga cache", oga.Cache(), 5, eps)
			}
		})
	}
}

func TestOGA_ProjectionFaultNamesTimeslot(t *testing.T) {
	// GIVEN an infinite weight that makes the ascent step non-finite
	oga := NewOGA(OGAConfig{Library: 2, Capacity: 1, Horizon: 5, Schedule: FixedRate(0.1)})
	_, err := oga.Step(3, 0, []float64{math.Inf(1), 1})

	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrInfeasibleProjection))
	var perr *ProjectionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Timeslot)
	assert.Contains(t, err.Error(), "oga[0.1]")
}

func TestOGA_ResetRestoresInitial(t *testing.T) {
	initial := []float64{0.5, 0.5, 0}
	oga := NewOGA(OGAConfig{Library: 3, Capacity: 1, Horizon: 5, Schedule: FixedRate(1), Initial: initial})
	_, err := oga.Step(0, 2, []float64{1, 1, 1})
	require.NoError(t, err)
	require.NotEqual(t, initial, oga.Cache())

	oga.Reset()
	assert.Equal(t, initial, oga.Cache())
}

func TestNewOGA_PanicsWithoutSchedule(t *testing.T) {
	assert.Panics(t, func() { NewOGA(OGAConfig{Library: 3, Capacity: 1, Horizon: 5}) })
}
