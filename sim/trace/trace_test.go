package trace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestRecorder_DefaultOptions_NoOptionalOutputs(t *testing.T) {
	// GIVEN a recorder without history or reference
	rec := NewRecorder("lru", 3, 4, Options{})

	// WHEN timeslots are recorded without a cache vector
	rec.Record(0, 0, false, nil)
	rec.Record(1, 1, true, nil)
	rec.Record(2, 1, true, nil)

	// THEN only utility and hits are kept
	run := rec.Run()
	if run.CacheHistory != nil || run.Distance != nil {
		t.Error("expected no cache history and no distance trace")
	}
	assert.Equal(t, []float64{0, 1, 1}, run.Utility)
	assert.Equal(t, []bool{false, true, true}, run.Hits)
	assert.False(t, Options{}.NeedsCache())
}

func TestRecorder_TracksHistoryAndDistance(t *testing.T) {
	// GIVEN a recorder with both optional outputs and reference [1, 0]
	opts := Options{CacheHistory: true, Reference: []float64{1, 0}}
	rec := NewRecorder("oga[0.1]", 2, 2, opts)

	rec.Record(0, 0, false, []float64{0, 0})
	rec.Record(1, 0.5, true, []float64{1, 1})

	// THEN the history holds every configuration and the distance is Euclidean
	run := rec.Run()
	want := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
	assert.True(t, mat.Equal(want, run.CacheHistory))
	assert.InDeltaSlice(t, []float64{1, 1}, run.Distance, 1e-15)
	assert.True(t, opts.NeedsCache())
}

func TestRecorder_Truncate(t *testing.T) {
	rec := NewRecorder("oga[1]", 4, 2, Options{CacheHistory: true, Reference: []float64{0, 0}})
	rec.Record(0, 1, true, []float64{1, 0})
	rec.Record(1, 2, true, []float64{0, 1})

	rec.Truncate(2)

	run := rec.Run()
	assert.Len(t, run.Utility, 2)
	assert.Len(t, run.Hits, 2)
	assert.Len(t, run.Distance, 2)
	r, _ := run.CacheHistory.Dims()
	assert.Equal(t, 2, r)

	rec.Truncate(0)
	if rec.Run().CacheHistory != nil {
		t.Error("expected nil history for an empty run")
	}
}

func TestRun_CumulativeAndHitRatio(t *testing.T) {
	run := &Run{Utility: []float64{0, 1, 1, 0, 1}, Hits: []bool{false, true, true, false, true}}

	assert.Equal(t, []float64{0, 1, 2, 2, 3}, run.Cumulative())
	assert.Equal(t, 3.0, run.Total())
	assert.Equal(t, 3, run.HitCount())
	if math.Abs(run.HitRatio()-0.6) > 1e-15 {
		t.Errorf("expected hit ratio 0.6, got %v", run.HitRatio())
	}
	assert.Equal(t, 0.0, (&Run{}).HitRatio())
	assert.Empty(t, (&Run{}).Cumulative())
}
