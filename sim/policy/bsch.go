package policy

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/inference-sim/cachesim/sim"
)

// TopC returns the c items with the highest scores, best first.
// Equal scores are ordered by ascending item index, so exactly c items are
// selected deterministically.
func TopC(scores []float64, c int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		if s := cmp.Compare(scores[b], scores[a]); s != 0 {
			return s
		}
		return cmp.Compare(a, b)
	})
	return idx[:min(c, len(idx))]
}

// BestStatic returns the best static configuration in hindsight: the c items with
// the highest weighted request frequency set to 1, every other item 0.
func BestStatic(s *sim.RequestStream, w *sim.Weights, c int) []float64 {
	y := make([]float64, s.Library())
	for _, i := range TopC(s.Scores(w), c) {
		y[i] = 1
	}
	return y
}

// HindsightUtility returns the total utility of the best static configuration
// over the whole stream.
func HindsightUtility(s *sim.RequestStream, w *sim.Weights, c int) float64 {
	scores := s.Scores(w)
	total := 0.0
	for _, i := range TopC(scores, c) {
		total += scores[i]
	}
	return total
}

// PrefixHindsight returns, for every prefix length t+1, the utility the best
// static configuration of that prefix would have achieved on it. The last
// entry equals HindsightUtility.
func PrefixHindsight(s *sim.RequestStream, w *sim.Weights, c int) []float64 {
	ts := newTopSet(s.Library(), c)
	out := make([]float64, s.Len())
	for t := 0; t < s.Len(); t++ {
		item := s.Item(t)
		ts.add(item, w.At(t)[item])
		out[t] = ts.sum
	}
	return out
}

// StaticUtility returns the per-timeslot utility w_t[r]·y[r] of a fixed configuration y.
func StaticUtility(s *sim.RequestStream, y []float64, w *sim.Weights) []float64 {
	out := make([]float64, s.Len())
	for t := 0; t < s.Len(); t++ {
		item := s.Item(t)
		out[t] = w.At(t)[item] * y[item]
	}
	return out
}

// BSCH serves requests from the best static configuration in hindsight.
type BSCH struct {
	config []float64
}

// NewBSCH computes the hindsight configuration of s and returns it as a policy.
// Panics if c is outside (0, N).
func NewBSCH(s *sim.RequestStream, w *sim.Weights, c int) *BSCH {
	if c <= 0 || c >= s.Library() {
		panic(fmt.Sprintf("NewBSCH: capacity must be within [1 .. %d], got %d", s.Library()-1, c))
	}
	return &BSCH{config: BestStatic(s, w, c)}
}

func (b *BSCH) Name() string { return sim.PolicyBSCH }

// Reset is a no-op: the configuration is fixed for the whole run.
func (b *BSCH) Reset() {}

func (b *BSCH) Step(_, item int, w []float64) (Outcome, error) {
	return Outcome{Utility: w[item] * b.config[item], Hit: b.config[item] == 1}, nil
}

func (b *BSCH) Cache() []float64 {
	return append([]float64(nil), b.config...)
}
