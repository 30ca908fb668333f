package policy

import (
	"fmt"

	"github.com/hashicorp/golang-lru/arc/v2"

	"github.com/inference-sim/cachesim/sim"
)

// ARC is a discrete adaptive-replacement cache baseline. It balances recency
// and frequency lists internally; hits earn the item's weight like LRU.
type ARC struct {
	n        int
	capacity int
	cache    *arc.ARCCache[int, struct{}]
}

// NewARC creates an empty ARC cache over a library of n items.
// Panics if capacity <= 0.
func NewARC(n, capacity int) *ARC {
	a := &ARC{n: n, capacity: capacity}
	a.Reset()
	return a
}

func (a *ARC) Name() string { return sim.PolicyARC }

func (a *ARC) Reset() {
	c, err := arc.NewARC[int, struct{}](a.capacity)
	if err != nil {
		panic(fmt.Sprintf("NewARC: %v", err))
	}
	a.cache = c
}

func (a *ARC) Step(_, item int, w []float64) (Outcome, error) {
	if _, ok := a.cache.Get(item); ok {
		return Outcome{Utility: w[item], Hit: true}, nil
	}
	a.cache.Add(item, struct{}{})
	return Outcome{}, nil
}

func (a *ARC) Cache() []float64 {
	return membership(a.n, a.cache.Keys())
}
