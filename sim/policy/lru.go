package policy

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/inference-sim/cachesim/sim"
)

// LRU is a discrete capacity-C recency cache.
//
// On a hit the item moves to the most-recently-used position and earns its
// weight. On a miss it is inserted as most recently used, evicting the
// least-recently-used item when the cache is full, and earns nothing.
type LRU struct {
	n     int
	cache *simplelru.LRU[int, struct{}]
}

// NewLRU creates an empty LRU cache over a library of n items.
// Panics if capacity <= 0.
func NewLRU(n, capacity int) *LRU {
	c, err := simplelru.NewLRU[int, struct{}](capacity, nil)
	if err != nil {
		panic(fmt.Sprintf("NewLRU: %v", err))
	}
	return &LRU{n: n, cache: c}
}

func (l *LRU) Name() string { return sim.PolicyLRU }

func (l *LRU) Reset() { l.cache.Purge() }

func (l *LRU) Step(_, item int, w []float64) (Outcome, error) {
	// Get refreshes recency on a hit.
	if _, ok := l.cache.Get(item); ok {
		return Outcome{Utility: w[item], Hit: true}, nil
	}
	l.cache.Add(item, struct{}{})
	return Outcome{}, nil
}

func (l *LRU) Cache() []float64 {
	return membership(l.n, l.cache.Keys())
}

// Contents returns the cached items ordered from least to most recently used.
func (l *LRU) Contents() []int {
	return l.cache.Keys()
}

func membership(n int, keys []int) []float64 {
	y := make([]float64, n)
	for _, k := range keys {
		y[k] = 1
	}
	return y
}
