package policy

import "container/heap"

// topSet tracks the C best-scoring items of a library whose scores only grow.
// The heap root is the weakest member; ordering is score → item index, the
// same total order BestStatic uses to break ties.
type topSet struct {
	scores []float64 // score of every library item
	items  []int     // heap of member items
	pos    []int     // heap position of every item, -1 when not a member
	sum    float64   // Σ scores of the members
}

func newTopSet(n, c int) *topSet {
	ts := &topSet{
		scores: make([]float64, n),
		items:  make([]int, 0, c),
		pos:    make([]int, n),
	}
	for i := range ts.pos {
		ts.pos[i] = -1
	}
	// All scores start at zero, so the members are the c lowest indices.
	for i := 0; i < c; i++ {
		heap.Push(ts, i)
	}
	return ts
}

// better reports whether item a ranks above item b.
func (ts *topSet) better(a, b int) bool {
	if ts.scores[a] != ts.scores[b] {
		return ts.scores[a] > ts.scores[b]
	}
	return a < b
}

// Len implements heap.Interface
func (ts *topSet) Len() int { return len(ts.items) }

// Less implements heap.Interface; the weakest member sorts first
func (ts *topSet) Less(i, j int) bool { return ts.better(ts.items[j], ts.items[i]) }

// Swap implements heap.Interface
func (ts *topSet) Swap(i, j int) {
	ts.items[i], ts.items[j] = ts.items[j], ts.items[i]
	ts.pos[ts.items[i]] = i
	ts.pos[ts.items[j]] = j
}

// Push implements heap.Interface
func (ts *topSet) Push(x any) {
	item := x.(int)
	ts.pos[item] = len(ts.items)
	ts.items = append(ts.items, item)
	ts.sum += ts.scores[item]
}

// Pop implements heap.Interface
func (ts *topSet) Pop() any {
	old := ts.items
	n := len(old)
	item := old[n-1]
	ts.items = old[:n-1]
	ts.pos[item] = -1
	ts.sum -= ts.scores[item]
	return item
}

// add increases the score of item by delta (delta >= 0) and restores the top-C invariant.
func (ts *topSet) add(item int, delta float64) {
	ts.scores[item] += delta
	if p := ts.pos[item]; p >= 0 {
		ts.sum += delta
		heap.Fix(ts, p)
		return
	}
	if len(ts.items) == 0 {
		return
	}
	// Items outside the set never outrank the root except the one that just grew.
	if weakest := ts.items[0]; ts.better(item, weakest) {
		heap.Pop(ts)
		heap.Push(ts, item)
	}
}
