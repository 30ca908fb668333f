package sim

import "fmt"

// RequestStream is an immutable sequence of T one-hot request events over a
// library of N items. Each timeslot stores the index of its single active item,
// which makes the one-hot invariant hold by construction.
//
// A RequestStream is shared read-only by every policy of a benchmark run.
type RequestStream struct {
	n     int
	items []int
}

// NewRequestStream creates a stream over a library of n items.
// Every entry of items must lie in [0, n).
func NewRequestStream(n int, items []int) (*RequestStream, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: library size must be positive, got %d", ErrInvalidConfig, n)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: request stream must not be empty", ErrInvalidConfig)
	}
	for t, item := range items {
		if item < 0 || item >= n {
			return nil, fmt.Errorf("%w: timeslot %d requests item %d outside library [0, %d)", ErrMalformedRequest, t, item, n)
		}
	}
	cp := make([]int, len(items))
	copy(cp, items)
	return &RequestStream{n: n, items: cp}, nil
}

// RequestStreamFromIndicators builds a stream from its T×N one-hot form.
// A row without exactly one active entry fails with ErrMalformedRequest.
func RequestStreamFromIndicators(rows [][]bool) (*RequestStream, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: request stream must not be empty", ErrInvalidConfig)
	}
	n := len(rows[0])
	items := make([]int, len(rows))
	for t, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: timeslot %d has %d entries, want %d", ErrMalformedRequest, t, len(row), n)
		}
		active := -1
		for i, on := range row {
			if !on {
				continue
			}
			if active >= 0 {
				return nil, fmt.Errorf("%w: timeslot %d has more than one active item (%d and %d)", ErrMalformedRequest, t, active, i)
			}
			active = i
		}
		if active < 0 {
			return nil, fmt.Errorf("%w: timeslot %d has no active item", ErrMalformedRequest, t)
		}
		items[t] = active
	}
	return NewRequestStream(n, items)
}

// Len returns the horizon T.
func (s *RequestStream) Len() int { return len(s.items) }

// Library returns the library size N.
func (s *RequestStream) Library() int { return s.n }

// Item returns the index of the item requested at timeslot t.
func (s *RequestStream) Item(t int) int { return s.items[t] }

// Items returns a copy of the requested item indices.
func (s *RequestStream) Items() []int {
	cp := make([]int, len(s.items))
	copy(cp, s.items)
	return cp
}

// Indicator returns the one-hot request vector of timeslot t.
func (s *RequestStream) Indicator(t int) []float64 {
	x := make([]float64, s.n)
	x[s.items[t]] = 1
	return x
}

// Indicators returns the T×N boolean form of the stream.
func (s *RequestStream) Indicators() [][]bool {
	rows := make([][]bool, len(s.items))
	for t, item := range s.items {
		rows[t] = make([]bool, s.n)
		rows[t][item] = true
	}
	return rows
}

// Frequencies returns how often each item is requested over the whole stream.
func (s *RequestStream) Frequencies() []int {
	freq := make([]int, s.n)
	for _, item := range s.items {
		freq[item]++
	}
	return freq
}

// Scores returns the weighted frequency Σ_t w_t[i]·x_t[i] of every item.
// With static weights this is frequency × weight.
func (s *RequestStream) Scores(w *Weights) []float64 {
	scores := make([]float64, s.n)
	for t, item := range s.items {
		scores[item] += w.At(t)[item]
	}
	return scores
}
