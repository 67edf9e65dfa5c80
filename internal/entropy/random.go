// Package entropy provides the seeded randomness source shared by the
// event pipeline. Deterministic given a seed, so simulation runs and
// tests are reproducible.
package entropy

import (
	"math/rand"
	"sync"
)

// Source wraps a seeded PRNG behind a mutex so the tick loop and API
// handlers can share one instance.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource creates a seeded randomness source.
func NewSource(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Float returns a random float64 in [0, 1).
func (s *Source) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Intn returns a random int in [0, n). n must be > 0.
func (s *Source) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Pick returns a random index weighted by the given non-negative
// weights. Returns -1 if weights is empty or sums to zero.
func (s *Source) Pick(weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	roll := s.Float() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}
