// Package random provides the injectable random source shared by the case
// simulation and the invoice generator, plus the sampling helpers built on it.
package random

import (
	"math"
	"math/rand/v2"
	"time"
)

// Source is the single random capability threaded through a generation run.
type Source interface {
	// IntN returns a uniform integer in [0, n). n must be positive.
	IntN(n int) int
	// ExpFloat64 returns an exponentially distributed float with rate 1.
	ExpFloat64() float64
}

// New returns a Source seeded deterministically from seed.
func New(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Percent returns a roll in [1, 100]. A branch taken with probability p% is
// selected by Percent(src) <= p.
func Percent(src Source) int {
	return src.IntN(100) + 1
}

// Between returns a uniform integer in [lo, hi], both inclusive.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Choice returns a uniformly chosen element of items. It panics on an empty
// slice.
func Choice[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// Bool returns true with probability one half.
func Bool(src Source) bool {
	return src.IntN(2) == 1
}

// Exponential returns a duration drawn from an exponential distribution with
// the given mean. The result is always positive.
func Exponential(src Source, mean time.Duration) time.Duration {
	d := time.Duration(src.ExpFloat64() * float64(mean))
	if d <= 0 {
		return time.Nanosecond
	}
	return d
}

// Scripted is a Source that replays a queue of integer draws. Each IntN call
// pops the next queued value and reduces it modulo n; when the queue is empty
// it returns 0. ExpFloat64 returns Exp (default 1).
type Scripted struct {
	Ints []int
	Exp  float64

	calls int
}

// NewScripted returns a Scripted source replaying ints.
func NewScripted(ints ...int) *Scripted {
	return &Scripted{Ints: ints, Exp: 1}
}

// IntN pops the next scripted value.
func (s *Scripted) IntN(n int) int {
	s.calls++
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	if v < 0 {
		v = -v
	}
	return v % n
}

// ExpFloat64 returns the configured exponential draw.
func (s *Scripted) ExpFloat64() float64 {
	if s.Exp <= 0 || math.IsNaN(s.Exp) {
		return 1
	}
	return s.Exp
}

// Calls returns how many IntN draws were made.
func (s *Scripted) Calls() int { return s.calls }

// Remaining returns how many scripted values have not been consumed.
func (s *Scripted) Remaining() int { return len(s.Ints) }
