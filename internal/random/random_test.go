package random

import (
	"testing"
	"time"
)

func TestNew_deterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.IntN(1000), b.IntN(1000); x != y {
			t.Fatalf("draw %d: %d != %d for the same seed", i, x, y)
		}
	}
}

func TestPercent_range(t *testing.T) {
	src := New(7)
	for i := 0; i < 10000; i++ {
		p := Percent(src)
		if p < 1 || p > 100 {
			t.Fatalf("Percent() = %d, want [1,100]", p)
		}
	}
}

func TestBetween(t *testing.T) {
	src := New(3)
	seen := map[int]bool{}
	for i := 0; i < 5000; i++ {
		v := Between(src, 1, 5)
		if v < 1 || v > 5 {
			t.Fatalf("Between(1,5) = %d", v)
		}
		seen[v] = true
	}
	if len(seen) != 5 {
		t.Errorf("Between(1,5) produced %d distinct values, want 5", len(seen))
	}
	if got := Between(src, 9, 9); got != 9 {
		t.Errorf("Between(9,9) = %d, want 9", got)
	}
}

func TestChoice(t *testing.T) {
	src := NewScripted(2)
	if got := Choice(src, []string{"a", "b", "c"}); got != "c" {
		t.Errorf("Choice() = %q, want %q", got, "c")
	}
}

func TestExponential_positiveWithMean(t *testing.T) {
	src := New(11)
	const n = 20000
	var total time.Duration
	for i := 0; i < n; i++ {
		d := Exponential(src, 12*time.Hour)
		if d <= 0 {
			t.Fatalf("Exponential() = %v, want > 0", d)
		}
		total += d
	}
	mean := total / n
	if mean < 11*time.Hour || mean > 13*time.Hour {
		t.Errorf("sample mean = %v, want about 12h", mean)
	}
}

func TestScripted(t *testing.T) {
	s := NewScripted(99, 150, -3)
	if got := s.IntN(100); got != 99 {
		t.Errorf("IntN(100) = %d, want 99", got)
	}
	if got := s.IntN(100); got != 50 {
		t.Errorf("IntN(100) = %d, want 50 (modulo)", got)
	}
	if got := s.IntN(7); got != 3 {
		t.Errorf("IntN(7) = %d, want 3", got)
	}
	if got := s.IntN(10); got != 0 {
		t.Errorf("IntN on empty queue = %d, want 0", got)
	}
	if s.Calls() != 4 {
		t.Errorf("Calls() = %d, want 4", s.Calls())
	}
	if got := Exponential(s, time.Hour); got != time.Hour {
		t.Errorf("Exponential with Exp=1 = %v, want 1h", got)
	}
}
