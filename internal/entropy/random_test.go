package entropy

import "testing"

func TestSourceDeterministic(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)
	for i := 0; i < 100; i++ {
		if a.Float() != b.Float() {
			t.Fatalf("same seed diverged at draw %d", i)
		}
	}
}

func TestFloatRange(t *testing.T) {
	s := NewSource(1)
	for i := 0; i < 1000; i++ {
		v := s.Float()
		if v < 0 || v >= 1 {
			t.Fatalf("Float() = %f outside [0,1)", v)
		}
	}
}

func TestPick(t *testing.T) {
	s := NewSource(7)

	if got := s.Pick(nil); got != -1 {
		t.Errorf("Pick(nil) = %d, want -1", got)
	}
	if got := s.Pick([]float64{0, 0}); got != -1 {
		t.Errorf("Pick(zeros) = %d, want -1", got)
	}

	// A zero-weight entry must never be picked.
	counts := make([]int, 3)
	for i := 0; i < 1000; i++ {
		idx := s.Pick([]float64{1, 0, 3})
		if idx < 0 || idx > 2 {
			t.Fatalf("Pick out of range: %d", idx)
		}
		counts[idx]++
	}
	if counts[1] != 0 {
		t.Errorf("zero-weight index picked %d times", counts[1])
	}
	if counts[2] <= counts[0] {
		t.Errorf("weighting ignored: counts = %v", counts)
	}
}
