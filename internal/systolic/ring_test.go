package systolic

import "testing"

func TestRingFIFOOrder(t *testing.T) {
	r := newRing[int](3)
	r.push(1)
	r.push(2)
	if got := r.pop(); got != 1 {
		t.Fatalf("pop = %d, want 1", got)
	}
	r.push(3)
	r.push(4) // wraps
	for want := 2; want <= 4; want++ {
		if got := r.pop(); got != want {
			t.Fatalf("pop = %d, want %d", got, want)
		}
	}
	if r.len() != 0 {
		t.Fatalf("len = %d after draining", r.len())
	}
}

func TestRingOverflowPanics(t *testing.T) {
	r := newRing[int](1)
	r.push(1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected overflow panic")
		}
	}()
	r.push(2)
}

func TestRingUnderflowPanics(t *testing.T) {
	r := newRing[int](1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected underflow panic")
		}
	}()
	r.pop()
}
