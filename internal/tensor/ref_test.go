package tensor

import "testing"

func TestMatMulAddIdentity(t *testing.T) {
	n := 4
	id := NewMat(n, n)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	b := NewMat(n, n)
	FillRand(&b, 3)

	c := NewMat(n, n)
	MatMulAdd(&c, &id, &b)

	for i := range c.Data {
		if c.Data[i] != b.Data[i] {
			t.Fatalf("identity multiply diverged at %d", i)
		}
	}
}

func TestMatMulAddAccumulates(t *testing.T) {
	a := NewMat(3, 5)
	b := NewMat(5, 4)
	FillRand(&a, 1)
	FillRand(&b, 2)

	once := NewMat(3, 4)
	MatMulAdd(&once, &a, &b)

	twice := NewMat(3, 4)
	MatMulAdd(&twice, &a, &b)
	MatMulAdd(&twice, &a, &b)

	for i := 0; i < twice.R; i++ {
		for j := 0; j < twice.C; j++ {
			want := once.At(i, j) + once.At(i, j)
			if got := twice.At(i, j); got != want {
				t.Fatalf("accumulation at (%d,%d): got %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestDiffNorm(t *testing.T) {
	a := NewMat(2, 2)
	b := NewMat(2, 2)
	if DiffNorm(&a, &b) != 0 {
		t.Fatal("norm of equal matrices must be zero")
	}

	b.Set(0, 0, 3)
	b.Set(1, 1, 4)
	if got := DiffNorm(&a, &b); got != 5 {
		t.Fatalf("DiffNorm = %v, want 5", got)
	}
}
