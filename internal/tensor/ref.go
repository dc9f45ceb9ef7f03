package tensor

import "math"

// MatMulAdd computes dst = a·b + dst with a plain triple loop. Each output
// element accumulates its partial products in ascending k order and the
// pre-existing dst value is added last, which makes this the bit-exact
// oracle for any engine that preserves that accumulation order.
func MatMulAdd(dst, a, b *Mat) {
	if a.C != b.R || dst.R != a.R || dst.C != b.C {
		panic("matmul: dimension mismatch")
	}
	for i := 0; i < a.R; i++ {
		arow := a.Row(i)
		drow := dst.Row(i)
		for j := 0; j < b.C; j++ {
			var sum float32
			for k := 0; k < a.C; k++ {
				sum += arow[k] * b.At(k, j)
			}
			drow[j] = sum + drow[j]
		}
	}
}

// DiffNorm returns the Frobenius norm of a-b. The matrices must share a
// shape.
func DiffNorm(a, b *Mat) float64 {
	if a.R != b.R || a.C != b.C {
		panic("diff: shape mismatch")
	}
	var sum float64
	for i := 0; i < a.R; i++ {
		arow, brow := a.Row(i), b.Row(i)
		for j := range arow {
			d := float64(arow[j] - brow[j])
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}
