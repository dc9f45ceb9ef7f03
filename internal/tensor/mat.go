package tensor

import "math/rand"

// Mat represents a dense row-major matrix of float32 values.
//
// R and C are the number of rows and columns. Stride is the number of
// elements between the starts of two consecutive rows; for freshly
// allocated matrices it equals C. Data holds the flattened values.
//
// Mat does not perform any memory safety beyond the checks performed by
// Go's slice types; out-of-range indices will panic.
type Mat struct {
	R, C   int
	Stride int
	Data   []float32
}

// NewMat allocates a zero-initialised matrix with the given shape.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   make([]float32, r*c),
	}
}

// NewMatFromData creates a matrix backed by existing data. It checks that
// the data length matches r*c.
func NewMatFromData(r, c int, data []float32) Mat {
	if r*c != len(data) {
		panic("data length mismatch")
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   data,
	}
}

// Row returns a view of the i-th row. Modifications to the returned slice
// update the underlying matrix values.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// At returns the element at row i, column j.
func (m *Mat) At(i, j int) float32 {
	if j < 0 || j >= m.C {
		panic("column index out of range")
	}
	return m.Row(i)[j]
}

// Set stores v at row i, column j.
func (m *Mat) Set(i, j int, v float32) {
	if j < 0 || j >= m.C {
		panic("column index out of range")
	}
	m.Row(i)[j] = v
}

// Clone returns a deep copy with a compact stride.
func (m *Mat) Clone() Mat {
	out := NewMat(m.R, m.C)
	for i := 0; i < m.R; i++ {
		copy(out.Row(i), m.Row(i))
	}
	return out
}

// FillRand fills the matrix with deterministic pseudo-random values drawn
// from the given seed. Values stay in (-0.5, 0.5) so long reductions remain
// well inside float32 range.
func FillRand(m *Mat, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		for j := range row {
			row[j] = rng.Float32() - 0.5
		}
	}
}
