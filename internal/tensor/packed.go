package tensor

// Packed is a matrix whose columns are grouped into fixed-width vector
// elements: logically rows × cols float32 values stored as
// rows × (cols/Width) lanes of Width scalars each. This is the layout the
// systolic fabric streams for its B and C operands, where one channel
// transfer moves a whole lane.
type Packed struct {
	Rows  int // logical rows
	VCols int // vector elements per row (cols / Width)
	Width int // scalar lanes per vector element
	Data  []float32
}

// NewPacked allocates a zero-initialised packed matrix holding rows × cols
// scalars. cols must be divisible by width.
func NewPacked(rows, cols, width int) Packed {
	if rows < 0 || cols < 0 {
		panic("negative dimension for packed matrix")
	}
	if width <= 0 || cols%width != 0 {
		panic("packed width must divide the column count")
	}
	return Packed{
		Rows:  rows,
		VCols: cols / width,
		Width: width,
		Data:  make([]float32, rows*cols),
	}
}

// Pack rearranges a plain matrix into width-wide lanes. Row-major packing
// along the column axis means the scalar layout is unchanged; the lane
// structure is purely an access-granularity contract.
func Pack(m *Mat, width int) Packed {
	p := NewPacked(m.R, m.C, width)
	for i := 0; i < m.R; i++ {
		copy(p.Data[i*m.C:(i+1)*m.C], m.Row(i))
	}
	return p
}

// Unpack expands the packed matrix back into a plain Mat.
func (p *Packed) Unpack() Mat {
	cols := p.VCols * p.Width
	m := NewMat(p.Rows, cols)
	copy(m.Data, p.Data)
	return m
}

// Vec returns the mutable lane view for vector element (i, j).
func (p *Packed) Vec(i, j int) []float32 {
	if i < 0 || i >= p.Rows {
		panic("packed row index out of range")
	}
	if j < 0 || j >= p.VCols {
		panic("packed column index out of range")
	}
	start := (i*p.VCols + j) * p.Width
	return p.Data[start : start+p.Width]
}

// Clone returns a deep copy.
func (p *Packed) Clone() Packed {
	out := Packed{
		Rows:  p.Rows,
		VCols: p.VCols,
		Width: p.Width,
		Data:  make([]float32, len(p.Data)),
	}
	copy(out.Data, p.Data)
	return out
}
