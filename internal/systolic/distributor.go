package systolic

import "github.com/samcharles93/lattice/internal/tensor"

// distributorA streams plain scalars of A into the row-broadcast channel.
// For reduction step k of row block n0 it emits one scalar per grid row,
// enqueueing the value for intra-block row n1 on row queue Rows-1-n1. The
// inversion is deliberate: the drain relay releases grid row 0 last, and
// inverting here is what makes physical row 0 leave the array first. The
// same block is re-streamed once per column tile, trading bandwidth for a
// fabric with no central A cache.
type distributorA struct {
	cfg   Config
	src   *tensor.Mat
	heads [][]*ring[float32] // row-broadcast channel, indexed [row][slot]

	streamed int64
}

func (d *distributorA) stream(n0, k int) {
	for n1 := 0; n1 < d.cfg.Rows; n1++ {
		d.heads[d.cfg.Rows-1-n1][0].push(d.src.At(n0*d.cfg.Rows+n1, k))
		d.streamed++
	}
}

// distributorB streams lane vectors of B into the column-broadcast
// channel heads. For (tm, k, m) it emits one lane per PE column:
// B[k, tm·(T/W) + m·Cols + pe_j] onto head queue pe_j. Columns receive
// striped, non-overlapping subsequences of the tile's lane range; the
// stride-by-Cols striping is what produces the interleaved output layout
// the collector expects.
type distributorB struct {
	cfg   Config
	src   *tensor.Packed
	heads []*ring[[]float32] // column-broadcast channel heads, row 0

	streamed int64
}

func (d *distributorB) round(tm, k, m int) {
	base := tm*d.cfg.TileVecs() + m*d.cfg.Cols
	for peJ := 0; peJ < d.cfg.Cols; peJ++ {
		d.heads[peJ].push(d.src.Vec(k, base+peJ))
		d.streamed++
	}
}
