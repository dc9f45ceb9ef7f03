package systolic

import (
	"fmt"

	"github.com/samcharles93/lattice/internal/tensor"
)

// Pipeline wires the two distributors, the PE grid and the collector into
// one lockstep schedule. All four stages advance under a single driver
// loop over the shared iteration space (row block × column tile ×
// reduction step × sub-tile); the channels are their only coupling, and
// the step count is fixed by the configuration alone.
type Pipeline struct {
	cfg Config
	ch  *channels

	distA distributorA
	distB distributorB
	grid  *grid

	collected int64

	// onCollect observes every lane arriving at the collector, before it
	// is folded into C. Used by tests to pin the drain order.
	onCollect func(n0, tm, n1, m, peJ int, lane []float32)
}

// New validates the configuration and builds an idle pipeline.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ch := newChannels(cfg)
	return &Pipeline{
		cfg:   cfg,
		ch:    ch,
		distA: distributorA{cfg: cfg, heads: ch.a},
		distB: distributorB{cfg: cfg, heads: ch.b[0]},
		grid:  newGrid(cfg, ch),
	}, nil
}

// Config returns the geometry the pipeline was built for.
func (p *Pipeline) Config() Config { return p.cfg }

// Counters reports how many scalars A streamed, how many lanes B
// streamed, and how many lanes the collector folded into C.
func (p *Pipeline) Counters() (streamedA, streamedB, collected int64) {
	return p.distA.streamed, p.distB.streamed, p.collected
}

// Run computes c = a·b + c. a is the plain N×K matrix; b and c are the
// lane-packed K×M and N×M operands. c is updated in place.
func (p *Pipeline) Run(a *tensor.Mat, b, c *tensor.Packed) error {
	cfg := p.cfg
	if a.R != cfg.N || a.C != cfg.K {
		return fmt.Errorf("%w: A is %dx%d, want %dx%d", ErrGeometry, a.R, a.C, cfg.N, cfg.K)
	}
	if b.Width != cfg.Width || b.Rows != cfg.K || b.VCols*b.Width != cfg.M {
		return fmt.Errorf("%w: B is %dx%d lanes of %d, want %dx%d of %d",
			ErrGeometry, b.Rows, b.VCols, b.Width, cfg.K, cfg.M/cfg.Width, cfg.Width)
	}
	if c.Width != cfg.Width || c.Rows != cfg.N || c.VCols*c.Width != cfg.M {
		return fmt.Errorf("%w: C is %dx%d lanes of %d, want %dx%d of %d",
			ErrGeometry, c.Rows, c.VCols, c.Width, cfg.N, cfg.M/cfg.Width, cfg.Width)
	}

	p.distA.src = a
	p.distB.src = b

	subTiles := cfg.SubTiles()
	for n0 := 0; n0 < cfg.RowBlocks(); n0++ {
		for tm := 0; tm < cfg.ColTiles(); tm++ {
			for k := 0; k < cfg.K; k++ {
				p.distA.stream(n0, k)
				p.grid.relayA()
				for m := 0; m < subTiles; m++ {
					p.distB.round(tm, k, m)
					p.grid.mac(k, m)
				}
			}
			p.drain(c, n0, tm)
			if !p.ch.drained() {
				panic("systolic: values left in flight after tile pair")
			}
		}
	}
	return nil
}

// drain relays the finished accumulators out of the grid and folds them
// into c. Only the bottom row of the drain channel ever yields a fully
// relayed lane; step (n1, m) delivers, for each PE column pe_j, the lane
// destined for output row n0·Rows+n1 and lane column
// tm·(T/W)+m·Cols+pe_j. The pre-existing contents of c are added to, not
// overwritten.
func (p *Pipeline) drain(c *tensor.Packed, n0, tm int) {
	cfg := p.cfg
	bottom := p.ch.c[cfg.Rows-1]
	for n1 := 0; n1 < cfg.Rows; n1++ {
		row := n0*cfg.Rows + n1
		for m := 0; m < cfg.SubTiles(); m++ {
			p.grid.drainStep(n1, m)
			base := tm*cfg.TileVecs() + m*cfg.Cols
			for peJ := 0; peJ < cfg.Cols; peJ++ {
				lane := bottom[peJ].pop()
				if p.onCollect != nil {
					p.onCollect(n0, tm, n1, m, peJ, lane)
				}
				dst := c.Vec(row, base+peJ)
				for l := range dst {
					dst[l] = lane[l] + dst[l]
				}
				p.collected++
			}
		}
	}
}
