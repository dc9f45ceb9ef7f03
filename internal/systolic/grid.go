package systolic

// pe is the per-coordinate state of one processing element: the scalar
// register holding the A operand currently being applied, and the private
// accumulator of SubTiles lane vectors held across the K reduction for one
// row-block/column-tile pair. No PE ever touches another PE's state; all
// coupling goes through the channels.
type pe struct {
	reg float32
	acc []float32 // SubTiles*Width lanes, flat
}

// grid is the Rows×Cols compute fabric. Every PE is a distinct state
// struct advanced by the driver in lockstep; the shared iteration indices
// are the only control signals, which keeps the schedule deadlock-free.
type grid struct {
	cfg Config
	pes [][]pe
	ch  *channels
}

func newGrid(cfg Config, ch *channels) *grid {
	g := &grid{cfg: cfg, ch: ch}
	g.pes = make([][]pe, cfg.Rows)
	lanes := cfg.SubTiles() * cfg.Width
	for r := range g.pes {
		g.pes[r] = make([]pe, cfg.Cols)
		for j := range g.pes[r] {
			g.pes[r][j].acc = make([]float32, lanes)
		}
	}
	return g
}

// relayA performs the row-wise broadcast-with-relay for one reduction
// step: every PE loads its register from the left and, unless it sits in
// the last column, forwards the untouched value one column to the right.
// Columns advance left to right so a value ripples across a row within
// the step.
func (g *grid) relayA() {
	for pc := 0; pc < g.cfg.Cols; pc++ {
		for pr := 0; pr < g.cfg.Rows; pr++ {
			v := g.ch.a[pr][pc].pop()
			g.pes[pr][pc].reg = v
			if pc < g.cfg.Cols-1 {
				g.ch.a[pr][pc+1].push(v)
			}
		}
	}
}

// mac advances sub-tile m of reduction step k: each PE pops its B lane,
// folds register·lane into accumulator slot m (overwriting at k == 0,
// which is what resets state between tile pairs), and forwards the
// unmodified lane downward unless it sits in the last row. Rows advance
// top to bottom so the lane reaches every row within the step.
func (g *grid) mac(k, m int) {
	w := g.cfg.Width
	for pr := 0; pr < g.cfg.Rows; pr++ {
		for pc := 0; pc < g.cfg.Cols; pc++ {
			lane := g.ch.b[pr][pc].pop()
			u := &g.pes[pr][pc]
			acc := u.acc[m*w : (m+1)*w]
			if k == 0 {
				for l := 0; l < w; l++ {
					acc[l] = u.reg * lane[l]
				}
			} else {
				for l := 0; l < w; l++ {
					acc[l] += u.reg * lane[l]
				}
			}
			if pr < g.cfg.Rows-1 {
				g.ch.b[pr+1][pc].push(lane)
			}
		}
	}
}

// drainStep runs one (n1, m) step of the upward relay that empties the
// fabric after a reduction. A PE participates while n1 <= p_r. At n1 == 0
// every participant releases its own buffer slot; afterwards a PE above
// row 0 forwards the value its upper neighbour drained one step earlier,
// so finished buffers leave the bottom row in ascending grid-row order,
// which through the distributor's index inversion is ascending physical
// row order.
func (g *grid) drainStep(n1, m int) {
	w := g.cfg.Width
	for pr := 0; pr < g.cfg.Rows; pr++ {
		if n1 > pr {
			continue
		}
		for pc := 0; pc < g.cfg.Cols; pc++ {
			var lane []float32
			if pr > 0 && n1 > 0 {
				lane = g.ch.c[pr-1][pc].pop()
			} else {
				lane = g.pes[pr][pc].acc[m*w : (m+1)*w]
			}
			g.ch.c[pr][pc].push(lane)
		}
	}
}
