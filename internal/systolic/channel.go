package systolic

// channels holds the three nearest-neighbour channel fabrics. They are the
// only communication paths between the distributors, the PE grid and the
// collector.
//
//   - a: row-broadcast scalars. a[r][s] feeds PE (r, s); slot Cols only
//     mirrors the relay addressing for the right edge and is never
//     written. Depth Cols+1 covers the rightward ripple.
//   - b: column-broadcast lanes. b[r][j] feeds PE (r, j); the distributor
//     writes row 0 and PEs forward downward. Depth Rows.
//   - c: drain lanes travelling upward from row Rows-1 toward row 0's
//     collector tap. A producer row completes a full sub-tile sweep
//     before the row below consumes it one drain step later, so the
//     depth must hold SubTiles lanes plus the in-step transient.
type channels struct {
	a [][]*ring[float32]
	b [][]*ring[[]float32]
	c [][]*ring[[]float32]
}

func newChannels(cfg Config) *channels {
	ch := &channels{
		a: make([][]*ring[float32], cfg.Rows),
		b: make([][]*ring[[]float32], cfg.Rows),
		c: make([][]*ring[[]float32], cfg.Rows),
	}
	for r := 0; r < cfg.Rows; r++ {
		ch.a[r] = make([]*ring[float32], cfg.Cols+1)
		for s := range ch.a[r] {
			ch.a[r][s] = newRing[float32](cfg.Cols + 1)
		}
		ch.b[r] = make([]*ring[[]float32], cfg.Cols)
		ch.c[r] = make([]*ring[[]float32], cfg.Cols)
		for j := 0; j < cfg.Cols; j++ {
			ch.b[r][j] = newRing[[]float32](cfg.Rows)
			ch.c[r][j] = newRing[[]float32](cfg.SubTiles() + 1)
		}
	}
	return ch
}

// drained reports whether every channel in the fabric is empty. The
// lockstep schedule must leave no value in flight between tile pairs.
func (ch *channels) drained() bool {
	for r := range ch.a {
		for _, q := range ch.a[r] {
			if q.len() != 0 {
				return false
			}
		}
		for _, q := range ch.b[r] {
			if q.len() != 0 {
				return false
			}
		}
		for _, q := range ch.c[r] {
			if q.len() != 0 {
				return false
			}
		}
	}
	return true
}
