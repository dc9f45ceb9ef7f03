package systolic

import (
	"errors"
	"fmt"
)

// ErrGeometry marks configuration errors: the fabric has no remainder
// handling, so every loop bound must be an exact integer division and a
// shape that fails the divisibility rules is rejected before any data
// moves.
var ErrGeometry = errors.New("invalid systolic geometry")

// Config fixes the problem shape and the array geometry for one pipeline.
//
// The fabric computes C = A·B + C for A of shape N×K and logical B, C of
// shape K×M and N×M, with B and C streamed as Width-wide lanes. Rows×Cols
// processing elements cover a block of Rows output rows and a tile of Tile
// output columns at a time.
type Config struct {
	N int // output rows
	K int // reduction depth
	M int // output columns

	Rows  int // PE grid height
	Cols  int // PE grid width
	Width int // scalar lanes per streamed vector
	Tile  int // output columns per tile
}

// Validate rejects any shape the fabric cannot iterate exactly. Geometry
// errors are fatal setup errors; the pipeline never re-checks bounds while
// streaming.
func (c Config) Validate() error {
	for _, p := range []struct {
		name  string
		value int
	}{
		{"N", c.N}, {"K", c.K}, {"M", c.M},
		{"rows", c.Rows}, {"cols", c.Cols},
		{"width", c.Width}, {"tile", c.Tile},
	} {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s = %d, must be positive", ErrGeometry, p.name, p.value)
		}
	}
	if c.N%c.Rows != 0 {
		return fmt.Errorf("%w: N (%d) not divisible by grid rows (%d)", ErrGeometry, c.N, c.Rows)
	}
	if c.M%c.Tile != 0 {
		return fmt.Errorf("%w: M (%d) not divisible by tile width (%d)", ErrGeometry, c.M, c.Tile)
	}
	if c.Tile%(c.Width*c.Cols) != 0 {
		return fmt.Errorf("%w: tile width (%d) not divisible by width*cols (%d*%d)",
			ErrGeometry, c.Tile, c.Width, c.Cols)
	}
	return nil
}

// RowBlocks returns the number of Rows-high output row blocks.
func (c Config) RowBlocks() int { return c.N / c.Rows }

// ColTiles returns the number of Tile-wide output column tiles.
func (c Config) ColTiles() int { return c.M / c.Tile }

// TileVecs returns the number of lane vectors spanning one tile.
func (c Config) TileVecs() int { return c.Tile / c.Width }

// SubTiles returns the lane vectors each PE owns per tile: the m loop
// bound T/(W·Cols) shared by the B distributor, the MAC stage and the
// drain relay.
func (c Config) SubTiles() int { return c.Tile / (c.Width * c.Cols) }

// MACs returns the total scalar multiply-accumulate count for one run.
func (c Config) MACs() int64 {
	return int64(c.N) * int64(c.K) * int64(c.M)
}

func (c Config) String() string {
	return fmt.Sprintf("%dx%dx%d on %dx%d PEs (width %d, tile %d)",
		c.N, c.K, c.M, c.Rows, c.Cols, c.Width, c.Tile)
}
