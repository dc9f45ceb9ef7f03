package systolic

import (
	"errors"
	"testing"

	"github.com/samcharles93/lattice/internal/tensor"
)

// runOnce packs the operands, runs a fresh pipeline and returns the
// unpacked result alongside the pipeline for counter inspection.
func runOnce(t *testing.T, cfg Config, a, b, c0 *tensor.Mat) (tensor.Mat, *Pipeline) {
	t.Helper()
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%v): %v", cfg, err)
	}
	bp := tensor.Pack(b, cfg.Width)
	cp := tensor.Pack(c0, cfg.Width)
	if err := p.Run(a, &bp, &cp); err != nil {
		t.Fatalf("Run(%v): %v", cfg, err)
	}
	return cp.Unpack(), p
}

func reference(a, b, c0 *tensor.Mat) tensor.Mat {
	want := c0.Clone()
	tensor.MatMulAdd(&want, a, b)
	return want
}

func expectEqual(t *testing.T, cfg Config, got, want *tensor.Mat) {
	t.Helper()
	for i := 0; i < want.R; i++ {
		for j := 0; j < want.C; j++ {
			if got.At(i, j) != want.At(i, j) {
				t.Fatalf("%v: C[%d,%d] = %v, want %v", cfg, i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
}

func randomProblem(t *testing.T, cfg Config, seed int64) (tensor.Mat, tensor.Mat, tensor.Mat) {
	t.Helper()
	a := tensor.NewMat(cfg.N, cfg.K)
	b := tensor.NewMat(cfg.K, cfg.M)
	c0 := tensor.NewMat(cfg.N, cfg.M)
	tensor.FillRand(&a, seed)
	tensor.FillRand(&b, seed+1)
	tensor.FillRand(&c0, seed+2)
	return a, b, c0
}

func TestMatchesReference(t *testing.T) {
	// The fabric folds every output element's partial products in
	// ascending k order, same as the oracle, so comparisons are exact.
	cfgs := []Config{
		{N: 4, K: 4, M: 4, Rows: 2, Cols: 1, Width: 1, Tile: 4},
		{N: 8, K: 12, M: 16, Rows: 4, Cols: 1, Width: 2, Tile: 8},
		{N: 8, K: 12, M: 16, Rows: 2, Cols: 2, Width: 2, Tile: 8},
		{N: 6, K: 5, M: 24, Rows: 3, Cols: 2, Width: 4, Tile: 24},
		{N: 16, K: 16, M: 16, Rows: 4, Cols: 4, Width: 1, Tile: 16},
		{N: 4, K: 7, M: 32, Rows: 1, Cols: 1, Width: 8, Tile: 16},
	}
	for _, cfg := range cfgs {
		a, b, c0 := randomProblem(t, cfg, 11)
		got, _ := runOnce(t, cfg, &a, &b, &c0)
		want := reference(&a, &b, &c0)
		expectEqual(t, cfg, &got, &want)
	}
}

func TestGeometryIsNotSemantic(t *testing.T) {
	// Varying Rows and Cols with the problem shape fixed must not change
	// a single bit of the result.
	base := Config{N: 8, K: 6, M: 16, Rows: 1, Cols: 1, Width: 2, Tile: 8}
	a, b, c0 := randomProblem(t, base, 23)
	baseline, _ := runOnce(t, base, &a, &b, &c0)

	for _, geo := range [][2]int{{2, 1}, {4, 1}, {8, 1}, {2, 2}, {4, 2}, {8, 4}} {
		cfg := base
		cfg.Rows, cfg.Cols = geo[0], geo[1]
		got, _ := runOnce(t, cfg, &a, &b, &c0)
		expectEqual(t, cfg, &got, &baseline)
	}
}

func TestWidthIsNotSemantic(t *testing.T) {
	base := Config{N: 4, K: 6, M: 16, Rows: 2, Cols: 1, Width: 1, Tile: 16}
	a, b, c0 := randomProblem(t, base, 31)
	baseline, _ := runOnce(t, base, &a, &b, &c0)

	for _, width := range []int{2, 4, 8, 16} {
		cfg := base
		cfg.Width = width
		got, _ := runOnce(t, cfg, &a, &b, &c0)
		expectEqual(t, cfg, &got, &baseline)
	}
}

func TestIdentityPassThrough(t *testing.T) {
	cfg := Config{N: 4, K: 4, M: 4, Rows: 2, Cols: 1, Width: 1, Tile: 4}
	a := tensor.NewMat(4, 4)
	for i := 0; i < 4; i++ {
		a.Set(i, i, 1)
	}
	b := tensor.NewMat(4, 4)
	tensor.FillRand(&b, 5)
	c0 := tensor.NewMat(4, 4)

	got, _ := runOnce(t, cfg, &a, &b, &c0)
	expectEqual(t, cfg, &got, &b)
}

func TestDegenerateScalarLoop(t *testing.T) {
	// A 1x1 array with width 1 and a full-M tile is a plain triple loop;
	// the result must match the oracle bit for bit.
	cfg := Config{N: 5, K: 9, M: 7, Rows: 1, Cols: 1, Width: 1, Tile: 7}
	a, b, c0 := randomProblem(t, cfg, 41)
	got, _ := runOnce(t, cfg, &a, &b, &c0)
	want := reference(&a, &b, &c0)
	expectEqual(t, cfg, &got, &want)
}

func TestAccumulatesInPlace(t *testing.T) {
	// Two runs starting from zero accumulate 2·(A·B), not A·B.
	cfg := Config{N: 4, K: 4, M: 8, Rows: 2, Cols: 2, Width: 2, Tile: 8}
	a, b, _ := randomProblem(t, cfg, 53)

	p, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	bp := tensor.Pack(&b, cfg.Width)
	zero := tensor.NewMat(cfg.N, cfg.M)
	cp := tensor.Pack(&zero, cfg.Width)
	if err := p.Run(&a, &bp, &cp); err != nil {
		t.Fatal(err)
	}
	if err := p.Run(&a, &bp, &cp); err != nil {
		t.Fatal(err)
	}
	got := cp.Unpack()

	want := tensor.NewMat(cfg.N, cfg.M)
	tensor.MatMulAdd(&want, &a, &b)
	tensor.MatMulAdd(&want, &a, &b)
	expectEqual(t, cfg, &got, &want)
}

func TestDrainOrderPerColumn(t *testing.T) {
	// Per tile pair and PE column, lanes must reach the collector in
	// ascending intra-block row order 0..Rows-1 regardless of relay
	// latency inside the fabric.
	cfg := Config{N: 8, K: 3, M: 8, Rows: 4, Cols: 2, Width: 2, Tile: 8}
	p, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	type pair struct{ n0, tm, peJ int }
	arrivals := make(map[pair][]int)
	p.onCollect = func(n0, tm, n1, m, peJ int, _ []float32) {
		arrivals[pair{n0, tm, peJ}] = append(arrivals[pair{n0, tm, peJ}], n1)
	}

	a, b, c0 := randomProblem(t, cfg, 61)
	bp := tensor.Pack(&b, cfg.Width)
	cp := tensor.Pack(&c0, cfg.Width)
	if err := p.Run(&a, &bp, &cp); err != nil {
		t.Fatal(err)
	}

	wantPairs := cfg.RowBlocks() * cfg.ColTiles() * cfg.Cols
	if len(arrivals) != wantPairs {
		t.Fatalf("observed %d (block, tile, column) streams, want %d", len(arrivals), wantPairs)
	}
	for key, seq := range arrivals {
		if len(seq) != cfg.Rows*cfg.SubTiles() {
			t.Fatalf("%v: %d arrivals, want %d", key, len(seq), cfg.Rows*cfg.SubTiles())
		}
		for i, n1 := range seq {
			if want := i / cfg.SubTiles(); n1 != want {
				t.Fatalf("%v: arrival %d came from row %d, want %d", key, i, n1, want)
			}
		}
	}
}

func TestMultiColumnStriping(t *testing.T) {
	// With Cols > 1 the B distributor stripes lanes across PE columns;
	// the collector's interleaving must visit every lane column of every
	// output row exactly once, and the values must still be exact.
	cfg := Config{N: 4, K: 5, M: 24, Rows: 2, Cols: 3, Width: 2, Tile: 12}
	p, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	visits := make(map[[2]int]int)
	p.onCollect = func(n0, tm, n1, m, peJ int, _ []float32) {
		row := n0*cfg.Rows + n1
		col := tm*cfg.TileVecs() + m*cfg.Cols + peJ
		visits[[2]int{row, col}]++
	}

	a, b, c0 := randomProblem(t, cfg, 71)
	bp := tensor.Pack(&b, cfg.Width)
	cp := tensor.Pack(&c0, cfg.Width)
	if err := p.Run(&a, &bp, &cp); err != nil {
		t.Fatal(err)
	}

	for row := 0; row < cfg.N; row++ {
		for col := 0; col < cfg.M/cfg.Width; col++ {
			if visits[[2]int{row, col}] != 1 {
				t.Fatalf("lane (%d,%d) collected %d times, want exactly once",
					row, col, visits[[2]int{row, col}])
			}
		}
	}
	if len(visits) != cfg.N*cfg.M/cfg.Width {
		t.Fatalf("%d lane addresses visited, want %d", len(visits), cfg.N*cfg.M/cfg.Width)
	}

	got := cp.Unpack()
	want := reference(&a, &b, &c0)
	expectEqual(t, cfg, &got, &want)
}

func TestRunRejectsMismatchedOperands(t *testing.T) {
	cfg := Config{N: 4, K: 4, M: 8, Rows: 2, Cols: 1, Width: 2, Tile: 8}
	p, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	a := tensor.NewMat(4, 4)
	b := tensor.NewMat(4, 8)
	c0 := tensor.NewMat(4, 8)
	bp := tensor.Pack(&b, cfg.Width)
	cp := tensor.Pack(&c0, cfg.Width)

	badA := tensor.NewMat(4, 5)
	if err := p.Run(&badA, &bp, &cp); !errors.Is(err, ErrGeometry) {
		t.Fatalf("mismatched A: got %v, want ErrGeometry", err)
	}

	badB := tensor.Pack(&b, 4)
	if err := p.Run(&a, &badB, &cp); !errors.Is(err, ErrGeometry) {
		t.Fatalf("mismatched B width: got %v, want ErrGeometry", err)
	}
}

func TestCounters(t *testing.T) {
	cfg := Config{N: 4, K: 3, M: 8, Rows: 2, Cols: 2, Width: 2, Tile: 8}
	a, b, c0 := randomProblem(t, cfg, 83)
	_, p := runOnce(t, cfg, &a, &b, &c0)

	streamedA, streamedB, collected := p.Counters()
	wantA := int64(cfg.RowBlocks() * cfg.ColTiles() * cfg.K * cfg.Rows)
	wantB := int64(cfg.RowBlocks() * cfg.ColTiles() * cfg.K * cfg.SubTiles() * cfg.Cols)
	wantC := int64(cfg.N * cfg.M / cfg.Width)
	if streamedA != wantA {
		t.Errorf("streamed A scalars = %d, want %d", streamedA, wantA)
	}
	if streamedB != wantB {
		t.Errorf("streamed B lanes = %d, want %d", streamedB, wantB)
	}
	if collected != wantC {
		t.Errorf("collected lanes = %d, want %d", collected, wantC)
	}
}
