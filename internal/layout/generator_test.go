package layout

import (
	"errors"
	"math/rand"
	"testing"
)

func newRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestNewGrid(t *testing.T) {
	if _, err := NewGrid(0, 5); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("NewGrid(0, 5) error = %v, want ErrInvalidSize", err)
	}
	if _, err := NewGrid(5, -1); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("NewGrid(5, -1) error = %v, want ErrInvalidSize", err)
	}

	g, err := NewGrid(4, 3)
	if err != nil {
		t.Fatalf("NewGrid(4, 3) failed: %v", err)
	}
	if g.Count() != 0 {
		t.Errorf("new grid has %d occupied cells", g.Count())
	}
	if c := g.Center(); c != (Cell{2, 1}) {
		t.Errorf("Center() = %s, want (2,1)", c)
	}
	if !g.Connected() {
		t.Error("empty grid reported as disconnected")
	}
}

func TestCellStep(t *testing.T) {
	c := Cell{2, 2}
	tests := []struct {
		d    Direction
		want Cell
	}{
		{Up, Cell{2, 3}},
		{Down, Cell{2, 1}},
		{Left, Cell{1, 2}},
		{Right, Cell{3, 2}},
		{Direction(9), Cell{2, 2}},
	}

	for _, tc := range tests {
		if got := c.Step(tc.d); got != tc.want {
			t.Errorf("Step(%s) = %s, want %s", tc.d, got, tc.want)
		}
	}
}

func TestGridOccupy(t *testing.T) {
	g, _ := NewGrid(3, 3)

	if err := g.Occupy(Cell{-1, 0}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Occupy(-1,0) error = %v, want ErrOutOfBounds", err)
	}
	if g.Occupied(Cell{5, 5}) {
		t.Error("off-grid cell reported as occupied")
	}

	if err := g.Occupy(Cell{0, 0}); err != nil {
		t.Fatalf("Occupy(0,0) failed: %v", err)
	}
	if !g.Occupied(Cell{0, 0}) || g.Count() != 1 {
		t.Error("Occupy(0,0) did not mark the cell")
	}
	// (0,0) is not reachable from the unoccupied center
	if g.Connected() {
		t.Error("Connected() = true with the center unoccupied")
	}
}

func TestGenerateCountAndConnectivity(t *testing.T) {
	// From the center of a 21x21 grid, 7 branches can never reach the edge,
	// and a snake needs at least 8 cells to wall in its own head.
	for seed := int64(1); seed <= 30; seed++ {
		grid, err := New(newRNG(seed)).Generate(21, 21, 8)
		if err != nil {
			t.Fatalf("seed %d: Generate() failed: %v", seed, err)
		}
		if grid.Count() != 8 {
			t.Errorf("seed %d: %d cells occupied, want 8", seed, grid.Count())
		}
		if !grid.Occupied(grid.Center()) {
			t.Errorf("seed %d: center not occupied", seed)
		}
		if !grid.Connected() {
			t.Errorf("seed %d: layout is not connected", seed)
		}
		if len(grid.Stalls()) != 0 {
			t.Errorf("seed %d: unexpected stalls %v", seed, grid.Stalls())
		}
	}
}

func TestGenerateSingleRoom(t *testing.T) {
	grid, err := New(newRNG(1)).Generate(5, 5, 1)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	cells := grid.Cells()
	if len(cells) != 1 || cells[0] != (Cell{2, 2}) {
		t.Errorf("Cells() = %v, want only the center", cells)
	}
}

func TestGenerateInvalidRoomCount(t *testing.T) {
	gen := New(newRNG(1))

	if _, err := gen.Generate(3, 3, 0); !errors.Is(err, ErrInvalidRoomCount) {
		t.Errorf("Generate(3, 3, 0) error = %v, want ErrInvalidRoomCount", err)
	}
	if _, err := gen.Generate(3, 3, 10); !errors.Is(err, ErrInvalidRoomCount) {
		t.Errorf("Generate(3, 3, 10) error = %v, want ErrInvalidRoomCount", err)
	}
	if _, err := gen.Generate(0, 3, 1); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Generate(0, 3, 1) error = %v, want ErrInvalidSize", err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	successes := 0
	for seed := int64(1); seed <= 50; seed++ {
		first, err1 := New(newRNG(seed)).Generate(5, 5, 5)
		second, err2 := New(newRNG(seed)).Generate(5, 5, 5)

		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("seed %d: different error states: %v vs %v", seed, err1, err2)
		}
		if err1 != nil && err1.Error() != err2.Error() {
			t.Errorf("seed %d: errors differ: %v vs %v", seed, err1, err2)
		}

		a, b := first.Cells(), second.Cells()
		if len(a) != len(b) {
			t.Fatalf("seed %d: %d vs %d cells", seed, len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("seed %d: cell %d differs: %s vs %s", seed, i, a[i], b[i])
			}
		}

		if err1 == nil {
			successes++
			if first.Count() != 5 || !first.Connected() {
				t.Errorf("seed %d: %d cells, connected=%v", seed, first.Count(), first.Connected())
			}
		}
	}

	if successes == 0 {
		t.Error("no seed produced a complete 5x5 layout")
	}
}

// scriptedSource feeds rand.Rand a fixed list of values. Intn(n) returns
// value % n for every value below 1<<31.
type scriptedSource struct {
	values []int64
	draws  int
}

func (s *scriptedSource) Int63() int64 {
	var v int64
	if s.draws < len(s.values) {
		v = s.values[s.draws]
	}
	s.draws++
	return v << 32
}

func (s *scriptedSource) Seed(int64) {}

func TestGenerateScriptedDraws(t *testing.T) {
	// Three draws per branch: Intn(4), Intn(3), Intn(2).
	src := &scriptedSource{values: []int64{
		1, 2, 1, // up, right, left, down: (2,2) -> (2,3)
		3, 0, 1, // left, down, up, right: (2,3) -> (1,3)
		2, 2, 0, // down, up, right, left: (1,3) -> (1,2)
		0, 1, 1, // right, left, down, up: (1,2) -> (2,2) taken, (0,2)
	}}

	grid, err := New(rand.New(src)).Generate(5, 5, 5)
	if err != nil {
		t.Fatalf("Generate(5, 5, 5) failed: %v", err)
	}
	if src.draws != 12 {
		t.Errorf("Generate made %d draws, want 12", src.draws)
	}

	want := []Cell{{0, 2}, {1, 2}, {1, 3}, {2, 2}, {2, 3}}
	got := grid.Cells()
	if len(got) != len(want) {
		t.Fatalf("Cells() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Cells() = %v, want %v", got, want)
			break
		}
	}
}

func TestConnectedDetectsIsland(t *testing.T) {
	grid, _ := NewGrid(5, 5)
	for _, c := range []Cell{{2, 2}, {2, 3}, {0, 0}} {
		grid.Occupy(c)
	}
	if grid.Connected() {
		t.Error("Connected() = true with (0,0) cut off from the center")
	}

	grid.Occupy(Cell{1, 0})
	grid.Occupy(Cell{2, 0})
	grid.Occupy(Cell{2, 1})
	if !grid.Connected() {
		t.Error("Connected() = false after joining (0,0) to the center")
	}
}

func TestBranchStall(t *testing.T) {
	grid, _ := NewGrid(5, 5)
	center := grid.Center()
	for _, c := range []Cell{center, {2, 3}, {2, 1}, {1, 2}, {3, 2}} {
		grid.Occupy(c)
	}

	next, err := New(newRNG(1)).Branch(grid, center)
	if !errors.Is(err, ErrStall) {
		t.Fatalf("Branch() error = %v, want ErrStall", err)
	}
	var stall *StallError
	if !errors.As(err, &stall) || stall.Cell != center {
		t.Errorf("StallError = %+v, want cell %s", stall, center)
	}
	if next != center {
		t.Errorf("Branch() returned %s on stall, want the original cell", next)
	}
	if grid.Count() != 5 {
		t.Errorf("stalled branch changed the grid: %d cells", grid.Count())
	}
}

func TestGrowStopsOnStall(t *testing.T) {
	// The only queued cell is walled in; growth must fail instead of spinning
	grid, _ := NewGrid(5, 5)
	center := grid.Center()
	for _, c := range []Cell{center, {2, 3}, {2, 1}, {1, 2}, {3, 2}} {
		grid.Occupy(c)
	}

	err := New(newRNG(1)).Grow(grid, center, 10)
	if !errors.Is(err, ErrStall) {
		t.Fatalf("Grow() error = %v, want ErrStall", err)
	}
	stalls := grid.Stalls()
	if len(stalls) != 1 || stalls[0] != center {
		t.Errorf("Stalls() = %v, want [%s]", stalls, center)
	}
}

func TestGrowRequiresOccupiedStart(t *testing.T) {
	grid, _ := NewGrid(5, 5)
	if err := New(newRNG(1)).Grow(grid, grid.Center(), 3); err == nil {
		t.Error("Grow() from an empty cell succeeded")
	}
}

func TestBranchOutOfBounds(t *testing.T) {
	// (0,1) on a 3x3 grid: the in-grid neighbors are taken, so whatever the
	// order, the branch reaches column -1.
	for seed := int64(1); seed <= 10; seed++ {
		grid, _ := NewGrid(3, 3)
		for _, c := range []Cell{{0, 1}, {1, 1}, {0, 0}, {0, 2}} {
			grid.Occupy(c)
		}

		_, err := New(newRNG(seed)).Branch(grid, Cell{0, 1})
		if !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("seed %d: Branch() error = %v, want ErrOutOfBounds", seed, err)
		}
		var oob *OutOfBoundsError
		if !errors.As(err, &oob) {
			t.Fatalf("seed %d: error %T is not *OutOfBoundsError", seed, err)
		}
		if oob.Cell != (Cell{-1, 1}) || oob.Direction != Left {
			t.Errorf("seed %d: OutOfBoundsError = %+v", seed, oob)
		}
	}
}

func TestGenerateSmallGridHitsBoundary(t *testing.T) {
	sawBoundary := false
	for seed := int64(1); seed <= 50; seed++ {
		grid, err := New(newRNG(seed)).Generate(3, 3, 9)
		if err == nil {
			if grid.Count() != 9 {
				t.Errorf("seed %d: complete layout has %d cells", seed, grid.Count())
			}
			continue
		}
		if !errors.Is(err, ErrOutOfBounds) && !errors.Is(err, ErrStall) {
			t.Fatalf("seed %d: unexpected error %v", seed, err)
		}
		if errors.Is(err, ErrOutOfBounds) {
			sawBoundary = true
		}
		if grid == nil || grid.Count() >= 9 || !grid.Connected() {
			t.Errorf("seed %d: partial grid invalid after %v", seed, err)
		}
	}

	if !sawBoundary {
		t.Error("no 3x3 run reached the grid edge")
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	gen := New(newRNG(3))
	firsts := make(map[Direction]int)
	for i := 0; i < 400; i++ {
		order := gen.shuffle()
		seen := make(map[Direction]bool)
		for _, d := range order {
			seen[d] = true
		}
		if len(seen) != 4 {
			t.Fatalf("shuffle() = %v, not a permutation", order)
		}
		firsts[order[0]]++
	}

	for _, d := range branchOrder {
		if firsts[d] == 0 {
			t.Errorf("%s never came first in 400 shuffles", d)
		}
	}
}
