// Package layout generates a random connected region on a fixed-size grid by
// repeatedly branching a new cell off the oldest cell still waiting to branch.
package layout

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"
)

var (
	ErrInvalidSize      = errors.New("layout: invalid grid size")
	ErrInvalidRoomCount = errors.New("layout: room count does not fit the grid")
	ErrStall            = errors.New("layout: every neighbor of the branch cell is occupied")
	ErrOutOfBounds      = errors.New("layout: cell outside the grid")
)

// StallError reports a branch cell with no free neighbor.
type StallError struct {
	Cell Cell
}

func (e *StallError) Error() string {
	return fmt.Sprintf("layout: cannot branch from %s, all four neighbors are occupied", e.Cell)
}

func (e *StallError) Is(target error) bool {
	return target == ErrStall
}

// OutOfBoundsError reports a branch attempt that left the grid.
type OutOfBoundsError struct {
	From          Cell
	Direction     Direction
	Cell          Cell
	Width, Height int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("layout: branching %s from %s reaches %s outside the %dx%d grid",
		e.Direction, e.From, e.Cell, e.Width, e.Height)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Direction represents a step between grid cells
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Cell is a grid coordinate. Up is +Y.
type Cell struct {
	X, Y int
}

// Step returns the neighbor of c in direction d
func (c Cell) Step(d Direction) Cell {
	switch d {
	case Up:
		return Cell{c.X, c.Y + 1}
	case Down:
		return Cell{c.X, c.Y - 1}
	case Left:
		return Cell{c.X - 1, c.Y}
	case Right:
		return Cell{c.X + 1, c.Y}
	default:
		return c
	}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Grid is a fixed-size boolean occupancy grid.
type Grid struct {
	Width, Height int

	occupied [][]bool // indexed [x][y]
	stalls   []Cell
}

// NewGrid creates an empty width x height grid
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	occupied := make([][]bool, width)
	for x := range occupied {
		occupied[x] = make([]bool, height)
	}
	return &Grid{Width: width, Height: height, occupied: occupied}, nil
}

// Center returns (width/2, height/2)
func (g *Grid) Center() Cell {
	return Cell{X: g.Width / 2, Y: g.Height / 2}
}

// InBounds reports whether c lies on the grid
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Occupied reports whether c holds a room. Cells off the grid are never occupied.
func (g *Grid) Occupied(c Cell) bool {
	return g.InBounds(c) && g.occupied[c.X][c.Y]
}

// Occupy marks c as holding a room.
func (g *Grid) Occupy(c Cell) error {
	if !g.InBounds(c) {
		return &OutOfBoundsError{From: c, Cell: c, Width: g.Width, Height: g.Height}
	}
	g.occupied[c.X][c.Y] = true
	return nil
}

// Count returns the number of occupied cells
func (g *Grid) Count() int {
	count := 0
	for x := range g.occupied {
		for _, occ := range g.occupied[x] {
			if occ {
				count++
			}
		}
	}
	return count
}

// Cells returns the occupied cells ordered by x, then y.
func (g *Grid) Cells() []Cell {
	var cells []Cell
	for x := range g.occupied {
		for y, occ := range g.occupied[x] {
			if occ {
				cells = append(cells, Cell{X: x, Y: y})
			}
		}
	}
	return cells
}

// Stalls returns the cells that were dropped because they could not branch.
func (g *Grid) Stalls() []Cell {
	out := make([]Cell, len(g.stalls))
	copy(out, g.stalls)
	return out
}

// Connected reports whether every occupied cell is reachable from the
// center through occupied neighbors.
func (g *Grid) Connected() bool {
	total := g.Count()
	if total == 0 {
		return true
	}
	start := g.Center()
	if !g.Occupied(start) {
		return false
	}

	visited := mapset.New[Cell]()
	visited.Put(start)
	pending := queue.New[Cell]()
	pending.Enqueue(start)
	for !pending.Empty() {
		current := pending.Dequeue()

		for _, d := range branchOrder {
			next := current.Step(d)
			if g.Occupied(next) && !visited.Has(next) {
				visited.Put(next)
				pending.Enqueue(next)
			}
		}
	}

	return visited.Size() == total
}
