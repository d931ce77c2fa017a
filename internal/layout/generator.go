package layout

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/roomforge/internal/logger"
	"github.com/zyedidia/generic/queue"
)

// branchOrder is shuffled before every branch attempt
var branchOrder = [4]Direction{Up, Down, Left, Right}

// Generator grows layouts using a caller-supplied random source.
type Generator struct {
	rng *rand.Rand
}

// New creates a layout generator. Every random draw comes from rng.
func New(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate occupies the center of a width x height grid and then grows it one
// cell at a time until maxRooms cells are occupied.
//
// On ErrStall or ErrOutOfBounds the partially grown grid is returned with
// the error.
func (g *Generator) Generate(width, height, maxRooms int) (*Grid, error) {
	grid, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	if maxRooms < 1 || maxRooms > width*height {
		return nil, fmt.Errorf("%w: %d rooms on a %dx%d grid", ErrInvalidRoomCount, maxRooms, width, height)
	}

	center := grid.Center()
	if err := grid.Occupy(center); err != nil {
		return nil, err
	}

	if err := g.Grow(grid, center, maxRooms); err != nil {
		return grid, err
	}
	return grid, nil
}

// Grow branches from start, an occupied cell, until the grid holds maxRooms
// occupied cells. Branch points are taken first in, first out; each branch
// enqueues the cell it created. A cell that stalls is dropped rather than
// retried, and when no branch point is left the stall is returned.
func (g *Generator) Grow(grid *Grid, start Cell, maxRooms int) error {
	if !grid.Occupied(start) {
		return fmt.Errorf("layout: start cell %s is not occupied", start)
	}

	branches := queue.New[Cell]()
	branches.Enqueue(start)
	count := grid.Count()

	for count < maxRooms {
		cell := branches.Dequeue()

		next, err := g.Branch(grid, cell)
		if err != nil {
			var stall *StallError
			if !errors.As(err, &stall) {
				logger.Error("Layout branch failed", "error", err)
				return err
			}

			grid.stalls = append(grid.stalls, cell)
			logger.Warning("Layout branch stalled", "x", cell.X, "y", cell.Y, "rooms", count)
			if branches.Empty() {
				return err
			}
			continue
		}

		logger.Debug("Layout cell occupied", "x", next.X, "y", next.Y)
		branches.Enqueue(next)
		count++
	}

	return nil
}

// Branch tries the four neighbors of cell in a random order and occupies the
// first free one. It returns a *StallError when all four are occupied and an
// *OutOfBoundsError when the order reaches a neighbor off the grid before a
// free one.
func (g *Generator) Branch(grid *Grid, cell Cell) (Cell, error) {
	for _, d := range g.shuffle() {
		next := cell.Step(d)
		if !grid.InBounds(next) {
			return cell, &OutOfBoundsError{From: cell, Direction: d, Cell: next, Width: grid.Width, Height: grid.Height}
		}
		if !grid.Occupied(next) {
			grid.occupied[next.X][next.Y] = true
			return next, nil
		}
	}

	return cell, &StallError{Cell: cell}
}

// shuffle returns a uniformly random permutation of the four directions
func (g *Generator) shuffle() [4]Direction {
	order := branchOrder
	for i := len(order) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}
