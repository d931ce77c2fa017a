// Package dungeon drives the room graph expander and the grid layout
// generator for one seed, retrying with derived seeds when a layout fails.
package dungeon

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/roomforge/internal/catalog"
	"github.com/lawnchairsociety/roomforge/internal/config"
	"github.com/lawnchairsociety/roomforge/internal/expander"
	"github.com/lawnchairsociety/roomforge/internal/layout"
	"github.com/lawnchairsociety/roomforge/internal/logger"
)

// AttemptSeedStride separates the seeds of consecutive attempts.
const AttemptSeedStride = 1000

// Dungeon is the output of one successful build.
type Dungeon struct {
	Seed    int64 // seed requested by the caller
	Attempt int   // 0-indexed attempt that succeeded
	Rooms   *expander.Result
	Layout  *layout.Grid
}

// AttemptSeed returns the seed the successful attempt actually ran with.
func (d *Dungeon) AttemptSeed() int64 {
	return d.Seed + int64(d.Attempt)*AttemptSeedStride
}

// Build generates a room graph and a grid layout for seed. Each attempt a
// draws every random number from rand.NewSource(seed + a*1000), first for
// the room graph and then for the layout. Only failures that depend on the
// seed are retried: layout stalls, layout boundary hits and, with strict
// placement, room collisions.
func Build(cfg config.GeneratorConfig, cat *catalog.Catalog, seed int64) (*Dungeon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cat == nil || cat.Len() == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	if err := cat.Covers(expander.FirstPassMin, expander.FirstPassMax); err != nil {
		return nil, fmt.Errorf("dungeon: catalog cannot serve the first pass: %w", err)
	}
	if err := cat.Covers(expander.SecondPassMin, expander.SecondPassMax); err != nil {
		return nil, fmt.Errorf("dungeon: catalog cannot serve the second pass: %w", err)
	}

	opts := []expander.Option{expander.WithRoomSize(cfg.Rooms.Width, cfg.Rooms.Height)}
	if cfg.Rooms.StrictPlacement {
		opts = append(opts, expander.WithStrictPlacement())
	}
	if cfg.Rooms.LegacySelection {
		opts = append(opts, expander.WithLegacySelection())
	}

	var lastErr error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		rng := rand.New(rand.NewSource(seed + int64(attempt)*AttemptSeedStride))

		rooms, err := expander.New(cat, rng, opts...).Run()
		if err != nil {
			if !retryable(err) {
				return nil, err
			}
			logger.Warning("Room graph attempt failed", "seed", seed, "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		grid, err := layout.New(rng).Generate(cfg.Layout.Width, cfg.Layout.Height, cfg.Layout.MaxRooms)
		if err != nil {
			if !retryable(err) {
				return nil, err
			}
			logger.Warning("Layout attempt failed", "seed", seed, "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		logger.Info("Dungeon generated",
			"seed", seed,
			"attempt", attempt,
			"rooms", len(rooms.Rooms),
			"layout_cells", grid.Count())

		return &Dungeon{Seed: seed, Attempt: attempt, Rooms: rooms, Layout: grid}, nil
	}

	return nil, fmt.Errorf("dungeon: seed %d failed after %d attempts: %w", seed, cfg.Attempts, lastErr)
}

func retryable(err error) bool {
	return errors.Is(err, layout.ErrStall) ||
		errors.Is(err, layout.ErrOutOfBounds) ||
		errors.Is(err, expander.ErrPositionOccupied)
}
