// Package expander grows a graph of rooms outward from a root room by placing
// a compatible template behind every open doorway.
package expander

import (
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/roomforge/internal/catalog"
	"github.com/lawnchairsociety/roomforge/internal/logger"
	"github.com/lawnchairsociety/roomforge/internal/room"
	"github.com/zyedidia/generic/mapset"
)

// Room size in world units
const (
	DefaultRoomWidth  = 15
	DefaultRoomHeight = 10
)

// Doorway constraints of the fixed two-pass run
const (
	RootDirection = room.Bottom
	FirstPassMin  = 2
	FirstPassMax  = 4
	SecondPassMin = 1
	SecondPassMax = 1
)

// State is the phase of a generation run.
type State int

const (
	Idle State = iota
	RootPlaced
	Expanding
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RootPlaced:
		return "root_placed"
	case Expanding:
		return "expanding"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Finder answers template queries. *catalog.Catalog implements it.
type Finder interface {
	FindCompatible(d room.Direction, minDoors, maxDoors int) []*room.Template
}

// Placement is what the presentation layer needs to instantiate a room.
type Placement struct {
	Room     int
	Position room.Position
	Template room.Template
	Depth    int
}

// Observer is notified of every placement in order.
type Observer interface {
	RoomPlaced(p Placement)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(p Placement)

// RoomPlaced calls f(p).
func (f ObserverFunc) RoomPlaced(p Placement) { f(p) }

type bounds struct {
	min, max room.Position
}

func (b *bounds) contains(p room.Position) bool {
	return p.X >= b.min.X && p.X <= b.max.X && p.Y >= b.min.Y && p.Y <= b.max.Y
}

// Option configures an Expander
type Option func(*Expander)

// WithRoomSize sets the distance between neighboring rooms on each axis.
func WithRoomSize(width, height int) Option {
	return func(e *Expander) {
		e.width = width
		e.height = height
	}
}

// WithLegacySelection draws template indexes from [0, n-1) like the original
// game did, so the last compatible template is only chosen when it is the
// only one.
func WithLegacySelection() Option {
	return func(e *Expander) {
		e.legacy = true
	}
}

// WithStrictPlacement makes placing a room on an occupied position an error
// instead of a recorded overlap.
func WithStrictPlacement() Option {
	return func(e *Expander) {
		e.strict = true
	}
}

// WithBounds limits room positions to the inclusive rectangle
// [minX,maxX] x [minY,maxY].
func WithBounds(minX, minY, maxX, maxY int) Option {
	return func(e *Expander) {
		e.bounds = &bounds{
			min: room.Position{X: minX, Y: minY},
			max: room.Position{X: maxX, Y: maxY},
		}
	}
}

// WithObserver registers the presentation collaborator.
func WithObserver(o Observer) Option {
	return func(e *Expander) {
		e.observer = o
	}
}

// Expander owns the rooms of one generation run.
type Expander struct {
	finder   Finder
	rng      *rand.Rand
	width    int
	height   int
	legacy   bool
	strict   bool
	bounds   *bounds
	observer Observer

	state    State
	rooms    []*room.PlacedRoom
	occupied mapset.Set[room.Position]
	overlaps []Overlap
}

// New creates an expander drawing templates from finder. Every random draw
// of the run comes from rng.
func New(finder Finder, rng *rand.Rand, opts ...Option) *Expander {
	e := &Expander{
		finder:   finder,
		rng:      rng,
		width:    DefaultRoomWidth,
		height:   DefaultRoomHeight,
		occupied: mapset.New[room.Position](),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current phase of the run
func (e *Expander) State() State {
	return e.state
}

// Rooms returns every room placed so far, in placement order.
func (e *Expander) Rooms() []*room.PlacedRoom {
	out := make([]*room.PlacedRoom, len(e.rooms))
	copy(out, e.rooms)
	return out
}

// Overlaps returns the position collisions recorded so far.
func (e *Expander) Overlaps() []Overlap {
	out := make([]Overlap, len(e.overlaps))
	copy(out, e.overlaps)
	return out
}

// PlaceRoot places the root room at the origin. The root must be able to
// connect through its bottom side and have 2-4 doorways; none of its
// doorways are consumed.
func (e *Expander) PlaceRoot() (*room.PlacedRoom, error) {
	if e.state != Idle {
		return nil, e.fail(fmt.Errorf("%w: cannot place root while %s", ErrInvalidState, e.state))
	}

	root, err := e.spawn(room.Position{}, RootDirection, FirstPassMin, FirstPassMax, nil)
	if err != nil {
		return nil, e.fail(fmt.Errorf("expander: root: %w", err))
	}

	e.state = RootPlaced
	return root, nil
}

// Expand places a new room behind every open doorway of r, examining Top,
// Bottom, Left, Right in that order. Each new room is drawn from templates
// with a doorway facing back at r and a doorway count in [minDoors,
// maxDoors], and the doorway pair is closed on both rooms.
//
// On error, including a refused call, the rooms placed before the failure
// are returned with it and the run moves to Failed.
func (e *Expander) Expand(minDoors, maxDoors int, r *room.PlacedRoom) ([]*room.PlacedRoom, error) {
	if e.state != RootPlaced && e.state != Expanding {
		return nil, e.fail(fmt.Errorf("%w: cannot expand while %s", ErrInvalidState, e.state))
	}
	if err := catalog.ValidateBand(minDoors, maxDoors); err != nil {
		return nil, e.fail(err)
	}
	if r == nil || r.ID < 0 || r.ID >= len(e.rooms) || e.rooms[r.ID] != r {
		return nil, e.fail(ErrForeignRoom)
	}
	e.state = Expanding

	var spawned []*room.PlacedRoom
	for _, d := range room.AllDirections() {
		if !r.Open.Has(d) {
			continue
		}

		pos := e.neighbor(r.Position, d)
		if e.bounds != nil && !e.bounds.contains(pos) {
			return spawned, e.fail(&OutOfBoundsError{From: r.Position, Direction: d, Position: pos})
		}

		nr, err := e.spawn(pos, d.Opposite(), minDoors, maxDoors, r)
		if err != nil {
			return spawned, e.fail(fmt.Errorf("expander: room %d %s doorway: %w", r.ID, d, err))
		}

		r.Close(d)
		nr.Close(d.Opposite())
		spawned = append(spawned, nr)
	}

	return spawned, nil
}

// Run performs the fixed two-pass generation: the root is expanded with 2-4
// doorway rooms, then each of those rooms is expanded once with single
// doorway rooms. Rooms from the second pass are never expanded.
func (e *Expander) Run() (*Result, error) {
	root, err := e.PlaceRoot()
	if err != nil {
		return nil, err
	}

	result := &Result{Root: root}

	first, err := e.Expand(FirstPassMin, FirstPassMax, root)
	if err != nil {
		return nil, err
	}
	result.Frontiers[0] = first

	for _, r := range first {
		spawned, err := e.Expand(SecondPassMin, SecondPassMax, r)
		if err != nil {
			return nil, err
		}
		result.Frontiers[1] = append(result.Frontiers[1], spawned...)
	}

	e.state = Done
	result.Rooms = e.Rooms()
	result.Overlaps = e.Overlaps()

	logger.Info("Room graph generated",
		"rooms", len(result.Rooms),
		"first_frontier", len(result.Frontiers[0]),
		"second_frontier", len(result.Frontiers[1]),
		"overlaps", len(result.Overlaps))

	return result, nil
}

// neighbor returns the position one room away from p through side d.
func (e *Expander) neighbor(p room.Position, d room.Direction) room.Position {
	step := e.height
	if d.Horizontal() {
		step = e.width
	}
	off := d.Offset()
	return room.Position{X: p.X + off.X*step, Y: p.Y + off.Y*step}
}

// spawn picks a template with a doorway on side d and places it at pos as a
// child of parent (nil for the root).
func (e *Expander) spawn(pos room.Position, d room.Direction, minDoors, maxDoors int, parent *room.PlacedRoom) (*room.PlacedRoom, error) {
	candidates := e.finder.FindCompatible(d, minDoors, maxDoors)
	if len(candidates) == 0 {
		return nil, &catalog.EmptyCandidateSetError{Direction: d, Min: minDoors, Max: maxDoors}
	}

	t := candidates[e.pick(len(candidates))]
	return e.place(t, pos, parent, d.Opposite())
}

// pick returns a uniformly random index in [0, n). In legacy mode the range
// is [0, n-1), or just 0 when n is 1.
func (e *Expander) pick(n int) int {
	if e.legacy {
		bound := n - 1
		if bound < 1 {
			bound = 1
		}
		return e.rng.Intn(bound)
	}
	return e.rng.Intn(n)
}

func (e *Expander) place(t *room.Template, pos room.Position, parent *room.PlacedRoom, via room.Direction) (*room.PlacedRoom, error) {
	id := len(e.rooms)

	if e.occupied.Has(pos) {
		overlap := Overlap{Position: pos, Existing: e.roomAt(pos), Placed: id}
		if e.strict {
			return nil, overlap
		}
		e.overlaps = append(e.overlaps, overlap)
		logger.Warning("Room placed over an existing room",
			"room", id, "existing", overlap.Existing, "x", pos.X, "y", pos.Y)
	}

	r := room.NewPlacedRoom(id, t, pos)
	if parent != nil {
		r.Depth = parent.Depth + 1
		r.Parent = parent.ID
		r.Via = via
	}
	e.rooms = append(e.rooms, r)
	e.occupied.Put(pos)

	logger.Debug("Room placed", "room", id, "template", t.ID, "x", pos.X, "y", pos.Y, "depth", r.Depth)

	if e.observer != nil {
		e.observer.RoomPlaced(Placement{Room: id, Position: pos, Template: *t, Depth: r.Depth})
	}
	return r, nil
}

// roomAt returns the id of the first room at pos, or -1.
func (e *Expander) roomAt(pos room.Position) int {
	for _, r := range e.rooms {
		if r.Position == pos {
			return r.ID
		}
	}
	return -1
}

// fail moves the run to Failed. A finished run keeps Done so its result
// stays valid.
func (e *Expander) fail(err error) error {
	if e.state != Done {
		e.state = Failed
	}
	logger.Error("Room graph generation failed", "error", err)
	return err
}
