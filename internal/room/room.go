// Package room holds the data records shared by the room catalog and the
// room graph expander.
package room

import (
	"fmt"
	"strings"
)

// Direction represents one side of a room
type Direction int

const (
	Top Direction = iota
	Bottom
	Left
	Right
)

// offsets is indexed by Direction. Top is +Y.
var offsets = [4]Position{
	Top:    {X: 0, Y: 1},
	Bottom: {X: 0, Y: -1},
	Left:   {X: -1, Y: 0},
	Right:  {X: 1, Y: 0},
}

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the four sides.
func (d Direction) Valid() bool {
	return d >= Top && d <= Right
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case Top:
		return Bottom
	case Bottom:
		return Top
	case Left:
		return Right
	case Right:
		return Left
	default:
		return d
	}
}

// Offset returns the unit vector pointing through this side.
func (d Direction) Offset() Position {
	if !d.Valid() {
		return Position{}
	}
	return offsets[d]
}

// Horizontal reports whether d moves along the X axis.
func (d Direction) Horizontal() bool {
	return d == Left || d == Right
}

// AllDirections returns the four sides in the order doorways are examined
func AllDirections() []Direction {
	return []Direction{Top, Bottom, Left, Right}
}

// ParseDirection converts a side name (case-insensitive) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top", "up", "north":
		return Top, nil
	case "bottom", "down", "south":
		return Bottom, nil
	case "left", "west":
		return Left, nil
	case "right", "east":
		return Right, nil
	default:
		return Top, fmt.Errorf("unknown direction %q", s)
	}
}

// Position is a location in world units.
type Position struct {
	X, Y int
}

// Add returns p translated by o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Doorways records which sides of a room have an opening.
type Doorways struct {
	Top    bool
	Bottom bool
	Left   bool
	Right  bool
}

// Has returns true if the side d has a doorway
func (w Doorways) Has(d Direction) bool {
	switch d {
	case Top:
		return w.Top
	case Bottom:
		return w.Bottom
	case Left:
		return w.Left
	case Right:
		return w.Right
	default:
		return false
	}
}

// Set opens or closes the doorway on side d
func (w *Doorways) Set(d Direction, open bool) {
	switch d {
	case Top:
		w.Top = open
	case Bottom:
		w.Bottom = open
	case Left:
		w.Left = open
	case Right:
		w.Right = open
	}
}

// Count returns the number of open sides
func (w Doorways) Count() int {
	count := 0
	for _, d := range AllDirections() {
		if w.Has(d) {
			count++
		}
	}
	return count
}

// Sides returns the open sides in examination order.
func (w Doorways) Sides() []Direction {
	var sides []Direction
	for _, d := range AllDirections() {
		if w.Has(d) {
			sides = append(sides, d)
		}
	}
	return sides
}

func (w Doorways) String() string {
	sides := w.Sides()
	if len(sides) == 0 {
		return "none"
	}
	names := make([]string, len(sides))
	for i, d := range sides {
		names[i] = d.String()
	}
	return strings.Join(names, ",")
}

// Template is one placeable room design. Templates are shared by every room
// placed from them and must not be modified after the catalog is built.
type Template struct {
	ID           string
	Name         string
	Doorways     Doorways
	DoorwayCount int
}

// Validate checks that the declared doorway count matches the doorway sides.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("template has no id")
	}
	if t.DoorwayCount < 0 || t.DoorwayCount > 4 {
		return fmt.Errorf("template %s: doorway count %d out of range", t.ID, t.DoorwayCount)
	}
	if n := t.Doorways.Count(); n != t.DoorwayCount {
		return fmt.Errorf("template %s: doorway count %d but %d doorway sides", t.ID, t.DoorwayCount, n)
	}
	return nil
}

// PlacedRoom is a template instantiated at a position during one generation run.
type PlacedRoom struct {
	ID       int
	Position Position
	Template *Template

	// Open starts as a copy of the template's doorways. A side is set to
	// false once it has been connected and is never reopened.
	Open Doorways

	Depth  int
	Parent int       // index of the room this one was spawned from, -1 for the root
	Via    Direction // side of the parent this room was spawned through
}

// NewPlacedRoom places template t at pos.
func NewPlacedRoom(id int, t *Template, pos Position) *PlacedRoom {
	return &PlacedRoom{
		ID:       id,
		Position: pos,
		Template: t,
		Open:     t.Doorways,
		Parent:   -1,
	}
}

// Connected reports whether side d had a doorway that has been consumed.
func (r *PlacedRoom) Connected(d Direction) bool {
	return r.Template.Doorways.Has(d) && !r.Open.Has(d)
}

// Close consumes the doorway on side d.
func (r *PlacedRoom) Close(d Direction) {
	r.Open.Set(d, false)
}
