package expander

import (
	"fmt"

	"github.com/lawnchairsociety/roomforge/internal/room"
)

// Result is the outcome of a completed two-pass run.
type Result struct {
	Root      *room.PlacedRoom
	Rooms     []*room.PlacedRoom    // every room in placement order, root first
	Frontiers [2][]*room.PlacedRoom // rooms placed by the first and second pass
	Overlaps  []Overlap
}

// Placements returns the (position, template) pairs to instantiate, in
// placement order.
func (r *Result) Placements() []Placement {
	out := make([]Placement, len(r.Rooms))
	for i, pr := range r.Rooms {
		out[i] = Placement{
			Room:     pr.ID,
			Position: pr.Position,
			Template: *pr.Template,
			Depth:    pr.Depth,
		}
	}
	return out
}

// Depth returns the greatest distance from the root in the room graph.
func (r *Result) Depth() int {
	depth := 0
	for _, pr := range r.Rooms {
		if pr.Depth > depth {
			depth = pr.Depth
		}
	}
	return depth
}

// Children returns the rooms spawned from the room with the given id.
func (r *Result) Children(id int) []*room.PlacedRoom {
	var children []*room.PlacedRoom
	for _, pr := range r.Rooms {
		if pr.Parent == id && pr.ID != id {
			children = append(children, pr)
		}
	}
	return children
}

// CheckClosedPairs verifies that every connection consumed both doorways of
// the pair: for each child the parent's side and the child's opposite side
// are closed, and a closed side of a room alone at its position never faces
// an open doorway of the single room next to it.
func CheckClosedPairs(rooms []*room.PlacedRoom, roomWidth, roomHeight int) error {
	byPos := make(map[room.Position][]*room.PlacedRoom)
	byID := make(map[int]*room.PlacedRoom, len(rooms))
	for _, r := range rooms {
		byPos[r.Position] = append(byPos[r.Position], r)
		byID[r.ID] = r
	}

	for _, r := range rooms {
		if r.Parent < 0 {
			continue
		}
		parent, ok := byID[r.Parent]
		if !ok {
			return fmt.Errorf("room %d: parent %d missing", r.ID, r.Parent)
		}
		if parent.Open.Has(r.Via) {
			return fmt.Errorf("room %d: parent %d still has its %s doorway open", r.ID, parent.ID, r.Via)
		}
		if r.Open.Has(r.Via.Opposite()) {
			return fmt.Errorf("room %d: %s doorway toward parent %d still open", r.ID, r.Via.Opposite(), parent.ID)
		}
	}

	for _, r := range rooms {
		if len(byPos[r.Position]) != 1 {
			continue
		}
		for _, d := range room.AllDirections() {
			if r.Open.Has(d) {
				continue
			}
			step := roomHeight
			if d.Horizontal() {
				step = roomWidth
			}
			off := d.Offset()
			npos := room.Position{X: r.Position.X + off.X*step, Y: r.Position.Y + off.Y*step}
			neighbors := byPos[npos]
			if len(neighbors) != 1 {
				continue
			}
			if n := neighbors[0]; n.Open.Has(d.Opposite()) {
				return fmt.Errorf("room %d: %s doorway closed but room %d still open toward it", r.ID, d, n.ID)
			}
		}
	}

	return nil
}
