package expander

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/roomforge/internal/room"
)

var (
	ErrInvalidState     = errors.New("expander: operation not allowed in current state")
	ErrForeignRoom      = errors.New("expander: room does not belong to this run")
	ErrOutOfBounds      = errors.New("expander: room position out of bounds")
	ErrPositionOccupied = errors.New("expander: position already holds a room")
)

// OutOfBoundsError reports a neighbor position outside the configured bounds.
type OutOfBoundsError struct {
	From      room.Position
	Direction room.Direction
	Position  room.Position
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("expander: %s of %s is %s, outside the room bounds", e.Direction, e.From, e.Position)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Overlap records a room placed where another room already stands.
type Overlap struct {
	Position room.Position
	Existing int // id of the room already at Position
	Placed   int // id of the room placed on top of it
}

func (o Overlap) Error() string {
	return fmt.Sprintf("expander: room %d placed at %s over room %d", o.Placed, o.Position, o.Existing)
}

func (o Overlap) Is(target error) bool {
	return target == ErrPositionOccupied
}
