package catalog

import (
	"strings"

	"github.com/lawnchairsociety/roomforge/internal/room"
)

var sideLetters = map[room.Direction]string{
	room.Top:    "t",
	room.Bottom: "b",
	room.Left:   "l",
	room.Right:  "r",
}

var countNames = map[int]string{
	1: "Dead End",
	2: "Passage",
	3: "Junction",
	4: "Crossroads",
}

// DefaultTemplates returns one template for every non-empty combination of
// doorway sides, so every direction is covered for every count band.
func DefaultTemplates() []room.Template {
	var templates []room.Template
	for mask := 1; mask < 1<<MaxDoorways; mask++ {
		var w room.Doorways
		var id strings.Builder
		id.WriteString("room_")
		for _, d := range room.AllDirections() {
			if mask&(1<<uint(d)) != 0 {
				w.Set(d, true)
				id.WriteString(sideLetters[d])
			}
		}

		count := w.Count()
		templates = append(templates, room.Template{
			ID:           id.String(),
			Name:         countNames[count] + " (" + w.String() + ")",
			Doorways:     w,
			DoorwayCount: count,
		})
	}
	return templates
}

// Default returns a catalog built from DefaultTemplates.
func Default() *Catalog {
	c, err := New(DefaultTemplates())
	if err != nil {
		panic(err)
	}
	return c
}
