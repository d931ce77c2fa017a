// Package render draws generated layouts and room graphs as ASCII maps.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/lawnchairsociety/roomforge/internal/expander"
	"github.com/lawnchairsociety/roomforge/internal/layout"
	"github.com/lawnchairsociety/roomforge/internal/room"
)

// Map symbols
const (
	SymbolOccupied = '#'
	SymbolEmpty    = '.'
	SymbolCenter   = '@'
)

// Style holds the colours used for each map element.
type Style struct {
	Occupied color.Style
	Empty    color.Style
	Center   color.Style
	Room     color.Style
	Root     color.Style
	Overlap  color.Style
	Link     color.Style
	Open     color.Style
	Subtle   color.Style

	plain bool
}

// DefaultStyle returns the terminal colour scheme.
func DefaultStyle() Style {
	return Style{
		Occupied: color.Style{color.FgGreen},
		Empty:    color.Style{color.FgGray},
		Center:   color.Style{color.FgGreen, color.BgBlack, color.OpBold},
		Room:     color.Style{color.FgBlue},
		Root:     color.Style{color.FgGreen, color.OpBold},
		Overlap:  color.Style{color.FgRed, color.OpBold},
		Link:     color.Style{color.FgGray},
		Open:     color.Style{color.FgMagenta, color.OpBold},
		Subtle:   color.Style{color.FgGray, color.OpBold},
	}
}

// Plain returns a Style that writes no escape codes.
func Plain() Style {
	return Style{plain: true}
}

func (s Style) paint(c color.Style, text string) string {
	if s.plain || len(c) == 0 {
		return text
	}
	return c.Sprint(text)
}

// Layout writes the grid with +Y at the top: '#' for occupied cells, '.' for
// free ones and '@' for the center cell.
func Layout(w io.Writer, g *layout.Grid, style Style) error {
	var output strings.Builder
	center := g.Center()

	for y := g.Height - 1; y >= 0; y-- {
		for x := 0; x < g.Width; x++ {
			c := layout.Cell{X: x, Y: y}
			switch {
			case c == center && g.Occupied(c):
				output.WriteString(style.paint(style.Center, string(SymbolCenter)))
			case g.Occupied(c):
				output.WriteString(style.paint(style.Occupied, string(SymbolOccupied)))
			default:
				output.WriteString(style.paint(style.Empty, string(SymbolEmpty)))
			}
		}
		output.WriteString("\n")
	}

	if stalls := g.Stalls(); len(stalls) > 0 {
		names := make([]string, len(stalls))
		for i, c := range stalls {
			names[i] = c.String()
		}
		output.WriteString(style.paint(style.Subtle, "stalled: "+strings.Join(names, " ")) + "\n")
	}

	_, err := io.WriteString(w, output.String())
	return err
}

type gridPos struct {
	X, Y int
}

// Rooms draws the room graph with every room snapped to a grid of room-size
// units. Each room is a [N] cell with '|' and '-' for its doorways, followed
// by a room details list.
//
// Format of one cell:
//
//	  |     (top doorway)
//	-[N]-   (left-room-right)
//	  |     (bottom doorway)
func Rooms(w io.Writer, r *expander.Result, roomWidth, roomHeight int, style Style) error {
	var output strings.Builder

	if r == nil || len(r.Rooms) == 0 {
		output.WriteString("  (No rooms to display)\n")
		_, err := io.WriteString(w, output.String())
		return err
	}

	// The first room placed at a position is the one drawn
	posToRoom := make(map[gridPos]*room.PlacedRoom)
	overlapped := make(map[int]bool)
	minX, maxX, minY, maxY := 0, 0, 0, 0
	for _, pr := range r.Rooms {
		pos := snap(pr.Position, roomWidth, roomHeight)
		if _, taken := posToRoom[pos]; !taken {
			posToRoom[pos] = pr
		}
		minX, maxX = min(minX, pos.X), max(maxX, pos.X)
		minY, maxY = min(minY, pos.Y), max(maxY, pos.Y)
	}
	for _, o := range r.Overlaps {
		overlapped[o.Existing] = true
		overlapped[o.Placed] = true
	}

	idWidth := len(fmt.Sprint(len(r.Rooms) - 1))
	cellWidth := idWidth + 4
	blank := strings.Repeat(" ", cellWidth)
	pad := strings.Repeat(" ", (cellWidth-1)/2)

	vertical := func(pr *room.PlacedRoom, d room.Direction) string {
		if pr == nil || !pr.Template.Doorways.Has(d) {
			return blank
		}
		return pad + style.link(pr, d, "|") + strings.Repeat(" ", cellWidth-len(pad)-1)
	}
	horizontal := func(pr *room.PlacedRoom, d room.Direction) string {
		if !pr.Template.Doorways.Has(d) {
			return " "
		}
		return style.link(pr, d, "-")
	}

	for y := maxY; y >= minY; y-- {
		for x := minX; x <= maxX; x++ {
			output.WriteString(vertical(posToRoom[gridPos{x, y}], room.Top))
		}
		output.WriteString("\n")

		for x := minX; x <= maxX; x++ {
			pr, ok := posToRoom[gridPos{x, y}]
			if !ok {
				output.WriteString(blank)
				continue
			}
			output.WriteString(horizontal(pr, room.Left))
			output.WriteString(style.roomLabel(pr, idWidth, overlapped[pr.ID]))
			output.WriteString(horizontal(pr, room.Right))
		}
		output.WriteString("\n")

		for x := minX; x <= maxX; x++ {
			output.WriteString(vertical(posToRoom[gridPos{x, y}], room.Bottom))
		}
		output.WriteString("\n")
	}

	output.WriteString("\nRoom Details:\n")
	for _, pr := range r.Rooms {
		details := fmt.Sprintf("  [%*d] %-24s %-10s depth %d",
			idWidth, pr.ID, truncate(pr.Template.Name, 24), pr.Position, pr.Depth)

		var connected []string
		for _, d := range room.AllDirections() {
			if pr.Connected(d) {
				connected = append(connected, d.String())
			}
		}
		if len(connected) > 0 {
			details += " linked: " + strings.Join(connected, ",")
		}
		if open := pr.Open.Sides(); len(open) > 0 {
			details += " open: " + pr.Open.String()
		}
		if pr.Parent >= 0 {
			details += fmt.Sprintf(" from [%d]", pr.Parent)
		}

		output.WriteString(details + "\n")
	}

	if len(r.Overlaps) > 0 {
		output.WriteString("\n")
		for _, o := range r.Overlaps {
			line := fmt.Sprintf("  overlap at %s: [%d] placed over [%d]", o.Position, o.Placed, o.Existing)
			output.WriteString(style.paint(style.Overlap, line) + "\n")
		}
	}

	_, err := io.WriteString(w, output.String())
	return err
}

func (s Style) link(pr *room.PlacedRoom, d room.Direction, symbol string) string {
	if pr.Open.Has(d) {
		return s.paint(s.Open, symbol)
	}
	return s.paint(s.Link, symbol)
}

func (s Style) roomLabel(pr *room.PlacedRoom, idWidth int, overlapped bool) string {
	label := fmt.Sprintf("[%*d]", idWidth, pr.ID)
	switch {
	case overlapped:
		return s.paint(s.Overlap, label)
	case pr.Parent < 0:
		return s.paint(s.Root, label)
	default:
		return s.paint(s.Room, label)
	}
}

// Legend writes a description of the map symbols.
func Legend(w io.Writer, style Style) error {
	var output strings.Builder
	output.WriteString("Legend:\n")
	output.WriteString(fmt.Sprintf("  %s  center cell\n", style.paint(style.Center, string(SymbolCenter))))
	output.WriteString(fmt.Sprintf("  %s  occupied cell\n", style.paint(style.Occupied, string(SymbolOccupied))))
	output.WriteString(fmt.Sprintf("  %s  free cell\n", style.paint(style.Empty, string(SymbolEmpty))))
	output.WriteString(fmt.Sprintf("  %s  room, %s root\n", style.paint(style.Room, "[N]"), style.paint(style.Root, "[0]")))
	output.WriteString(fmt.Sprintf("  %s  rooms sharing a position\n", style.paint(style.Overlap, "[N]")))
	output.WriteString(fmt.Sprintf("  %s %s  doorway links\n", style.paint(style.Link, "|"), style.paint(style.Link, "-")))

	_, err := io.WriteString(w, output.String())
	return err
}

func snap(p room.Position, roomWidth, roomHeight int) gridPos {
	return gridPos{X: floorDiv(p.X, roomWidth), Y: floorDiv(p.Y, roomHeight)}
}

func floorDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
