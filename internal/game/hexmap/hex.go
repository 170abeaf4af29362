// Package hexmap provides the hex-grid geometry the combat rules run on:
// axial coordinates, the six facings, facing arcs, and board occupancy.
package hexmap

import "fmt"

// Hex is an axial hex-grid coordinate.
type Hex struct {
	Q int `yaml:"q"`
	R int `yaml:"r"`
}

// Direction is one of the six hex facings, numbered clockwise from east.
type Direction int

const (
	East Direction = iota
	SouthEast
	SouthWest
	West
	NorthWest
	NorthEast
)

// directionVectors holds the axial offset for each Direction, indexed by it.
var directionVectors = [6]Hex{
	{Q: 1, R: 0},  // East
	{Q: 0, R: 1},  // SouthEast
	{Q: -1, R: 1}, // SouthWest
	{Q: -1, R: 0}, // West
	{Q: 0, R: -1}, // NorthWest
	{Q: 1, R: -1}, // NorthEast
}

// String returns the facing's compass label.
func (d Direction) String() string {
	switch d {
	case East:
		return "E"
	case SouthEast:
		return "SE"
	case SouthWest:
		return "SW"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	case NorthEast:
		return "NE"
	default:
		return "?"
	}
}

// Turn returns the facing rotated clockwise by steps (negative = counter-clockwise).
//
// Postcondition: Result is a valid Direction in [0, 5].
func (d Direction) Turn(steps int) Direction {
	n := (int(d) + steps) % 6
	if n < 0 {
		n += 6
	}
	return Direction(n)
}

// Opposite returns the facing rotated half a circle.
func (d Direction) Opposite() Direction { return d.Turn(3) }

// Add returns the component-wise sum of two hexes.
func (h Hex) Add(o Hex) Hex { return Hex{Q: h.Q + o.Q, R: h.R + o.R} }

// Neighbor returns the adjacent hex in direction d.
func (h Hex) Neighbor(d Direction) Hex { return h.Add(directionVectors[d]) }

// Distance returns the hex-grid distance between h and o.
//
// Postcondition: Returns >= 0; Distance(h, o) == Distance(o, h);
// Distance == 1 iff the hexes are adjacent.
func (h Hex) Distance(o Hex) int {
	dq := h.Q - o.Q
	dr := h.R - o.R
	ds := -dq - dr
	return (abs(dq) + abs(dr) + abs(ds)) / 2
}

// Adjacent reports whether h and o share an edge.
func (h Hex) Adjacent(o Hex) bool { return h.Distance(o) == 1 }

// String returns the coordinate in "(q,r)" form.
func (h Hex) String() string { return fmt.Sprintf("(%d,%d)", h.Q, h.R) }

// DirectionTo returns the facing from h toward the adjacent hex o.
//
// Precondition: h and o must be adjacent.
// Postcondition: h.Neighbor(result) == o, or an error if not adjacent.
func (h Hex) DirectionTo(o Hex) (Direction, error) {
	for d := East; d <= NorthEast; d++ {
		if h.Neighbor(d) == o {
			return d, nil
		}
	}
	return 0, fmt.Errorf("hexmap: %s is not adjacent to %s", o, h)
}

// FrontArc returns the three hexes a figure standing at h and facing d
// threatens: the facing neighbor and its two flanking neighbors.
// The arc is deterministic from the stored facing alone.
func FrontArc(h Hex, d Direction) []Hex {
	return []Hex{
		h.Neighbor(d.Turn(-1)),
		h.Neighbor(d),
		h.Neighbor(d.Turn(1)),
	}
}

// SideArc returns the two side hexes for a figure at h facing d.
func SideArc(h Hex, d Direction) []Hex {
	return []Hex{
		h.Neighbor(d.Turn(-2)),
		h.Neighbor(d.Turn(2)),
	}
}

// RearHex returns the single rear hex for a figure at h facing d.
func RearHex(h Hex, d Direction) Hex {
	return h.Neighbor(d.Opposite())
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
