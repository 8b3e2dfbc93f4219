// Package maze provides the carved grid, its entry/exit markers, move
// generation and path finding.
// Coordinates are (x, y) with y growing downward; (0, 0) is the top-left cell.
package maze

import (
	"fmt"
	"math"
)

// Position is a cell coordinate on the grid.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Pos is a convenience constructor for Position.
func Pos(x, y int) Position { return Position{X: x, Y: y} }

// String renders the position as "(x,y)".
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Step returns the position one cell away in direction d.
func (p Position) Step(d Direction) Position {
	delta := d.Delta()
	return Position{X: p.X + delta.X, Y: p.Y + delta.Y}
}

// Distance returns the straight-line (Euclidean) distance between two positions.
func Distance(a, b Position) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Direction is one of the four orthogonal headings.
type Direction uint8

// Directions are declared clockwise. This order is the fixed iteration
// order for move generation and for BFS/DFS neighbor expansion.
const (
	Up Direction = iota
	Right
	Down
	Left
)

// NumDirections is the number of orthogonal headings.
const NumDirections = 4

// AllDirections lists every heading in iteration order.
var AllDirections = [NumDirections]Direction{Up, Right, Down, Left}

var directionDeltas = [NumDirections]Position{
	Up:    {X: 0, Y: -1},
	Right: {X: 1, Y: 0},
	Down:  {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
}

// Delta returns the unit offset for the direction.
func (d Direction) Delta() Position {
	return directionDeltas[d%NumDirections]
}

// Reverse returns the opposite heading.
func (d Direction) Reverse() Direction {
	return (d + 2) % NumDirections
}

// TurnRight returns the heading 90° clockwise.
func (d Direction) TurnRight() Direction {
	return (d + 1) % NumDirections
}

// TurnLeft returns the heading 90° counter-clockwise.
func (d Direction) TurnLeft() Direction {
	return (d + 3) % NumDirections
}

// String returns the heading name.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// ParseDirection converts a heading name back into a Direction.
func ParseDirection(s string) (Direction, bool) {
	for _, d := range AllDirections {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

// Move is a candidate transition to an adjacent open cell.
type Move struct {
	To        Position  `json:"to"`
	Direction Direction `json:"direction"`
}
