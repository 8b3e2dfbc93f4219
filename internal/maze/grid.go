package maze

import (
	"errors"
	"fmt"
)

// Grid dimension limits. Route search is exhaustive, so grids stay small.
const (
	MinDimension = 1
	MaxDimension = 30

	// MaxOpenPerimeter is how many border cells may ever be open: one for
	// the entry, one for the exit.
	MaxOpenPerimeter = 2
)

var (
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	ErrOutOfBounds       = errors.New("position out of bounds")
)

// Cell is the state of one grid square.
type Cell uint8

const (
	Blocked Cell = iota
	Open
)

// Grid is a bounds-checked width × height matrix of cells.
// Dimensions are fixed for the lifetime of the value.
type Grid struct {
	width  int
	height int
	cells  []Cell

	openPerimeter int
	openCells     int
}

// NewGrid creates a fully blocked grid.
func NewGrid(width, height int) (*Grid, error) {
	if width < MinDimension || height < MinDimension || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d (each side must be %d..%d)",
			ErrInvalidDimensions, width, height, MinDimension, MaxDimension)
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// At returns the cell state at p. Out-of-bounds positions read as Blocked.
func (g *Grid) At(p Position) Cell {
	if !g.InBounds(p) {
		return Blocked
	}
	return g.cells[p.Y*g.width+p.X]
}

// IsOpen reports whether p is in bounds and open.
func (g *Grid) IsOpen(p Position) bool {
	return g.At(p) == Open
}

// IsOnPerimeter reports whether p touches any of the four grid edges.
func (g *Grid) IsOnPerimeter(p Position) bool {
	if !g.InBounds(p) {
		return false
	}
	return p.X == 0 || p.Y == 0 || p.X == g.width-1 || p.Y == g.height-1
}

// OpenPerimeterCount returns how many border cells are currently open.
func (g *Grid) OpenPerimeterCount() int { return g.openPerimeter }

// OpenCount returns the number of open cells.
func (g *Grid) OpenCount() int { return g.openCells }

// CanCarve reports whether opening p keeps the grid legal:
//  1. already-open cells are always legal;
//  2. at most MaxOpenPerimeter border cells may be open;
//  3. no 2×2 block containing p may become fully open.
func (g *Grid) CanCarve(p Position) bool {
	if !g.InBounds(p) {
		return false
	}
	if g.IsOpen(p) {
		return true
	}
	if g.IsOnPerimeter(p) && g.openPerimeter >= MaxOpenPerimeter {
		return false
	}
	// The four 2×2 squares containing p, keyed by their top-left corner.
	for dy := -1; dy <= 0; dy++ {
		for dx := -1; dx <= 0; dx++ {
			if g.wouldFillSquare(Position{X: p.X + dx, Y: p.Y + dy}, p) {
				return false
			}
		}
	}
	return true
}

// wouldFillSquare reports whether opening p completes the 2×2 square whose
// top-left corner is corner. Squares that leave the grid never block.
func (g *Grid) wouldFillSquare(corner, p Position) bool {
	for dy := 0; dy <= 1; dy++ {
		for dx := 0; dx <= 1; dx++ {
			c := Position{X: corner.X + dx, Y: corner.Y + dy}
			if !g.InBounds(c) {
				return false
			}
			if c != p && !g.IsOpen(c) {
				return false
			}
		}
	}
	return true
}

// Carve opens p. Callers must check CanCarve first; Carve does not
// validate the carving rules. Carving outside the grid panics.
func (g *Grid) Carve(p Position) {
	if !g.InBounds(p) {
		panic(fmt.Sprintf("maze: carve %v: %v", p, ErrOutOfBounds))
	}
	i := p.Y*g.width + p.X
	if g.cells[i] == Open {
		return
	}
	g.cells[i] = Open
	g.openCells++
	if g.IsOnPerimeter(p) {
		g.openPerimeter++
	}
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	c := *g
	c.cells = make([]Cell, len(g.cells))
	copy(c.cells, g.cells)
	return &c
}

// OpenPositions returns every open cell in row-major order.
func (g *Grid) OpenPositions() []Position {
	out := make([]Position, 0, g.openCells)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.cells[y*g.width+x] == Open {
				out = append(out, Position{X: x, Y: y})
			}
		}
	}
	return out
}
