package maze

import "fmt"

// Plow is the carving cursor. It starts on the origin and can only step
// into adjacent cells, so everything it opens stays connected to the origin.
type Plow struct {
	maze *Maze
	pos  Position
}

// NewPlow places a plow on the maze origin.
func NewPlow(m *Maze) *Plow {
	return &Plow{maze: m, pos: m.Origin()}
}

// Position returns the plow's current cell.
func (p *Plow) Position() Position { return p.pos }

// Move steps the plow one cell in direction d, carving the target first if
// it is blocked. Returns ErrCannotCarve (and stays put) when the carve
// would break the grid rules, or ErrOutOfBounds at the grid edge.
func (p *Plow) Move(d Direction) error {
	target := p.pos.Step(d)
	g := p.maze.Grid()
	if !g.InBounds(target) {
		return fmt.Errorf("plow %s from %v: %w", d, p.pos, ErrOutOfBounds)
	}
	if !g.IsOpen(target) {
		if !p.maze.CanCarve(target) {
			return fmt.Errorf("plow %s to %v: %w", d, target, ErrCannotCarve)
		}
		p.maze.Carve(target)
	}
	p.pos = target
	return nil
}

// Drive applies a sequence of moves, stopping at the first failure.
// Returns the number of moves applied.
func (p *Plow) Drive(dirs ...Direction) (int, error) {
	for i, d := range dirs {
		if err := p.Move(d); err != nil {
			return i, err
		}
	}
	return len(dirs), nil
}

// Reset returns the plow to the origin. It does not touch the grid.
func (p *Plow) Reset() {
	p.pos = p.maze.Origin()
}
