package maze

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Layout glyphs used by String and Parse.
const (
	GlyphBlocked = '#'
	GlyphOpen    = '.'
	GlyphEntry   = 'E'
	GlyphExit    = 'X'
	GlyphOrigin  = 'O'
	GlyphAgent   = 'A'
)

var ErrIllegalLayout = errors.New("illegal maze layout")

// String renders the maze one row per line.
func (m *Maze) String() string {
	return m.RenderWithAgents(nil)
}

// RenderWithAgents renders the maze with an overlay glyph at each agent
// position. Agents hide the entry/exit glyph beneath them.
func (m *Maze) RenderWithAgents(agents map[Position]rune) string {
	var b strings.Builder
	b.Grow((m.Width() + 1) * m.Height())
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			p := Position{X: x, Y: y}
			if r, ok := agents[p]; ok {
				b.WriteRune(r)
				continue
			}
			b.WriteRune(m.glyphAt(p))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Maze) glyphAt(p Position) rune {
	switch {
	case m.entry != nil && *m.entry == p:
		return GlyphEntry
	case m.exit != nil && *m.exit == p:
		return GlyphExit
	case p == m.origin:
		return GlyphOrigin
	case m.grid.IsOpen(p):
		return GlyphOpen
	default:
		return GlyphBlocked
	}
}

// Parse builds a maze from the text produced by String. Blank lines and
// surrounding whitespace are ignored. The origin is the 'O' cell, else the
// entry, else the first open cell. Open perimeter cells without a glyph
// become markers in row-major order. The layout must obey the carving rules
// and E/X must sit on the perimeter.
func Parse(layout string) (*Maze, error) {
	var rows []string
	for _, line := range strings.Split(layout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrIllegalLayout)
	}
	width := len(rows[0])
	g, err := NewGrid(width, len(rows))
	if err != nil {
		return nil, err
	}

	var entry, exit, origin *Position
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrIllegalLayout, y, len(row), width)
		}
		for x, r := range row {
			p := Position{X: x, Y: y}
			switch r {
			case GlyphBlocked:
				continue
			case GlyphOpen:
			case GlyphEntry:
				entry = &p
			case GlyphExit:
				exit = &p
			case GlyphOrigin:
				origin = &p
			default:
				return nil, fmt.Errorf("%w: unexpected %q at %v", ErrIllegalLayout, r, p)
			}
			g.Carve(p)
		}
	}
	if g.OpenCount() == 0 {
		return nil, fmt.Errorf("%w: no open cells", ErrIllegalLayout)
	}
	if err := validateLayout(g, entry, exit); err != nil {
		return nil, err
	}
	// Unmarked open perimeter cells still act as markers.
	for _, p := range g.OpenPositions() {
		if !g.IsOnPerimeter(p) || (entry != nil && *entry == p) || (exit != nil && *exit == p) {
			continue
		}
		marker := p
		if entry == nil {
			entry = &marker
		} else if exit == nil {
			exit = &marker
		}
	}

	m := &Maze{ID: uuid.New(), CreatedAt: time.Now().UTC(), grid: g, entry: entry, exit: exit}
	switch {
	case origin != nil:
		m.origin = *origin
	case entry != nil:
		m.origin = *entry
	default:
		m.origin = g.OpenPositions()[0]
	}
	return m, nil
}

func validateLayout(g *Grid, entry, exit *Position) error {
	if g.OpenPerimeterCount() > MaxOpenPerimeter {
		return fmt.Errorf("%w: %d open perimeter cells", ErrIllegalLayout, g.OpenPerimeterCount())
	}
	for _, marker := range []*Position{entry, exit} {
		if marker != nil && !g.IsOnPerimeter(*marker) {
			return fmt.Errorf("%w: marker %v is not on the perimeter", ErrIllegalLayout, *marker)
		}
	}
	if exit != nil && entry == nil {
		return fmt.Errorf("%w: exit without entry", ErrIllegalLayout)
	}
	for y := 0; y+1 < g.height; y++ {
		for x := 0; x+1 < g.width; x++ {
			if g.IsOpen(Pos(x, y)) && g.IsOpen(Pos(x+1, y)) && g.IsOpen(Pos(x, y+1)) && g.IsOpen(Pos(x+1, y+1)) {
				return fmt.Errorf("%w: open 2x2 block at %v", ErrIllegalLayout, Pos(x, y))
			}
		}
	}
	return nil
}
