package maze

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

var ErrCannotCarve = errors.New("cell cannot be carved")

// Maze is a carving session: the grid, the origin the plow started from,
// and the entry/exit markers. The first perimeter cell opened becomes the
// entry, the second the exit. Markers only change through Reset.
type Maze struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time

	grid   *Grid
	origin Position
	entry  *Position
	exit   *Position
}

// New creates a maze whose only open cell is origin.
func New(width, height int, origin Position) (*Maze, error) {
	g, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	if !g.InBounds(origin) {
		return nil, fmt.Errorf("origin %v: %w", origin, ErrOutOfBounds)
	}
	m := &Maze{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		grid:      g,
		origin:    origin,
	}
	m.Carve(origin)
	return m, nil
}

// NewCentered creates a maze with the origin in the middle of the grid.
func NewCentered(width, height int) (*Maze, error) {
	return New(width, height, Position{X: width / 2, Y: height / 2})
}

// Grid exposes the underlying grid. Callers outside the maze must treat it
// as read-only and carve through the Maze so markers stay in sync.
func (m *Maze) Grid() *Grid { return m.grid }

// Width returns the number of columns.
func (m *Maze) Width() int { return m.grid.width }

// Height returns the number of rows.
func (m *Maze) Height() int { return m.grid.height }

// Origin returns the cell the carving started from.
func (m *Maze) Origin() Position { return m.origin }

// Entry returns the entry marker if set.
func (m *Maze) Entry() (Position, bool) {
	if m.entry == nil {
		return Position{}, false
	}
	return *m.entry, true
}

// Exit returns the exit marker if set.
func (m *Maze) Exit() (Position, bool) {
	if m.exit == nil {
		return Position{}, false
	}
	return *m.exit, true
}

// Ready reports whether both markers are set, i.e. agents may be spawned.
func (m *Maze) Ready() bool {
	return m.entry != nil && m.exit != nil
}

// CanCarve reports whether p may be opened.
func (m *Maze) CanCarve(p Position) bool {
	return m.grid.CanCarve(p)
}

// Carve opens p and assigns entry/exit markers for newly opened perimeter
// cells. Callers must check CanCarve first.
func (m *Maze) Carve(p Position) {
	wasOpen := m.grid.IsOpen(p)
	m.grid.Carve(p)
	if wasOpen || !m.grid.IsOnPerimeter(p) {
		return
	}
	marker := p
	switch {
	case m.entry == nil:
		m.entry = &marker
	case m.exit == nil:
		m.exit = &marker
	}
}

// Reset blocks every cell, re-opens the origin and clears the markers.
func (m *Maze) Reset() {
	g, _ := NewGrid(m.grid.width, m.grid.height)
	m.grid = g
	m.entry = nil
	m.exit = nil
	m.Carve(m.origin)
}

// Resize replaces the grid with a fresh one of the given size. The origin
// moves to the centre of the new grid.
func (m *Maze) Resize(width, height int) error {
	g, err := NewGrid(width, height)
	if err != nil {
		return err
	}
	m.grid = g
	m.origin = Position{X: width / 2, Y: height / 2}
	m.entry = nil
	m.exit = nil
	m.Carve(m.origin)
	return nil
}

// Fingerprint hashes the dimensions, cells and markers. Two mazes with the
// same layout share a fingerprint regardless of their IDs.
func (m *Maze) Fingerprint() string {
	h := blake3.New()
	var buf [4]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint32(buf[:], uint32(int32(v)))
		_, _ = h.Write(buf[:])
	}
	writeInt(m.grid.width)
	writeInt(m.grid.height)
	cells := make([]byte, len(m.grid.cells))
	for i, c := range m.grid.cells {
		cells[i] = byte(c)
	}
	_, _ = h.Write(cells)
	for _, marker := range []*Position{m.entry, m.exit} {
		if marker == nil {
			writeInt(-1)
			writeInt(-1)
			continue
		}
		writeInt(marker.X)
		writeInt(marker.Y)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clone returns a deep copy sharing the ID.
func (m *Maze) Clone() *Maze {
	c := *m
	c.grid = m.grid.Clone()
	if m.entry != nil {
		e := *m.entry
		c.entry = &e
	}
	if m.exit != nil {
		x := *m.exit
		c.exit = &x
	}
	return &c
}
