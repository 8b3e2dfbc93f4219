package rules

import "github.com/talgya/mazerunner/internal/maze"

// Lookahead ranges, in cells.
const (
	SightRange  = 5 // LineOfSight scan for unvisited cells
	SocialRange = 7 // Social scan for other agents
)

// Thought glyphs attached to decisions.
const (
	ThoughtWallLeft  = "⬅️"
	ThoughtWallRight = "➡️"
	ThoughtInsight   = "💡"
	ThoughtCompass   = "🧭"
	ThoughtMap       = "🗺️"
	ThoughtFresh     = "👣"
	ThoughtRetrace   = "🔙"
	ThoughtFollow    = "🤝"
	ThoughtShy       = "🙈"
	ThoughtDice      = "🎲"
)

// Context is everything a rule block may look at. It is read-only for the
// duration of a decision.
type Context struct {
	Grid     *maze.Grid
	Position maze.Position
	Exit     maze.Position

	// LastDir is meaningful only when HasLast is set.
	LastDir maze.Direction
	HasLast bool

	// Visits counts arrivals per cell; a cell is visited when its count is positive.
	Visits map[maze.Position]int

	// Others holds the positions of every other live agent.
	Others []maze.Position
}

func (c *Context) visited(p maze.Position) bool {
	return c.Visits[p] > 0
}

// exitInView reports whether the exit lies on the same row or column with
// only open cells in between, and which way it is.
func (c *Context) exitInView() (maze.Direction, bool) {
	from, to := c.Position, c.Exit
	if from == to || (from.X != to.X && from.Y != to.Y) {
		return 0, false
	}
	var dir maze.Direction
	switch {
	case to.Y < from.Y:
		dir = maze.Up
	case to.X > from.X:
		dir = maze.Right
	case to.Y > from.Y:
		dir = maze.Down
	default:
		dir = maze.Left
	}
	for p := from.Step(dir); ; p = p.Step(dir) {
		if !c.Grid.IsOpen(p) {
			return 0, false
		}
		if p == to {
			return dir, true
		}
	}
}

// unvisitedAhead returns how many cells along dir the first unvisited open
// cell lies, scanning at most SightRange cells. Zero means none in range.
func (c *Context) unvisitedAhead(dir maze.Direction) int {
	p := c.Position
	for k := 1; k <= SightRange; k++ {
		p = p.Step(dir)
		if !c.Grid.IsOpen(p) {
			return 0
		}
		if !c.visited(p) {
			return k
		}
	}
	return 0
}

// othersAhead counts other agents standing along dir within SocialRange,
// stopping at the first blocked cell.
func (c *Context) othersAhead(dir maze.Direction) int {
	if len(c.Others) == 0 {
		return 0
	}
	n := 0
	p := c.Position
	for k := 1; k <= SocialRange; k++ {
		p = p.Step(dir)
		if !c.Grid.IsOpen(p) {
			break
		}
		for _, o := range c.Others {
			if o == p {
				n++
			}
		}
	}
	return n
}
