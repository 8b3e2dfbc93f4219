package rules

import (
	"github.com/talgya/mazerunner/internal/maze"
)

// Applicable reports whether block b may act on the candidate moves.
// Unknown kinds and non-positive weights are never applicable.
func Applicable(b Block, ctx *Context, moves []maze.Move) bool {
	if b == nil || !(b.Mass() > 0) || len(moves) == 0 {
		return false
	}
	switch b.(type) {
	case WallFollowing:
		return ctx.HasLast
	case LineOfSight:
		if _, ok := ctx.exitInView(); ok {
			return true
		}
		for _, m := range moves {
			if ctx.unvisitedAhead(m.Direction) > 0 {
				return true
			}
		}
		return false
	case TowardExit:
		here := maze.Distance(ctx.Position, ctx.Exit)
		for _, m := range moves {
			if maze.Distance(m.To, ctx.Exit) < here {
				return true
			}
		}
		return false
	case CheckMap:
		return len(maze.ShortestPath(ctx.Grid, ctx.Position, ctx.Exit)) > 1
	case Backtracking:
		first := ctx.Visits[moves[0].To]
		for _, m := range moves[1:] {
			if ctx.Visits[m.To] != first {
				return true
			}
		}
		return false
	case Social:
		for _, m := range moves {
			if ctx.othersAhead(m.Direction) > 0 {
				return true
			}
		}
		return false
	case RandomGuesser:
		return true
	default:
		return false
	}
}

// Apply runs block b over the candidate moves and returns the surviving
// subset and the block's thought glyph. The result is never empty: a filter
// that would eliminate every move returns its input unchanged.
func Apply(b Block, ctx *Context, moves []maze.Move) ([]maze.Move, string) {
	var (
		kept    []maze.Move
		thought string
	)
	switch b := b.(type) {
	case WallFollowing:
		kept, thought = followWall(b, ctx, moves)
	case LineOfSight:
		kept, thought = lookAround(ctx, moves), ThoughtInsight
	case TowardExit:
		kept, thought = headForExit(ctx, moves), ThoughtCompass
	case CheckMap:
		kept, thought = readMap(ctx, moves), ThoughtMap
	case Backtracking:
		visits := func(m maze.Move) float64 { return float64(ctx.Visits[m.To]) }
		if b.Mode == SeekVisited {
			kept, thought = keepBest(moves, visits, true), ThoughtRetrace
		} else {
			kept, thought = keepBest(moves, visits, false), ThoughtFresh
		}
	case Social:
		seen := func(m maze.Move) float64 { return float64(ctx.othersAhead(m.Direction)) }
		if b.Mode == AvoidOthers {
			kept, thought = keepBest(moves, seen, false), ThoughtShy
		} else {
			kept, thought = keepBest(moves, seen, true), ThoughtFollow
		}
	case RandomGuesser:
		kept, thought = moves, ThoughtDice
	default:
		return moves, ""
	}
	if len(kept) == 0 {
		kept = moves
	}
	return kept, thought
}

// wallRank orders headings relative to the last move. Lower is preferred.
func wallRank(h Hand, last, d maze.Direction) int {
	near, far := last.TurnRight(), last.TurnLeft()
	if h == LeftHand {
		near, far = far, near
	}
	switch d {
	case near:
		return 0
	case last:
		return 1
	case far:
		return 2
	default:
		return 3
	}
}

func followWall(b WallFollowing, ctx *Context, moves []maze.Move) ([]maze.Move, string) {
	thought := ThoughtWallRight
	if b.Hand == LeftHand {
		thought = ThoughtWallLeft
	}
	if !ctx.HasLast {
		return moves, thought
	}
	rank := func(m maze.Move) float64 { return float64(wallRank(b.Hand, ctx.LastDir, m.Direction)) }
	return keepBest(moves, rank, false), thought
}

func lookAround(ctx *Context, moves []maze.Move) []maze.Move {
	if dir, ok := ctx.exitInView(); ok {
		var toward []maze.Move
		for _, m := range moves {
			if m.Direction == dir {
				toward = append(toward, m)
			}
		}
		if len(toward) > 0 {
			return toward
		}
	}

	var (
		nearest []maze.Move
		best    int
	)
	for _, m := range moves {
		k := ctx.unvisitedAhead(m.Direction)
		switch {
		case k == 0:
		case best == 0 || k < best:
			best, nearest = k, []maze.Move{m}
		case k == best:
			nearest = append(nearest, m)
		}
	}
	return nearest
}

func headForExit(ctx *Context, moves []maze.Move) []maze.Move {
	here := maze.Distance(ctx.Position, ctx.Exit)
	var closer []maze.Move
	for _, m := range moves {
		if maze.Distance(m.To, ctx.Exit) < here {
			closer = append(closer, m)
		}
	}
	return keepBest(closer, func(m maze.Move) float64 { return maze.Distance(m.To, ctx.Exit) }, false)
}

func readMap(ctx *Context, moves []maze.Move) []maze.Move {
	path := maze.ShortestPath(ctx.Grid, ctx.Position, ctx.Exit)
	if len(path) < 2 {
		return nil
	}
	var next []maze.Move
	for _, m := range moves {
		if m.To == path[1] {
			next = append(next, m)
		}
	}
	return next
}

// keepBest keeps the moves tied for the best score (the highest when highest
// is set, the lowest otherwise), preserving input order.
func keepBest(moves []maze.Move, score func(maze.Move) float64, highest bool) []maze.Move {
	var (
		out  []maze.Move
		best float64
	)
	for i, m := range moves {
		s := score(m)
		switch {
		case i == 0 || (highest && s > best) || (!highest && s < best):
			best, out = s, []maze.Move{m}
		case s == best:
			out = append(out, m)
		}
	}
	return out
}
