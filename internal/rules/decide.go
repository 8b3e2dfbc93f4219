package rules

import (
	"strings"

	"github.com/talgya/mazerunner/internal/entropy"
	"github.com/talgya/mazerunner/internal/maze"
)

// Decision is the outcome of one decision cycle.
type Decision struct {
	Move  maze.Move
	Stuck bool // no legal move at all

	// Thoughts holds the glyphs of the blocks that shaped the choice, in
	// tier order. Empty for single-option corridor moves.
	Thoughts []string
	// Fired lists the blocks that were drawn, one per tier that acted.
	Fired []Block
}

// Annotation joins the thought glyphs for display.
func (d Decision) Annotation() string {
	return strings.Join(d.Thoughts, "")
}

// Deliberate reports whether the decision involved any reasoning (and so
// earns a thinking pause before it is carried out).
func (d Decision) Deliberate() bool {
	return !d.Stuck && len(d.Thoughts) > 0
}

// ExcludeReversal drops the move that undoes the last one, unless it is the
// only move available.
func ExcludeReversal(moves []maze.Move, last maze.Direction, hasLast bool) []maze.Move {
	if !hasLast || len(moves) < 2 {
		return moves
	}
	back := last.Reverse()
	out := make([]maze.Move, 0, len(moves))
	for _, m := range moves {
		if m.Direction != back {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return moves
	}
	return out
}

// Decide picks the next move for an agent at ctx.Position.
//
// Legal moves are generated and the immediate reversal removed. A single
// remaining move is taken without thought. Otherwise each tier, High to
// Low, draws one applicable block by weight and lets it narrow the
// candidates; the first tier to leave exactly one move ends the decision.
// Survivors of all tiers are separated by a uniform draw.
func Decide(ctx *Context, tiers Tiers, rng entropy.Source) Decision {
	moves := ExcludeReversal(maze.LegalMoves(ctx.Grid, ctx.Position), ctx.LastDir, ctx.HasLast)
	if len(moves) == 0 {
		return Decision{Stuck: true}
	}
	if len(moves) == 1 {
		return Decision{Move: moves[0]}
	}

	var d Decision
	for _, tier := range tiers {
		var eligible []Block
		for _, b := range tier {
			if Applicable(b, ctx, moves) {
				eligible = append(eligible, b)
			}
		}
		if len(eligible) == 0 {
			continue
		}

		weights := make([]float64, len(eligible))
		for i, b := range eligible {
			weights[i] = b.Mass()
		}
		idx := DrawWeighted(weights, rng)
		if idx < 0 {
			continue
		}
		chosen := eligible[idx]

		var thought string
		moves, thought = Apply(chosen, ctx, moves)
		d.Fired = append(d.Fired, chosen)
		if thought != "" {
			d.Thoughts = append(d.Thoughts, thought)
		}
		if len(moves) == 1 {
			d.Move = moves[0]
			d.Thoughts = settleDice(d.Thoughts)
			return d
		}
	}

	d.Move = moves[rng.Intn(len(moves))]
	d.Thoughts = settleDice(d.Thoughts)
	return d
}

// settleDice marks a reasonless pick with the dice glyph and hides the dice
// once a real rule has contributed.
func settleDice(thoughts []string) []string {
	if len(thoughts) == 0 {
		return []string{ThoughtDice}
	}
	out := thoughts[:0:0]
	for _, t := range thoughts {
		if t != ThoughtDice {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{ThoughtDice}
	}
	return out
}

// DrawWeighted picks an index with probability proportional to its weight.
// A value is drawn uniformly from [0, total) and weights are subtracted in
// order until the remainder is ≤ 0. Non-positive weights are never picked.
// Returns -1 when no weight is positive.
func DrawWeighted(weights []float64, rng entropy.Source) int {
	total := 0.0
	last := -1
	for i, w := range weights {
		if w > 0 {
			total += w
			last = i
		}
	}
	if last < 0 {
		return -1
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if !(w > 0) {
			continue
		}
		r -= w
		if r <= 0 {
			return i
		}
	}
	// Floating-point remainder: fall back to the last positive weight.
	return last
}
