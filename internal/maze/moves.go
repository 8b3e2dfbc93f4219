package maze

// LegalMoves returns the moves from pos into open, in-bounds neighbors,
// in the fixed order Up, Right, Down, Left. The result is empty only when
// every neighbor is blocked.
func LegalMoves(g *Grid, pos Position) []Move {
	moves := make([]Move, 0, NumDirections)
	for _, d := range AllDirections {
		to := pos.Step(d)
		if g.IsOpen(to) {
			moves = append(moves, Move{To: to, Direction: d})
		}
	}
	return moves
}

// openNeighbors lists the open cells adjacent to pos in move order.
func openNeighbors(g *Grid, pos Position) []Position {
	out := make([]Position, 0, NumDirections)
	for _, d := range AllDirections {
		n := pos.Step(d)
		if g.IsOpen(n) {
			out = append(out, n)
		}
	}
	return out
}
