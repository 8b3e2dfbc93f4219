package maze

// ShortestPath runs a breadth-first search over open cells, expanding
// neighbors in Up, Right, Down, Left order. It returns the cells from
// `from` to `to` inclusive, or nil when either end is blocked or the two
// are not connected. Among equal-length paths the first one discovered wins.
func ShortestPath(g *Grid, from, to Position) []Position {
	if !g.IsOpen(from) || !g.IsOpen(to) {
		return nil
	}
	if from == to {
		return []Position{from}
	}

	parent := map[Position]Position{from: from}
	queue := []Position{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range openNeighbors(g, cur) {
			if _, seen := parent[n]; seen {
				continue
			}
			parent[n] = cur
			if n == to {
				return unwind(parent, from, to)
			}
			queue = append(queue, n)
		}
	}
	return nil
}

func unwind(parent map[Position]Position, from, to Position) []Position {
	var rev []Position
	for p := to; p != from; p = parent[p] {
		rev = append(rev, p)
	}
	rev = append(rev, from)
	path := make([]Position, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path
}

// LongestPath exhaustively enumerates simple paths from `from` to `to` and
// returns the one with the most cells, or nil when none exists. Exponential
// in the worst case; the carving rules keep real mazes narrow enough.
// Among equal-length paths the first one enumerated wins.
func LongestPath(g *Grid, from, to Position) []Position {
	return SurveyRoutes(g, from, to, 0).Longest
}

// RouteSurvey is the result of a bounded route enumeration.
type RouteSurvey struct {
	Longest  []Position // longest route seen; a lower bound unless Complete
	Routes   int        // distinct simple routes seen
	Complete bool       // enumeration finished before reaching the limit
}

// SurveyRoutes counts simple routes from `from` to `to` and tracks the
// longest, stopping after limit routes. A limit of zero or less means no
// limit.
func SurveyRoutes(g *Grid, from, to Position, limit int) RouteSurvey {
	s := RouteSurvey{Complete: true}
	EnumeratePaths(g, from, to, func(path []Position) bool {
		s.Routes++
		if len(path) > len(s.Longest) {
			s.Longest = append(s.Longest[:0:0], path...)
		}
		if limit > 0 && s.Routes >= limit {
			s.Complete = false
			return false
		}
		return true
	})
	return s
}

// EnumeratePaths calls fn with every simple path from `from` to `to`, in
// depth-first order with Up, Right, Down, Left descent. The slice passed to
// fn is reused between calls. Enumeration stops early when fn returns false.
func EnumeratePaths(g *Grid, from, to Position, fn func(path []Position) bool) {
	if !g.IsOpen(from) || !g.IsOpen(to) {
		return
	}
	visited := map[Position]bool{from: true}
	path := []Position{from}

	var walk func(cur Position) bool
	walk = func(cur Position) bool {
		if cur == to {
			return fn(path)
		}
		for _, n := range openNeighbors(g, cur) {
			if visited[n] {
				continue
			}
			visited[n] = true
			path = append(path, n)
			more := walk(n)
			path = path[:len(path)-1]
			delete(visited, n)
			if !more {
				return false
			}
		}
		return true
	}
	walk(from)
}
