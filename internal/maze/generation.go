// Procedural carving using simplex noise.
// The generator drives the same carve rules a human plow follows, so every
// generated maze is one a person could have carved by hand.
package maze

import (
	"errors"
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/mazerunner/internal/entropy"
)

var ErrNoMarkerRoom = errors.New("no perimeter cell available for entry/exit")

// GenConfig holds maze generation parameters.
type GenConfig struct {
	Width     int
	Height    int
	Seed      int64   // Random seed (0 = random)
	Coverage  float64 // Fraction of interior cells to try to open (0.0–1.0)
	Frequency float64 // Noise sampling frequency; higher = twistier corridors
	Straight  float64 // Probability of extending the newest corridor rather than branching
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:     15,
		Height:    15,
		Seed:      0,
		Coverage:  0.55,
		Frequency: 0.35,
		Straight:  0.75,
	}
}

// SmallTestConfig returns a tiny maze for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:     7,
		Height:    7,
		Seed:      42,
		Coverage:  0.6,
		Frequency: 0.35,
		Straight:  0.75,
	}
}

// Generate carves a complete maze with an entry and an exit. The exit is the
// perimeter opening farthest (by corridor length) from the entry.
func Generate(cfg GenConfig) (*Maze, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.CryptoSeed()
	}
	noise := opensimplex.NewNormalized(seed)
	rng := entropy.New(seed + 100)

	m, err := NewCentered(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	g := m.Grid()

	interior := (cfg.Width - 2) * (cfg.Height - 2)
	target := int(float64(interior) * cfg.Coverage)
	if target < 1 {
		target = 1
	}

	// Growing tree: extend from the newest cell most of the time, branch
	// from a random active cell otherwise.
	active := []Position{m.Origin()}
	for len(active) > 0 && g.OpenCount() < target {
		idx := len(active) - 1
		if rng.Float64() >= cfg.Straight {
			idx = rng.Intn(len(active))
		}
		cell := active[idx]

		next, ok := pickGrowth(g, cell, noise, rng, cfg.Frequency)
		if !ok {
			active = append(active[:idx], active[idx+1:]...)
			continue
		}
		m.Carve(next)
		active = append(active, next)
	}

	entry, ok := pickEntry(g, rng)
	if !ok {
		return nil, fmt.Errorf("generate %dx%d: %w", cfg.Width, cfg.Height, ErrNoMarkerRoom)
	}
	m.Carve(entry)

	exit, ok := pickExit(g, entry)
	if !ok {
		return nil, fmt.Errorf("generate %dx%d: %w", cfg.Width, cfg.Height, ErrNoMarkerRoom)
	}
	m.Carve(exit)
	return m, nil
}

// pickGrowth chooses the interior neighbor of cell to carve next. Only
// cells touching exactly one open cell qualify, which keeps corridors one
// cell wide and the layout a tree. Ties in noise are broken by jitter.
func pickGrowth(g *Grid, cell Position, noise opensimplex.Noise, rng *rand.Rand, freq float64) (Position, bool) {
	var best Position
	bestScore := -1.0
	for _, d := range AllDirections {
		n := cell.Step(d)
		if !g.InBounds(n) || g.IsOnPerimeter(n) || g.IsOpen(n) {
			continue
		}
		if len(openNeighbors(g, n)) != 1 || !g.CanCarve(n) {
			continue
		}
		score := noise.Eval2(float64(n.X)*freq, float64(n.Y)*freq) + rng.Float64()*0.25
		if score > bestScore {
			best, bestScore = n, score
		}
	}
	return best, bestScore >= 0
}

// markerCandidates lists carvable perimeter cells next to an open interior cell.
func markerCandidates(g *Grid) []Position {
	var out []Position
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			p := Position{X: x, Y: y}
			if !g.IsOnPerimeter(p) || g.IsOpen(p) || !g.CanCarve(p) {
				continue
			}
			for _, n := range openNeighbors(g, p) {
				if !g.IsOnPerimeter(n) {
					out = append(out, p)
					break
				}
			}
		}
	}
	return out
}

func pickEntry(g *Grid, rng *rand.Rand) (Position, bool) {
	cands := markerCandidates(g)
	if len(cands) == 0 {
		return Position{}, false
	}
	return cands[rng.Intn(len(cands))], true
}

func pickExit(g *Grid, entry Position) (Position, bool) {
	var best Position
	bestLen := 0
	for _, c := range markerCandidates(g) {
		for _, n := range openNeighbors(g, c) {
			if g.IsOnPerimeter(n) {
				continue
			}
			if l := len(ShortestPath(g, entry, n)); l > bestLen {
				best, bestLen = c, l
			}
		}
	}
	return best, bestLen > 0
}
