// Command mazesim carves (or loads) a maze and lets a band of rule-driven
// agents find their way from the entry to the exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/talgya/mazerunner/internal/agents"
	"github.com/talgya/mazerunner/internal/config"
	"github.com/talgya/mazerunner/internal/engine"
	"github.com/talgya/mazerunner/internal/entropy"
	"github.com/talgya/mazerunner/internal/maze"
	"github.com/talgya/mazerunner/internal/persistence"
	"github.com/talgya/mazerunner/internal/rules"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Frames go to a terminal; logs move to stderr so they don't tear them.
	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	var logOut io.Writer = os.Stdout
	if interactive {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.CryptoSeed()
	}
	slog.Info("mazesim starting", "seed", seed, "agents", cfg.Agents, "speed", cfg.Speed)

	// ── Database (best effort) ────────────────────────────────────────
	db := openCache(cfg.DBPath)
	if db != nil {
		defer db.Close()
	}

	// ── Personality ───────────────────────────────────────────────────
	tiers, err := loadTiers(cfg, db)
	if err != nil {
		slog.Error("failed to load tier configuration", "error", err)
		os.Exit(1)
	}
	for p, tier := range tiers {
		for _, b := range tier {
			slog.Info("rule block", "tier", rules.Priority(p), "block", rules.Describe(b))
		}
	}

	// ── Maze ──────────────────────────────────────────────────────────
	m, err := loadMaze(cfg, seed, db)
	if err != nil {
		slog.Error("failed to prepare maze", "error", err)
		os.Exit(1)
	}
	entry, _ := m.Entry()
	exit, _ := m.Exit()
	shortest := maze.ShortestPath(m.Grid(), entry, exit)
	slog.Info("maze ready",
		"id", m.ID,
		"size", fmt.Sprintf("%dx%d", m.Width(), m.Height()),
		"open", m.Grid().OpenCount(),
		"entry", entry,
		"exit", exit,
		"shortest", len(shortest)-1,
	)

	// ── Simulation ────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = cfg.Tick
	eng.ThinkPause = cfg.Think
	eng.Speed = cfg.Speed

	sim := engine.NewSimulation(m, seed, eng)
	for i := 0; i < cfg.Agents; i++ {
		if _, err := sim.Spawn(tiers, 1.0); err != nil {
			slog.Error("spawn failed", "error", err)
			os.Exit(1)
		}
	}

	if interactive {
		draw := func(*agents.Agent) { fmt.Print("\033[H\033[2J", frame(sim)) }
		sim.OnMove = draw
		sim.OnDecision = func(a *agents.Agent, _ rules.Decision) { draw(a) }
	} else {
		sim.OnDecision = func(a *agents.Agent, d rules.Decision) {
			slog.Debug("decision", "agent", a.ID, "at", a.Position, "move", d.Move.Direction, "thought", d.Annotation())
		}
	}

	eng.OnTick = func(tick uint64) {
		if cfg.MaxTicks > 0 && tick >= cfg.MaxTicks {
			slog.Warn("tick limit reached, stopping", "ticks", tick)
			eng.Stop()
		}
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Run %s: %d agents in a %dx%d maze, shortest route %d steps.\n",
		sim.RunID, cfg.Agents, m.Width(), m.Height(), len(shortest)-1)
	eng.Run(ctx)
	if ctx.Err() != nil {
		slog.Info("interrupted, stopping")
		sim.Stop()
	}

	// ── Summary ───────────────────────────────────────────────────────
	if interactive {
		fmt.Print("\033[H\033[2J", frame(sim))
	}
	printSummary(sim)

	if db != nil {
		if err := db.SaveRun(sim, seed); err != nil {
			slog.Error("save run failed", "error", err)
		}
	}
}

// openCache opens the SQLite cache. Any failure disables caching.
func openCache(path string) *persistence.DB {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Warn("cache disabled", "path", path, "error", err)
			return nil
		}
	}
	db, err := persistence.Open(path)
	if err != nil {
		slog.Warn("cache disabled", "path", path, "error", err)
		return nil
	}
	slog.Info("database opened", "path", path)
	return db
}

// loadTiers resolves the personality: a file, then a built-in preset, then
// a preset cached in the database.
func loadTiers(cfg config.Config, db *persistence.DB) (rules.Tiers, error) {
	if cfg.TiersFile != "" {
		t, err := rules.LoadFile(cfg.TiersFile)
		if err != nil {
			return rules.Tiers{}, err
		}
		if db != nil {
			name := strings.TrimSuffix(filepath.Base(cfg.TiersFile), filepath.Ext(cfg.TiersFile))
			if err := db.SavePreset(name, t); err != nil {
				slog.Warn("could not cache preset", "name", name, "error", err)
			}
		}
		return t, nil
	}

	name := cfg.Preset
	if name == "" {
		name = rules.DefaultPreset
	}
	if t, ok := rules.Preset(name); ok {
		return t, nil
	}
	if db != nil {
		return db.LoadPreset(name)
	}
	return rules.Tiers{}, fmt.Errorf("unknown preset %q (built in: %s)", name, strings.Join(rules.PresetNames(), ", "))
}

// loadMaze loads the configured cached maze or generates a fresh one.
func loadMaze(cfg config.Config, seed int64, db *persistence.DB) (*maze.Maze, error) {
	if cfg.MazeID != "" {
		if db == nil {
			return nil, errors.New("MAZESIM_MAZE_ID needs the cache")
		}
		id, err := uuid.Parse(cfg.MazeID)
		if err != nil {
			return nil, fmt.Errorf("maze id: %w", err)
		}
		m, err := db.LoadMaze(id)
		if err != nil {
			return nil, err
		}
		if !m.Ready() {
			return nil, fmt.Errorf("maze %s: %w", id, engine.ErrNoEntryExit)
		}
		return m, nil
	}

	gen := maze.DefaultGenConfig()
	gen.Width, gen.Height = cfg.Width, cfg.Height
	gen.Seed = entropy.Derive(seed, 100)
	m, err := maze.Generate(gen)
	if err != nil {
		return nil, err
	}
	m.Name = fmt.Sprintf("generated-%d", gen.Seed)
	if db != nil {
		if _, err := db.SaveMaze(m); err != nil {
			slog.Warn("could not cache maze", "error", err)
		}
	}
	return m, nil
}

func frame(sim *engine.Simulation) string {
	var b strings.Builder
	b.WriteString(sim.Render())
	b.WriteByte('\n')

	list := append([]*agents.Agent(nil), sim.Agents...)
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	for _, a := range list {
		state := a.State.String()
		if a.Removed {
			state = "removed"
		}
		fmt.Fprintf(&b, "%c %-20s %-8s %4d steps  %s\n", a.Label(), a.Name, state, a.Steps, a.Thought)
	}
	return b.String()
}

func printSummary(sim *engine.Simulation) {
	st := sim.Stats
	fmt.Printf("\n%s of %s agents escaped, %s stuck, %s still wandering.\n",
		humanize.Comma(int64(st.Finished)),
		humanize.Comma(int64(st.Spawned)),
		humanize.Comma(int64(st.Stuck)),
		humanize.Comma(int64(st.Active)),
	)
	fmt.Printf("%s moves over %s scheduler ticks (%s simulated).\n",
		humanize.Comma(int64(st.Moves)),
		humanize.Comma(int64(sim.Engine.Tick)),
		sim.Engine.Now.Round(1e6),
	)
	if st.Finished > 0 {
		fmt.Printf("Mean steps to exit: %s.\n", humanize.FtoaWithDigits(st.MeanSteps, 1))
	}
}
