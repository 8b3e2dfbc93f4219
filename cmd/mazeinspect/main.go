// Command mazeinspect lists the mazes, presets and runs in the mazesim
// cache and analyses a cached maze's routes.
//
// Usage:
//
//	mazeinspect              list cached mazes
//	mazeinspect <maze-id>    show one maze, its routes and its runs
//	mazeinspect presets      list cached tier presets
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/mazerunner/internal/config"
	"github.com/talgya/mazerunner/internal/maze"
	"github.com/talgya/mazerunner/internal/persistence"
	"github.com/talgya/mazerunner/internal/rules"
)

// maxEnumerated caps route analysis on loopy hand-carved layouts.
const maxEnumerated = 100_000

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.DBPath == "" {
		slog.Error("MAZESIM_DB_PATH is empty, nothing to inspect")
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch {
	case len(os.Args) < 2:
		err = listMazes(db)
	case os.Args[1] == "presets":
		err = listPresets(db)
	default:
		err = showMaze(db, os.Args[1])
	}
	if err != nil {
		slog.Error("inspect failed", "error", err)
		os.Exit(1)
	}
}

func listMazes(db *persistence.DB) error {
	recs, err := db.ListMazes()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No cached mazes.")
		return nil
	}
	for _, r := range recs {
		fmt.Printf("%s  %3dx%-3d  %-24s  %s  %s\n",
			r.ID, r.Width, r.Height, r.Name, r.Fingerprint[:12], humanize.Time(r.CreatedAt()))
	}
	return nil
}

func listPresets(db *persistence.DB) error {
	names, err := db.ListPresets()
	if err != nil {
		return err
	}
	fmt.Println("Built in:")
	for _, n := range rules.PresetNames() {
		fmt.Println("  " + n)
	}
	fmt.Println("Cached:")
	for _, n := range names {
		t, err := db.LoadPreset(n)
		if err != nil {
			fmt.Printf("  %s (unreadable: %v)\n", n, err)
			continue
		}
		fmt.Printf("  %s (%d blocks)\n", n, t.Len())
	}
	return nil
}

func showMaze(db *persistence.DB, arg string) error {
	id, err := uuid.Parse(arg)
	if err != nil {
		return fmt.Errorf("maze id %q: %w", arg, err)
	}
	m, err := db.LoadMaze(id)
	if err != nil {
		return err
	}

	fmt.Printf("%s  %s  created %s\n\n", m.ID, m.Name, humanize.Time(m.CreatedAt))
	fmt.Println(m.String())
	fmt.Printf("open cells: %s of %s\n",
		humanize.Comma(int64(m.Grid().OpenCount())),
		humanize.Comma(int64(m.Width()*m.Height())))

	entry, hasEntry := m.Entry()
	exit, hasExit := m.Exit()
	if !hasEntry || !hasExit {
		fmt.Println("entry/exit not marked yet")
		return nil
	}

	start := time.Now()
	shortest := maze.ShortestPath(m.Grid(), entry, exit)
	if shortest == nil {
		fmt.Println("no route from entry to exit")
		return nil
	}
	survey := maze.SurveyRoutes(m.Grid(), entry, exit, maxEnumerated)
	slog.Debug("routes analysed", "elapsed", time.Since(start), "complete", survey.Complete)

	fmt.Printf("shortest route: %d steps\n", len(shortest)-1)
	if survey.Complete {
		fmt.Printf("longest route:  %d steps\n", len(survey.Longest)-1)
		fmt.Printf("distinct routes: %s\n", humanize.Comma(int64(survey.Routes)))
	} else {
		fmt.Printf("longest route:  at least %d steps\n", len(survey.Longest)-1)
		fmt.Printf("distinct routes: at least %s\n", humanize.Comma(int64(survey.Routes)))
	}

	runs, err := db.Runs(m.ID)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		fmt.Println("\nruns:")
	}
	for _, r := range runs {
		fmt.Printf("  %s  %s  %d/%d escaped  mean %s steps  %s moves\n",
			r.ID, humanize.Time(time.UnixMilli(r.SavedUnix)),
			r.Finished, r.Spawned,
			humanize.FtoaWithDigits(r.MeanSteps, 1),
			humanize.Comma(int64(r.Moves)))
	}
	return nil
}
