// Package persistence provides the best-effort SQLite cache: carved mazes,
// named tier presets, and the record of past runs.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mazerunner/internal/agents"
	"github.com/talgya/mazerunner/internal/engine"
	"github.com/talgya/mazerunner/internal/maze"
	"github.com/talgya/mazerunner/internal/rules"
)

var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mazes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		fingerprint TEXT NOT NULL UNIQUE,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		layout TEXT NOT NULL,
		created_unix INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tier_presets (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_unix INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		maze_id TEXT NOT NULL,
		seed INTEGER NOT NULL,
		ticks INTEGER NOT NULL,
		clock_ms INTEGER NOT NULL,
		spawned INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		stuck INTEGER NOT NULL,
		removed INTEGER NOT NULL,
		moves INTEGER NOT NULL,
		mean_steps REAL NOT NULL,
		saved_unix INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_agents (
		run_id TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		state TEXT NOT NULL,
		steps INTEGER NOT NULL,
		distinct_cells INTEGER NOT NULL,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		speed REAL NOT NULL,
		tiers_yaml TEXT NOT NULL,
		PRIMARY KEY (run_id, agent_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		at_ms INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_runs_maze ON runs(maze_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// MazeRecord is a cached maze as stored.
type MazeRecord struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Fingerprint string `db:"fingerprint"`
	Width       int    `db:"width"`
	Height      int    `db:"height"`
	Layout      string `db:"layout"`
	CreatedUnix int64  `db:"created_unix"`
}

// CreatedAt returns the record's creation time.
func (r MazeRecord) CreatedAt() time.Time {
	return time.UnixMilli(r.CreatedUnix).UTC()
}

// Maze rebuilds the maze from its stored layout.
func (r MazeRecord) Maze() (*maze.Maze, error) {
	m, err := maze.Parse(r.Layout)
	if err != nil {
		return nil, fmt.Errorf("maze %s: %w", r.ID, err)
	}
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("maze id %q: %w", r.ID, err)
	}
	m.ID = id
	m.Name = r.Name
	m.CreatedAt = r.CreatedAt()
	return m, nil
}

// SaveMaze caches a maze. Layouts are deduplicated by fingerprint: saving
// a layout already stored returns the stored ID and leaves the row alone.
// A maze saved again after more carving replaces its earlier row.
func (db *DB) SaveMaze(m *maze.Maze) (uuid.UUID, error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	id, err := saveMaze(tx, m)
	if err != nil {
		return uuid.Nil, err
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func saveMaze(tx *sqlx.Tx, m *maze.Maze) (uuid.UUID, error) {
	fp := m.Fingerprint()
	var existing string
	err := tx.Get(&existing, "SELECT id FROM mazes WHERE fingerprint = ?", fp)
	switch {
	case err == nil:
		return uuid.Parse(existing)
	case !errors.Is(err, sql.ErrNoRows):
		return uuid.Nil, err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO mazes
		(id, name, fingerprint, width, height, layout, created_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.Name, fp, m.Width(), m.Height(), m.String(), m.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert maze %s: %w", m.ID, err)
	}
	slog.Debug("maze cached", "maze", m.ID, "fingerprint", fp[:12])
	return m.ID, nil
}

// LoadMaze loads a cached maze by ID.
func (db *DB) LoadMaze(id uuid.UUID) (*maze.Maze, error) {
	var rec MazeRecord
	err := db.conn.Get(&rec, "SELECT * FROM mazes WHERE id = ?", id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("maze %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec.Maze()
}

// LatestMaze loads the most recently created cached maze.
func (db *DB) LatestMaze() (*maze.Maze, error) {
	var rec MazeRecord
	err := db.conn.Get(&rec, "SELECT * FROM mazes ORDER BY created_unix DESC, rowid DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest maze: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec.Maze()
}

// ListMazes returns every cached maze, newest first.
func (db *DB) ListMazes() ([]MazeRecord, error) {
	var recs []MazeRecord
	err := db.conn.Select(&recs, "SELECT * FROM mazes ORDER BY created_unix DESC, rowid DESC")
	return recs, err
}

// DeleteMaze drops a cached maze.
func (db *DB) DeleteMaze(id uuid.UUID) error {
	res, err := db.conn.Exec("DELETE FROM mazes WHERE id = ?", id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("maze %s: %w", id, ErrNotFound)
	}
	return nil
}

// SavePreset stores a named tier configuration as YAML, replacing any
// preset of the same name.
func (db *DB) SavePreset(name string, t rules.Tiers) error {
	body, err := rules.Encode(t, rules.FormatYAML)
	if err != nil {
		return fmt.Errorf("encode preset %q: %w", name, err)
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO tier_presets (name, body, updated_unix) VALUES (?, ?, ?)",
		name, string(body), time.Now().UnixMilli(),
	)
	return err
}

// LoadPreset loads a stored preset.
func (db *DB) LoadPreset(name string) (rules.Tiers, error) {
	var body string
	err := db.conn.Get(&body, "SELECT body FROM tier_presets WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return rules.Tiers{}, fmt.Errorf("preset %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return rules.Tiers{}, err
	}
	t, err := rules.Decode([]byte(body), rules.FormatYAML)
	if err != nil {
		return rules.Tiers{}, fmt.Errorf("preset %q: %w", name, err)
	}
	return t, nil
}

// ListPresets returns the stored preset names alphabetically.
func (db *DB) ListPresets() ([]string, error) {
	var names []string
	err := db.conn.Select(&names, "SELECT name FROM tier_presets ORDER BY name")
	return names, err
}

// RunRecord summarises a saved run.
type RunRecord struct {
	ID        string  `db:"id"`
	MazeID    string  `db:"maze_id"`
	Seed      int64   `db:"seed"`
	Ticks     uint64  `db:"ticks"`
	ClockMS   int64   `db:"clock_ms"`
	Spawned   int     `db:"spawned"`
	Finished  int     `db:"finished"`
	Stuck     int     `db:"stuck"`
	Removed   int     `db:"removed"`
	Moves     int     `db:"moves"`
	MeanSteps float64 `db:"mean_steps"`
	SavedUnix int64   `db:"saved_unix"`
}

// SaveAgents writes a run's agents (full replace for that run).
func (db *DB) SaveAgents(runID string, agentList []*agents.Agent) error {
	return db.inTx(func(tx *sqlx.Tx) error { return saveAgents(tx, runID, agentList) })
}

func saveAgents(tx *sqlx.Tx, runID string, agentList []*agents.Agent) error {
	if _, err := tx.Exec("DELETE FROM run_agents WHERE run_id = ?", runID); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO run_agents
		(run_id, agent_id, name, state, steps, distinct_cells, pos_x, pos_y, speed, tiers_yaml)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		tiers, err := rules.Encode(a.Tiers, rules.FormatYAML)
		if err != nil {
			return fmt.Errorf("encode tiers of agent %d: %w", a.ID, err)
		}
		state := a.State.String()
		if a.Removed {
			state = "removed"
		}
		_, err = stmt.Exec(
			runID, a.ID, a.Name, state, a.Steps, a.Distinct(),
			a.Position.X, a.Position.Y, a.Speed, string(tiers),
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}
	return nil
}

// SaveEvents writes a run's events (full replace for that run).
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	return db.inTx(func(tx *sqlx.Tx) error { return saveEvents(tx, runID, events) })
}

func saveEvents(tx *sqlx.Tx, runID string, events []engine.Event) error {
	if _, err := tx.Exec("DELETE FROM events WHERE run_id = ?", runID); err != nil {
		return err
	}
	for _, e := range events {
		_, err := tx.Exec(
			`INSERT INTO events (run_id, tick, at_ms, agent_id, category, description)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, e.Tick, e.At.Milliseconds(), e.AgentID, e.Category, e.Description,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	return saveMeta(db.conn, key, value)
}

func saveMeta(e sqlx.Execer, key, value string) error {
	_, err := e.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %q: %w", key, ErrNotFound)
	}
	return value, err
}

// SaveRun performs a full save of one run in a single transaction: the
// maze, the summary, the agents and the events.
func (db *DB) SaveRun(sim *engine.Simulation, seed int64) error {
	runID := sim.RunID.String()
	slog.Info("saving run", "run", runID, "agents", len(sim.Agents), "events", len(sim.Events))

	var mazeID uuid.UUID
	err := db.inTx(func(tx *sqlx.Tx) error {
		var err error
		if mazeID, err = saveMaze(tx, sim.Maze); err != nil {
			return fmt.Errorf("save maze: %w", err)
		}
		st := sim.Stats
		_, err = tx.Exec(`INSERT OR REPLACE INTO runs
			(id, maze_id, seed, ticks, clock_ms, spawned, finished, stuck, removed, moves, mean_steps, saved_unix)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, mazeID.String(), seed, sim.Engine.Tick, sim.Engine.Now.Milliseconds(),
			st.Spawned, st.Finished, st.Stuck, st.Removed, st.Moves, st.MeanSteps, time.Now().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("save run summary: %w", err)
		}
		if err := saveAgents(tx, runID, sim.Agents); err != nil {
			return fmt.Errorf("save agents: %w", err)
		}
		if err := saveEvents(tx, runID, sim.Events); err != nil {
			return fmt.Errorf("save events: %w", err)
		}
		if err := saveMeta(tx, "last_run", runID); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
		if err := saveMeta(tx, "last_tick", strconv.FormatUint(sim.Engine.Tick, 10)); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("run saved", "run", runID, "maze", mazeID)
	return nil
}

// Runs returns the saved runs on a maze, newest first.
func (db *DB) Runs(mazeID uuid.UUID) ([]RunRecord, error) {
	var runs []RunRecord
	err := db.conn.Select(&runs,
		"SELECT * FROM runs WHERE maze_id = ? ORDER BY saved_unix DESC, id DESC",
		mazeID.String(),
	)
	return runs, err
}

type eventRow struct {
	Tick        uint64 `db:"tick"`
	AtMS        int64  `db:"at_ms"`
	AgentID     uint64 `db:"agent_id"`
	Category    string `db:"category"`
	Description string `db:"description"`
}

// RecentEvents returns a run's most recent events, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		`SELECT tick, at_ms, agent_id, category, description FROM events
		WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[i] = engine.Event{
			Tick:        r.Tick,
			At:          time.Duration(r.AtMS) * time.Millisecond,
			AgentID:     agents.AgentID(r.AgentID),
			Category:    r.Category,
			Description: r.Description,
		}
	}
	return events, nil
}
