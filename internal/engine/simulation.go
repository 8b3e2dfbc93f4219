// Simulation ties the maze, the agents and the scheduler together.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/talgya/mazerunner/internal/agents"
	"github.com/talgya/mazerunner/internal/maze"
	"github.com/talgya/mazerunner/internal/rules"
)

var (
	ErrNoEntryExit  = errors.New("maze has no entry and exit yet")
	ErrUnknownAgent = errors.New("unknown agent")
)

// MaxEvents bounds the in-memory event log.
const MaxEvents = 1000

// Event categories.
const (
	EventSpawned  = "spawned"
	EventFinished = "finished"
	EventStuck    = "stuck"
	EventRemoved  = "removed"
	EventPaused   = "paused"
	EventResumed  = "resumed"
)

// Event is a notable occurrence during a run.
type Event struct {
	Tick        uint64         `json:"tick"`
	At          time.Duration  `json:"at"`
	AgentID     agents.AgentID `json:"agent_id"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
}

// SimStats tracks aggregate run statistics.
type SimStats struct {
	Spawned   int     `json:"spawned"`
	Active    int     `json:"active"`
	Finished  int     `json:"finished"`
	Stuck     int     `json:"stuck"`
	Removed   int     `json:"removed"`
	Moves     int     `json:"moves"`
	MeanSteps float64 `json:"mean_steps"` // steps to exit, over finished agents
}

// Simulation holds one run: a maze and the agents navigating it.
type Simulation struct {
	RunID      ulid.ULID
	Maze       *maze.Maze
	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent
	Spawner    *agents.Spawner
	Engine     *Engine
	Events     []Event
	Stats      SimStats

	// OnDecision, if set, observes every announced decision (for display).
	OnDecision func(a *agents.Agent, d rules.Decision)
	// OnMove, if set, observes every committed move.
	OnMove func(a *agents.Agent)
}

// NewSimulation creates a run on m. Agent randomness derives from seed
// (0 picks one at random).
func NewSimulation(m *maze.Maze, seed int64, eng *Engine) *Simulation {
	if eng == nil {
		eng = NewEngine()
	}
	s := &Simulation{
		RunID:      ulid.Make(),
		Maze:       m,
		AgentIndex: make(map[agents.AgentID]*agents.Agent),
		Spawner:    agents.NewSpawner(seed),
		Engine:     eng,
	}
	eng.OnPlan = s.plan
	eng.OnCommit = s.commit
	eng.OnCancel = s.cancel
	return s
}

// World is the shared read-only view handed to each decision.
func (s *Simulation) World() agents.World {
	exit, _ := s.Maze.Exit()
	return agents.World{Grid: s.Maze.Grid(), Exit: exit, Agents: s.Agents}
}

// Spawn places a new agent on the entry with a private copy of tiers and
// starts its timer.
func (s *Simulation) Spawn(tiers rules.Tiers, speed float64) (*agents.Agent, error) {
	entry, ok := s.Maze.Entry()
	if !ok || !s.Maze.Ready() {
		return nil, ErrNoEntryExit
	}
	a := s.Spawner.Spawn(agents.SpawnConfig{Start: entry, Tiers: tiers, Speed: speed})
	s.Agents = append(s.Agents, a)
	s.AgentIndex[a.ID] = a
	s.Engine.Add(a.ID, a.Speed)

	s.record(a.ID, EventSpawned, fmt.Sprintf("%s enters at %v", a.Name, entry))
	slog.Info("agent spawned", "agent", a.ID, "name", a.Name, "at", entry, "speed", a.Speed)
	s.updateStats()
	return a, nil
}

// Agent looks up an agent by ID.
func (s *Simulation) Agent(id agents.AgentID) (*agents.Agent, error) {
	a, ok := s.AgentIndex[id]
	if !ok {
		return nil, fmt.Errorf("agent %d: %w", id, ErrUnknownAgent)
	}
	return a, nil
}

// PauseAgent suspends one agent, dropping any move it was thinking about.
func (s *Simulation) PauseAgent(id agents.AgentID) error {
	a, err := s.Agent(id)
	if err != nil {
		return err
	}
	if !a.Live() || a.Paused {
		return nil
	}
	s.Engine.PauseAgent(id)
	a.Paused = true
	s.record(id, EventPaused, a.Name+" pauses")
	slog.Info("agent paused", "agent", id)
	return nil
}

// ResumeAgent restarts a paused agent.
func (s *Simulation) ResumeAgent(id agents.AgentID) error {
	a, err := s.Agent(id)
	if err != nil {
		return err
	}
	if !a.Live() || !a.Paused {
		return nil
	}
	s.Engine.ResumeAgent(id)
	a.Paused = false
	s.record(id, EventResumed, a.Name+" resumes")
	slog.Info("agent resumed", "agent", id)
	return nil
}

// RemoveAgent takes an agent out of the run. It stays in Agents for the
// record but is invisible to the others and never moves again.
func (s *Simulation) RemoveAgent(id agents.AgentID) error {
	a, err := s.Agent(id)
	if err != nil {
		return err
	}
	if a.Removed {
		return nil
	}
	a.Removed = true
	s.Engine.Remove(id)
	a.Discard()
	s.record(id, EventRemoved, a.Name+" leaves the maze")
	slog.Info("agent removed", "agent", id, "steps", a.Steps)
	s.updateStats()
	return nil
}

// Pause freezes every agent.
func (s *Simulation) Pause() { s.Engine.Pause() }

// Resume unfreezes every agent.
func (s *Simulation) Resume() { s.Engine.Resume() }

// Stop ends the run: every timer is cancelled and pending moves dropped.
func (s *Simulation) Stop() { s.Engine.Stop() }

// Clear removes every agent, for when the maze is reset or resized.
func (s *Simulation) Clear() {
	s.Engine.Stop()
	for _, a := range s.Agents {
		if !a.Removed && a.State == agents.Active {
			a.Removed = true
			s.record(a.ID, EventRemoved, a.Name+" leaves the maze")
		}
	}
	s.updateStats()
}

// Done reports whether no agent can move any more.
func (s *Simulation) Done() bool {
	for _, a := range s.Agents {
		if a.Live() {
			return false
		}
	}
	return true
}

// RunSteps advances the scheduler without sleeping until the run is done,
// the clock pauses, or max tasks have executed. It returns the number run.
func (s *Simulation) RunSteps(max int) int {
	n := 0
	for n < max && s.Engine.Step() {
		n++
	}
	return n
}

// Render draws the maze with every live agent on it.
func (s *Simulation) Render() string {
	overlay := make(map[maze.Position]rune)
	for _, a := range s.Agents {
		if a.Live() {
			overlay[a.Position] = a.Label()
		}
	}
	return s.Maze.RenderWithAgents(overlay)
}

func (s *Simulation) plan(id agents.AgentID) (bool, bool) {
	a, ok := s.AgentIndex[id]
	if !ok {
		return false, false
	}
	d, planned := a.Plan(s.World())
	if !planned {
		if a.State == agents.Finished {
			s.finish(a)
		}
		return false, false
	}
	if d.Stuck {
		s.record(id, EventStuck, fmt.Sprintf("%s is stuck at %v", a.Name, a.Position))
		slog.Info("agent stuck", "agent", id, "at", a.Position, "steps", a.Steps)
		s.updateStats()
		return false, false
	}
	if s.OnDecision != nil {
		s.OnDecision(a, d)
	}
	return d.Deliberate(), true
}

func (s *Simulation) commit(id agents.AgentID) bool {
	a, ok := s.AgentIndex[id]
	if !ok {
		return false
	}
	exit, _ := s.Maze.Exit()
	outcome := a.Commit(exit)
	if outcome == agents.OutcomeNone {
		return a.Live()
	}
	s.Stats.Moves++
	slog.Debug("agent moved", "agent", id, "to", a.Position, "thought", a.Thought)
	if s.OnMove != nil {
		s.OnMove(a)
	}
	if outcome == agents.OutcomeFinished {
		s.finish(a)
		return false
	}
	return true
}

func (s *Simulation) cancel(id agents.AgentID) {
	if a, ok := s.AgentIndex[id]; ok {
		a.Discard()
	}
}

func (s *Simulation) finish(a *agents.Agent) {
	s.record(a.ID, EventFinished, fmt.Sprintf("%s escapes in %d steps", a.Name, a.Steps))
	slog.Info("agent finished", "agent", a.ID, "name", a.Name, "steps", a.Steps)
	s.updateStats()
}

func (s *Simulation) record(id agents.AgentID, category, desc string) {
	s.Events = append(s.Events, Event{
		Tick:        s.Engine.Tick,
		At:          s.Engine.Now,
		AgentID:     id,
		Category:    category,
		Description: desc,
	})
	// Trim old events to prevent unbounded growth.
	if len(s.Events) > MaxEvents {
		s.Events = s.Events[len(s.Events)-MaxEvents:]
	}
}

func (s *Simulation) updateStats() {
	st := SimStats{Spawned: len(s.Agents), Moves: s.Stats.Moves}
	totalSteps := 0
	for _, a := range s.Agents {
		switch {
		case a.Removed:
			st.Removed++
		case a.State == agents.Finished:
			st.Finished++
			totalSteps += a.Steps
		case a.State == agents.Stuck:
			st.Stuck++
		default:
			st.Active++
		}
	}
	if st.Finished > 0 {
		st.MeanSteps = float64(totalSteps) / float64(st.Finished)
	}
	s.Stats = st
}
