// Package agents provides the maze runners: their state, spawning, and the
// two-phase plan/commit step that feeds each one through the rule engine.
package agents

import (
	"fmt"

	"github.com/talgya/mazerunner/internal/entropy"
	"github.com/talgya/mazerunner/internal/maze"
	"github.com/talgya/mazerunner/internal/rules"
)

// AgentID is a unique identifier for an agent within a simulation.
type AgentID uint64

// State is an agent's lifecycle state.
type State uint8

const (
	Active   State = iota // still navigating
	Finished              // reached the exit
	Stuck                 // no legal move remained
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Finished:
		return "finished"
	case Stuck:
		return "stuck"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Terminal reports whether the state ends the agent's run.
func (s State) Terminal() bool {
	return s == Finished || s == Stuck
}

// Agent is one navigator in the maze.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`

	// Location
	Position maze.Position  `json:"position"`
	Start    maze.Position  `json:"start"`
	LastDir  maze.Direction `json:"last_dir"`
	HasLast  bool           `json:"has_last"`

	// Personality: a private copy, never shared with another agent.
	Tiers rules.Tiers `json:"tiers"`
	// Speed scales this agent's tick rate; 1.0 is the base interval.
	Speed float64 `json:"speed"`

	// Bookkeeping
	Visits  map[maze.Position]int `json:"-"`
	Steps   int                   `json:"steps"`
	Thought string                `json:"thought,omitempty"` // annotation of the latest decision
	State   State                 `json:"state"`
	Paused  bool                  `json:"paused"`
	Removed bool                  `json:"removed"`

	// Pending holds a decision announced but not yet carried out.
	Pending *rules.Decision `json:"-"`

	rng entropy.Source
}

// Live reports whether the agent still takes part in the run. Only live
// agents are seen by the Social block.
func (a *Agent) Live() bool {
	return a.State == Active && !a.Removed
}

// VisitCount returns how many times the agent has arrived at p.
func (a *Agent) VisitCount(p maze.Position) int {
	return a.Visits[p]
}

// Distinct returns the number of different cells the agent has stood on.
func (a *Agent) Distinct() int {
	return len(a.Visits)
}

// Label is the display rune for the agent: the first letter of its name.
func (a *Agent) Label() rune {
	for _, r := range a.Name {
		return r
	}
	return 'A'
}
