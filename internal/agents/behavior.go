// Agent behavior: one decision cycle is split into Plan (decide and
// announce the thought) and Commit (carry the move out). The host may
// insert a thinking pause between the two and drop the plan if the agent
// is paused or removed in the meantime.
package agents

import (
	"github.com/talgya/mazerunner/internal/maze"
	"github.com/talgya/mazerunner/internal/rules"
)

// Outcome describes what a commit did to the agent.
type Outcome uint8

const (
	OutcomeNone     Outcome = iota // nothing pending or agent not live
	OutcomeMoved                   // moved one cell
	OutcomeFinished                // moved onto the exit
)

// World is the read-only view an agent needs to decide.
type World struct {
	Grid   *maze.Grid
	Exit   maze.Position
	Agents []*Agent
}

// Others returns the positions of every live agent except self, in input order.
func Others(all []*Agent, self AgentID) []maze.Position {
	var out []maze.Position
	for _, o := range all {
		if o == nil || o.ID == self || !o.Live() {
			continue
		}
		out = append(out, o.Position)
	}
	return out
}

// Context builds the rule-engine view of the world from this agent's seat.
func (a *Agent) Context(w World) *rules.Context {
	return &rules.Context{
		Grid:     w.Grid,
		Position: a.Position,
		Exit:     w.Exit,
		LastDir:  a.LastDir,
		HasLast:  a.HasLast,
		Visits:   a.Visits,
		Others:   Others(w.Agents, a.ID),
	}
}

// Plan runs one decision and stores it as pending. An agent with no legal
// move becomes Stuck. Plan on an agent that is not live, or that already
// has a pending decision, returns false and changes nothing.
func (a *Agent) Plan(w World) (rules.Decision, bool) {
	if !a.Live() || a.Pending != nil {
		return rules.Decision{}, false
	}
	if a.Position == w.Exit {
		a.State = Finished
		return rules.Decision{}, false
	}

	d := rules.Decide(a.Context(w), a.Tiers, a.rng)
	if d.Stuck {
		a.State = Stuck
		a.Thought = ""
		return d, true
	}
	a.Thought = d.Annotation()
	a.Pending = &d
	return d, true
}

// Commit carries out the pending decision.
func (a *Agent) Commit(exit maze.Position) Outcome {
	if a.Pending == nil || !a.Live() {
		a.Pending = nil
		return OutcomeNone
	}
	mv := a.Pending.Move
	a.Pending = nil

	a.Position = mv.To
	a.LastDir = mv.Direction
	a.HasLast = true
	a.Visits[mv.To]++
	a.Steps++

	if mv.To == exit {
		a.State = Finished
		return OutcomeFinished
	}
	return OutcomeMoved
}

// Discard drops a pending decision without moving.
func (a *Agent) Discard() {
	a.Pending = nil
}

// Walk runs plan and commit back to back until the agent stops or maxSteps
// moves have been made. It returns the decisions taken, in order.
func (a *Agent) Walk(w World, maxSteps int) []rules.Decision {
	var out []rules.Decision
	for i := 0; i < maxSteps; i++ {
		d, ok := a.Plan(w)
		if !ok || d.Stuck {
			break
		}
		out = append(out, d)
		if a.Commit(w.Exit) == OutcomeFinished {
			break
		}
	}
	return out
}
