// Package engine provides the agent scheduler and the simulation session
// that ties the maze, the agents and the rule engine together.
package engine

import (
	"container/heap"
	"context"
	"log/slog"
	"time"

	"github.com/talgya/mazerunner/internal/agents"
)

// Phase is the half of a decision cycle a task runs.
type Phase uint8

const (
	PhasePlan   Phase = iota // decide and announce the thought
	PhaseCommit              // carry out the announced move
)

func (p Phase) String() string {
	if p == PhaseCommit {
		return "commit"
	}
	return "plan"
}

// Engine drives agents on a virtual clock. Each agent owns one timer; a
// timer is a task in a queue ordered by due time. Pausing, resuming or
// removing an agent bumps its generation so tasks already queued for it
// are dropped when they come due.
//
// Engine is not safe for concurrent use: Run, Step and the control methods
// belong to one goroutine. Cancel Run through its context.
type Engine struct {
	Tick       uint64        // tasks executed so far
	Now        time.Duration // virtual clock
	Speed      float64       // playback multiplier: 1.0 = real-time, 0 = paused
	Interval   time.Duration // base time between an agent's moves
	ThinkPause time.Duration // delay between announcing and committing a deliberate move
	Running    bool

	// Handlers, populated during setup.
	// OnPlan runs the decision half of a cycle. It reports whether the
	// decision was deliberate (earning a think pause) and whether the agent
	// is still running.
	OnPlan func(id agents.AgentID) (deliberate, alive bool)
	// OnCommit applies the planned move and reports whether the agent is
	// still running.
	OnCommit func(id agents.AgentID) (alive bool)
	// OnCancel runs when an agent's pending work is dropped.
	OnCancel func(id agents.AgentID)
	// OnTick runs after every executed task.
	OnTick func(tick uint64)

	paused bool
	seq    uint64
	queue  taskQueue
	timers map[agents.AgentID]*timer
}

type timer struct {
	gen    uint64
	speed  float64
	paused bool
}

type task struct {
	at    time.Duration
	seq   uint64 // FIFO among tasks due at the same instant
	agent agents.AgentID
	phase Phase
	gen   uint64
}

// NewEngine creates a scheduler with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:      1.0,
		Interval:   250 * time.Millisecond,
		ThinkPause: 400 * time.Millisecond,
		timers:     make(map[agents.AgentID]*timer),
	}
}

// Add starts a timer for an agent. Its first plan is due one interval
// from now. Adding an agent that already has a timer restarts it.
func (e *Engine) Add(id agents.AgentID, speed float64) {
	if !(speed > 0) {
		speed = 1.0
	}
	t, ok := e.timers[id]
	if !ok {
		t = &timer{}
		e.timers[id] = t
	}
	t.gen++
	t.speed = speed
	t.paused = false
	e.push(id, PhasePlan, e.Now+e.interval(speed), t.gen)
}

// Has reports whether the agent has a timer.
func (e *Engine) Has(id agents.AgentID) bool {
	_, ok := e.timers[id]
	return ok
}

// PauseAgent suspends one agent. Any pending commit is cancelled.
func (e *Engine) PauseAgent(id agents.AgentID) bool {
	t, ok := e.timers[id]
	if !ok {
		return false
	}
	if t.paused {
		return true
	}
	t.paused = true
	t.gen++
	e.cancel(id)
	return true
}

// ResumeAgent restarts a paused agent with a fresh plan one interval away.
func (e *Engine) ResumeAgent(id agents.AgentID) bool {
	t, ok := e.timers[id]
	if !ok {
		return false
	}
	if !t.paused {
		return true
	}
	t.paused = false
	t.gen++
	e.push(id, PhasePlan, e.Now+e.interval(t.speed), t.gen)
	return true
}

// Remove stops an agent's timer for good.
func (e *Engine) Remove(id agents.AgentID) bool {
	if _, ok := e.timers[id]; !ok {
		return false
	}
	delete(e.timers, id)
	e.cancel(id)
	return true
}

// Pause freezes the whole clock. Queued tasks keep their due times.
func (e *Engine) Pause() { e.paused = true }

// Resume unfreezes the clock.
func (e *Engine) Resume() { e.paused = false }

// Paused reports whether the whole clock is frozen.
func (e *Engine) Paused() bool { return e.paused || e.Speed <= 0 }

// Stop cancels every timer and halts Run.
func (e *Engine) Stop() {
	e.Running = false
	for id := range e.timers {
		delete(e.timers, id)
		e.cancel(id)
	}
	e.queue = nil
}

// Pending returns the number of queued tasks, stale ones included.
func (e *Engine) Pending() int { return len(e.queue) }

// Active returns the number of agents with a running timer.
func (e *Engine) Active() int {
	n := 0
	for _, t := range e.timers {
		if !t.paused {
			n++
		}
	}
	return n
}

// Step executes the next live task without waiting for its due time. It
// returns false when the clock is paused or nothing is left to run.
func (e *Engine) Step() bool {
	if e.Paused() {
		return false
	}
	tk, ok := e.next()
	if !ok {
		return false
	}
	if tk.at > e.Now {
		e.Now = tk.at
	}
	e.Tick++
	e.run(tk)
	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	return true
}

// Run executes tasks in real time, scaled by Speed. It blocks until the
// context is cancelled, Stop is called, or no timers remain.
func (e *Engine) Run(ctx context.Context) {
	e.Running = true
	slog.Info("scheduler started", "tick", e.Tick, "speed", e.Speed, "agents", len(e.timers))

	for e.Running {
		if e.Paused() {
			// Paused: sleep briefly and check again.
			if !sleep(ctx, 100*time.Millisecond) {
				break
			}
			continue
		}
		tk, ok := e.peek()
		if !ok {
			break
		}
		if wait := tk.at - e.Now; wait > 0 {
			if !sleep(ctx, wait) {
				break
			}
		}
		e.Step()
	}

	e.Running = false
	slog.Info("scheduler stopped", "tick", e.Tick, "clock", e.Now)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (e *Engine) run(tk *task) {
	t := e.timers[tk.agent]
	switch tk.phase {
	case PhasePlan:
		deliberate, alive := e.OnPlan(tk.agent)
		if !alive {
			delete(e.timers, tk.agent)
			return
		}
		if deliberate && e.ThinkPause > 0 {
			e.push(tk.agent, PhaseCommit, e.Now+e.scaled(e.ThinkPause), t.gen)
			return
		}
		e.commit(tk.agent, t)
	case PhaseCommit:
		e.commit(tk.agent, t)
	}
}

func (e *Engine) commit(id agents.AgentID, t *timer) {
	if !e.OnCommit(id) {
		delete(e.timers, id)
		return
	}
	e.push(id, PhasePlan, e.Now+e.interval(t.speed), t.gen)
}

func (e *Engine) cancel(id agents.AgentID) {
	if e.OnCancel != nil {
		e.OnCancel(id)
	}
}

// interval is the time between an agent's plans: Interval / (Speed * agentSpeed).
func (e *Engine) interval(agentSpeed float64) time.Duration {
	return e.scaled(time.Duration(float64(e.Interval) / agentSpeed))
}

func (e *Engine) scaled(d time.Duration) time.Duration {
	if e.Speed <= 0 {
		return d
	}
	return time.Duration(float64(d) / e.Speed)
}

func (e *Engine) push(id agents.AgentID, phase Phase, at time.Duration, gen uint64) {
	e.seq++
	heap.Push(&e.queue, &task{at: at, seq: e.seq, agent: id, phase: phase, gen: gen})
}

// live reports whether a queued task still belongs to a running timer.
func (e *Engine) live(tk *task) bool {
	t, ok := e.timers[tk.agent]
	return ok && !t.paused && t.gen == tk.gen
}

// peek discards stale tasks and returns the earliest live one.
func (e *Engine) peek() (*task, bool) {
	for len(e.queue) > 0 {
		tk := e.queue[0]
		if e.live(tk) {
			return tk, true
		}
		heap.Pop(&e.queue)
	}
	return nil, false
}

func (e *Engine) next() (*task, bool) {
	if _, ok := e.peek(); !ok {
		return nil, false
	}
	return heap.Pop(&e.queue).(*task), true
}

// taskQueue is a min-heap on (at, seq).
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) { *q = append(*q, x.(*task)) }

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	tk := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return tk
}
