package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mazerunner/internal/agents"
	"github.com/talgya/mazerunner/internal/maze"
	"github.com/talgya/mazerunner/internal/rules"
)

const corridorLayout = `
#####
#####
E...X
#####
#####
`

// The only real choice is at (2,2).
const junctionLayout = `
#####
##.##
E...X
##.##
#####
`

func newSim(t *testing.T, layout string) *Simulation {
	t.Helper()
	m, err := maze.Parse(layout)
	require.NoError(t, err)
	return NewSimulation(m, 1, nil)
}

func spawn(t *testing.T, s *Simulation, speed float64) *agents.Agent {
	t.Helper()
	a, err := s.Spawn(rules.DefaultTiers(), speed)
	require.NoError(t, err)
	return a
}

func categories(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Category
	}
	return out
}

func TestCorridorRun(t *testing.T) {
	s := newSim(t, corridorLayout)
	a := spawn(t, s, 1)

	var moves int
	s.OnMove = func(*agents.Agent) { moves++ }

	assert.Equal(t, 4, s.RunSteps(100))
	assert.Equal(t, agents.Finished, a.State)
	assert.Equal(t, 4, a.Steps)
	assert.Equal(t, 4, moves)
	assert.Equal(t, 4*s.Engine.Interval, s.Engine.Now, "no think pauses in a corridor")
	assert.True(t, s.Done())

	assert.Equal(t, []string{EventSpawned, EventFinished}, categories(s.Events))
	assert.Equal(t, 1, s.Stats.Finished)
	assert.Equal(t, 0, s.Stats.Active)
	assert.Equal(t, 4.0, s.Stats.MeanSteps)
	assert.Equal(t, 4, s.Stats.Moves)
}

func TestThinkPauseThenCommit(t *testing.T) {
	s := newSim(t, junctionLayout)
	a := spawn(t, s, 1)

	var announced []string
	s.OnDecision = func(_ *agents.Agent, d rules.Decision) { announced = append(announced, d.Annotation()) }

	require.Equal(t, 2, s.RunSteps(2))
	require.Equal(t, maze.Pos(2, 2), a.Position)

	// Plan at the junction: announced but not yet carried out.
	require.True(t, s.Engine.Step())
	assert.Equal(t, 3*s.Engine.Interval, s.Engine.Now)
	assert.Equal(t, maze.Pos(2, 2), a.Position)
	require.NotNil(t, a.Pending)
	assert.NotEmpty(t, a.Thought)

	// Commit lands one think pause later.
	require.True(t, s.Engine.Step())
	assert.Equal(t, 3*s.Engine.Interval+s.Engine.ThinkPause, s.Engine.Now)
	assert.Equal(t, maze.Pos(3, 2), a.Position)
	assert.Nil(t, a.Pending)

	s.RunSteps(10)
	assert.Equal(t, agents.Finished, a.State)
	require.Len(t, announced, 4)
	assert.Empty(t, announced[0])
	assert.Empty(t, announced[1])
	assert.NotEmpty(t, announced[2])
	assert.Empty(t, announced[3])
}

func TestPauseDuringThinkDropsMove(t *testing.T) {
	s := newSim(t, junctionLayout)
	a := spawn(t, s, 1)
	require.Equal(t, 3, s.RunSteps(3))
	require.NotNil(t, a.Pending)

	require.NoError(t, s.PauseAgent(a.ID))
	assert.Nil(t, a.Pending)
	assert.True(t, a.Paused)
	assert.False(t, s.Engine.Step(), "the queued commit is stale")
	assert.Equal(t, maze.Pos(2, 2), a.Position)

	pausedAt := s.Engine.Now
	require.NoError(t, s.ResumeAgent(a.ID))
	assert.False(t, a.Paused)

	require.True(t, s.Engine.Step())
	assert.Equal(t, pausedAt+s.Engine.Interval, s.Engine.Now, "fresh plan one interval after resume")
	require.NotNil(t, a.Pending)

	s.RunSteps(10)
	assert.Equal(t, agents.Finished, a.State)
	assert.Equal(t, 4, a.Steps)
	assert.Equal(t, []string{EventSpawned, EventPaused, EventResumed, EventFinished}, categories(s.Events))
}

func TestRemoveDuringThink(t *testing.T) {
	s := newSim(t, junctionLayout)
	a := spawn(t, s, 1)
	require.Equal(t, 3, s.RunSteps(3))

	require.NoError(t, s.RemoveAgent(a.ID))
	assert.Nil(t, a.Pending)
	assert.False(t, s.Engine.Step())
	assert.Equal(t, maze.Pos(2, 2), a.Position)
	assert.True(t, s.Done())
	assert.Equal(t, 1, s.Stats.Removed)
	assert.False(t, s.Engine.Has(a.ID))

	require.NoError(t, s.RemoveAgent(a.ID), "removing twice is harmless")
}

func TestGlobalPause(t *testing.T) {
	s := newSim(t, corridorLayout)
	a := spawn(t, s, 1)

	s.Pause()
	assert.False(t, s.Engine.Step())
	assert.Equal(t, time.Duration(0), s.Engine.Now)

	s.Resume()
	assert.True(t, s.Engine.Step())
	assert.Equal(t, maze.Pos(1, 2), a.Position)

	s.Engine.Speed = 0
	assert.False(t, s.Engine.Step(), "zero speed is paused")
}

func TestIntervalScalesWithSpeeds(t *testing.T) {
	s := newSim(t, corridorLayout)
	s.Engine.Speed = 2
	spawn(t, s, 2)

	require.True(t, s.Engine.Step())
	assert.Equal(t, s.Engine.Interval/4, s.Engine.Now)
}

func TestSameInstantRunsInSpawnOrder(t *testing.T) {
	s := newSim(t, corridorLayout)
	first := spawn(t, s, 1)
	second := spawn(t, s, 1)

	require.True(t, s.Engine.Step())
	assert.Equal(t, 1, first.Steps)
	assert.Equal(t, 0, second.Steps)
	require.True(t, s.Engine.Step())
	assert.Equal(t, 1, second.Steps)
}

func TestSpawnNeedsEntryAndExit(t *testing.T) {
	m, err := maze.NewCentered(5, 5)
	require.NoError(t, err)
	s := NewSimulation(m, 1, nil)
	_, err = s.Spawn(rules.DefaultTiers(), 1)
	assert.ErrorIs(t, err, ErrNoEntryExit)
}

func TestUnknownAgent(t *testing.T) {
	s := newSim(t, corridorLayout)
	assert.ErrorIs(t, s.PauseAgent(42), ErrUnknownAgent)
	assert.ErrorIs(t, s.ResumeAgent(42), ErrUnknownAgent)
	assert.ErrorIs(t, s.RemoveAgent(42), ErrUnknownAgent)
	_, err := s.Agent(42)
	assert.ErrorIs(t, err, ErrUnknownAgent)
}

func TestStopDropsEverything(t *testing.T) {
	s := newSim(t, junctionLayout)
	a := spawn(t, s, 1)
	b := spawn(t, s, 1)
	s.RunSteps(6)

	s.Stop()
	assert.False(t, s.Engine.Step())
	assert.Nil(t, a.Pending)
	assert.Nil(t, b.Pending)
	assert.Zero(t, s.Engine.Active())
}

func TestClearRemovesLiveAgents(t *testing.T) {
	s := newSim(t, corridorLayout)
	a := spawn(t, s, 1)
	s.Clear()
	assert.True(t, a.Removed)
	assert.True(t, s.Done())
	assert.Equal(t, 1, s.Stats.Removed)
}

func TestRunUntilDone(t *testing.T) {
	s := newSim(t, junctionLayout)
	s.Engine.Interval = time.Millisecond
	s.Engine.ThinkPause = time.Millisecond
	a := spawn(t, s, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Engine.Run(ctx)

	assert.Equal(t, agents.Finished, a.State)
	assert.False(t, s.Engine.Running)
}

func TestRunHonoursCancelledContext(t *testing.T) {
	s := newSim(t, corridorLayout)
	s.Engine.Interval = time.Hour
	spawn(t, s, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Engine.Run(ctx)
	assert.Zero(t, s.Engine.Tick)
}

func TestRenderShowsLiveAgents(t *testing.T) {
	s := newSim(t, corridorLayout)
	a := spawn(t, s, 1)
	a.Name = "Quinn"
	s.RunSteps(1)
	assert.Contains(t, s.Render(), "EQ..X")
}

func TestEventsAreBounded(t *testing.T) {
	s := newSim(t, corridorLayout)
	for i := 0; i < MaxEvents+10; i++ {
		s.record(1, EventPaused, "x")
	}
	assert.Len(t, s.Events, MaxEvents)
}
