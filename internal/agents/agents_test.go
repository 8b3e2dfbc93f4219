package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func world(t *testing.T, layout string) (*maze.Maze, World) {
	t.Helper()
	m, err := maze.Parse(layout)
	require.NoError(t, err)
	exit, _ := m.Exit()
	return m, World{Grid: m.Grid(), Exit: exit}
}

func TestCorridorRunFinishesInFourSilentSteps(t *testing.T) {
	m, w := world(t, corridorLayout)
	entry, ok := m.Entry()
	require.True(t, ok)

	a := NewSpawner(1).Spawn(SpawnConfig{Start: entry, Tiers: rules.DefaultTiers()})
	w.Agents = []*Agent{a}

	decisions := a.Walk(w, 100)
	require.Len(t, decisions, 4)
	for i, d := range decisions {
		assert.Empty(t, d.Thoughts, "step %d", i)
		assert.Equal(t, maze.Right, d.Move.Direction)
	}
	assert.Equal(t, Finished, a.State)
	assert.Equal(t, maze.Pos(4, 2), a.Position)
	assert.Equal(t, 4, a.Steps)
	for x := 0; x < 5; x++ {
		assert.Equal(t, 1, a.VisitCount(maze.Pos(x, 2)))
	}
}

func TestDeadEndTurnsBack(t *testing.T) {
	_, w := world(t, "#####\n#####\nE..##\n#####\n#####\n")
	w.Exit = maze.Pos(0, 2)

	a := NewSpawner(1).Spawn(SpawnConfig{Start: maze.Pos(2, 2), Tiers: rules.DefaultTiers()})
	a.LastDir, a.HasLast = maze.Right, true

	d, ok := a.Plan(w)
	require.True(t, ok)
	assert.Equal(t, maze.Left, d.Move.Direction)
	assert.Equal(t, OutcomeMoved, a.Commit(w.Exit))

	d, ok = a.Plan(w)
	require.True(t, ok)
	assert.Equal(t, maze.Pos(0, 2), d.Move.To, "no turning back into the dead end")
	assert.Equal(t, OutcomeFinished, a.Commit(w.Exit))
	assert.True(t, a.State.Terminal())
}

func TestEnclosedAgentIsStuck(t *testing.T) {
	_, w := world(t, "###\n#.#\n###\n")
	w.Exit = maze.Pos(1, 0)
	a := NewSpawner(1).Spawn(SpawnConfig{Start: maze.Pos(1, 1), Tiers: rules.DefaultTiers()})

	d, ok := a.Plan(w)
	require.True(t, ok)
	assert.True(t, d.Stuck)
	assert.Equal(t, Stuck, a.State)
	assert.Nil(t, a.Pending)

	_, ok = a.Plan(w)
	assert.False(t, ok, "stuck agents do not plan")
}

func TestPlanCommitLifecycle(t *testing.T) {
	_, w := world(t, corridorLayout)
	a := NewSpawner(1).Spawn(SpawnConfig{Start: maze.Pos(1, 2), Tiers: rules.DefaultTiers()})

	_, ok := a.Plan(w)
	require.True(t, ok)
	require.NotNil(t, a.Pending)

	_, ok = a.Plan(w)
	assert.False(t, ok, "one pending decision at a time")

	a.Discard()
	assert.Nil(t, a.Pending)
	assert.Equal(t, OutcomeNone, a.Commit(w.Exit))
	assert.Equal(t, maze.Pos(1, 2), a.Position)

	_, ok = a.Plan(w)
	require.True(t, ok)
	a.Removed = true
	assert.Equal(t, OutcomeNone, a.Commit(w.Exit), "removed agents never move")
	assert.Nil(t, a.Pending)
}

func TestOthersSkipsSelfAndDeparted(t *testing.T) {
	sp := NewSpawner(3)
	cfg := SpawnConfig{Start: maze.Pos(0, 2), Tiers: rules.DefaultTiers()}
	all := sp.SpawnMany(4, cfg)
	all[1].Position = maze.Pos(1, 2)
	all[2].State = Finished
	all[3].Removed = true

	assert.Equal(t, []maze.Position{maze.Pos(1, 2)}, Others(all, all[0].ID))
	assert.Equal(t, []maze.Position{maze.Pos(0, 2)}, Others(all, all[1].ID))
	assert.Empty(t, Others(nil, 1))
}

func TestSpawnerCopiesTiersAndNumbers(t *testing.T) {
	tiers := rules.DefaultTiers()
	sp := NewSpawner(9)
	a := sp.Spawn(SpawnConfig{Start: maze.Pos(0, 0), Tiers: tiers, Speed: 2})
	b := sp.Spawn(SpawnConfig{Start: maze.Pos(0, 0), Tiers: tiers, Name: "Zed"})

	a.Tiers[rules.High][0] = rules.RandomGuesser{Weight: 1}
	assert.Equal(t, rules.DefaultTiers(), tiers)
	assert.Equal(t, rules.DefaultTiers(), b.Tiers)

	assert.Equal(t, AgentID(1), a.ID)
	assert.Equal(t, AgentID(2), b.ID)
	assert.Equal(t, 2.0, a.Speed)
	assert.Equal(t, 1.0, b.Speed)
	assert.Equal(t, "Zed", b.Name)
	assert.Equal(t, 'Z', b.Label())
	assert.NotEmpty(t, a.Name)
	assert.Equal(t, 1, a.VisitCount(maze.Pos(0, 0)))
}

func TestSameSeedSameWalk(t *testing.T) {
	m, err := maze.Generate(maze.SmallTestConfig())
	require.NoError(t, err)
	entry, _ := m.Entry()
	exit, _ := m.Exit()

	walk := func() []maze.Position {
		sp := NewSpawner(77)
		a := sp.Spawn(SpawnConfig{Start: entry, Tiers: rules.Tiers{rules.Low: {rules.RandomGuesser{Weight: 1}}}})
		w := World{Grid: m.Grid(), Exit: exit, Agents: []*Agent{a}}
		var trail []maze.Position
		for _, d := range a.Walk(w, 300) {
			trail = append(trail, d.Move.To)
		}
		return trail
	}
	first := walk()
	require.NotEmpty(t, first)
	assert.Equal(t, first, walk())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "finished", Finished.String())
	assert.Equal(t, "stuck", Stuck.String())
	assert.False(t, Active.Terminal())
}
