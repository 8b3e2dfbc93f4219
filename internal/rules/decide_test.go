package rules

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mazerunner/internal/maze"
)

// A plus-shaped junction at (2,2) with the exit straight ahead to the east.
const junctionLayout = `
#####
##.##
E...X
##.##
#####
`

const corridorLayout = `
#####
#####
E...X
#####
#####
`

// scripted replays fixed draws and counts how many were consumed.
type scripted struct {
	floats []float64
	ints   []int
	fCalls int
	iCalls int
}

func (s *scripted) Float64() float64 {
	s.fCalls++
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scripted) Intn(n int) int {
	s.iCalls++
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func parse(t *testing.T, layout string) *maze.Maze {
	t.Helper()
	m, err := maze.Parse(layout)
	require.NoError(t, err)
	return m
}

func junctionContext(t *testing.T) *Context {
	t.Helper()
	m := parse(t, junctionLayout)
	exit, ok := m.Exit()
	require.True(t, ok)
	return &Context{
		Grid:     m.Grid(),
		Position: maze.Pos(2, 2),
		Exit:     exit,
		LastDir:  maze.Right,
		HasLast:  true,
		Visits:   map[maze.Position]int{},
	}
}

func TestExcludeReversal(t *testing.T) {
	up := maze.Move{To: maze.Pos(1, 0), Direction: maze.Up}
	left := maze.Move{To: maze.Pos(0, 1), Direction: maze.Left}

	assert.Equal(t, []maze.Move{up}, ExcludeReversal([]maze.Move{up, left}, maze.Right, true))
	assert.Equal(t, []maze.Move{left}, ExcludeReversal([]maze.Move{left}, maze.Right, true), "dead end may turn back")
	assert.Equal(t, []maze.Move{up, left}, ExcludeReversal([]maze.Move{up, left}, maze.Right, false))
}

func TestDecideCorridorHasNoThought(t *testing.T) {
	m := parse(t, corridorLayout)
	ctx := &Context{
		Grid:     m.Grid(),
		Position: maze.Pos(2, 2),
		Exit:     maze.Pos(4, 2),
		LastDir:  maze.Right,
		HasLast:  true,
	}
	src := &scripted{}
	d := Decide(ctx, DefaultTiers(), src)
	assert.False(t, d.Stuck)
	assert.Equal(t, maze.Right, d.Move.Direction)
	assert.Empty(t, d.Thoughts)
	assert.False(t, d.Deliberate())
	assert.Zero(t, src.fCalls+src.iCalls, "no randomness for a forced move")
}

func TestDecideStuck(t *testing.T) {
	m := parse(t, "###\n#.#\n###\n")
	ctx := &Context{Grid: m.Grid(), Position: maze.Pos(1, 1), Exit: maze.Pos(1, 0)}
	d := Decide(ctx, DefaultTiers(), &scripted{})
	assert.True(t, d.Stuck)
	assert.False(t, d.Deliberate())
}

func TestDecideWallFollowingAtJunction(t *testing.T) {
	cases := []struct {
		hand    Hand
		want    maze.Direction
		thought string
	}{
		{RightHand, maze.Down, ThoughtWallRight},
		{LeftHand, maze.Up, ThoughtWallLeft},
	}
	for _, tc := range cases {
		t.Run(tc.hand.String(), func(t *testing.T) {
			ctx := junctionContext(t)
			tiers := Tiers{High: {WallFollowing{Weight: 1, Hand: tc.hand}}}
			d := Decide(ctx, tiers, &scripted{floats: []float64{0.5}})
			assert.Equal(t, tc.want, d.Move.Direction)
			assert.Equal(t, []string{tc.thought}, d.Thoughts)
		})
	}
}

func TestDecideBacktrackingAvoid(t *testing.T) {
	ctx := junctionContext(t)
	ctx.Visits = map[maze.Position]int{
		maze.Pos(2, 1): 0,
		maze.Pos(3, 2): 2,
		maze.Pos(2, 3): 2,
	}
	tiers := Tiers{High: {Backtracking{Weight: 1, Mode: AvoidVisited}}}
	d := Decide(ctx, tiers, &scripted{floats: []float64{0.1}})
	assert.Equal(t, maze.Pos(2, 1), d.Move.To)
	assert.Equal(t, []string{ThoughtFresh}, d.Thoughts)
}

func TestDecideStopsAtFirstDecisiveTier(t *testing.T) {
	ctx := junctionContext(t)
	tiers := Tiers{
		High:   {WallFollowing{Weight: 1, Hand: RightHand}},
		Medium: {TowardExit{Weight: 1}},
		Low:    {RandomGuesser{Weight: 1}},
	}
	src := &scripted{floats: []float64{0.3, 0.3, 0.3}}
	d := Decide(ctx, tiers, src)
	assert.Equal(t, maze.Down, d.Move.Direction)
	require.Len(t, d.Fired, 1)
	assert.Equal(t, KindWallFollowing, d.Fired[0].Kind())
	assert.Equal(t, 1, src.fCalls, "lower tiers never drew")
	assert.Zero(t, src.iCalls)
}

func TestDecideNarrowsAcrossTiers(t *testing.T) {
	ctx := junctionContext(t)
	// Up and Down are equally fresh; Right has been walked.
	ctx.Visits = map[maze.Position]int{maze.Pos(3, 2): 1}
	tiers := Tiers{
		High:   {Backtracking{Weight: 1, Mode: AvoidVisited}},
		Medium: {WallFollowing{Weight: 1, Hand: LeftHand}},
	}
	d := Decide(ctx, tiers, &scripted{floats: []float64{0.2, 0.2}})
	assert.Equal(t, maze.Up, d.Move.Direction)
	assert.Equal(t, []string{ThoughtFresh, ThoughtWallLeft}, d.Thoughts)
	assert.Len(t, d.Fired, 2)
}

func TestDecideDiceOnlyWithoutReasoning(t *testing.T) {
	t.Run("no block fired", func(t *testing.T) {
		ctx := junctionContext(t)
		tiers := Tiers{High: {WallFollowing{Weight: 0}}, Low: {Unknown{Name: "telepathy", Weight: 5}}}
		src := &scripted{ints: []int{2}}
		d := Decide(ctx, tiers, src)
		assert.Equal(t, []string{ThoughtDice}, d.Thoughts)
		assert.Empty(t, d.Fired)
		assert.Equal(t, maze.Down, d.Move.Direction, "third surviving candidate")
		assert.Zero(t, src.fCalls, "empty tiers make no weighted draw")
	})

	t.Run("dice hidden by a real rule", func(t *testing.T) {
		ctx := junctionContext(t)
		tiers := Tiers{
			High:   {RandomGuesser{Weight: 1}},
			Medium: {TowardExit{Weight: 1}},
		}
		d := Decide(ctx, tiers, &scripted{floats: []float64{0.5, 0.5}})
		assert.Equal(t, maze.Right, d.Move.Direction)
		assert.Equal(t, []string{ThoughtCompass}, d.Thoughts)
	})

	t.Run("random guesser alone", func(t *testing.T) {
		ctx := junctionContext(t)
		tiers := Tiers{Low: {RandomGuesser{Weight: 1}}}
		d := Decide(ctx, tiers, &scripted{floats: []float64{0.9}, ints: []int{0}})
		assert.Equal(t, []string{ThoughtDice}, d.Thoughts)
		assert.Equal(t, maze.Up, d.Move.Direction)
	})
}

func TestDrawWeightedDistribution(t *testing.T) {
	const trials = 100000
	rng := rand.New(rand.NewSource(7))
	first := 0
	for i := 0; i < trials; i++ {
		if DrawWeighted([]float64{3, 1}, rng) == 0 {
			first++
		}
	}
	p := 0.75
	stderr := math.Sqrt(p * (1 - p) / trials)
	assert.InDelta(t, p, float64(first)/trials, 3*stderr)
}

func TestDrawWeightedEdges(t *testing.T) {
	assert.Equal(t, -1, DrawWeighted(nil, &scripted{}))
	assert.Equal(t, -1, DrawWeighted([]float64{0, -2}, &scripted{}))
	assert.Equal(t, 1, DrawWeighted([]float64{0, 4}, &scripted{floats: []float64{0}}))
	assert.Equal(t, 0, DrawWeighted([]float64{3, 1}, &scripted{floats: []float64{0.75}}), "remainder of exactly zero selects")
	assert.Equal(t, 1, DrawWeighted([]float64{3, 1}, &scripted{floats: []float64{0.76}}))
	assert.Equal(t, 2, DrawWeighted([]float64{1, 0, 1}, &scripted{floats: []float64{0.99}}))
}

func TestDecideIsReproducibleWithSeed(t *testing.T) {
	run := func() []maze.Direction {
		ctx := junctionContext(t)
		ctx.HasLast = false
		rng := rand.New(rand.NewSource(99))
		var out []maze.Direction
		for i := 0; i < 50; i++ {
			out = append(out, Decide(ctx, DefaultTiers(), rng).Move.Direction)
		}
		return out
	}
	assert.Equal(t, run(), run())
}
