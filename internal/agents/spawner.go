package agents

import (
	"math/rand"

	"github.com/talgya/mazerunner/internal/entropy"
	"github.com/talgya/mazerunner/internal/maze"
	"github.com/talgya/mazerunner/internal/rules"
)

// SpawnConfig describes one agent to create.
type SpawnConfig struct {
	Start maze.Position
	Tiers rules.Tiers
	Speed float64 // <= 0 means 1.0
	Name  string  // empty picks one from the name pool
}

// Spawner creates agents. Every agent gets its own random stream derived
// from the spawner seed and its ID, so a run replays exactly from one seed.
type Spawner struct {
	seed   int64
	rng    *rand.Rand
	nextID AgentID
}

// NewSpawner creates an agent spawner with the given seed. Seed 0 picks a
// random one.
func NewSpawner(seed int64) *Spawner {
	if seed == 0 {
		seed = entropy.CryptoSeed()
	}
	return &Spawner{
		seed:   seed,
		rng:    entropy.New(entropy.Derive(seed, 300)),
		nextID: 1,
	}
}

// Seed returns the seed the spawner derives agent streams from.
func (s *Spawner) Seed() int64 { return s.seed }

// Spawn creates an active agent at cfg.Start with a deep copy of cfg.Tiers.
// The start cell counts as the first visit.
func (s *Spawner) Spawn(cfg SpawnConfig) *Agent {
	id := s.nextID
	s.nextID++

	speed := cfg.Speed
	if !(speed > 0) {
		speed = 1.0
	}
	name := cfg.Name
	if name == "" {
		name = s.generateName()
	}

	return &Agent{
		ID:       id,
		Name:     name,
		Position: cfg.Start,
		Start:    cfg.Start,
		Tiers:    cfg.Tiers.Clone(),
		Speed:    speed,
		Visits:   map[maze.Position]int{cfg.Start: 1},
		State:    Active,
		rng:      entropy.New(entropy.Derive(s.seed, int64(id))),
	}
}

// SpawnMany creates count agents sharing one start and personality.
func (s *Spawner) SpawnMany(count int, cfg SpawnConfig) []*Agent {
	out := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.Spawn(cfg))
	}
	return out
}

func (s *Spawner) generateName() string {
	first := firstNames[s.rng.Intn(len(firstNames))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return first + " " + last
}

// Name pools for procedural generation.
var firstNames = []string{
	"Aldric", "Astrid", "Bram", "Brenna", "Cedric", "Calla", "Doran",
	"Daria", "Elara", "Erik", "Finn", "Freya", "Gareth", "Greta",
	"Ivar", "Iris", "Jasper", "Juno", "Kael", "Kira", "Leif", "Lena",
	"Magnus", "Mira", "Nils", "Nessa", "Oswin", "Olwen", "Petra",
	"Quinn", "Rowan", "Runa", "Thea", "Ulric", "Vera", "Wren", "Yara",
}

var lastNames = []string{
	"Ashford", "Blackwood", "Briar", "Caldwell", "Deepwell", "Farrow",
	"Frost", "Greenvale", "Harper", "Holloway", "Ironhand", "Mercer",
	"Millward", "Ravenmoor", "Riverstone", "Stoneheart", "Thatcher",
	"Thornwood", "Voss", "Ward", "Windholm", "Wolfsbane",
}
