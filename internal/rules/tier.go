package rules

import (
	"fmt"
	"sort"
)

// Priority indexes the three tiers, evaluated High first.
type Priority uint8

const (
	High Priority = iota
	Medium
	Low
)

// NumTiers is fixed: every configuration has exactly three tiers.
const NumTiers = 3

func (p Priority) String() string {
	switch p {
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", uint8(p))
	}
}

// Tier is an ordered list of blocks. Order matters: the weighted draw
// walks blocks in this order.
type Tier []Block

// Tiers is a complete agent personality.
type Tiers [NumTiers]Tier

// Clone returns a copy that shares nothing with t. Blocks are values, so
// copying the slices is a deep copy.
func (t Tiers) Clone() Tiers {
	var c Tiers
	for i, tier := range t {
		if tier == nil {
			continue
		}
		c[i] = append(Tier(nil), tier...)
	}
	return c
}

// Len returns the total number of blocks across all tiers.
func (t Tiers) Len() int {
	n := 0
	for _, tier := range t {
		n += len(tier)
	}
	return n
}

// Built-in personalities.
var presets = map[string]Tiers{
	"explorer": {
		High:   {CheckMap{Weight: 1}, LineOfSight{Weight: 2}},
		Medium: {Backtracking{Weight: 3, Mode: AvoidVisited}, TowardExit{Weight: 1}},
		Low:    {RandomGuesser{Weight: 1}},
	},
	"wall-hugger": {
		High: {WallFollowing{Weight: 1, Hand: RightHand}},
		Low:  {RandomGuesser{Weight: 1}},
	},
	"cartographer": {
		High: {CheckMap{Weight: 1}},
	},
	"social-butterfly": {
		High:   {Social{Weight: 2, Mode: FollowOthers}},
		Medium: {Backtracking{Weight: 1, Mode: AvoidVisited}, LineOfSight{Weight: 1}},
		Low:    {TowardExit{Weight: 1}, RandomGuesser{Weight: 1}},
	},
	"loner": {
		High:   {Social{Weight: 1, Mode: AvoidOthers}},
		Medium: {WallFollowing{Weight: 1, Hand: LeftHand}},
	},
	"random-walker": {
		Low: {RandomGuesser{Weight: 1}},
	},
}

// DefaultPreset names the personality used when none is configured.
const DefaultPreset = "explorer"

// Preset returns a copy of a built-in personality.
func Preset(name string) (Tiers, bool) {
	t, ok := presets[name]
	if !ok {
		return Tiers{}, false
	}
	return t.Clone(), true
}

// PresetNames lists the built-in personalities alphabetically.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultTiers returns the default personality.
func DefaultTiers() Tiers {
	t, _ := Preset(DefaultPreset)
	return t
}
