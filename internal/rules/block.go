// Package rules holds the navigation heuristics ("rule blocks"), the
// three-tier priority configuration that arranges them, and the decision
// engine that turns a position into a single move.
package rules

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind = errors.New("unknown rule block kind")
	ErrInvalidMode = errors.New("invalid rule block mode")
)

// Kind identifies a rule block variant.
type Kind uint8

const (
	KindWallFollowing Kind = iota
	KindLineOfSight
	KindTowardExit
	KindCheckMap
	KindBacktracking
	KindSocial
	KindRandomGuesser

	KindUnknown Kind = 255
)

var kindNames = map[Kind]string{
	KindWallFollowing: "wall-following",
	KindLineOfSight:   "line-of-sight",
	KindTowardExit:    "toward-exit",
	KindCheckMap:      "check-map",
	KindBacktracking:  "backtracking",
	KindSocial:        "social",
	KindRandomGuesser: "random-guesser",
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Hand selects which wall a WallFollowing block keeps contact with.
type Hand uint8

const (
	RightHand Hand = iota
	LeftHand
)

func (h Hand) String() string {
	if h == LeftHand {
		return "left"
	}
	return "right"
}

// Revisit selects whether a Backtracking block seeks or avoids trodden cells.
type Revisit uint8

const (
	AvoidVisited Revisit = iota
	SeekVisited
)

func (r Revisit) String() string {
	if r == SeekVisited {
		return "seek"
	}
	return "avoid"
}

// Company selects whether a Social block moves toward or away from others.
type Company uint8

const (
	FollowOthers Company = iota
	AvoidOthers
)

func (c Company) String() string {
	if c == AvoidOthers {
		return "avoid"
	}
	return "follow"
}

// Block is one pluggable heuristic. The set of implementations is closed;
// the decision engine switches over the concrete types.
type Block interface {
	Kind() Kind
	// Mass is the block's relative weight within its tier.
	Mass() float64
	sealed()
}

// WallFollowing keeps one hand on the wall.
type WallFollowing struct {
	Weight float64
	Hand   Hand
}

// LineOfSight heads for the exit when it is in view, otherwise for the
// nearest unvisited cell along a straight corridor.
type LineOfSight struct {
	Weight float64
}

// TowardExit prefers moves that close the straight-line gap to the exit.
type TowardExit struct {
	Weight float64
}

// CheckMap follows the shortest path to the exit.
type CheckMap struct {
	Weight float64
}

// Backtracking prefers the least (or most) visited neighbor.
type Backtracking struct {
	Weight float64
	Mode   Revisit
}

// Social steers toward (or away from) other agents in view.
type Social struct {
	Weight float64
	Mode   Company
}

// RandomGuesser never narrows; it leaves the pick to the final coin toss.
type RandomGuesser struct {
	Weight float64
}

// Unknown stands in for a block kind this build does not recognise. It is
// never applicable.
type Unknown struct {
	Name   string
	Weight float64
	Mode   string
}

func (WallFollowing) Kind() Kind { return KindWallFollowing }
func (LineOfSight) Kind() Kind   { return KindLineOfSight }
func (TowardExit) Kind() Kind    { return KindTowardExit }
func (CheckMap) Kind() Kind      { return KindCheckMap }
func (Backtracking) Kind() Kind  { return KindBacktracking }
func (Social) Kind() Kind        { return KindSocial }
func (RandomGuesser) Kind() Kind { return KindRandomGuesser }
func (Unknown) Kind() Kind       { return KindUnknown }

func (b WallFollowing) Mass() float64 { return b.Weight }
func (b LineOfSight) Mass() float64   { return b.Weight }
func (b TowardExit) Mass() float64    { return b.Weight }
func (b CheckMap) Mass() float64      { return b.Weight }
func (b Backtracking) Mass() float64  { return b.Weight }
func (b Social) Mass() float64        { return b.Weight }
func (b RandomGuesser) Mass() float64 { return b.Weight }
func (b Unknown) Mass() float64       { return b.Weight }

func (WallFollowing) sealed() {}
func (LineOfSight) sealed()   {}
func (TowardExit) sealed()    {}
func (CheckMap) sealed()      {}
func (Backtracking) sealed()  {}
func (Social) sealed()        {}
func (RandomGuesser) sealed() {}
func (Unknown) sealed()       {}

// Describe renders a block as "kind(mode)×weight" for logs.
func Describe(b Block) string {
	mode := ""
	switch b := b.(type) {
	case WallFollowing:
		mode = b.Hand.String()
	case Backtracking:
		mode = b.Mode.String()
	case Social:
		mode = b.Mode.String()
	case Unknown:
		return fmt.Sprintf("%s?×%g", b.Name, b.Weight)
	}
	if mode != "" {
		return fmt.Sprintf("%s(%s)×%g", b.Kind(), mode, b.Mass())
	}
	return fmt.Sprintf("%s×%g", b.Kind(), b.Mass())
}
