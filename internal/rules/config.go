package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BlockSpec is the plain structural form of a block.
type BlockSpec struct {
	Kind   string  `json:"kind" yaml:"kind"`
	Weight float64 `json:"weight" yaml:"weight"`
	Mode   string  `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// TierSpec is the plain structural form of a tier configuration.
type TierSpec struct {
	High   []BlockSpec `json:"high" yaml:"high"`
	Medium []BlockSpec `json:"medium" yaml:"medium"`
	Low    []BlockSpec `json:"low" yaml:"low"`
}

// Format selects a tier-config encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForPath picks the encoding from a file extension; anything that is
// not .json is read as YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// SpecOf converts a block to its structural form.
func SpecOf(b Block) BlockSpec {
	spec := BlockSpec{Kind: b.Kind().String(), Weight: b.Mass()}
	switch b := b.(type) {
	case WallFollowing:
		spec.Mode = b.Hand.String()
	case Backtracking:
		spec.Mode = b.Mode.String()
	case Social:
		spec.Mode = b.Mode.String()
	case Unknown:
		spec.Kind = b.Name
		spec.Mode = b.Mode
	}
	return spec
}

// Build converts a structural block into a Block. Unknown kinds become
// Unknown blocks (never applicable); a bad mode on a known kind is an error.
func (s BlockSpec) Build() (Block, error) {
	kind, err := ParseKind(s.Kind)
	if err != nil {
		slog.Warn("unrecognised rule block kind, block will never fire", "kind", s.Kind)
		return Unknown{Name: s.Kind, Weight: s.Weight, Mode: s.Mode}, nil
	}
	badMode := func() error {
		return fmt.Errorf("%w: %q for %s", ErrInvalidMode, s.Mode, kind)
	}

	switch kind {
	case KindWallFollowing:
		switch s.Mode {
		case "", "right":
			return WallFollowing{Weight: s.Weight, Hand: RightHand}, nil
		case "left":
			return WallFollowing{Weight: s.Weight, Hand: LeftHand}, nil
		}
		return nil, badMode()
	case KindBacktracking:
		switch s.Mode {
		case "", "avoid":
			return Backtracking{Weight: s.Weight, Mode: AvoidVisited}, nil
		case "seek":
			return Backtracking{Weight: s.Weight, Mode: SeekVisited}, nil
		}
		return nil, badMode()
	case KindSocial:
		switch s.Mode {
		case "", "follow":
			return Social{Weight: s.Weight, Mode: FollowOthers}, nil
		case "avoid":
			return Social{Weight: s.Weight, Mode: AvoidOthers}, nil
		}
		return nil, badMode()
	}

	if s.Mode != "" {
		return nil, badMode()
	}
	switch kind {
	case KindLineOfSight:
		return LineOfSight{Weight: s.Weight}, nil
	case KindTowardExit:
		return TowardExit{Weight: s.Weight}, nil
	case KindCheckMap:
		return CheckMap{Weight: s.Weight}, nil
	default:
		return RandomGuesser{Weight: s.Weight}, nil
	}
}

// Spec converts tiers to their structural form.
func (t Tiers) Spec() TierSpec {
	conv := func(tier Tier) []BlockSpec {
		out := make([]BlockSpec, 0, len(tier))
		for _, b := range tier {
			out = append(out, SpecOf(b))
		}
		return out
	}
	return TierSpec{High: conv(t[High]), Medium: conv(t[Medium]), Low: conv(t[Low])}
}

// Tiers builds the runtime configuration from the structural form.
func (s TierSpec) Tiers() (Tiers, error) {
	var t Tiers
	for p, specs := range [NumTiers][]BlockSpec{s.High, s.Medium, s.Low} {
		for i, bs := range specs {
			b, err := bs.Build()
			if err != nil {
				return Tiers{}, fmt.Errorf("%s tier block %d: %w", Priority(p), i, err)
			}
			t[p] = append(t[p], b)
		}
	}
	return t, nil
}

// MarshalYAML implements yaml.Marshaler.
func (t Tiers) MarshalYAML() (any, error) {
	return t.Spec(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Tiers) UnmarshalYAML(node *yaml.Node) error {
	var spec TierSpec
	if err := node.Decode(&spec); err != nil {
		return err
	}
	built, err := spec.Tiers()
	if err != nil {
		return err
	}
	*t = built
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Tiers) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Spec())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tiers) UnmarshalJSON(b []byte) error {
	var spec TierSpec
	if err := json.Unmarshal(b, &spec); err != nil {
		return err
	}
	built, err := spec.Tiers()
	if err != nil {
		return err
	}
	*t = built
	return nil
}

// Encode serialises tiers in the given format.
func Encode(t Tiers, f Format) ([]byte, error) {
	if f == FormatJSON {
		return json.MarshalIndent(t.Spec(), "", "  ")
	}
	return yaml.Marshal(t.Spec())
}

// Decode parses a tier configuration strictly: unknown fields and trailing
// documents are rejected, and JSON input is checked against TierSchema.
func Decode(b []byte, f Format) (Tiers, error) {
	var spec TierSpec
	switch f {
	case FormatJSON:
		if err := validateJSON(b); err != nil {
			return Tiers{}, err
		}
		if err := decodeJSONStrict(b, &spec); err != nil {
			return Tiers{}, err
		}
	default:
		if err := decodeYAMLStrict(b, &spec); err != nil {
			return Tiers{}, err
		}
	}
	return spec.Tiers()
}

// LoadFile reads a tier configuration, choosing the format by extension.
func LoadFile(path string) (Tiers, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Tiers{}, err
	}
	t, err := Decode(b, FormatForPath(path))
	if err != nil {
		return Tiers{}, fmt.Errorf("tiers %s: %w", path, err)
	}
	return t, nil
}

// SaveFile writes a tier configuration, choosing the format by extension.
func SaveFile(path string, t Tiers) error {
	b, err := Encode(t, FormatForPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func decodeJSONStrict(b []byte, spec *TierSpec) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(spec); err != nil {
		return err
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return fmt.Errorf("json: multiple top-level values are not allowed")
		}
		return err
	}
	return nil
}

func decodeYAMLStrict(b []byte, spec *TierSpec) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(spec); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return fmt.Errorf("yaml: multiple documents are not allowed")
		}
		return err
	}
	return nil
}
