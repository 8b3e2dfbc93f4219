package rules

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsRoundTrip(t *testing.T) {
	for _, name := range PresetNames() {
		for _, f := range []Format{FormatYAML, FormatJSON} {
			t.Run(name+"/"+string(f), func(t *testing.T) {
				want, ok := Preset(name)
				require.True(t, ok)

				b, err := Encode(want, f)
				require.NoError(t, err)
				got, err := Decode(b, f)
				require.NoError(t, err)
				assert.Equal(t, want, got)

				// Same seed, same context: the reloaded personality decides identically.
				for i := 0; i < 20; i++ {
					before := Decide(junctionContext(t), want, rand.New(rand.NewSource(int64(i))))
					after := Decide(junctionContext(t), got, rand.New(rand.NewSource(int64(i))))
					assert.Equal(t, before, after)
				}
			})
		}
	}
}

func TestDecodeYAML(t *testing.T) {
	doc := `
high:
  - kind: wall-following
    weight: 2
    mode: left
medium:
  - kind: telepathy
    weight: 5
low:
  - kind: random-guesser
    weight: 1
`
	tiers, err := Decode([]byte(doc), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, Tier{WallFollowing{Weight: 2, Hand: LeftHand}}, tiers[High])
	assert.Equal(t, Tier{Unknown{Name: "telepathy", Weight: 5}}, tiers[Medium])
	assert.Equal(t, Tier{RandomGuesser{Weight: 1}}, tiers[Low])
	assert.Equal(t, 3, tiers.Len())

	// The unknown block round-trips under its original name.
	out, err := Encode(tiers, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "telepathy")
}

func TestDecodeDefaultsModes(t *testing.T) {
	doc := `{"high":[{"kind":"wall-following","weight":1},{"kind":"backtracking","weight":1},{"kind":"social","weight":1}]}`
	tiers, err := Decode([]byte(doc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, Tier{
		WallFollowing{Weight: 1, Hand: RightHand},
		Backtracking{Weight: 1, Mode: AvoidVisited},
		Social{Weight: 1, Mode: FollowOthers},
	}, tiers[High])
}

func TestDecodeEmptyYAML(t *testing.T) {
	tiers, err := Decode(nil, FormatYAML)
	require.NoError(t, err)
	assert.Zero(t, tiers.Len())
}

func TestDecodeRejects(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		f    Format
		mode bool
	}{
		{"json negative weight", `{"high":[{"kind":"toward-exit","weight":-1}]}`, FormatJSON, false},
		{"json unknown field", `{"high":[{"kind":"toward-exit","weight":1,"colour":"red"}]}`, FormatJSON, false},
		{"json unknown tier", `{"urgent":[]}`, FormatJSON, false},
		{"json trailing value", `{"high":[]} {"low":[]}`, FormatJSON, false},
		{"yaml unknown field", "high:\n  - kind: toward-exit\n    weight: 1\n    colour: red\n", FormatYAML, false},
		{"yaml two documents", "high: []\n---\nlow: []\n", FormatYAML, false},
		{"mode on modeless kind", "high:\n  - kind: line-of-sight\n    weight: 1\n    mode: left\n", FormatYAML, true},
		{"bad hand", "high:\n  - kind: wall-following\n    weight: 1\n    mode: seek\n", FormatYAML, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.doc), tc.f)
			require.Error(t, err)
			if tc.mode {
				assert.ErrorIs(t, err, ErrInvalidMode)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for k := KindWallFollowing; k <= KindRandomGuesser; k++ {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("telepathy")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestCloneIsIndependent(t *testing.T) {
	orig := DefaultTiers()
	c := orig.Clone()
	c[High][0] = RandomGuesser{Weight: 9}
	c[Low] = append(c[Low], TowardExit{Weight: 1})

	assert.Equal(t, DefaultTiers(), orig)
	assert.NotEqual(t, orig, c)

	// Presets hand out copies.
	p, _ := Preset(DefaultPreset)
	p[High] = nil
	assert.NotEmpty(t, DefaultTiers()[High])
}

func TestPresetUnknown(t *testing.T) {
	_, ok := Preset("nobody")
	assert.False(t, ok)
	assert.Contains(t, PresetNames(), DefaultPreset)
}

func TestLoadSaveFile(t *testing.T) {
	dir := t.TempDir()
	want, _ := Preset("social-butterfly")

	for _, name := range []string{"tiers.yaml", "tiers.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveFile(path, want))
		got, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"high":[{"kind":"social","weight":"lots"}]}`), 0o644))
	_, err := LoadFile(bad)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatForPath("a/b.JSON"))
	assert.Equal(t, FormatYAML, FormatForPath("a/b.yml"))
	assert.Equal(t, FormatYAML, FormatForPath("noext"))
}
