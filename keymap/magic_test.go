package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func magicFamily(base string, rules ...MagicRule) *MagicBehavior {
	return &MagicBehavior{Base: base, TimeoutMs: DefaultMagicTimeoutMs, Rules: rules}
}

func TestResolveFamily(t *testing.T) {
	cfg, err := NewMagicConfig([]*MagicBehavior{
		magicFamily("BASE_NIGHT", MagicRule{When: "A", Key: "O"}),
		magicFamily("BASE_GRAPHITE", MagicRule{When: "T", Key: "H"}),
	})
	require.NoError(t, err)

	tests := []struct {
		layer string
		want  string
		ok    bool
	}{
		{layer: "BASE_NIGHT", want: "BASE_NIGHT", ok: true},
		{layer: "NUM_NIGHT", want: "BASE_NIGHT", ok: true},
		{layer: "SYM_GRAPHITE", want: "BASE_GRAPHITE", ok: true},
		{layer: "NAV", ok: false},
		{layer: "GAME", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.layer, func(t *testing.T) {
			got, ok := cfg.ResolveFamily(tt.layer)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFamilyBareBaseMatchesEverything(t *testing.T) {
	cfg, err := NewMagicConfig([]*MagicBehavior{
		magicFamily("BASE", MagicRule{When: "A", Key: "O"}),
	})
	require.NoError(t, err)

	for _, layer := range []string{"BASE", "NUM", "NAV", "GAME"} {
		got, ok := cfg.ResolveFamily(layer)
		require.True(t, ok, layer)
		assert.Equal(t, "BASE", got)
	}
}

func TestResolveFamilyPrefersLongestSuffix(t *testing.T) {
	// BASE (empty suffix) and BASE_NIGHT both match NUM_NIGHT; the longer
	// suffix wins.
	cfg, err := NewMagicConfig([]*MagicBehavior{
		magicFamily("BASE", MagicRule{When: "A", Key: "O"}),
		magicFamily("BASE_NIGHT", MagicRule{When: "A", Key: "U"}),
	})
	require.NoError(t, err)

	got, ok := cfg.ResolveFamily("NUM_NIGHT")
	require.True(t, ok)
	assert.Equal(t, "BASE_NIGHT", got)

	got, ok = cfg.ResolveFamily("NAV")
	require.True(t, ok)
	assert.Equal(t, "BASE", got)
}

func TestNewMagicConfigRejectsDuplicates(t *testing.T) {
	_, err := NewMagicConfig([]*MagicBehavior{
		magicFamily("BASE_NIGHT", MagicRule{When: "A", Key: "O"}),
		magicFamily("BASE_NIGHT", MagicRule{When: "B", Key: "C"}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestMagicBehaviorValidate(t *testing.T) {
	bad := magicFamily("BASE", MagicRule{When: "A", Key: "O", Text: "ion"})
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of 'key' or 'text'")

	missing := magicFamily("BASE", MagicRule{When: "A"})
	require.Error(t, missing.Validate())
}

func TestDisplayName(t *testing.T) {
	families := []*MagicBehavior{
		magicFamily("BASE_NIGHT"),
		magicFamily("BASE_GRAPHITE"),
	}
	assert.Equal(t, "NIGHT", DisplayName("BASE_NIGHT", families))
	assert.Equal(t, "NUM", DisplayName("NUM_NIGHT", families))
	assert.Equal(t, "SYM", DisplayName("SYM_GRAPHITE", families))
	assert.Equal(t, "NAV", DisplayName("NAV", families))
}
