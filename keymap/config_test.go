package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, names ...string) *KeymapConfiguration {
	t.Helper()
	layers := make([]*Layer, len(names))
	for i, name := range names {
		layers[i] = &Layer{Name: name, Core: coreGrid()}
	}
	cfg, err := NewKeymapConfiguration(layers, nil, nil, nil)
	require.NoError(t, err)
	return cfg
}

func TestLayersForBoard(t *testing.T) {
	cfg := testConfig(t, "BASE", "NAV", "NUM", "GAME", "PICO")

	inv, err := NewBoardInventory([]*Board{
		{ID: "skeletyl", Name: "Skeletyl", Firmware: FirmwareQMK, LayoutSize: "3x5_3", QMKKeyboard: "bastardkb/skeletyl", ExtraLayers: []string{"GAME"}},
		{ID: "pico", Name: "Pico", Firmware: FirmwareZMK, LayoutSize: "3x5_3", ZMKBoard: "pico", ExtraLayers: []string{"PICO"}},
		{ID: "corne", Name: "Corne", Firmware: FirmwareZMK, LayoutSize: "3x6_3", ZMKShield: "corne"},
	})
	require.NoError(t, err)

	skeletyl, _ := inv.ByID("skeletyl")
	pico, _ := inv.ByID("pico")
	corne, _ := inv.ByID("corne")

	names := func(layers []*Layer) []string {
		out := make([]string, len(layers))
		for i, l := range layers {
			out[i] = l.Name
		}
		return out
	}

	// Layers claimed as extra_layers anywhere are exclusive to the boards
	// that claim them.
	assert.Equal(t, []string{"BASE", "NAV", "NUM", "GAME"}, names(cfg.LayersForBoard(skeletyl, inv)))
	assert.Equal(t, []string{"BASE", "NAV", "NUM", "PICO"}, names(cfg.LayersForBoard(pico, inv)))
	assert.Equal(t, []string{"BASE", "NAV", "NUM"}, names(cfg.LayersForBoard(corne, inv)))
}

func TestLayerIndices(t *testing.T) {
	cfg := testConfig(t, "BASE", "NAV", "NUM")
	idx := LayerIndices(cfg.Layers)
	assert.Equal(t, map[string]int{"BASE": 0, "NAV": 1, "NUM": 2}, idx)
}

func TestNewKeymapConfigurationDuplicateLayer(t *testing.T) {
	_, err := NewKeymapConfiguration([]*Layer{
		{Name: "BASE", Core: coreGrid()},
		{Name: "BASE", Core: coreGrid()},
	}, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate layer")
}
