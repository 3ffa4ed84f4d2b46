package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerValidate(t *testing.T) {
	tests := []struct {
		name    string
		layer   *Layer
		wantErr string
	}{
		{
			name:  "core layer",
			layer: &Layer{Name: "BASE", Core: coreGrid()},
		},
		{
			name:  "full layout only",
			layer: &Layer{Name: "GAME", FullLayout: &KeyGrid{Rows: [][]Cell{{Lit("A")}}}},
		},
		{
			name:    "lowercase name",
			layer:   &Layer{Name: "base", Core: coreGrid()},
			wantErr: "invalid layer name",
		},
		{
			name:    "no grid at all",
			layer:   &Layer{Name: "NAV"},
			wantErr: "either 'core' or 'full_layout'",
		},
		{
			name: "core with reference",
			layer: &Layer{Name: "NAV", Core: &KeyGrid{
				Rows: [][]Cell{{Ref(0)}},
			}},
			wantErr: "position references",
		},
		{
			name: "full layout refs without core",
			layer: &Layer{Name: "GAME", FullLayout: &KeyGrid{
				Rows: [][]Cell{{Ref(0), Lit("A")}},
			}},
			wantErr: "no core is defined",
		},
		{
			name: "short extension column",
			layer: &Layer{Name: "BASE", Core: coreGrid(), Extensions: map[string]*LayerExtension{
				ExtensionOuterPinkyColumn: {
					Type:           ExtensionOuterPinkyColumn,
					OuterPinkyLeft: []string{"TAB"}, OuterPinkyRight: []string{"QUOT"},
				},
			}},
			wantErr: "exactly 3 keys per side",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layer.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBoardValidate(t *testing.T) {
	tests := []struct {
		name    string
		board   *Board
		wantErr bool
	}{
		{
			name:  "qmk board",
			board: &Board{ID: "skeletyl", Name: "Skeletyl", Firmware: FirmwareQMK, LayoutSize: "3x5_3", QMKKeyboard: "bastardkb/skeletyl"},
		},
		{
			name:  "zmk shield",
			board: &Board{ID: "corne", Name: "Corne", Firmware: FirmwareZMK, LayoutSize: "3x6_3", ZMKShield: "corne"},
		},
		{
			name:  "zmk onboard controller",
			board: &Board{ID: "glove80", Name: "Glove80", Firmware: FirmwareZMK, LayoutSize: "3x5_3", ZMKBoard: "glove80"},
		},
		{
			name:    "qmk without keyboard path",
			board:   &Board{ID: "skeletyl", Name: "Skeletyl", Firmware: FirmwareQMK, LayoutSize: "3x5_3"},
			wantErr: true,
		},
		{
			name:    "zmk without shield or board",
			board:   &Board{ID: "corne", Name: "Corne", Firmware: FirmwareZMK, LayoutSize: "3x6_3"},
			wantErr: true,
		},
		{
			name:    "unknown firmware",
			board:   &Board{ID: "x", Name: "X", Firmware: "ergodox", LayoutSize: "3x5_3"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.board.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBoardOutputDir(t *testing.T) {
	qmk := &Board{ID: "skeletyl", Firmware: FirmwareQMK, QMKKeyboard: "bastardkb/skeletyl"}
	assert.Equal(t, "keyboards/bastardkb/skeletyl/keymaps/dario", qmk.OutputDir("dario"))

	zmk := &Board{ID: "corne", Firmware: FirmwareZMK, ZMKShield: "corne"}
	assert.Equal(t, "zmk/keymaps/corne_dario", zmk.OutputDir("dario"))
}

func TestBoardInventory(t *testing.T) {
	inv, err := NewBoardInventory([]*Board{
		{ID: "skeletyl", Name: "Skeletyl", Firmware: FirmwareQMK, LayoutSize: "3x5_3", QMKKeyboard: "bastardkb/skeletyl"},
		{ID: "corne", Name: "Corne", Firmware: FirmwareZMK, LayoutSize: "3x6_3", ZMKShield: "corne"},
	})
	require.NoError(t, err)

	b, ok := inv.ByID("corne")
	require.True(t, ok)
	assert.Equal(t, "Corne", b.Name)

	_, ok = inv.ByID("missing")
	assert.False(t, ok)

	qmk := inv.ByFirmware(FirmwareQMK)
	require.Len(t, qmk, 1)
	assert.Equal(t, "skeletyl", qmk[0].ID)
}

func TestBoardInventoryRejectsDuplicates(t *testing.T) {
	_, err := NewBoardInventory([]*Board{
		{ID: "corne", Name: "A", Firmware: FirmwareZMK, LayoutSize: "3x6_3", ZMKShield: "corne"},
		{ID: "corne", Name: "B", Firmware: FirmwareZMK, LayoutSize: "3x6_3", ZMKShield: "corne"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
