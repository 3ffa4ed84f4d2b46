package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dario/keymapgen/geometry"
	"github.com/dario/keymapgen/keymap"
	"github.com/dario/keymapgen/translate"
)

func uniformCore(token string) *keymap.KeyGrid {
	rows := make([][]keymap.Cell, 0, 8)
	for i := 0; i < 6; i++ {
		row := make([]keymap.Cell, 5)
		for j := range row {
			row[j] = keymap.Lit(token)
		}
		rows = append(rows, row)
	}
	rows = append(rows,
		[]keymap.Cell{keymap.Lit(token), keymap.Lit(token), keymap.Lit(token)},
		[]keymap.Cell{keymap.Lit(token), keymap.Lit(token), keymap.Lit(token)},
	)
	return &keymap.KeyGrid{Rows: rows}
}

func qmkBoard() *keymap.Board {
	return &keymap.Board{ID: "skeletyl", Name: "Skeletyl", Firmware: keymap.FirmwareQMK, LayoutSize: "3x5_3", QMKKeyboard: "bastardkb/skeletyl"}
}

func TestCompileNative36(t *testing.T) {
	layer := &keymap.Layer{Name: "BASE", Core: uniformCore("A")}
	shape, err := geometry.ForTag(geometry.Tag3x5x3)
	require.NoError(t, err)

	compiled, err := Layer(layer, qmkBoard(), shape, translate.NewQMK(translate.Tables{}))
	require.NoError(t, err)

	assert.Equal(t, "BASE", compiled.Name)
	assert.Equal(t, "skeletyl", compiled.BoardID)
	assert.Equal(t, keymap.FirmwareQMK, compiled.Firmware)
	require.Equal(t, 36, compiled.Len())
	for _, kc := range compiled.Keycodes {
		assert.Equal(t, "KC_A", kc)
	}
}

func TestCompileDeterministic(t *testing.T) {
	layer := &keymap.Layer{Name: "BASE", Core: uniformCore("A")}
	shape, _ := geometry.ForTag(geometry.Tag3x5x3)
	tr := translate.NewQMK(translate.Tables{})

	first, err := Layer(layer, qmkBoard(), shape, tr)
	require.NoError(t, err)
	second, err := Layer(layer, qmkBoard(), shape, tr)
	require.NoError(t, err)
	assert.Equal(t, first.Keycodes, second.Keycodes)
}

func TestCompile42FillsMissingExtension(t *testing.T) {
	layer := &keymap.Layer{Name: "BASE", Core: uniformCore("A")}
	shape, _ := geometry.ForTag(geometry.Tag3x6x3)

	compiled, err := Layer(layer, qmkBoard(), shape, translate.NewQMK(translate.Tables{}))
	require.NoError(t, err)
	require.Equal(t, 42, compiled.Len())

	// Outer pinky slots fall back to no-ops when the layer defines no
	// matching extension.
	assert.Equal(t, "KC_NO", compiled.Keycodes[0])
	assert.Equal(t, "KC_A", compiled.Keycodes[1])
	assert.Equal(t, "KC_NO", compiled.Keycodes[23])
}

func TestCompileFullLayoutWithReferences(t *testing.T) {
	core := uniformCore("A")
	core.Rows[0][0] = keymap.Lit("Q")  // canonical 0
	core.Rows[3][0] = keymap.Lit("J")  // right row 0 col 0, canonical 5
	core.Rows[6][1] = keymap.Lit("SPC") // left thumb 1, canonical 31

	cells := make([]keymap.Cell, 36)
	cells[0] = keymap.Ref(0)
	cells[1] = keymap.Ref(5)
	cells[2] = keymap.Ref(31)
	for i := 3; i < 36; i++ {
		cells[i] = keymap.Lit("B")
	}
	layer := &keymap.Layer{
		Name:       "GAME",
		Core:       core,
		FullLayout: &keymap.KeyGrid{Rows: [][]keymap.Cell{cells}},
	}
	shape, _ := geometry.ForTag(geometry.Tag3x5x3)

	compiled, err := Layer(layer, qmkBoard(), shape, translate.NewQMK(translate.Tables{}))
	require.NoError(t, err)
	assert.Equal(t, "KC_Q", compiled.Keycodes[0])
	assert.Equal(t, "KC_J", compiled.Keycodes[1])
	assert.Equal(t, "KC_SPC", compiled.Keycodes[2])
	assert.Equal(t, "KC_B", compiled.Keycodes[3])
}

func TestCompileFullLayoutOutOfRangeReference(t *testing.T) {
	cells := make([]keymap.Cell, 36)
	for i := range cells {
		cells[i] = keymap.Lit("A")
	}
	cells[7] = keymap.Ref(36)
	layer := &keymap.Layer{
		Name:       "GAME",
		Core:       uniformCore("A"),
		FullLayout: &keymap.KeyGrid{Rows: [][]keymap.Cell{cells}},
	}
	shape, _ := geometry.ForTag(geometry.Tag3x5x3)

	_, err := Layer(layer, qmkBoard(), shape, translate.NewQMK(translate.Tables{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestCompileFullLayoutSizeMismatch(t *testing.T) {
	layer := &keymap.Layer{
		Name:       "GAME",
		FullLayout: &keymap.KeyGrid{Rows: [][]keymap.Cell{{keymap.Lit("A"), keymap.Lit("B")}}},
	}
	shape, _ := geometry.ForTag(geometry.Tag3x5x3)

	_, err := Layer(layer, qmkBoard(), shape, translate.NewQMK(translate.Tables{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geometry")
}

func TestCompileValidationFailsBeforeTranslation(t *testing.T) {
	core := uniformCore("A")
	core.Rows[7][2] = keymap.Lit("warp:9")
	layer := &keymap.Layer{Name: "BASE", Core: core}
	shape, _ := geometry.ForTag(geometry.Tag3x5x3)

	_, err := Layer(layer, qmkBoard(), shape, translate.NewQMK(translate.Tables{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown behavior alias")
	assert.Contains(t, err.Error(), "skeletyl")
}

func TestCompileZMKUsesHandContext(t *testing.T) {
	aliases := keymap.AliasTable{
		"hrm": {
			Name:   "hrm",
			Params: []string{"mod", "key"},
			Patterns: map[keymap.Firmware]keymap.AliasPattern{
				keymap.FirmwareZMK: {Left: "&hml {mod} {key}", Right: "&hmr {mod} {key}"},
			},
			Support: map[keymap.Firmware]bool{keymap.FirmwareZMK: true},
		},
	}
	core := uniformCore("A")
	core.Rows[1][1] = keymap.Lit("hrm:LGUI:S")  // left home row
	core.Rows[4][1] = keymap.Lit("hrm:RGUI:E")  // right home row
	layer := &keymap.Layer{Name: "BASE", Core: core}
	shape, _ := geometry.ForTag(geometry.Tag3x5x3)
	board := &keymap.Board{ID: "corne", Name: "Corne", Firmware: keymap.FirmwareZMK, LayoutSize: "3x5_3", ZMKShield: "corne"}

	compiled, err := Layer(layer, board, shape, translate.NewZMK(translate.Tables{Aliases: aliases}, nil))
	require.NoError(t, err)

	assert.Equal(t, "&hml LGUI S", compiled.Keycodes[6])
	assert.Equal(t, "&hmr RGUI E", compiled.Keycodes[21])
}
