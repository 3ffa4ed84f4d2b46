package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dario/keymapgen/keymap"
)

func testTables(t *testing.T) Tables {
	t.Helper()
	magic, err := keymap.NewMagicConfig([]*keymap.MagicBehavior{
		{Base: "BASE_NIGHT", TimeoutMs: 1200, Rules: []keymap.MagicRule{{When: "A", Key: "O"}}},
	})
	require.NoError(t, err)

	return Tables{
		Keycodes: keymap.KeycodeTable{
			"VOLUP": {QMK: "KC_VOLU", ZMK: "&kp C_VOL_UP"},
			"PSCR":  {QMK: "KC_PSCR", ZMK: ""},
		},
		Aliases: keymap.AliasTable{
			"hrm": {
				Name:   "hrm",
				Params: []string{"mod", "key"},
				Patterns: map[keymap.Firmware]keymap.AliasPattern{
					keymap.FirmwareQMK: {Default: "{mod}_T(KC_{key})"},
					keymap.FirmwareZMK: {Left: "&hml {mod} {key}", Right: "&hmr {mod} {key}"},
				},
				Support: map[keymap.Firmware]bool{keymap.FirmwareQMK: true, keymap.FirmwareZMK: true},
			},
			"lt": {
				Name:   "lt",
				Params: []string{"layer", "key"},
				Patterns: map[keymap.Firmware]keymap.AliasPattern{
					keymap.FirmwareQMK: {Default: "LT({layer}, KC_{key})"},
					keymap.FirmwareZMK: {Default: "&lt {layer} {key}"},
				},
				Support: map[keymap.Firmware]bool{keymap.FirmwareQMK: true, keymap.FirmwareZMK: true},
			},
			"bt": {
				Name:   "bt",
				Params: []string{"action"},
				Patterns: map[keymap.Firmware]keymap.AliasPattern{
					keymap.FirmwareZMK: {Default: "&bt BT_{action}"},
				},
				Support: map[keymap.Firmware]bool{keymap.FirmwareZMK: true},
			},
		},
		Magic: magic,
	}
}

func TestQMKTranslate(t *testing.T) {
	q := NewQMK(testTables(t))
	ctx := Context{Index: 0, Hand: keymap.HandLeft, Layer: "BASE_NIGHT"}

	tests := []struct {
		token string
		want  string
	}{
		{token: "A", want: "KC_A"},
		{token: "1", want: "KC_1"},
		{token: "NONE", want: "KC_NO"},
		{token: "VOLUP", want: "KC_VOLU"},
		{token: "KC_ESC", want: "KC_ESC"},
		{token: "QK_BOOT", want: "QK_BOOT"},
		{token: "RGB_TOG", want: "RGB_TOG"},
		{token: "RM_NEXT", want: "RM_NEXT"},
		{token: "LSFT(KC_TAB)", want: "LSFT(KC_TAB)"},
		{token: "hrm:LGUI:A", want: "LGUI_T(KC_A)"},
		{token: "lt:NAV:SPC", want: "LT(NAV, KC_SPC)"},
		{token: "bt:NXT", want: "KC_NO"},
		{token: "ext_power:toggle", want: "KC_NO"},
		{token: "MAGIC", want: "QK_AREP"},
		{token: "lt:NAV:MAGIC", want: "LT(NAV, QK_AREP)"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := q.Translate(tt.token, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQMKMagicWithoutFamily(t *testing.T) {
	q := NewQMK(Tables{})
	ctx := Context{Layer: "GAME"}

	got, err := q.Translate("MAGIC", ctx)
	require.NoError(t, err)
	assert.Equal(t, "KC_NO", got)

	// Hold still switches layers even when the tap has nowhere to go.
	got, err = q.Translate("lt:NAV:MAGIC", ctx)
	require.NoError(t, err)
	assert.Equal(t, "LT(NAV, KC_NO)", got)
}

func TestQMKTranslateUnknownAlias(t *testing.T) {
	q := NewQMK(testTables(t))
	_, err := q.Translate("warp:9", Context{Layer: "BASE_NIGHT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown behavior alias")
}

func TestQMKValidate(t *testing.T) {
	q := NewQMK(testTables(t))
	ctx := Context{Layer: "BASE_NIGHT"}

	assert.NoError(t, q.Validate("A", ctx))
	assert.NoError(t, q.Validate("hrm:LGUI:A", ctx))
	assert.NoError(t, q.Validate("bt:NXT", ctx), "other-firmware alias is allowlisted")
	assert.NoError(t, q.Validate("rgb_ug:TOG", ctx))

	err := q.Validate("hrm:LGUI", ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 2 parameters")

	err = q.Validate("hrm:HYPER:A", ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid modifier")

	err = q.Validate("warp:9", ctx)
	require.Error(t, err)
}

func TestZMKTranslate(t *testing.T) {
	z := NewZMK(testTables(t), map[string]int{"BASE_NIGHT": 0, "NAV": 1, "NUM": 2})
	left := Context{Index: 0, Hand: keymap.HandLeft, Layer: "BASE_NIGHT"}
	right := Context{Index: 20, Hand: keymap.HandRight, Layer: "BASE_NIGHT"}

	tests := []struct {
		name  string
		token string
		ctx   Context
		want  string
	}{
		{name: "plain key", token: "A", ctx: left, want: "&kp A"},
		{name: "numeric key", token: "1", ctx: left, want: "&kp 1"},
		{name: "none", token: "NONE", ctx: left, want: "&none"},
		{name: "table hit", token: "VOLUP", ctx: left, want: "&kp C_VOL_UP"},
		{name: "table unsupported", token: "PSCR", ctx: left, want: "&none"},
		{name: "kc prefix strips", token: "KC_ESC", ctx: left, want: "&kp ESC"},
		{name: "qk boot", token: "QK_BOOT", ctx: left, want: "&bootloader"},
		{name: "qk reboot", token: "QK_RBT", ctx: left, want: "&sys_reset"},
		{name: "qk other", token: "QK_LOCK", ctx: left, want: "&none"},
		{name: "hrm left", token: "hrm:LGUI:A", ctx: left, want: "&hml LGUI A"},
		{name: "hrm right", token: "hrm:LGUI:A", ctx: right, want: "&hmr LGUI A"},
		{name: "layer tap uses index", token: "lt:NAV:SPC", ctx: left, want: "&lt 1 SPC"},
		{name: "qmk only alias", token: "rgb:TOG", ctx: left, want: "&none"},
		{name: "zmk alias", token: "bt:NXT", ctx: left, want: "&bt BT_NXT"},
		{name: "magic", token: "MAGIC", ctx: left, want: "&magic_night"},
		{name: "layer tap magic", token: "lt:NAV:MAGIC", ctx: left, want: "&lt_magic_night 1 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := z.Translate(tt.token, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZMKMagicWithoutFamily(t *testing.T) {
	z := NewZMK(Tables{}, map[string]int{"GAME": 0, "NAV": 1})
	ctx := Context{Layer: "GAME"}

	got, err := z.Translate("MAGIC", ctx)
	require.NoError(t, err)
	assert.Equal(t, "&none", got)

	got, err = z.Translate("lt:NAV:MAGIC", ctx)
	require.NoError(t, err)
	assert.Equal(t, "&lt 1 0", got)
}

func TestZMKLayerTapUnknownLayer(t *testing.T) {
	z := NewZMK(testTables(t), map[string]int{"BASE_NIGHT": 0})
	_, err := z.Translate("lt:MISSING:SPC", Context{Layer: "BASE_NIGHT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown layer")

	// Raw numeric layer arguments pass through.
	got, err := z.Translate("lt:3:SPC", Context{Layer: "BASE_NIGHT"})
	require.NoError(t, err)
	assert.Equal(t, "&lt 3 SPC", got)
}

func TestZMKValidate(t *testing.T) {
	z := NewZMK(testTables(t), nil)
	ctx := Context{Layer: "BASE_NIGHT"}

	assert.NoError(t, z.Validate("A", ctx))
	assert.NoError(t, z.Validate("rgb:TOG", ctx), "other-firmware alias is allowlisted")
	assert.NoError(t, z.Validate("hrm:LCTRL:A", ctx))

	err := z.Validate("hrm:LCTL:A", ctx)
	require.Error(t, err, "QMK modifier spelling is invalid on ZMK")

	err = z.Validate("bt:NXT:extra", ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 1 parameters")

	err = z.Validate("warp:9", ctx)
	require.Error(t, err)
}

func TestMagicRefs(t *testing.T) {
	magic, err := keymap.NewMagicConfig([]*keymap.MagicBehavior{
		{Base: "BASE_NIGHT", TimeoutMs: 1200, Rules: []keymap.MagicRule{{When: "A", Key: "O"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "&magic_night", MagicBehaviorRef("BASE_NIGHT", magic))
	assert.Equal(t, "&lt_magic_night", MagicLayerTapRef("BASE_NIGHT", magic))
}
