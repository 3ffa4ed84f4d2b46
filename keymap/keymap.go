// Package keymap holds the firmware-agnostic layout model: layers of
// abstract key tokens, the board inventory, behavior aliases, combos, and
// magic-key configuration. Everything here is parsed once from YAML at
// process start and is immutable afterwards.
package keymap

// Firmware identifies a target keyboard firmware ecosystem.
type Firmware string

const (
	// FirmwareQMK is the C-based firmware target
	FirmwareQMK Firmware = "qmk"
	// FirmwareZMK is the devicetree-based firmware target
	FirmwareZMK Firmware = "zmk"
)

// Valid reports whether f is a recognized firmware target.
func (f Firmware) Valid() bool {
	return f == FirmwareQMK || f == FirmwareZMK
}

// Hand identifies which half of a split board a key position belongs to.
// It is derived from a token's position index within the active board
// geometry, never declared in configuration.
type Hand int

const (
	HandLeft Hand = iota
	HandRight
)

func (h Hand) String() string {
	if h == HandLeft {
		return "left"
	}
	return "right"
}

// TokenNone is the firmware-agnostic "this key does nothing" token.
// Translators map it to each firmware's no-op keycode.
const TokenNone = "NONE"

// TokenMagic is the reserved context-sensitive repeat key token. Its
// translation depends on the active layer's base-layer family.
const TokenMagic = "MAGIC"
