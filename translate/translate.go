// Package translate converts abstract keycode tokens into firmware-specific
// literal syntax. One Translator per firmware; both are pure and share the
// immutable keycode, alias and magic-key tables, taking all per-key context
// through an explicit Context value.
package translate

import (
	"strings"

	"github.com/dario/keymapgen/keymap"
)

// Context carries the per-key state a translation depends on: the key's
// compiled position index, the hand that presses it, and the active layer.
type Context struct {
	Index int
	Hand  keymap.Hand
	Layer string
}

// Translator converts one abstract token to the firmware's literal syntax.
type Translator interface {
	Firmware() keymap.Firmware

	// Noop returns the firmware's no-op keycode literal.
	Noop() string

	// Translate resolves a token. Tokens that are structurally valid but
	// belong to the other firmware resolve to Noop rather than failing.
	Translate(token string, ctx Context) (string, error)

	// Validate checks a token without translating it. It fails on unknown
	// aliases (unless the name is on the other firmware's allowlist),
	// parameter arity mismatches, and out-of-set home-row modifiers.
	Validate(token string, ctx Context) error
}

// Tables bundles the immutable configuration both translators read.
type Tables struct {
	Keycodes keymap.KeycodeTable
	Aliases  keymap.AliasTable
	Magic    *keymap.MagicConfig
}

// aliasHRM is the home-row-mod alias name; its modifier argument is checked
// against a firmware-specific modifier set during validation.
const aliasHRM = "hrm"

// aliasLayerTap is the layer-tap alias name. Its layer argument gets
// index-substituted for ZMK, and a magic tap side expands to a dedicated
// combined construct on both firmwares.
const aliasLayerTap = "lt"

func splitAlias(token string) (name string, args []string) {
	parts := strings.Split(token, ":")
	return parts[0], parts[1:]
}

// isLayerTapMagic reports whether a token is a layer-tap with the magic key
// on its tap side.
func isLayerTapMagic(name string, args []string) bool {
	return name == aliasLayerTap && len(args) == 2 && args[1] == keymap.TokenMagic
}

// magicFamilyName returns the short lowercase family name used in generated
// behavior identifiers: BASE_NIGHT yields "night".
func magicFamilyName(base string, magic *keymap.MagicConfig) string {
	var families []*keymap.MagicBehavior
	if magic != nil {
		families = magic.Families
	}
	return strings.ToLower(keymap.DisplayName(base, families))
}

// MagicBehaviorRef returns the ZMK binding reference for a family's
// adaptive-key behavior node.
func MagicBehaviorRef(base string, magic *keymap.MagicConfig) string {
	return "&magic_" + magicFamilyName(base, magic)
}

// MagicLayerTapRef returns the ZMK binding reference for a family's
// combined layer-tap/magic hold-tap node.
func MagicLayerTapRef(base string, magic *keymap.MagicConfig) string {
	return "&lt_magic_" + magicFamilyName(base, magic)
}
