package keymap

import (
	"strings"

	"github.com/dario/keymapgen/errors"
)

// AliasPattern is the literal-syntax template an alias expands to for one
// firmware. Left/Right override Default for hand-sensitive behaviors
// (home-row mods expand to textually distinct left and right variants).
type AliasPattern struct {
	Default string
	Left    string
	Right   string
}

// ForHand returns the pattern variant for the given hand, falling back to
// the default pattern.
func (p AliasPattern) ForHand(h Hand) string {
	if h == HandLeft && p.Left != "" {
		return p.Left
	}
	if h == HandRight && p.Right != "" {
		return p.Right
	}
	return p.Default
}

// IsZero reports whether no pattern variant is set.
func (p AliasPattern) IsZero() bool {
	return p.Default == "" && p.Left == "" && p.Right == ""
}

// BehaviorAlias is a named parameterized keycode template. A token of the
// form "alias:p1:p2" binds p1, p2 to the declared parameter names
// positionally and substitutes them into the firmware's pattern.
type BehaviorAlias struct {
	Name        string
	Description string
	Params      []string
	Patterns    map[Firmware]AliasPattern
	Support     map[Firmware]bool
}

// Supports reports whether the alias is valid on the given firmware.
func (a *BehaviorAlias) Supports(f Firmware) bool {
	return a.Support[f]
}

// Expand fills the firmware pattern with positional arguments. The argument
// count must exactly match the declared parameter arity.
func (a *BehaviorAlias) Expand(f Firmware, h Hand, args []string) (string, error) {
	if len(args) != len(a.Params) {
		return "", errors.NewConfigError(
			"alias %s expects %d parameters, got %d", a.Name, len(a.Params), len(args))
	}
	pattern := a.Patterns[f].ForHand(h)
	pairs := make([]string, 0, len(a.Params)*2)
	for i, name := range a.Params {
		pairs = append(pairs, "{"+name+"}", args[i])
	}
	return strings.NewReplacer(pairs...).Replace(pattern), nil
}

// AliasTable maps alias names to their definitions.
type AliasTable map[string]*BehaviorAlias

// KeycodePair holds one simple keycode's literal per firmware. An empty
// string marks the keycode as unsupported on that firmware; translators
// resolve it to the firmware's no-op keycode.
type KeycodePair struct {
	QMK string `yaml:"qmk"`
	ZMK string `yaml:"zmk"`
}

// For returns the literal for the given firmware.
func (p KeycodePair) For(f Firmware) string {
	if f == FirmwareQMK {
		return p.QMK
	}
	return p.ZMK
}

// KeycodeTable maps common key names to their per-firmware literals.
type KeycodeTable map[string]KeycodePair

// Lookup returns the firmware literal for a key name. The second return is
// false when the name is not in the table at all; a present-but-empty
// literal means "unsupported on this firmware".
func (t KeycodeTable) Lookup(name string, f Firmware) (string, bool) {
	pair, ok := t[name]
	if !ok {
		return "", false
	}
	return pair.For(f), true
}
