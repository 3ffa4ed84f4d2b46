package translate

import (
	"strings"

	"github.com/dario/keymapgen/errors"
	"github.com/dario/keymapgen/keymap"
)

// qmkNoop is the QMK no-op keycode.
const qmkNoop = "KC_NO"

// qmkForeignAliases names alias prefixes that belong to ZMK; tokens using
// them resolve to no-ops on QMK instead of failing validation.
var qmkForeignAliases = map[string]bool{
	"bt":        true,
	"out":       true,
	"ext_power": true,
	"rgb_ug":    true,
	"bl":        true,
}

// qmkValidMods is the modifier set accepted by the home-row-mod alias.
var qmkValidMods = map[string]bool{
	"LGUI": true, "RGUI": true,
	"LALT": true, "RALT": true,
	"LCTL": true, "RCTL": true,
	"LSFT": true, "RSFT": true,
}

// QMK translates abstract tokens into QMK C keycode syntax.
type QMK struct {
	tables Tables
}

// NewQMK builds the QMK translator.
func NewQMK(tables Tables) *QMK {
	return &QMK{tables: tables}
}

func (q *QMK) Firmware() keymap.Firmware { return keymap.FirmwareQMK }

func (q *QMK) Noop() string { return qmkNoop }

// Translate resolves one token to a QMK keycode expression.
func (q *QMK) Translate(token string, ctx Context) (string, error) {
	if token == keymap.TokenNone {
		return qmkNoop, nil
	}
	if token == keymap.TokenMagic {
		// The magic key rides QMK's alternate-repeat hook; the family only
		// selects which dispatch table the generated C consults.
		if _, ok := q.tables.Magic.ResolveFamily(ctx.Layer); ok {
			return "QK_AREP", nil
		}
		return qmkNoop, nil
	}
	if literal, ok := q.tables.Keycodes.Lookup(token, keymap.FirmwareQMK); ok {
		if literal == "" {
			return qmkNoop, nil
		}
		return literal, nil
	}
	if strings.Contains(token, ":") {
		return q.translateAlias(token, ctx)
	}
	if strings.HasPrefix(token, "KC_") || strings.HasPrefix(token, "QK_") {
		return token, nil
	}
	// Function-like macros (e.g. LSFT(KC_TAB)) and un-prefixed QMK keycode
	// families pass through untouched.
	if strings.Contains(token, "(") {
		return token, nil
	}
	if strings.HasPrefix(token, "RGB_") || strings.HasPrefix(token, "RM_") {
		return token, nil
	}
	return "KC_" + token, nil
}

func (q *QMK) translateAlias(token string, ctx Context) (string, error) {
	name, args := splitAlias(token)

	if isLayerTapMagic(name, args) {
		// QK_AREP cannot be wrapped in KC_ syntax; build the layer-tap
		// around the raw repeat keycode directly.
		if _, ok := q.tables.Magic.ResolveFamily(ctx.Layer); ok {
			return "LT(" + args[0] + ", QK_AREP)", nil
		}
		return "LT(" + args[0] + ", " + qmkNoop + ")", nil
	}

	alias, ok := q.tables.Aliases[name]
	if !ok {
		if qmkForeignAliases[name] {
			return qmkNoop, nil
		}
		return "", errors.NewConfigError("layer %s: unknown behavior alias %q in %q", ctx.Layer, name, token)
	}
	if !alias.Supports(keymap.FirmwareQMK) {
		return qmkNoop, nil
	}

	out, err := alias.Expand(keymap.FirmwareQMK, ctx.Hand, args)
	if err != nil {
		return "", errors.WithMessagef(err, "layer %s: %q", ctx.Layer, token)
	}
	return out, nil
}

// Validate checks one token without translating it.
func (q *QMK) Validate(token string, ctx Context) error {
	if !strings.Contains(token, ":") {
		return nil
	}
	name, args := splitAlias(token)
	if isLayerTapMagic(name, args) {
		return nil
	}
	alias, ok := q.tables.Aliases[name]
	if !ok {
		if qmkForeignAliases[name] {
			return nil
		}
		return errors.NewConfigError("layer %s: unknown behavior alias %q in %q", ctx.Layer, name, token)
	}
	if !alias.Supports(keymap.FirmwareQMK) {
		return nil
	}
	if len(args) != len(alias.Params) {
		return errors.NewConfigError(
			"layer %s: alias %q expects %d parameters, got %d in %q",
			ctx.Layer, name, len(alias.Params), len(args), token)
	}
	if name == aliasHRM && !qmkValidMods[args[0]] {
		return errors.NewConfigError(
			"layer %s: invalid modifier %q in %q (valid: LGUI RGUI LALT RALT LCTL RCTL LSFT RSFT)",
			ctx.Layer, args[0], token)
	}
	return nil
}
