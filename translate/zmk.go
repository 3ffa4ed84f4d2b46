package translate

import (
	"strconv"
	"strings"

	"github.com/dario/keymapgen/errors"
	"github.com/dario/keymapgen/keymap"
)

// zmkNoop is the ZMK no-op binding.
const zmkNoop = "&none"

// zmkForeignAliases names alias prefixes that belong to QMK; tokens using
// them resolve to no-ops on ZMK instead of failing validation.
var zmkForeignAliases = map[string]bool{
	"rgb": true,
	"bl":  true,
}

// zmkValidMods is the modifier set accepted by the home-row-mod alias.
// ZMK spells shift and control differently than QMK.
var zmkValidMods = map[string]bool{
	"LGUI": true, "RGUI": true,
	"LALT": true, "RALT": true,
	"LCTRL": true, "RCTRL": true,
	"LSHFT": true, "RSHFT": true,
}

// qkMap translates QMK-specific QK_ keycodes that have direct ZMK
// equivalents; any other QK_ code is a no-op on ZMK.
var qkMap = map[string]string{
	"QK_BOOT": "&bootloader",
	"QK_RBT":  "&sys_reset",
}

// ZMK translates abstract tokens into ZMK devicetree binding syntax.
type ZMK struct {
	tables Tables

	// layerIndices maps layer names to their emission index; layer-tap
	// bindings reference layers numerically.
	layerIndices map[string]int
}

// NewZMK builds the ZMK translator for one board's layer set.
func NewZMK(tables Tables, layerIndices map[string]int) *ZMK {
	return &ZMK{tables: tables, layerIndices: layerIndices}
}

func (z *ZMK) Firmware() keymap.Firmware { return keymap.FirmwareZMK }

func (z *ZMK) Noop() string { return zmkNoop }

// Translate resolves one token to a ZMK binding.
func (z *ZMK) Translate(token string, ctx Context) (string, error) {
	if token == keymap.TokenNone {
		return zmkNoop, nil
	}
	if token == keymap.TokenMagic {
		if base, ok := z.tables.Magic.ResolveFamily(ctx.Layer); ok {
			return MagicBehaviorRef(base, z.tables.Magic), nil
		}
		return zmkNoop, nil
	}
	if literal, ok := z.tables.Keycodes.Lookup(token, keymap.FirmwareZMK); ok {
		if literal == "" {
			return zmkNoop, nil
		}
		return literal, nil
	}
	if strings.Contains(token, ":") {
		return z.translateAlias(token, ctx)
	}
	if strings.HasPrefix(token, "KC_") {
		return "&kp " + strings.TrimPrefix(token, "KC_"), nil
	}
	if strings.HasPrefix(token, "QK_") {
		if mapped, ok := qkMap[token]; ok {
			return mapped, nil
		}
		return zmkNoop, nil
	}
	return "&kp " + token, nil
}

func (z *ZMK) translateAlias(token string, ctx Context) (string, error) {
	name, args := splitAlias(token)

	if isLayerTapMagic(name, args) {
		// The magic behavior is itself a binding, so it cannot sit inside
		// &lt's keycode slot; a dedicated hold-tap node pairs the layer
		// hold with the family's magic tap.
		idx, err := z.layerIndex(args[0], ctx, token)
		if err != nil {
			return "", err
		}
		if base, ok := z.tables.Magic.ResolveFamily(ctx.Layer); ok {
			return MagicLayerTapRef(base, z.tables.Magic) + " " + idx + " 0", nil
		}
		return "&lt " + idx + " 0", nil
	}

	alias, ok := z.tables.Aliases[name]
	if !ok {
		if zmkForeignAliases[name] {
			return zmkNoop, nil
		}
		return "", errors.NewConfigError("layer %s: unknown behavior alias %q in %q", ctx.Layer, name, token)
	}
	if !alias.Supports(keymap.FirmwareZMK) {
		return zmkNoop, nil
	}

	resolved := make([]string, len(args))
	copy(resolved, args)
	if name == aliasLayerTap {
		for i, param := range alias.Params {
			if param == "layer" && i < len(resolved) {
				idx, err := z.layerIndex(resolved[i], ctx, token)
				if err != nil {
					return "", err
				}
				resolved[i] = idx
			}
		}
	}
	out, err := alias.Expand(keymap.FirmwareZMK, ctx.Hand, resolved)
	if err != nil {
		return "", errors.WithMessagef(err, "layer %s: %q", ctx.Layer, token)
	}
	return out, nil
}

// layerIndex resolves a layer-tap layer argument. Names map through the
// board's layer table; raw numbers pass straight through.
func (z *ZMK) layerIndex(name string, ctx Context, token string) (string, error) {
	if idx, ok := z.layerIndices[name]; ok {
		return strconv.Itoa(idx), nil
	}
	if _, err := strconv.Atoi(name); err == nil {
		return name, nil
	}
	return "", errors.NewConfigError("layer %s: layer-tap references unknown layer %q in %q", ctx.Layer, name, token)
}

// Validate checks one token without translating it.
func (z *ZMK) Validate(token string, ctx Context) error {
	if !strings.Contains(token, ":") {
		return nil
	}
	name, args := splitAlias(token)
	if isLayerTapMagic(name, args) {
		return nil
	}
	alias, ok := z.tables.Aliases[name]
	if !ok {
		if zmkForeignAliases[name] {
			return nil
		}
		return errors.NewConfigError("layer %s: unknown behavior alias %q in %q", ctx.Layer, name, token)
	}
	if !alias.Supports(keymap.FirmwareZMK) {
		return nil
	}
	if len(args) != len(alias.Params) {
		return errors.NewConfigError(
			"layer %s: alias %q expects %d parameters, got %d in %q",
			ctx.Layer, name, len(alias.Params), len(args), token)
	}
	if name == aliasHRM && !zmkValidMods[args[0]] {
		return errors.NewConfigError(
			"layer %s: invalid modifier %q in %q (valid: LGUI RGUI LALT RALT LCTRL RCTRL LSHFT RSHFT)",
			ctx.Layer, args[0], token)
	}
	return nil
}
