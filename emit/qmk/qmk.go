// Package qmk renders QMK C source artifacts from compiled layers: the
// keymap.c layer arrays with combo and magic-key dispatch, plus config.h,
// rules.mk and a README summary. Output is deterministic: regenerating from
// unchanged input yields byte-identical files.
package qmk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dario/keymapgen/errors"
	"github.com/dario/keymapgen/geometry"
	"github.com/dario/keymapgen/keymap"
	"github.com/dario/keymapgen/translate"
)

// Input bundles everything the generator needs for one board.
type Input struct {
	Board    *keymap.Board
	Config   *keymap.KeymapConfiguration
	Layers   []*keymap.CompiledLayer
	Shape    *geometry.Shape
	Trans    translate.Translator
	UserName string
}

// Generate renders all QMK files for one board, keyed by file name.
func Generate(in Input) (map[string]string, error) {
	keymapC, err := generateKeymapC(in)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"keymap.c":  keymapC,
		"config.h":  generateConfigH(in),
		"rules.mk":  generateRulesMk(in),
		"README.md": generateReadme(in),
	}, nil
}

func header(board *keymap.Board) string {
	return fmt.Sprintf(`// AUTO-GENERATED - DO NOT EDIT
// Generated from config/keymap.yaml by keymapgen
// Board: %s
// Firmware: QMK
`, board.Name)
}

func generateKeymapC(in Input) (string, error) {
	var b strings.Builder
	b.WriteString(header(in.Board))
	b.WriteString("\n#include \"dario.h\"\n")

	comboMacros := comboMacroNames(in.Config.Combos)
	magicMacros, err := magicMacroNames(in)
	if err != nil {
		return "", err
	}
	if s := customKeycodesSection(comboMacros, magicMacros); s != "" {
		b.WriteString(s)
	}
	if s := extraLayersSection(in); s != "" {
		b.WriteString(s)
	}

	b.WriteString("\nconst uint16_t PROGMEM keymaps[][MATRIX_ROWS][MATRIX_COLS] = {\n")
	for _, layer := range in.Layers {
		macro, err := formatLayout(in.Shape, layer)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "    [%s] = %s,\n", layer.Name, macro)
	}
	b.WriteString("};\n")

	if len(in.Config.Combos) > 0 {
		s, err := combosSection(in, comboMacros)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	if in.Config.Magic != nil && len(in.Config.Magic.Families) > 0 {
		s, err := magicSection(in, magicMacros)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	if len(comboMacros) > 0 || len(magicMacros) > 0 {
		s, err := dispatchSection(in, comboMacros, magicMacros)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// comboMacroNames maps combo name to its generated macro keycode for combos
// carrying embedded text, in declaration order.
func comboMacroNames(combos []*keymap.Combo) map[string]string {
	out := make(map[string]string)
	for _, c := range combos {
		if c.Macro != "" {
			out[c.Name] = "MACRO_" + strings.ToUpper(c.Name)
		}
	}
	return out
}

// magicMacroNames maps (family base, rule when-token) to the macro keycode
// for rules that expand to text rather than a single key.
func magicMacroNames(in Input) (map[string]string, error) {
	out := make(map[string]string)
	if in.Config.Magic == nil {
		return out, nil
	}
	for _, fam := range in.Config.Magic.Families {
		famName := strings.ToUpper(keymap.DisplayName(fam.Base, in.Config.Magic.Families))
		for _, rule := range fam.Rules {
			if rule.Text == "" {
				continue
			}
			id, err := magicKeyIdent(rule.When)
			if err != nil {
				return nil, errors.WithMessagef(err, "magic %s", fam.Base)
			}
			out[fam.Base+"\x00"+rule.When] = "MAGIC_" + famName + "_" + id
		}
	}
	return out, nil
}

// punctuationChars maps non-alphanumeric key tokens to the ASCII codes used
// in generated macro identifiers (SPC becomes CHR_32).
var punctuationChars = map[string]byte{
	"SPC": ' ', "COMM": ',', "DOT": '.', "SCLN": ';',
	"QUOT": '\'', "MINS": '-', "SLSH": '/', "GRV": '`',
}

func magicKeyIdent(when string) (string, error) {
	if ch, ok := punctuationChars[when]; ok {
		return fmt.Sprintf("CHR_%d", ch), nil
	}
	for _, r := range when {
		isAlnum := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
		if !isAlnum {
			return "", errors.NewConfigError("cannot derive macro identifier from key token %q", when)
		}
	}
	return when, nil
}

// customKeycodesSection declares combo macro keycodes (guarded so a
// userspace definition wins) and the magic_macros enum continuing after
// them.
func customKeycodesSection(comboMacros, magicMacros map[string]string) string {
	comboNames := sortedValues(comboMacros)
	magicNames := sortedValues(magicMacros)
	if len(comboNames) == 0 && len(magicNames) == 0 {
		return ""
	}

	var b strings.Builder
	prev := "SAFE_RANGE"
	for i, name := range comboNames {
		fmt.Fprintf(&b, "\n#ifndef %s\n", name)
		if i == 0 {
			fmt.Fprintf(&b, "#define %s SAFE_RANGE\n", name)
		} else {
			fmt.Fprintf(&b, "#define %s (%s + 1)\n", name, prev)
		}
		b.WriteString("#endif\n")
		prev = name
	}
	if len(magicNames) > 0 {
		b.WriteString("\nenum magic_macros {\n")
		for i, name := range magicNames {
			if i == 0 {
				if len(comboNames) > 0 {
					fmt.Fprintf(&b, "    %s = %s + 1,\n", name, prev)
				} else {
					fmt.Fprintf(&b, "    %s = SAFE_RANGE,\n", name)
				}
				continue
			}
			fmt.Fprintf(&b, "    %s,\n", name)
		}
		b.WriteString("};\n")
	}
	return b.String()
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// extraLayersSection extends the userspace layer enum with this board's
// exclusive layers, numbered after the last shared layer.
func extraLayersSection(in Input) string {
	if len(in.Board.ExtraLayers) == 0 {
		return ""
	}
	extra := make(map[string]bool, len(in.Board.ExtraLayers))
	for _, name := range in.Board.ExtraLayers {
		extra[name] = true
	}
	lastShared := ""
	for _, layer := range in.Layers {
		if !extra[layer.Name] {
			lastShared = layer.Name
		}
	}
	if lastShared == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n// Board-specific layers, numbered after the shared enum from dario.h\nenum {\n")
	first := true
	for _, layer := range in.Layers {
		if !extra[layer.Name] {
			continue
		}
		if first {
			fmt.Fprintf(&b, "    %s = %s + 1,\n", layer.Name, lastShared)
			first = false
			continue
		}
		fmt.Fprintf(&b, "    %s,\n", layer.Name)
	}
	b.WriteString("};\n")
	return b.String()
}

// formatLayout renders one layer's LAYOUT macro call row-wrapped in
// compiled block order: left finger rows, right finger rows, thumbs.
func formatLayout(shape *geometry.Shape, layer *keymap.CompiledLayer) (string, error) {
	kcs := layer.Keycodes
	if len(kcs) != shape.KeyCount() {
		return "", errors.Newf("layer %s: expected %d keys for %s, got %d", layer.Name, shape.KeyCount(), shape.Tag(), len(kcs))
	}

	var groups [][]string
	thumbStart := -1
	switch shape.Tag() {
	case geometry.Tag3x5x3:
		for i := 0; i < 30; i += 5 {
			groups = append(groups, kcs[i:i+5])
		}
		groups = append(groups, kcs[30:33], kcs[33:36])
		thumbStart = 6
	case geometry.Tag3x6x3:
		for i := 0; i < 36; i += 6 {
			groups = append(groups, kcs[i:i+6])
		}
		groups = append(groups, kcs[36:39], kcs[39:42])
		thumbStart = 6
	default:
		for i := 0; i < len(kcs); i += 6 {
			end := i + 6
			if end > len(kcs) {
				end = len(kcs)
			}
			groups = append(groups, kcs[i:end])
		}
	}

	fingerIndent := "        "
	thumbIndent := fingerIndent + strings.Repeat(" ", 22)
	var rows []string
	for i, g := range groups {
		padded := make([]string, len(g))
		for j, kc := range g {
			padded[j] = fmt.Sprintf("%-20s", kc)
		}
		indent := fingerIndent
		if thumbStart >= 0 && i >= thumbStart {
			indent = thumbIndent
		}
		line := indent + strings.Join(padded, ", ")
		if i < len(groups)-1 {
			line += ","
		}
		rows = append(rows, line)
	}
	return shape.QMKLayoutMacro() + "(\n" + strings.Join(rows, "\n") + "\n    )", nil
}

// baseLayerKeycodes returns the first base layer's canonical 36 tokens
// translated to QMK tap keycodes, for combo key arrays.
func baseLayerKeycodes(in Input) (string, []string, error) {
	for _, compiled := range in.Layers {
		if !strings.HasPrefix(compiled.Name, "BASE") {
			continue
		}
		layer, ok := in.Config.Layer(compiled.Name)
		if !ok || layer.Core == nil {
			continue
		}
		canonical, err := layer.Core.CoreCanonical()
		if err != nil {
			return "", nil, err
		}
		out := make([]string, len(canonical))
		for i, token := range canonical {
			lit, err := in.Trans.Translate(tapToken(token), translate.Context{Index: i, Hand: keymap.HandLeft, Layer: compiled.Name})
			if err != nil {
				return "", nil, err
			}
			out[i] = lit
		}
		return compiled.Name, out, nil
	}
	return "", nil, errors.NewConfigError("board %s: combos require a base layer with a core grid", in.Board.ID)
}

// tapToken reduces an alias binding to its tap key so combo arrays match
// what the firmware sees on tap (hrm:LGUI:N participates in combos as N).
func tapToken(token string) string {
	if idx := strings.LastIndex(token, ":"); idx >= 0 {
		return token[idx+1:]
	}
	return token
}

func combosSection(in Input, comboMacros map[string]string) (string, error) {
	baseName, baseKeys, err := baseLayerKeycodes(in)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("\n#ifdef COMBO_ENABLE\n\n")
	b.WriteString("enum combo_events {\n")
	for _, c := range in.Config.Combos {
		fmt.Fprintf(&b, "    COMBO_%s,\n", strings.ToUpper(c.Name))
	}
	b.WriteString("    COMBO_LENGTH\n};\n\n#define COMBO_COUNT COMBO_LENGTH\n\n")

	for _, c := range in.Config.Combos {
		keys := make([]string, 0, len(c.KeyPositions)+1)
		for _, pos := range c.KeyPositions {
			keys = append(keys, baseKeys[pos])
		}
		keys = append(keys, "COMBO_END")
		fmt.Fprintf(&b, "const uint16_t PROGMEM %s_combo[] = {%s};\n", c.Name, strings.Join(keys, ", "))
	}

	b.WriteString("\ncombo_t key_combos[] = {\n")
	for i, c := range in.Config.Combos {
		action := comboMacros[c.Name]
		if action == "" {
			translated, err := in.Trans.Translate(c.Action, translate.Context{Layer: baseName})
			if err != nil {
				return "", errors.WithMessagef(err, "combo %s", c.Name)
			}
			action = translated
		}
		sep := ","
		if i == len(in.Config.Combos)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    [COMBO_%s] = COMBO(%s_combo, %s)%s\n", strings.ToUpper(c.Name), c.Name, action, sep)
	}
	b.WriteString("};\n")

	if gated := gatedCombos(in.Config.Combos); len(gated) > 0 {
		b.WriteString("\nbool combo_should_trigger(uint16_t combo_index, combo_t *combo, uint16_t keycode, keyrecord_t *record) {\n")
		b.WriteString("    uint8_t layer = get_current_base_layer();\n\n    switch (combo_index) {\n")
		for _, c := range gated {
			checks := make([]string, len(c.Layers))
			for i, name := range c.Layers {
				checks[i] = "layer == " + name
			}
			fmt.Fprintf(&b, "        case COMBO_%s:\n            return (%s);\n", strings.ToUpper(c.Name), strings.Join(checks, " || "))
		}
		b.WriteString("        default:\n            return true;\n    }\n}\n")
	}
	b.WriteString("\n#endif  // COMBO_ENABLE\n")
	return b.String(), nil
}

func gatedCombos(combos []*keymap.Combo) []*keymap.Combo {
	var out []*keymap.Combo
	for _, c := range combos {
		if len(c.Layers) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// magicSection renders the alternate-repeat dispatch keyed by the current
// base layer, one switch block per family in declaration order.
func magicSection(in Input, magicMacros map[string]string) (string, error) {
	present := make(map[string]bool, len(in.Layers))
	for _, l := range in.Layers {
		present[l.Name] = true
	}

	var b strings.Builder
	b.WriteString("\n// Magic key configuration (alternate repeat key)\n")
	b.WriteString("uint16_t get_alt_repeat_key_keycode_user(uint16_t keycode, uint8_t mods) {\n")
	b.WriteString("    uint8_t base_layer = get_current_base_layer();\n")

	for _, fam := range in.Config.Magic.Families {
		if !present[fam.Base] {
			continue
		}
		fmt.Fprintf(&b, "\n    if (base_layer == %s) {\n        switch (keycode) {\n", fam.Base)
		for _, rule := range fam.Rules {
			when, err := in.Trans.Translate(rule.When, translate.Context{Layer: fam.Base})
			if err != nil {
				return "", errors.WithMessagef(err, "magic %s", fam.Base)
			}
			result := magicMacros[fam.Base+"\x00"+rule.When]
			if result == "" {
				result, err = in.Trans.Translate(rule.Key, translate.Context{Layer: fam.Base})
				if err != nil {
					return "", errors.WithMessagef(err, "magic %s", fam.Base)
				}
			}
			fmt.Fprintf(&b, "            case %s: return %s;\n", when, result)
		}
		b.WriteString("        }\n")
		if def, err := magicDefaultKeycode(in, fam); err != nil {
			return "", err
		} else if def != "QK_REP" {
			fmt.Fprintf(&b, "        return %s;\n", def)
		}
		b.WriteString("    }\n")
	}
	b.WriteString("\n    return QK_REP;\n}\n")
	return b.String(), nil
}

func magicDefaultKeycode(in Input, fam *keymap.MagicBehavior) (string, error) {
	switch fam.Default.Kind {
	case keymap.MagicDefaultNone:
		return "KC_NO", nil
	case keymap.MagicDefaultKey:
		return in.Trans.Translate(fam.Default.Key, translate.Context{Layer: fam.Base})
	default:
		return "QK_REP", nil
	}
}

// dispatchSection renders SEND_STRING dispatch for text macros plus the
// typing-trainer hook that masks them.
func dispatchSection(in Input, comboMacros, magicMacros map[string]string) (string, error) {
	texts := make(map[string]string)
	for _, c := range in.Config.Combos {
		if name, ok := comboMacros[c.Name]; ok {
			texts[name] = c.Macro
		}
	}
	if in.Config.Magic != nil {
		for _, fam := range in.Config.Magic.Families {
			for _, rule := range fam.Rules {
				if name, ok := magicMacros[fam.Base+"\x00"+rule.When]; ok {
					texts[name] = rule.Text
				}
			}
		}
	}
	names := make([]string, 0, len(texts))
	for name := range texts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("\nbool process_magic_record(uint16_t keycode, keyrecord_t *record) {\n")
	b.WriteString("    if (!record->event.pressed) {\n        return true;\n    }\n    switch (keycode) {\n")
	for _, name := range names {
		fmt.Fprintf(&b, "        case %s:\n            SEND_STRING(%s);\n            return false;\n", name, cString(texts[name]))
	}
	b.WriteString("    }\n    return true;\n}\n")

	b.WriteString("\nuint16_t magic_training_first_keycode(uint16_t keycode) {\n    switch (keycode) {\n")
	for _, name := range names {
		fmt.Fprintf(&b, "        case %s: return KC_NO;\n", name)
	}
	b.WriteString("    }\n    return keycode;\n}\n")
	return b.String(), nil
}

func cString(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "\"", "\\\"", "\n", "\\n", "\t", "\\t")
	return "\"" + r.Replace(s) + "\""
}

func generateConfigH(in Input) string {
	return fmt.Sprintf(`// AUTO-GENERATED - DO NOT EDIT
// Generated from config/keymap.yaml by keymapgen
// Board: %s

#pragma once

// Include global QMK config if it exists
#ifdef __has_include
#  if __has_include("../../../../../../config/global/config.h")
#    include "../../../../../../config/global/config.h"
#  endif
#endif
`, in.Board.Name)
}

func generateRulesMk(in Input) string {
	return fmt.Sprintf(`# AUTO-GENERATED - DO NOT EDIT
# Generated from config/boards.yaml by keymapgen
# Board: %s

# User name for userspace integration
USER_NAME := %s

# Include board-specific features if they exist
-include $(USER_PATH)/../../config/boards/%s.mk

# Include global QMK rules if they exist
-include $(USER_PATH)/../../config/global/rules.mk
`, in.Board.Name, in.UserName, in.Board.ID)
}

func generateReadme(in Input) string {
	var viz strings.Builder
	for _, layer := range in.Layers {
		fmt.Fprintf(&viz, "## %s Layer\n\n```\n%s\n```\n\n", layer.Name, layerASCII(layer))
	}
	return fmt.Sprintf(`# Keymap for %s

**Auto-generated from config/keymap.yaml**

Do not edit this file directly. Edit config/keymap.yaml instead and regenerate.

## Build

`+"```bash\nqmk compile -kb %s -km %s\n```"+`

## Layers

%s---

*Generated by keymapgen*
`, in.Board.Name, in.Board.QMKKeyboard, in.UserName, viz.String())
}

// layerASCII draws the 36-key split diagram, or falls back to a plain
// index listing for larger matrices.
func layerASCII(layer *keymap.CompiledLayer) string {
	k := layer.Keycodes
	if len(k) != 36 {
		var b strings.Builder
		for i, kc := range k {
			fmt.Fprintf(&b, "%2d: %s\n", i, kc)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	c := func(i int) string { return fmt.Sprintf("%-7.7s", k[i]) }
	var b strings.Builder
	b.WriteString("╭─────────┬─────────┬─────────┬─────────┬─────────╮   ╭─────────┬─────────┬─────────┬─────────┬─────────╮\n")
	for r := 0; r < 3; r++ {
		left, right := r*5, 15+r*5
		fmt.Fprintf(&b, "│ %s │ %s │ %s │ %s │ %s │   │ %s │ %s │ %s │ %s │ %s │\n",
			c(left), c(left+1), c(left+2), c(left+3), c(left+4),
			c(right), c(right+1), c(right+2), c(right+3), c(right+4))
		if r < 2 {
			b.WriteString("├─────────┼─────────┼─────────┼─────────┼─────────┤   ├─────────┼─────────┼─────────┼─────────┼─────────┤\n")
		}
	}
	b.WriteString("╰─────────┴─────────┴─────────┼─────────┼─────────┤   ├─────────┼─────────┼─────────┴─────────┴─────────╯\n")
	fmt.Fprintf(&b, "                              │ %s │ %s │   │ %s │ %s │\n", c(30), c(31), c(34), c(35))
	fmt.Fprintf(&b, "                              │ %s │ %s │   │ %s │ %s │\n", c(32), fmt.Sprintf("%-7s", ""), c(33), fmt.Sprintf("%-7s", ""))
	b.WriteString("                              ╰─────────┴─────────╯   ╰─────────┴─────────╯")
	return b.String()
}
