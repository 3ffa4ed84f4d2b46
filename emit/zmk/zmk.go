// Package zmk renders ZMK devicetree keymap files from compiled layers:
// layer nodes with row-grouped bindings, combo nodes, behavior macros for
// embedded text, and one adaptive magic-key behavior per base-layer family.
// Output is deterministic for unchanged input.
package zmk

import (
	"fmt"
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

// Generate renders all ZMK files for one board, keyed by file name.
func Generate(in Input) (map[string]string, error) {
	km, err := generateKeymap(in)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		in.Board.ShieldOrBoard() + ".keymap": km,
		"README.md":                          generateReadme(in),
	}, nil
}

func generateKeymap(in Input) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `// AUTO-GENERATED - DO NOT EDIT
// Generated from config/keymap.yaml by keymapgen
// Board: %s
// Shield/Board: %s

#include <behaviors.dtsi>
#include <dt-bindings/zmk/keys.h>
#include <dt-bindings/zmk/bt.h>
#include "dario_behaviors.dtsi"

`, in.Board.Name, in.Board.ShieldOrBoard())

	for idx, layer := range in.Layers {
		fmt.Fprintf(&b, "#define %s %d\n", layer.Name, idx)
	}
	b.WriteString("\n/ {\n")

	if len(in.Config.Combos) > 0 {
		s, err := combosSection(in)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	macros, err := macrosSection(in)
	if err != nil {
		return "", err
	}
	b.WriteString(macros)
	behaviors, err := behaviorsSection(in)
	if err != nil {
		return "", err
	}
	b.WriteString(behaviors)

	b.WriteString("    keymap {\n        compatible = \"zmk,keymap\";\n\n")
	layerDefs := make([]string, 0, len(in.Layers))
	for _, layer := range in.Layers {
		def, err := formatLayer(in, layer)
		if err != nil {
			return "", err
		}
		layerDefs = append(layerDefs, def)
	}
	b.WriteString(strings.Join(layerDefs, "\n\n"))
	b.WriteString("\n    };\n};\n")
	return b.String(), nil
}

func formatLayer(in Input, layer *keymap.CompiledLayer) (string, error) {
	if layer.Len() != in.Shape.KeyCount() {
		return "", errors.Newf("layer %s: expected %d keys for %s, got %d",
			layer.Name, in.Shape.KeyCount(), in.Shape.Tag(), layer.Len())
	}
	var rows []string
	for _, row := range in.Shape.Rows() {
		cells := make([]string, len(row))
		for i, idx := range row {
			cells[i] = layer.Keycodes[idx]
		}
		rows = append(rows, strings.Repeat(" ", 16)+strings.Join(cells, " "))
	}
	display := keymap.DisplayName(layer.Name, magicFamilies(in))
	return fmt.Sprintf(`        %s_layer {
            display-name = "%s";
            bindings = <
%s
            >;
        };`, strings.ToLower(layer.Name), display, strings.Join(rows, "\n")), nil
}

func magicFamilies(in Input) []*keymap.MagicBehavior {
	if in.Config.Magic == nil {
		return nil
	}
	return in.Config.Magic.Families
}

func combosSection(in Input) (string, error) {
	indices := make(map[string]int, len(in.Layers))
	for i, l := range in.Layers {
		indices[l.Name] = i
	}

	var defs []string
	for _, c := range in.Config.Combos {
		positions, err := in.Shape.ComboPositions(c.KeyPositions)
		if err != nil {
			return "", errors.WithMessagef(err, "combo %s", c.Name)
		}
		posStrs := make([]string, len(positions))
		for i, p := range positions {
			posStrs[i] = fmt.Sprintf("%d", p)
		}

		binding := "&" + comboMacroName(c)
		if c.Macro == "" {
			binding, err = in.Trans.Translate(c.Action, translate.Context{Layer: firstLayerName(in)})
			if err != nil {
				return "", errors.WithMessagef(err, "combo %s", c.Name)
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "        combo_%s {\n", c.Name)
		fmt.Fprintf(&b, "            timeout-ms = <%d>;\n", c.TimeoutMs)
		fmt.Fprintf(&b, "            key-positions = <%s>;\n", strings.Join(posStrs, " "))
		fmt.Fprintf(&b, "            bindings = <%s>;", binding)
		if layerIdx := comboLayerIndices(c, indices); len(layerIdx) > 0 {
			fmt.Fprintf(&b, "\n            layers = <%s>;", strings.Join(layerIdx, " "))
		}
		if c.RequirePriorIdleMs > 0 {
			fmt.Fprintf(&b, "\n            require-prior-idle-ms = <%d>;", c.RequirePriorIdleMs)
		}
		if c.SlowRelease {
			b.WriteString("\n            slow-release;")
		}
		b.WriteString("\n        };")
		defs = append(defs, b.String())
	}

	return "    combos {\n        compatible = \"zmk,combos\";\n\n" +
		strings.Join(defs, "\n\n") + "\n    };\n\n", nil
}

func comboLayerIndices(c *keymap.Combo, indices map[string]int) []string {
	var out []string
	for _, name := range c.Layers {
		if idx, ok := indices[name]; ok {
			out = append(out, fmt.Sprintf("%d", idx))
		}
	}
	return out
}

func firstLayerName(in Input) string {
	if len(in.Layers) > 0 {
		return in.Layers[0].Name
	}
	return ""
}

func comboMacroName(c *keymap.Combo) string {
	return "macro_" + strings.ToLower(c.Name)
}

func magicMacroName(fam *keymap.MagicBehavior, families []*keymap.MagicBehavior, when string) string {
	return fmt.Sprintf("macro_%s_%s",
		strings.ToLower(keymap.DisplayName(fam.Base, families)),
		strings.ToLower(magicRuleIdent(when)))
}

var punctuationChars = map[string]byte{
	"SPC": ' ', "COMM": ',', "DOT": '.', "SCLN": ';',
	"QUOT": '\'', "MINS": '-', "SLSH": '/', "GRV": '`',
}

func magicRuleIdent(when string) string {
	if ch, ok := punctuationChars[when]; ok {
		return fmt.Sprintf("chr_%d", ch)
	}
	return when
}

// macrosSection renders zmk,behavior-macro nodes for every embedded text
// expansion: combo macros first, then magic-rule texts in family order.
func macrosSection(in Input) (string, error) {
	type textMacro struct {
		name string
		text string
	}
	var macros []textMacro
	for _, c := range in.Config.Combos {
		if c.Macro != "" {
			macros = append(macros, textMacro{name: comboMacroName(c), text: c.Macro})
		}
	}
	present := presentLayers(in)
	for _, fam := range magicFamilies(in) {
		if !present[fam.Base] {
			continue
		}
		for _, rule := range fam.Rules {
			if rule.Text != "" {
				macros = append(macros, textMacro{
					name: magicMacroName(fam, magicFamilies(in), rule.When),
					text: rule.Text,
				})
			}
		}
	}
	if len(macros) == 0 {
		return "", nil
	}

	var defs []string
	for _, m := range macros {
		bindings, err := textBindings(m.text)
		if err != nil {
			return "", errors.WithMessagef(err, "macro %s", m.name)
		}
		defs = append(defs, fmt.Sprintf(`        %s: %s {
            compatible = "zmk,behavior-macro";
            #binding-cells = <0>;
            wait-ms = <0>;
            tap-ms = <0>;
            bindings = <%s>;
        };`, m.name, m.name, bindings))
	}
	return "    macros {\n" + strings.Join(defs, "\n\n") + "\n    };\n\n", nil
}

// charBindings maps the characters text macros may contain to ZMK key
// names. Uppercase letters go through LS().
var charBindings = map[rune]string{
	' ': "SPACE", '.': "DOT", ',': "COMMA", '\'': "SQT", '-': "MINUS",
	'/': "FSLH", ';': "SEMI", ':': "COLON", '@': "AT", '_': "UNDERSCORE",
	'!': "EXCL", '?': "QMARK", '0': "N0", '1': "N1", '2': "N2", '3': "N3",
	'4': "N4", '5': "N5", '6': "N6", '7': "N7", '8': "N8", '9': "N9",
}

func textBindings(text string) (string, error) {
	var keys []string
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			keys = append(keys, "&kp "+strings.ToUpper(string(r)))
		case r >= 'A' && r <= 'Z':
			keys = append(keys, "&kp LS("+string(r)+")")
		default:
			name, ok := charBindings[r]
			if !ok {
				return "", errors.NewConfigError("unsupported character %q in text macro", string(r))
			}
			keys = append(keys, "&kp "+name)
		}
	}
	return strings.Join(keys, " "), nil
}

// behaviorsSection renders one adaptive-key node per base-layer family
// plus its paired hold-tap wrapper so the magic behavior can sit on the
// tap side of a layer-tap binding.
func behaviorsSection(in Input) (string, error) {
	present := presentLayers(in)
	var defs []string
	for _, fam := range magicFamilies(in) {
		if !present[fam.Base] {
			continue
		}
		node, err := magicBehaviorNode(in, fam)
		if err != nil {
			return "", err
		}
		defs = append(defs, node)
	}
	if len(defs) == 0 {
		return "", nil
	}
	return "    behaviors {\n" + strings.Join(defs, "\n\n") + "\n    };\n\n", nil
}

func presentLayers(in Input) map[string]bool {
	out := make(map[string]bool, len(in.Layers))
	for _, l := range in.Layers {
		out[l.Name] = true
	}
	return out
}

func magicBehaviorNode(in Input, fam *keymap.MagicBehavior) (string, error) {
	families := magicFamilies(in)
	magicName := strings.TrimPrefix(translate.MagicBehaviorRef(fam.Base, in.Config.Magic), "&")
	ltName := strings.TrimPrefix(translate.MagicLayerTapRef(fam.Base, in.Config.Magic), "&")

	var b strings.Builder
	fmt.Fprintf(&b, "        %s: %s {\n", magicName, magicName)
	b.WriteString("            compatible = \"zmk,behavior-antecedent-morph\";\n")
	b.WriteString("            #binding-cells = <0>;\n")
	def, err := magicDefaultBinding(in, fam)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "            defaults = <%s>;\n", def)
	fmt.Fprintf(&b, "            max-delay-ms = <%d>;\n", fam.TimeoutMs)
	for _, rule := range fam.Rules {
		binding := "&" + magicMacroName(fam, families, rule.When)
		if rule.Text == "" {
			translated, err := in.Trans.Translate(rule.Key, translate.Context{Layer: fam.Base})
			if err != nil {
				return "", errors.WithMessagef(err, "magic %s", fam.Base)
			}
			binding = translated
		}
		antecedent, err := antecedentKey(in, fam, rule.When)
		if err != nil {
			return "", err
		}
		ident := strings.ToLower(magicRuleIdent(rule.When))
		fmt.Fprintf(&b, "\n            %s_%s {\n", strings.ToLower(keymap.DisplayName(fam.Base, families)), ident)
		fmt.Fprintf(&b, "                antecedents = <%s>;\n", antecedent)
		fmt.Fprintf(&b, "                bindings = <%s>;\n", binding)
		if rule.RequirePriorIdleMs > 0 {
			fmt.Fprintf(&b, "                max-delay-ms = <%d>;\n", rule.RequirePriorIdleMs)
		}
		b.WriteString("            };\n")
	}
	b.WriteString("        };\n\n")

	fmt.Fprintf(&b, `        %s: %s {
            compatible = "zmk,behavior-hold-tap";
            #binding-cells = <2>;
            flavor = "balanced";
            tapping-term-ms = <200>;
            bindings = <&mo>, <&%s>;
        };`, ltName, ltName, magicName)
	return b.String(), nil
}

// antecedentKey resolves a trigger token to the bare ZMK key name the
// antecedents property expects. Trigger keys must be plain keypresses.
func antecedentKey(in Input, fam *keymap.MagicBehavior, when string) (string, error) {
	lit, err := in.Trans.Translate(when, translate.Context{Layer: fam.Base})
	if err != nil {
		return "", errors.WithMessagef(err, "magic %s", fam.Base)
	}
	if !strings.HasPrefix(lit, "&kp ") {
		return "", errors.NewConfigError(
			"magic %s: trigger %q does not resolve to a plain key (%s)", fam.Base, when, lit)
	}
	return strings.TrimPrefix(lit, "&kp "), nil
}

func magicDefaultBinding(in Input, fam *keymap.MagicBehavior) (string, error) {
	switch fam.Default.Kind {
	case keymap.MagicDefaultNone:
		return "&none", nil
	case keymap.MagicDefaultKey:
		return in.Trans.Translate(fam.Default.Key, translate.Context{Layer: fam.Base})
	default:
		return "&key_repeat", nil
	}
}

func generateReadme(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Keymap Visualization: %s\n\n", in.Board.Name)
	for _, layer := range in.Layers {
		fmt.Fprintf(&b, "## %s Layer\n\n```\n", layer.Name)
		if layer.Len() == 36 {
			writeSplitDiagram(&b, layer.Keycodes)
		} else {
			for i, kc := range layer.Keycodes {
				fmt.Fprintf(&b, "%2d: %s\n", i, kc)
			}
		}
		b.WriteString("```\n\n")
	}
	b.WriteString("*Generated by keymapgen*\n")
	return b.String()
}

func writeSplitDiagram(b *strings.Builder, keycodes []string) {
	cell := func(i int) string { return fmt.Sprintf("%-4.4s", simplify(keycodes[i])) }
	row := func(left, right int) {
		cells := make([]string, 0, 10)
		for i := 0; i < 5; i++ {
			cells = append(cells, cell(left+i))
		}
		line := "│ " + strings.Join(cells, " ") + " │    │ "
		cells = cells[:0]
		for i := 0; i < 5; i++ {
			cells = append(cells, cell(right+i))
		}
		fmt.Fprintf(b, "%s%s │\n", line, strings.Join(cells, " "))
	}
	b.WriteString("Left Hand              Right Hand\n")
	b.WriteString("╭─────────────────╮    ╭─────────────────╮\n")
	row(0, 15)
	row(5, 20)
	row(10, 25)
	b.WriteString("╰─────────────────╯    ╰─────────────────╯\n")
	fmt.Fprintf(b, "      %s %s %s              %s %s %s\n",
		cell(30), cell(31), cell(32), cell(33), cell(34), cell(35))
}

// simplify compresses a ZMK binding into a short display cell.
func simplify(binding string) string {
	kc := strings.TrimPrefix(binding, "&")
	if strings.HasPrefix(kc, "kp ") {
		return strings.TrimPrefix(kc, "kp ")
	}
	if kc == "none" {
		return "___"
	}
	if kc == "trans" {
		return "▽▽▽"
	}
	fields := strings.Fields(kc)
	if len(fields) >= 3 {
		switch {
		case strings.HasPrefix(fields[0], "hm"):
			return fields[2] + "/" + strings.TrimPrefix(fields[1], "L")
		case strings.HasPrefix(fields[0], "lt"):
			return fields[2] + "/" + fields[1]
		}
	}
	if len(fields) > 1 {
		return strings.ToUpper(fields[0])
	}
	return strings.ToUpper(kc)
}
