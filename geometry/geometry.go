// Package geometry maps the abstract 36-slot core onto the physical key
// matrices of supported boards.
//
// Two orderings are in play. Canonical order interleaves the hands row by
// row (row0 left, row0 right, ..., thumbs) and is what position references
// and combo key positions index. Compiled order is block-major: all left
// finger keys, all right finger keys, left thumbs, right thumbs, extended
// in place by any board-specific extra keys. Translators see compiled
// order; emitters print visual rows.
package geometry

import (
	"github.com/dario/keymapgen/errors"
	"github.com/dario/keymapgen/keymap"
)

// Supported layout-size tags. The set is closed: boards declaring anything
// else are rejected at load time.
const (
	Tag3x5x3    = "3x5_3"
	Tag3x6x3    = "3x6_3"
	TagCustom58 = "custom_58"
	TagLily58   = "lily58"
)

// Shape is one physical board geometry.
type Shape struct {
	tag      string
	count    int
	qmkMacro string

	// rows groups compiled indices into visual rows, top to bottom.
	rows [][]int
	// canonToCompiled maps canonical slot 0-35 to a compiled index.
	canonToCompiled [keymap.CoreKeyCount]int
	// visualOf maps compiled index to its position in row-major visual
	// order, the order ZMK keymap bindings are printed in.
	visualOf []int

	left   func(i int) bool
	expand func(core []string, ext *keymap.LayerExtension, noop string) []string
}

// ForTag returns the geometry for a board's layout_size tag.
func ForTag(tag string) (*Shape, error) {
	switch tag {
	case Tag3x5x3:
		return native36(), nil
	case Tag3x6x3:
		return extended42(), nil
	case TagCustom58:
		return custom58(true), nil
	case TagLily58:
		return custom58(false), nil
	}
	return nil, errors.NewConfigError(
		"unknown layout_size %q (supported: %s, %s, %s, %s)",
		tag, Tag3x5x3, Tag3x6x3, TagCustom58, TagLily58)
}

// Tag returns the layout-size tag.
func (s *Shape) Tag() string { return s.tag }

// KeyCount returns the number of physical keys.
func (s *Shape) KeyCount() int { return s.count }

// QMKLayoutMacro returns the LAYOUT macro name for QMK keymap emission.
func (s *Shape) QMKLayoutMacro() string { return s.qmkMacro }

// ExtensionType names the layer-extension type this geometry consumes, or
// "" when the shape uses the bare core.
func (s *Shape) ExtensionType() string {
	if s.tag == Tag3x6x3 || s.tag == TagCustom58 {
		return keymap.ExtensionOuterPinkyColumn
	}
	return ""
}

// Rows returns compiled indices grouped into visual rows.
func (s *Shape) Rows() [][]int { return s.rows }

// Hand reports which hand presses the key at a compiled index.
func (s *Shape) Hand(i int) keymap.Hand {
	if s.left(i) {
		return keymap.HandLeft
	}
	return keymap.HandRight
}

// Expand maps 36 block-order core tokens onto the physical matrix in
// compiled order. Slots with no core mapping get the firmware's no-op
// token. ext supplies the outer-pinky column keys where the geometry has
// them; a nil ext fills those slots with noop.
func (s *Shape) Expand(core []string, ext *keymap.LayerExtension, noop string) ([]string, error) {
	if len(core) != keymap.CoreKeyCount {
		return nil, errors.NewConfigError("geometry %s: expected %d core keys, got %d", s.tag, keymap.CoreKeyCount, len(core))
	}
	return s.expand(core, ext, noop), nil
}

// ComboPositions translates canonical core positions into the physical
// key-position numbers ZMK combos use, which index the visual binding
// order of the keymap node.
func (s *Shape) ComboPositions(positions []int) ([]int, error) {
	out := make([]int, len(positions))
	for i, p := range positions {
		if p < 0 || p >= keymap.CoreKeyCount {
			return nil, errors.NewConfigError("combo position %d out of range [0, %d)", p, keymap.CoreKeyCount)
		}
		out[i] = s.visualOf[s.canonToCompiled[p]]
	}
	return out, nil
}

func buildVisualOf(count int, rows [][]int) []int {
	visual := make([]int, count)
	n := 0
	for _, row := range rows {
		for _, idx := range row {
			visual[idx] = n
			n++
		}
	}
	return visual
}

// seq returns [from, from+n).
func seq(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func native36() *Shape {
	s := &Shape{
		tag:      Tag3x5x3,
		count:    36,
		qmkMacro: "LAYOUT_split_3x5_3",
		left: func(i int) bool {
			return i < 15 || (i >= 30 && i < 33)
		},
		expand: func(core []string, _ *keymap.LayerExtension, _ string) []string {
			out := make([]string, len(core))
			copy(out, core)
			return out
		},
	}
	for r := 0; r < 3; r++ {
		s.rows = append(s.rows, append(seq(r*5, 5), seq(15+r*5, 5)...))
	}
	s.rows = append(s.rows, seq(30, 6))
	for p := 0; p < 30; p++ {
		row, col := p/10, p%10
		if col < 5 {
			s.canonToCompiled[p] = row*5 + col
		} else {
			s.canonToCompiled[p] = 15 + row*5 + (col - 5)
		}
	}
	for p := 30; p < 36; p++ {
		s.canonToCompiled[p] = p
	}
	s.visualOf = buildVisualOf(s.count, s.rows)
	return s
}

// extended42 adds an outer pinky column per side: each finger row grows to
// six keys, with the extra key leading on the left hand and trailing on the
// right. Compiled order keeps the block layout (left 0-17, right 18-35,
// thumbs 36-41).
func extended42() *Shape {
	s := &Shape{
		tag:      Tag3x6x3,
		count:    42,
		qmkMacro: "LAYOUT_split_3x6_3",
		left: func(i int) bool {
			return i < 18 || (i >= 36 && i < 39)
		},
		expand: func(core []string, ext *keymap.LayerExtension, noop string) []string {
			out := make([]string, 0, 42)
			for r := 0; r < 3; r++ {
				out = append(out, outerKey(ext, keymap.HandLeft, r, noop))
				out = append(out, core[r*5:r*5+5]...)
			}
			for r := 0; r < 3; r++ {
				out = append(out, core[15+r*5:15+r*5+5]...)
				out = append(out, outerKey(ext, keymap.HandRight, r, noop))
			}
			out = append(out, core[30:36]...)
			return out
		},
	}
	for r := 0; r < 3; r++ {
		s.rows = append(s.rows, append(seq(r*6, 6), seq(18+r*6, 6)...))
	}
	s.rows = append(s.rows, seq(36, 6))
	for p := 0; p < 30; p++ {
		row, col := p/10, p%10
		if col < 5 {
			s.canonToCompiled[p] = row*6 + col + 1
		} else {
			s.canonToCompiled[p] = 18 + row*6 + (col - 5)
		}
	}
	for p := 30; p < 36; p++ {
		s.canonToCompiled[p] = 36 + (p - 30)
	}
	s.visualOf = buildVisualOf(s.count, s.rows)
	return s
}

// custom58 is a 58-key matrix: a blank number row, three 12-wide finger
// rows (the bottom one 14 wide with two extra center keys), and an 8-slot
// thumb row holding the six canonical thumbs. With outer columns enabled it
// consumes the same outer-pinky extension as the 42-key shape; without, the
// outer columns stay no-ops.
func custom58(outerColumns bool) *Shape {
	tag := TagCustom58
	if !outerColumns {
		tag = TagLily58
	}
	s := &Shape{
		tag:      tag,
		count:    58,
		qmkMacro: "LAYOUT",
		left: func(i int) bool {
			switch {
			case i < 12:
				return i < 6
			case i < 36:
				return (i-12)%12 < 6
			case i < 50:
				return i < 43
			default:
				return i < 54
			}
		},
		expand: func(core []string, ext *keymap.LayerExtension, noop string) []string {
			if !outerColumns {
				ext = nil
			}
			out := make([]string, 0, 58)
			for i := 0; i < 12; i++ {
				out = append(out, noop)
			}
			for r := 0; r < 2; r++ {
				out = append(out, outerKey(ext, keymap.HandLeft, r, noop))
				out = append(out, core[r*5:r*5+5]...)
				out = append(out, core[15+r*5:15+r*5+5]...)
				out = append(out, outerKey(ext, keymap.HandRight, r, noop))
			}
			out = append(out, outerKey(ext, keymap.HandLeft, 2, noop))
			out = append(out, core[10:15]...)
			out = append(out, noop, noop)
			out = append(out, core[25:30]...)
			out = append(out, outerKey(ext, keymap.HandRight, 2, noop))
			out = append(out, noop)
			out = append(out, core[30:36]...)
			out = append(out, noop)
			return out
		},
	}
	// Compiled order is already row-major here.
	s.rows = [][]int{seq(0, 12), seq(12, 12), seq(24, 12), seq(36, 14), seq(50, 8)}
	for p := 0; p < 30; p++ {
		row, col := p/10, p%10
		switch {
		case row < 2:
			s.canonToCompiled[p] = 12 + row*12 + col + 1
		case col < 5:
			s.canonToCompiled[p] = 37 + col
		default:
			s.canonToCompiled[p] = 44 + (col - 5)
		}
	}
	for p := 30; p < 36; p++ {
		s.canonToCompiled[p] = 51 + (p - 30)
	}
	s.visualOf = buildVisualOf(s.count, s.rows)
	return s
}

func outerKey(ext *keymap.LayerExtension, h keymap.Hand, row int, noop string) string {
	if ext == nil {
		return noop
	}
	keys := ext.OuterPinkyLeft
	if h == keymap.HandRight {
		keys = ext.OuterPinkyRight
	}
	if row >= len(keys) || keys[row] == "" || keys[row] == keymap.TokenNone {
		return noop
	}
	return keys[row]
}
