package keymap

import (
	"gopkg.in/yaml.v3"

	"github.com/dario/keymapgen/errors"
)

// CoreKeyCount is the number of abstract slots in a core grid: two 3x5 hand
// blocks plus 3+3 thumb keys.
const CoreKeyCount = 36

// Cell is one slot in a KeyGrid: either a literal keycode token, or a
// position reference that defers resolution to another grid's canonical
// 36-slot order.
type Cell struct {
	// Token is the literal keycode token. Numeric YAML scalars arrive here
	// as their literal text ("1", not 1).
	Token string

	// IsRef marks a position reference ({ref: ..., index: n}).
	IsRef bool
	// RefGrid names the referenced grid (informational; only the core grid
	// can be referenced).
	RefGrid string
	// RefIndex is the canonical 36-slot index being referenced.
	RefIndex int
}

// Lit builds a literal cell. Convenience for tests and programmatic grids.
func Lit(token string) Cell {
	return Cell{Token: token}
}

// Ref builds a position-reference cell.
func Ref(index int) Cell {
	return Cell{IsRef: true, RefGrid: "core", RefIndex: index}
}

// UnmarshalYAML decodes a cell from either a scalar token or a
// {ref, index} mapping.
func (c *Cell) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		c.Token = value.Value
		return nil
	case yaml.MappingNode:
		var ref struct {
			Ref   string `yaml:"ref"`
			Index *int   `yaml:"index"`
		}
		if err := value.Decode(&ref); err != nil {
			return errors.NewConfigError("invalid key cell at line %d: %v", value.Line, err)
		}
		if ref.Ref == "" || ref.Index == nil {
			return errors.NewConfigError("position reference at line %d must have both 'ref' and 'index'", value.Line)
		}
		c.IsRef = true
		c.RefGrid = ref.Ref
		c.RefIndex = *ref.Index
		return nil
	default:
		return errors.NewConfigError("key cell at line %d must be a scalar or a {ref, index} mapping", value.Line)
	}
}

// KeyGrid is an ordered sequence of rows of cells.
//
// When used as a core grid the rows follow the canonical block order: left
// rows 0-2, right rows 0-2, left thumbs, right thumbs, and flattening must
// yield exactly 36 cells. A full_layout grid carries no such constraint; its
// flattened order is the board's physical matrix order.
type KeyGrid struct {
	Rows [][]Cell
}

// UnmarshalYAML decodes a grid from a list of rows (each a list of cells).
func (g *KeyGrid) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return errors.NewConfigError("key grid at line %d must be a list of rows", value.Line)
	}
	return value.Decode(&g.Rows)
}

// Flatten returns all cells in row order.
func (g *KeyGrid) Flatten() []Cell {
	var out []Cell
	for _, row := range g.Rows {
		out = append(out, row...)
	}
	return out
}

// Len returns the number of cells in the grid.
func (g *KeyGrid) Len() int {
	n := 0
	for _, row := range g.Rows {
		n += len(row)
	}
	return n
}

// HasRefs reports whether any cell is a position reference.
func (g *KeyGrid) HasRefs() bool {
	for _, row := range g.Rows {
		for _, c := range row {
			if c.IsRef {
				return true
			}
		}
	}
	return false
}

// Tokens returns the flattened literal tokens. It fails on any position
// reference; callers must resolve references first.
func (g *KeyGrid) Tokens() ([]string, error) {
	cells := g.Flatten()
	out := make([]string, 0, len(cells))
	for i, c := range cells {
		if c.IsRef {
			return nil, errors.NewConfigError("unresolved position reference at slot %d (ref %s index %d)", i, c.RefGrid, c.RefIndex)
		}
		out = append(out, c.Token)
	}
	return out, nil
}

// CoreBlocks returns the 36 core tokens in block order: left rows 0-2,
// right rows 0-2, left thumbs, right thumbs. This is the order compiled
// layers use.
func (g *KeyGrid) CoreBlocks() ([]string, error) {
	tokens, err := g.Tokens()
	if err != nil {
		return nil, err
	}
	if len(tokens) != CoreKeyCount {
		return nil, errors.NewConfigError("core grid must flatten to exactly %d keys, found %d", CoreKeyCount, len(tokens))
	}
	return tokens, nil
}

// CoreCanonical returns the 36 core tokens in canonical row-major order:
// row0-left, row0-right, row1-left, row1-right, row2-left, row2-right,
// left thumbs, right thumbs. Position references and combo key positions
// index into this order.
func (g *KeyGrid) CoreCanonical() ([]string, error) {
	blocks, err := g.CoreBlocks()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, CoreKeyCount)
	for row := 0; row < 3; row++ {
		out = append(out, blocks[row*5:row*5+5]...)        // left row
		out = append(out, blocks[15+row*5:15+row*5+5]...) // right row
	}
	out = append(out, blocks[30:36]...) // thumbs, already left-then-right
	return out, nil
}
