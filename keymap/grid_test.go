package keymap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// coreGrid builds a 36-slot grid in block order with position-numbered
// tokens: L0..L14, R0..R14, LT0..LT2, RT0..RT2.
func coreGrid() *KeyGrid {
	rows := make([][]Cell, 0, 8)
	for r := 0; r < 3; r++ {
		row := make([]Cell, 5)
		for c := 0; c < 5; c++ {
			row[c] = Lit(fmt.Sprintf("L%d", r*5+c))
		}
		rows = append(rows, row)
	}
	for r := 0; r < 3; r++ {
		row := make([]Cell, 5)
		for c := 0; c < 5; c++ {
			row[c] = Lit(fmt.Sprintf("R%d", r*5+c))
		}
		rows = append(rows, row)
	}
	rows = append(rows,
		[]Cell{Lit("LT0"), Lit("LT1"), Lit("LT2")},
		[]Cell{Lit("RT0"), Lit("RT1"), Lit("RT2")},
	)
	return &KeyGrid{Rows: rows}
}

func TestCellUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    Cell
		wantErr bool
	}{
		{name: "scalar token", yaml: `ESC`, want: Lit("ESC")},
		{name: "numeric scalar keeps literal text", yaml: `1`, want: Lit("1")},
		{name: "position reference", yaml: `{ref: core, index: 7}`, want: Ref(7)},
		{name: "reference missing index", yaml: `{ref: core}`, wantErr: true},
		{name: "reference missing grid", yaml: `{index: 3}`, wantErr: true},
		{name: "sequence is not a cell", yaml: `[A, B]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cell Cell
			err := yaml.Unmarshal([]byte(tt.yaml), &cell)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cell)
		})
	}
}

func TestKeyGridCoreBlocks(t *testing.T) {
	grid := coreGrid()
	blocks, err := grid.CoreBlocks()
	require.NoError(t, err)
	require.Len(t, blocks, CoreKeyCount)

	assert.Equal(t, "L0", blocks[0])
	assert.Equal(t, "L14", blocks[14])
	assert.Equal(t, "R0", blocks[15])
	assert.Equal(t, "R14", blocks[29])
	assert.Equal(t, "LT0", blocks[30])
	assert.Equal(t, "RT2", blocks[35])
}

func TestKeyGridCoreCanonical(t *testing.T) {
	canon, err := coreGrid().CoreCanonical()
	require.NoError(t, err)
	require.Len(t, canon, CoreKeyCount)

	// Rows interleave left and right hands; thumbs stay at the end.
	assert.Equal(t, []string{"L0", "L1", "L2", "L3", "L4", "R0", "R1", "R2", "R3", "R4"}, canon[0:10])
	assert.Equal(t, []string{"L5", "L6", "L7", "L8", "L9", "R5", "R6", "R7", "R8", "R9"}, canon[10:20])
	assert.Equal(t, []string{"LT0", "LT1", "LT2", "RT0", "RT1", "RT2"}, canon[30:36])
}

func TestKeyGridCoreBlocksWrongCount(t *testing.T) {
	grid := &KeyGrid{Rows: [][]Cell{{Lit("A"), Lit("B")}}}
	_, err := grid.CoreBlocks()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "36")
}

func TestKeyGridTokensRejectsUnresolvedRefs(t *testing.T) {
	grid := &KeyGrid{Rows: [][]Cell{{Lit("A"), Ref(3)}}}
	assert.True(t, grid.HasRefs())
	_, err := grid.Tokens()
	require.Error(t, err)
}
