package keymap

import (
	"path"

	"github.com/dario/keymapgen/errors"
)

// Extension type tags. These name the structural shape of a LayerExtension,
// matching the layout-size tag of the boards that consume them.
const (
	// ExtensionOuterPinkyColumn adds a 3-key outer pinky column per side
	// (42-key boards).
	ExtensionOuterPinkyColumn = "3x6_3"
	// ExtensionOuterPinkyKey adds a single outer pinky key per side
	// (38-key boards).
	ExtensionOuterPinkyKey = "3x5_3_pinky"
)

// LayerExtension holds the extra keys a layer defines for boards larger
// than the 36-key core.
type LayerExtension struct {
	Type            string
	OuterPinkyLeft  []string
	OuterPinkyRight []string
}

// Validate checks the extension structure against its type.
func (e *LayerExtension) Validate(layerName string) error {
	switch e.Type {
	case ExtensionOuterPinkyColumn:
		if len(e.OuterPinkyLeft) != 3 || len(e.OuterPinkyRight) != 3 {
			return errors.NewConfigError(
				"layer %s: extension %s requires exactly 3 keys per side, got %d left / %d right",
				layerName, e.Type, len(e.OuterPinkyLeft), len(e.OuterPinkyRight))
		}
	case ExtensionOuterPinkyKey:
		if len(e.OuterPinkyLeft) != 1 || len(e.OuterPinkyRight) != 1 {
			return errors.NewConfigError(
				"layer %s: extension %s requires exactly 1 key per side, got %d left / %d right",
				layerName, e.Type, len(e.OuterPinkyLeft), len(e.OuterPinkyRight))
		}
	default:
		return errors.NewConfigError("layer %s: unknown extension type %q", layerName, e.Type)
	}
	return nil
}

// Layer is a single named keyboard layer.
//
// A layer has a 36-slot core grid and/or a full_layout grid in a board's
// physical matrix order. A full_layout may reference core slots by canonical
// position index.
type Layer struct {
	Name       string
	Core       *KeyGrid
	FullLayout *KeyGrid
	Extensions map[string]*LayerExtension
}

// Validate checks layer structure: name, presence of a grid, core key count.
func (l *Layer) Validate() error {
	if !isValidLayerName(l.Name) {
		return errors.NewConfigError(
			"invalid layer name %q: layer names must be uppercase alphanumeric with underscores", l.Name)
	}
	if l.Core == nil && l.FullLayout == nil {
		return errors.NewConfigError("layer %s: must have either 'core' or 'full_layout'", l.Name)
	}
	if l.Core != nil {
		if l.Core.HasRefs() {
			return errors.NewConfigError("layer %s: core grid may not contain position references", l.Name)
		}
		if n := l.Core.Len(); n != CoreKeyCount {
			return errors.NewConfigError("layer %s: core must have exactly %d keys, found %d", l.Name, CoreKeyCount, n)
		}
	}
	if l.FullLayout != nil && l.FullLayout.HasRefs() && l.Core == nil {
		return errors.NewConfigError("layer %s: full_layout references core positions but no core is defined", l.Name)
	}
	for _, ext := range l.Extensions {
		if err := ext.Validate(l.Name); err != nil {
			return err
		}
	}
	return nil
}

func isValidLayerName(name string) bool {
	if name == "" {
		return false
	}
	if name[0] >= '0' && name[0] <= '9' {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// Board identifies a physical keyboard device.
type Board struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Firmware Firmware `yaml:"firmware"`

	// LayoutSize tags the board's physical geometry ("3x5_3", "3x6_3", ...).
	LayoutSize string `yaml:"layout_size"`

	// ExtraLayers lists board-exclusive layers: layers named here are only
	// emitted for boards that list them.
	ExtraLayers []string `yaml:"extra_layers"`

	// KeymapFile optionally names a board-specific keymap overlay whose
	// full_layout definitions are merged over the shared configuration.
	KeymapFile string `yaml:"keymap_file"`

	// Firmware-specific build identifiers.
	QMKKeyboard string `yaml:"qmk_keyboard"`
	ZMKShield   string `yaml:"zmk_shield"`
	ZMKBoard    string `yaml:"zmk_board"`
}

// Validate checks board structure and firmware-specific requirements.
func (b *Board) Validate() error {
	if !isValidBoardID(b.ID) {
		return errors.NewConfigError(
			"invalid board id %q: board ids must be lowercase alphanumeric with underscores", b.ID)
	}
	switch b.Firmware {
	case FirmwareQMK:
		if b.QMKKeyboard == "" {
			return errors.NewConfigError("board %s: qmk_keyboard is required for QMK firmware", b.ID)
		}
	case FirmwareZMK:
		if b.ZMKShield == "" && b.ZMKBoard == "" {
			return errors.NewConfigError("board %s: either zmk_shield or zmk_board is required for ZMK firmware", b.ID)
		}
	default:
		return errors.NewConfigError("board %s: invalid firmware %q (must be qmk or zmk)", b.ID, string(b.Firmware))
	}
	return nil
}

// ShieldOrBoard returns the ZMK shield name, falling back to the board name.
func (b *Board) ShieldOrBoard() string {
	if b.ZMKShield != "" {
		return b.ZMKShield
	}
	return b.ZMKBoard
}

// OutputDir returns the repository-relative directory generated files are
// written to. userName is the firmware userspace name (e.g. "dario").
func (b *Board) OutputDir(userName string) string {
	if b.Firmware == FirmwareQMK {
		return path.Join("keyboards", b.QMKKeyboard, "keymaps", userName)
	}
	return path.Join("zmk", "keymaps", b.ShieldOrBoard()+"_"+userName)
}

func isValidBoardID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// BoardInventory is the ordered board list from boards.yaml.
type BoardInventory struct {
	Boards []*Board
	byID   map[string]*Board
}

// NewBoardInventory builds an inventory, validating each board and
// rejecting duplicate ids.
func NewBoardInventory(boards []*Board) (*BoardInventory, error) {
	if len(boards) == 0 {
		return nil, errors.NewConfigError("at least one board must be defined")
	}
	inv := &BoardInventory{Boards: boards, byID: make(map[string]*Board, len(boards))}
	for _, b := range boards {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if _, dup := inv.byID[b.ID]; dup {
			return nil, errors.NewConfigError("duplicate board id %q", b.ID)
		}
		inv.byID[b.ID] = b
	}
	return inv, nil
}

// ByID returns the board with the given id.
func (inv *BoardInventory) ByID(id string) (*Board, bool) {
	b, ok := inv.byID[id]
	return b, ok
}

// ByFirmware returns all boards targeting the given firmware, in
// declaration order.
func (inv *BoardInventory) ByFirmware(f Firmware) []*Board {
	var out []*Board
	for _, b := range inv.Boards {
		if b.Firmware == f {
			out = append(out, b)
		}
	}
	return out
}

// CompiledLayer is one layer compiled for one board: the ordered list of
// already-translated firmware literals matching the board's physical key
// count and ordering. Built fresh per (layer, board) pair and discarded
// after emission.
type CompiledLayer struct {
	Name     string
	BoardID  string
	Firmware Firmware
	Keycodes []string
}

// Len returns the number of compiled keycodes.
func (c *CompiledLayer) Len() int {
	return len(c.Keycodes)
}
