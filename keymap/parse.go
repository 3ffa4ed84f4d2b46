package keymap

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dario/keymapgen/errors"
	"github.com/dario/keymapgen/logger"
)

// keymapSections holds a parsed document before whole-config validation.
// Overlay files are parsed to this form so a partial overlay (one layer,
// no BASE) is legal on its own; only the merged result is validated.
type keymapSections struct {
	layers   []*Layer
	combos   []*Combo
	magic    *MagicConfig
	metadata map[string]string
}

// ParseKeymap decodes a keymap YAML document. Layer and magic-family
// declaration order is preserved so regenerated firmware sources are
// byte-identical across runs.
func ParseKeymap(data []byte) (*KeymapConfiguration, error) {
	s, err := parseKeymapSections(data)
	if err != nil {
		return nil, err
	}
	return NewKeymapConfiguration(s.layers, s.combos, s.magic, s.metadata)
}

func parseKeymapSections(data []byte) (*keymapSections, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.WithStack(errors.ErrConfig), err.Error())
	}
	root := documentRoot(&doc)
	if root == nil {
		return nil, errors.NewConfigError("keymap file is empty")
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.NewConfigError("keymap file must be a mapping at the top level")
	}

	var (
		layers   []*Layer
		combos   []*Combo
		magic    *MagicConfig
		metadata map[string]string
		err      error
	)
	for i := 0; i < len(root.Content)-1; i += 2 {
		key := root.Content[i].Value
		val := root.Content[i+1]
		switch key {
		case "layers":
			layers, err = parseLayers(val)
		case "combos":
			combos, err = parseCombos(val)
		case "magic":
			magic, err = parseMagic(val)
		case "metadata":
			err = val.Decode(&metadata)
			if err != nil {
				err = errors.NewConfigError("metadata: %v", err)
			}
		default:
			logger.Debugw("ignoring unknown keymap section", "section", key)
		}
		if err != nil {
			return nil, err
		}
	}
	return &keymapSections{layers: layers, combos: combos, magic: magic, metadata: metadata}, nil
}

// ParseKeymapWithOverlay parses the shared keymap, then merges a per-board
// overlay on top of it. Overlay layers replace same-named layers wholesale;
// overlay-only layers are appended in their declaration order. The overlay
// may be a subset (a single layer is fine); validation runs on the merged
// result, never on the overlay alone.
func ParseKeymapWithOverlay(data, overlay []byte) (*KeymapConfiguration, error) {
	base, err := ParseKeymap(data)
	if err != nil {
		return nil, err
	}
	if len(overlay) == 0 {
		return base, nil
	}
	over, err := parseKeymapSections(overlay)
	if err != nil {
		return nil, errors.WithMessage(err, "board overlay")
	}

	overNames := make(map[string]*Layer, len(over.layers))
	for _, l := range over.layers {
		overNames[l.Name] = l
	}
	merged := make([]*Layer, 0, len(base.Layers)+len(over.layers))
	for _, l := range base.Layers {
		if repl, ok := overNames[l.Name]; ok {
			merged = append(merged, repl)
			delete(overNames, l.Name)
			continue
		}
		merged = append(merged, l)
	}
	for _, l := range over.layers {
		if _, pending := overNames[l.Name]; pending {
			merged = append(merged, l)
		}
	}

	combos := base.Combos
	if len(over.combos) > 0 {
		combos = over.combos
	}
	magic := base.Magic
	if over.magic != nil {
		magic = over.magic
	}
	metadata := base.Metadata
	for k, v := range over.metadata {
		if metadata == nil {
			metadata = make(map[string]string)
		}
		metadata[k] = v
	}
	return NewKeymapConfiguration(merged, combos, magic, metadata)
}

// LoadKeymap reads and parses a keymap file from disk.
func LoadKeymap(path string) (*KeymapConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading keymap %s", path)
	}
	cfg, err := ParseKeymap(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "parsing %s", path)
	}
	return cfg, nil
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	if doc.Kind == 0 {
		return nil
	}
	return doc
}

type rawExtension struct {
	OuterPinkyLeft  []Cell `yaml:"outer_pinky_left"`
	OuterPinkyRight []Cell `yaml:"outer_pinky_right"`
}

func parseLayers(node *yaml.Node) ([]*Layer, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.NewConfigError("layers must be a mapping of layer name to definition")
	}
	var out []*Layer
	for i := 0; i < len(node.Content)-1; i += 2 {
		name := node.Content[i].Value
		layer, err := parseLayer(name, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, layer)
	}
	return out, nil
}

func parseLayer(name string, body *yaml.Node) (*Layer, error) {
	if body.Kind != yaml.MappingNode {
		return nil, errors.NewConfigError("layer %s must be a mapping", name)
	}
	layer := &Layer{Name: name}
	for i := 0; i < len(body.Content)-1; i += 2 {
		key := body.Content[i].Value
		val := body.Content[i+1]
		switch key {
		case "core":
			grid, err := parseCoreGrid(name, val)
			if err != nil {
				return nil, err
			}
			layer.Core = grid
		case "full_layout":
			grid, err := parseFullLayout(name, val)
			if err != nil {
				return nil, err
			}
			layer.FullLayout = grid
		case "extensions":
			exts, err := parseExtensions(name, val)
			if err != nil {
				return nil, err
			}
			layer.Extensions = exts
		default:
			logger.Debugw("ignoring unknown layer field", "layer", name, "field", key)
		}
	}
	return layer, nil
}

// parseCoreGrid accepts either a flat list of rows or a split form with
// left, right and thumbs sections concatenated in that order.
func parseCoreGrid(layer string, node *yaml.Node) (*KeyGrid, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var grid KeyGrid
		if err := node.Decode(&grid); err != nil {
			return nil, errors.NewConfigError("layer %s: core: %v", layer, err)
		}
		return &grid, nil
	case yaml.MappingNode:
		var split struct {
			Left   [][]Cell `yaml:"left"`
			Right  [][]Cell `yaml:"right"`
			Thumbs [][]Cell `yaml:"thumbs"`
		}
		if err := node.Decode(&split); err != nil {
			return nil, errors.NewConfigError("layer %s: core: %v", layer, err)
		}
		rows := make([][]Cell, 0, len(split.Left)+len(split.Right)+len(split.Thumbs))
		rows = append(rows, split.Left...)
		rows = append(rows, split.Right...)
		rows = append(rows, split.Thumbs...)
		return &KeyGrid{Rows: rows}, nil
	default:
		return nil, errors.NewConfigError("layer %s: core must be a list of rows or a left/right/thumbs mapping", layer)
	}
}

// parseFullLayout accepts a flat key list or a list of rows; a flat list is
// stored as a single row since full layouts are consumed in order only.
func parseFullLayout(layer string, node *yaml.Node) (*KeyGrid, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, errors.NewConfigError("layer %s: full_layout must be a list", layer)
	}
	rowForm := len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode
	if rowForm {
		var grid KeyGrid
		if err := node.Decode(&grid); err != nil {
			return nil, errors.NewConfigError("layer %s: full_layout: %v", layer, err)
		}
		return &grid, nil
	}
	var row []Cell
	if err := node.Decode(&row); err != nil {
		return nil, errors.NewConfigError("layer %s: full_layout: %v", layer, err)
	}
	return &KeyGrid{Rows: [][]Cell{row}}, nil
}

func parseExtensions(layer string, node *yaml.Node) (map[string]*LayerExtension, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.NewConfigError("layer %s: extensions must be a mapping", layer)
	}
	out := make(map[string]*LayerExtension, len(node.Content)/2)
	for i := 0; i < len(node.Content)-1; i += 2 {
		typ := node.Content[i].Value
		var raw rawExtension
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return nil, errors.NewConfigError("layer %s: extension %s: %v", layer, typ, err)
		}
		out[typ] = &LayerExtension{
			Type:            typ,
			OuterPinkyLeft:  cellTokens(raw.OuterPinkyLeft),
			OuterPinkyRight: cellTokens(raw.OuterPinkyRight),
		}
	}
	return out, nil
}

func cellTokens(cells []Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Token
	}
	return out
}

func parseCombos(node *yaml.Node) ([]*Combo, error) {
	var combos []*Combo
	if err := node.Decode(&combos); err != nil {
		return nil, errors.NewConfigError("combos: %v", err)
	}
	for _, c := range combos {
		if c.TimeoutMs == 0 {
			c.TimeoutMs = DefaultComboTimeoutMs
		}
	}
	return combos, nil
}

func parseMagic(node *yaml.Node) (*MagicConfig, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.NewConfigError("magic must be a mapping of base layer to behavior")
	}
	var families []*MagicBehavior
	for i := 0; i < len(node.Content)-1; i += 2 {
		base := node.Content[i].Value
		var fam MagicBehavior
		if err := node.Content[i+1].Decode(&fam); err != nil {
			return nil, errors.NewConfigError("magic %s: %v", base, err)
		}
		fam.Base = base
		if fam.TimeoutMs == 0 {
			fam.TimeoutMs = DefaultMagicTimeoutMs
		}
		if err := fam.Validate(); err != nil {
			return nil, err
		}
		families = append(families, &fam)
	}
	return NewMagicConfig(families)
}

// ParseBoards decodes the board inventory file.
func ParseBoards(data []byte) (*BoardInventory, error) {
	var doc struct {
		Boards []*Board `yaml:"boards"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewConfigError("boards: %v", err)
	}
	return NewBoardInventory(doc.Boards)
}

// LoadBoards reads and parses the board inventory from disk.
func LoadBoards(path string) (*BoardInventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading boards %s", path)
	}
	inv, err := ParseBoards(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "parsing %s", path)
	}
	return inv, nil
}

type rawAlias struct {
	Description     string   `yaml:"description"`
	Params          []string `yaml:"params"`
	QMK             string   `yaml:"qmk"`
	QMKLeft         string   `yaml:"qmk_left"`
	QMKRight        string   `yaml:"qmk_right"`
	ZMK             string   `yaml:"zmk"`
	ZMKLeft         string   `yaml:"zmk_left"`
	ZMKRight        string   `yaml:"zmk_right"`
	FirmwareSupport map[string]bool `yaml:"firmware_support"`
}

// ParseAliases decodes the behavior alias table.
func ParseAliases(data []byte) (AliasTable, error) {
	var doc struct {
		Behaviors map[string]rawAlias `yaml:"behaviors"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewConfigError("aliases: %v", err)
	}
	table := make(AliasTable, len(doc.Behaviors))
	for name, raw := range doc.Behaviors {
		alias := &BehaviorAlias{
			Name:        name,
			Description: raw.Description,
			Params:      raw.Params,
			Patterns: map[Firmware]AliasPattern{
				FirmwareQMK: {Default: raw.QMK, Left: raw.QMKLeft, Right: raw.QMKRight},
				FirmwareZMK: {Default: raw.ZMK, Left: raw.ZMKLeft, Right: raw.ZMKRight},
			},
			Support: make(map[Firmware]bool, len(raw.FirmwareSupport)),
		}
		for fw, ok := range raw.FirmwareSupport {
			alias.Support[Firmware(fw)] = ok
		}
		table[name] = alias
	}
	return table, nil
}

// LoadAliases reads and parses the alias table from disk.
func LoadAliases(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading aliases %s", path)
	}
	table, err := ParseAliases(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "parsing %s", path)
	}
	return table, nil
}

// ParseKeycodes decodes the keycode translation table.
func ParseKeycodes(data []byte) (KeycodeTable, error) {
	var doc struct {
		Keycodes map[string]KeycodePair `yaml:"keycodes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewConfigError("keycodes: %v", err)
	}
	if doc.Keycodes == nil {
		// Allow a flat mapping without the keycodes wrapper.
		var flat map[string]KeycodePair
		if err := yaml.Unmarshal(data, &flat); err != nil {
			return nil, errors.NewConfigError("keycodes: %v", err)
		}
		return KeycodeTable(flat), nil
	}
	return KeycodeTable(doc.Keycodes), nil
}

// LoadKeycodes reads and parses the keycode table from disk.
func LoadKeycodes(path string) (KeycodeTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading keycodes %s", path)
	}
	table, err := ParseKeycodes(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "parsing %s", path)
	}
	return table, nil
}
