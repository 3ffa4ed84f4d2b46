package keymap

import (
	"strings"

	"github.com/dario/keymapgen/errors"
)

// KeymapConfiguration is the unified keymap definition: all layers in
// declaration order, combos, magic-key families, and free-form metadata.
type KeymapConfiguration struct {
	Layers   []*Layer
	Combos   []*Combo
	Magic    *MagicConfig
	Metadata map[string]string

	byName map[string]*Layer
}

// NewKeymapConfiguration builds and validates a configuration.
func NewKeymapConfiguration(layers []*Layer, combos []*Combo, magic *MagicConfig, metadata map[string]string) (*KeymapConfiguration, error) {
	cfg := &KeymapConfiguration{
		Layers:   layers,
		Combos:   combos,
		Magic:    magic,
		Metadata: metadata,
		byName:   make(map[string]*Layer, len(layers)),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *KeymapConfiguration) validate() error {
	if len(c.Layers) == 0 {
		return errors.NewConfigError("at least one layer must be defined")
	}
	hasBase := false
	for _, layer := range c.Layers {
		if err := layer.Validate(); err != nil {
			return err
		}
		if _, dup := c.byName[layer.Name]; dup {
			return errors.NewConfigError("duplicate layer %s", layer.Name)
		}
		c.byName[layer.Name] = layer
		if strings.HasPrefix(layer.Name, "BASE") {
			hasBase = true
		}
	}
	if !hasBase {
		return errors.NewConfigError("at least one BASE layer is required (e.g. BASE, BASE_NIGHT)")
	}

	// If any layer defines an extension type, every layer with a core grid
	// must define it too, so larger boards get a complete keymap. Layers
	// that only carry a full_layout bypass geometry padding and are exempt.
	extTypes := make(map[string]bool)
	for _, layer := range c.Layers {
		for typ := range layer.Extensions {
			extTypes[typ] = true
		}
	}
	for typ := range extTypes {
		for _, layer := range c.Layers {
			if layer.Core == nil {
				continue
			}
			if _, ok := layer.Extensions[typ]; !ok {
				return errors.NewConfigError(
					"layer %s: missing extension %q; all layers must define the same extension types (use %s values if unused)",
					layer.Name, typ, TokenNone)
			}
		}
	}

	for _, combo := range c.Combos {
		if err := combo.Validate(); err != nil {
			return err
		}
		for _, name := range combo.Layers {
			if _, ok := c.byName[name]; !ok {
				return errors.NewConfigError("combo %s: unknown layer %q", combo.Name, name)
			}
		}
	}

	if c.Magic != nil {
		for _, fam := range c.Magic.Families {
			if _, ok := c.byName[fam.Base]; !ok {
				return errors.NewConfigError("magic configuration references unknown base layer %s", fam.Base)
			}
		}
	}
	return nil
}

// Layer returns the layer with the given name.
func (c *KeymapConfiguration) Layer(name string) (*Layer, bool) {
	l, ok := c.byName[name]
	return l, ok
}

// LayerNames returns all layer names in declaration order.
func (c *KeymapConfiguration) LayerNames() []string {
	names := make([]string, len(c.Layers))
	for i, l := range c.Layers {
		names[i] = l.Name
	}
	return names
}

// exclusiveLayers returns the set of layers claimed by any board's
// extra_layers list.
func exclusiveLayers(inv *BoardInventory) map[string]bool {
	out := make(map[string]bool)
	for _, b := range inv.Boards {
		for _, name := range b.ExtraLayers {
			out[name] = true
		}
	}
	return out
}

// LayersForBoard returns the layers to emit for one board, in declaration
// order: every shared layer plus the board's own extra layers. Layers listed
// in any board's extra_layers are board-exclusive and skipped elsewhere.
func (c *KeymapConfiguration) LayersForBoard(board *Board, inv *BoardInventory) []*Layer {
	exclusive := exclusiveLayers(inv)
	own := make(map[string]bool, len(board.ExtraLayers))
	for _, name := range board.ExtraLayers {
		own[name] = true
	}
	var out []*Layer
	for _, layer := range c.Layers {
		if exclusive[layer.Name] && !own[layer.Name] {
			continue
		}
		out = append(out, layer)
	}
	return out
}

// LayerIndices maps each of the given layers to its emission index. ZMK
// layer-tap bindings reference layers by index.
func LayerIndices(layers []*Layer) map[string]int {
	out := make(map[string]int, len(layers))
	for i, l := range layers {
		out[l.Name] = i
	}
	return out
}
