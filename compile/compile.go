// Package compile turns one (layer, board) pair into an ordered list of
// firmware literals: it resolves position references, reshapes the 36-slot
// core onto the board's physical geometry, and runs every token through the
// firmware translator in position order.
package compile

import (
	"github.com/dario/keymapgen/errors"
	"github.com/dario/keymapgen/geometry"
	"github.com/dario/keymapgen/keymap"
	"github.com/dario/keymapgen/logger"
	"github.com/dario/keymapgen/translate"
)

// Layer compiles one layer for one board. Hard errors (unresolved
// references, unknown aliases, arity mismatches) abort the pair; nothing
// partial is returned.
func Layer(layer *keymap.Layer, board *keymap.Board, shape *geometry.Shape, tr translate.Translator) (*keymap.CompiledLayer, error) {
	tokens, err := resolveTokens(layer, shape)
	if err != nil {
		return nil, errors.WithMessagef(err, "layer %s, board %s", layer.Name, board.ID)
	}

	// Validation runs over every token before any translation so a broken
	// binding surfaces even when an earlier token would also fail.
	for i, token := range tokens {
		ctx := translate.Context{Index: i, Hand: shape.Hand(i), Layer: layer.Name}
		if err := tr.Validate(token, ctx); err != nil {
			return nil, errors.WithMessagef(err, "board %s", board.ID)
		}
	}

	trace := logger.ShouldLogTrace(logger.Verbosity)
	keycodes := make([]string, len(tokens))
	for i, token := range tokens {
		ctx := translate.Context{Index: i, Hand: shape.Hand(i), Layer: layer.Name}
		literal, err := tr.Translate(token, ctx)
		if err != nil {
			return nil, errors.WithMessagef(err, "board %s", board.ID)
		}
		if trace {
			logger.Debugw("translated token",
				"layer", layer.Name,
				"index", i,
				"token", token,
				"keycode", literal)
		}
		keycodes[i] = literal
	}

	logger.Debugw("compiled layer",
		"layer", layer.Name,
		"board", board.ID,
		"firmware", string(tr.Firmware()),
		"keys", len(keycodes))

	return &keymap.CompiledLayer{
		Name:     layer.Name,
		BoardID:  board.ID,
		Firmware: tr.Firmware(),
		Keycodes: keycodes,
	}, nil
}

// resolveTokens produces the layer's abstract tokens in the board's
// compiled order: a full_layout is taken verbatim (with core references
// substituted), a bare core is reshaped by the geometry.
func resolveTokens(layer *keymap.Layer, shape *geometry.Shape) ([]string, error) {
	if layer.FullLayout != nil {
		tokens, err := resolveFullLayout(layer, shape)
		if err != nil {
			return nil, err
		}
		if len(tokens) != shape.KeyCount() {
			return nil, errors.NewConfigError(
				"full_layout has %d keys but geometry %s has %d", len(tokens), shape.Tag(), shape.KeyCount())
		}
		return tokens, nil
	}

	blocks, err := layer.Core.CoreBlocks()
	if err != nil {
		return nil, err
	}
	ext := layer.Extensions[shape.ExtensionType()]
	return shape.Expand(blocks, ext, keymap.TokenNone)
}

func resolveFullLayout(layer *keymap.Layer, shape *geometry.Shape) ([]string, error) {
	cells := layer.FullLayout.Flatten()
	if !layer.FullLayout.HasRefs() {
		return layer.FullLayout.Tokens()
	}

	// References index the canonical interleaved core order, not the
	// compiled block order.
	if layer.Core == nil {
		return nil, errors.NewConfigError("full_layout uses core references but the layer has no core grid")
	}
	canonical, err := layer.Core.CoreCanonical()
	if err != nil {
		return nil, err
	}
	tokens := make([]string, len(cells))
	for i, cell := range cells {
		if !cell.IsRef {
			tokens[i] = cell.Token
			continue
		}
		if cell.RefIndex < 0 || cell.RefIndex >= len(canonical) {
			return nil, errors.NewConfigError(
				"full_layout position %d references core index %d, out of range [0, %d)",
				i, cell.RefIndex, len(canonical))
		}
		tokens[i] = canonical[cell.RefIndex]
	}
	return tokens, nil
}
