// Package gen orchestrates the generation pipeline: it loads the YAML
// sources, compiles every layer for every board, renders the firmware files
// and hands them to a Writer. One board failing does not stop the others.
package gen

import (
	"os"

	"github.com/dario/keymapgen/compile"
	"github.com/dario/keymapgen/conf"
	"github.com/dario/keymapgen/emit/qmk"
	"github.com/dario/keymapgen/emit/zmk"
	"github.com/dario/keymapgen/errors"
	"github.com/dario/keymapgen/geometry"
	"github.com/dario/keymapgen/keymap"
	"github.com/dario/keymapgen/logger"
	"github.com/dario/keymapgen/translate"
)

// Runner drives generation for a loaded configuration set.
type Runner struct {
	cfg    *conf.Config
	writer Writer

	inv       *keymap.BoardInventory
	base      *keymap.KeymapConfiguration
	rawKeymap []byte
	aliases   keymap.AliasTable
	keycodes  keymap.KeycodeTable
}

// NewRunner loads all YAML sources named by the tool configuration. The
// alias and keycode tables are optional files; a missing one yields an
// empty table.
func NewRunner(cfg *conf.Config, writer Writer) (*Runner, error) {
	rawKeymap, err := os.ReadFile(cfg.KeymapPath())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keymap file %s", cfg.KeymapPath())
	}
	base, err := keymap.ParseKeymap(rawKeymap)
	if err != nil {
		return nil, errors.WithMessagef(err, "keymap file %s", cfg.KeymapPath())
	}
	inv, err := keymap.LoadBoards(cfg.BoardsPath())
	if err != nil {
		return nil, err
	}

	aliases := keymap.AliasTable{}
	if data, err := os.ReadFile(cfg.AliasesPath()); err == nil {
		if aliases, err = keymap.ParseAliases(data); err != nil {
			return nil, errors.WithMessagef(err, "alias file %s", cfg.AliasesPath())
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to read alias file %s", cfg.AliasesPath())
	}

	keycodes := keymap.KeycodeTable{}
	if data, err := os.ReadFile(cfg.KeycodesPath()); err == nil {
		if keycodes, err = keymap.ParseKeycodes(data); err != nil {
			return nil, errors.WithMessagef(err, "keycode file %s", cfg.KeycodesPath())
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to read keycode file %s", cfg.KeycodesPath())
	}

	logger.Debugw("Loaded configuration",
		"layers", len(base.Layers),
		"boards", len(inv.Boards),
		"aliases", len(aliases),
		"keycodes", len(keycodes))

	return &Runner{
		cfg:       cfg,
		writer:    writer,
		inv:       inv,
		base:      base,
		rawKeymap: rawKeymap,
		aliases:   aliases,
		keycodes:  keycodes,
	}, nil
}

// Boards returns the loaded board inventory.
func (r *Runner) Boards() *keymap.BoardInventory {
	return r.inv
}

// BoardResult is everything compiled for one board, ready for emission.
type BoardResult struct {
	Board  *keymap.Board
	Config *keymap.KeymapConfiguration
	Shape  *geometry.Shape
	Trans  translate.Translator
	Layers []*keymap.CompiledLayer
}

// configForBoard merges the board's keymap overlay, if it names one.
func (r *Runner) configForBoard(board *keymap.Board) (*keymap.KeymapConfiguration, error) {
	if board.KeymapFile == "" {
		return r.base, nil
	}
	path := r.cfg.OverlayPath(board.KeymapFile)
	overlay, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "board %s: failed to read keymap overlay %s", board.ID, path)
	}
	merged, err := keymap.ParseKeymapWithOverlay(r.rawKeymap, overlay)
	if err != nil {
		return nil, errors.WithMessagef(err, "board %s: keymap overlay %s", board.ID, path)
	}
	return merged, nil
}

// CompileBoard compiles every layer the board receives, in emission order.
func (r *Runner) CompileBoard(board *keymap.Board) (*BoardResult, error) {
	cfg, err := r.configForBoard(board)
	if err != nil {
		return nil, err
	}
	shape, err := geometry.ForTag(board.LayoutSize)
	if err != nil {
		return nil, errors.WithMessagef(err, "board %s", board.ID)
	}

	layers := cfg.LayersForBoard(board, r.inv)
	if len(layers) == 0 {
		return nil, errors.NewConfigError("board %s: no layers to generate", board.ID)
	}

	tables := translate.Tables{Keycodes: r.keycodes, Aliases: r.aliases, Magic: cfg.Magic}
	var tr translate.Translator
	if board.Firmware == keymap.FirmwareZMK {
		tr = translate.NewZMK(tables, keymap.LayerIndices(layers))
	} else {
		tr = translate.NewQMK(tables)
	}

	compiled := make([]*keymap.CompiledLayer, 0, len(layers))
	for _, layer := range layers {
		c, err := compile.Layer(layer, board, shape, tr)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}

	return &BoardResult{Board: board, Config: cfg, Shape: shape, Trans: tr, Layers: compiled}, nil
}

// GenerateBoard compiles one board and writes its firmware files.
func (r *Runner) GenerateBoard(board *keymap.Board) error {
	res, err := r.CompileBoard(board)
	if err != nil {
		return err
	}

	var files map[string]string
	if board.Firmware == keymap.FirmwareZMK {
		files, err = zmk.Generate(zmk.Input{
			Board:    res.Board,
			Config:   res.Config,
			Layers:   res.Layers,
			Shape:    res.Shape,
			Trans:    res.Trans,
			UserName: r.cfg.QMK.UserName,
		})
	} else {
		files, err = qmk.Generate(qmk.Input{
			Board:    res.Board,
			Config:   res.Config,
			Layers:   res.Layers,
			Shape:    res.Shape,
			Trans:    res.Trans,
			UserName: r.cfg.QMK.UserName,
		})
	}
	if err != nil {
		return err
	}

	dir := board.OutputDir(r.cfg.QMK.UserName)
	if err := r.writer.WriteFiles(dir, files); err != nil {
		return err
	}
	logger.Debugw("Generated board",
		"board", board.ID,
		"firmware", string(board.Firmware),
		"layers", len(res.Layers),
		"files", len(files),
		"dir", dir)
	return nil
}

// Summary counts per-board outcomes of a full run.
type Summary struct {
	Generated int
	Failed    int
	Errors    map[string]error
}

// Err returns a non-nil error when any board failed.
func (s Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return errors.Newf("generation failed for %d of %d boards", s.Failed, s.Generated+s.Failed)
}

// GenerateAll generates every board in inventory order. A failing board is
// reported and skipped so the remaining boards still generate.
func (r *Runner) GenerateAll() Summary {
	return r.runAll(r.GenerateBoard)
}

// ValidateAll compiles every board without writing anything.
func (r *Runner) ValidateAll() Summary {
	return r.runAll(func(board *keymap.Board) error {
		_, err := r.CompileBoard(board)
		return err
	})
}

func (r *Runner) runAll(fn func(*keymap.Board) error) Summary {
	s := Summary{Errors: make(map[string]error)}
	for _, board := range r.inv.Boards {
		if err := fn(board); err != nil {
			logger.Errorw("Board generation failed",
				"board", board.ID,
				"error", err)
			s.Failed++
			s.Errors[board.ID] = err
			continue
		}
		s.Generated++
	}
	return s
}
