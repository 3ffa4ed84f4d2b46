package commands

import (
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dario/keymapgen/conf"
	"github.com/dario/keymapgen/errors"
	"github.com/dario/keymapgen/gen"
	"github.com/dario/keymapgen/logger"
)

// GenerateCmd represents the generate command
var GenerateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Generate firmware sources for all configured boards",
	Long: `Generate QMK and ZMK firmware sources from the shared keymap definition.

Reads keymap.yaml, boards.yaml and the alias/keycode tables from the config
directory, compiles every layer for every board, and writes the firmware
trees under the output root. One board failing does not stop the others.

Examples:
  keymapgen generate                 # Generate all boards
  keymapgen generate --board corne   # Generate one board
  keymapgen generate --watch         # Regenerate on config changes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		boardID, _ := cmd.Flags().GetString("board")
		watch, _ := cmd.Flags().GetBool("watch")

		if err := runGeneration(cfg, boardID); err != nil && !watch {
			return err
		}
		if !watch {
			return nil
		}
		return watchLoop(cfg, boardID)
	},
}

func init() {
	GenerateCmd.Flags().StringP("board", "b", "", "Generate only the named board")
	GenerateCmd.Flags().BoolP("watch", "w", false, "Watch the config directory and regenerate on changes")
	GenerateCmd.Flags().String("config", "", "Path to keymapgen.toml (default: walk up from cwd)")
}

// runGeneration performs one generation pass and prints the outcome.
func runGeneration(cfg *conf.Config, boardID string) error {
	runner, err := newRunner(cfg)
	if err != nil {
		pterm.Error.Printf("Failed to load configuration: %v\n", err)
		return err
	}

	if boardID != "" {
		board, ok := runner.Boards().ByID(boardID)
		if !ok {
			return errors.NewNotFoundError("board %q not found in boards.yaml", boardID)
		}
		if err := runner.GenerateBoard(board); err != nil {
			pterm.Error.Printf("Generation failed for %s: %v\n", boardID, err)
			return err
		}
		pterm.Success.Printf("Generated %s (%s) -> %s\n",
			board.ID, string(board.Firmware), board.OutputDir(cfg.QMK.UserName))
		return nil
	}

	summary := runner.GenerateAll()
	printSummary(summary)
	return summary.Err()
}

func printSummary(s gen.Summary) {
	if s.Failed == 0 {
		pterm.Success.Printf("Generated %d board(s)\n", s.Generated)
		return
	}
	pterm.Warning.Printf("Generated %d board(s), %d failed\n", s.Generated, s.Failed)
	ids := make([]string, 0, len(s.Errors))
	for id := range s.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		pterm.Error.Printf("  %s: %v\n", id, s.Errors[id])
	}
}

// watchLoop regenerates after each debounced config change until
// interrupted. Each pass reloads the YAML sources from scratch.
func watchLoop(cfg *conf.Config, boardID string) error {
	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	watcher, err := gen.NewWatcher(cfg.Paths.ConfigDir, debounce, func() {
		pterm.Println()
		pterm.Info.Println("Config changed, regenerating...")
		if err := runGeneration(cfg, boardID); err != nil {
			logger.Errorw("Regeneration failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	watcher.Start()
	defer watcher.Stop()

	pterm.Info.Printf("Watching %s for changes (Ctrl-C to stop)\n", cfg.Paths.ConfigDir)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	pterm.Println()
	pterm.Info.Println("Stopping watch mode")
	return nil
}
