package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dario/keymapgen/cmd/keymapgen/commands"
	"github.com/dario/keymapgen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "keymapgen",
	Short: "keymapgen - Keyboard layout compiler for QMK and ZMK",
	Long: `keymapgen - Single-source keyboard layout compiler.

One keymap.yaml describes the layout once, in firmware-agnostic tokens;
keymapgen compiles it into QMK C sources and ZMK devicetree keymaps for
every board in boards.yaml.

Available commands:
  generate - Generate firmware sources for all boards
  validate - Check the configuration without writing files
  boards   - List the configured boards
  version  - Show version information

Examples:
  keymapgen generate               # Generate all boards
  keymapgen generate -b corne -w   # Watch mode for one board
  keymapgen validate               # CI-friendly check`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(verbosity, jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debugw("Logger initialized", "level", logger.LevelName(verbosity))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Emit machine-readable JSON log output")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.ValidateCmd)
	rootCmd.AddCommand(commands.BoardsCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
