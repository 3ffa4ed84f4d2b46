package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dario/keymapgen/gen"
)

// ValidateCmd represents the validate command
var ValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the keymap configuration without writing files",
	Long: `Parse and compile the full configuration for every board.

All layers are compiled and every key token is checked against the alias
and keycode tables, but no firmware files are written. Exits non-zero if
any board fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		runner, err := gen.NewRunner(cfg, gen.NewMemWriter())
		if err != nil {
			pterm.Error.Printf("Failed to load configuration: %v\n", err)
			return err
		}

		summary := runner.ValidateAll()
		if summary.Failed == 0 {
			pterm.Success.Printf("Configuration valid for %d board(s)\n", summary.Generated)
			return nil
		}
		printSummary(summary)
		return summary.Err()
	},
}

func init() {
	ValidateCmd.Flags().String("config", "", "Path to keymapgen.toml (default: walk up from cwd)")
}
