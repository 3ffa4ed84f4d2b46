package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dario/keymapgen/gen"
)

// BoardsCmd represents the boards command
var BoardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List the configured boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		runner, err := gen.NewRunner(cfg, gen.NewMemWriter())
		if err != nil {
			return err
		}

		rows := pterm.TableData{{"ID", "Name", "Firmware", "Layout", "Output"}}
		for _, b := range runner.Boards().Boards {
			rows = append(rows, []string{
				b.ID,
				b.Name,
				string(b.Firmware),
				b.LayoutSize,
				b.OutputDir(cfg.QMK.UserName),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func init() {
	BoardsCmd.Flags().String("config", "", "Path to keymapgen.toml (default: walk up from cwd)")
}
