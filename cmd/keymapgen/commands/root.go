// Package commands implements the keymapgen CLI commands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/dario/keymapgen/conf"
	"github.com/dario/keymapgen/gen"
)

// loadConfig resolves the tool configuration, preferring an explicit
// --config file over the ambient keymapgen.toml / environment lookup.
func loadConfig(cmd *cobra.Command) (*conf.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return conf.LoadFromFile(path)
	}
	return conf.Load()
}

// newRunner builds a generation runner writing under the configured
// output root.
func newRunner(cfg *conf.Config) (*gen.Runner, error) {
	return gen.NewRunner(cfg, &gen.FSWriter{Root: cfg.Paths.OutputRoot})
}
