// Package conf holds the tool's own configuration: where the keymap YAML
// sources live, where generated firmware trees go, and watch-mode tuning.
// It is loaded from keymapgen.toml via Viper with KEYMAPGEN_* environment
// overrides, separate from the keymap content itself.
package conf

import "path/filepath"

// Config represents the keymapgen tool configuration
type Config struct {
	Paths PathsConfig `mapstructure:"paths"`
	QMK   QMKConfig   `mapstructure:"qmk"`
	Watch WatchConfig `mapstructure:"watch"`
}

// PathsConfig locates the YAML sources and the generation target.
type PathsConfig struct {
	// ConfigDir holds keymap.yaml, boards.yaml, behaviors.yaml,
	// keycodes.yaml and any board-specific overlay files.
	ConfigDir string `mapstructure:"config_dir"`

	// OutputRoot is the directory generated firmware trees are written
	// under, one subdirectory per board.
	OutputRoot string `mapstructure:"output_root"`
}

// QMKConfig configures QMK userspace integration.
type QMKConfig struct {
	// UserName is the QMK keymap directory name (keyboards/<kb>/keymaps/<user>).
	UserName string `mapstructure:"user_name"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	// DebounceMs coalesces rapid file changes into one regeneration.
	DebounceMs int `mapstructure:"debounce_ms"`
}

// KeymapPath returns the shared keymap definition file.
func (c *Config) KeymapPath() string {
	return filepath.Join(c.Paths.ConfigDir, "keymap.yaml")
}

// BoardsPath returns the board inventory file.
func (c *Config) BoardsPath() string {
	return filepath.Join(c.Paths.ConfigDir, "boards.yaml")
}

// AliasesPath returns the behavior alias definition file.
func (c *Config) AliasesPath() string {
	return filepath.Join(c.Paths.ConfigDir, "behaviors.yaml")
}

// KeycodesPath returns the named keycode table file.
func (c *Config) KeycodesPath() string {
	return filepath.Join(c.Paths.ConfigDir, "keycodes.yaml")
}

// OverlayPath resolves a board's keymap_file relative to the config dir.
func (c *Config) OverlayPath(keymapFile string) string {
	if filepath.IsAbs(keymapFile) {
		return keymapFile
	}
	return filepath.Join(c.Paths.ConfigDir, keymapFile)
}
