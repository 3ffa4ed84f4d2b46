package conf

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Path defaults
	v.SetDefault("paths.config_dir", "config")
	v.SetDefault("paths.output_root", "firmware")

	// QMK defaults
	v.SetDefault("qmk.user_name", "dario")

	// Watch mode defaults
	v.SetDefault("watch.debounce_ms", 500) // Coalesce editor save bursts
}

// BindEnvVars explicitly binds configuration to environment variables
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("paths.config_dir", "KEYMAPGEN_CONFIG_DIR")
	v.BindEnv("paths.output_root", "KEYMAPGEN_OUTPUT_ROOT")
	v.BindEnv("qmk.user_name", "KEYMAPGEN_QMK_USER_NAME")
}
