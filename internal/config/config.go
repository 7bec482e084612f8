package config

import "github.com/spf13/viper"

// Config holds all runtime configuration for a slipway invocation.
// Values are populated from .slipway.yaml, SLIPWAY_* env vars, and CLI flags.
type Config struct {
	GitPath       string `mapstructure:"git_path"`
	NpmPath       string `mapstructure:"npm_path"`
	ChangesDir    string `mapstructure:"changes_dir"`
	TargetBranch  string `mapstructure:"target_branch"`
	ReleaseFolder string `mapstructure:"release_folder"`
	HistoryPath   string `mapstructure:"history_path"`
	Verbose       bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("git_path", "git")
	viper.SetDefault("npm_path", "npm")
	viper.SetDefault("changes_dir", ".changes")
	viper.SetDefault("target_branch", "main")
	viper.SetDefault("release_folder", "artifacts")
	viper.SetDefault("history_path", ".slipway/history.db")
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
