package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for a cushion-build invocation.
// Values are populated from .cushion-build.yaml, CUSHION_BUILD_* env
// vars, and CLI flags. The variant itself is NOT configured here: it
// comes from TEST_MODE/DEV_MODE so CI controls it per invocation.
type Config struct {
	RepoRoot  string `mapstructure:"repo_root"`
	StorePath string `mapstructure:"store_path"`

	BundleDir    string `mapstructure:"bundle_dir"`
	FeedDir      string `mapstructure:"feed_dir"`
	DownloadBase string `mapstructure:"download_base"`
	PlatformKey  string `mapstructure:"platform_key"`

	BuildCommand    []string `mapstructure:"build_command"`
	BundleCommand   []string `mapstructure:"bundle_command"`
	SignCommand     []string `mapstructure:"sign_command"`
	NotarizeCommand []string `mapstructure:"notarize_command"`

	StageTimeout time.Duration `mapstructure:"stage_timeout"`

	HistoryPath   string `mapstructure:"history_path"`
	TelemetryPath string `mapstructure:"telemetry_path"`

	ReleaseNotes string `mapstructure:"release_notes"`
	Verbose      bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for
// any values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("repo_root", ".")
	viper.SetDefault("store_path", "src-tauri/tauri.conf.json")
	viper.SetDefault("bundle_dir", "src-tauri/target/release/bundle/dmg")
	viper.SetDefault("feed_dir", "dist/updater")
	viper.SetDefault("download_base", "https://releases.cushion.so/downloads")
	viper.SetDefault("platform_key", "darwin-aarch64")
	viper.SetDefault("build_command", []string{"npm", "run", "build"})
	viper.SetDefault("bundle_command", []string{"npx", "tauri", "build"})
	viper.SetDefault("sign_command", []string{"bash", "scripts/codesign.sh"})
	viper.SetDefault("notarize_command", []string{"bash", "scripts/notarize.sh"})
	viper.SetDefault("stage_timeout", 30*time.Minute)
	viper.SetDefault("history_path", ".cushion/runs.db")
	viper.SetDefault("telemetry_path", ".cushion/events.jsonl")
	viper.SetDefault("release_notes", "")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
