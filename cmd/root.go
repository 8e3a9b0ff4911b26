package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cushion-app/cushion-build/internal/config"
	"github.com/cushion-app/cushion-build/internal/variant"
)

var rootCmd = &cobra.Command{
	Use:   "cushion-build",
	Short: "Build and release tooling for the Cushion desktop shell",
	Long: "cushion-build owns the repo's build-variant configuration, version\n" +
		"synchronization, and release pipeline. The build variant is resolved\n" +
		"from TEST_MODE/DEV_MODE; absent both, Production is assumed.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .cushion-build.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".cushion-build")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("CUSHION_BUILD")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// envSnapshot captures the mode variables the variant resolver honors.
// Taking a snapshot keeps the resolver pure.
func envSnapshot() map[string]string {
	return map[string]string{
		variant.EnvTestMode: os.Getenv(variant.EnvTestMode),
		variant.EnvDevMode:  os.Getenv(variant.EnvDevMode),
	}
}

// inRoot resolves a config-relative path against the repo root.
func inRoot(cfg config.Config, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.RepoRoot, p)
}
