package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cushion-app/cushion-build/internal/appconfig"
	"github.com/cushion-app/cushion-build/internal/config"
	"github.com/cushion-app/cushion-build/internal/ui"
	"github.com/cushion-app/cushion-build/internal/variant"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Apply the variant transform to the configuration store",
	Long: "Resolves the build variant from TEST_MODE/DEV_MODE and rewrites the\n" +
		"configuration store for it, capturing the baseline backup on the first\n" +
		"run. CI calls this before handing off to the native toolchain.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printer := ui.New()

		v := variant.Resolve(envSnapshot())
		printer.Info("variant: %s", v)

		tr := appconfig.NewTransformer(inRoot(cfg, cfg.StorePath))
		doc, err := tr.Apply(v)
		if err != nil {
			return err
		}

		printer.Success("store transformed: %s", doc.Summary())
		if tr.Backups.Exists() {
			printer.Info("baseline backup: %s", tr.Backups.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
