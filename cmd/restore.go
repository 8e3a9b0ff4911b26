package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cushion-app/cushion-build/internal/appconfig"
	"github.com/cushion-app/cushion-build/internal/config"
	"github.com/cushion-app/cushion-build/internal/ui"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the configuration store from its baseline backup",
	Long: "Copies the pre-transform baseline back over the configuration store.\n" +
		"The pipeline never does this automatically; a failed run leaves the\n" +
		"store transformed until an operator restores it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store := inRoot(cfg, cfg.StorePath)
		backups := appconfig.NewBackupStore(store)
		if err := backups.Restore(store); err != nil {
			return err
		}
		ui.New().Success("store restored from %s", backups.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
