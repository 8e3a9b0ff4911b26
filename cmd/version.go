package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cushion-app/cushion-build/internal/config"
	"github.com/cushion-app/cushion-build/internal/semverx"
	"github.com/cushion-app/cushion-build/internal/ui"
)

var versionCmd = &cobra.Command{
	Use:   "version [major|minor|patch|X.Y.Z]",
	Short: "Report or synchronize the version across all manifests",
	Long: "Without an argument, reports each manifest's current version and\n" +
		"writes nothing. With a bump keyword or explicit version, validates\n" +
		"first and then writes the resolved version into every manifest.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		sync := semverx.NewSynchronizer(semverx.DefaultManifests(cfg.RepoRoot))

		// No argument: read-only report.
		if len(args) == 0 {
			report, err := sync.Report()
			if err != nil {
				return err
			}
			for _, fv := range report {
				fmt.Fprintf(os.Stdout, "%s\t%s\n", fv.Version, fv.Path)
			}
			return nil
		}

		version, err := sync.Sync(args[0])
		if err != nil {
			return err
		}
		ui.New().Success("all manifests at %s", version)
		fmt.Fprintln(os.Stdout, version)
		return nil
	},
}

var versionVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Fail unless all manifests carry the same version",
	Long:  "The CI merge gate: exits non-zero when the manifest copies drift.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		sync := semverx.NewSynchronizer(semverx.DefaultManifests(cfg.RepoRoot))
		if err := sync.Verify(); err != nil {
			return err
		}
		current, err := sync.Current()
		if err != nil {
			return err
		}
		ui.New().Success("manifests in sync at %s", current)
		return nil
	},
}

func init() {
	versionCmd.AddCommand(versionVerifyCmd)
	rootCmd.AddCommand(versionCmd)
}
