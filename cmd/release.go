package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cushion-app/cushion-build/internal/appconfig"
	"github.com/cushion-app/cushion-build/internal/config"
	"github.com/cushion-app/cushion-build/internal/history"
	"github.com/cushion-app/cushion-build/internal/pipeline"
	"github.com/cushion-app/cushion-build/internal/semverx"
	"github.com/cushion-app/cushion-build/internal/telemetry"
	"github.com/cushion-app/cushion-build/internal/ui"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Run the full release pipeline for the resolved variant",
	Long: "Transforms the configuration store, runs the native build and\n" +
		"bundler, signs and notarizes when credentials are present, and emits\n" +
		"the per-variant update-feed manifest. A missing-credentials signing\n" +
		"stage is skipped with a warning; any other stage failure halts the run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printer := ui.New()

		skipSigning, _ := cmd.Flags().GetBool("skip-signing")
		cfg.StageTimeout = stageTimeout(cmd, cfg)
		if notes, _ := cmd.Flags().GetString("notes"); notes != "" {
			cfg.ReleaseNotes = notes
		}

		ctx := cmd.Context()

		ledger, emitter := openStateStores(ctx, printer, cfg)
		defer ledger.Close()
		defer emitter.Close()

		runner := &pipeline.Runner{
			Opts: pipeline.Options{
				BundleDir:       inRoot(cfg, cfg.BundleDir),
				FeedDir:         inRoot(cfg, cfg.FeedDir),
				DownloadBase:    cfg.DownloadBase,
				PlatformKey:     cfg.PlatformKey,
				BuildCommand:    cfg.BuildCommand,
				BundleCommand:   cfg.BundleCommand,
				SignCommand:     cfg.SignCommand,
				NotarizeCommand: cfg.NotarizeCommand,
				ReleaseNotes:    cfg.ReleaseNotes,
				SkipSigning:     skipSigning,
				StageTimeout:    cfg.StageTimeout,
			},
			Transformer: appconfig.NewTransformer(inRoot(cfg, cfg.StorePath)),
			Sync:        semverx.NewSynchronizer(semverx.DefaultManifests(cfg.RepoRoot)),
			Exec: &pipeline.ExecRunner{
				Dir:    cfg.RepoRoot,
				Stdout: os.Stderr,
				Stderr: os.Stderr,
			},
			Printer:   printer,
			Telemetry: emitter,
			Ledger:    ledger,
		}

		res, err := runner.Run(ctx, envSnapshot())
		if err != nil {
			return err
		}
		printer.Info("installer: %s", res.Artifact)
		printer.Info("update feed: %s", res.FeedPath)
		return nil
	},
}

// stageTimeout prefers an explicitly passed --timeout over the configured
// stage_timeout. The flag's default must not clobber a value set in the
// config file or environment.
func stageTimeout(cmd *cobra.Command, cfg config.Config) time.Duration {
	if cmd.Flags().Changed("timeout") {
		d, _ := cmd.Flags().GetDuration("timeout")
		return d
	}
	return cfg.StageTimeout
}

// openStateStores opens the run ledger and telemetry stream. Both are
// advisory: broken local state degrades to nil stores with a warning and
// must never block a release.
func openStateStores(ctx context.Context, printer *ui.Printer, cfg config.Config) (*history.Store, *telemetry.Emitter) {
	stateDir := filepath.Dir(inRoot(cfg, cfg.HistoryPath))
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		printer.Warn("state dir unavailable: %v", err)
		return nil, nil
	}

	ledger, err := history.Open(ctx, inRoot(cfg, cfg.HistoryPath))
	if err != nil {
		printer.Warn("run ledger unavailable: %v", err)
	}
	emitter, err := telemetry.NewEmitter(inRoot(cfg, cfg.TelemetryPath))
	if err != nil {
		printer.Warn("telemetry unavailable: %v", err)
	}
	return ledger, emitter
}

func init() {
	releaseCmd.Flags().Bool("skip-signing", false, "skip code signing and notarization")
	releaseCmd.Flags().Duration("timeout", 30*time.Minute, "per-stage timeout for external tools")
	releaseCmd.Flags().String("notes", "", "release notes for the update-feed manifest")
	rootCmd.AddCommand(releaseCmd)
}
