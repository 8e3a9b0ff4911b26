package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cushion-app/cushion-build/internal/appconfig"
	"github.com/cushion-app/cushion-build/internal/config"
	"github.com/cushion-app/cushion-build/internal/ui"
	"github.com/cushion-app/cushion-build/internal/variant"
	"github.com/cushion-app/cushion-build/internal/watch"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Point the store at the local dev server and watch it",
	Long: "Applies the Test override (content source → local dev server) and\n" +
		"then watches the configuration store, re-validating after manual\n" +
		"edits so a broken identity field surfaces before the next build.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printer := ui.New()
		store := inRoot(cfg, cfg.StorePath)

		tr := appconfig.NewTransformer(store)
		doc, err := tr.Apply(variant.Test)
		if err != nil {
			return err
		}
		printer.Success("store pointed at %s", doc.FrontendDist())

		w, err := watch.NewWatcher(store)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		printer.Info("watching %s (ctrl-c to stop)", store)
		for {
			select {
			case <-ctx.Done():
				return nil
			case change := <-w.Changes:
				if change.Kind == watch.ChangeRemoved {
					printer.Error("store deleted: %s", change.File)
					continue
				}
				checkStore(printer, store)
			}
		}
	},
}

// checkStore re-validates the store after an out-of-band edit.
func checkStore(printer *ui.Printer, store string) {
	doc, _, err := appconfig.Load(store)
	if err != nil {
		printer.Error("store edited and now unreadable: %v", err)
		return
	}
	if doc.Identifier() == "" {
		printer.Error("store edited: identifier is empty")
		return
	}
	if doc.FrontendDist() != variant.DevServerURL {
		printer.Warn("store edited: content source no longer %s (now %s)",
			variant.DevServerURL, doc.FrontendDist())
		return
	}
	printer.Info("store edited: %s", doc.Summary())
}

func init() {
	rootCmd.AddCommand(devCmd)
}
