package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cushion-app/cushion-build/internal/config"
	"github.com/cushion-app/cushion-build/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent release pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := history.Open(cmd.Context(), inRoot(cfg, cfg.HistoryPath))
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "no runs recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tVARIANT\tVERSION\tSTAGE\tSTATUS\tSIGNED\tARTIFACT")
		for _, r := range runs {
			signed := ""
			if r.Signed {
				signed = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.StartedAt.Format(time.DateTime), r.Variant, r.Version, r.Stage, r.Status, signed, r.Artifact)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().Int("limit", 10, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
