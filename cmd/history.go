package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/calebmoss/slipway/internal/config"
	"github.com/calebmoss/slipway/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent publish runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 10, "maximum number of runs to show")
	historyCmd.Flags().Int64("run", 0, "show the actions of one run")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := history.Open(ctx, filepath.Join(wd, cfg.HistoryPath))
	if err != nil {
		return err
	}
	defer store.Close()

	if runID, _ := cmd.Flags().GetInt64("run"); runID > 0 {
		actions, err := store.RunActions(ctx, runID)
		if err != nil {
			return err
		}
		if len(actions) == 0 {
			fmt.Printf("no actions recorded for run %d\n", runID)
			return nil
		}
		for _, a := range actions {
			fmt.Printf("%s  %-8s %s", a.At.Format(time.RFC3339), a.Kind, a.Package)
			if a.Version != "" {
				fmt.Printf("@%s", a.Version)
			}
			if a.Detail != "" {
				fmt.Printf(" (%s)", a.Detail)
			}
			fmt.Println()
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no publish runs recorded")
		return nil
	}
	for _, r := range runs {
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format(time.RFC3339)
		}
		fmt.Printf("#%-4d %-16s %-8s started %s finished %s\n",
			r.ID, r.Mode, r.Status, r.StartedAt.Format(time.RFC3339), finished)
	}
	return nil
}
