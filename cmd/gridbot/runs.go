package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gridbot/internal/storage"
)

var (
	flagBest  bool
	flagLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs [level]",
	Short: "List stored runs",
	Long: `List stored runs, newest first. With --best, list the successful runs of
a level ordered by code length and then ticks.

Examples:
  gridbot runs
  gridbot runs hazards
  gridbot runs hazards --best --limit 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().BoolVar(&flagBest, "best", false, "Show the best successful runs of a level")
	runsCmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum number of runs")
}

func runRuns(cmd *cobra.Command, args []string) error {
	levelID := ""
	if len(args) == 1 {
		levelID = args[0]
	}
	if flagBest && levelID == "" {
		return fmt.Errorf("--best needs a level")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var runs []storage.Run
	if flagBest {
		runs, err = store.BestRuns(levelID, flagLimit)
	} else {
		runs, err = store.RecentRuns(levelID, flagLimit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-14s  %-22s  %5s  %5s  %6s  %s\n", "ID", "Level", "Outcome", "Code", "Ticks", "Energy", "When")
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %-14s  %-22s  %5d  %5d  %6d  %s\n",
			r.ID, r.LevelID, r.Outcome, r.Stats.CodeLen, r.Stats.TicksTaken, r.Stats.EnergyUsed,
			humanize.Time(r.CreatedAt))
	}
	return nil
}
