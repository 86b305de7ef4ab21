package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gridbot/internal/platform/tui"
)

var replayCmd = &cobra.Command{
	Use:   "replay <run-id>",
	Short: "Replay a stored run",
	Long: `Step through a stored run in the terminal. The line of the script that
produced each tick is highlighted.

Controls:
  Space     - Play/pause
  Left/Right - Step one tick
  g/G       - Jump to start/end
  Q         - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func runReplay(_ *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, res, err := store.GetRun(args[0])
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s  run %s", run.LevelID, run.ID)
	return tui.RunReplay(title, run.Script, res, cfg.Replay.TickInterval())
}
