package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gridbot/internal/platform/tui"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Browse levels and their stored runs",
	Long: `Start the interactive run browser.

Pick a level, pick one of its stored runs and watch the replay.

Controls:
  Up/Down/j/k  - Navigate
  Enter        - Select
  Tab          - Toggle best/recent runs
  Esc/B        - Back
  Q            - Quit`,
	Args: cobra.NoArgs,
	RunE: runMenu,
}

func runMenu(_ *cobra.Command, _ []string) error {
	var store tui.RunStore
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open run database: %v\n", err)
	} else {
		defer s.Close()
		store = s
	}

	width, height := terminalSize()
	return tui.RunSession(store, width, height, cfg.Replay.TickInterval())
}
