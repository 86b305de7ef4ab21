package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gridbot/internal/platform/tui"
	"github.com/vovakirdan/gridbot/internal/registry"
	"github.com/vovakirdan/gridbot/internal/script"
)

var (
	flagState   int
	flagSave    bool
	flagJSON    bool
	flagWatch   bool
	flagTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <level> <script.js|->",
	Short: "Run a script against a level",
	Long: `Run a rover script against a level and print the outcome.

Use - to read the script from standard input.

Examples:
  gridbot run first-steps solution.js
  gridbot run hazards solution.js --state 0 --save
  gridbot run turns - --json < solution.js
  gridbot run crates solution.js --watch`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagState, "state", 0, "Index of the start variant")
	runCmd.Flags().BoolVar(&flagSave, "save", false, "Store the run in the database")
	runCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the full result as JSON")
	runCmd.Flags().BoolVar(&flagWatch, "watch", false, "Replay the run in the terminal")
	runCmd.Flags().DurationVar(&flagTimeout, "timeout", 10*time.Second, "Wall clock limit for the run")
}

func readScript(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func runRun(cmd *cobra.Command, args []string) error {
	levelID, path := args[0], args[1]
	lvl, err := registry.Create(levelID)
	if err != nil {
		return err
	}
	src, err := readScript(path)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	res, err := newRunner().Run(ctx, lvl, flagState, src)
	out := cmd.OutOrStdout()
	if err != nil {
		var serr *script.Error
		if flagJSON && errors.As(err, &serr) {
			return json.NewEncoder(out).Encode(map[string]any{"error": serr})
		}
		return err
	}

	var runID string
	if flagSave {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		run, err := store.SaveRun(levelID, flagState, src, res)
		if err != nil {
			return err
		}
		runID = run.ID
	}

	switch {
	case flagJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RunID string `json:"run_id,omitempty"`
			*script.Result
		}{runID, res})
	case flagWatch:
		return tui.RunReplay(lvl.Name(), src, res, cfg.Replay.TickInterval())
	}

	fmt.Fprintf(out, "%s: %s\n", lvl.Name(), res.Outcome)
	fmt.Fprintf(out, "  code length  %d\n", res.Stats.CodeLen)
	fmt.Fprintf(out, "  ticks        %d\n", res.Stats.TicksTaken)
	fmt.Fprintf(out, "  energy used  %d\n", res.Stats.EnergyUsed)
	if runID != "" {
		fmt.Fprintf(out, "  saved as     %s\n", runID)
	}
	return nil
}
