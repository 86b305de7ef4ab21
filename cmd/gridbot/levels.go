package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gridbot/internal/registry"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List all available levels",
	Long:  `Shows every built-in level plus the levels found in --levels directories.`,
	Args:  cobra.NoArgs,
	RunE:  runLevels,
}

func runLevels(cmd *cobra.Command, _ []string) error {
	levels := registry.List()
	out := cmd.OutOrStdout()

	if len(levels) == 0 {
		fmt.Fprintln(out, "No levels available.")
		return nil
	}

	maxIDLen := 2 // "ID" header
	for _, l := range levels {
		maxIDLen = max(maxIDLen, len(l.ID))
	}

	fmt.Fprintf(out, "  %-*s  %-24s  %s\n", maxIDLen, "ID", "Name", "Locked functions")
	fmt.Fprintf(out, "  %-*s  %-24s  %s\n", maxIDLen, "--", "----", "----------------")
	for _, info := range levels {
		lvl, err := registry.Create(info.ID)
		if err != nil {
			return err
		}
		locked := strings.Join(lvl.DisabledFunctions(), ", ")
		if locked == "" {
			locked = "-"
		}
		fmt.Fprintf(out, "  %-*s  %-24s  %s\n", maxIDLen, info.ID, info.Name, locked)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Run 'gridbot run <id> <script.js>' to try a level.")
	return nil
}
