// gridbot runs rover scripts against grid puzzle levels.
//
// Usage:
//
//	gridbot levels                 - List available levels
//	gridbot run <level> <file>     - Run a script and print the outcome
//	gridbot replay <run-id>        - Replay a stored run
//	gridbot menu                   - Browse levels and stored runs
//	gridbot runs [level]           - List stored runs
//	gridbot schema                 - Print the level file JSON schema
//	gridbot web                    - Serve the websocket runner
//	gridbot serve                  - Serve the run browser over SSH
//
// Global flags:
//
//	--config <path>     - Engine configuration file
//	--db <path>         - Run database path
//	--levels <dir>      - Extra level directory (repeatable)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/gridbot/internal/config"
	"github.com/vovakirdan/gridbot/internal/level"
	"github.com/vovakirdan/gridbot/internal/script"
	"github.com/vovakirdan/gridbot/internal/storage"
)

var (
	// Global flags
	flagConfig    string
	flagDBPath    string
	flagLevelDirs []string
	flagLogLevel  string

	cfg    config.Config
	logger *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gridbot",
	Short: "gridbot - program a rover through grid puzzles",
	Long: `gridbot runs JavaScript rover scripts against grid puzzle levels and
records which line of the script produced every tick.

Available commands:
  levels   - Show all available levels
  run      - Run a script against a level
  replay   - Replay a stored run
  menu     - Browse levels and stored runs
  runs     - List stored runs
  schema   - Print the level file JSON schema
  web      - Serve the websocket runner
  serve    - Serve the run browser over SSH

Examples:
  gridbot levels
  gridbot run first-steps solution.js --save
  gridbot runs first-steps --best
  gridbot serve`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to run database (overrides config)")
	rootCmd.PersistentFlags().StringSliceVar(&flagLevelDirs, "levels", nil, "Extra level directory (repeatable)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads configuration, builds the logger and registers user levels.
func setup(cmd *cobra.Command, _ []string) error {
	lvl, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "gridbot",
		Level:           lvl,
	})

	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDBPath != "" {
		cfg.Storage.DB = flagDBPath
	}

	dirs := append(cfg.Levels.Dirs, flagLevelDirs...)
	if len(dirs) > 0 {
		n, err := level.NewLoader(logger, dirs...).Register()
		if err != nil {
			return fmt.Errorf("loading levels: %w", err)
		}
		logger.Debug("registered user levels", "count", n, "dirs", dirs)
	}
	return nil
}

func newRunner() *script.Runner {
	return script.NewRunner(
		script.WithLimits(cfg.Limits),
		script.WithLogger(logger),
	)
}

func openStore() (*storage.Store, error) {
	store, err := storage.Open(cfg.Storage.DB)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// terminalSize returns the size of stdout, or 80x24 when it is not a
// terminal.
func terminalSize() (int, int) {
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w, h
	}
	return 80, 24
}
