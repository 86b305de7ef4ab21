package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gridbot/internal/platform/tui"
)

var (
	flagSSHAddr string
	flagHostKey string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run browser over SSH",
	Long: `Start an SSH server where visitors browse levels and watch replays of
stored runs.

Host key handling:
  - If --host-key (or ssh.host_key in the config) is set, uses that key file
  - Otherwise, auto-generates a key at ~/.gridbot/host_key

Examples:
  gridbot serve                  # Listen on the configured address
  gridbot serve --ssh :2222      # Listen on port 2222

Visitors connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	sshCfg := tui.SSHServerConfig{
		Address:        cfg.SSH.Addr,
		HostKeyPath:    cfg.SSH.HostKey,
		IdleTimeout:    cfg.SSH.IdleTimeout,
		ReplayInterval: cfg.Replay.TickInterval(),
	}
	if flagSSHAddr != "" {
		sshCfg.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		sshCfg.HostKeyPath = flagHostKey
	}

	var store tui.RunStore
	s, err := openStore()
	if err != nil {
		logger.Warn("could not open run database", "error", err)
	} else {
		defer s.Close()
		store = s
	}

	server, err := tui.NewSSHServer(sshCfg, store, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving gridbot over SSH on %s (Ctrl+C to stop)\n", server.Addr())
	return server.ListenAndServe(cmd.Context())
}
