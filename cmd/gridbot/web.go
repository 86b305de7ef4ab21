package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gridbot/internal/transport/ws"
)

var flagWebAddr string

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the websocket runner",
	Long: `Serve the websocket endpoint browser clients use to run scripts.

Endpoints:
  /ws      - send {"type":"RUN","level":...,"state_index":...,"script":...}
  /levels  - JSON list of levels

Runs sent with "save": true are stored in the run database.`,
	Args: cobra.NoArgs,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().StringVar(&flagWebAddr, "addr", "", "Listen address (overrides config)")
}

func runWeb(cmd *cobra.Command, _ []string) error {
	addr := cfg.Web.Addr
	if flagWebAddr != "" {
		addr = flagWebAddr
	}

	opts := []ws.Option{ws.WithLogger(logger)}
	store, err := openStore()
	if err != nil {
		logger.Warn("running without a run database", "err", err)
	} else {
		defer store.Close()
		opts = append(opts, ws.WithStore(store))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.NewServer(newRunner(), opts...).Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving websocket runner", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
